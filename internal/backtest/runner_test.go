// Package backtest 回测流水线测试
package backtest

import (
	"fmt"
	"testing"

	"go.uber.org/zap"

	"earnings-reversal-backtest/internal/core/calendar"
	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/core/session"
	"earnings-reversal-backtest/internal/core/signal"
	"earnings-reversal-backtest/internal/core/store"
	"earnings-reversal-backtest/internal/core/trade"
	"earnings-reversal-backtest/internal/util/dateutil"
)

var testCost = model.CostScenario{Name: "medium", SpreadBps: 5, SlippageBps: 5, CommissionBps: 10}

func putBar(t *testing.T, s *store.Store, symbol, date string, open, high, low, close float64) {
	t.Helper()
	d, err := dateutil.Parse(date)
	if err != nil {
		t.Fatalf("解析日期失败: %v", err)
	}
	err = s.Put(&model.DailyBar{
		Symbol: symbol, Date: d,
		Open: open, High: high, Low: low, Close: close, Volume: 1000,
	})
	if err != nil {
		t.Fatalf("注入行情失败: %v", err)
	}
}

func amcEvent(t *testing.T, symbol, date string) *model.EarningsEvent {
	t.Helper()
	d, err := dateutil.Parse(date)
	if err != nil {
		t.Fatalf("解析日期失败: %v", err)
	}
	return &model.EarningsEvent{Symbol: symbol, AnnouncementDate: d, Timing: model.TimingAfterClose}
}

// newTestRunner 构造覆盖五种落点的测试数据:
// LONG / SHORT / no_trade(r1) / 不完整窗口 / 日历缺口
func newTestRunner(t *testing.T, policy session.UnknownPolicy, workers int) (*Runner, []*model.EarningsEvent) {
	t.Helper()
	cal, err := calendar.New(calendar.ExchangeXNYS)
	if err != nil {
		t.Fatalf("创建日历失败: %v", err)
	}
	engine, err := signal.NewEngine(0.01, 0.01)
	if err != nil {
		t.Fatalf("创建信号引擎失败: %v", err)
	}
	sim := trade.NewSimulator(testCost)

	bars := store.New()
	// LONG: T1 大涨（R1=+5%），T2 低开（Gap2=-2%），日内回升触及目标 105
	putBar(t, bars, "LONGC", "2024-05-16", 100, 101, 99, 100)
	putBar(t, bars, "LONGC", "2024-05-17", 100, 106, 100, 105)
	putBar(t, bars, "LONGC", "2024-05-20", 102.90, 105.50, 102, 104)
	// SHORT: T1 大跌（R1=-5%），T2 高开（Gap2=+2%），日内回落触及目标 95
	putBar(t, bars, "SHRTC", "2024-05-16", 100, 101, 99, 100)
	putBar(t, bars, "SHRTC", "2024-05-17", 100, 100, 94, 95)
	putBar(t, bars, "SHRTC", "2024-05-20", 96.90, 97.50, 94.80, 96)
	// NOTRD: T1 几乎不动（R1 不显著）
	putBar(t, bars, "NOTRD", "2024-05-16", 100, 101, 99, 100)
	putBar(t, bars, "NOTRD", "2024-05-17", 100, 101, 99, 100.50)
	putBar(t, bars, "NOTRD", "2024-05-20", 102, 103, 101, 102)
	// INCMP: T2 行情缺失
	putBar(t, bars, "INCMP", "2024-05-16", 100, 101, 99, 100)
	putBar(t, bars, "INCMP", "2024-05-17", 100, 106, 100, 105)

	events := []*model.EarningsEvent{
		amcEvent(t, "LONGC", "2024-05-16"),
		amcEvent(t, "SHRTC", "2024-05-16"),
		amcEvent(t, "NOTRD", "2024-05-16"),
		amcEvent(t, "INCMP", "2024-05-16"),
		amcEvent(t, "GAPPD", "2025-12-30"), // T2 越过日历覆盖范围
	}

	return NewRunner(cal, bars, engine, sim, policy, workers, zap.NewNop()), events
}

func TestRun_EndToEnd(t *testing.T) {
	r, events := newTestRunner(t, session.UnknownAsAfterClose, 1)

	results, cov, err := r.Run(events)
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}
	if len(results) != len(events) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(events))
	}

	// 下标对齐: LONGC
	long := results[0]
	if long.Signal == nil || long.Signal.Direction != model.DirectionLong {
		t.Fatalf("LONGC 应产生 long 信号, got %+v", long.Signal)
	}
	if long.Trade == nil || !long.Trade.HitTarget {
		t.Fatalf("LONGC 成交应命中目标（T2 高点 105.50 >= 目标 105）")
	}
	if long.Trade.ExitPx != 105 {
		t.Fatalf("LONGC ExitPx = %v, want 105", long.Trade.ExitPx)
	}

	// SHRTC
	short := results[1]
	if short.Signal == nil || short.Signal.Direction != model.DirectionShort {
		t.Fatalf("SHRTC 应产生 short 信号")
	}
	if short.Trade == nil || !short.Trade.HitTarget {
		t.Fatalf("SHRTC 成交应命中目标（T2 低点 94.80 <= 目标 95）")
	}

	// NOTRD
	noTrade := results[2]
	if noTrade.Signal == nil || noTrade.Signal.Direction != model.DirectionNoTrade {
		t.Fatalf("NOTRD 应产生 no_trade 信号")
	}
	if noTrade.Signal.Reason != model.ReasonR1NotSignificant {
		t.Fatalf("NOTRD Reason = %s, want r1_not_significant", noTrade.Signal.Reason)
	}
	if noTrade.Trade != nil {
		t.Fatalf("no_trade 信号不应产生成交")
	}

	// INCMP: 不完整窗口止于窗口阶段
	incomplete := results[3]
	if incomplete.Window == nil || incomplete.Window.IsComplete() {
		t.Fatalf("INCMP 应产生不完整窗口")
	}
	if incomplete.Features != nil || incomplete.Signal != nil {
		t.Fatalf("不完整窗口不应进入特征/信号阶段")
	}

	// GAPPD: 日历缺口按单事件恢复
	gapped := results[4]
	if gapped.Err == nil {
		t.Fatalf("GAPPD 应记录日历缺口错误")
	}
	if gapped.Window != nil {
		t.Fatalf("日历缺口事件不应产生窗口")
	}

	// 覆盖率: 1 缺口 + 1 不完整 + 1 no_trade + 1 long + 1 short == 5
	if cov.TotalEvents != 5 || cov.CalendarGaps != 1 || cov.IncompleteWindows != 1 ||
		cov.NoTradeTotal() != 1 || cov.LongSignals != 1 || cov.ShortSignals != 1 {
		t.Fatalf("覆盖率统计错误: %+v", cov)
	}
	if cov.Trades != 2 {
		t.Fatalf("Trades = %d, want 2", cov.Trades)
	}
	if cov.MissingT2 != 1 {
		t.Fatalf("MissingT2 = %d, want 1", cov.MissingT2)
	}
	if !cov.Exhaustive() {
		t.Fatalf("覆盖率穷尽性不变式被破坏")
	}
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	r1, events := newTestRunner(t, session.UnknownAsAfterClose, 1)
	r4, _ := newTestRunner(t, session.UnknownAsAfterClose, 4)

	resultsSeq, covSeq, err := r1.Run(events)
	if err != nil {
		t.Fatalf("串行回测失败: %v", err)
	}
	resultsPar, covPar, err := r4.Run(events)
	if err != nil {
		t.Fatalf("并行回测失败: %v", err)
	}

	// Summary 含 map 字段，按格式化表示对比
	if fmt.Sprintf("%+v", covSeq) != fmt.Sprintf("%+v", covPar) {
		t.Fatalf("覆盖率统计随并行度变化: %+v vs %+v", covSeq, covPar)
	}

	for i := range events {
		a, b := resultsSeq[i], resultsPar[i]
		if (a.Signal == nil) != (b.Signal == nil) {
			t.Fatalf("事件 %d 信号存在性不一致", i)
		}
		if a.Signal != nil && (a.Signal.Direction != b.Signal.Direction || a.Signal.Reason != b.Signal.Reason) {
			t.Fatalf("事件 %d 信号不一致: %s/%s vs %s/%s",
				i, a.Signal.Direction, a.Signal.Reason, b.Signal.Direction, b.Signal.Reason)
		}
		if (a.Trade == nil) != (b.Trade == nil) {
			t.Fatalf("事件 %d 成交存在性不一致", i)
		}
		if a.Trade != nil && a.Trade.NetReturn != b.Trade.NetReturn {
			t.Fatalf("事件 %d 净收益不一致: %v vs %v", i, a.Trade.NetReturn, b.Trade.NetReturn)
		}
	}
}

func TestRun_ExcludePolicy(t *testing.T) {
	r, _ := newTestRunner(t, session.UnknownExclude, 2)

	// 形态本身可交易，但时点未知且策略为 exclude
	ev := amcEvent(t, "LONGC", "2024-05-16")
	ev.Timing = model.TimingUnknown

	results, cov, err := r.Run([]*model.EarningsEvent{ev})
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}
	sig := results[0].Signal
	if sig == nil || sig.Direction != model.DirectionNoTrade {
		t.Fatalf("exclude 策略下未知时点事件应为 no_trade")
	}
	if sig.Reason != model.ReasonUnknownSessionExcluded {
		t.Fatalf("Reason = %s, want unknown_session_excluded", sig.Reason)
	}
	if results[0].Trade != nil {
		t.Fatalf("排除事件不应产生成交")
	}
	if cov.UnknownTiming != 1 || !cov.Exhaustive() {
		t.Fatalf("覆盖率统计错误: %+v", cov)
	}
}
