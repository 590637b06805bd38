// Package coverage 实现事件级覆盖率与排除原因统计。
// 纯观测：统计结果只用于外部报告，绝不反向影响引擎决策。
// 并行 worker 各自持有独立 Tracker，结束后合并（加法，与顺序无关），
// 保证计数不随并行度变化。
package coverage

import "earnings-reversal-backtest/internal/core/model"

// Tracker run 级覆盖率累加器
// 非并发安全：每个 worker 独立持有一个实例，结果通过 Merge 汇总。
type Tracker struct {
	// totalEvents 处理的事件总数
	totalEvents int
	// unknownTiming 公告时点未知的事件数
	unknownTiming int
	// calendarGaps 日历覆盖缺口导致排除的事件数
	calendarGaps int
	// incompleteWindows 不完整窗口数
	incompleteWindows int
	// missingT0 / missingT1 / missingT2 各腿行情缺失计数
	missingT0 int
	missingT1 int
	missingT2 int
	// noTradeByReason 按原因码统计的 no_trade 信号数
	noTradeByReason map[model.NoTradeReason]int
	// longSignals / shortSignals 可交易信号计数
	longSignals  int
	shortSignals int
	// trades 模拟成交笔数
	trades int
}

// NewTracker 创建空的覆盖率累加器
func NewTracker() *Tracker {
	return &Tracker{
		noTradeByReason: make(map[model.NoTradeReason]int),
	}
}

// RecordEvent 记录一个进入流水线的事件
func (t *Tracker) RecordEvent(ev *model.EarningsEvent) {
	t.totalEvents++
	if ev.Timing == model.TimingUnknown {
		t.unknownTiming++
	}
}

// RecordCalendarGap 记录一个因日历覆盖缺口被排除的事件
// 该失败按单事件恢复，绝不静默丢弃。
func (t *Tracker) RecordCalendarGap() {
	t.calendarGaps++
}

// RecordIncomplete 记录一个不完整窗口及其缺失腿
func (t *Tracker) RecordIncomplete(w *model.EventWindow) {
	t.incompleteWindows++
	if w.T0Bar == nil {
		t.missingT0++
	}
	if w.T1Bar == nil {
		t.missingT1++
	}
	if w.T2Bar == nil {
		t.missingT2++
	}
}

// RecordSignal 记录一条信号的分类结果
func (t *Tracker) RecordSignal(sig *model.Signal) {
	switch sig.Direction {
	case model.DirectionLong:
		t.longSignals++
	case model.DirectionShort:
		t.shortSignals++
	default:
		t.noTradeByReason[sig.Reason]++
	}
}

// RecordTrade 记录一笔模拟成交
func (t *Tracker) RecordTrade() {
	t.trades++
}

// Merge 合并另一个累加器的计数（纯加法，与合并顺序无关）
func (t *Tracker) Merge(other *Tracker) {
	t.totalEvents += other.totalEvents
	t.unknownTiming += other.unknownTiming
	t.calendarGaps += other.calendarGaps
	t.incompleteWindows += other.incompleteWindows
	t.missingT0 += other.missingT0
	t.missingT1 += other.missingT1
	t.missingT2 += other.missingT2
	t.longSignals += other.longSignals
	t.shortSignals += other.shortSignals
	t.trades += other.trades
	for reason, n := range other.noTradeByReason {
		t.noTradeByReason[reason] += n
	}
}

// Summary run 级覆盖率只读摘要
// 任何信号/成交计数都必须与排除计数一同报告，
// 两个集合互斥且合并后覆盖全部输入事件。
type Summary struct {
	// TotalEvents 事件总数
	TotalEvents int `json:"total_events"`
	// UnknownTiming 时点未知事件数
	UnknownTiming int `json:"unknown_timing"`
	// CalendarGaps 日历缺口排除数
	CalendarGaps int `json:"calendar_gaps"`
	// IncompleteWindows 不完整窗口数
	IncompleteWindows int `json:"incomplete_windows"`
	// MissingT0 / MissingT1 / MissingT2 各腿缺失计数
	MissingT0 int `json:"missing_t0"`
	MissingT1 int `json:"missing_t1"`
	MissingT2 int `json:"missing_t2"`
	// NoTradeByReason 按原因码统计的 no_trade 数
	NoTradeByReason map[string]int `json:"no_trade_by_reason"`
	// LongSignals / ShortSignals 可交易信号计数
	LongSignals  int `json:"long_signals"`
	ShortSignals int `json:"short_signals"`
	// Trades 模拟成交笔数
	Trades int `json:"trades"`
}

// Summary 生成只读摘要
func (t *Tracker) Summary() Summary {
	byReason := make(map[string]int, len(t.noTradeByReason))
	for reason, n := range t.noTradeByReason {
		byReason[string(reason)] = n
	}
	return Summary{
		TotalEvents:       t.totalEvents,
		UnknownTiming:     t.unknownTiming,
		CalendarGaps:      t.calendarGaps,
		IncompleteWindows: t.incompleteWindows,
		MissingT0:         t.missingT0,
		MissingT1:         t.missingT1,
		MissingT2:         t.missingT2,
		NoTradeByReason:   byReason,
		LongSignals:       t.longSignals,
		ShortSignals:      t.shortSignals,
		Trades:            t.trades,
	}
}

// NoTradeTotal 获取 no_trade 信号总数
func (s Summary) NoTradeTotal() int {
	var n int
	for _, v := range s.NoTradeByReason {
		n += v
	}
	return n
}

// Exhaustive 检查穷尽性不变式
// 每个输入事件必须恰好落入 {日历缺口, 不完整窗口, no_trade, long/short} 之一。
func (s Summary) Exhaustive() bool {
	return s.CalendarGaps+s.IncompleteWindows+s.NoTradeTotal()+s.LongSignals+s.ShortSignals == s.TotalEvents
}
