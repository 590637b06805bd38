// Package signal 信号引擎测试
package signal

import (
	"testing"

	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/util/dateutil"
)

func mustEngine(t *testing.T, r1Thr, gap2Thr float64) *Engine {
	t.Helper()
	e, err := NewEngine(r1Thr, gap2Thr)
	if err != nil {
		t.Fatalf("创建信号引擎失败: %v", err)
	}
	return e
}

// featureRecord 构造带完整窗口的特征记录
// t2 开盘价与 t1 收盘价由 R1/Gap2 反推，保证 entry/target 自洽。
func featureRecord(r1, gap2 float64) *model.FeatureRecord {
	d0, _ := dateutil.Parse("2024-05-16")
	d1, _ := dateutil.Parse("2024-05-17")
	d2, _ := dateutil.Parse("2024-05-20")

	t0Close := 100.0
	t1Close := t0Close * (1 + r1)
	t2Open := t1Close * (1 + gap2)

	w := &model.EventWindow{
		Event:           &model.EarningsEvent{Symbol: "AAPL", AnnouncementDate: d0, Timing: model.TimingAfterClose},
		EffectiveTiming: model.TimingAfterClose,
		T0Date:          d0, T1Date: d1, T2Date: d2,
		T0Bar: &model.DailyBar{Symbol: "AAPL", Date: d0, Open: t0Close, High: t0Close * 1.1, Low: t0Close * 0.9, Close: t0Close, Volume: 1},
		T1Bar: &model.DailyBar{Symbol: "AAPL", Date: d1, Open: t1Close, High: t1Close * 1.1, Low: t1Close * 0.9, Close: t1Close, Volume: 1},
		T2Bar: &model.DailyBar{Symbol: "AAPL", Date: d2, Open: t2Open, High: t2Open * 1.1, Low: t2Open * 0.9, Close: t2Open, Volume: 1},
	}
	return &model.FeatureRecord{Window: w, R1: r1, Gap2: gap2}
}

func TestNewEngine_RejectsNonPositiveThresholds(t *testing.T) {
	for _, thr := range []float64{0, -0.01} {
		if _, err := NewEngine(thr, 0.01); err == nil {
			t.Errorf("R1 阈值 %v 应被拒绝", thr)
		}
		if _, err := NewEngine(0.01, thr); err == nil {
			t.Errorf("Gap2 阈值 %v 应被拒绝", thr)
		}
	}
}

func TestClassify_RuleTable(t *testing.T) {
	e := mustEngine(t, 0.01, 0.01)

	cases := []struct {
		r1, gap2   float64
		direction  model.Direction
		reason     model.NoTradeReason
		desc       string
	}{
		{-0.00975, 0.02, model.DirectionNoTrade, model.ReasonR1NotSignificant, "R1 不显著"},
		{0.005, -0.05, model.DirectionNoTrade, model.ReasonR1NotSignificant, "R1 不显著优先于 Gap2"},
		{0.02, -0.005, model.DirectionNoTrade, model.ReasonGap2NotSignificant, "Gap2 不显著"},
		{0.02, 0.03, model.DirectionNoTrade, model.ReasonSameDirection, "同向（双正）"},
		{-0.02, -0.03, model.DirectionNoTrade, model.ReasonSameDirection, "同向（双负）"},
		{0.02, -0.015, model.DirectionLong, model.ReasonNone, "上涨后隔夜回落 → long"},
		{-0.02, 0.015, model.DirectionShort, model.ReasonNone, "下跌后隔夜反弹 → short"},
		{0.01, -0.01, model.DirectionLong, model.ReasonNone, "阈值恰好相等计为显著"},
	}
	for _, tc := range cases {
		sig := e.Classify(featureRecord(tc.r1, tc.gap2))
		if sig.Direction != tc.direction {
			t.Errorf("%s: Direction = %s, want %s", tc.desc, sig.Direction, tc.direction)
		}
		if sig.Reason != tc.reason {
			t.Errorf("%s: Reason = %s, want %s", tc.desc, sig.Reason, tc.reason)
		}
	}
}

func TestClassify_IndependentThresholds(t *testing.T) {
	// R1 阈值 0.01，Gap2 阈值 0.03：两个阈值逻辑独立
	e := mustEngine(t, 0.01, 0.03)

	sig := e.Classify(featureRecord(0.02, -0.02))
	if sig.Direction != model.DirectionNoTrade || sig.Reason != model.ReasonGap2NotSignificant {
		t.Fatalf("Gap2 未过自身阈值应为 no_trade(gap2_not_significant), got %s/%s", sig.Direction, sig.Reason)
	}

	sig = e.Classify(featureRecord(0.02, -0.04))
	if sig.Direction != model.DirectionLong {
		t.Fatalf("双阈值均通过应为 long, got %s", sig.Direction)
	}
}

func TestClassify_AttachesPrices(t *testing.T) {
	e := mustEngine(t, 0.01, 0.01)
	f := featureRecord(0.005, 0.001) // no_trade

	sig := e.Classify(f)
	if sig.EntryPx != f.Window.T2Bar.Open {
		t.Fatalf("EntryPx = %v, want T2 开盘价 %v", sig.EntryPx, f.Window.T2Bar.Open)
	}
	if sig.TargetPx != f.Window.T1Bar.Close {
		t.Fatalf("TargetPx = %v, want T1 收盘价 %v", sig.TargetPx, f.Window.T1Bar.Close)
	}
	if sig.IsTradeable() {
		t.Fatalf("no_trade 信号不应可交易")
	}
}

func TestExcludeUnknown(t *testing.T) {
	e := mustEngine(t, 0.01, 0.01)
	// 即使形态本身可交易，排除信号也必须为 no_trade
	f := featureRecord(0.02, -0.02)

	sig := e.ExcludeUnknown(f)
	if sig.Direction != model.DirectionNoTrade {
		t.Fatalf("Direction = %s, want no_trade", sig.Direction)
	}
	if sig.Reason != model.ReasonUnknownSessionExcluded {
		t.Fatalf("Reason = %s, want unknown_session_excluded", sig.Reason)
	}
	if sig.EntryPx == 0 || sig.TargetPx == 0 {
		t.Fatalf("排除信号也应附带 entry/target 价格")
	}
}

func TestDirectionCoef(t *testing.T) {
	e := mustEngine(t, 0.01, 0.01)
	if got := e.Classify(featureRecord(0.02, -0.02)).DirectionCoef(); got != 1 {
		t.Fatalf("long 方向系数 = %v, want 1", got)
	}
	if got := e.Classify(featureRecord(-0.02, 0.02)).DirectionCoef(); got != -1 {
		t.Fatalf("short 方向系数 = %v, want -1", got)
	}
	if got := e.Classify(featureRecord(0.001, 0.001)).DirectionCoef(); got != 0 {
		t.Fatalf("no_trade 方向系数 = %v, want 0", got)
	}
}
