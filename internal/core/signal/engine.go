// Package signal 实现特征记录到交易信号的分类。
// 规则表按顺序求值，首条命中即生效；方向与原因码是封闭枚举，
// 规则表可被穷举检查。
package signal

import (
	"fmt"
	"math"

	"earnings-reversal-backtest/internal/core/model"
)

// Engine 信号分类引擎
// R1 与 Gap2 的显著性阈值是两个逻辑独立的参数，
// 即使默认值相同也必须分别配置。
type Engine struct {
	// r1Threshold R1 显著性阈值（小数收益率，必须 > 0）
	r1Threshold float64
	// gap2Threshold Gap2 显著性阈值（小数收益率，必须 > 0）
	gap2Threshold float64
}

// NewEngine 创建信号分类引擎
// 阈值必须为正数：零收益永远落入"不显著"分支，
// 阈值为 0 会让该保证失效。
func NewEngine(r1Threshold, gap2Threshold float64) (*Engine, error) {
	if r1Threshold <= 0 {
		return nil, fmt.Errorf("R1 显著性阈值必须为正数，当前值: %v", r1Threshold)
	}
	if gap2Threshold <= 0 {
		return nil, fmt.Errorf("Gap2 显著性阈值必须为正数，当前值: %v", gap2Threshold)
	}
	return &Engine{r1Threshold: r1Threshold, gap2Threshold: gap2Threshold}, nil
}

// Classify 对一条特征记录分类
// 决策顺序（首条命中即生效）:
//  1. |R1| < r1_threshold           → no_trade(r1_not_significant)
//  2. |Gap2| < gap2_threshold       → no_trade(gap2_not_significant)
//  3. sign(R1) == sign(Gap2)        → no_trade(same_direction)
//  4. R1 > 0 且 Gap2 < 0            → long
//  5. R1 < 0 且 Gap2 > 0            → short
//  6. 兜底                          → no_trade(same_direction)（规则 3 后不可达）
//
// entry/target 价格无论结果如何都会附带，便于审计。
func (e *Engine) Classify(f *model.FeatureRecord) *model.Signal {
	sig := newSignal(f)

	switch {
	case math.Abs(f.R1) < e.r1Threshold:
		sig.Direction = model.DirectionNoTrade
		sig.Reason = model.ReasonR1NotSignificant
	case math.Abs(f.Gap2) < e.gap2Threshold:
		sig.Direction = model.DirectionNoTrade
		sig.Reason = model.ReasonGap2NotSignificant
	case sameSign(f.R1, f.Gap2):
		sig.Direction = model.DirectionNoTrade
		sig.Reason = model.ReasonSameDirection
	case f.R1 > 0 && f.Gap2 < 0:
		sig.Direction = model.DirectionLong
	case f.R1 < 0 && f.Gap2 > 0:
		sig.Direction = model.DirectionShort
	default:
		sig.Direction = model.DirectionNoTrade
		sig.Reason = model.ReasonSameDirection
	}

	return sig
}

// ExcludeUnknown 将未知时点事件标记为排除信号
// 仅在 exclude 策略变体下使用；entry/target 价格照常附带。
func (e *Engine) ExcludeUnknown(f *model.FeatureRecord) *model.Signal {
	sig := newSignal(f)
	sig.Direction = model.DirectionNoTrade
	sig.Reason = model.ReasonUnknownSessionExcluded
	return sig
}

// R1Threshold 获取 R1 显著性阈值
func (e *Engine) R1Threshold() float64 {
	return e.r1Threshold
}

// Gap2Threshold 获取 Gap2 显著性阈值
func (e *Engine) Gap2Threshold() float64 {
	return e.gap2Threshold
}

func newSignal(f *model.FeatureRecord) *model.Signal {
	return &model.Signal{
		Features: f,
		EntryPx:  f.Window.T2Bar.Open,
		TargetPx: f.Window.T1Bar.Close,
	}
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
