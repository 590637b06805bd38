// Package model 定义回测引擎中使用的核心数据结构。
package model

// Direction 信号方向
type Direction string

const (
	// DirectionLong 多头：R1 > 0 且 Gap2 < 0（上涨后隔夜回落，押注回归 T1 收盘）
	DirectionLong Direction = "long"
	// DirectionShort 空头：R1 < 0 且 Gap2 > 0（下跌后隔夜反弹，押注回归 T1 收盘）
	DirectionShort Direction = "short"
	// DirectionNoTrade 不交易（附带原因码）
	DirectionNoTrade Direction = "no_trade"
)

// NoTradeReason 不交易的原因码（封闭枚举，便于规则表穷举检查）
type NoTradeReason string

const (
	// ReasonNone 可交易信号无原因码
	ReasonNone NoTradeReason = ""
	// ReasonR1NotSignificant |R1| 低于显著性阈值
	ReasonR1NotSignificant NoTradeReason = "r1_not_significant"
	// ReasonGap2NotSignificant |Gap2| 低于显著性阈值
	ReasonGap2NotSignificant NoTradeReason = "gap2_not_significant"
	// ReasonSameDirection R1 与 Gap2 同向，不构成反转形态
	ReasonSameDirection NoTradeReason = "same_direction"
	// ReasonUnknownSessionExcluded 公告时点未知且策略配置为排除
	ReasonUnknownSessionExcluded NoTradeReason = "unknown_session_excluded"
)

// Signal 一条特征记录的分类结果
// entry/target 价格无论方向如何都会计算并附带，便于离线审计。
type Signal struct {
	// Features 源特征记录（回溯引用，不拥有）
	Features *FeatureRecord
	// Direction 信号方向: long / short / no_trade
	Direction Direction
	// Reason 不交易原因；可交易信号为空
	Reason NoTradeReason
	// EntryPx 入场价格 = T2 开盘价
	EntryPx float64
	// TargetPx 目标价格 = T1 收盘价
	TargetPx float64
}

// IsTradeable 判断信号是否可交易
func (s *Signal) IsTradeable() bool {
	return s.Direction == DirectionLong || s.Direction == DirectionShort
}

// DirectionCoef 获取方向系数
// 多头返回 1，空头返回 -1，不交易返回 0
func (s *Signal) DirectionCoef() float64 {
	switch s.Direction {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	default:
		return 0
	}
}
