// Package model 定义回测引擎中使用的核心数据结构。
package model

import "time"

// EventWindow 一次财报事件派生的 T0/T1/T2 事件窗口
// T0: 收盘价尚未反映公告的最后一个交易日
// T1: T0 之后的第一个交易日（收盘价完整反映公告）
// T2: T1 之后的交易日（信号执行日）
// 窗口创建后不可变；输入变化时重新计算而非原地修改。
type EventWindow struct {
	// Event 源财报事件（回溯引用，不拥有）
	Event *EarningsEvent
	// EffectiveTiming 应用 UNKNOWN 策略后实际采用的时点
	EffectiveTiming SessionTiming
	// T0Date / T1Date / T2Date 三个交易日
	// 不变式: T0Date < T1Date < T2Date，且均为交易日
	T0Date time.Time
	T1Date time.Time
	T2Date time.Time
	// T0Bar / T1Bar / T2Bar 对应交易日的日线行情
	// 行情缺失时为 nil，窗口随之标记为不完整
	T0Bar *DailyBar
	T1Bar *DailyBar
	T2Bar *DailyBar
}

// IsComplete 判断窗口是否完整（三条日线均存在）
// 不完整窗口被排除在特征/信号/成交阶段之外，仅计入覆盖率统计。
func (w *EventWindow) IsComplete() bool {
	return w.T0Bar != nil && w.T1Bar != nil && w.T2Bar != nil
}

// MissingLegs 返回缺失行情的窗口腿（t0/t1/t2）
func (w *EventWindow) MissingLegs() []string {
	var legs []string
	if w.T0Bar == nil {
		legs = append(legs, "t0")
	}
	if w.T1Bar == nil {
		legs = append(legs, "t1")
	}
	if w.T2Bar == nil {
		legs = append(legs, "t2")
	}
	return legs
}

// FeatureRecord 完整窗口派生的特征记录
// 两个特征均为带符号的小数收益率（非百分比），
// 随时可由源窗口重新计算，不做可能过期的缓存。
type FeatureRecord struct {
	// Window 源事件窗口（回溯引用，不拥有）
	Window *EventWindow
	// R1 T0 收盘到 T1 收盘的收益率
	// 计算公式: t1_close / t0_close - 1
	R1 float64
	// Gap2 T1 收盘到 T2 开盘的隔夜跳空
	// 计算公式: t2_open / t1_close - 1
	Gap2 float64
}
