// Package model 定义回测引擎中使用的核心数据结构。
package model

// CostScenario 命名的成本情景参数集
// 三个分量都是"单边"基点；往返成本由分量推导，
// 任何单一汇总常数都视为派生值而非权威值。
type CostScenario struct {
	// Name 情景名称: low / medium / high
	Name string
	// SpreadBps 单边价差成本（基点）
	SpreadBps float64
	// SlippageBps 单边滑点成本（基点）
	SlippageBps float64
	// CommissionBps 单边佣金成本（基点）
	CommissionBps float64
}

// RoundTripBps 计算往返成本（基点）
// 计算公式: 2 × (spread_bps + slippage_bps + commission_bps)
func (c CostScenario) RoundTripBps() float64 {
	return 2 * (c.SpreadBps + c.SlippageBps + c.CommissionBps)
}
