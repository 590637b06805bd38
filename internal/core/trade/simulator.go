// Package trade 实现可交易信号的模拟成交与成本模型。
// 仅用于历史回测，严禁真实下单。
package trade

import (
	"fmt"

	"earnings-reversal-backtest/internal/core/model"
)

// Simulator 模拟成交执行器
// 入场 T2 开盘，目标 T1 收盘；命中用日内高低价判定，
// 边界触及（high/low 恰好等于目标价）计为命中，
// 日线模型下真实日内路径不可观测，按触及即成交处理。
type Simulator struct {
	// cost 成本情景（run 级参数，所有成交统一应用）
	cost model.CostScenario
}

// NewSimulator 创建模拟成交执行器
// 参数 cost: 成本情景
func NewSimulator(cost model.CostScenario) *Simulator {
	return &Simulator{cost: cost}
}

// Cost 获取当前成本情景
func (s *Simulator) Cost() model.CostScenario {
	return s.cost
}

// Execute 对一条可交易信号模拟成交
// long:  hit = (t2_high >= target)，exit = 命中取 target 否则 t2_close
//        gross = (exit - entry) / entry
// short: hit = (t2_low <= target)，exit = 命中取 target 否则 t2_close
//        gross = (entry - exit) / entry
// net = gross - round_trip_bps / 10000，无论命中与否恰好扣除一次。
// 返回: 对 no_trade 信号调用属于调用方契约违规，返回错误。
func (s *Simulator) Execute(sig *model.Signal) (*model.Trade, error) {
	if sig == nil || !sig.IsTradeable() {
		return nil, fmt.Errorf("对不可交易信号模拟成交（direction=%s, reason=%s），调用方必须先过滤",
			sig.Direction, sig.Reason)
	}

	t2 := sig.Features.Window.T2Bar

	var hit bool
	var exitPx float64
	var gross float64

	switch sig.Direction {
	case model.DirectionLong:
		hit = t2.High >= sig.TargetPx
		exitPx = t2.Close
		if hit {
			exitPx = sig.TargetPx
		}
		gross = (exitPx - sig.EntryPx) / sig.EntryPx

	case model.DirectionShort:
		hit = t2.Low <= sig.TargetPx
		exitPx = t2.Close
		if hit {
			exitPx = sig.TargetPx
		}
		gross = (sig.EntryPx - exitPx) / sig.EntryPx
	}

	costBps := s.cost.RoundTripBps()
	return &model.Trade{
		Signal:      sig,
		HitTarget:   hit,
		ExitPx:      exitPx,
		GrossReturn: gross,
		CostBps:     costBps,
		NetReturn:   gross - costBps/10000,
	}, nil
}
