// Package trade 模拟成交属性测试
package trade

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"earnings-reversal-backtest/internal/core/model"
)

// **Feature: earnings-reversal-backtest, Property 5: Gross Return Identity**
// **Validates: Requirements 6.2, 6.3**

func TestExecute_GrossIdentity_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genPx := gen.Float64Range(1, 1000)
	genSpan := gen.Float64Range(0, 0.2)

	properties.Property("long: gross = (exit-entry)/entry 且 exit 由命中规则决定", prop.ForAll(
		func(entry, target, upSpan, downSpan float64) bool {
			high := entry * (1 + upSpan)
			low := entry * (1 - downSpan)
			close := (high + low) / 2

			sig := tradeableSignal(model.DirectionLong, target, entry, high, low, close)
			sig.TargetPx = target

			tr, err := NewSimulator(mediumCost).Execute(sig)
			if err != nil {
				return false
			}

			wantHit := high >= target
			if tr.HitTarget != wantHit {
				return false
			}
			wantExit := close
			if wantHit {
				wantExit = target
			}
			wantGross := (wantExit - entry) / entry
			return tr.ExitPx == wantExit && math.Abs(tr.GrossReturn-wantGross) < 1e-12
		},
		genPx, genPx, genSpan, genSpan,
	))

	properties.Property("short: gross = (entry-exit)/entry 且 exit 由命中规则决定", prop.ForAll(
		func(entry, target, upSpan, downSpan float64) bool {
			high := entry * (1 + upSpan)
			low := entry * (1 - downSpan)
			close := (high + low) / 2

			sig := tradeableSignal(model.DirectionShort, target, entry, high, low, close)
			sig.TargetPx = target

			tr, err := NewSimulator(mediumCost).Execute(sig)
			if err != nil {
				return false
			}

			wantHit := low <= target
			if tr.HitTarget != wantHit {
				return false
			}
			wantExit := close
			if wantHit {
				wantExit = target
			}
			wantGross := (entry - wantExit) / entry
			return tr.ExitPx == wantExit && math.Abs(tr.GrossReturn-wantGross) < 1e-12
		},
		genPx, genPx, genSpan, genSpan,
	))

	properties.TestingRun(t)
}

// **Feature: earnings-reversal-backtest, Property 6: Net Return Cost Deduction**
// **Validates: Requirements 6.4**

func TestExecute_NetDeduction_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genBps := gen.Float64Range(0, 100)

	properties.Property("net = gross - 2×(spread+slippage+commission)/10000，命中与否各恰好扣一次", prop.ForAll(
		func(spread, slippage, commission, entry float64) bool {
			cost := model.CostScenario{
				Name:      "generated",
				SpreadBps: spread, SlippageBps: slippage, CommissionBps: commission,
			}
			s := NewSimulator(cost)

			// 一笔命中、一笔未命中，扣费必须一致
			hit := tradeableSignal(model.DirectionLong, entry*1.01, entry, entry*1.02, entry*0.99, entry)
			miss := tradeableSignal(model.DirectionLong, entry*1.05, entry, entry*1.02, entry*0.99, entry)
			hit.TargetPx = entry * 1.01
			miss.TargetPx = entry * 1.05

			wantBps := 2 * (spread + slippage + commission)
			for _, sig := range []*model.Signal{hit, miss} {
				tr, err := s.Execute(sig)
				if err != nil {
					return false
				}
				if math.Abs(tr.CostBps-wantBps) > 1e-12 {
					return false
				}
				if math.Abs(tr.NetReturn-(tr.GrossReturn-wantBps/10000)) > 1e-12 {
					return false
				}
			}
			return true
		},
		genBps, genBps, genBps, gen.Float64Range(1, 1000),
	))

	properties.TestingRun(t)
}
