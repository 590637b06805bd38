// Package backtest 回测流水线编排。
// 本文件实现 UNKNOWN 时点事件的双假设敏感性分析：
// 同一批未知时点事件分别按盘后/盘前假设各跑一遍，
// 报告两种假设下信号与成交的差异，替代静默默认单一假设。
package backtest

import (
	"go.uber.org/zap"

	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/core/session"
)

// SensitivityReport UNKNOWN 时点双假设敏感性报告
type SensitivityReport struct {
	// UnknownEvents 参与分析的未知时点事件数
	UnknownEvents int `json:"unknown_events"`
	// ComparedEvents 两种假设下窗口均完整、可直接对比的事件数
	ComparedEvents int `json:"compared_events"`
	// FlippedDirections 两种假设下信号方向不一致的事件数
	FlippedDirections int `json:"flipped_directions"`
	// AfterCloseTrades / BeforeOpenTrades 两种假设下的成交笔数
	AfterCloseTrades int `json:"after_close_trades"`
	BeforeOpenTrades int `json:"before_open_trades"`
	// AfterCloseNetReturn / BeforeOpenNetReturn 两种假设下的净收益合计
	AfterCloseNetReturn float64 `json:"after_close_net_return"`
	BeforeOpenNetReturn float64 `json:"before_open_net_return"`
}

// SensitivityUnknown 对未知时点事件执行双假设敏感性分析
// 只消费 Timing 为 unknown 的事件；其余事件不受假设影响，无需对比。
func (r *Runner) SensitivityUnknown(events []*model.EarningsEvent) (SensitivityReport, error) {
	var unknown []*model.EarningsEvent
	for _, ev := range events {
		if ev.Timing == model.TimingUnknown {
			unknown = append(unknown, ev)
		}
	}

	report := SensitivityReport{UnknownEvents: len(unknown)}
	if len(unknown) == 0 {
		return report, nil
	}

	amcRunner := NewRunner(r.cal, r.bars, r.engine, r.sim, session.UnknownAsAfterClose, r.workers, r.logger)
	bmoRunner := NewRunner(r.cal, r.bars, r.engine, r.sim, session.UnknownAsBeforeOpen, r.workers, r.logger)

	amcResults, _, err := amcRunner.Run(unknown)
	if err != nil {
		return SensitivityReport{}, err
	}
	bmoResults, _, err := bmoRunner.Run(unknown)
	if err != nil {
		return SensitivityReport{}, err
	}

	for i := range unknown {
		amc, bmo := amcResults[i], bmoResults[i]

		if amc.Trade != nil {
			report.AfterCloseTrades++
			report.AfterCloseNetReturn += amc.Trade.NetReturn
		}
		if bmo.Trade != nil {
			report.BeforeOpenTrades++
			report.BeforeOpenNetReturn += bmo.Trade.NetReturn
		}

		if amc.Signal == nil || bmo.Signal == nil {
			continue
		}
		report.ComparedEvents++
		if amc.Signal.Direction != bmo.Signal.Direction {
			report.FlippedDirections++
		}
	}

	r.logger.Info("UNKNOWN 时点敏感性分析完成",
		zap.Int("unknown_events", report.UnknownEvents),
		zap.Int("compared_events", report.ComparedEvents),
		zap.Int("flipped_directions", report.FlippedDirections))

	return report, nil
}
