// Package csvexport 实现回测结果的行式 CSV 表导出。
// 表结构与外部 QA 流程消费的列集保持一致：
// 事件窗口、核心特征、信号、成交四张表，外加标的元数据表。
package csvexport

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"earnings-reversal-backtest/internal/backtest"
	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/util/dateutil"
)

// UniverseSymbol 标的元数据（代码/名称/板块）
type UniverseSymbol struct {
	// Symbol 标的代码
	Symbol string
	// Name 公司名称
	Name string
	// Sector 所属板块
	Sector string
}

// WriteUniverse 导出标的元数据表
func WriteUniverse(path string, universe []UniverseSymbol) error {
	rows := [][]string{{"symbol", "name", "sector"}}
	for _, u := range universe {
		rows = append(rows, []string{u.Symbol, u.Name, u.Sector})
	}
	return writeCSV(path, rows)
}

// WriteWindows 导出事件窗口表
// 行情缺失的腿输出空单元格，窗口本身不因缺失而丢行。
func WriteWindows(path string, results []backtest.Result) error {
	rows := [][]string{{
		"symbol", "earnings_date", "session", "effective_session",
		"t0_date", "t1_date", "t2_date",
		"t0_open", "t0_high", "t0_low", "t0_close", "t0_volume",
		"t1_open", "t1_high", "t1_low", "t1_close", "t1_volume",
		"t2_open", "t2_high", "t2_low", "t2_close", "t2_volume",
	}}
	for _, res := range results {
		if res.Window == nil {
			continue
		}
		w := res.Window
		row := []string{
			w.Event.Symbol,
			dateutil.Format(w.Event.AnnouncementDate),
			string(w.Event.Timing),
			string(w.EffectiveTiming),
			dateutil.Format(w.T0Date),
			dateutil.Format(w.T1Date),
			dateutil.Format(w.T2Date),
		}
		row = append(row, barCells(w.T0Bar)...)
		row = append(row, barCells(w.T1Bar)...)
		row = append(row, barCells(w.T2Bar)...)
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

// WriteFeatures 导出核心特征表（仅完整窗口）
func WriteFeatures(path string, results []backtest.Result) error {
	rows := [][]string{{
		"symbol", "earnings_date", "t0_date", "t1_date", "t2_date",
		"t0_close", "t1_close", "t2_open", "R1", "Gap2",
		"session", "effective_session",
	}}
	for _, res := range results {
		if res.Features == nil {
			continue
		}
		f := res.Features
		w := f.Window
		rows = append(rows, []string{
			w.Event.Symbol,
			dateutil.Format(w.Event.AnnouncementDate),
			dateutil.Format(w.T0Date),
			dateutil.Format(w.T1Date),
			dateutil.Format(w.T2Date),
			formatPx(w.T0Bar.Close),
			formatPx(w.T1Bar.Close),
			formatPx(w.T2Bar.Open),
			formatPx(f.R1),
			formatPx(f.Gap2),
			string(w.Event.Timing),
			string(w.EffectiveTiming),
		})
	}
	return writeCSV(path, rows)
}

// WriteSignals 导出信号表（含 no_trade 信号，entry/target 始终有值）
func WriteSignals(path string, results []backtest.Result) error {
	rows := [][]string{{
		"symbol", "earnings_date", "signal", "R1", "Gap2",
		"entry_price", "target_price", "t1_close",
	}}
	for _, res := range results {
		if res.Signal == nil {
			continue
		}
		sig := res.Signal
		w := sig.Features.Window
		rows = append(rows, []string{
			w.Event.Symbol,
			dateutil.Format(w.Event.AnnouncementDate),
			SignalLabel(sig),
			formatPx(sig.Features.R1),
			formatPx(sig.Features.Gap2),
			formatPx(sig.EntryPx),
			formatPx(sig.TargetPx),
			formatPx(w.T1Bar.Close),
		})
	}
	return writeCSV(path, rows)
}

// WriteTrades 导出成交表
func WriteTrades(path string, results []backtest.Result) error {
	rows := [][]string{{
		"symbol", "earnings_date", "signal", "entry_price", "target_price",
		"exit_price", "hit_target", "gross_return", "cost_bps", "net_return", "t1_close",
	}}
	for _, res := range results {
		if res.Trade == nil {
			continue
		}
		t := res.Trade
		w := t.Signal.Features.Window
		rows = append(rows, []string{
			w.Event.Symbol,
			dateutil.Format(w.Event.AnnouncementDate),
			SignalLabel(t.Signal),
			formatPx(t.Signal.EntryPx),
			formatPx(t.Signal.TargetPx),
			formatPx(t.ExitPx),
			strconv.FormatBool(t.HitTarget),
			formatPx(t.GrossReturn),
			formatPx(t.CostBps),
			formatPx(t.NetReturn),
			formatPx(w.T1Bar.Close),
		})
	}
	return writeCSV(path, rows)
}

// SignalLabel 计算信号在导出表中的标签
// 可交易信号输出 LONG/SHORT；no_trade 输出带原因的标签，
// 未知时点排除单独用 EXCLUDED_UNKNOWN_SESSION 表示。
func SignalLabel(sig *model.Signal) string {
	switch sig.Direction {
	case model.DirectionLong:
		return "LONG"
	case model.DirectionShort:
		return "SHORT"
	}
	switch sig.Reason {
	case model.ReasonR1NotSignificant:
		return "NO_TRADE_R1_NOT_SIGNIFICANT"
	case model.ReasonGap2NotSignificant:
		return "NO_TRADE_GAP2_NOT_SIGNIFICANT"
	case model.ReasonSameDirection:
		return "NO_TRADE_SAME_DIRECTION"
	case model.ReasonUnknownSessionExcluded:
		return "EXCLUDED_UNKNOWN_SESSION"
	default:
		return "NO_TRADE"
	}
}

func barCells(bar *model.DailyBar) []string {
	if bar == nil {
		return []string{"", "", "", "", ""}
	}
	return []string{
		formatPx(bar.Open),
		formatPx(bar.High),
		formatPx(bar.Low),
		formatPx(bar.Close),
		formatPx(bar.Volume),
	}
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建导出目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建导出文件失败: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("写入 CSV 失败: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("写入 CSV 失败: %w", err)
	}
	return nil
}
