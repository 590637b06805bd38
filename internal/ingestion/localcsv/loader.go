// Package localcsv 实现本地 CSV 文件的行情与财报事件加载。
// 用于离线复跑：先前导出的日线/财报表可直接作为输入，
// 不依赖网络即可得到逐位一致的回测结果。
// 列按表头定位，列顺序无关；未知列忽略。
package localcsv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/util/dateutil"
)

// LoadBars 从 CSV 文件加载日线行情
// 必需列: symbol, date, open, high, low, close；可选列: volume
func LoadBars(path string) ([]*model.DailyBar, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	required := []string{"symbol", "date", "open", "high", "low", "close"}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("行情文件 %s 缺少必需列 %q", path, col)
		}
	}

	bars := make([]*model.DailyBar, 0, len(rows))
	for i, row := range rows {
		date, err := dateutil.Parse(cell(row, header, "date"))
		if err != nil {
			return nil, fmt.Errorf("行情文件 %s 第 %d 行: %w", path, i+2, err)
		}

		bar := &model.DailyBar{
			Symbol: cell(row, header, "symbol"),
			Date:   date,
		}
		for col, dst := range map[string]*float64{
			"open": &bar.Open, "high": &bar.High, "low": &bar.Low, "close": &bar.Close,
		} {
			v, err := strconv.ParseFloat(cell(row, header, col), 64)
			if err != nil {
				return nil, fmt.Errorf("行情文件 %s 第 %d 行 %s 列: %w", path, i+2, col, err)
			}
			*dst = v
		}
		if s := cell(row, header, "volume"); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("行情文件 %s 第 %d 行 volume 列: %w", path, i+2, err)
			}
			bar.Volume = v
		}

		bars = append(bars, bar)
	}
	return bars, nil
}

// LoadEarnings 从 CSV 文件加载财报事件
// 必需列: symbol, date；可选列: timing (bmo/amc), eps_actual, eps_estimate
func LoadEarnings(path string) ([]*model.EarningsEvent, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	for _, col := range []string{"symbol", "date"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("财报文件 %s 缺少必需列 %q", path, col)
		}
	}

	events := make([]*model.EarningsEvent, 0, len(rows))
	for i, row := range rows {
		date, err := dateutil.Parse(cell(row, header, "date"))
		if err != nil {
			return nil, fmt.Errorf("财报文件 %s 第 %d 行: %w", path, i+2, err)
		}

		ev := &model.EarningsEvent{
			Symbol:           cell(row, header, "symbol"),
			AnnouncementDate: date,
			Timing:           parseTiming(cell(row, header, "timing")),
		}
		if v, ok, err := optFloat(row, header, "eps_actual"); err != nil {
			return nil, fmt.Errorf("财报文件 %s 第 %d 行 eps_actual 列: %w", path, i+2, err)
		} else if ok {
			ev.EPSActual = &v
		}
		if v, ok, err := optFloat(row, header, "eps_estimate"); err != nil {
			return nil, fmt.Errorf("财报文件 %s 第 %d 行 eps_estimate 列: %w", path, i+2, err)
		} else if ok {
			ev.EPSEstimate = &v
		}

		events = append(events, ev)
	}
	return events, nil
}

func parseTiming(s string) model.SessionTiming {
	switch s {
	case "bmo":
		return model.TimingBeforeOpen
	case "amc":
		return model.TimingAfterClose
	default:
		return model.TimingUnknown
	}
}

func readCSV(path string) (rows [][]string, header map[string]int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("打开 CSV 文件失败: %w", err)
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("读取 CSV 文件 %s 失败: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("CSV 文件 %s 为空（缺少表头）", path)
	}

	header = make(map[string]int, len(all[0]))
	for idx, name := range all[0] {
		header[name] = idx
	}
	return all[1:], header, nil
}

func cell(row []string, header map[string]int, col string) string {
	idx, ok := header[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func optFloat(row []string, header map[string]int, col string) (float64, bool, error) {
	s := cell(row, header, col)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
