// Package fmp 实现 Financial Modeling Prep Stable API 的数据拉取。
// 本文件定义 API 响应的反序列化结构与到核心模型的转换。
package fmp

import (
	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/util/dateutil"
)

// earningsRow /stable/earnings 响应中的一条财报记录
type earningsRow struct {
	// Symbol 标的代码
	Symbol string `json:"symbol"`
	// Date 公告日期（YYYY-MM-DD）
	Date string `json:"date"`
	// EPSActual 实际 EPS；未来事件为 null
	EPSActual *float64 `json:"epsActual"`
	// EPSEstimated 预期 EPS
	EPSEstimated *float64 `json:"epsEstimated"`
	// Time 公告时点标记（bmo/amc），FMP 多数记录不提供该字段
	Time string `json:"time"`
}

// toEvent 转换为核心财报事件模型
func (r *earningsRow) toEvent(fallbackSymbol string) (*model.EarningsEvent, error) {
	date, err := dateutil.Parse(r.Date)
	if err != nil {
		return nil, err
	}

	symbol := r.Symbol
	if symbol == "" {
		symbol = fallbackSymbol
	}

	return &model.EarningsEvent{
		Symbol:           symbol,
		AnnouncementDate: date,
		Timing:           parseTiming(r.Time),
		EPSActual:        r.EPSActual,
		EPSEstimate:      r.EPSEstimated,
	}, nil
}

// parseTiming 解析 FMP 的时点标记
// 缺失或无法识别时为 unknown（FMP 数据通常无法判定 BMO/AMC）
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

// priceRow /stable/historical-price-eod/full 响应中的一条日线记录
type priceRow struct {
	// Symbol 标的代码
	Symbol string `json:"symbol"`
	// Date 交易日（YYYY-MM-DD）
	Date string `json:"date"`
	// Open / High / Low / Close 日线价格
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	// Volume 成交量
	Volume float64 `json:"volume"`
}

// toBar 转换为核心日线模型
func (r *priceRow) toBar(fallbackSymbol string) (*model.DailyBar, error) {
	date, err := dateutil.Parse(r.Date)
	if err != nil {
		return nil, err
	}

	symbol := r.Symbol
	if symbol == "" {
		symbol = fallbackSymbol
	}

	return &model.DailyBar{
		Symbol: symbol,
		Date:   date,
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}, nil
}
