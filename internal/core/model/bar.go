// Package model 定义回测引擎中使用的核心数据结构。
// 包含日线行情、财报事件、事件窗口、信号、模拟成交等核心类型。
package model

import (
	"math"
	"time"
)

// DailyBar 单标的单交易日的日线行情
// 由外部行情源提供，进入引擎后视为只读。
type DailyBar struct {
	// Symbol 标的代码，如 AAPL
	Symbol string
	// Date 交易日（UTC 午夜）
	Date time.Time
	// Open 开盘价
	Open float64
	// High 最高价
	High float64
	// Low 最低价
	Low float64
	// Close 收盘价
	Close float64
	// Volume 成交量
	Volume float64
}

// IsValid 检查日线行情是否满足 OHLC 约束
// 有效条件: 所有价格为有限正数，且 Low <= Open,Close <= High
func (b *DailyBar) IsValid() bool {
	for _, px := range []float64{b.Open, b.High, b.Low, b.Close} {
		if px <= 0 || math.IsNaN(px) || math.IsInf(px, 0) {
			return false
		}
	}
	if b.Low > b.Open || b.Low > b.Close {
		return false
	}
	if b.High < b.Open || b.High < b.Close {
		return false
	}
	return b.Symbol != "" && !b.Date.IsZero()
}

// Clone 创建 DailyBar 的拷贝
func (b *DailyBar) Clone() *DailyBar {
	clone := *b
	return &clone
}
