// Package store 维护回测期间只读的日线行情缓存。
// 行情在进入核心前一次性注入并校验；运行期间只读，可安全并发读取。
package store

import (
	"fmt"
	"sort"
	"time"

	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/util/dateutil"
)

// MalformedBarError 畸形日线行情
// NaN/Inf、非正价格、OHLC 倒挂或重复日期都在注入时拒绝，
// 绝不进入核心计算阶段。
type MalformedBarError struct {
	// Symbol 标的代码
	Symbol string
	// Date 行情日期
	Date time.Time
	// Reason 拒绝原因
	Reason string
}

func (e *MalformedBarError) Error() string {
	return fmt.Sprintf("畸形日线行情 %s@%s: %s", e.Symbol, dateutil.Format(e.Date), e.Reason)
}

// Store 日线行情缓存
// 按 (symbol, date) 索引；注入完成后只读。
type Store struct {
	// bars 第一层 key: symbol，第二层 key: 交易日（UTC 午夜）
	bars map[string]map[time.Time]*model.DailyBar
}

// New 创建空的行情缓存
func New() *Store {
	return &Store{
		bars: make(map[string]map[time.Time]*model.DailyBar),
	}
}

// Put 注入一条日线行情
// 返回: 行情畸形或日期重复时返回 MalformedBarError
func (s *Store) Put(bar *model.DailyBar) error {
	if bar == nil {
		return &MalformedBarError{Reason: "行情为空"}
	}
	if !bar.IsValid() {
		return &MalformedBarError{
			Symbol: bar.Symbol,
			Date:   bar.Date,
			Reason: "价格非法或 OHLC 倒挂（要求 low <= open,close <= high 且均为有限正数）",
		}
	}

	date := dateutil.Normalize(bar.Date)
	symBars, ok := s.bars[bar.Symbol]
	if !ok {
		symBars = make(map[time.Time]*model.DailyBar)
		s.bars[bar.Symbol] = symBars
	}
	if _, dup := symBars[date]; dup {
		return &MalformedBarError{
			Symbol: bar.Symbol,
			Date:   date,
			Reason: "重复日期（同一标的同一交易日只能有一条行情）",
		}
	}

	clone := bar.Clone()
	clone.Date = date
	symBars[date] = clone
	return nil
}

// Bar 查询指定标的指定交易日的行情
// 返回值应视为只读；不存在时第二个返回值为 false。
func (s *Store) Bar(symbol string, date time.Time) (*model.DailyBar, bool) {
	symBars, ok := s.bars[symbol]
	if !ok {
		return nil, false
	}
	bar, ok := symBars[dateutil.Normalize(date)]
	return bar, ok
}

// Symbols 获取缓存中的标的列表（按字典序）
func (s *Store) Symbols() []string {
	out := make([]string, 0, len(s.bars))
	for sym := range s.bars {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Len 获取缓存的行情总条数
func (s *Store) Len() int {
	var n int
	for _, symBars := range s.bars {
		n += len(symBars)
	}
	return n
}
