// Package model 定义回测引擎中使用的核心数据结构。
package model

import "earnings-reversal-backtest/internal/util/dateutil"

// Trade 一条可交易信号的模拟成交结果
// 仅对 long/short 信号创建；no_trade 信号永远不会产生 Trade。
// 计算完成后不可变。
type Trade struct {
	// Signal 源信号（回溯引用，不拥有）
	Signal *Signal
	// HitTarget T2 日内是否触及目标价（边界触及计为命中）
	HitTarget bool
	// ExitPx 出场价格
	// 命中时为目标价，未命中时为 T2 收盘价
	ExitPx float64
	// GrossReturn 毛收益率（小数）
	// long: (exit - entry) / entry
	// short: (entry - exit) / entry
	GrossReturn float64
	// CostBps 本笔应用的往返成本（基点）
	CostBps float64
	// NetReturn 净收益率（小数）
	// 计算公式: gross_return - cost_bps / 10000
	NetReturn float64
}

// IsWin 判断本笔是否盈利（净收益为正）
func (t *Trade) IsWin() bool {
	return t.NetReturn > 0
}

// TradeRecord 模拟成交的 JSONL 输出结构
type TradeRecord struct {
	// Symbol 标的代码
	Symbol string `json:"symbol"`
	// EarningsDate 财报公告日期
	EarningsDate string `json:"earnings_date"`
	// T2Date 执行日
	T2Date string `json:"t2_date"`
	// Direction 信号方向
	Direction string `json:"direction"`
	// EntryPx 入场价格（T2 开盘）
	EntryPx float64 `json:"entry_px"`
	// TargetPx 目标价格（T1 收盘）
	TargetPx float64 `json:"target_px"`
	// ExitPx 出场价格
	ExitPx float64 `json:"exit_px"`
	// HitTarget 是否命中目标
	HitTarget bool `json:"hit_target"`
	// GrossReturn 毛收益率
	GrossReturn float64 `json:"gross_return"`
	// CostBps 往返成本（基点）
	CostBps float64 `json:"cost_bps"`
	// NetReturn 净收益率
	NetReturn float64 `json:"net_return"`
}

// ToRecord 将 Trade 转换为 JSONL 输出格式
func (t *Trade) ToRecord() *TradeRecord {
	w := t.Signal.Features.Window
	return &TradeRecord{
		Symbol:       w.Event.Symbol,
		EarningsDate: dateutil.Format(w.Event.AnnouncementDate),
		T2Date:       dateutil.Format(w.T2Date),
		Direction:    string(t.Signal.Direction),
		EntryPx:      t.Signal.EntryPx,
		TargetPx:     t.Signal.TargetPx,
		ExitPx:       t.ExitPx,
		HitTarget:    t.HitTarget,
		GrossReturn:  t.GrossReturn,
		CostBps:      t.CostBps,
		NetReturn:    t.NetReturn,
	}
}
