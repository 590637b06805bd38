// Package model 定义回测引擎中使用的核心数据结构。
package model

import "time"

// SessionTiming 财报公告相对交易时段的时点
type SessionTiming string

const (
	// TimingBeforeOpen 盘前公告（BMO）
	TimingBeforeOpen SessionTiming = "bmo"
	// TimingAfterClose 盘后公告（AMC）
	TimingAfterClose SessionTiming = "amc"
	// TimingUnknown 时点未知
	// 部分数据源（如 FMP）不提供 BMO/AMC 标记
	TimingUnknown SessionTiming = "unknown"
)

// EarningsEvent 一次财报公告事件
// 由外部数据源提供，进入引擎后视为只读。
type EarningsEvent struct {
	// Symbol 标的代码
	Symbol string
	// AnnouncementDate 公告日期（自然日，UTC 午夜）
	AnnouncementDate time.Time
	// Timing 公告时点: bmo / amc / unknown
	Timing SessionTiming
	// EPSActual 实际 EPS（可选）
	EPSActual *float64
	// EPSEstimate 预期 EPS（可选）
	EPSEstimate *float64
}

// HasActualEPS 判断事件是否已有实际 EPS
// 用于过滤尚未发生的未来财报事件
func (e *EarningsEvent) HasActualEPS() bool {
	return e.EPSActual != nil
}
