// Package session 实现财报公告日期到锚定交易日 T0 的映射。
// T0 必须是收盘价尚未反映财报消息的最后一个交易日，
// 使得 T1 = next_session(T0) 成为第一个完整反映消息的交易日。
package session

import (
	"fmt"
	"time"

	"earnings-reversal-backtest/internal/core/calendar"
	"earnings-reversal-backtest/internal/core/model"
)

// UnknownPolicy 公告时点未知（UNKNOWN）时的处理策略
// 时点未知在经济上混淆了盘前/盘后两种不同情况，
// 因此策略显式可配置，而非静默默认。
type UnknownPolicy string

const (
	// UnknownAsAfterClose 按盘后处理（文档化的保守默认行为）
	UnknownAsAfterClose UnknownPolicy = "after_close"
	// UnknownAsBeforeOpen 按盘前处理（用于敏感性分析）
	UnknownAsBeforeOpen UnknownPolicy = "before_open"
	// UnknownExclude 排除未知时点事件（信号标记为 unknown_session_excluded）
	// 窗口仍按盘后假设构建，便于审计
	UnknownExclude UnknownPolicy = "exclude"
)

// ParsePolicy 解析策略字符串
func ParsePolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(s) {
	case UnknownAsAfterClose, UnknownAsBeforeOpen, UnknownExclude:
		return UnknownPolicy(s), nil
	default:
		return "", fmt.Errorf("无效的 UNKNOWN 时点策略: %q（有效值: after_close, before_open, exclude）", s)
	}
}

// Resolver 锚定交易日解析器
type Resolver struct {
	// cal 交易日历
	cal *calendar.Calendar
	// policy UNKNOWN 时点策略
	policy UnknownPolicy
}

// NewResolver 创建锚定交易日解析器
// 参数 cal: 交易日历
// 参数 policy: UNKNOWN 时点策略
func NewResolver(cal *calendar.Calendar, policy UnknownPolicy) *Resolver {
	return &Resolver{cal: cal, policy: policy}
}

// Policy 获取当前 UNKNOWN 时点策略
func (r *Resolver) Policy() UnknownPolicy {
	return r.policy
}

// ResolveT0 解析一次财报事件的锚定交易日 T0
// 规则表:
//   - amc 或 unknown: 公告日若为交易日则取公告日，否则取其前一个交易日
//     （消息在收盘后到达，公告日收盘价尚未反映消息）
//   - bmo: 公告日的前一个交易日
//     （消息在开盘前到达，公告日收盘价已反映消息）
//
// 返回: T0 日期、实际采用的时点、可能的日历错误
func (r *Resolver) ResolveT0(ev *model.EarningsEvent) (time.Time, model.SessionTiming, error) {
	effective := r.EffectiveTiming(ev.Timing)

	switch effective {
	case model.TimingBeforeOpen:
		t0, err := r.cal.PrevSession(ev.AnnouncementDate)
		if err != nil {
			return time.Time{}, effective, err
		}
		return t0, effective, nil

	default: // amc
		ok, err := r.cal.IsSession(ev.AnnouncementDate)
		if err != nil {
			return time.Time{}, effective, err
		}
		if ok {
			return ev.AnnouncementDate, effective, nil
		}
		t0, err := r.cal.PrevSession(ev.AnnouncementDate)
		if err != nil {
			return time.Time{}, effective, err
		}
		return t0, effective, nil
	}
}

// EffectiveTiming 计算应用策略后实际采用的时点
// UNKNOWN 在 before_open 策略下按 bmo 处理，其余策略按 amc 处理
// （exclude 策略仍按 amc 构建窗口，排除发生在信号阶段）。
func (r *Resolver) EffectiveTiming(timing model.SessionTiming) model.SessionTiming {
	if timing != model.TimingUnknown {
		return timing
	}
	if r.policy == UnknownAsBeforeOpen {
		return model.TimingBeforeOpen
	}
	return model.TimingAfterClose
}

// ShouldExclude 判断事件是否应在信号阶段排除
// 仅当策略为 exclude 且事件时点未知时为真
func (r *Resolver) ShouldExclude(ev *model.EarningsEvent) bool {
	return r.policy == UnknownExclude && ev.Timing == model.TimingUnknown
}
