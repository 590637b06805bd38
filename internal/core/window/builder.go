// Package window 实现财报事件到 T0/T1/T2 事件窗口的构建。
// 日期推导只依赖交易日历，绝不消费价格数据，从结构上排除前视偏差；
// 行情缺失只影响窗口完整性标记，不影响日期推导本身。
package window

import (
	"time"

	"earnings-reversal-backtest/internal/core/calendar"
	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/core/session"
)

// BarSource 日线行情查询能力
// 由外部行情缓存实现，回测期间必须支持并发只读访问。
type BarSource interface {
	// Bar 查询指定标的指定交易日的行情
	// 不存在时第二个返回值为 false
	Bar(symbol string, date time.Time) (*model.DailyBar, bool)
}

// Builder 事件窗口构建器
type Builder struct {
	// cal 交易日历
	cal *calendar.Calendar
	// resolver 锚定交易日解析器
	resolver *session.Resolver
	// bars 行情查询源
	bars BarSource
}

// NewBuilder 创建事件窗口构建器
func NewBuilder(cal *calendar.Calendar, resolver *session.Resolver, bars BarSource) *Builder {
	return &Builder{cal: cal, resolver: resolver, bars: bars}
}

// Build 为一次财报事件构建 T0/T1/T2 事件窗口
// T0 由时点规则解析，T1 = next_session(T0)，T2 = next_session(T1)。
// 行情缺失的腿置为 nil，级联为窗口不完整；
// 日历覆盖缺口返回错误，由调用方按单事件失败恢复并计数。
func (b *Builder) Build(ev *model.EarningsEvent) (*model.EventWindow, error) {
	t0, effective, err := b.resolver.ResolveT0(ev)
	if err != nil {
		return nil, err
	}

	t1, err := b.cal.NextSession(t0)
	if err != nil {
		return nil, err
	}
	t2, err := b.cal.NextSession(t1)
	if err != nil {
		return nil, err
	}

	w := &model.EventWindow{
		Event:           ev,
		EffectiveTiming: effective,
		T0Date:          t0,
		T1Date:          t1,
		T2Date:          t2,
	}

	if bar, ok := b.bars.Bar(ev.Symbol, t0); ok {
		w.T0Bar = bar
	}
	if bar, ok := b.bars.Bar(ev.Symbol, t1); ok {
		w.T1Bar = bar
	}
	if bar, ok := b.bars.Bar(ev.Symbol, t2); ok {
		w.T2Bar = bar
	}

	return w, nil
}
