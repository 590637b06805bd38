// Package backtest 实现事件级回测流水线的编排。
// 单个财报事件之间没有数据依赖，按事件并行计算；
// 结果按输入下标回填，覆盖率由各 worker 的局部累加器合并，
// 因此相同输入与配置下，输出与并行度和执行顺序无关。
package backtest

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"earnings-reversal-backtest/internal/core/calendar"
	"earnings-reversal-backtest/internal/core/coverage"
	"earnings-reversal-backtest/internal/core/feature"
	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/core/session"
	"earnings-reversal-backtest/internal/core/signal"
	"earnings-reversal-backtest/internal/core/trade"
	"earnings-reversal-backtest/internal/core/window"
)

// Result 单个财报事件的完整流水线输出
// 派生链 EventWindow → FeatureRecord → Signal → Trade 严格单向，
// 每级只通过回溯引用指向输入，绝不成环。
type Result struct {
	// Event 输入事件
	Event *model.EarningsEvent
	// Window 事件窗口；日历覆盖缺口时为 nil
	Window *model.EventWindow
	// Features 特征记录；窗口不完整时为 nil
	Features *model.FeatureRecord
	// Signal 信号；窗口不完整时为 nil
	Signal *model.Signal
	// Trade 模拟成交；非可交易信号时为 nil
	Trade *model.Trade
	// Err 单事件级失败（日历缺口），已恢复并计入覆盖率
	Err error
}

// Runner 回测流水线编排器
type Runner struct {
	// cal 交易日历
	cal *calendar.Calendar
	// bars 行情查询源（回测期间只读，可并发访问）
	bars window.BarSource
	// engine 信号分类引擎
	engine *signal.Engine
	// sim 模拟成交执行器
	sim *trade.Simulator
	// policy UNKNOWN 时点策略
	policy session.UnknownPolicy
	// workers 并行 worker 数
	workers int
	// logger 结构化日志
	logger *zap.Logger
}

// NewRunner 创建回测流水线编排器
func NewRunner(
	cal *calendar.Calendar,
	bars window.BarSource,
	engine *signal.Engine,
	sim *trade.Simulator,
	policy session.UnknownPolicy,
	workers int,
	logger *zap.Logger,
) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cal:     cal,
		bars:    bars,
		engine:  engine,
		sim:     sim,
		policy:  policy,
		workers: workers,
		logger:  logger,
	}
}

// Run 对一批财报事件执行完整回测流水线
// 返回的结果与输入事件一一对应（下标对齐）。
// 单事件失败（日历缺口、行情缺失）就地恢复并计数；
// 阶段契约违规（对已过滤输入仍然失败）视为调用方 bug，整个 run 失败。
func (r *Runner) Run(events []*model.EarningsEvent) ([]Result, coverage.Summary, error) {
	resolver := session.NewResolver(r.cal, r.policy)
	builder := window.NewBuilder(r.cal, resolver, r.bars)

	results := make([]Result, len(events))
	trackers := make([]*coverage.Tracker, r.workers)

	jobs := make(chan int)
	var wg sync.WaitGroup
	var fatalMu sync.Mutex
	var fatal error

	for wi := 0; wi < r.workers; wi++ {
		trackers[wi] = coverage.NewTracker()
		wg.Add(1)
		go func(tracker *coverage.Tracker) {
			defer wg.Done()
			for i := range jobs {
				res, err := r.processOne(builder, resolver, events[i], tracker)
				if err != nil {
					fatalMu.Lock()
					if fatal == nil {
						fatal = err
					}
					fatalMu.Unlock()
					continue
				}
				results[i] = res
			}
		}(trackers[wi])
	}

	for i := range events {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if fatal != nil {
		return nil, coverage.Summary{}, fatal
	}

	merged := coverage.NewTracker()
	for _, tracker := range trackers {
		merged.Merge(tracker)
	}
	summary := merged.Summary()

	if !summary.Exhaustive() {
		return nil, coverage.Summary{}, fmt.Errorf(
			"覆盖率穷尽性不变式被破坏: 排除+信号计数之和 != 事件总数 %d", summary.TotalEvents)
	}

	return results, summary, nil
}

// processOne 执行单个事件的流水线
// 第二个返回值仅用于阶段契约违规（致命），单事件数据问题不走错误路径。
func (r *Runner) processOne(
	builder *window.Builder,
	resolver *session.Resolver,
	ev *model.EarningsEvent,
	tracker *coverage.Tracker,
) (Result, error) {
	tracker.RecordEvent(ev)
	res := Result{Event: ev}

	w, err := builder.Build(ev)
	if err != nil {
		// 日历覆盖缺口：对该事件致命，对 run 不致命
		tracker.RecordCalendarGap()
		res.Err = err
		r.logger.Debug("事件因日历缺口排除",
			zap.String("symbol", ev.Symbol),
			zap.Time("announcement_date", ev.AnnouncementDate),
			zap.Error(err))
		return res, nil
	}
	res.Window = w

	if !w.IsComplete() {
		tracker.RecordIncomplete(w)
		return res, nil
	}

	f, err := feature.Compute(w)
	if err != nil {
		return Result{}, fmt.Errorf("特征计算契约违规: %w", err)
	}
	res.Features = f

	var sig *model.Signal
	if resolver.ShouldExclude(ev) {
		sig = r.engine.ExcludeUnknown(f)
	} else {
		sig = r.engine.Classify(f)
	}
	tracker.RecordSignal(sig)
	res.Signal = sig

	if sig.IsTradeable() {
		t, err := r.sim.Execute(sig)
		if err != nil {
			return Result{}, fmt.Errorf("模拟成交契约违规: %w", err)
		}
		tracker.RecordTrade()
		res.Trade = t
	}

	return res, nil
}
