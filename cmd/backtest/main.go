// Package main 是财报隔日反转回测器的入口点。
// 本回测器围绕财报公告构建 T0/T1/T2 三段事件窗口，
// 在 T1 出现显著反应且 T2 反向跳空时进场，目标价为 T1 收盘价。
//
// 重要：本系统仅用于研究/验证，严禁真实下单。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"earnings-reversal-backtest/internal/backtest"
	"earnings-reversal-backtest/internal/config"
	"earnings-reversal-backtest/internal/core/calendar"
	"earnings-reversal-backtest/internal/core/model"
	sigengine "earnings-reversal-backtest/internal/core/signal"
	"earnings-reversal-backtest/internal/core/store"
	"earnings-reversal-backtest/internal/core/trade"
	"earnings-reversal-backtest/internal/ingestion/fmp"
	"earnings-reversal-backtest/internal/ingestion/localcsv"
	"earnings-reversal-backtest/internal/output/csvexport"
	"earnings-reversal-backtest/internal/output/jsonl"
	"earnings-reversal-backtest/internal/stats/perf"
	"earnings-reversal-backtest/internal/util/dateutil"
)

// signalRecord 信号的 JSONL 输出行
type signalRecord struct {
	// Symbol 标的代码
	Symbol string `json:"symbol"`
	// EarningsDate 公告日期
	EarningsDate string `json:"earnings_date"`
	// EffectiveTiming 生效的公告时点（UNKNOWN 按策略归一后）
	EffectiveTiming string `json:"effective_timing"`
	// T0 / T1 / T2 窗口三段的交易日
	T0 string `json:"t0"`
	T1 string `json:"t1"`
	T2 string `json:"t2"`
	// R1 / Gap2 特征值（小数收益率）
	R1   float64 `json:"r1"`
	Gap2 float64 `json:"gap2"`
	// Direction 信号方向: long / short / no_trade
	Direction string `json:"direction"`
	// Reason no_trade 原因码（可交易信号为空）
	Reason string `json:"reason,omitempty"`
	// EntryPx 入场价（T2 开盘价）
	EntryPx float64 `json:"entry_px"`
	// TargetPx 目标价（T1 收盘价）
	TargetPx float64 `json:"target_px"`
}

// runSummary run 级摘要的 JSONL 输出行（每次 run 一行，便于离线复盘）
type runSummary struct {
	// RunID 本次 run 的唯一标识
	RunID string `json:"run_id"`
	// StartedAt / FinishedAt run 起止时间（ISO8601）
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	// Exchange 交易日历
	Exchange string `json:"exchange"`
	// Symbols 标的数
	Symbols int `json:"symbols"`
	// R1Threshold / Gap2Threshold 显著性阈值
	R1Threshold   float64 `json:"r1_threshold"`
	Gap2Threshold float64 `json:"gap2_threshold"`
	// UnknownPolicy UNKNOWN 时点策略
	UnknownPolicy string `json:"unknown_policy"`
	// CostScenario 成本情景名称
	CostScenario string `json:"cost_scenario"`
	// RoundTripBps 往返成本（基点，由分量推导）
	RoundTripBps float64 `json:"round_trip_bps"`
	// Coverage 覆盖率摘要
	Coverage any `json:"coverage"`
	// Perf 绩效统计
	Perf perf.PerfStats `json:"perf"`
	// Sensitivity 双假设敏感性分析（未启用时省略）
	Sensitivity *backtest.SensitivityReport `json:"sensitivity,omitempty"`
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "配置文件路径")
	flag.Parse()

	// .env 缺失不是错误，API key 也可以来自进程环境
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 捕获 SIGINT/SIGTERM，中断数据拉取阶段
	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("收到退出信号，取消剩余工作")
		cancel()
	}()

	startedAt := time.Now().UTC()
	runID := uuid.NewString()
	logger.Info("回测启动",
		zap.String("run_id", runID),
		zap.String("app", cfg.App.Name),
		zap.Int("symbols", len(cfg.Universe)),
		zap.Bool("offline", cfg.Ingestion.Offline()))

	cal, err := calendar.New(cfg.Calendar.Exchange)
	if err != nil {
		logger.Error("创建交易日历失败", zap.Error(err))
		os.Exit(1)
	}
	first, last := cal.Coverage()
	logger.Info("交易日历就绪",
		zap.String("exchange", cal.Exchange()),
		zap.String("first", dateutil.Format(first)),
		zap.String("last", dateutil.Format(last)))

	// 数据拉取：离线 CSV 或 FMP 在线接口
	events, rawBars, err := loadData(ctx, cfg, logger)
	if err != nil {
		logger.Error("数据拉取失败", zap.Error(err))
		os.Exit(1)
	}

	// 入库时验证行情，坏 bar 在摄入阶段拒绝并记录，绝不进入回测
	bars := store.New()
	var rejected int
	for _, bar := range rawBars {
		if err := bars.Put(bar); err != nil {
			rejected++
			logger.Warn("行情被拒绝", zap.Error(err))
		}
	}
	logger.Info("行情入库完成",
		zap.Int("accepted", bars.Len()),
		zap.Int("rejected", rejected),
		zap.Int("events", len(events)))

	engine, err := sigengine.NewEngine(cfg.Strategy.R1Threshold, cfg.Strategy.Gap2Threshold)
	if err != nil {
		logger.Error("创建信号引擎失败", zap.Error(err))
		os.Exit(1)
	}
	scenario, err := cfg.Costs.Active()
	if err != nil {
		logger.Error("解析成本情景失败", zap.Error(err))
		os.Exit(1)
	}
	sim := trade.NewSimulator(scenario)

	runner := backtest.NewRunner(cal, bars, engine, sim, cfg.Policy(), cfg.Backtest.Workers, logger)
	results, cov, err := runner.Run(events)
	if err != nil {
		logger.Error("回测失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("回测完成",
		zap.Int("total_events", cov.TotalEvents),
		zap.Int("calendar_gaps", cov.CalendarGaps),
		zap.Int("incomplete_windows", cov.IncompleteWindows),
		zap.Int("no_trade", cov.NoTradeTotal()),
		zap.Int("long_signals", cov.LongSignals),
		zap.Int("short_signals", cov.ShortSignals),
		zap.Int("trades", cov.Trades))

	// 绩效统计
	calc := perf.NewCalculator()
	for i := range results {
		if results[i].Trade != nil {
			calc.Add(results[i].Trade)
		}
	}
	stats := calc.Stats()
	logger.Info("绩效统计",
		zap.String("cost_scenario", scenario.Name),
		zap.Float64("round_trip_bps", scenario.RoundTripBps()),
		zap.Int("trades", stats.Count),
		zap.Float64("hit_rate", stats.HitRate),
		zap.Float64("win_rate", stats.WinRate),
		zap.Float64("ev", stats.EV),
		zap.Float64("p_required", stats.PRequired))

	// 双假设敏感性分析（仅对 UNKNOWN 时点事件）
	var sensitivity *backtest.SensitivityReport
	if cfg.Strategy.SensitivityEnabled {
		report, err := runner.SensitivityUnknown(events)
		if err != nil {
			logger.Error("敏感性分析失败", zap.Error(err))
			os.Exit(1)
		}
		sensitivity = &report
		logger.Info("敏感性分析完成",
			zap.Int("unknown_events", report.UnknownEvents),
			zap.Int("flipped_directions", report.FlippedDirections),
			zap.Float64("after_close_net_return", report.AfterCloseNetReturn),
			zap.Float64("before_open_net_return", report.BeforeOpenNetReturn))
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		logger.Error("创建输出目录失败", zap.Error(err))
		os.Exit(1)
	}

	summary := runSummary{
		RunID:         runID,
		StartedAt:     startedAt.Format(time.RFC3339),
		FinishedAt:    time.Now().UTC().Format(time.RFC3339),
		Exchange:      cal.Exchange(),
		Symbols:       len(cfg.Universe),
		R1Threshold:   engine.R1Threshold(),
		Gap2Threshold: engine.Gap2Threshold(),
		UnknownPolicy: string(cfg.Policy()),
		CostScenario:  scenario.Name,
		RoundTripBps:  scenario.RoundTripBps(),
		Coverage:      cov,
		Perf:          stats,
		Sensitivity:   sensitivity,
	}

	if cfg.Output.JSONLEnabled {
		if err := writeJSONL(cfg.Output.Dir, results, summary); err != nil {
			logger.Error("写 JSONL 输出失败", zap.Error(err))
			os.Exit(1)
		}
	}
	if cfg.Output.CSVEnabled {
		if err := writeCSVTables(cfg.Output.Dir, cfg.Universe, results); err != nil {
			logger.Error("写 CSV 导出失败", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("输出完成", zap.String("dir", cfg.Output.Dir), zap.String("run_id", runID))
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadData 按配置拉取财报事件与日线行情
// 离线模式读本地 CSV（可复现回放）；在线模式走 FMP 接口。
func loadData(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]*model.EarningsEvent, []*model.DailyBar, error) {
	if cfg.Ingestion.Offline() {
		events, err := localcsv.LoadEarnings(cfg.Ingestion.EarningsCSV)
		if err != nil {
			return nil, nil, fmt.Errorf("读取本地财报事件失败: %w", err)
		}
		bars, err := localcsv.LoadBars(cfg.Ingestion.BarsCSV)
		if err != nil {
			return nil, nil, fmt.Errorf("读取本地行情失败: %w", err)
		}
		return events, bars, nil
	}

	apiKey := os.Getenv("FMP_API_KEY")
	client, err := fmp.NewClient(cfg.Ingestion.FMPBaseURL, apiKey, cfg.Ingestion.TimeoutMs, cfg.Ingestion.RequestDelayMs)
	if err != nil {
		return nil, nil, fmt.Errorf("创建 FMP 客户端失败: %w", err)
	}

	var events []*model.EarningsEvent
	var bars []*model.DailyBar
	for _, sym := range cfg.Symbols() {
		evs, err := client.Earnings(ctx, sym, cfg.Ingestion.EarningsLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("拉取 %s 财报事件失败: %w", sym, err)
		}
		if len(evs) == 0 {
			logger.Warn("标的没有可用财报事件", zap.String("symbol", sym))
			continue
		}
		events = append(events, evs...)

		// 事件两端加自然日缓冲，保证 T0 前一交易日和 T2 都有行情覆盖
		from := dateutil.AddDays(evs[0].AnnouncementDate, -cfg.Ingestion.BufferDays)
		to := dateutil.AddDays(evs[len(evs)-1].AnnouncementDate, cfg.Ingestion.BufferDays)
		symBars, err := client.DailyBars(ctx, sym, from, to)
		if err != nil {
			return nil, nil, fmt.Errorf("拉取 %s 日线行情失败: %w", sym, err)
		}
		bars = append(bars, symBars...)

		logger.Info("标的数据拉取完成",
			zap.String("symbol", sym),
			zap.Int("events", len(evs)),
			zap.Int("bars", len(symBars)))
	}

	return events, bars, nil
}

func writeJSONL(dir string, results []backtest.Result, summary runSummary) error {
	signalsWriter, err := jsonl.NewWriter(filepath.Join(dir, "signals.jsonl"))
	if err != nil {
		return err
	}
	defer signalsWriter.Close()
	tradesWriter, err := jsonl.NewWriter(filepath.Join(dir, "trades.jsonl"))
	if err != nil {
		return err
	}
	defer tradesWriter.Close()

	for i := range results {
		res := &results[i]
		if res.Signal != nil {
			if err := signalsWriter.Write(toSignalRecord(res)); err != nil {
				return err
			}
		}
		if res.Trade != nil {
			if err := tradesWriter.Write(res.Trade.ToRecord()); err != nil {
				return err
			}
		}
	}
	if err := signalsWriter.Close(); err != nil {
		return err
	}
	if err := tradesWriter.Close(); err != nil {
		return err
	}

	summaryWriter, err := jsonl.NewWriter(filepath.Join(dir, "run_summary.jsonl"))
	if err != nil {
		return err
	}
	if err := summaryWriter.Write(summary); err != nil {
		summaryWriter.Close()
		return err
	}
	return summaryWriter.Close()
}

func toSignalRecord(res *backtest.Result) *signalRecord {
	w := res.Window
	sig := res.Signal
	rec := &signalRecord{
		Symbol:          w.Event.Symbol,
		EarningsDate:    dateutil.Format(w.Event.AnnouncementDate),
		EffectiveTiming: string(w.EffectiveTiming),
		T0:              dateutil.Format(w.T0Date),
		T1:              dateutil.Format(w.T1Date),
		T2:              dateutil.Format(w.T2Date),
		Direction:       string(sig.Direction),
		EntryPx:         sig.EntryPx,
		TargetPx:        sig.TargetPx,
	}
	if sig.Features != nil {
		rec.R1 = sig.Features.R1
		rec.Gap2 = sig.Features.Gap2
	}
	if sig.Reason != "" {
		rec.Reason = string(sig.Reason)
	}
	return rec
}

func writeCSVTables(dir string, universe []config.UniverseSymbol, results []backtest.Result) error {
	syms := make([]csvexport.UniverseSymbol, len(universe))
	for i, u := range universe {
		syms[i] = csvexport.UniverseSymbol{Symbol: u.Symbol, Name: u.Name, Sector: u.Sector}
	}
	if err := csvexport.WriteUniverse(filepath.Join(dir, "universe.csv"), syms); err != nil {
		return err
	}
	if err := csvexport.WriteWindows(filepath.Join(dir, "event_windows.csv"), results); err != nil {
		return err
	}
	if err := csvexport.WriteFeatures(filepath.Join(dir, "features.csv"), results); err != nil {
		return err
	}
	if err := csvexport.WriteSignals(filepath.Join(dir, "signals.csv"), results); err != nil {
		return err
	}
	return csvexport.WriteTrades(filepath.Join(dir, "trades.csv"), results)
}
