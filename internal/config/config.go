// Package config 负责加载和验证 YAML 配置文件。
// 提供回测所需的全部配置项，包括标的池、数据拉取、策略阈值、成本情景与输出设置。
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/core/session"
)

// Config 应用配置根结构
type Config struct {
	// App 应用基础配置
	App AppConfig `yaml:"app"`
	// Universe 回测标的池
	Universe []UniverseSymbol `yaml:"universe"`
	// Ingestion 数据拉取配置
	Ingestion IngestionConfig `yaml:"ingestion"`
	// Calendar 交易日历配置
	Calendar CalendarConfig `yaml:"calendar"`
	// Strategy 策略参数配置
	Strategy StrategyConfig `yaml:"strategy"`
	// Costs 成本情景配置
	Costs CostsConfig `yaml:"costs"`
	// Backtest 回测执行配置
	Backtest BacktestConfig `yaml:"backtest"`
	// Output 输出配置
	Output OutputConfig `yaml:"output"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	// Name 应用名称，用于日志标识
	Name string `yaml:"name"`
	// LogLevel 日志级别: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// UniverseSymbol 标的池中的一个标的
type UniverseSymbol struct {
	// Symbol 标的代码，如 AAPL
	Symbol string `yaml:"symbol"`
	// Name 公司名称（可选，仅用于导出）
	Name string `yaml:"name"`
	// Sector 所属板块（可选，仅用于导出）
	Sector string `yaml:"sector"`
}

// IngestionConfig 数据拉取配置
// bars_csv/earnings_csv 非空时走离线模式，不访问网络。
type IngestionConfig struct {
	// FMPBaseURL FMP API 根地址
	FMPBaseURL string `yaml:"fmp_base_url"`
	// TimeoutMs 单次 HTTP 请求超时（毫秒）
	TimeoutMs int `yaml:"timeout_ms"`
	// RequestDelayMs 相邻请求限速间隔（毫秒）
	RequestDelayMs int `yaml:"request_delay_ms"`
	// EarningsLimit 每个标的拉取的财报事件上限
	EarningsLimit int `yaml:"earnings_limit"`
	// BarsCSV 离线日线行情 CSV 路径（可选）
	BarsCSV string `yaml:"bars_csv"`
	// EarningsCSV 离线财报事件 CSV 路径（可选）
	EarningsCSV string `yaml:"earnings_csv"`
	// BufferDays 行情拉取日期范围在事件两端的自然日缓冲
	BufferDays int `yaml:"buffer_days"`
}

// Offline 判断是否为离线模式（两个本地文件都已配置）
func (c *IngestionConfig) Offline() bool {
	return c.BarsCSV != "" && c.EarningsCSV != ""
}

// CalendarConfig 交易日历配置
type CalendarConfig struct {
	// Exchange 交易所代码（MIC），目前支持 XNYS
	Exchange string `yaml:"exchange"`
}

// StrategyConfig 策略参数配置
type StrategyConfig struct {
	// R1Threshold R1 显著性阈值（小数收益率，必须 > 0）
	R1Threshold float64 `yaml:"r1_threshold"`
	// Gap2Threshold Gap2 显著性阈值（小数收益率，必须 > 0）
	// 与 R1Threshold 逻辑独立，即使默认值相同也分别配置
	Gap2Threshold float64 `yaml:"gap2_threshold"`
	// UnknownSessionPolicy 公告时点未知时的策略: after_close / before_open / exclude
	UnknownSessionPolicy string `yaml:"unknown_session_policy"`
	// SensitivityEnabled 是否对未知时点事件执行双假设敏感性分析
	SensitivityEnabled bool `yaml:"sensitivity_enabled"`
}

// CostsConfig 成本情景配置
type CostsConfig struct {
	// Scenario 本次 run 采用的情景名称: low / medium / high
	Scenario string `yaml:"scenario"`
	// Scenarios 命名情景参数表
	Scenarios map[string]CostParams `yaml:"scenarios"`
}

// CostParams 单个成本情景的"单边"参数（基点）
// 往返成本永远由分量推导，不接受单一汇总常数。
type CostParams struct {
	// SpreadBps 单边价差成本（基点）
	SpreadBps float64 `yaml:"spread_bps"`
	// SlippageBps 单边滑点成本（基点）
	SlippageBps float64 `yaml:"slippage_bps"`
	// CommissionBps 单边佣金成本（基点）
	CommissionBps float64 `yaml:"commission_bps"`
}

// Active 获取当前选定的成本情景
func (c *CostsConfig) Active() (model.CostScenario, error) {
	params, ok := c.Scenarios[c.Scenario]
	if !ok {
		return model.CostScenario{}, fmt.Errorf("未定义的成本情景: %q", c.Scenario)
	}
	return model.CostScenario{
		Name:          c.Scenario,
		SpreadBps:     params.SpreadBps,
		SlippageBps:   params.SlippageBps,
		CommissionBps: params.CommissionBps,
	}, nil
}

// BacktestConfig 回测执行配置
type BacktestConfig struct {
	// Workers 并行 worker 数
	Workers int `yaml:"workers"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	// Dir 输出目录
	Dir string `yaml:"dir"`
	// JSONLEnabled 是否输出 JSONL 文件（信号/成交/run 摘要）
	JSONLEnabled bool `yaml:"jsonl_enabled"`
	// CSVEnabled 是否导出 CSV 表
	CSVEnabled bool `yaml:"csv_enabled"`
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回错误
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置配置默认值
func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "earnings-reversal-backtest"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	// 数据拉取默认值
	if c.Ingestion.TimeoutMs == 0 {
		c.Ingestion.TimeoutMs = 30000 // 30 秒
	}
	if c.Ingestion.RequestDelayMs == 0 {
		c.Ingestion.RequestDelayMs = 250 // 250 毫秒
	}
	if c.Ingestion.EarningsLimit == 0 {
		c.Ingestion.EarningsLimit = 60 // 约 15 年季报
	}
	if c.Ingestion.BufferDays == 0 {
		c.Ingestion.BufferDays = 10
	}

	if c.Calendar.Exchange == "" {
		c.Calendar.Exchange = "XNYS"
	}

	// 策略默认值
	if c.Strategy.R1Threshold == 0 {
		c.Strategy.R1Threshold = 0.01
	}
	if c.Strategy.Gap2Threshold == 0 {
		c.Strategy.Gap2Threshold = 0.01
	}
	if c.Strategy.UnknownSessionPolicy == "" {
		c.Strategy.UnknownSessionPolicy = string(session.UnknownAsAfterClose)
	}

	// 成本情景默认值
	if c.Costs.Scenario == "" {
		c.Costs.Scenario = "medium"
	}
	if c.Costs.Scenarios == nil {
		c.Costs.Scenarios = map[string]CostParams{}
	}
	if _, ok := c.Costs.Scenarios["low"]; !ok {
		c.Costs.Scenarios["low"] = CostParams{SpreadBps: 2, SlippageBps: 2, CommissionBps: 1}
	}
	if _, ok := c.Costs.Scenarios["medium"]; !ok {
		c.Costs.Scenarios["medium"] = CostParams{SpreadBps: 5, SlippageBps: 5, CommissionBps: 10}
	}
	if _, ok := c.Costs.Scenarios["high"]; !ok {
		c.Costs.Scenarios["high"] = CostParams{SpreadBps: 10, SlippageBps: 15, CommissionBps: 20}
	}

	if c.Backtest.Workers == 0 {
		c.Backtest.Workers = 4
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
}

// Validate 验证配置合法性
// 检查所有必填项和数值范围
// 返回: 若配置无效则返回描述性错误
func (c *Config) Validate() error {
	var errs []string

	// 验证标的池
	if len(c.Universe) == 0 {
		errs = append(errs, "universe: 至少需要配置一个标的")
	}
	for i, sym := range c.Universe {
		if sym.Symbol == "" {
			errs = append(errs, fmt.Sprintf("universe[%d].symbol: 标的代码不能为空", i))
		}
	}

	// 验证数据拉取配置
	if c.Ingestion.TimeoutMs <= 0 {
		errs = append(errs, "ingestion.timeout_ms: 超时必须为正数")
	}
	if c.Ingestion.RequestDelayMs < 0 {
		errs = append(errs, "ingestion.request_delay_ms: 限速间隔不能为负数")
	}
	if (c.Ingestion.BarsCSV == "") != (c.Ingestion.EarningsCSV == "") {
		errs = append(errs, "ingestion: bars_csv 与 earnings_csv 必须同时配置（离线模式）或同时留空（在线模式）")
	}

	// 验证策略参数（零阈值会让"零收益不显著"的保证失效）
	if c.Strategy.R1Threshold <= 0 {
		errs = append(errs, "strategy.r1_threshold: 显著性阈值必须为正数")
	}
	if c.Strategy.Gap2Threshold <= 0 {
		errs = append(errs, "strategy.gap2_threshold: 显著性阈值必须为正数")
	}
	if _, err := session.ParsePolicy(c.Strategy.UnknownSessionPolicy); err != nil {
		errs = append(errs, fmt.Sprintf("strategy.unknown_session_policy: %v", err))
	}

	// 验证成本情景
	if _, ok := c.Costs.Scenarios[c.Costs.Scenario]; !ok {
		errs = append(errs, fmt.Sprintf("costs.scenario: 未定义的情景 %q", c.Costs.Scenario))
	}
	for name, params := range c.Costs.Scenarios {
		for field, v := range map[string]float64{
			"spread_bps": params.SpreadBps, "slippage_bps": params.SlippageBps, "commission_bps": params.CommissionBps,
		} {
			if v < 0 {
				errs = append(errs, fmt.Sprintf("costs.scenarios.%s.%s: 成本分量不能为负数，当前值: %v", name, field, v))
			}
		}
	}

	if c.Backtest.Workers <= 0 {
		errs = append(errs, "backtest.workers: worker 数必须为正数")
	}

	// 验证日志级别
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证错误:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Symbols 获取标的池中的标的代码列表
func (c *Config) Symbols() []string {
	out := make([]string, len(c.Universe))
	for i, sym := range c.Universe {
		out[i] = sym.Symbol
	}
	return out
}

// Policy 获取解析后的 UNKNOWN 时点策略
// Validate 通过后调用不会失败。
func (c *Config) Policy() session.UnknownPolicy {
	p, _ := session.ParsePolicy(c.Strategy.UnknownSessionPolicy)
	return p
}
