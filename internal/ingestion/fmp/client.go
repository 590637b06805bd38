// Package fmp 实现 Financial Modeling Prep Stable API 的数据拉取。
// 端点:
//   - /stable/earnings: 按标的的历史财报
//   - /stable/historical-price-eod/full: 历史日线 OHLCV
//
// 所有请求带限速间隔，429/5xx 按指数退避重试。
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/util/dateutil"
)

// DefaultBaseURL FMP API 根地址
const DefaultBaseURL = "https://financialmodelingprep.com"

// maxAttempts 单个请求的最大尝试次数（含首次）
const maxAttempts = 3

// Client FMP API 客户端
type Client struct {
	// baseURL API 根地址
	baseURL string
	// apiKey API 密钥（query 参数 apikey）
	apiKey string
	// httpc HTTP 客户端
	httpc *http.Client
	// requestDelay 相邻请求之间的限速间隔
	requestDelay time.Duration
	// lastRequest 上一次请求时间，用于限速
	lastRequest time.Time
}

// NewClient 创建 FMP API 客户端
// 参数 baseURL: API 根地址，空串使用 DefaultBaseURL
// 参数 apiKey: API 密钥
// 参数 timeoutMs: 单次 HTTP 请求超时（毫秒）
// 参数 requestDelayMs: 相邻请求限速间隔（毫秒）
func NewClient(baseURL, apiKey string, timeoutMs, requestDelayMs int) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("FMP API 密钥不能为空")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: time.Duration(timeoutMs) * time.Millisecond,
		},
		requestDelay: time.Duration(requestDelayMs) * time.Millisecond,
	}, nil
}

// Earnings 拉取一个标的的历史财报事件
// 已过滤尚无实际 EPS 的未来事件；结果按公告日期升序。
func (c *Client) Earnings(ctx context.Context, symbol string, limit int) ([]*model.EarningsEvent, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	body, err := c.doRequest(ctx, "stable/earnings", params)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 财报数据失败: %w", symbol, err)
	}

	var rows []earningsRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("解析 %s 财报数据失败: %w", symbol, err)
	}

	events := make([]*model.EarningsEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := row.toEvent(symbol)
		if err != nil {
			return nil, fmt.Errorf("解析 %s 财报记录失败: %w", symbol, err)
		}
		// 过滤未来事件（尚无实际 EPS）
		if !ev.HasActualEPS() {
			continue
		}
		events = append(events, ev)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].AnnouncementDate.Before(events[j].AnnouncementDate)
	})
	return events, nil
}

// DailyBars 拉取一个标的指定日期范围的历史日线
// 结果按交易日升序。
func (c *Client) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]*model.DailyBar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("from", dateutil.Format(from))
	params.Set("to", dateutil.Format(to))

	body, err := c.doRequest(ctx, "stable/historical-price-eod/full", params)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 日线数据失败: %w", symbol, err)
	}

	var rows []priceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("解析 %s 日线数据失败: %w", symbol, err)
	}

	bars := make([]*model.DailyBar, 0, len(rows))
	for _, row := range rows {
		bar, err := row.toBar(symbol)
		if err != nil {
			return nil, fmt.Errorf("解析 %s 日线记录失败: %w", symbol, err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, nil
}

// doRequest 执行带限速与重试的 HTTP GET 请求
// 429 与 5xx 状态码按指数延迟（1s/2s）重试，最多 maxAttempts 次。
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			// 指数退避: 1s, 2s
			delay := time.Duration(1<<(attempt-1)) * time.Second
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := c.doOnce(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("重试 %d 次后仍失败: %w", maxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, reqURL string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "earnings-reversal-backtest/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("读取响应失败: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("API 返回状态码 %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("API 返回状态码 %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

// throttle 保证相邻请求之间的最小间隔
func (c *Client) throttle(ctx context.Context) error {
	if c.requestDelay <= 0 {
		return nil
	}
	if wait := c.requestDelay - time.Since(c.lastRequest); wait > 0 {
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
