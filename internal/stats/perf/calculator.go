// Package perf 实现 run 级模拟成交的绩效统计。
// EV = p × (R - f) + (1 - p) × (-L - f)
// p_required = (L + f) / (R + L)
// 所有量以小数收益率计（非基点），与成交记录保持一致。
package perf

import "earnings-reversal-backtest/internal/core/model"

// PerfStats run 级绩效统计
type PerfStats struct {
	// Count 成交笔数
	Count int `json:"count"`
	// HitCount 命中目标笔数
	HitCount int `json:"hit_count"`
	// HitRate 命中率
	HitRate float64 `json:"hit_rate"`
	// WinCount 盈利笔数（净收益 > 0）
	WinCount int `json:"win_count"`
	// LossCount 亏损笔数（净收益 <= 0）
	LossCount int `json:"loss_count"`
	// WinRate 胜率 p
	WinRate float64 `json:"win_rate"`
	// LongCount / ShortCount 按方向的成交笔数
	LongCount  int `json:"long_count"`
	ShortCount int `json:"short_count"`
	// AvgProfit 平均盈利 R（盈利笔的平均毛收益）
	AvgProfit float64 `json:"avg_profit"`
	// AvgLoss 平均亏损 L（亏损笔毛收益绝对值的平均）
	AvgLoss float64 `json:"avg_loss"`
	// AvgCost 平均成本 f（小数收益率口径）
	AvgCost float64 `json:"avg_cost"`
	// AvgGrossReturn / AvgNetReturn 平均毛/净收益率
	AvgGrossReturn float64 `json:"avg_gross_return"`
	AvgNetReturn   float64 `json:"avg_net_return"`
	// TotalNetReturn 净收益率合计
	TotalNetReturn float64 `json:"total_net_return"`
	// EV 单笔期望值
	EV float64 `json:"ev"`
	// PRequired 盈亏平衡胜率
	PRequired float64 `json:"p_required"`
}

// Calculator run 级绩效累加器
// 回测是批处理，一个 run 累加全部成交后一次性取统计。
type Calculator struct {
	count     int
	hitCount  int
	winCount  int
	lossCount int
	longCount int
	shortCnt  int
	sumWinR   float64
	sumLossL  float64
	sumCost   float64
	sumGross  float64
	sumNet    float64
}

// NewCalculator 创建绩效累加器
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Add 累加一笔模拟成交
func (c *Calculator) Add(t *model.Trade) {
	if t == nil {
		return
	}

	c.count++
	if t.HitTarget {
		c.hitCount++
	}
	switch t.Signal.Direction {
	case model.DirectionLong:
		c.longCount++
	case model.DirectionShort:
		c.shortCnt++
	}

	if t.IsWin() {
		c.winCount++
		c.sumWinR += t.GrossReturn
	} else {
		c.lossCount++
		c.sumLossL += abs(t.GrossReturn)
	}
	c.sumCost += t.CostBps / 10000
	c.sumGross += t.GrossReturn
	c.sumNet += t.NetReturn
}

// Stats 生成绩效统计
func (c *Calculator) Stats() PerfStats {
	out := PerfStats{
		Count:      c.count,
		HitCount:   c.hitCount,
		WinCount:   c.winCount,
		LossCount:  c.lossCount,
		LongCount:  c.longCount,
		ShortCount: c.shortCnt,
	}
	if c.count <= 0 {
		return out
	}

	n := float64(c.count)
	out.HitRate = float64(c.hitCount) / n
	out.WinRate = float64(c.winCount) / n
	out.AvgCost = c.sumCost / n
	out.AvgGrossReturn = c.sumGross / n
	out.AvgNetReturn = c.sumNet / n
	out.TotalNetReturn = c.sumNet

	if c.winCount > 0 {
		out.AvgProfit = c.sumWinR / float64(c.winCount)
	}
	if c.lossCount > 0 {
		out.AvgLoss = c.sumLossL / float64(c.lossCount)
	}

	// EV = p × (R - f) + (1 - p) × (-L - f)
	p := out.WinRate
	R := out.AvgProfit
	L := out.AvgLoss
	f := out.AvgCost
	out.EV = p*(R-f) + (1-p)*(-L-f)

	// p_required = (L + f) / (R + L)
	den := R + L
	if den > 0 {
		out.PRequired = (L + f) / den
	} else {
		out.PRequired = 1
	}

	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
