// Package calendar 实现交易所交易日历。
// 回答"某日是否交易日"以及"下一个/上一个交易日"，
// 纯函数行为：无状态副作用，相同输入永远得到相同输出。
// 超出覆盖范围时显式报错，绝不静默外推。
package calendar

import (
	"fmt"
	"time"

	"earnings-reversal-backtest/internal/util/dateutil"
)

// ExchangeXNYS 纽约证券交易所（ISO 10383 MIC 代码）
const ExchangeXNYS = "XNYS"

// InvalidExchangeError 未知交易所代码
type InvalidExchangeError struct {
	// Exchange 请求的交易所代码
	Exchange string
}

func (e *InvalidExchangeError) Error() string {
	return fmt.Sprintf("未知交易所代码: %q（支持: %s）", e.Exchange, ExchangeXNYS)
}

// OutOfRangeError 请求日期超出日历覆盖范围
type OutOfRangeError struct {
	// Exchange 交易所代码
	Exchange string
	// Date 请求的日期
	Date time.Time
	// First / Last 日历覆盖范围
	First time.Time
	Last  time.Time
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("日期 %s 超出 %s 日历覆盖范围 [%s, %s]",
		dateutil.Format(e.Date), e.Exchange, dateutil.Format(e.First), dateutil.Format(e.Last))
}

// Calendar 交易所交易日历
// 编码周末、节假日、临时休市和早收盘；构造后只读。
type Calendar struct {
	// exchange 交易所代码
	exchange string
	// first / last 覆盖范围（含端点）
	first time.Time
	last  time.Time
	// holidays 全天休市日期集合
	holidays map[time.Time]bool
	// earlyCloses 早收盘（13:00 ET）日期集合
	// 早收盘仍是交易日，日线级别不影响 is_session 判定
	earlyCloses map[time.Time]bool
}

// New 创建指定交易所的交易日历
// 目前仅支持 XNYS，覆盖 2010-01-01 至 2025-12-31。
// 返回: 未知交易所代码时返回 InvalidExchangeError
func New(exchange string) (*Calendar, error) {
	if exchange != ExchangeXNYS {
		return nil, &InvalidExchangeError{Exchange: exchange}
	}

	first := dateutil.New(xnysFirstYear, time.January, 1)
	last := dateutil.New(xnysLastYear, time.December, 31)

	return &Calendar{
		exchange:    exchange,
		first:       first,
		last:        last,
		holidays:    xnysHolidays(),
		earlyCloses: xnysEarlyCloses(),
	}, nil
}

// Exchange 获取交易所代码
func (c *Calendar) Exchange() string {
	return c.exchange
}

// Coverage 获取日历覆盖范围（含端点）
func (c *Calendar) Coverage() (first, last time.Time) {
	return c.first, c.last
}

// IsSession 判断某日是否为交易日
// 返回: 超出覆盖范围时返回 OutOfRangeError
func (c *Calendar) IsSession(d time.Time) (bool, error) {
	d = dateutil.Normalize(d)
	if err := c.checkRange(d); err != nil {
		return false, err
	}
	if dateutil.IsWeekend(d) {
		return false, nil
	}
	return !c.holidays[d], nil
}

// NextSession 获取严格晚于 d 的下一个交易日
// 返回: 向后扫描越过覆盖范围时返回 OutOfRangeError
func (c *Calendar) NextSession(d time.Time) (time.Time, error) {
	cur := dateutil.Normalize(d)
	for {
		cur = dateutil.AddDays(cur, 1)
		ok, err := c.IsSession(cur)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return cur, nil
		}
	}
}

// PrevSession 获取严格早于 d 的上一个交易日
// 返回: 向前扫描越过覆盖范围时返回 OutOfRangeError
func (c *Calendar) PrevSession(d time.Time) (time.Time, error) {
	cur := dateutil.Normalize(d)
	for {
		cur = dateutil.AddDays(cur, -1)
		ok, err := c.IsSession(cur)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return cur, nil
		}
	}
}

// IsEarlyClose 判断某交易日是否为早收盘
// 返回: 超出覆盖范围时返回 OutOfRangeError
func (c *Calendar) IsEarlyClose(d time.Time) (bool, error) {
	d = dateutil.Normalize(d)
	if err := c.checkRange(d); err != nil {
		return false, err
	}
	return c.earlyCloses[d], nil
}

func (c *Calendar) checkRange(d time.Time) error {
	if d.Before(c.first) || d.After(c.last) {
		return &OutOfRangeError{
			Exchange: c.exchange,
			Date:     d,
			First:    c.first,
			Last:     c.last,
		}
	}
	return nil
}
