// Package calendar 交易日历测试
package calendar

import (
	"errors"
	"testing"

	"earnings-reversal-backtest/internal/util/dateutil"
)

func mustCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := New(ExchangeXNYS)
	if err != nil {
		t.Fatalf("创建 XNYS 日历失败: %v", err)
	}
	return cal
}

func TestNew_InvalidExchange(t *testing.T) {
	_, err := New("XNAS")
	if err == nil {
		t.Fatalf("未知交易所应返回错误")
	}
	var invalidErr *InvalidExchangeError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("错误类型 = %T, want *InvalidExchangeError", err)
	}
	if invalidErr.Exchange != "XNAS" {
		t.Fatalf("Exchange = %s, want XNAS", invalidErr.Exchange)
	}
}

func TestIsSession_KnownDates(t *testing.T) {
	cal := mustCalendar(t)

	cases := []struct {
		date string
		want bool
		desc string
	}{
		{"2024-05-16", true, "普通周四"},
		{"2024-05-18", false, "周六"},
		{"2024-05-19", false, "周日"},
		{"2024-01-01", false, "元旦"},
		{"2024-01-15", false, "马丁·路德·金纪念日"},
		{"2024-03-29", false, "耶稣受难日"},
		{"2024-05-27", false, "阵亡将士纪念日"},
		{"2024-06-19", false, "六月节"},
		{"2021-06-18", true, "2022 年前六月节不休市（周五）"},
		{"2024-07-04", false, "独立日"},
		{"2021-07-05", false, "独立日补休（7月4日为周日）"},
		{"2024-09-02", false, "劳动节"},
		{"2024-11-28", false, "感恩节"},
		{"2024-12-25", false, "圣诞节"},
		{"2021-12-24", false, "圣诞节补休（12月25日为周六）"},
		{"2012-10-29", false, "飓风 Sandy 休市"},
		{"2012-10-30", false, "飓风 Sandy 休市"},
		{"2018-12-05", false, "George H.W. Bush 全国哀悼日"},
		{"2025-01-09", false, "Jimmy Carter 全国哀悼日"},
		{"2022-01-03", true, "2022 元旦为周六不补休，首个周一照常交易"},
		{"2021-12-31", true, "元旦周六不补休时上年末照常交易"},
		{"2023-01-02", false, "2023 元旦为周日顺延到周一"},
	}
	for _, tc := range cases {
		d, err := dateutil.Parse(tc.date)
		if err != nil {
			t.Fatalf("解析日期失败: %v", err)
		}
		got, err := cal.IsSession(d)
		if err != nil {
			t.Fatalf("IsSession(%s) 返回错误: %v", tc.date, err)
		}
		if got != tc.want {
			t.Errorf("IsSession(%s) = %v, want %v (%s)", tc.date, got, tc.want, tc.desc)
		}
	}
}

func TestNextSession_SkipsWeekendAndHoliday(t *testing.T) {
	cal := mustCalendar(t)

	cases := []struct {
		from string
		want string
		desc string
	}{
		{"2024-05-16", "2024-05-17", "周四到周五"},
		{"2024-05-17", "2024-05-20", "周五跳过周末"},
		{"2024-11-27", "2024-11-29", "跳过感恩节"},
		{"2024-07-03", "2024-07-05", "跳过独立日"},
		{"2012-10-26", "2012-10-31", "跳过周末和 Sandy 两日休市"},
	}
	for _, tc := range cases {
		from, _ := dateutil.Parse(tc.from)
		want, _ := dateutil.Parse(tc.want)
		got, err := cal.NextSession(from)
		if err != nil {
			t.Fatalf("NextSession(%s) 返回错误: %v", tc.from, err)
		}
		if !got.Equal(want) {
			t.Errorf("NextSession(%s) = %s, want %s (%s)", tc.from, dateutil.Format(got), tc.want, tc.desc)
		}
	}
}

func TestPrevSession_SkipsWeekendAndHoliday(t *testing.T) {
	cal := mustCalendar(t)

	cases := []struct {
		from string
		want string
	}{
		{"2024-05-20", "2024-05-17"}, // 周一回到周五
		{"2024-11-29", "2024-11-27"}, // 越过感恩节
		{"2025-01-10", "2025-01-08"}, // 越过 Carter 哀悼日
	}
	for _, tc := range cases {
		from, _ := dateutil.Parse(tc.from)
		want, _ := dateutil.Parse(tc.want)
		got, err := cal.PrevSession(from)
		if err != nil {
			t.Fatalf("PrevSession(%s) 返回错误: %v", tc.from, err)
		}
		if !got.Equal(want) {
			t.Errorf("PrevSession(%s) = %s, want %s", tc.from, dateutil.Format(got), tc.want)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	cal := mustCalendar(t)

	before, _ := dateutil.Parse("2009-12-31")
	if _, err := cal.IsSession(before); err == nil {
		t.Fatalf("覆盖范围之前的日期应返回错误")
	}

	after, _ := dateutil.Parse("2026-01-01")
	_, err := cal.IsSession(after)
	var rangeErr *OutOfRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("错误类型 = %T, want *OutOfRangeError", err)
	}
	if rangeErr.Exchange != ExchangeXNYS {
		t.Fatalf("Exchange = %s, want %s", rangeErr.Exchange, ExchangeXNYS)
	}

	// 向后扫描越界：2025-12-31 是覆盖范围内最后一天（周三，交易日）
	last, _ := dateutil.Parse("2025-12-31")
	if _, err := cal.NextSession(last); err == nil {
		t.Fatalf("NextSession 越过覆盖范围应返回错误而非静默外推")
	}
}

func TestIsEarlyClose(t *testing.T) {
	cal := mustCalendar(t)

	cases := []struct {
		date string
		want bool
		desc string
	}{
		{"2024-11-29", true, "感恩节次日"},
		{"2024-12-24", true, "平安夜"},
		{"2024-07-03", true, "独立日前一天"},
		{"2024-05-16", false, "普通交易日"},
		{"2022-12-24", false, "平安夜为周六时无早收盘"},
	}
	for _, tc := range cases {
		d, _ := dateutil.Parse(tc.date)
		got, err := cal.IsEarlyClose(d)
		if err != nil {
			t.Fatalf("IsEarlyClose(%s) 返回错误: %v", tc.date, err)
		}
		if got != tc.want {
			t.Errorf("IsEarlyClose(%s) = %v, want %v (%s)", tc.date, got, tc.want, tc.desc)
		}
	}

	// 早收盘仍是交易日
	d, _ := dateutil.Parse("2024-11-29")
	ok, err := cal.IsSession(d)
	if err != nil || !ok {
		t.Fatalf("早收盘日应仍为交易日, got %v, err=%v", ok, err)
	}
}
