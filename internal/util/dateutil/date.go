// Package dateutil 提供交易日历所需的自然日（civil date）工具函数。
// 日期统一表示为 UTC 午夜的 time.Time，避免时区和时刻信息污染日级比较。
package dateutil

import (
	"fmt"
	"time"
)

// Layout 日期字符串格式（ISO 8601 日期）
const Layout = "2006-01-02"

// New 构造 UTC 午夜的日期
// 参数 year/month/day: 年月日
// 返回: 对应日期的 UTC 午夜 time.Time
func New(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize 将任意时刻归一化为 UTC 午夜日期
// 参数 t: 任意时刻（任意时区）
// 返回: 同一自然日的 UTC 午夜 time.Time
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse 解析 "YYYY-MM-DD" 格式的日期字符串
// 返回: UTC 午夜日期，格式错误时返回错误
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("解析日期 %q 失败: %w", s, err)
	}
	return t, nil
}

// Format 将日期格式化为 "YYYY-MM-DD"
func Format(d time.Time) string {
	return d.Format(Layout)
}

// AddDays 日期加减自然日
// 参数 n: 可为负数
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// IsWeekend 判断日期是否为周六或周日
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Equal 判断两个时刻是否为同一自然日
func Equal(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// NthWeekday 计算某年某月的第 n 个指定星期几
// 参数 n: 从 1 开始，例如 n=3, wd=Monday 表示第三个星期一
func NthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := New(year, month, 1)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return AddDays(d, offset+(n-1)*7)
}

// LastWeekday 计算某年某月的最后一个指定星期几
func LastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	// 下月第一天回退
	d := AddDays(New(year, month+1, 1), -1)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return AddDays(d, -offset)
}
