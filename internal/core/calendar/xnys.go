// Package calendar 实现交易所交易日历。
// 本文件按 NYSE 规则生成 XNYS 的节假日与早收盘日期。
// 规则生成比手工维护日期表更可审计，特殊休市（飓风、全国哀悼日）单独列表。
package calendar

import (
	"time"

	"earnings-reversal-backtest/internal/util/dateutil"
)

const (
	// xnysFirstYear / xnysLastYear 日历覆盖年份（含端点）
	xnysFirstYear = 2010
	xnysLastYear  = 2025
)

// xnysSpecialClosures 规则之外的全天休市
var xnysSpecialClosures = []time.Time{
	// 飓风 Sandy
	dateutil.New(2012, time.October, 29),
	dateutil.New(2012, time.October, 30),
	// George H.W. Bush 全国哀悼日
	dateutil.New(2018, time.December, 5),
	// Jimmy Carter 全国哀悼日
	dateutil.New(2025, time.January, 9),
}

// xnysHolidays 生成覆盖范围内的全部 NYSE 节假日
func xnysHolidays() map[time.Time]bool {
	holidays := make(map[time.Time]bool, (xnysLastYear-xnysFirstYear+1)*10)

	for year := xnysFirstYear; year <= xnysLastYear; year++ {
		// 元旦（周六不补休，周日顺延到周一）
		if d, ok := observedNewYear(year); ok {
			holidays[d] = true
		}
		// 马丁·路德·金纪念日：一月第三个周一
		holidays[dateutil.NthWeekday(year, time.January, time.Monday, 3)] = true
		// 华盛顿诞辰日：二月第三个周一
		holidays[dateutil.NthWeekday(year, time.February, time.Monday, 3)] = true
		// 耶稣受难日：复活节前两天
		holidays[dateutil.AddDays(easterSunday(year), -2)] = true
		// 阵亡将士纪念日：五月最后一个周一
		holidays[dateutil.LastWeekday(year, time.May, time.Monday)] = true
		// 六月节：2022 年起
		if year >= 2022 {
			holidays[observedFixed(year, time.June, 19)] = true
		}
		// 独立日
		holidays[observedFixed(year, time.July, 4)] = true
		// 劳动节：九月第一个周一
		holidays[dateutil.NthWeekday(year, time.September, time.Monday, 1)] = true
		// 感恩节：十一月第四个周四
		holidays[dateutil.NthWeekday(year, time.November, time.Thursday, 4)] = true
		// 圣诞节
		holidays[observedFixed(year, time.December, 25)] = true
	}

	for _, d := range xnysSpecialClosures {
		holidays[d] = true
	}

	return holidays
}

// xnysEarlyCloses 生成覆盖范围内的 NYSE 早收盘（13:00 ET）日期
// 早收盘仍是完整交易日，仅交易时段缩短。
func xnysEarlyCloses() map[time.Time]bool {
	early := make(map[time.Time]bool, (xnysLastYear-xnysFirstYear+1)*3)

	for year := xnysFirstYear; year <= xnysLastYear; year++ {
		// 独立日前一天：7 月 3 日与 7 月 4 日均为工作日时早收盘
		jul3 := dateutil.New(year, time.July, 3)
		jul4 := dateutil.New(year, time.July, 4)
		if !dateutil.IsWeekend(jul3) && !dateutil.IsWeekend(jul4) {
			early[jul3] = true
		}
		// 感恩节次日（周五）
		thanksgiving := dateutil.NthWeekday(year, time.November, time.Thursday, 4)
		early[dateutil.AddDays(thanksgiving, 1)] = true
		// 平安夜：12 月 24 日与 12 月 25 日均为工作日时早收盘
		dec24 := dateutil.New(year, time.December, 24)
		dec25 := dateutil.New(year, time.December, 25)
		if !dateutil.IsWeekend(dec24) && !dateutil.IsWeekend(dec25) {
			early[dec24] = true
		}
	}

	return early
}

// observedNewYear 计算元旦的补休日期
// NYSE 规则：1 月 1 日落在周六时当年不补休（上年 12 月 31 日照常交易），
// 落在周日时顺延到 1 月 2 日（周一）。
func observedNewYear(year int) (time.Time, bool) {
	d := dateutil.New(year, time.January, 1)
	switch d.Weekday() {
	case time.Saturday:
		return time.Time{}, false
	case time.Sunday:
		return dateutil.AddDays(d, 1), true
	default:
		return d, true
	}
}

// observedFixed 计算固定日期节假日的补休日期
// 周六提前到周五，周日顺延到周一。
func observedFixed(year int, month time.Month, day int) time.Time {
	d := dateutil.New(year, month, day)
	switch d.Weekday() {
	case time.Saturday:
		return dateutil.AddDays(d, -1)
	case time.Sunday:
		return dateutil.AddDays(d, 1)
	default:
		return d
	}
}

// easterSunday 计算公历复活节（Anonymous Gregorian algorithm）
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return dateutil.New(year, time.Month(month), day)
}
