package service

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ReportTypeWeek 周报
	ReportTypeWeek = "week"
	// ReportTypeMonth 月报
	ReportTypeMonth = "month"
	// ReportTypeQuarter 季报
	ReportTypeQuarter = "quarter"
	// ReportTypeYear 年报
	ReportTypeYear = "year"
)

// ReportTypes 列出全部受支持的报告周期类型。
var ReportTypes = []string{ReportTypeWeek, ReportTypeMonth, ReportTypeQuarter, ReportTypeYear}

// ErrInvalidReportType 不支持的报告类型
var ErrInvalidReportType = errors.New("invalid report type")

// ReportPeriod 描述一个闭区间统计周期。
// Start/End 为 YYYY-MM-DD，Label 供展示，Key 作为已读标记的唯一键。
type ReportPeriod struct {
	Start string
	End   string
	Label string
	Key   string
}

// ResolvePeriod 将周期类型与偏移量解析为具体日期范围。
// offset=0 表示当前周期，负数表示历史周期。
// 周采用 ISO-8601 周编号：周一为一周开始，包含当年第一个周四的那一周为第 1 周。
func ResolvePeriod(reportType string, offset int, now time.Time) (ReportPeriod, error) {
	year, month, day := now.Date()

	switch reportType {
	case ReportTypeWeek:
		base := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset*7)
		weekday := int(base.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := base.AddDate(0, 0, -(weekday - 1))
		sunday := monday.AddDate(0, 0, 6)
		isoYear, isoWeek := monday.ISOWeek()
		return ReportPeriod{
			Start: monday.Format(dateKeyLayout),
			End:   sunday.Format(dateKeyLayout),
			Label: fmt.Sprintf("%d年第%d周", isoYear, isoWeek),
			Key:   fmt.Sprintf("%d-W%02d", isoYear, isoWeek),
		}, nil

	case ReportTypeMonth:
		total := year*12 + int(month) - 1 + offset
		y, m := total/12, total%12+1
		first := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		return ReportPeriod{
			Start: first.Format(dateKeyLayout),
			End:   last.Format(dateKeyLayout),
			Label: fmt.Sprintf("%d年%d月", y, m),
			Key:   fmt.Sprintf("%d-M%02d", y, m),
		}, nil

	case ReportTypeQuarter:
		total := year*4 + (int(month)-1)/3 + offset
		y, q := total/4, total%4
		first := time.Date(y, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 3, -1)
		return ReportPeriod{
			Start: first.Format(dateKeyLayout),
			End:   last.Format(dateKeyLayout),
			Label: fmt.Sprintf("%d年Q%d", y, q+1),
			Key:   fmt.Sprintf("%d-Q%d", y, q+1),
		}, nil

	case ReportTypeYear:
		y := year + offset
		return ReportPeriod{
			Start: fmt.Sprintf("%d-01-01", y),
			End:   fmt.Sprintf("%d-12-31", y),
			Label: fmt.Sprintf("%d年", y),
			Key:   fmt.Sprintf("%d", y),
		}, nil
	}

	return ReportPeriod{}, ErrInvalidReportType
}

// IsValidReportType 判断报告类型是否受支持。
func IsValidReportType(reportType string) bool {
	for _, t := range ReportTypes {
		if t == reportType {
			return true
		}
	}
	return false
}
