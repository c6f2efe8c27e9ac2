package service

import (
	"sort"
	"strconv"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
)

// WeekdayStat 表示某个星期几的累计次数与有记录天数。
type WeekdayStat struct {
	Count int `json:"count"`
	Days  int `json:"days"`
}

// ReportStats 汇总一个周期内的打卡统计。
// DayOfWeek 的键为 "0"-"6"，0 表示周日。
type ReportStats struct {
	TotalDays    int                    `json:"totalDays"`
	RecordedDays int                    `json:"recordedDays"`
	TotalCount   int                    `json:"totalCount"`
	SuccessDays  int                    `json:"successDays"`
	ZeroDays     int                    `json:"zeroDays"`
	AvgPerDay    float64                `json:"avgPerDay"`
	MaxCount     int                    `json:"maxCount"`
	MaxCountDate string                 `json:"maxCountDate"`
	StreakDays   int                    `json:"streakDays"`
	DayOfWeek    map[string]WeekdayStat `json:"dayOfWeekStats"`
}

// CalculateStats 对区间 [start, end] 内的记录计算聚合统计。
// 连续记录天数按日期倒序逐条扫描，遇到 status<=0 即停止；
// 只看记录序列，未打卡的日期缺口不会中断计数。
func CalculateStats(logs []db.TakeoffLog, start, end string) ReportStats {
	stats := ReportStats{DayOfWeek: make(map[string]WeekdayStat, 7)}
	for i := 0; i < 7; i++ {
		stats.DayOfWeek[strconv.Itoa(i)] = WeekdayStat{}
	}

	startDate, err1 := time.Parse(dateKeyLayout, start)
	endDate, err2 := time.Parse(dateKeyLayout, end)
	if err1 == nil && err2 == nil && !endDate.Before(startDate) {
		stats.TotalDays = int(endDate.Sub(startDate).Hours()/24) + 1
	}

	// 防御性过滤，调用方通常已按区间查询
	period := make([]db.TakeoffLog, 0, len(logs))
	for _, entry := range logs {
		if entry.DateKey >= start && entry.DateKey <= end {
			period = append(period, entry)
		}
	}

	stats.RecordedDays = len(period)
	for _, entry := range period {
		if entry.Status > 0 {
			stats.SuccessDays++
			stats.TotalCount += entry.Status
		} else {
			stats.ZeroDays++
		}

		if entry.Status > stats.MaxCount {
			stats.MaxCount = entry.Status
			stats.MaxCountDate = entry.DateKey
		}

		if entry.Status > 0 {
			if date, err := time.Parse(dateKeyLayout, entry.DateKey); err == nil {
				key := strconv.Itoa(int(date.Weekday()))
				bucket := stats.DayOfWeek[key]
				bucket.Count += entry.Status
				bucket.Days++
				stats.DayOfWeek[key] = bucket
			}
		}
	}

	if stats.RecordedDays > 0 {
		stats.AvgPerDay = float64(stats.TotalCount) / float64(stats.RecordedDays)
	}

	sorted := make([]db.TakeoffLog, len(period))
	copy(sorted, period)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DateKey > sorted[j].DateKey
	})
	for _, entry := range sorted {
		if entry.Status <= 0 {
			break
		}
		stats.StreakDays++
	}

	return stats
}
