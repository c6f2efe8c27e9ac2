package service

import (
	"fmt"
	"strconv"
	"strings"
)

// takeoffReportSystemPrompt 是报告生成的固定系统提示词。
const takeoffReportSystemPrompt = `你是一位风趣幽默的私人习惯顾问，专门分析用户的"起飞"打卡数据。

## 背景知识
- 用户使用"起飞日历"APP记录每天的打卡情况
- 数据中：0=当天未完成，1-5=当天完成次数

## 你的任务
根据提供的统计数据，生成一份专业但轻松的周期总结报告。

## 报告风格要求
1. 语气：像一位懂你的老朋友，幽默但不浮夸，关心但不说教
2. 态度：正面看待记录行为本身，不做道德评判
3. 结构：简洁有力，重点突出

## 报告内容框架
1. **数据概览**：用趣味方式总结关键数字
2. **模式分析**：发现有趣的规律（如周几更活跃、是否有连续记录等）
3. **建议**：基于数据给出1-2条实用建议
4. **鼓励语**：用轻松的方式结尾

## 输出格式
- 使用 Markdown 格式
- 保持简洁，300字以内
- 可以适当使用emoji增加趣味性`

var reportPeriodNames = map[string]string{
	ReportTypeWeek:    "周度",
	ReportTypeMonth:   "月度",
	ReportTypeQuarter: "季度",
	ReportTypeYear:    "年度",
}

var weekdayNames = [7]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// PeriodStats 将历史周期的标签与统计打包，供趋势分析使用。
type PeriodStats struct {
	Label string
	Stats ReportStats
}

// buildReportPrompt 渲染用户数据提示词，包含当前周期与最多 3 个历史周期。
func buildReportPrompt(periodType, periodLabel string, stats ReportStats, previous []PeriodStats) string {
	mostActiveDay := ""
	mostActiveCount := 0
	for i := 0; i < 7; i++ {
		bucket := stats.DayOfWeek[strconv.Itoa(i)]
		if bucket.Count > mostActiveCount {
			mostActiveCount = bucket.Count
			mostActiveDay = weekdayNames[i]
		}
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "## %s报告 - %s\n\n", reportPeriodNames[periodType], periodLabel)
	builder.WriteString("### 统计数据\n")
	fmt.Fprintf(&builder, "- 统计周期天数：%d 天\n", stats.TotalDays)
	fmt.Fprintf(&builder, "- 有记录天数：%d 天\n", stats.RecordedDays)
	fmt.Fprintf(&builder, "- 起飞总次数：%d 次\n", stats.TotalCount)
	fmt.Fprintf(&builder, "- 成功起飞天数：%d 天\n", stats.SuccessDays)
	fmt.Fprintf(&builder, "- 归零天数：%d 天\n", stats.ZeroDays)
	fmt.Fprintf(&builder, "- 日均次数：%.2f 次\n", stats.AvgPerDay)
	fmt.Fprintf(&builder, "- 单日最高：%d 次（%s）\n", stats.MaxCount, stats.MaxCountDate)
	fmt.Fprintf(&builder, "- 当前连续记录：%d 天\n", stats.StreakDays)
	fmt.Fprintf(&builder, "- 最活跃的日子：%s（共 %d 次）\n\n", mostActiveDay, mostActiveCount)

	builder.WriteString("### 按星期统计\n")
	for i := 0; i < 7; i++ {
		bucket := stats.DayOfWeek[strconv.Itoa(i)]
		fmt.Fprintf(&builder, "- %s：%d 次，%d 天有记录\n", weekdayNames[i], bucket.Count, bucket.Days)
	}

	if len(previous) > 0 {
		builder.WriteString("\n### 历史趋势（用于对比分析）\n")
		for _, p := range previous {
			fmt.Fprintf(&builder, "\n**%s**\n", p.Label)
			fmt.Fprintf(&builder, "- 起飞总次数：%d 次\n", p.Stats.TotalCount)
			fmt.Fprintf(&builder, "- 日均次数：%.2f 次\n", p.Stats.AvgPerDay)
			fmt.Fprintf(&builder, "- 成功天数：%d 天\n", p.Stats.SuccessDays)
			fmt.Fprintf(&builder, "- 归零天数：%d 天\n", p.Stats.ZeroDays)
		}
		builder.WriteString("\n请结合历史数据分析趋势变化（是上升、下降还是稳定），并给出相应建议。\n")
	}

	fmt.Fprintf(&builder, "\n请根据以上数据生成%s起飞报告。", reportPeriodNames[periodType])
	return builder.String()
}

// buildEmptyReport 在周期内没有任何记录时使用，跳过外部调用。
func buildEmptyReport(periodLabel string) string {
	return fmt.Sprintf(`## %s 起飞报告

这个周期内暂无记录数据。

开始记录你的起飞日志，才能生成有意义的报告哦！`, periodLabel)
}
