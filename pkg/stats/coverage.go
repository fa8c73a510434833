package stats

import (
	"fmt"
	"strings"

	"github.com/paiban/kinmu/pkg/calendar"
	"github.com/paiban/kinmu/pkg/model"
)

// CoverageMetrics 团队每日在岗情况
type CoverageMetrics struct {
	Days            []DayCoverage `json:"days"`
	TotalWorkerDays int           `json:"total_worker_days"` // 总出勤人日
	AvgHeadcount    float64       `json:"avg_headcount"`     // 日均在岗
	FullDays        int           `json:"full_days"`         // 满员天数

	// 重点日
	PriorityDays     int     `json:"priority_days"`
	PriorityFullDays int     `json:"priority_full_days"`
	PriorityRate     float64 `json:"priority_rate"` // 重点日满员率 (%)

	// 支援
	CheerDays      int `json:"cheer_days"`
	SupportDays    int `json:"support_days"`     // 支援上班天数
	SupportMidUsed int `json:"support_mid_used"` // 支援中班次数

	// 问题识别
	Understaffed []string `json:"understaffed,omitempty"` // 在岗不足的日期
	Overstaffed  []string `json:"overstaffed,omitempty"`  // 超员日期
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Headcount int    `json:"headcount"`
	Early     int    `json:"early"`
	Late      int    `json:"late"`
	Mid       int    `json:"mid"`
	Support   bool   `json:"support"`
	Cheer     bool   `json:"cheer,omitempty"`
	Campaign  bool   `json:"campaign,omitempty"`
	Priority  bool   `json:"priority,omitempty"`
	Holiday   bool   `json:"holiday,omitempty"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct {
	minStaff  int // 每日最低在岗
	fullStaff int // 满员人数
}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{minStaff: 2, fullStaff: 3}
}

// SetStaffRange 设置每日在岗人数范围
func (c *CoverageAnalyzer) SetStaffRange(min, full int) {
	c.minStaff = min
	c.fullStaff = full
}

// Analyze 分析覆盖率，排班表比日历短时只统计重叠部分
func (c *CoverageAnalyzer) Analyze(cal *calendar.Calendar, a *model.Assignment) *CoverageMetrics {
	days := min(cal.Len(), a.Days())
	m := &CoverageMetrics{Days: make([]DayCoverage, 0, days)}

	for d := 0; d < days; d++ {
		day := cal.Day(d)
		dc := DayCoverage{
			Date:     model.FormatDate(day.Date),
			Weekday:  day.Weekday.String(),
			Cheer:    day.IsCheer,
			Campaign: day.IsCampaign,
			Priority: day.IsPriority,
			Holiday:  day.IsHoliday,
		}
		for _, e := range model.Employees {
			code := a.Get(d, e)
			if !code.IsWork() {
				continue
			}
			dc.Headcount++
			switch {
			case code.IsEarly():
				dc.Early++
			case code.IsLate():
				dc.Late++
			case code.IsMid():
				dc.Mid++
			}
			if e == model.Support {
				dc.Support = true
				m.SupportDays++
				if code == model.MidSupport {
					m.SupportMidUsed++
				}
			}
		}

		m.TotalWorkerDays += dc.Headcount
		if dc.Headcount >= c.fullStaff {
			m.FullDays++
		}
		if dc.Headcount < c.minStaff {
			m.Understaffed = append(m.Understaffed, dc.Date)
		}
		if dc.Headcount > c.fullStaff {
			m.Overstaffed = append(m.Overstaffed, dc.Date)
		}
		if day.IsPriority {
			m.PriorityDays++
			if dc.Headcount >= c.fullStaff {
				m.PriorityFullDays++
			}
		}
		if day.IsCheer {
			m.CheerDays++
		}
		m.Days = append(m.Days, dc)
	}

	if days > 0 {
		m.AvgHeadcount = float64(m.TotalWorkerDays) / float64(days)
	}
	m.PriorityRate = 100
	if m.PriorityDays > 0 {
		m.PriorityRate = float64(m.PriorityFullDays) / float64(m.PriorityDays) * 100
	}
	return m
}

// Analyze 使用默认分析器
func Analyze(cal *calendar.Calendar, a *model.Assignment) *CoverageMetrics {
	return NewCoverageAnalyzer().Analyze(cal, a)
}

// GenerateCoverageReport 生成覆盖率报告
func (c *CoverageAnalyzer) GenerateCoverageReport(m *CoverageMetrics) string {
	var b strings.Builder
	b.WriteString("=== 覆盖率分析报告 ===\n\n")

	b.WriteString("【整体在岗情况】\n")
	fmt.Fprintf(&b, "  天数: %d\n", len(m.Days))
	fmt.Fprintf(&b, "  总出勤人日: %d\n", m.TotalWorkerDays)
	fmt.Fprintf(&b, "  日均在岗: %.2f\n", m.AvgHeadcount)
	fmt.Fprintf(&b, "  满员天数: %d\n", m.FullDays)
	fmt.Fprintf(&b, "  重点日满员率: %.1f%% (%d/%d)\n", m.PriorityRate, m.PriorityFullDays, m.PriorityDays)
	fmt.Fprintf(&b, "  支援: 上班 %d 天，中班 %d 次，助阵日 %d 天\n\n", m.SupportDays, m.SupportMidUsed, m.CheerDays)

	if len(m.Understaffed) > 0 {
		b.WriteString("【在岗不足】\n")
		for _, date := range m.Understaffed {
			fmt.Fprintf(&b, "  - %s\n", date)
		}
		b.WriteString("\n")
	}

	if len(m.Overstaffed) > 0 {
		b.WriteString("【超员】\n")
		for _, date := range m.Overstaffed {
			fmt.Fprintf(&b, "  - %s\n", date)
		}
	}

	return b.String()
}
