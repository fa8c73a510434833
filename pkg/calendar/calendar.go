// Package calendar 把日期区间展开为带标记的日序列
package calendar

import (
	"time"

	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
)

// Day 区间内的一天
type Day struct {
	Index         int          `json:"index"`
	Date          time.Time    `json:"date"`
	Weekday       time.Weekday `json:"weekday"`
	IsHoliday     bool         `json:"is_holiday"`
	IsCheer       bool         `json:"is_cheer"`
	IsCampaign    bool         `json:"is_campaign"`
	IsPriority    bool         `json:"is_priority"`
	IsLateLongDay bool         `json:"is_late_long_day"` // 晚班使用 E，否则使用 F
}

// Markers 日期标记
type Markers struct {
	Holidays         []time.Time
	CheerDays        []time.Time
	CampaignDays     []time.Time
	PriorityDays     []time.Time
	LateLongWeekdays []time.Weekday
}

// MarkersFrom 从排班参数提取日期标记
func MarkersFrom(p model.PolicyParameters) Markers {
	return Markers{
		Holidays:         p.Holidays,
		CheerDays:        p.CheerDays,
		CampaignDays:     p.CampaignDays,
		PriorityDays:     p.PriorityDays,
		LateLongWeekdays: p.LateLongWeekdays,
	}
}

// Calendar 日序列，创建后只读
type Calendar struct {
	days  []Day
	index map[time.Time]int
}

// New 构建 [start, end] 的日历，end 早于 start 时返回 INVALID_TIME_RANGE
func New(start, end time.Time, m Markers) (*Calendar, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if end.Before(start) {
		return nil, apperrors.InvalidRange(model.FormatDate(start), model.FormatDate(end))
	}

	c := &Calendar{index: make(map[time.Time]int)}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		c.index[d] = len(c.days)
		c.days = append(c.days, Day{Index: len(c.days), Date: d, Weekday: d.Weekday()})
	}

	for _, i := range c.Indices(m.Holidays) {
		c.days[i].IsHoliday = true
	}
	for _, i := range c.Indices(m.CheerDays) {
		c.days[i].IsCheer = true
	}
	for _, i := range c.Indices(m.CampaignDays) {
		c.days[i].IsCampaign = true
	}
	for _, i := range c.Indices(m.PriorityDays) {
		c.days[i].IsPriority = true
	}

	lateLong := make(map[time.Weekday]bool, len(m.LateLongWeekdays))
	for _, w := range m.LateLongWeekdays {
		lateLong[w] = true
	}
	for i := range c.days {
		c.days[i].IsLateLongDay = c.days[i].IsHoliday || lateLong[c.days[i].Weekday]
	}
	return c, nil
}

// Len 天数
func (c *Calendar) Len() int {
	return len(c.days)
}

// Day 取第 i 天
func (c *Calendar) Day(i int) Day {
	return c.days[i]
}

// Days 返回日序列副本
func (c *Calendar) Days() []Day {
	out := make([]Day, len(c.days))
	copy(out, c.days)
	return out
}

// Start 首日
func (c *Calendar) Start() time.Time {
	return c.days[0].Date
}

// End 末日
func (c *Calendar) End() time.Time {
	return c.days[len(c.days)-1].Date
}

// IndexOf 日期对应的下标，区间外返回 false
func (c *Calendar) IndexOf(date time.Time) (int, bool) {
	i, ok := c.index[model.DateOf(date)]
	return i, ok
}

// Indices 把日期集合映射为升序去重的下标，区间外的日期忽略
func (c *Calendar) Indices(dates []time.Time) []int {
	var out []int
	for _, d := range model.SortDates(dates) {
		if i, ok := c.index[d]; ok {
			out = append(out, i)
		}
	}
	return out
}

// Filter 满足条件的下标
func (c *Calendar) Filter(pred func(Day) bool) []int {
	var out []int
	for _, d := range c.days {
		if pred(d) {
			out = append(out, d.Index)
		}
	}
	return out
}
