// Package input 解析排班参数文档（YAML 或 JSON）
package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler"
)

// Format 文档格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf 根据扩展名判断格式，未知扩展名按 YAML 处理
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// RangeDoc 班次天数区间
type RangeDoc struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// PriorDoc 前一日状态
type PriorDoc struct {
	Shift           string `json:"shift,omitempty" yaml:"shift,omitempty"`
	ConsecutiveWork int    `json:"consecutive_work,omitempty" yaml:"consecutive_work,omitempty"`
	ConsecutiveRest int    `json:"consecutive_rest,omitempty" yaml:"consecutive_rest,omitempty"`
}

// EmployeeDoc 成员参数，未填写的数值沿用默认值
type EmployeeDoc struct {
	Name              string    `json:"name,omitempty" yaml:"name,omitempty"`
	RestQuota         *int      `json:"rest_quota,omitempty" yaml:"rest_quota,omitempty"`
	IsolatedAllowance *int      `json:"isolated_allowance,omitempty" yaml:"isolated_allowance,omitempty"`
	MandatoryOff      []string  `json:"mandatory_off,omitempty" yaml:"mandatory_off,omitempty"`
	Prior             *PriorDoc `json:"prior,omitempty" yaml:"prior,omitempty"`
}

// Document 参数文档
type Document struct {
	Start            string                 `json:"start" yaml:"start"`
	End              string                 `json:"end" yaml:"end"`
	Employees        map[string]EmployeeDoc `json:"employees,omitempty" yaml:"employees,omitempty"`
	Early            *RangeDoc              `json:"early,omitempty" yaml:"early,omitempty"`
	Late             *RangeDoc              `json:"late,omitempty" yaml:"late,omitempty"`
	Mid              *RangeDoc              `json:"mid,omitempty" yaml:"mid,omitempty"`
	SupportMidQuota  *int                   `json:"support_mid_quota,omitempty" yaml:"support_mid_quota,omitempty"`
	LateLongWeekdays []string               `json:"late_long_weekdays,omitempty" yaml:"late_long_weekdays,omitempty"`
	Holidays         []string               `json:"holidays,omitempty" yaml:"holidays,omitempty"`
	CheerDays        []string               `json:"cheer_days,omitempty" yaml:"cheer_days,omitempty"`
	CampaignDays     []string               `json:"campaign_days,omitempty" yaml:"campaign_days,omitempty"`
	PriorityDays     []string               `json:"priority_days,omitempty" yaml:"priority_days,omitempty"`

	// Schedule 已有排班表，每日一行 "Core1 Core2 Core3 Support"，"-" 表示休息；仅审计与统计使用
	Schedule []string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// Parse 解析文档内容
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析 JSON 参数文档失败")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析 YAML 参数文档失败")
		}
	default:
		return nil, apperrors.InvalidInput("format", fmt.Sprintf("不支持的格式 %q", format))
	}
	return &doc, nil
}

// Load 读取并解析文件
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "读取参数文档失败: "+path)
	}
	return Parse(data, FormatOf(path))
}

// Request 转换为排班请求，未填写的字段沿用默认参数
func (d *Document) Request() (scheduler.Request, error) {
	ve := &apperrors.ValidationErrors{}

	start, err := model.ParseDate(d.Start)
	if err != nil {
		ve.Add("start", err.Error())
	}
	end, err := model.ParseDate(d.End)
	if err != nil {
		ve.Add("end", err.Error())
	}

	p := model.DefaultPolicy()
	for name, ed := range d.Employees {
		e, err := model.ParseEmployee(name)
		if err != nil {
			ve.Add("employees."+name, err.Error())
			continue
		}
		ep, err := ed.apply(p.Employees[e])
		if err != nil {
			ve.Add("employees."+name, err.Error())
			continue
		}
		p.Employees[e] = ep
	}

	if d.Early != nil {
		p.Early = model.Range{Min: d.Early.Min, Max: d.Early.Max}
	}
	if d.Late != nil {
		p.Late = model.Range{Min: d.Late.Min, Max: d.Late.Max}
	}
	if d.Mid != nil {
		p.Mid = model.Range{Min: d.Mid.Min, Max: d.Mid.Max}
	}
	if d.SupportMidQuota != nil {
		p.SupportMidQuota = *d.SupportMidQuota
	}
	if len(d.LateLongWeekdays) > 0 {
		days, err := parseWeekdays(d.LateLongWeekdays)
		if err != nil {
			ve.Add("late_long_weekdays", err.Error())
		} else {
			p.LateLongWeekdays = days
		}
	}

	for _, f := range []struct {
		field string
		in    []string
		out   *[]time.Time
	}{
		{"holidays", d.Holidays, &p.Holidays},
		{"cheer_days", d.CheerDays, &p.CheerDays},
		{"campaign_days", d.CampaignDays, &p.CampaignDays},
		{"priority_days", d.PriorityDays, &p.PriorityDays},
	} {
		dates, err := model.ParseDates(f.in)
		if err != nil {
			ve.Add(f.field, err.Error())
			continue
		}
		*f.out = dates
	}

	if ve.HasErrors() {
		return scheduler.Request{}, ve.ToAppError()
	}
	if err := p.Validate(); err != nil {
		return scheduler.Request{}, err
	}
	return scheduler.Request{Start: start, End: end, Policy: p}, nil
}

func (ed EmployeeDoc) apply(ep model.EmployeePolicy) (model.EmployeePolicy, error) {
	if ed.Name != "" {
		ep.DisplayName = ed.Name
	}
	if ed.RestQuota != nil {
		ep.RestQuota = *ed.RestQuota
	}
	if ed.IsolatedAllowance != nil {
		ep.IsolatedAllowance = *ed.IsolatedAllowance
	}
	if len(ed.MandatoryOff) > 0 {
		dates, err := model.ParseDates(ed.MandatoryOff)
		if err != nil {
			return ep, err
		}
		ep.MandatoryOff = dates
	}
	if ed.Prior != nil {
		code := model.ShiftNone
		if ed.Prior.Shift != "" {
			c, err := model.ParseShiftCode(ed.Prior.Shift)
			if err != nil {
				return ep, err
			}
			code = c
		}
		ep.Prior = model.PriorContext{
			Shift:           code,
			ConsecutiveWork: ed.Prior.ConsecutiveWork,
			ConsecutiveRest: ed.Prior.ConsecutiveRest,
		}
	}
	return ep, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday, "日": time.Sunday,
	"mon": time.Monday, "monday": time.Monday, "一": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday, "二": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday, "三": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday, "四": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "五": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "六": time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("未知星期 %q", n)
		}
		out = append(out, wd)
	}
	return out, nil
}

// Assignment 解析文档中的排班表
func (d *Document) Assignment() (*model.Assignment, error) {
	if len(d.Schedule) == 0 {
		return nil, apperrors.InvalidInput("schedule", "排班表不能为空")
	}
	return ParseRows(d.Schedule)
}

// ParseRows 解析每日一行的排班表，"-" 或 "休" 表示休息；成员与班次是否匹配留给审计
func ParseRows(rows []string) (*model.Assignment, error) {
	a := model.NewAssignment(len(rows))
	for d, row := range rows {
		cells := strings.Fields(row)
		if len(cells) != model.EmployeeCount {
			return nil, apperrors.InvalidInput(fmt.Sprintf("schedule[%d]", d),
				fmt.Sprintf("需要 %d 列，实际 %d 列", model.EmployeeCount, len(cells)))
		}
		for i, cell := range cells {
			code := model.Off
			if cell != "-" {
				c, err := model.ParseShiftCode(cell)
				if err != nil {
					return nil, apperrors.InvalidInput(fmt.Sprintf("schedule[%d]", d), err.Error())
				}
				code = c
			}
			if code == model.ShiftNone {
				return nil, apperrors.InvalidInput(fmt.Sprintf("schedule[%d]", d), "排班表中不能出现未知班次")
			}
			a.Set(d, model.Employee(i), code)
		}
	}
	return a, nil
}

// FormatRows 将排班表输出为文档中的行格式
func FormatRows(a *model.Assignment) []string {
	rows := make([]string, a.Days())
	cells := make([]string, model.EmployeeCount)
	for d := range rows {
		for i, e := range model.Employees {
			cells[i] = "-"
			if code := a.Get(d, e); code.IsWork() {
				cells[i] = code.Symbol()
			}
		}
		rows[d] = strings.Join(cells, " ")
	}
	return rows
}
