package model

import (
	"fmt"
	"time"

	apperrors "github.com/paiban/kinmu/pkg/errors"
)

// 连续上班/休息上限
const (
	MaxConsecutiveWork = 4 // 任意 5 天内至少休息 1 天
	MaxConsecutiveRest = 3 // 任意 4 天内至少上班 1 天
)

// PriorContext 排班区间开始前一天的状态
type PriorContext struct {
	Shift           ShiftCode `json:"shift" yaml:"shift"`
	ConsecutiveWork int       `json:"consecutive_work" yaml:"consecutive_work"`
	ConsecutiveRest int       `json:"consecutive_rest" yaml:"consecutive_rest"`
}

// Known 前一日班次是否已知
func (p PriorContext) Known() bool {
	return p.Shift != ShiftNone
}

// Worked 前一日是否已知且上班
func (p PriorContext) Worked() bool {
	return p.Shift.IsWork()
}

// Validate 校验前一日上下文，上限判断留给约束构建阶段
func (p PriorContext) Validate(e Employee) error {
	field := e.String() + ".prior"
	switch {
	case p.ConsecutiveWork < 0 || p.ConsecutiveRest < 0:
		return apperrors.InvalidInput(field, "连续天数不能为负")
	case p.ConsecutiveWork > 0 && p.ConsecutiveRest > 0:
		return apperrors.InvalidInput(field, "连续上班与连续休息不能同时大于 0")
	case p.Shift != ShiftNone && p.Shift != Off && !e.Allows(p.Shift):
		return apperrors.InvalidInput(field, fmt.Sprintf("班次 %s 不属于该成员", p.Shift.Symbol()))
	case p.ConsecutiveWork > 0 && !p.Shift.IsWork():
		return apperrors.InvalidInput(field, "存在连续上班天数时前一日必须为上班班次")
	case p.ConsecutiveRest > 0 && p.Shift.IsWork():
		return apperrors.InvalidInput(field, "存在连续休息天数时前一日不能为上班班次")
	}
	return nil
}

// EmployeePolicy 单个成员的排班参数
type EmployeePolicy struct {
	DisplayName       string       `json:"display_name,omitempty"`
	RestQuota         int          `json:"rest_quota"`
	IsolatedAllowance int          `json:"isolated_allowance"`
	MandatoryOff      []time.Time  `json:"mandatory_off,omitempty"`
	Prior             PriorContext `json:"prior"`
}

// PolicyParameters 一次排班的全部业务参数
type PolicyParameters struct {
	Employees        map[Employee]EmployeePolicy `json:"employees"`
	Early            Range                       `json:"early"`
	Late             Range                       `json:"late"`
	Mid              Range                       `json:"mid"`
	SupportMidQuota  int                         `json:"support_mid_quota"`
	LateLongWeekdays []time.Weekday              `json:"late_long_weekdays"`
	Holidays         []time.Time                 `json:"holidays,omitempty"`
	CheerDays        []time.Time                 `json:"cheer_days,omitempty"`
	CampaignDays     []time.Time                 `json:"campaign_days,omitempty"`
	PriorityDays     []time.Time                 `json:"priority_days,omitempty"`
}

// DefaultPolicy 返回默认参数
func DefaultPolicy() PolicyParameters {
	return PolicyParameters{
		Employees: map[Employee]EmployeePolicy{
			Core1:   {RestQuota: 9, IsolatedAllowance: 0},
			Core2:   {RestQuota: 9, IsolatedAllowance: 2},
			Core3:   {RestQuota: 9, IsolatedAllowance: 2},
			Support: {},
		},
		Early:            Range{Min: 8, Max: 13},
		Late:             Range{Min: 8, Max: 13},
		Mid:              Range{Min: 2, Max: 4},
		SupportMidQuota:  8,
		LateLongWeekdays: []time.Weekday{time.Sunday},
	}
}

// For 取成员参数，缺省为零值
func (p PolicyParameters) For(e Employee) EmployeePolicy {
	return p.Employees[e]
}

// DisplayName 导出时使用的名称
func (p PolicyParameters) DisplayName(e Employee) string {
	if name := p.Employees[e].DisplayName; name != "" {
		return name
	}
	return e.String()
}

// Validate 校验参数本身的合法性，不涉及日历
func (p PolicyParameters) Validate() error {
	ve := &apperrors.ValidationErrors{}
	for _, r := range []struct {
		name string
		rng  Range
	}{{"early", p.Early}, {"late", p.Late}, {"mid", p.Mid}} {
		if !r.rng.Valid() {
			ve.Add(r.name, fmt.Sprintf("区间 %s 无效", r.rng))
		}
	}
	if p.SupportMidQuota < 0 {
		ve.Add("support_mid_quota", "不能为负")
	}
	for _, e := range CoreEmployees {
		ep := p.Employees[e]
		if ep.RestQuota < 0 {
			ve.Add(e.String()+".rest_quota", "不能为负")
		}
		if ep.IsolatedAllowance < 0 {
			ve.Add(e.String()+".isolated_allowance", "不能为负")
		}
		if err := ep.Prior.Validate(e); err != nil {
			ve.Add(e.String()+".prior", err.Error())
		}
	}
	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
