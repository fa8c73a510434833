// Package constraints 约束库：描述排班模型中每条规则及其在参数文档中的可调项
package constraints

import (
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"` // 参数文档中的字段路径
	Type        string `json:"type"` // int, date[], weekday[], range
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`     // hard 硬约束, objective 目标
	Category    string            `json:"category"` // 分类
	Description string            `json:"description"`
	AppliesTo   []string          `json:"applies_to"` // 适用成员
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

var (
	allMembers  = []string{"core1", "core2", "core3", "support"}
	coreMembers = []string{"core1", "core2", "core3"}
)

// GetLibrary 获取完整的约束库
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		// 每日结构
		{
			Name:        string(constraint.TypeOneShiftPerDay),
			DisplayName: "每日唯一班次",
			Type:        string(constraint.CategoryHard),
			Category:    "每日结构",
			Description: "每人每天恰好一个代码（含休息），且只能取其岗位允许的班次。",
			AppliesTo:   allMembers,
		},
		{
			Name:        string(constraint.TypeDailyCoverage),
			DisplayName: "每日人员结构",
			Type:        string(constraint.CategoryHard),
			Category:    "每日结构",
			Description: "每天恰好一个早班、一个晚班，上班 2-3 人，中班人数等于上班人数减 2。",
			AppliesTo:   allMembers,
		},
		{
			Name:        string(constraint.TypeLateTypeByDay),
			DisplayName: "晚班类型",
			Type:        string(constraint.CategoryHard),
			Category:    "每日结构",
			Description: "长晚班 E 只排在指定星期或节假日，其余日子只能排短晚班 F。",
			AppliesTo:   coreMembers,
			Params: []ConstraintParam{
				{Name: "late_long_weekdays", Type: "weekday[]", Description: "长晚班星期", Default: "[sunday]"},
				{Name: "holidays", Type: "date[]", Description: "节假日，同样排长晚班"},
			},
		},
		{
			Name:        string(constraint.TypeSupportRotation),
			DisplayName: "支援岗位",
			Type:        string(constraint.CategoryHard),
			Category:    "每日结构",
			Description: "支援人员只在助阵日上班且当天必须上班，全区间支援中班 D 的次数固定。",
			AppliesTo:   []string{"support"},
			Params: []ConstraintParam{
				{Name: "support_mid_quota", Type: "int", Description: "支援中班 D 总次数", Default: "8", Min: "0"},
				{Name: "cheer_days", Type: "date[]", Description: "助阵日"},
			},
		},
		{
			Name:        string(constraint.TypeCheerDay),
			DisplayName: "助阵日",
			Type:        string(constraint.CategoryHard),
			Category:    "特殊日",
			Description: "助阵日 Core1 排早班 As；支援排中班 D 时 Core2、Core3 不得排早班或中班。",
			AppliesTo:   allMembers,
			Params: []ConstraintParam{
				{Name: "cheer_days", Type: "date[]", Description: "助阵日"},
			},
		},
		{
			Name:        string(constraint.TypeCampaignDay),
			DisplayName: "活动日",
			Type:        string(constraint.CategoryHard),
			Category:    "特殊日",
			Description: "活动日上班不足 3 人时，Core1 必须排短晚班 F，Core2、Core3 上班则排早班。",
			AppliesTo:   coreMembers,
			Params: []ConstraintParam{
				{Name: "campaign_days", Type: "date[]", Description: "活动日"},
			},
		},

		// 个人配额与序列
		{
			Name:        string(constraint.TypeRestQuota),
			DisplayName: "休息配额",
			Type:        string(constraint.CategoryHard),
			Category:    "休息保障",
			Description: "区间内的休息天数恰好等于配额。",
			AppliesTo:   coreMembers,
			Params: []ConstraintParam{
				{Name: "employees.<member>.rest_quota", Type: "int", Description: "休息天数", Default: "9", Min: "0"},
			},
		},
		{
			Name:        string(constraint.TypeMandatoryOff),
			DisplayName: "指定休息",
			Type:        string(constraint.CategoryHard),
			Category:    "休息保障",
			Description: "指定日期必须休息，区间外的日期忽略。",
			AppliesTo:   coreMembers,
			Params: []ConstraintParam{
				{Name: "employees.<member>.mandatory_off", Type: "date[]", Description: "必须休息的日期"},
			},
		},
		{
			Name:        string(constraint.TypeMaxConsecutiveWork),
			DisplayName: "最多连续工作4天",
			Type:        string(constraint.CategoryHard),
			Category:    "休息保障",
			Description: "任意连续 5 天至少休息 1 天，区间开始前的连续上班天数计入。",
			AppliesTo:   coreMembers,
			Params: []ConstraintParam{
				{Name: "employees.<member>.prior.consecutive_work", Type: "int", Description: "区间前连续上班天数", Default: "0", Min: "0", Max: "4"},
			},
		},
		{
			Name:        string(constraint.TypeMaxConsecutiveRest),
			DisplayName: "最多连续休息3天",
			Type:        string(constraint.CategoryHard),
			Category:    "休息保障",
			Description: "任意连续 4 天至多休息 3 天，区间开始前的连续休息天数计入。",
			AppliesTo:   coreMembers,
			Params: []ConstraintParam{
				{Name: "employees.<member>.prior.consecutive_rest", Type: "int", Description: "区间前连续休息天数", Default: "0", Min: "0", Max: "3"},
			},
		},
		{
			Name:        string(constraint.TypeShiftMixing),
			DisplayName: "班次混排",
			Type:        string(constraint.CategoryHard),
			Category:    "班次序列",
			Description: "任意连续 3 天至少有一次早班或休息；Core2、Core3 同时至少有一次晚班或休息。",
			AppliesTo:   coreMembers,
			Params: []ConstraintParam{
				{Name: "employees.<member>.prior.shift", Type: "string", Description: "区间前一天的班次"},
			},
		},
		{
			Name:        string(constraint.TypeIsolatedWorkday),
			DisplayName: "单日上班上限",
			Type:        string(constraint.CategoryHard),
			Category:    "班次序列",
			Description: "前后两天都休息的单独上班日不超过上限，区间最后一天不计。",
			AppliesTo:   coreMembers,
			Params: []ConstraintParam{
				{Name: "employees.<member>.isolated_allowance", Type: "int", Description: "单日上班次数上限", Default: "core1=0, core2/core3=2", Min: "0"},
			},
		},
		{
			Name:        string(constraint.TypeShiftBalance),
			DisplayName: "班次均衡",
			Type:        string(constraint.CategoryHard),
			Category:    "公平性",
			Description: "早班、晚班次数在区间内；Core2、Core3 的中班次数同样受限。",
			AppliesTo:   coreMembers,
			Params: []ConstraintParam{
				{Name: "early", Type: "range", Description: "早班次数", Default: "8-13"},
				{Name: "late", Type: "range", Description: "晚班次数", Default: "8-13"},
				{Name: "mid", Type: "range", Description: "中班次数", Default: "2-4"},
			},
		},

		// 目标
		{
			Name:        string(constraint.TypePriorityCoverage),
			DisplayName: "重点日人数最大化",
			Type:        string(constraint.CategoryObjective),
			Category:    "目标",
			Description: "最大化重点日的上班总人数。",
			AppliesTo:   allMembers,
			Params: []ConstraintParam{
				{Name: "priority_days", Type: "date[]", Description: "重点日"},
			},
		},
	}
}

// Lookup 按约束类型查找定义
func Lookup(name string) (ConstraintDefinition, bool) {
	for _, def := range GetLibrary() {
		if def.Name == name {
			return def, true
		}
	}
	return ConstraintDefinition{}, false
}
