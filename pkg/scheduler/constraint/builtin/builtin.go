package builtin

import (
	"github.com/paiban/kinmu/pkg/calendar"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

const (
	minDailyWorkers = 2
	maxDailyWorkers = 3
	mixingWindow    = 3
)

// RegisterDefaultConstraints 注册全部规则与目标
func RegisterDefaultConstraints(manager *constraint.Manager) {
	// 每日结构
	manager.Register(NewOneShiftPerDayConstraint())
	manager.Register(NewDailyCoverageConstraint(minDailyWorkers, maxDailyWorkers))
	manager.Register(NewLateTypeByDayConstraint())
	manager.Register(NewSupportRotationConstraint())
	manager.Register(NewCheerDayConstraint())
	manager.Register(NewCampaignDayConstraint())

	// 个人配额与序列
	manager.Register(NewRestQuotaConstraint())
	manager.Register(NewMandatoryOffConstraint())
	manager.Register(NewMaxConsecutiveDaysConstraint(model.MaxConsecutiveWork))
	manager.Register(NewMaxConsecutiveRestConstraint(model.MaxConsecutiveRest))
	manager.Register(NewShiftMixingConstraint(mixingWindow))
	manager.Register(NewIsolatedWorkdayConstraint())
	manager.Register(NewShiftBalanceConstraint())

	// 目标
	manager.Register(NewPriorityCoverageObjective())
}

// NewDefaultManager 创建已注册全部规则的管理器
func NewDefaultManager() *constraint.Manager {
	m := constraint.NewManager()
	RegisterDefaultConstraints(m)
	return m
}

func isPriority(d calendar.Day) bool {
	return d.IsPriority
}
