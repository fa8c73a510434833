package builtin

import (
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// OneShiftPerDayConstraint 每人每天恰好一个代码（含休息）
type OneShiftPerDayConstraint struct {
	*BaseConstraint
}

// NewOneShiftPerDayConstraint 创建每日唯一班次约束
func NewOneShiftPerDayConstraint() *OneShiftPerDayConstraint {
	return &OneShiftPerDayConstraint{
		BaseConstraint: NewBaseConstraint("每日唯一班次", constraint.TypeOneShiftPerDay, constraint.CategoryHard, 100),
	}
}

// Apply 写入约束
func (c *OneShiftPerDayConstraint) Apply(b *constraint.Builder) error {
	for d := 0; d < b.Days(); d++ {
		for _, e := range model.Employees {
			b.Model.AddEQ(c.row(e, d, ""), b.Work(d, e).Plus(b.Off(d, e)), 1)
		}
	}
	return nil
}

// DailyCoverageConstraint 每日人员结构：早晚各一人，在岗 2~3 人，中班人数 = 在岗人数 - 2
type DailyCoverageConstraint struct {
	*BaseConstraint
	minWorkers int
	maxWorkers int
}

// NewDailyCoverageConstraint 创建每日覆盖约束
func NewDailyCoverageConstraint(minWorkers, maxWorkers int) *DailyCoverageConstraint {
	return &DailyCoverageConstraint{
		BaseConstraint: NewBaseConstraint("每日人员结构", constraint.TypeDailyCoverage, constraint.CategoryHard, 95),
		minWorkers:     minWorkers,
		maxWorkers:     maxWorkers,
	}
}

// Apply 写入约束
func (c *DailyCoverageConstraint) Apply(b *constraint.Builder) error {
	for d := 0; d < b.Days(); d++ {
		workers := b.Workers(d)
		b.Model.AddEQ(c.dayRow(d, "early"), b.EarlyAll(d), 1)
		b.Model.AddEQ(c.dayRow(d, "late"), b.LateAll(d), 1)
		b.Model.AddRange(c.dayRow(d, "workers"), workers, float64(c.minWorkers), float64(c.maxWorkers))
		b.Model.AddEQ(c.dayRow(d, "mid"), b.MidAll(d).Minus(workers), -2)
	}
	return nil
}

// LateTypeByDayConstraint 晚班类型由日期决定：E 只在周日/节假日，F 只在其他日子
type LateTypeByDayConstraint struct {
	*BaseConstraint
}

// NewLateTypeByDayConstraint 创建晚班类型约束
func NewLateTypeByDayConstraint() *LateTypeByDayConstraint {
	return &LateTypeByDayConstraint{
		BaseConstraint: NewBaseConstraint("晚班类型", constraint.TypeLateTypeByDay, constraint.CategoryHard, 90),
	}
}

// Apply 写入约束
func (c *LateTypeByDayConstraint) Apply(b *constraint.Builder) error {
	for d := 0; d < b.Days(); d++ {
		forbidden := model.LateShort
		if b.Day(d).IsLateLongDay {
			forbidden = model.LateLong
		}
		for _, e := range model.Employees {
			if v, ok := b.X(d, e, forbidden); ok {
				b.Model.Fix(c.row(e, d, forbidden.String()), v, 0)
			}
		}
	}
	return nil
}
