package builtin

import (
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// ShiftBalanceConstraint 班次均衡：每名正式员工的早班、晚班次数落在区间内，
// Core2/Core3 的中班次数也落在区间内
type ShiftBalanceConstraint struct {
	*BaseConstraint
}

// NewShiftBalanceConstraint 创建班次均衡约束
func NewShiftBalanceConstraint() *ShiftBalanceConstraint {
	return &ShiftBalanceConstraint{
		BaseConstraint: NewBaseConstraint("班次均衡", constraint.TypeShiftBalance, constraint.CategoryHard, 45),
	}
}

// Apply 写入约束
func (c *ShiftBalanceConstraint) Apply(b *constraint.Builder) error {
	p := b.Policy
	for _, e := range model.CoreEmployees {
		n := b.Days()
		b.Model.AddRange(c.totalRow(e, "early"), b.Window(0, n, e, b.Early), float64(p.Early.Min), float64(p.Early.Max))
		b.Model.AddRange(c.totalRow(e, "late"), b.Window(0, n, e, b.Late), float64(p.Late.Min), float64(p.Late.Max))
		if e != model.Core1 {
			b.Model.AddRange(c.totalRow(e, "mid"), b.Window(0, n, e, b.Mid), float64(p.Mid.Min), float64(p.Mid.Max))
		}
	}
	return nil
}
