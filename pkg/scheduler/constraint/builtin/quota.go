package builtin

import (
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// RestQuotaConstraint 每名正式员工的休息天数等于配额
type RestQuotaConstraint struct {
	*BaseConstraint
}

// NewRestQuotaConstraint 创建休息配额约束
func NewRestQuotaConstraint() *RestQuotaConstraint {
	return &RestQuotaConstraint{
		BaseConstraint: NewBaseConstraint("休息配额", constraint.TypeRestQuota, constraint.CategoryHard, 70),
	}
}

// Apply 写入约束
func (c *RestQuotaConstraint) Apply(b *constraint.Builder) error {
	for _, e := range model.CoreEmployees {
		offs := b.Window(0, b.Days(), e, b.Off)
		b.Model.AddEQ(c.totalRow(e, "offs"), offs, float64(b.Policy.For(e).RestQuota))
	}
	return nil
}

// MandatoryOffConstraint 指定休息日，区间外的日期忽略
type MandatoryOffConstraint struct {
	*BaseConstraint
}

// NewMandatoryOffConstraint 创建指定休息约束
func NewMandatoryOffConstraint() *MandatoryOffConstraint {
	return &MandatoryOffConstraint{
		BaseConstraint: NewBaseConstraint("指定休息", constraint.TypeMandatoryOff, constraint.CategoryHard, 68),
	}
}

// Apply 写入约束
func (c *MandatoryOffConstraint) Apply(b *constraint.Builder) error {
	for _, e := range model.CoreEmployees {
		for _, d := range b.Calendar.Indices(b.Policy.For(e).MandatoryOff) {
			b.Model.AddEQ(c.row(e, d, ""), b.Off(d, e), 1)
		}
	}
	return nil
}
