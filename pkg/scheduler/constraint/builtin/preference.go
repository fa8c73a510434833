package builtin

import (
	"github.com/paiban/kinmu/pkg/mip"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// PriorityCoverageObjective 最大化重点日的在岗总人数
type PriorityCoverageObjective struct {
	*BaseConstraint
}

// NewPriorityCoverageObjective 创建重点日目标
func NewPriorityCoverageObjective() *PriorityCoverageObjective {
	return &PriorityCoverageObjective{
		BaseConstraint: NewBaseConstraint("重点日人数最大化", constraint.TypePriorityCoverage, constraint.CategoryObjective, 100),
	}
}

// Apply 设置目标函数，没有重点日时目标恒为 0
func (c *PriorityCoverageObjective) Apply(b *constraint.Builder) error {
	var obj mip.Expr
	for _, d := range b.Calendar.Filter(isPriority) {
		obj = obj.Plus(b.Workers(d))
	}
	b.Model.SetObjective(mip.Maximize, obj)
	return nil
}
