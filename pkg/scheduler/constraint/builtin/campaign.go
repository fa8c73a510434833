package builtin

import (
	"fmt"

	"github.com/paiban/kinmu/pkg/mip"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// CampaignDayConstraint 活动日若只有两人在岗，Core1 上 F，在岗的 Core2/Core3 上早班
type CampaignDayConstraint struct {
	*BaseConstraint
}

// NewCampaignDayConstraint 创建活动日约束
func NewCampaignDayConstraint() *CampaignDayConstraint {
	return &CampaignDayConstraint{
		BaseConstraint: NewBaseConstraint("活动日", constraint.TypeCampaignDay, constraint.CategoryHard, 75),
	}
}

// Apply 写入约束，t = 3 - 在岗人数 标记两人日
func (c *CampaignDayConstraint) Apply(b *constraint.Builder) error {
	for d := 0; d < b.Days(); d++ {
		if !b.Day(d).IsCampaign {
			continue
		}
		d := d
		t := b.NewIndicator(fmt.Sprintf("two_d%03d", d), func(a *model.Assignment) bool {
			return a.Headcount(d) == 2
		})
		ts := mip.Sum(t)

		b.Model.AddEQ(c.dayRow(d, "two"), ts.Plus(b.Workers(d)), 3)
		b.Model.AddGE(c.row(model.Core1, d, "late_short"), b.Cell(d, model.Core1, model.LateShort).Minus(ts), 0)
		for _, e := range []model.Employee{model.Core2, model.Core3} {
			b.Model.AddGE(c.row(e, d, "early"), b.Early(d, e).Minus(b.Work(d, e)).Minus(ts), -1)
		}
	}
	return nil
}
