package scheduler

import (
	"fmt"

	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// Extract 从求解结果取出排班表，每格必须恰好有一个取值为 1 的班次
func Extract(b *constraint.Builder, values []float64) (*model.Assignment, error) {
	if len(values) != b.Model.NumVars() {
		return nil, apperrors.InvariantViolation("extract",
			fmt.Sprintf("求解结果有 %d 个变量，模型有 %d 个", len(values), b.Model.NumVars()))
	}

	a := model.NewAssignment(b.Days())
	for d := 0; d < b.Days(); d++ {
		for _, e := range model.Employees {
			active := b.Active(values, d, e)
			if len(active) != 1 {
				return nil, apperrors.InvariantViolation("extract",
					fmt.Sprintf("%s %s 有 %d 个班次 %v", model.FormatDate(b.Day(d).Date), e, len(active), active))
			}
			a.Set(d, e, active[0])
		}
	}
	return a, nil
}
