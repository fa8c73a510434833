package builtin

import (
	"fmt"

	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// MaxConsecutiveDaysConstraint 最大连续工作天数约束：任意 maxDays+1 天内至少休息一天
type MaxConsecutiveDaysConstraint struct {
	*BaseConstraint
	maxDays int
}

// NewMaxConsecutiveDaysConstraint 创建最大连续工作天数约束
func NewMaxConsecutiveDaysConstraint(maxDays int) *MaxConsecutiveDaysConstraint {
	return &MaxConsecutiveDaysConstraint{
		BaseConstraint: NewBaseConstraint(
			fmt.Sprintf("最多连续工作%d天", maxDays),
			constraint.TypeMaxConsecutiveWork,
			constraint.CategoryHard,
			65,
		),
		maxDays: maxDays,
	}
}

// Apply 写入约束；区间前已连续工作 k 天时，前 min(N, maxDays+1-k) 天内至少休息一天
func (c *MaxConsecutiveDaysConstraint) Apply(b *constraint.Builder) error {
	window := c.maxDays + 1
	for _, e := range model.CoreEmployees {
		prior := b.Policy.For(e).Prior
		if prior.ConsecutiveWork > c.maxDays {
			return apperrors.PolicyViolation(string(c.Type()),
				fmt.Sprintf("%s 区间开始前已连续工作 %d 天，超过上限 %d", e, prior.ConsecutiveWork, c.maxDays))
		}

		for start := 0; start+window <= b.Days(); start++ {
			offs := b.Window(start, start+window, e, b.Off)
			b.Model.AddGE(c.row(e, start, ""), offs, 1)
		}

		if k := prior.ConsecutiveWork; k > 0 && b.Days() > 0 {
			span := min(b.Days(), window-k)
			offs := b.Window(0, span, e, b.Off)
			b.Model.AddGE(c.row(e, 0, fmt.Sprintf("prior%d", k)), offs, 1)
		}
	}
	return nil
}

// MaxConsecutiveRestConstraint 最大连续休息天数约束：任意 maxDays+1 天内至少上班一天
type MaxConsecutiveRestConstraint struct {
	*BaseConstraint
	maxDays int
}

// NewMaxConsecutiveRestConstraint 创建最大连续休息天数约束
func NewMaxConsecutiveRestConstraint(maxDays int) *MaxConsecutiveRestConstraint {
	return &MaxConsecutiveRestConstraint{
		BaseConstraint: NewBaseConstraint(
			fmt.Sprintf("最多连续休息%d天", maxDays),
			constraint.TypeMaxConsecutiveRest,
			constraint.CategoryHard,
			60,
		),
		maxDays: maxDays,
	}
}

// Apply 写入约束
func (c *MaxConsecutiveRestConstraint) Apply(b *constraint.Builder) error {
	window := c.maxDays + 1
	for _, e := range model.CoreEmployees {
		prior := b.Policy.For(e).Prior
		if prior.ConsecutiveRest > c.maxDays {
			return apperrors.PolicyViolation(string(c.Type()),
				fmt.Sprintf("%s 区间开始前已连续休息 %d 天，超过上限 %d", e, prior.ConsecutiveRest, c.maxDays))
		}

		for start := 0; start+window <= b.Days(); start++ {
			offs := b.Window(start, start+window, e, b.Off)
			b.Model.AddLE(c.row(e, start, ""), offs, float64(c.maxDays))
		}

		if k := prior.ConsecutiveRest; k > 0 && b.Days() > 0 {
			span := min(b.Days(), window-k)
			offs := b.Window(0, span, e, b.Off)
			b.Model.AddLE(c.row(e, 0, fmt.Sprintf("prior%d", k)), offs, float64(span-1))
		}
	}
	return nil
}
