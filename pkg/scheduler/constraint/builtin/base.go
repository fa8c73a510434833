// Package builtin 提供内置约束实现，每条规则把业务要求写成线性约束行
package builtin

import (
	"fmt"

	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// BaseConstraint 约束基类
type BaseConstraint struct {
	name     string
	typ      constraint.Type
	category constraint.Category
	weight   int
}

// NewBaseConstraint 创建基础约束
func NewBaseConstraint(name string, typ constraint.Type, cat constraint.Category, weight int) *BaseConstraint {
	return &BaseConstraint{
		name:     name,
		typ:      typ,
		category: cat,
		weight:   weight,
	}
}

// Name 返回约束名称
func (c *BaseConstraint) Name() string { return c.name }

// Type 返回约束类型
func (c *BaseConstraint) Type() constraint.Type { return c.typ }

// Category 返回约束类别
func (c *BaseConstraint) Category() constraint.Category { return c.category }

// Weight 返回约束权重
func (c *BaseConstraint) Weight() int { return c.weight }

// row 约束行命名：类型/成员/d下标/后缀
func (c *BaseConstraint) row(e model.Employee, d int, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("%s/%s/d%03d", c.typ, e, d)
	}
	return fmt.Sprintf("%s/%s/d%03d/%s", c.typ, e, d, suffix)
}

// dayRow 与成员无关的按日约束行
func (c *BaseConstraint) dayRow(d int, suffix string) string {
	return fmt.Sprintf("%s/d%03d/%s", c.typ, d, suffix)
}

// totalRow 全区间约束行
func (c *BaseConstraint) totalRow(e model.Employee, suffix string) string {
	return fmt.Sprintf("%s/%s/%s", c.typ, e, suffix)
}
