package model

import (
	"encoding/json"
	"fmt"
)

// Assignment 排班表，按天×成员存放班次
type Assignment struct {
	cells [][EmployeeCount]ShiftCode
}

// NewAssignment 创建指定天数的空排班表，所有格子为休息
func NewAssignment(days int) *Assignment {
	a := &Assignment{cells: make([][EmployeeCount]ShiftCode, days)}
	for d := range a.cells {
		for e := range a.cells[d] {
			a.cells[d][e] = Off
		}
	}
	return a
}

// Days 天数
func (a *Assignment) Days() int {
	return len(a.cells)
}

// Get 取某天某成员的班次
func (a *Assignment) Get(day int, e Employee) ShiftCode {
	return a.cells[day][e]
}

// Set 写入班次
func (a *Assignment) Set(day int, e Employee, code ShiftCode) {
	a.cells[day][e] = code
}

// Column 某成员整列班次
func (a *Assignment) Column(e Employee) []ShiftCode {
	out := make([]ShiftCode, len(a.cells))
	for d := range a.cells {
		out[d] = a.cells[d][e]
	}
	return out
}

// Headcount 当天上班人数
func (a *Assignment) Headcount(day int) int {
	n := 0
	for _, c := range a.cells[day] {
		if c.IsWork() {
			n++
		}
	}
	return n
}

// MarshalJSON 输出为 成员 -> 每日代码 的映射
func (a *Assignment) MarshalJSON() ([]byte, error) {
	out := make(map[string][]ShiftCode, len(Employees))
	for _, e := range Employees {
		out[e.String()] = a.Column(e)
	}
	return json.Marshal(out)
}

// UnmarshalJSON 从 成员 -> 每日代码 的映射还原
func (a *Assignment) UnmarshalJSON(b []byte) error {
	var in map[string][]ShiftCode
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	days := -1
	for name, col := range in {
		if _, err := ParseEmployee(name); err != nil {
			return err
		}
		if days >= 0 && len(col) != days {
			return fmt.Errorf("成员 %s 的天数 %d 与其他成员 %d 不一致", name, len(col), days)
		}
		days = len(col)
	}
	if days < 0 {
		days = 0
	}
	*a = *NewAssignment(days)
	for name, col := range in {
		e, _ := ParseEmployee(name)
		for d, c := range col {
			a.cells[d][e] = c
		}
	}
	return nil
}
