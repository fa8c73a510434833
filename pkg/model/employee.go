package model

import (
	"fmt"
	"strings"
)

// Employee 固定团队成员，三名正式员工加一个支援岗位
type Employee int

const (
	Core1 Employee = iota
	Core2
	Core3
	Support
)

// Employees 全部成员，按表格列顺序
var Employees = []Employee{Core1, Core2, Core3, Support}

// CoreEmployees 正式员工
var CoreEmployees = []Employee{Core1, Core2, Core3}

// EmployeeCount 成员数
const EmployeeCount = 4

var employeeNames = [EmployeeCount]string{"core1", "core2", "core3", "support"}

var allowedShifts = [...][]ShiftCode{
	Core1:   {EarlyA, LateLong, LateShort, Off},
	Core2:   {Early, Mid, LateLong, LateShort, Off},
	Core3:   {Early, Mid, LateLong, LateShort, Off},
	Support: {MidSupport, LateLong, LateShort, Off},
}

func (e Employee) String() string {
	if e < Core1 || e > Support {
		return fmt.Sprintf("employee(%d)", int(e))
	}
	return employeeNames[e]
}

// ParseEmployee 解析成员名
func ParseEmployee(s string) (Employee, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range employeeNames {
		if name == key {
			return Employee(i), nil
		}
	}
	return 0, fmt.Errorf("未知成员 %q", s)
}

// MarshalText 实现 encoding.TextMarshaler
func (e Employee) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (e *Employee) UnmarshalText(b []byte) error {
	v, err := ParseEmployee(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// IsCore 是否正式员工
func (e Employee) IsCore() bool {
	return e == Core1 || e == Core2 || e == Core3
}

// AllowedShifts 可排班次（含休息）
func (e Employee) AllowedShifts() []ShiftCode {
	return allowedShifts[e]
}

// Allows 班次是否在允许集合内
func (e Employee) Allows(code ShiftCode) bool {
	for _, c := range allowedShifts[e] {
		if c == code {
			return true
		}
	}
	return false
}

// EarlyCode 该成员的早班代码，支援岗位没有早班
func (e Employee) EarlyCode() ShiftCode {
	switch e {
	case Core1:
		return EarlyA
	case Core2, Core3:
		return Early
	default:
		return ShiftNone
	}
}
