package model

import (
	"fmt"
	"strings"
)

// ShiftCode 班次代码
type ShiftCode int

const (
	ShiftNone  ShiftCode = iota // 未知（仅用于前一日上下文）
	Off                         // 休息
	EarlyA                      // 早班 As，仅 Core1
	Early                       // 早班 A
	Mid                         // 中班 C
	MidSupport                  // 支援中班 D
	LateLong                    // 晚班 E，周日/节假日
	LateShort                   // 晚班 F，平日
)

// ShiftCodeCount 班次代码数量（含 ShiftNone）
const ShiftCodeCount = int(LateShort) + 1

// WorkShifts 全部上班班次
var WorkShifts = []ShiftCode{EarlyA, Early, Mid, MidSupport, LateLong, LateShort}

var shiftNames = [...]string{"none", "off", "early_a", "early", "mid", "mid_support", "late_long", "late_short"}

var shiftSymbols = [...]string{"", "", "As", "A", "C", "D", "E", "F"}

func (c ShiftCode) String() string {
	if c < ShiftNone || c > LateShort {
		return fmt.Sprintf("shift(%d)", int(c))
	}
	return shiftNames[c]
}

// Symbol 表格中显示的代码，休息为空
func (c ShiftCode) Symbol() string {
	if c < ShiftNone || c > LateShort {
		return "?"
	}
	return shiftSymbols[c]
}

// ParseShiftCode 解析班次代码，接受表格代码或名称，空串视为休息
func ParseShiftCode(s string) (ShiftCode, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "off", "OFF", "休":
		return Off, nil
	case "none":
		return ShiftNone, nil
	}
	for i, sym := range shiftSymbols {
		if sym != "" && sym == s {
			return ShiftCode(i), nil
		}
	}
	key := strings.ToLower(s)
	for i, name := range shiftNames {
		if name == key {
			return ShiftCode(i), nil
		}
	}
	return ShiftNone, fmt.Errorf("未知班次代码 %q", s)
}

// MarshalText 以表格代码输出，休息输出 off
func (c ShiftCode) MarshalText() ([]byte, error) {
	switch c {
	case ShiftNone:
		return []byte("none"), nil
	case Off:
		return []byte("off"), nil
	}
	return []byte(c.Symbol()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (c *ShiftCode) UnmarshalText(b []byte) error {
	v, err := ParseShiftCode(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// IsWork 是否上班
func (c ShiftCode) IsWork() bool {
	return c >= EarlyA && c <= LateShort
}

// IsEarly 早班类
func (c ShiftCode) IsEarly() bool {
	return c == EarlyA || c == Early
}

// IsMid 中班类
func (c ShiftCode) IsMid() bool {
	return c == Mid || c == MidSupport
}

// IsLate 晚班类
func (c ShiftCode) IsLate() bool {
	return c == LateLong || c == LateShort
}
