package constraint

import (
	"fmt"

	"github.com/paiban/kinmu/pkg/calendar"
	"github.com/paiban/kinmu/pkg/mip"
	"github.com/paiban/kinmu/pkg/model"
)

const noVar mip.Var = -1

// Builder 持有模型、日历、参数以及 x[天][成员][班次] 变量网格
type Builder struct {
	Model    *mip.Model
	Calendar *calendar.Calendar
	Policy   model.PolicyParameters

	grid       [][model.EmployeeCount][model.ShiftCodeCount]mip.Var
	indicators []indicator
}

// indicator 辅助二元变量，以及由排班表推导其取值的函数
type indicator struct {
	v    mip.Var
	eval func(*model.Assignment) bool
}

// NewBuilder 为每个（天, 成员, 允许班次）创建一个二元变量
func NewBuilder(cal *calendar.Calendar, policy model.PolicyParameters) *Builder {
	b := &Builder{
		Model:    mip.NewModel(fmt.Sprintf("kinmu_%s_%s", model.FormatDate(cal.Start()), model.FormatDate(cal.End()))),
		Calendar: cal,
		Policy:   policy,
		grid:     make([][model.EmployeeCount][model.ShiftCodeCount]mip.Var, cal.Len()),
	}
	for d := 0; d < cal.Len(); d++ {
		for _, e := range model.Employees {
			for c := range b.grid[d][e] {
				b.grid[d][e][c] = noVar
			}
			for _, c := range e.AllowedShifts() {
				b.grid[d][e][c] = b.Model.NewBinary(fmt.Sprintf("x_d%03d_%s_%s", d, e, c))
			}
		}
	}
	return b
}

// Days 天数
func (b *Builder) Days() int {
	return b.Calendar.Len()
}

// Day 第 d 天
func (b *Builder) Day(d int) calendar.Day {
	return b.Calendar.Day(d)
}

// X 取变量，班次不在允许集合内时返回 false
func (b *Builder) X(d int, e model.Employee, code model.ShiftCode) (mip.Var, bool) {
	v := b.grid[d][e][code]
	return v, v != noVar
}

// Cell 单个格子的表达式，不允许的班次为常数 0
func (b *Builder) Cell(d int, e model.Employee, code model.ShiftCode) mip.Expr {
	if v, ok := b.X(d, e, code); ok {
		return mip.Sum(v)
	}
	return mip.Const(0)
}

func (b *Builder) sumWhere(d int, e model.Employee, pred func(model.ShiftCode) bool) mip.Expr {
	var vars []mip.Var
	for _, c := range e.AllowedShifts() {
		if pred(c) {
			vars = append(vars, b.grid[d][e][c])
		}
	}
	return mip.Sum(vars...)
}

// Work 是否上班
func (b *Builder) Work(d int, e model.Employee) mip.Expr {
	return b.sumWhere(d, e, model.ShiftCode.IsWork)
}

// Off 是否休息
func (b *Builder) Off(d int, e model.Employee) mip.Expr {
	return b.Cell(d, e, model.Off)
}

// Early 早班类
func (b *Builder) Early(d int, e model.Employee) mip.Expr {
	return b.sumWhere(d, e, model.ShiftCode.IsEarly)
}

// Late 晚班类
func (b *Builder) Late(d int, e model.Employee) mip.Expr {
	return b.sumWhere(d, e, model.ShiftCode.IsLate)
}

// Mid 中班类
func (b *Builder) Mid(d int, e model.Employee) mip.Expr {
	return b.sumWhere(d, e, model.ShiftCode.IsMid)
}

func (b *Builder) sumAll(d int, f func(int, model.Employee) mip.Expr) mip.Expr {
	var out mip.Expr
	for _, e := range model.Employees {
		out = out.Plus(f(d, e))
	}
	return out
}

// Workers 当天上班人数（含支援）
func (b *Builder) Workers(d int) mip.Expr { return b.sumAll(d, b.Work) }

// EarlyAll 当天早班人数
func (b *Builder) EarlyAll(d int) mip.Expr { return b.sumAll(d, b.Early) }

// LateAll 当天晚班人数
func (b *Builder) LateAll(d int) mip.Expr { return b.sumAll(d, b.Late) }

// MidAll 当天中班人数
func (b *Builder) MidAll(d int) mip.Expr { return b.sumAll(d, b.Mid) }

// Window 对 [from, to) 内每天的表达式求和
func (b *Builder) Window(from, to int, e model.Employee, f func(int, model.Employee) mip.Expr) mip.Expr {
	var out mip.Expr
	for d := from; d < to; d++ {
		out = out.Plus(f(d, e))
	}
	return out
}

// NewIndicator 创建辅助二元变量，eval 给出排班表下该变量应取的值
func (b *Builder) NewIndicator(name string, eval func(*model.Assignment) bool) mip.Var {
	v := b.Model.NewBinary(name)
	b.indicators = append(b.indicators, indicator{v: v, eval: eval})
	return v
}

// Encode 把排班表编码为模型变量取值，辅助变量由各自的 eval 推导
func (b *Builder) Encode(a *model.Assignment) []float64 {
	values := make([]float64, b.Model.NumVars())
	for d := 0; d < b.Days() && d < a.Days(); d++ {
		for _, e := range model.Employees {
			if v, ok := b.X(d, e, a.Get(d, e)); ok {
				values[v] = 1
			}
		}
	}
	for _, ind := range b.indicators {
		if ind.eval(a) {
			values[ind.v] = 1
		}
	}
	return values
}

// Active 某格中取值超过 0.5 的班次
func (b *Builder) Active(values []float64, d int, e model.Employee) []model.ShiftCode {
	var out []model.ShiftCode
	for _, c := range e.AllowedShifts() {
		if values[b.grid[d][e][c]] > 0.5 {
			out = append(out, c)
		}
	}
	return out
}
