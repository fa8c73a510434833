// Package mip 描述 0-1 整数规划模型：二元变量、线性约束行与线性目标
package mip

import (
	"fmt"
	"math"
	"sort"
)

// Var 变量下标（从 0 开始）
type Var int

// Term 线性项
type Term struct {
	Var  Var
	Coef float64
}

// Expr 线性表达式 Σ coef·var + constant
type Expr struct {
	Terms    []Term
	Constant float64
}

// Sum 各变量系数为 1 的表达式
func Sum(vars ...Var) Expr {
	e := Expr{Terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.Terms = append(e.Terms, Term{Var: v, Coef: 1})
	}
	return e
}

// Const 常数表达式
func Const(c float64) Expr {
	return Expr{Constant: c}
}

// Add 追加一项
func (e Expr) Add(v Var, coef float64) Expr {
	terms := make([]Term, len(e.Terms), len(e.Terms)+1)
	copy(terms, e.Terms)
	return Expr{Terms: append(terms, Term{Var: v, Coef: coef}), Constant: e.Constant}
}

// Plus 表达式相加
func (e Expr) Plus(o Expr) Expr {
	terms := make([]Term, 0, len(e.Terms)+len(o.Terms))
	terms = append(terms, e.Terms...)
	terms = append(terms, o.Terms...)
	return Expr{Terms: terms, Constant: e.Constant + o.Constant}
}

// Scale 整体乘以系数
func (e Expr) Scale(k float64) Expr {
	terms := make([]Term, len(e.Terms))
	for i, t := range e.Terms {
		terms[i] = Term{Var: t.Var, Coef: t.Coef * k}
	}
	return Expr{Terms: terms, Constant: e.Constant * k}
}

// Minus 表达式相减
func (e Expr) Minus(o Expr) Expr {
	return e.Plus(o.Scale(-1))
}

// PlusConst 加常数
func (e Expr) PlusConst(c float64) Expr {
	return Expr{Terms: e.Terms, Constant: e.Constant + c}
}

// normalize 合并同一变量的系数并去掉零系数，按变量排序
func (e Expr) normalize() Expr {
	acc := make(map[Var]float64, len(e.Terms))
	for _, t := range e.Terms {
		acc[t.Var] += t.Coef
	}
	terms := make([]Term, 0, len(acc))
	for v, c := range acc {
		if c != 0 {
			terms = append(terms, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Var < terms[j].Var })
	return Expr{Terms: terms, Constant: e.Constant}
}

// Eval 给定取值计算表达式
func (e Expr) Eval(values []float64) float64 {
	s := e.Constant
	for _, t := range e.Terms {
		s += t.Coef * values[t.Var]
	}
	return s
}

// Row 约束行 Lower ≤ Σ coef·var ≤ Upper，常数项已移到边界
type Row struct {
	Name  string
	Terms []Term
	Lower float64
	Upper float64
}

// Satisfied 校验取值是否满足该行
func (r Row) Satisfied(values []float64, tol float64) bool {
	s := 0.0
	for _, t := range r.Terms {
		s += t.Coef * values[t.Var]
	}
	return s >= r.Lower-tol && s <= r.Upper+tol
}

// Sense 优化方向
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

// Model 0-1 规划模型
type Model struct {
	Name      string
	names     []string
	byName    map[string]Var
	rows      []Row
	objective Expr
	sense     Sense
}

// NewModel 创建空模型
func NewModel(name string) *Model {
	return &Model{Name: name, byName: make(map[string]Var)}
}

// NewBinary 新增二元变量，名称必须唯一
func (m *Model) NewBinary(name string) Var {
	if _, dup := m.byName[name]; dup {
		panic(fmt.Sprintf("mip: 变量名重复 %q", name))
	}
	v := Var(len(m.names))
	m.names = append(m.names, name)
	m.byName[name] = v
	return v
}

// Lookup 按名称查找变量
func (m *Model) Lookup(name string) (Var, bool) {
	v, ok := m.byName[name]
	return v, ok
}

// NumVars 变量数
func (m *Model) NumVars() int {
	return len(m.names)
}

// NumRows 约束行数
func (m *Model) NumRows() int {
	return len(m.rows)
}

// VarName 变量名
func (m *Model) VarName(v Var) string {
	return m.names[v]
}

// Rows 全部约束行
func (m *Model) Rows() []Row {
	return m.rows
}

// AddRange 添加 lo ≤ e ≤ hi，无界一侧使用 ±Inf
func (m *Model) AddRange(name string, e Expr, lo, hi float64) {
	n := e.normalize()
	m.rows = append(m.rows, Row{
		Name:  name,
		Terms: n.Terms,
		Lower: lo - n.Constant,
		Upper: hi - n.Constant,
	})
}

// AddLE 添加 e ≤ rhs
func (m *Model) AddLE(name string, e Expr, rhs float64) {
	m.AddRange(name, e, math.Inf(-1), rhs)
}

// AddGE 添加 e ≥ rhs
func (m *Model) AddGE(name string, e Expr, rhs float64) {
	m.AddRange(name, e, rhs, math.Inf(1))
}

// AddEQ 添加 e == rhs
func (m *Model) AddEQ(name string, e Expr, rhs float64) {
	m.AddRange(name, e, rhs, rhs)
}

// Fix 固定变量取值
func (m *Model) Fix(name string, v Var, value float64) {
	m.AddEQ(name, Sum(v), value)
}

// SetObjective 设置目标函数
func (m *Model) SetObjective(sense Sense, e Expr) {
	m.sense = sense
	m.objective = e.normalize()
}

// Objective 目标函数与方向
func (m *Model) Objective() (Expr, Sense) {
	return m.objective, m.sense
}

// Check 返回首个不满足的约束行
func (m *Model) Check(values []float64, tol float64) (Row, bool) {
	for _, r := range m.rows {
		if !r.Satisfied(values, tol) {
			return r, false
		}
	}
	return Row{}, true
}
