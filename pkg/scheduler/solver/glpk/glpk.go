// Package glpk 通过 GLPK 求解 0-1 规划模型，需要 cgo 与 libglpk
package glpk

import (
	"context"
	"math"
	"time"

	glp "github.com/lukpank/go-glpk/glpk"

	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/mip"
	"github.com/paiban/kinmu/pkg/scheduler/solver"
)

// Name 求解器名称
const Name = "glpk"

// Solver GLPK 分支切割求解器
type Solver struct {
	Presolve bool
}

// New 创建 GLPK 求解器
func New() *Solver {
	return &Solver{Presolve: true}
}

// Register 注册到求解器表
func Register() {
	solver.Register(Name, func() solver.Solver { return New() })
}

// Name 返回求解器名称
func (s *Solver) Name() string {
	return Name
}

type outcome struct {
	res *solver.Result
	err error
}

// Solve 在独立 goroutine 中求解，ctx 结束时放弃等待并返回超时状态
func (s *Solver) Solve(ctx context.Context, m *mip.Model) (*solver.Result, error) {
	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		res, err := s.solve(m)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.res != nil {
			out.res.Duration = time.Since(start)
		}
		return out.res, out.err
	case <-ctx.Done():
		logger.Warn().Str("model", m.Name).Msg("GLPK 超出时间预算，放弃等待")
		return &solver.Result{Status: solver.StatusTimedOut, Duration: time.Since(start)}, nil
	}
}

func (s *Solver) solve(m *mip.Model) (*solver.Result, error) {
	prob := glp.New()
	defer prob.Delete()

	prob.SetProbName(m.Name)
	obj, sense := m.Objective()
	if sense == mip.Minimize {
		prob.SetObjDir(glp.ObjDir(glp.MIN))
	} else {
		prob.SetObjDir(glp.ObjDir(glp.MAX))
	}

	n := m.NumVars()
	if n > 0 {
		prob.AddCols(n)
	}
	for j := 1; j <= n; j++ {
		prob.SetColName(j, m.VarName(mip.Var(j-1)))
		prob.SetColKind(j, glp.VarType(glp.BV))
	}
	coefs := make([]float64, n)
	for _, t := range obj.Terms {
		coefs[t.Var] += t.Coef
	}
	for j, c := range coefs {
		if c != 0 {
			prob.SetObjCoef(j+1, c)
		}
	}

	rows := m.Rows()
	if len(rows) > 0 {
		prob.AddRows(len(rows))
	}
	for i, r := range rows {
		row := i + 1
		prob.SetRowName(row, r.Name)
		typ, lo, hi := bounds(r.Lower, r.Upper)
		prob.SetRowBnds(row, typ, lo, hi)

		ind := make([]int32, 1, len(r.Terms)+1)
		val := make([]float64, 1, len(r.Terms)+1)
		for _, t := range r.Terms {
			ind = append(ind, int32(t.Var)+1)
			val = append(val, t.Coef)
		}
		prob.SetMatRow(row, ind, val)
	}

	smcp := glp.NewSmcp()
	smcp.SetMsgLev(glp.MsgLev(glp.MSG_ERR))
	if err := prob.Simplex(smcp); err != nil && err != glp.ENOPFS {
		return nil, apperrors.SolverFailure(Name, err)
	}
	iocp := glp.NewIocp()
	iocp.SetPresolve(s.Presolve)
	iocp.SetMsgLev(glp.MsgLev(glp.MSG_ERR))
	if err := prob.Intopt(iocp); err != nil {
		if err == glp.ENOPFS {
			return &solver.Result{Status: solver.StatusInfeasible}, nil
		}
		return nil, apperrors.SolverFailure(Name, err)
	}

	res := &solver.Result{Solver: Name}
	switch prob.MipStatus() {
	case glp.OPT:
		res.Status = solver.StatusOptimal
	case glp.NOFEAS:
		res.Status = solver.StatusInfeasible
		return res, nil
	default:
		res.Status = solver.StatusUnknown
	}

	res.Values = make([]float64, n)
	for j := 1; j <= n; j++ {
		res.Values[j-1] = math.Round(prob.MipColVal(j))
	}
	res.Objective = obj.Eval(res.Values)
	return res, nil
}

func bounds(lo, hi float64) (glp.BndsType, float64, float64) {
	switch {
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		return glp.BndsType(glp.FR), 0, 0
	case math.IsInf(hi, 1):
		return glp.BndsType(glp.LO), lo, 0
	case math.IsInf(lo, -1):
		return glp.BndsType(glp.UP), 0, hi
	case lo == hi:
		return glp.BndsType(glp.FX), lo, hi
	default:
		return glp.BndsType(glp.DB), lo, hi
	}
}
