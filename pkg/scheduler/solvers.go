package scheduler

import (
	"github.com/paiban/kinmu/pkg/scheduler/solver"
	"github.com/paiban/kinmu/pkg/scheduler/solver/glpk"
)

func init() {
	glpk.Register()
	solver.Register(solver.AutoName, func() solver.Solver { return solver.NewAuto(glpk.New()) })
}
