package solver

import (
	"context"

	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/mip"
)

// AutoName 按模型规模选择求解器
const AutoName = "auto"

// SearchMaxVars 分支定界适用的模型变量数上限，约为十天的区间；
// 更大的模型交给 MIP 求解器
const SearchMaxVars = 220

// Auto 小模型用纯 Go 分支定界，大模型用 MIP 求解器
type Auto struct {
	small Solver
	large Solver
	limit int
}

// NewAuto 创建按规模选择的求解器，large 为 nil 时总是使用分支定界
func NewAuto(large Solver) *Auto {
	return &Auto{small: NewSearch(), large: large, limit: SearchMaxVars}
}

// WithLimit 调整分支定界的规模上限
func (a *Auto) WithLimit(limit int) *Auto {
	a.limit = limit
	return a
}

// Name 返回求解器名称
func (a *Auto) Name() string {
	return AutoName
}

// Pick 返回模型实际使用的求解器
func (a *Auto) Pick(m *mip.Model) Solver {
	if a.large == nil || m.NumVars() <= a.limit {
		return a.small
	}
	return a.large
}

// Solve 委托给选中的求解器，Result.Solver 记录实际求解器
func (a *Auto) Solve(ctx context.Context, m *mip.Model) (*Result, error) {
	s := a.Pick(m)
	logger.Debug().
		Str("model", m.Name).
		Int("vars", m.NumVars()).
		Str("solver", s.Name()).
		Msg("按模型规模选择求解器")

	res, err := s.Solve(ctx, m)
	if res != nil && res.Solver == "" {
		res.Solver = s.Name()
	}
	return res, err
}
