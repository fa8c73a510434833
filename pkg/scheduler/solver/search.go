package solver

import (
	"context"
	"math"
	"time"

	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/mip"
)

// SearchName 纯 Go 分支定界求解器名称
const SearchName = "search"

const (
	eps        = 1e-9
	checkEvery = 1024
)

// Search 深度优先分支定界：对每个约束行维护最小/最大活动量做边界传播，
// 目标函数作为一条下界随现任解提升的约束行参与剪枝
type Search struct{}

// NewSearch 创建分支定界求解器
func NewSearch() *Search {
	return &Search{}
}

// Name 返回求解器名称
func (s *Search) Name() string {
	return SearchName
}

// Solve 求解到证明最优、证明无解或 ctx 结束为止
func (s *Search) Solve(ctx context.Context, m *mip.Model) (*Result, error) {
	start := time.Now()
	st := newSearchState(ctx, m)

	result := &Result{Status: StatusInfeasible}
	if ctx.Err() != nil {
		result.Status = StatusTimedOut
	} else if st.propagate() {
		st.dfs(0)
		switch {
		case st.aborted:
			result.Status = StatusTimedOut
		case st.best != nil:
			result.Status = StatusOptimal
		}
	}

	if st.best != nil {
		result.Values = st.best
		obj, _ := m.Objective()
		result.Objective = obj.Eval(st.best)
	}
	result.Duration = time.Since(start)
	result.Nodes = st.nodes

	logger.Debug().
		Str("model", m.Name).
		Str("status", string(result.Status)).
		Int64("nodes", result.Nodes).
		Dur("duration", result.Duration).
		Msg("分支定界结束")
	return result, nil
}

type occurrence struct {
	row  int
	coef float64
}

type searchRow struct {
	terms  []mip.Term
	lo, hi float64
	minAct float64
	maxAct float64
	maxAbs float64
}

type searchState struct {
	ctx     context.Context
	rows    []searchRow
	occ     [][]occurrence
	val     []int8
	trail   []int
	queue   []int
	queued  []bool
	objRow  int
	step    float64
	best    []float64
	nodes   int64
	aborted bool
}

func newSearchState(ctx context.Context, m *mip.Model) *searchState {
	n := m.NumVars()
	st := &searchState{
		ctx: ctx,
		occ: make([][]occurrence, n),
		val: make([]int8, n),
	}
	for i := range st.val {
		st.val[i] = -1
	}

	for _, r := range m.Rows() {
		st.addRow(r.Terms, r.Lower, r.Upper)
	}

	// 目标统一转为最大化后作为一条约束行
	obj, sense := m.Objective()
	if sense == mip.Minimize {
		obj = obj.Scale(-1)
	}
	st.objRow = st.addRow(obj.Terms, math.Inf(-1), math.Inf(1))
	st.step = objectiveStep(obj.Terms)

	st.queued = make([]bool, len(st.rows))
	for i := range st.rows {
		st.enqueue(i)
	}
	return st
}

// objectiveStep 系数全为整数时目标值至少提升 1，否则只要求严格提升
func objectiveStep(terms []mip.Term) float64 {
	for _, t := range terms {
		if t.Coef != math.Trunc(t.Coef) {
			return 1e-6
		}
	}
	return 1
}

func (st *searchState) addRow(terms []mip.Term, lo, hi float64) int {
	r := searchRow{terms: terms, lo: lo, hi: hi}
	for _, t := range terms {
		r.minAct += math.Min(0, t.Coef)
		r.maxAct += math.Max(0, t.Coef)
		r.maxAbs = math.Max(r.maxAbs, math.Abs(t.Coef))
	}
	idx := len(st.rows)
	st.rows = append(st.rows, r)
	for _, t := range terms {
		st.occ[t.Var] = append(st.occ[t.Var], occurrence{row: idx, coef: t.Coef})
	}
	return idx
}

func (st *searchState) enqueue(r int) {
	if !st.queued[r] {
		st.queued[r] = true
		st.queue = append(st.queue, r)
	}
}

func (st *searchState) clearQueue() {
	for _, r := range st.queue {
		st.queued[r] = false
	}
	st.queue = st.queue[:0]
}

func (st *searchState) assign(v int, b int8) {
	st.val[v] = b
	st.trail = append(st.trail, v)
	x := float64(b)
	for _, o := range st.occ[v] {
		r := &st.rows[o.row]
		r.minAct += o.coef*x - math.Min(0, o.coef)
		r.maxAct += o.coef*x - math.Max(0, o.coef)
		st.enqueue(o.row)
	}
}

func (st *searchState) undo(mark int) {
	for len(st.trail) > mark {
		v := st.trail[len(st.trail)-1]
		st.trail = st.trail[:len(st.trail)-1]
		x := float64(st.val[v])
		for _, o := range st.occ[v] {
			r := &st.rows[o.row]
			r.minAct -= o.coef*x - math.Min(0, o.coef)
			r.maxAct -= o.coef*x - math.Max(0, o.coef)
		}
		st.val[v] = -1
	}
}

// propagate 处理队列中的行，发现冲突返回 false
func (st *searchState) propagate() bool {
	for len(st.queue) > 0 {
		ri := st.queue[len(st.queue)-1]
		st.queue = st.queue[:len(st.queue)-1]
		st.queued[ri] = false

		r := &st.rows[ri]
		if r.minAct > r.hi+eps || r.maxAct < r.lo-eps {
			st.clearQueue()
			return false
		}
		if r.hi-r.minAct >= r.maxAbs-eps && r.maxAct-r.lo >= r.maxAbs-eps {
			continue
		}
		for _, t := range r.terms {
			v := int(t.Var)
			if st.val[v] >= 0 {
				continue
			}
			a := t.Coef
			if a > 0 {
				switch {
				case r.minAct+a > r.hi+eps:
					st.assign(v, 0)
				case r.maxAct-a < r.lo-eps:
					st.assign(v, 1)
				}
			} else {
				switch {
				case r.minAct-a > r.hi+eps:
					st.assign(v, 1)
				case r.maxAct+a < r.lo-eps:
					st.assign(v, 0)
				}
			}
		}
	}
	return true
}

func (st *searchState) dfs(from int) {
	st.nodes++
	if st.nodes%checkEvery == 0 && st.ctx.Err() != nil {
		st.aborted = true
		return
	}

	v := from
	for v < len(st.val) && st.val[v] >= 0 {
		v++
	}
	if v == len(st.val) {
		st.record()
		return
	}

	for _, b := range [2]int8{1, 0} {
		mark := len(st.trail)
		st.assign(v, b)
		st.enqueue(st.objRow)
		if st.propagate() {
			st.dfs(v + 1)
		}
		st.undo(mark)
		if st.aborted {
			return
		}
	}
}

// record 保存现任解并抬高目标下界
func (st *searchState) record() {
	best := make([]float64, len(st.val))
	obj := 0.0
	for v, b := range st.val {
		best[v] = float64(b)
	}
	for _, t := range st.rows[st.objRow].terms {
		obj += t.Coef * best[t.Var]
	}
	st.best = best
	st.rows[st.objRow].lo = obj + st.step
}
