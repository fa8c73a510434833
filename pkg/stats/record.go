// Package stats 提供排班统计分析功能，只读排班表，不依赖求解器变量
package stats

import (
	"github.com/paiban/kinmu/pkg/model"
)

const (
	longWorkRun = 4
	longRestRun = 3
)

// Record 单个核心成员的统计
type Record struct {
	Employee        model.Employee `json:"employee"`
	OffDays         int            `json:"off_days"`          // 休息天数
	LongestRest     int            `json:"longest_rest"`      // 最长连休
	LongestWork     int            `json:"longest_work"`      // 最长连勤
	Early           int            `json:"early"`             // 早班数
	Late            int            `json:"late"`              // 晚班数
	Mid             int            `json:"mid"`               // 中班数
	WorkRuns4       int            `json:"work_runs_4"`       // 4 连勤及以上的段数
	RestRuns3       int            `json:"rest_runs_3"`       // 3 连休及以上的段数
	Isolated        int            `json:"isolated"`          // 单日上班数
	EarlyBeforeRest int            `json:"early_before_rest"` // 休息前一天为早班的比例 (%)
	LateAfterRest   int            `json:"late_after_rest"`   // 休息后一天为晚班的比例 (%)
}

// Statistics 各核心成员的统计
type Statistics map[model.Employee]Record

// Records 按成员顺序返回
func (s Statistics) Records() []Record {
	out := make([]Record, 0, len(s))
	for _, e := range model.CoreEmployees {
		if r, ok := s[e]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Options 统计选项
type Options struct {
	// BoundaryAsRest 区间首尾之外视为休息，单日上班计入首尾两天
	BoundaryAsRest bool
}

// Compute 使用默认选项统计
func Compute(a *model.Assignment) Statistics {
	return ComputeWith(a, Options{})
}

// ComputeWith 统计每个核心成员，只看区间内的天，不使用前一日信息
func ComputeWith(a *model.Assignment, opts Options) Statistics {
	out := make(Statistics, len(model.CoreEmployees))
	for _, e := range model.CoreEmployees {
		out[e] = computeRecord(a.Column(e), e, opts)
	}
	return out
}

func computeRecord(col []model.ShiftCode, e model.Employee, opts Options) Record {
	r := Record{Employee: e}
	work := make([]bool, len(col))
	for d, c := range col {
		work[d] = c.IsWork()
		switch {
		case !c.IsWork():
			r.OffDays++
		case c.IsEarly():
			r.Early++
		case c.IsLate():
			r.Late++
		case c.IsMid():
			r.Mid++
		}
	}

	for _, run := range runs(work) {
		if run.work {
			r.LongestWork = max(r.LongestWork, run.length)
			if run.length >= longWorkRun {
				r.WorkRuns4++
			}
		} else {
			r.LongestRest = max(r.LongestRest, run.length)
			if run.length >= longRestRun {
				r.RestRuns3++
			}
		}
	}

	r.Isolated = countIsolated(work, opts.BoundaryAsRest)
	r.EarlyBeforeRest, r.LateAfterRest = restNeighbourRates(col)
	return r
}

type run struct {
	work   bool
	length int
}

// runs 游程编码
func runs(work []bool) []run {
	var out []run
	for d, w := range work {
		if d > 0 && work[d-1] == w {
			out[len(out)-1].length++
			continue
		}
		out = append(out, run{work: w, length: 1})
	}
	return out
}

func countIsolated(work []bool, boundaryAsRest bool) int {
	n := 0
	for d, w := range work {
		if !w {
			continue
		}
		prevOff := boundaryAsRest
		if d > 0 {
			prevOff = !work[d-1]
		}
		nextOff := boundaryAsRest
		if d < len(work)-1 {
			nextOff = !work[d+1]
		}
		if prevOff && nextOff {
			n++
		}
	}
	return n
}

// restNeighbourRates 休息日前一天（上班时）为早班、后一天（上班时）为晚班的比例，截断取整
func restNeighbourRates(col []model.ShiftCode) (before, after int) {
	var beforeEarly, beforeCount, afterLate, afterCount int
	for d, c := range col {
		if c.IsWork() {
			continue
		}
		if d > 0 && col[d-1].IsWork() {
			beforeCount++
			if col[d-1].IsEarly() {
				beforeEarly++
			}
		}
		if d < len(col)-1 && col[d+1].IsWork() {
			afterCount++
			if col[d+1].IsLate() {
				afterLate++
			}
		}
	}
	return percent(beforeEarly, beforeCount), percent(afterLate, afterCount)
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return n * 100 / total
}
