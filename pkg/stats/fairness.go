package stats

import (
	"math"
	"sort"
	"time"

	"github.com/paiban/kinmu/pkg/calendar"
	"github.com/paiban/kinmu/pkg/model"
)

// FairnessMetrics 核心成员之间的负担公平性
type FairnessMetrics struct {
	// 出勤公平性
	WorkloadGini     float64 `json:"workload_gini"` // 出勤天数基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadVariance float64 `json:"workload_variance"`
	WorkloadStdDev   float64 `json:"workload_std_dev"`
	AvgWorkDays      float64 `json:"avg_work_days"`
	MaxWorkDays      float64 `json:"max_work_days"`
	MinWorkDays      float64 `json:"min_work_days"`

	// 班次类型公平性
	ShiftTypeDistribution map[string]float64 `json:"shift_type_distribution"` // 早/中/晚占比 (%)
	LateShiftGini         float64            `json:"late_shift_gini"`
	WeekendShiftGini      float64            `json:"weekend_shift_gini"`

	EmployeeStats []EmployeeStat `json:"employee_stats"`

	OverallFairnessScore float64 `json:"overall_fairness_score"` // 综合公平性评分 (0-100)
}

// EmployeeStat 成员统计
type EmployeeStat struct {
	Employee      model.Employee `json:"employee"`
	WorkDays      int            `json:"work_days"`
	LateShifts    int            `json:"late_shifts"`
	WeekendShifts int            `json:"weekend_shifts"`
	Deviation     float64        `json:"deviation"` // 与平均出勤的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析核心成员的公平性，weekend 标记每天是否为周末或节假日
func (f *FairnessAnalyzer) Analyze(a *model.Assignment, weekend []bool) *FairnessMetrics {
	if a.Days() == 0 {
		return &FairnessMetrics{
			ShiftTypeDistribution: make(map[string]float64),
			OverallFairnessScore:  100,
		}
	}

	employeeStats := f.calculateEmployeeStats(a, weekend)

	work := make([]float64, len(employeeStats))
	late := make([]float64, len(employeeStats))
	weekends := make([]float64, len(employeeStats))
	for i, s := range employeeStats {
		work[i] = float64(s.WorkDays)
		late[i] = float64(s.LateShifts)
		weekends[i] = float64(s.WeekendShifts)
	}

	avg := f.calculateMean(work)
	variance := f.calculateVariance(work, avg)
	stdDev := math.Sqrt(variance)
	maxDays, minDays := f.calculateRange(work)

	for i := range employeeStats {
		if avg > 0 {
			employeeStats[i].Deviation = (float64(employeeStats[i].WorkDays) - avg) / avg * 100
		}
	}

	workloadGini := f.calculateGini(work)
	lateGini := f.calculateGini(late)
	weekendGini := f.calculateGini(weekends)

	return &FairnessMetrics{
		WorkloadGini:          workloadGini,
		WorkloadVariance:      variance,
		WorkloadStdDev:        stdDev,
		AvgWorkDays:           avg,
		MaxWorkDays:           maxDays,
		MinWorkDays:           minDays,
		ShiftTypeDistribution: f.calculateShiftTypeDistribution(a),
		LateShiftGini:         lateGini,
		WeekendShiftGini:      weekendGini,
		EmployeeStats:         employeeStats,
		OverallFairnessScore:  f.calculateOverallScore(workloadGini, lateGini, weekendGini, stdDev, avg),
	}
}

func (f *FairnessAnalyzer) calculateEmployeeStats(a *model.Assignment, weekend []bool) []EmployeeStat {
	result := make([]EmployeeStat, 0, len(model.CoreEmployees))
	for _, e := range model.CoreEmployees {
		s := EmployeeStat{Employee: e}
		for d, code := range a.Column(e) {
			if !code.IsWork() {
				continue
			}
			s.WorkDays++
			if code.IsLate() {
				s.LateShifts++
			}
			if d < len(weekend) && weekend[d] {
				s.WeekendShifts++
			}
		}
		result = append(result, s)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].WorkDays > result[j].WorkDays
	})
	return result
}

func (f *FairnessAnalyzer) calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func (f *FairnessAnalyzer) calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func (f *FairnessAnalyzer) calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// calculateGini 计算基尼系数
func (f *FairnessAnalyzer) calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

func (f *FairnessAnalyzer) calculateShiftTypeDistribution(a *model.Assignment) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, e := range model.CoreEmployees {
		for _, code := range a.Column(e) {
			switch {
			case code.IsEarly():
				counts["early"]++
			case code.IsMid():
				counts["mid"]++
			case code.IsLate():
				counts["late"]++
			default:
				continue
			}
			total++
		}
	}

	distribution := make(map[string]float64)
	if total > 0 {
		for k, n := range counts {
			distribution[k] = float64(n) / float64(total) * 100
		}
	}
	return distribution
}

// calculateOverallScore 计算综合公平性评分
func (f *FairnessAnalyzer) calculateOverallScore(workloadGini, lateGini, weekendGini, stdDev, avg float64) float64 {
	const (
		workloadWeight = 0.4
		lateWeight     = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	workloadScore := (1 - workloadGini) * 100
	lateScore := (1 - lateGini) * 100
	weekendScore := (1 - weekendGini) * 100

	cvScore := 100.0
	if avg > 0 {
		cv := stdDev / avg
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		lateWeight*lateScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}

// CompareSchedules 比较两个排班方案的公平性
func (f *FairnessAnalyzer) CompareSchedules(a1, a2 *model.Assignment, weekend []bool) map[string]float64 {
	m1 := f.Analyze(a1, weekend)
	m2 := f.Analyze(a2, weekend)

	return map[string]float64{
		"workload_gini_diff":      m2.WorkloadGini - m1.WorkloadGini,
		"late_gini_diff":          m2.LateShiftGini - m1.LateShiftGini,
		"weekend_gini_diff":       m2.WeekendShiftGini - m1.WeekendShiftGini,
		"overall_score_diff":      m2.OverallFairnessScore - m1.OverallFairnessScore,
		"schedule1_overall_score": m1.OverallFairnessScore,
		"schedule2_overall_score": m2.OverallFairnessScore,
	}
}

// WeekendMask 日历中周六、周日或节假日为 true
func WeekendMask(cal *calendar.Calendar) []bool {
	out := make([]bool, cal.Len())
	for i, d := range cal.Days() {
		out[i] = d.IsHoliday || d.Weekday == time.Saturday || d.Weekday == time.Sunday
	}
	return out
}
