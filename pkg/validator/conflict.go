// Package validator 直接从排班表重新检查全部硬性规则，不使用求解器的变量
package validator

import (
	"fmt"
	"strings"

	"github.com/paiban/kinmu/pkg/calendar"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// Conflict 一条规则违反
type Conflict struct {
	Type     constraint.Type `json:"type"`
	Severity string          `json:"severity"` // error/warning
	Employee *model.Employee `json:"employee,omitempty"`
	Date     string          `json:"date,omitempty"`
	Message  string          `json:"message"`
}

func (c Conflict) String() string {
	var b strings.Builder
	b.WriteString(string(c.Type))
	if c.Employee != nil {
		b.WriteString(" " + c.Employee.String())
	}
	if c.Date != "" {
		b.WriteString(" " + c.Date)
	}
	b.WriteString(": " + c.Message)
	return b.String()
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	MinDailyWorkers    int
	MaxDailyWorkers    int
	MaxConsecutiveWork int
	MaxConsecutiveRest int
	MixingWindow       int
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MinDailyWorkers:    2,
		MaxDailyWorkers:    3,
		MaxConsecutiveWork: model.MaxConsecutiveWork,
		MaxConsecutiveRest: model.MaxConsecutiveRest,
		MixingWindow:       3,
	}
}

// Auditor 排班审计器
type Auditor struct {
	config *DetectorConfig
}

// NewAuditor 创建审计器
func NewAuditor(config *DetectorConfig) *Auditor {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &Auditor{config: config}
}

// audit 单条规则的检查上下文
type audit struct {
	cal       *calendar.Calendar
	policy    model.PolicyParameters
	a         *model.Assignment
	conflicts []Conflict
}

func (x *audit) add(t constraint.Type, e *model.Employee, d int, format string, args ...interface{}) {
	c := Conflict{Type: t, Severity: "error", Employee: e, Message: fmt.Sprintf(format, args...)}
	if d >= 0 {
		c.Date = model.FormatDate(x.cal.Day(d).Date)
	}
	x.conflicts = append(x.conflicts, c)
}

func emp(e model.Employee) *model.Employee {
	return &e
}

// Audit 检查全部硬性规则，返回全部违反项；天数不一致时只报告这一项
func (v *Auditor) Audit(cal *calendar.Calendar, policy model.PolicyParameters, a *model.Assignment) []Conflict {
	x := &audit{cal: cal, policy: policy, a: a}
	if a.Days() != cal.Len() {
		x.add(constraint.TypeOneShiftPerDay, nil, -1, "排班表有 %d 天，日历有 %d 天", a.Days(), cal.Len())
		return x.conflicts
	}

	v.detectCells(x)
	v.detectDailyCoverage(x)
	v.detectLateType(x)
	v.detectSupport(x)
	v.detectCheerDays(x)
	v.detectCampaignDays(x)
	v.detectRestQuota(x)
	v.detectMandatoryOff(x)
	v.detectConsecutiveWork(x)
	v.detectConsecutiveRest(x)
	v.detectMixing(x)
	v.detectIsolated(x)
	v.detectBalance(x)
	return x.conflicts
}

// detectCells 每格恰好一个允许的代码
func (v *Auditor) detectCells(x *audit) {
	for d := 0; d < x.a.Days(); d++ {
		for _, e := range model.Employees {
			code := x.a.Get(d, e)
			if code == model.ShiftNone {
				x.add(constraint.TypeOneShiftPerDay, emp(e), d, "没有班次")
			} else if !e.Allows(code) {
				x.add(constraint.TypeOneShiftPerDay, emp(e), d, "不允许的班次 %s", code.Symbol())
			}
		}
	}
}

func (v *Auditor) detectDailyCoverage(x *audit) {
	for d := 0; d < x.a.Days(); d++ {
		var workers, early, late, mid int
		for _, e := range model.Employees {
			code := x.a.Get(d, e)
			if !code.IsWork() {
				continue
			}
			workers++
			switch {
			case code.IsEarly():
				early++
			case code.IsLate():
				late++
			case code.IsMid():
				mid++
			}
		}
		if early != 1 {
			x.add(constraint.TypeDailyCoverage, nil, d, "早班 %d 人，应为 1 人", early)
		}
		if late != 1 {
			x.add(constraint.TypeDailyCoverage, nil, d, "晚班 %d 人，应为 1 人", late)
		}
		if workers < v.config.MinDailyWorkers || workers > v.config.MaxDailyWorkers {
			x.add(constraint.TypeDailyCoverage, nil, d, "在岗 %d 人，应为 %d~%d 人",
				workers, v.config.MinDailyWorkers, v.config.MaxDailyWorkers)
		}
		if mid != workers-2 {
			x.add(constraint.TypeDailyCoverage, nil, d, "中班 %d 人，在岗 %d 人", mid, workers)
		}
	}
}

func (v *Auditor) detectLateType(x *audit) {
	for d := 0; d < x.a.Days(); d++ {
		longDay := x.cal.Day(d).IsLateLongDay
		for _, e := range model.Employees {
			code := x.a.Get(d, e)
			if code == model.LateLong && !longDay {
				x.add(constraint.TypeLateTypeByDay, emp(e), d, "E 只能排在周日或节假日")
			}
			if code == model.LateShort && longDay {
				x.add(constraint.TypeLateTypeByDay, emp(e), d, "周日或节假日不能排 F")
			}
		}
	}
}

func (v *Auditor) detectSupport(x *audit) {
	mids := 0
	for d := 0; d < x.a.Days(); d++ {
		code := x.a.Get(d, model.Support)
		cheer := x.cal.Day(d).IsCheer
		if cheer && !code.IsWork() {
			x.add(constraint.TypeSupportRotation, emp(model.Support), d, "助阵日支援未上班")
		}
		if !cheer && code.IsWork() {
			x.add(constraint.TypeSupportRotation, emp(model.Support), d, "非助阵日支援上班")
		}
		if code == model.MidSupport {
			mids++
		}
	}
	if mids != x.policy.SupportMidQuota {
		x.add(constraint.TypeSupportRotation, emp(model.Support), -1, "支援中班 %d 次，应为 %d 次", mids, x.policy.SupportMidQuota)
	}
}

func (v *Auditor) detectCheerDays(x *audit) {
	for d := 0; d < x.a.Days(); d++ {
		supportMid := x.a.Get(d, model.Support) == model.MidSupport
		if x.cal.Day(d).IsCheer {
			if x.a.Get(d, model.Core1) != model.EarlyA {
				x.add(constraint.TypeCheerDay, emp(model.Core1), d, "助阵日 Core1 应为 As")
			}
			onDuty := 0
			for _, e := range []model.Employee{model.Core2, model.Core3} {
				if x.a.Get(d, e).IsWork() {
					onDuty++
				}
			}
			if onDuty != boolToInt(supportMid) {
				x.add(constraint.TypeCheerDay, nil, d, "Core2/Core3 在岗 %d 人，支援中班 %d 人", onDuty, boolToInt(supportMid))
			}
		}
		if !supportMid {
			continue
		}
		for _, e := range []model.Employee{model.Core2, model.Core3} {
			code := x.a.Get(d, e)
			if code.IsEarly() || code.IsMid() {
				x.add(constraint.TypeCheerDay, emp(e), d, "支援中班当天不能排 %s", code.Symbol())
			}
		}
	}
}

func (v *Auditor) detectCampaignDays(x *audit) {
	for d := 0; d < x.a.Days(); d++ {
		if !x.cal.Day(d).IsCampaign || x.a.Headcount(d) != 2 {
			continue
		}
		if x.a.Get(d, model.Core1) != model.LateShort {
			x.add(constraint.TypeCampaignDay, emp(model.Core1), d, "活动日两人在岗时 Core1 应为 F")
		}
		for _, e := range []model.Employee{model.Core2, model.Core3} {
			code := x.a.Get(d, e)
			if code.IsWork() && !code.IsEarly() {
				x.add(constraint.TypeCampaignDay, emp(e), d, "活动日两人在岗时应为早班，实际 %s", code.Symbol())
			}
		}
	}
}

func (v *Auditor) detectRestQuota(x *audit) {
	for _, e := range model.CoreEmployees {
		offs := 0
		for _, code := range x.a.Column(e) {
			if !code.IsWork() {
				offs++
			}
		}
		if want := x.policy.For(e).RestQuota; offs != want {
			x.add(constraint.TypeRestQuota, emp(e), -1, "休息 %d 天，应为 %d 天", offs, want)
		}
	}
}

func (v *Auditor) detectMandatoryOff(x *audit) {
	for _, e := range model.CoreEmployees {
		for _, d := range x.cal.Indices(x.policy.For(e).MandatoryOff) {
			if x.a.Get(d, e).IsWork() {
				x.add(constraint.TypeMandatoryOff, emp(e), d, "指定休息日上班")
			}
		}
	}
}

// detectConsecutiveWork 连续工作天数（含区间前的连续天数），每段超限只报告一次
func (v *Auditor) detectConsecutiveWork(x *audit) {
	for _, e := range model.CoreEmployees {
		prior := x.policy.For(e).Prior.ConsecutiveWork
		col := x.a.Column(e)
		streak, reported := prior, false
		for d, code := range col {
			if !code.IsWork() {
				streak, reported = 0, false
				continue
			}
			streak++
			if streak > v.config.MaxConsecutiveWork && !reported {
				x.add(constraint.TypeMaxConsecutiveWork, emp(e), d, "连续工作 %d 天", streak)
				reported = true
			}
		}
		// 区间短于剩余窗口时，区间内仍须休息一天
		if prior > 0 && len(col) > 0 && len(col) < v.config.MaxConsecutiveWork+1-prior && streak == prior+len(col) {
			x.add(constraint.TypeMaxConsecutiveWork, emp(e), 0, "区间前已连续工作 %d 天，区间内没有休息", prior)
		}
	}
}

func (v *Auditor) detectConsecutiveRest(x *audit) {
	for _, e := range model.CoreEmployees {
		prior := x.policy.For(e).Prior.ConsecutiveRest
		col := x.a.Column(e)
		streak, reported := prior, false
		for d, code := range col {
			if code.IsWork() {
				streak, reported = 0, false
				continue
			}
			streak++
			if streak > v.config.MaxConsecutiveRest && !reported {
				x.add(constraint.TypeMaxConsecutiveRest, emp(e), d, "连续休息 %d 天", streak)
				reported = true
			}
		}
		if prior > 0 && len(col) > 0 && len(col) < v.config.MaxConsecutiveRest+1-prior && streak == prior+len(col) {
			x.add(constraint.TypeMaxConsecutiveRest, emp(e), 0, "区间前已连续休息 %d 天，区间内没有上班", prior)
		}
	}
}

// detectMixing 连续上班的窗口内必须有早班，Core2/Core3 还必须有晚班；前一日已知且上班时参与首个窗口
func (v *Auditor) detectMixing(x *audit) {
	w := v.config.MixingWindow
	for _, e := range model.CoreEmployees {
		col := x.a.Column(e)
		offset := 0
		if prior := x.policy.For(e).Prior; prior.Worked() && w-1 <= len(col) {
			col = append([]model.ShiftCode{prior.Shift}, col...)
			offset = 1
		}

		for start := 0; start+w <= len(col); start++ {
			var allWork, early, late = true, false, false
			for _, code := range col[start : start+w] {
				allWork = allWork && code.IsWork()
				early = early || code.IsEarly()
				late = late || code.IsLate()
			}
			if !allWork {
				continue
			}
			d := max(start-offset, 0)
			if !early {
				x.add(constraint.TypeShiftMixing, emp(e), d, "连续 %d 天上班没有早班", w)
			}
			if e != model.Core1 && !late {
				x.add(constraint.TypeShiftMixing, emp(e), d, "连续 %d 天上班没有晚班", w)
			}
		}
	}
}

// detectIsolated 单日上班次数；最后一天不计，第 0 天在前一日上班时不计
func (v *Auditor) detectIsolated(x *audit) {
	n := x.a.Days()
	for _, e := range model.CoreEmployees {
		ep := x.policy.For(e)
		count := 0
		for d := 0; d < n-1; d++ {
			if !x.a.Get(d, e).IsWork() || x.a.Get(d+1, e).IsWork() {
				continue
			}
			prevOff := !ep.Prior.Worked()
			if d > 0 {
				prevOff = !x.a.Get(d-1, e).IsWork()
			}
			if prevOff {
				count++
			}
		}
		if count > ep.IsolatedAllowance {
			x.add(constraint.TypeIsolatedWorkday, emp(e), -1, "单日上班 %d 次，上限 %d 次", count, ep.IsolatedAllowance)
		}
	}
}

func (v *Auditor) detectBalance(x *audit) {
	p := x.policy
	for _, e := range model.CoreEmployees {
		var early, late, mid int
		for _, code := range x.a.Column(e) {
			switch {
			case code.IsEarly():
				early++
			case code.IsLate():
				late++
			case code.IsMid():
				mid++
			}
		}
		if !p.Early.Contains(early) {
			x.add(constraint.TypeShiftBalance, emp(e), -1, "早班 %d 次，不在 %s 内", early, p.Early)
		}
		if !p.Late.Contains(late) {
			x.add(constraint.TypeShiftBalance, emp(e), -1, "晚班 %d 次，不在 %s 内", late, p.Late)
		}
		if e != model.Core1 && !p.Mid.Contains(mid) {
			x.add(constraint.TypeShiftBalance, emp(e), -1, "中班 %d 次，不在 %s 内", mid, p.Mid)
		}
	}
}

// Valid 没有违反项
func (v *Auditor) Valid(cal *calendar.Calendar, policy model.PolicyParameters, a *model.Assignment) bool {
	return len(v.Audit(cal, policy, a)) == 0
}

// Summary 违反项的单行汇总
func Summary(conflicts []Conflict) string {
	parts := make([]string, len(conflicts))
	for i, c := range conflicts {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
