// Package fixture 提供测试用的排班场景；小规模场景附带一张手工验证过的可行排班表
package fixture

import (
	"fmt"
	"strings"
	"time"

	"github.com/paiban/kinmu/pkg/calendar"
	"github.com/paiban/kinmu/pkg/model"
)

// Scenario 测试场景
type Scenario struct {
	Name     string
	Start    time.Time
	End      time.Time
	Policy   model.PolicyParameters
	Schedule *model.Assignment // 一张满足全部硬约束的排班表
}

// Calendar 构建场景日历
func (s Scenario) Calendar() *calendar.Calendar {
	cal, err := calendar.New(s.Start, s.End, calendar.MarkersFrom(s.Policy))
	if err != nil {
		panic(err)
	}
	return cal
}

// Table 由每日一行 "Core1 Core2 Core3 Support" 的代码构造排班表，"-" 表示休息
func Table(rows ...string) *model.Assignment {
	a := model.NewAssignment(len(rows))
	for d, row := range rows {
		cells := strings.Fields(row)
		if len(cells) != model.EmployeeCount {
			panic(fmt.Sprintf("fixture: 第 %d 行需要 %d 列: %q", d, model.EmployeeCount, row))
		}
		for i, cell := range cells {
			code := model.Off
			if cell != "-" {
				c, err := model.ParseShiftCode(cell)
				if err != nil {
					panic(err)
				}
				code = c
			}
			a.Set(d, model.Employee(i), code)
		}
	}
	return a
}

// Clone 复制排班表
func Clone(a *model.Assignment) *model.Assignment {
	out := model.NewAssignment(a.Days())
	for d := 0; d < a.Days(); d++ {
		for _, e := range model.Employees {
			out.Set(d, e, a.Get(d, e))
		}
	}
	return out
}

// openPolicy 配额宽松的基础参数
func openPolicy(rest [3]int) model.PolicyParameters {
	p := model.DefaultPolicy()
	for i, e := range model.CoreEmployees {
		p.Employees[e] = model.EmployeePolicy{RestQuota: rest[i], IsolatedAllowance: 2}
	}
	p.Early = model.Range{Min: 0, Max: 31}
	p.Late = model.Range{Min: 0, Max: 31}
	p.Mid = model.Range{Min: 0, Max: 31}
	p.SupportMidQuota = 0
	return p
}

// Week 2025-09-01(一) 至 09-07(日)，周日为重点日
func Week() Scenario {
	p := openPolicy([3]int{2, 2, 2})
	p.PriorityDays = []time.Time{model.Date(2025, 9, 7)}
	return Scenario{
		Name:   "week",
		Start:  model.Date(2025, 9, 1),
		End:    model.Date(2025, 9, 7),
		Policy: p,
		Schedule: Table(
			"As - F -",
			"F A - -",
			"- F A -",
			"As - F -",
			"F A - -",
			"- F A -",
			"As C E -",
		),
	}
}

// CheerWeek 同一周，周日为助阵日，支援中班总数为 1
func CheerWeek() Scenario {
	p := openPolicy([3]int{2, 2, 3})
	p.CheerDays = []time.Time{model.Date(2025, 9, 7)}
	p.SupportMidQuota = 1
	return Scenario{
		Name:   "cheer_week",
		Start:  model.Date(2025, 9, 1),
		End:    model.Date(2025, 9, 7),
		Policy: p,
		Schedule: Table(
			"As - F -",
			"F A - -",
			"- F A -",
			"As - F -",
			"F A - -",
			"- F A -",
			"As E - D",
		),
	}
}

// CampaignWeek 周六为活动日且 Core3 必须休息，因此当天恰好两人在岗
func CampaignWeek() Scenario {
	p := openPolicy([3]int{2, 2, 2})
	p.CampaignDays = []time.Time{model.Date(2025, 9, 6)}
	p.PriorityDays = []time.Time{model.Date(2025, 9, 7)}
	ep := p.Employees[model.Core3]
	ep.MandatoryOff = []time.Time{model.Date(2025, 9, 6)}
	p.Employees[model.Core3] = ep
	return Scenario{
		Name:   "campaign_week",
		Start:  model.Date(2025, 9, 1),
		End:    model.Date(2025, 9, 7),
		Policy: p,
		Schedule: Table(
			"As - F -",
			"- A F -",
			"As F - -",
			"- F A -",
			"As - F -",
			"F A - -",
			"E C A -",
		),
	}
}

// FiveDay 2025-09-01(一) 至 09-05(五)，窗口长度恰好等于区间长度
func FiveDay() Scenario {
	p := openPolicy([3]int{2, 1, 1})
	return Scenario{
		Name:   "five_day",
		Start:  model.Date(2025, 9, 1),
		End:    model.Date(2025, 9, 5),
		Policy: p,
		Schedule: Table(
			"As F - -",
			"- A F -",
			"F - A -",
			"- A F -",
			"As F C -",
		),
	}
}

// Month 2025-08-16 至 09-15 的整月场景，与 configs/params.example.yaml 一致：
// 平衡区间收紧、十个助阵日、四个活动日落在助阵日上、支援中班总数为 8。
// 规模超出分支定界上限，不附带排班表
func Month() Scenario {
	d := func(m time.Month, day int) time.Time { return model.Date(2025, m, day) }

	p := model.DefaultPolicy()
	p.Employees = map[model.Employee]model.EmployeePolicy{
		model.Core1: {
			DisplayName:  "小野",
			RestQuota:    9,
			MandatoryOff: []time.Time{d(8, 31), d(9, 15)},
		},
		model.Core2: {
			DisplayName:       "宮村",
			RestQuota:         9,
			IsolatedAllowance: 2,
			MandatoryOff:      []time.Time{d(8, 17), d(9, 7)},
		},
		model.Core3: {
			DisplayName:       "廣内",
			RestQuota:         9,
			IsolatedAllowance: 2,
			MandatoryOff:      []time.Time{d(8, 20)},
		},
		model.Support: {DisplayName: "応援"},
	}
	p.Holidays = []time.Time{d(9, 15)}
	p.CheerDays = []time.Time{
		d(8, 16), d(8, 17), d(8, 23), d(8, 24), d(9, 5),
		d(9, 6), d(9, 7), d(9, 10), d(9, 13), d(9, 14),
	}
	p.CampaignDays = []time.Time{d(8, 16), d(8, 23), d(9, 6), d(9, 13)}
	p.PriorityDays = []time.Time{
		d(8, 16), d(8, 17), d(8, 23), d(8, 24), d(9, 6),
		d(9, 7), d(9, 13), d(9, 14), d(9, 15),
	}
	return Scenario{
		Name:   "month",
		Start:  d(8, 16),
		End:    d(9, 15),
		Policy: p,
	}
}

// All 带排班表的全部场景
func All() []Scenario {
	return []Scenario{Week(), CheerWeek(), CampaignWeek(), FiveDay()}
}
