// Package export 把排班表与统计输出为 CSV 或 XLSX，并支持把导出的排班表读回来重新审计
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/paiban/kinmu/pkg/calendar"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler"
	"github.com/paiban/kinmu/pkg/stats"
)

// Format 导出格式
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat 解析导出格式，空串为 CSV
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", apperrors.InvalidInput("format", fmt.Sprintf("不支持的导出格式 %q", s))
}

// ContentType HTTP 响应类型
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName 建议的文件名，source 非空时作为前缀区分不同来源的同一区间
func FileName(source, kind string, start, end time.Time, f Format) string {
	name := fmt.Sprintf("%s_%s_%s.%s", kind, model.FormatDate(start), model.FormatDate(end), f)
	if source == "" {
		return name
	}
	return source + "_" + name
}

// Report 一次排班的导出内容
type Report struct {
	Calendar   *calendar.Calendar
	Policy     model.PolicyParameters
	Assignment *model.Assignment
	Statistics stats.Statistics
	Coverage   *stats.CoverageMetrics
}

// FromRun 由排班结果构造导出内容
func FromRun(res *scheduler.RunResult) Report {
	return Report{
		Calendar:   res.Calendar,
		Policy:     res.Policy,
		Assignment: res.Assignment,
		Statistics: res.Statistics,
		Coverage:   res.Coverage,
	}
}

func (r Report) check() error {
	if r.Calendar == nil || r.Assignment == nil {
		return apperrors.InvalidInput("report", "缺少日历或排班表")
	}
	if r.Calendar.Len() != r.Assignment.Days() {
		return apperrors.InvalidInput("report",
			fmt.Sprintf("日历 %d 天与排班表 %d 天不一致", r.Calendar.Len(), r.Assignment.Days()))
	}
	return nil
}

func (r Report) statistics() stats.Statistics {
	if r.Statistics != nil {
		return r.Statistics
	}
	return stats.Compute(r.Assignment)
}

func (r Report) coverage() *stats.CoverageMetrics {
	if r.Coverage != nil {
		return r.Coverage
	}
	return stats.Analyze(r.Calendar, r.Assignment)
}

// Write 按格式输出排班表；XLSX 同时包含统计工作表
func Write(w io.Writer, r Report, f Format) error {
	switch f {
	case FormatCSV:
		return WriteScheduleCSV(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	}
	return apperrors.InvalidInput("format", fmt.Sprintf("不支持的导出格式 %q", f))
}

const dateColumnLayout = "2006-01-02 (Mon)"

// scheduleHeader 日期、各成员、人数、备注
func scheduleHeader(p model.PolicyParameters) []string {
	header := []string{"日期"}
	for _, e := range model.Employees {
		header = append(header, p.DisplayName(e))
	}
	return append(header, "人数", "备注")
}

func scheduleRows(r Report) [][]string {
	rows := make([][]string, 0, r.Assignment.Days())
	for d := 0; d < r.Assignment.Days(); d++ {
		day := r.Calendar.Day(d)
		row := []string{day.Date.Format(dateColumnLayout)}
		for _, e := range model.Employees {
			row = append(row, r.Assignment.Get(d, e).Symbol())
		}
		row = append(row, strconv.Itoa(r.Assignment.Headcount(d)), dayNote(day))
		rows = append(rows, row)
	}
	return rows
}

func dayNote(day calendar.Day) string {
	var marks []string
	if day.IsHoliday {
		marks = append(marks, "节假日")
	}
	if day.IsCheer {
		marks = append(marks, "应援")
	}
	if day.IsCampaign {
		marks = append(marks, "活动")
	}
	if day.IsPriority {
		marks = append(marks, "重点")
	}
	return strings.Join(marks, "/")
}

var statsHeader = []string{
	"成员", "休息", "最长连休", "最长连勤", "早班", "晚班", "中班",
	"4连勤以上", "3连休以上", "单日上班", "休前早班%", "休后晚班%",
}

func statsRows(p model.PolicyParameters, st stats.Statistics) [][]string {
	records := st.Records()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			p.DisplayName(rec.Employee),
			strconv.Itoa(rec.OffDays),
			strconv.Itoa(rec.LongestRest),
			strconv.Itoa(rec.LongestWork),
			strconv.Itoa(rec.Early),
			strconv.Itoa(rec.Late),
			strconv.Itoa(rec.Mid),
			strconv.Itoa(rec.WorkRuns4),
			strconv.Itoa(rec.RestRuns3),
			strconv.Itoa(rec.Isolated),
			strconv.Itoa(rec.EarlyBeforeRest),
			strconv.Itoa(rec.LateAfterRest),
		})
	}
	return rows
}

// Imported 读回的排班表
type Imported struct {
	Dates      []time.Time
	Assignment *model.Assignment
}

// Start 首日
func (im *Imported) Start() time.Time { return im.Dates[0] }

// End 末日
func (im *Imported) End() time.Time { return im.Dates[len(im.Dates)-1] }

// parseScheduleRows 解析表头之后的数据行，日期必须逐日连续
func parseScheduleRows(rows [][]string) (*Imported, error) {
	if len(rows) < 2 {
		return nil, apperrors.InvalidInput("schedule", "没有数据行")
	}
	data := rows[1:]
	im := &Imported{
		Dates:      make([]time.Time, 0, len(data)),
		Assignment: model.NewAssignment(len(data)),
	}
	for d, row := range data {
		field := fmt.Sprintf("schedule[%d]", d+1)
		if len(row) == 0 || len(strings.TrimSpace(row[0])) < len(model.DateLayout) {
			return nil, apperrors.InvalidInput(field, "缺少日期")
		}
		date, err := model.ParseDate(strings.TrimSpace(row[0])[:len(model.DateLayout)])
		if err != nil {
			return nil, apperrors.InvalidInput(field, err.Error())
		}
		if d > 0 && !date.Equal(im.Dates[d-1].AddDate(0, 0, 1)) {
			return nil, apperrors.InvalidInput(field, "日期不连续")
		}
		im.Dates = append(im.Dates, date)

		for i, e := range model.Employees {
			cell := ""
			if i+1 < len(row) {
				cell = row[i+1]
			}
			code, err := model.ParseShiftCode(cell)
			if err != nil || code == model.ShiftNone {
				return nil, apperrors.InvalidInput(field, fmt.Sprintf("无法识别的班次 %q", cell))
			}
			im.Assignment.Set(d, e, code)
		}
	}
	return im, nil
}
