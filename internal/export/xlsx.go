package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/paiban/kinmu/pkg/errors"
)

const (
	scheduleSheet = "排班表"
	statsSheet    = "统计"
)

// WriteXLSX 输出工作簿：排班表与统计两个工作表
func WriteXLSX(w io.Writer, r Report) error {
	if err := r.check(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(scheduleSheet)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "创建工作表失败")
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(statsSheet); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "创建工作表失败")
	}
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "创建样式失败")
	}
	priorityStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "创建样式失败")
	}

	header := scheduleHeader(r.Policy)
	if err := writeRow(f, scheduleSheet, 1, header); err != nil {
		return err
	}
	setHeaderStyle(f, scheduleSheet, len(header), headerStyle)
	f.SetColWidth(scheduleSheet, "A", "A", 18)
	f.SetColWidth(scheduleSheet, "B", colName(len(header)-1), 8)
	f.SetColWidth(scheduleSheet, colName(len(header)), colName(len(header)), 16)

	for d, row := range scheduleRows(r) {
		excelRow := d + 2
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		// 人数列写成数字
		values[len(row)-2] = r.Assignment.Headcount(d)
		if err := f.SetSheetRow(scheduleSheet, cell(1, excelRow), &values); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "写入排班表失败")
		}
		if r.Calendar.Day(d).IsPriority {
			f.SetCellStyle(scheduleSheet, cell(1, excelRow), cell(len(row), excelRow), priorityStyle)
		}
	}

	if err := writeStatsSheet(f, r, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "生成 Excel 文件失败")
	}
	return nil
}

func writeStatsSheet(f *excelize.File, r Report, headerStyle int) error {
	if err := writeRow(f, statsSheet, 1, statsHeader); err != nil {
		return err
	}
	setHeaderStyle(f, statsSheet, len(statsHeader), headerStyle)
	f.SetColWidth(statsSheet, "A", "A", 12)
	f.SetColWidth(statsSheet, "B", colName(len(statsHeader)), 11)

	row := 2
	for _, rec := range statsRows(r.Policy, r.statistics()) {
		values := make([]interface{}, len(rec))
		values[0] = rec[0]
		for i := 1; i < len(rec); i++ {
			n, _ := strconv.Atoi(rec[i])
			values[i] = n
		}
		if err := f.SetSheetRow(statsSheet, cell(1, row), &values); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "写入统计失败")
		}
		row++
	}

	cov := r.coverage()
	row++
	summary := [][]interface{}{
		{"在岗人日", cov.TotalWorkerDays},
		{"平均在岗", fmt.Sprintf("%.2f", cov.AvgHeadcount)},
		{"三人日", cov.FullDays},
		{"重点日", cov.PriorityDays},
		{"重点日满员", cov.PriorityFullDays},
		{"重点日满员率%", fmt.Sprintf("%.1f", cov.PriorityRate)},
		{"支援中班", cov.SupportMidUsed},
	}
	for _, line := range summary {
		if err := f.SetSheetRow(statsSheet, cell(1, row), &line); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "写入统计失败")
		}
		row++
	}
	return nil
}

// ReadXLSX 读回 WriteXLSX 输出的排班表工作表
func ReadXLSX(rd io.Reader) (*Imported, error) {
	f, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无法解析 Excel 文件")
	}
	defer f.Close()

	sheet := scheduleSheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "读取工作表失败")
	}
	return parseScheduleRows(rows)
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell(1, row), &cells); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "写入表头失败")
	}
	return nil
}

func setHeaderStyle(f *excelize.File, sheet string, cols, style int) {
	f.SetCellStyle(sheet, cell(1, 1), cell(cols, 1), style)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func colName(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}
