package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"

	apperrors "github.com/paiban/kinmu/pkg/errors"
)

// 带 BOM 以便表格软件按 UTF-8 打开
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteScheduleCSV 输出排班表，休息为空
func WriteScheduleCSV(w io.Writer, r Report) error {
	if err := r.check(); err != nil {
		return err
	}
	return writeCSV(w, scheduleHeader(r.Policy), scheduleRows(r))
}

// WriteStatsCSV 输出核心成员统计
func WriteStatsCSV(w io.Writer, r Report) error {
	if r.Assignment == nil {
		return apperrors.InvalidInput("report", "缺少排班表")
	}
	return writeCSV(w, statsHeader, statsRows(r.Policy, r.statistics()))
}

// ReadScheduleCSV 读回 WriteScheduleCSV 输出的排班表，人数与备注列被忽略
func ReadScheduleCSV(rd io.Reader) (*Imported, error) {
	br := bufio.NewReader(rd)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析 CSV 失败")
	}
	return parseScheduleRows(rows)
}
