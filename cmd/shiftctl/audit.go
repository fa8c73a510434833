package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paiban/kinmu/internal/export"
	"github.com/paiban/kinmu/internal/input"
	"github.com/paiban/kinmu/pkg/calendar"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler"
	"github.com/paiban/kinmu/pkg/stats"
)

var schedulePath string

var validateCmd = &cobra.Command{
	Use:   "validate [params]",
	Short: "审计已有排班表",
	Long: `按参数文档的全部规则审计排班表。排班表取自 --schedule 指定的
CSV/XLSX（shiftctl solve 的输出），未指定时取参数文档的 schedule 字段。
存在违反时以非零状态退出。`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var statsCmd = &cobra.Command{
	Use:   "stats [params]",
	Short: "输出已有排班表的统计",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	for _, c := range []*cobra.Command{validateCmd, statsCmd} {
		c.Flags().StringVarP(&schedulePath, "schedule", "s", "", "排班表文件 (.csv/.xlsx)")
	}
}

// scheduleInput 参数文档与对应的排班表
type scheduleInput struct {
	engine     *scheduler.Engine
	req        scheduler.Request
	cal        *calendar.Calendar
	assignment *model.Assignment
}

func loadScheduleInput(paramsPath string) (*scheduleInput, error) {
	doc, err := input.Load(paramsPath)
	if err != nil {
		return nil, err
	}
	req, err := doc.Request()
	if err != nil {
		return nil, err
	}
	engine, err := newEngine()
	if err != nil {
		return nil, err
	}
	cal, err := engine.Calendar(req)
	if err != nil {
		return nil, err
	}

	var asg *model.Assignment
	if schedulePath == "" {
		if asg, err = doc.Assignment(); err != nil {
			return nil, err
		}
	} else {
		im, err := readSchedule(schedulePath)
		if err != nil {
			return nil, err
		}
		if !im.Start().Equal(cal.Start()) {
			return nil, apperrors.InvalidInput("schedule",
				fmt.Sprintf("排班表从 %s 开始，参数区间从 %s 开始", model.FormatDate(im.Start()), model.FormatDate(cal.Start())))
		}
		asg = im.Assignment
	}
	if asg.Days() != cal.Len() {
		return nil, apperrors.InvalidInput("schedule",
			fmt.Sprintf("排班表有 %d 天，区间有 %d 天", asg.Days(), cal.Len()))
	}
	return &scheduleInput{engine: engine, req: req, cal: cal, assignment: asg}, nil
}

// readSchedule 按扩展名读回导出的排班表
func readSchedule(path string) (*export.Imported, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开排班表失败: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return export.ReadScheduleCSV(f)
	case ".xlsx":
		return export.ReadXLSX(f)
	}
	return nil, apperrors.InvalidInput("schedule", fmt.Sprintf("不支持的排班表文件 %q", path))
}

func runValidate(cmd *cobra.Command, args []string) error {
	in, err := loadScheduleInput(args[0])
	if err != nil {
		return err
	}
	conflicts, err := in.engine.Audit(in.req, in.assignment)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(conflicts) == 0 {
		fmt.Fprintln(out, "排班表满足全部规则")
		return nil
	}
	for _, c := range conflicts {
		fmt.Fprintln(out, c.String())
	}
	return fmt.Errorf("共 %d 处违反", len(conflicts))
}

func runStats(cmd *cobra.Command, args []string) error {
	in, err := loadScheduleInput(args[0])
	if err != nil {
		return err
	}
	st := stats.ComputeWith(in.assignment, stats.Options{BoundaryAsRest: cfg.Scheduler.BoundaryAsRest})
	printStats(cmd.OutOrStdout(), in.req.Policy, st, stats.Analyze(in.cal, in.assignment))
	return nil
}

func printStats(w io.Writer, p model.PolicyParameters, st stats.Statistics, cov *stats.CoverageMetrics) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "成员\t休息\t最长连休\t最长连勤\t早\t晚\t中\t4连勤段\t3连休段\t单日上班\t休前早班%\t休后晚班%")
	for _, r := range st.Records() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			p.DisplayName(r.Employee), r.OffDays, r.LongestRest, r.LongestWork,
			r.Early, r.Late, r.Mid, r.WorkRuns4, r.RestRuns3, r.Isolated,
			r.EarlyBeforeRest, r.LateAfterRest)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n日均在岗 %.2f，满员 %d 天", cov.AvgHeadcount, cov.FullDays)
	if cov.PriorityDays > 0 {
		fmt.Fprintf(w, "，重点日满员 %d/%d (%.0f%%)", cov.PriorityFullDays, cov.PriorityDays, cov.PriorityRate)
	}
	fmt.Fprintf(w, "，支援上班 %d 天（中班 %d 次）\n", cov.SupportDays, cov.SupportMidUsed)
}
