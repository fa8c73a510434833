package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/paiban/kinmu/internal/export"
	"github.com/paiban/kinmu/internal/input"
	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/scheduler"
)

var (
	solveOut       string
	solveFormat    string
	solveWithStats bool
)

var solveCmd = &cobra.Command{
	Use:   "solve [params...]",
	Short: "求解参数文档并导出排班表",
	Long: `对每个参数文档独立求解，并发数由 scheduler.workers 控制。
任一文档失败时取消其余求解，已写出的文件保留。
输出文件名以参数文档名为前缀，例如 params.example_schedule_2025-08-16_2025-09-15.xlsx。

示例:
  shiftctl solve configs/params.example.yaml --format xlsx --out out/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveOut, "out", "o", "", "输出目录（默认 export.dir）")
	solveCmd.Flags().StringVarP(&solveFormat, "format", "f", "csv", "导出格式 csv/xlsx")
	solveCmd.Flags().BoolVar(&solveWithStats, "stats", false, "CSV 格式时另写一份统计文件")
}

// solveOutcome 单个文档的求解结果
type solveOutcome struct {
	path   string
	result *scheduler.RunResult
	files  []string
}

func runSolve(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(solveFormat)
	if err != nil {
		return err
	}
	dir := solveOut
	if dir == "" {
		dir = cfg.Export.Dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	sources := sourceNames(args)
	outcomes := make([]solveOutcome, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.Scheduler.Workers)
	for i, path := range args {
		g.Go(func() error {
			doc, err := input.Load(path)
			if err != nil {
				return err
			}
			req, err := doc.Request()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			res, err := engine.Run(ctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			files, err := writeReport(dir, sources[i], export.FromRun(res), format)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			outcomes[i] = solveOutcome{path: path, result: res, files: files}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, o := range outcomes {
		r := o.result
		fmt.Fprintf(out, "%s: %s 目标值 %.0f 用时 %s -> %s\n",
			o.path, r.Status, r.Objective, r.Duration.Round(time.Millisecond), strings.Join(o.files, ", "))
	}
	return nil
}

// sourceNames 以输入文件名（不含扩展名）区分输出，重名时追加序号
func sourceNames(paths []string) []string {
	names := make([]string, len(paths))
	seen := make(map[string]int, len(paths))
	for i, path := range paths {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		seen[base]++
		if n := seen[base]; n > 1 {
			base = fmt.Sprintf("%s-%d", base, n)
		}
		names[i] = base
	}
	return names
}

// writeReport 写出排班表，返回写出的文件
func writeReport(dir, source string, r export.Report, format export.Format) ([]string, error) {
	start, end := r.Calendar.Start(), r.Calendar.End()

	var buf bytes.Buffer
	if err := export.Write(&buf, r, format); err != nil {
		return nil, err
	}
	files := []string{filepath.Join(dir, export.FileName(source, "schedule", start, end, format))}
	if err := os.WriteFile(files[0], buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("写出排班表失败: %w", err)
	}

	if solveWithStats && format == export.FormatCSV {
		buf.Reset()
		if err := export.WriteStatsCSV(&buf, r); err != nil {
			return nil, err
		}
		name := filepath.Join(dir, export.FileName(source, "stats", start, end, format))
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("写出统计失败: %w", err)
		}
		files = append(files, name)
	}

	logger.Debug().Strs("files", files).Msg("导出完成")
	return files, nil
}
