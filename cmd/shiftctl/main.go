// shiftctl 命令行排班工具：批量求解、审计、统计与模型导出
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/paiban/kinmu/internal/config"
	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/scheduler"
)

var (
	// 全局参数
	configPath string
	verbose    bool
	solverName string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "shiftctl",
	Short: "四人班组排班工具",
	Long: `shiftctl 读取 YAML/JSON 参数文档，按 0-1 规划生成一个区间的排班表。

子命令:
  solve     求解一个或多个参数文档并导出 CSV/XLSX
  validate  审计已有排班表
  stats     输出已有排班表的统计
  lp        输出 CPLEX LP 格式的模型`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if solverName != "" {
			cfg.Scheduler.Solver = solverName
		}

		logCfg := cfg.Log.Logger()
		if verbose {
			logCfg.Level = "debug"
		}
		logger.Init(logCfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./configs/config.yaml）")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	rootCmd.PersistentFlags().StringVar(&solverName, "solver", "", "求解器名称，覆盖配置")

	rootCmd.AddCommand(solveCmd, validateCmd, statsCmd, lpCmd)
}

// newEngine 按当前配置创建引擎
func newEngine() (*scheduler.Engine, error) {
	return scheduler.NewEngine(cfg.Scheduler.Engine())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
