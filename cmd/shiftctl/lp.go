package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/paiban/kinmu/internal/input"
)

var lpOut string

var lpCmd = &cobra.Command{
	Use:   "lp [params]",
	Short: "输出 CPLEX LP 格式的模型",
	Long: `只构建模型不求解，便于用外部求解器（glpsol、cbc、highs）交叉验证。

示例:
  shiftctl lp configs/params.example.yaml -o model.lp && glpsol --lp model.lp`,
	Args: cobra.ExactArgs(1),
	RunE: runLP,
}

func init() {
	lpCmd.Flags().StringVarP(&lpOut, "out", "o", "", "输出文件（默认标准输出）")
}

func runLP(cmd *cobra.Command, args []string) error {
	doc, err := input.Load(args[0])
	if err != nil {
		return err
	}
	req, err := doc.Request()
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	b, err := engine.BuildModel(req)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if lpOut != "" {
		f, err := os.Create(lpOut)
		if err != nil {
			return fmt.Errorf("创建输出文件失败: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := b.Model.WriteLP(w); err != nil {
		return fmt.Errorf("输出模型失败: %w", err)
	}
	if lpOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d 个变量，%d 条约束 -> %s\n", b.Model.NumVars(), b.Model.NumRows(), lpOut)
	}
	return nil
}
