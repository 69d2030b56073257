package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/assessment"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/store"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/system"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

var (
	assessFile  string
	assessMerge bool
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Show or import the ability assessment",
	Long: `Without flags, shows the latest scored assessment and its
improvement plan.

With --file, imports an assessment from a JSON file. The recovery
parser is applied first, so hand-edited files with trailing commas or
comment lines still load. --merge patches the file onto the stored
assessment instead of replacing it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if assessFile != "" {
			return importAssessment(rt, assessFile, assessMerge)
		}
		return showAssessment(rt)
	},
}

func init() {
	assessCmd.Flags().StringVar(&assessFile, "file", "", "JSON file with assessment data")
	assessCmd.Flags().BoolVar(&assessMerge, "merge", false, "Patch onto the stored assessment instead of replacing it")
}

func importAssessment(rt *system.Runtime, path string, merge bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read assessment file: %w", err)
	}

	parsed, result, err := rt.Engine.ParseAndScore(rt.Parser, string(raw))
	if err != nil {
		return fmt.Errorf("parse assessment: %w", err)
	}
	if result.Degraded() {
		fmt.Println(warnStyle.Render(fmt.Sprintf("解析置信度较低（%.0f%%，%s）：", result.Confidence*100, result.Method)))
		for _, warning := range result.Warnings {
			fmt.Println(warnStyle.Render("  · " + warning))
		}
	}

	final := parsed
	if merge {
		base, err := rt.Store.LatestAssessment()
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load stored assessment: %w", err)
		}
		final = rt.Engine.Merge(base, parsed)
	}

	if err := rt.Engine.Validate(final); err != nil {
		return fmt.Errorf("assessment invalid after scoring: %w", err)
	}
	if err := rt.Store.SaveAssessment(final); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	rt.Plans.Invalidate(final.Date())

	fmt.Println(okStyle.Render(fmt.Sprintf("已保存评估 %s（综合 %d 分）。", final.Date(), final.OverallScore)))
	printAssessment(final)
	return nil
}

func showAssessment(rt *system.Runtime) error {
	a, err := rt.Store.LatestAssessment()
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println(mutedStyle.Render("还没有能力评估。用 pointer assess --file 导入一份，或在聊天里聊聊你的背景。"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load assessment: %w", err)
	}

	printAssessment(a)

	plan, err := rt.Plans.GetOrBuild(a, func() (*types.ImprovementPlan, error) {
		return assessment.BuildLocalPlan(a), nil
	})
	if err != nil {
		return fmt.Errorf("build improvement plan: %w", err)
	}
	if len(plan.Actions) > 0 {
		fmt.Println(headingStyle.Render("提升计划"))
		for _, action := range plan.Actions {
			line := "  · " + action.Title
			if action.Effort != "" {
				line += "（" + action.Effort + "）"
			}
			fmt.Println(line)
		}
	}
	return nil
}

func printAssessment(a *types.AbilityAssessment) {
	fmt.Println(headingStyle.Render("— 能力评估 —"))
	fmt.Printf("评估日期：%s\n", a.Date())
	fmt.Printf("综合评分：%d/100（%s）\n", a.OverallScore, types.LevelLabel(a.Level()))

	fmt.Println(headingStyle.Render("维度"))
	for _, key := range types.DimensionKeys() {
		dim, ok := a.Dimension(key)
		if !ok {
			continue
		}
		fmt.Printf("  %-14s %3d  %s\n", key, dim.Score, scoreBar(dim.Score))
	}

	if len(a.Report.Strengths) > 0 {
		fmt.Println(headingStyle.Render("优势"))
		for _, s := range a.Report.Strengths {
			fmt.Println("  · " + s)
		}
	}
	if len(a.Report.Improvements) > 0 {
		fmt.Println(headingStyle.Render("待提升"))
		for _, s := range a.Report.Improvements {
			fmt.Println("  · " + s)
		}
	}
}

// scoreBar renders a ten-cell bar for a 0..100 score.
func scoreBar(score int) string {
	filled := score / 10
	if filled > 10 {
		filled = 10
	}
	bar := ""
	for i := 0; i < 10; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	if score >= 60 {
		return okStyle.Render(bar)
	}
	return warnStyle.Render(bar)
}
