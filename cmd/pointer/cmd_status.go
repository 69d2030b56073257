package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the learning journey status",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		status, err := rt.Journey.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("status evaluation failed: %w", err)
		}
		printStatus(status)
		return nil
	},
}

var phaseLabels = map[string]string{
	types.PhaseAssessment:   "能力评估",
	types.PhaseGoalSetting:  "目标设定",
	types.PhasePathPlanning: "路径规划",
	types.PhaseLearning:     "学习进行",
	types.PhaseReview:       "复盘回顾",
}

func printStatus(status *types.SystemStatus) {
	label := phaseLabels[status.CurrentPhase]
	if label == "" {
		label = status.CurrentPhase
	}
	fmt.Println(headingStyle.Render("— 学习旅程 —"))
	fmt.Printf("当前阶段：%s\n", label)

	fmt.Printf("准备情况：%s 能力评估  %s 学习目标  %s 学习路径\n",
		checkmark(status.Setup.HasAssessment),
		checkmark(status.Setup.HasGoal),
		checkmark(status.Setup.HasPath))

	p := status.Progress
	fmt.Printf("数据概览：目标 %d（进行中 %d）· 路径 %d · 课程单元 %d（已完成 %d）\n",
		p.Goals, p.ActiveGoals, p.Paths, p.CourseUnits, p.Completed)

	if !status.Health.DataIntegrity {
		fmt.Println(warnStyle.Render("数据告警：" + joinList(status.Health.MissingData)))
	}

	if len(status.Recommendations) > 0 {
		fmt.Println(headingStyle.Render("建议"))
		for _, rec := range status.Recommendations {
			fmt.Println("  · " + rec)
		}
	}
	if len(status.NextActions) > 0 {
		fmt.Println(headingStyle.Render("下一步"))
		for _, action := range status.NextActions {
			fmt.Println("  · " + action)
		}
	}
}

func checkmark(ok bool) string {
	if ok {
		return okStyle.Render("✓")
	}
	return mutedStyle.Render("✗")
}

func joinList(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += "、"
		}
		out += item
	}
	return out
}
