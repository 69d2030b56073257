package learning

import (
	"fmt"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
)

// RegisterAll registers every learning tool backed by svc into reg.
func RegisterAll(reg *tools.Registry, svc *Service) error {
	toolList := []*tools.Tool{
		svc.CreateGoalTool(),
		svc.UpdateGoalStatusTool(),
		svc.GenerateLearningPathTool(),
		svc.GetLearningPathsTool(),
		svc.TrackProgressTool(),
		svc.UpdateUnitProgressTool(),
		svc.AdjustPaceTool(),
		svc.ProvideHelpTool(),
		svc.SuggestNextActionTool(),
		svc.AbilityProfileTool(),
	}

	for _, t := range toolList {
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("register %s: %w", t.Name, err)
		}
	}
	return nil
}
