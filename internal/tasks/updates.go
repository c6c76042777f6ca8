package tasks

import (
	"fmt"

	"github.com/desertthunder/ptt/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchVideos Phase = iota
	FetchCategories
	FetchTags
	FetchCreators
	Compare
	PushProgress
	ExportCategory
)

func (p Phase) String() string {
	switch p {
	case FetchVideos:
		return "fetch_videos"
	case FetchCategories:
		return "fetch_categories"
	case FetchTags:
		return "fetch_tags"
	case FetchCreators:
		return "fetch_creators"
	case Compare:
		return "compare"
	case PushProgress:
		return "push_progress"
	case ExportCategory:
		return "export_category"
	default:
		return ""
	}
}

func fetchingVideosUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchVideos,
		Step:    step,
		Total:   total,
		Message: "Fetching videos from the server...",
	}
}

func compareUpdate(step, total int, plan *pushPlan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Comparing progress: %d to mark, %d to unmark, %d unknown", len(plan.mark), len(plan.unmark), len(plan.skipped)),
		Data:    plan,
	}
}

func operationUpdate(endpoint endpointOperation, step int, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   endpoint.phase,
		Step:    step,
		Total:   total,
		Message: endpoint.message,
	}
}

func pushStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PushProgress,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Pushing %d changes...", total),
	}
}

func pushCompletedUpdate(step, total int, id models.VideoID, watched bool) ProgressUpdate {
	action := "unwatched"
	if watched {
		action = "watched"
	}
	return ProgressUpdate{
		Phase:   PushProgress,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ video %d %s", step, total, id, action),
	}
}

func pushFailedUpdate(step, total int, id models.VideoID, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PushProgress,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ video %d: %v", step, total, id, err),
	}
}

func fetchingCategoriesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCategories,
		Step:    step,
		Total:   total,
		Message: "Fetching category listings...",
	}
}

func exportingCategoryUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCategory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCategory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCategory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
