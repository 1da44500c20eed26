package tasks

import (
	"fmt"

	"github.com/desertthunder/moviex/internal/locale"
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
	FetchListing Phase = iota
	WarmDetails
	WarmFailed
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchListing:
		return "fetch_listing"
	case WarmDetails:
		return "warm_details"
	case WarmFailed:
		return "warm_failed"
	case Done:
		return "done"
	default:
		return ""
	}
}

func fetchingListingUpdate(step, total int, l locale.Locale) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchListing,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching popular page %d/%d (%s)...", step, total, l),
	}
}

func warmedUpdate(step, total int, job WarmJob, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WarmDetails,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Cached %q (%s)", title, job.Locale),
		Data:    job,
	}
}

func warmFailedUpdate(step, total int, job WarmJob, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WarmFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed movie %d (%s): %v", job.ID, job.Locale, err),
		Data:    job,
	}
}

func doneUpdate(r *WarmResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    r.Total,
		Total:   r.Total,
		Message: fmt.Sprintf("Warmed %d/%d entries (%d failed)", r.Succeeded, r.Total, r.Failed),
		Data:    r,
	}
}
