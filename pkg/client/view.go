package client

import (
	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/pkg/models"
)

// View states, in rough lifecycle order.
const (
	ViewUnknown      = "unknown"
	ViewInitializing = "initializing"
	ViewProcessing   = "processing"
	ViewCompleted    = "completed"
	ViewFailed       = "failed"
)

// View is a render-ready projection of a cached analysis.
type View struct {
	State    string
	Ticker   string
	Progress int
	Message  string
	Err      string
	Report   *models.Report
}

// ComposeView projects the cached entry for id into a View. An analysis the
// cache has never seen is unknown; a processing one with no progress yet is
// initializing.
func ComposeView(cache *AnalysisCache, id uuid.UUID) View {
	entry, ok := cache.Get(id)
	if !ok {
		return View{State: ViewUnknown}
	}

	v := View{
		Ticker:   entry.Analysis.Ticker,
		Progress: entry.Progress,
		Message:  entry.Message,
		Err:      entry.Err,
	}

	switch entry.Analysis.Status {
	case models.AnalysisStatusCompleted:
		v.State = ViewCompleted
		v.Progress = 100
		v.Report = entry.Analysis.Report
	case models.AnalysisStatusFailed:
		v.State = ViewFailed
	case models.AnalysisStatusProcessing:
		if entry.Err != "" {
			// Stream reported an error without a status change; surface it
			// rather than showing a stalled progress bar.
			v.State = ViewFailed
		} else if entry.Progress == 0 {
			v.State = ViewInitializing
		} else {
			v.State = ViewProcessing
		}
	default:
		v.State = ViewUnknown
	}
	return v
}
