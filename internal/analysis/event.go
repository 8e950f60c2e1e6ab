package analysis

import "github.com/joonhokim/stockpulse/pkg/models"

// Event is one self-contained stream message. Exactly one of five shapes is
// produced:
//
//	{"error": "Analysis not found"}                                  terminal
//	{"status": "completed", "message": "Analysis already completed"} terminal
//	{"status": "processing", "progress": N, "message": "..."}        non-terminal
//	{"status": "completed", "data": {...}}                           terminal
//	{"status": "failed", "error": "...", "code": 50200}              terminal
type Event struct {
	Status   string             `json:"status,omitempty"`
	Progress int                `json:"progress,omitempty"`
	Message  string             `json:"message,omitempty"`
	Data     *models.ReportData `json:"data,omitempty"`
	Error    string             `json:"error,omitempty"`
	Code     int                `json:"code,omitempty"`
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	switch {
	case e.Status == models.AnalysisStatusFailed:
		return true
	case e.Status == models.AnalysisStatusCompleted:
		return true
	case e.Status == "" && e.Error != "":
		return true
	}
	return false
}

// EmitFunc receives worker events. Implementations must tolerate being called
// after the consumer has gone away; emission is best-effort by design.
type EmitFunc func(Event)
