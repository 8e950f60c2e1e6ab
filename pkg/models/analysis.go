package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AnalysisStatusProcessing = "processing"
	AnalysisStatusCompleted  = "completed"
	AnalysisStatusFailed     = "failed"
)

// Analysis tracks one ticker analysis request. The API returns an id on
// POST /api/v1/analyze; the client streams GET /api/v1/analyses/{id}/stream
// until the status is completed or failed.
type Analysis struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	OwnerID   uuid.UUID `db:"owner_id"   json:"owner_id"`
	Ticker    string    `db:"ticker"     json:"ticker"`
	Market    string    `db:"market"     json:"market"`
	Options   []string  `db:"options"    json:"options"`
	Status    string    `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Report is populated on joined reads; nil unless Status is completed.
	Report *Report `db:"-" json:"report,omitempty"`
}

// Terminal reports whether the analysis has reached an absorbing status.
func (a *Analysis) Terminal() bool {
	return a.Status == AnalysisStatusCompleted || a.Status == AnalysisStatusFailed
}
