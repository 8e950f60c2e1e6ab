package models

import (
	"time"

	"github.com/google/uuid"
)

// Report holds the completed analytical output for an Analysis.
// At most one report exists per analysis; it is inserted only when the
// analysis transitions to completed.
type Report struct {
	ID             uuid.UUID    `db:"id"             json:"id"`
	AnalysisID     uuid.UUID    `db:"analysis_id"    json:"analysis_id"`
	Summary        string       `db:"summary"        json:"summary"`
	Recommendation string       `db:"recommendation" json:"recommendation"`
	Signals        []string     `db:"signals"        json:"signals"`
	ChartData      []ChartPoint `db:"chart_data"     json:"chart_data"`
	CreatedAt      time.Time    `db:"created_at"     json:"created_at"`
}

// ChartPoint is one entry of a report's trend series. Time is a YYYY-MM-DD
// date string; entries are strictly ordered by date.
type ChartPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}
