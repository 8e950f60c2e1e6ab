// Package models contains shared data models used across the stockpulse codebase.
package models

import (
	"context"
	"fmt"
	"sort"
)

// Valid report recommendations.
const (
	RecommendationBuy  = "BUY"
	RecommendationSell = "SELL"
	RecommendationHold = "HOLD"
)

// ReportProvider is the core interface that all AI integrations must implement.
// Callers depend on this interface, never on a concrete provider.
type ReportProvider interface {
	// GenerateReport produces the analytical report fields for one instrument.
	GenerateReport(ctx context.Context, ticker, market string) (ReportData, error)
	// Name returns the provider identifier (e.g., "mock", "zai").
	Name() string
}

// ReportData is the provider output before persistence: the report fields
// without identity or timestamps. It is also the payload of a terminal
// "completed" stream event.
type ReportData struct {
	Summary        string       `json:"summary"`
	Recommendation string       `json:"recommendation"`
	Signals        []string     `json:"signals"`
	ChartData      []ChartPoint `json:"chartData"`
}

// Validate rejects loosely-shaped provider output at the boundary.
func (d ReportData) Validate() error {
	switch d.Recommendation {
	case RecommendationBuy, RecommendationSell, RecommendationHold:
	default:
		return fmt.Errorf("invalid recommendation %q", d.Recommendation)
	}
	if d.Summary == "" {
		return fmt.Errorf("empty summary")
	}
	if len(d.Signals) == 0 {
		return fmt.Errorf("no signals")
	}
	if len(d.ChartData) == 0 {
		return fmt.Errorf("empty chart data")
	}
	if !sort.SliceIsSorted(d.ChartData, func(i, j int) bool {
		return d.ChartData[i].Time < d.ChartData[j].Time
	}) {
		return fmt.Errorf("chart data not in chronological order")
	}
	for i := 1; i < len(d.ChartData); i++ {
		if d.ChartData[i].Time == d.ChartData[i-1].Time {
			return fmt.Errorf("duplicate chart date %q", d.ChartData[i].Time)
		}
	}
	return nil
}
