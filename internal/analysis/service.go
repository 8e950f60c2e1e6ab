// Package analysis orchestrates the ticker analysis pipeline: job creation,
// the staged worker run, and terminal persistence.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/internal/cache"
	"github.com/joonhokim/stockpulse/internal/store"
	"github.com/joonhokim/stockpulse/pkg/models"
)

const (
	statusTTL = 30 * time.Minute

	// Generic error code surfaced on terminal failed events; the original
	// error detail stays in server logs.
	failureCode = 50200
)

// Service orchestrates analysis creation and the worker state machine.
type Service struct {
	provider   models.ReportProvider
	store      store.Store
	cache      cache.Cache
	timeout    time.Duration
	stageDelay time.Duration
}

// NewService creates a new analysis Service. timeout bounds the provider
// call; stageDelay paces the simulated stages between progress emissions.
func NewService(provider models.ReportProvider, st store.Store, ca cache.Cache, timeout, stageDelay time.Duration) *Service {
	return &Service{
		provider:   provider,
		store:      st,
		cache:      ca,
		timeout:    timeout,
		stageDelay: stageDelay,
	}
}

// CreateAnalysis validates and inserts a new analysis with status processing.
// The single insert is the only side effect.
func (s *Service) CreateAnalysis(ctx context.Context, ownerID uuid.UUID, ticker, market string) (*models.Analysis, error) {
	if ticker == "" {
		return nil, fmt.Errorf("invalid analysis: ticker is required")
	}
	if market == "" {
		market = "US"
	}

	now := time.Now().UTC()
	analysis := &models.Analysis{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Ticker:    ticker,
		Market:    market,
		Options:   []string{},
		Status:    models.AnalysisStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("creating analysis: %w", err)
	}

	_ = s.cache.SetAnalysisStatus(ctx, analysis.ID, models.AnalysisStatusProcessing, statusTTL)

	return analysis, nil
}

// Run drives one analysis to a terminal state, emitting progress along the
// way. reqCtx is the consumer's connection context: it gates emission only.
// Store and provider calls run on a detached context so a disconnected
// viewer never leaves the analysis stuck in processing.
func (s *Service) Run(reqCtx context.Context, id uuid.UUID, emit EmitFunc) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in analysis run", "error", r, "analysis_id", id)
			s.fail(ctx, reqCtx, id, fmt.Errorf("panic: %v", r), emit)
		}
	}()

	analysis, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		// No row to mutate; the lookup failure is itself the terminal event.
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("analysis lookup failed", "error", err, "analysis_id", id)
		}
		s.emit(reqCtx, emit, Event{Error: "Analysis not found"})
		return
	}

	// Terminal statuses are absorbing: re-invoking is a store no-op.
	switch analysis.Status {
	case models.AnalysisStatusCompleted:
		s.emit(reqCtx, emit, Event{
			Status:  models.AnalysisStatusCompleted,
			Message: "Analysis already completed",
		})
		return
	case models.AnalysisStatusFailed:
		s.emit(reqCtx, emit, Event{
			Status: models.AnalysisStatusFailed,
			Error:  "Analysis already failed",
			Code:   failureCode,
		})
		return
	}

	s.emit(reqCtx, emit, Event{Status: models.AnalysisStatusProcessing, Progress: 10, Message: "Initializing AI..."})
	s.pause()
	s.emit(reqCtx, emit, Event{Status: models.AnalysisStatusProcessing, Progress: 40, Message: "Analyzing market data..."})
	s.pause()
	s.emit(reqCtx, emit, Event{Status: models.AnalysisStatusProcessing, Progress: 80, Message: "Generating report..."})

	inferCtx, cancel := context.WithTimeout(ctx, s.timeout)
	data, err := s.provider.GenerateReport(inferCtx, analysis.Ticker, analysis.Market)
	cancel()
	if err != nil {
		s.fail(ctx, reqCtx, id, err, emit)
		return
	}
	if err := data.Validate(); err != nil {
		s.fail(ctx, reqCtx, id, fmt.Errorf("invalid provider output: %w", err), emit)
		return
	}

	report := &models.Report{
		ID:             uuid.New(),
		AnalysisID:     id,
		Summary:        data.Summary,
		Recommendation: data.Recommendation,
		Signals:        data.Signals,
		ChartData:      data.ChartData,
		CreatedAt:      time.Now().UTC(),
	}

	// A concurrent run may have won the terminal write; losing the race on
	// either write still means the analysis completed.
	if err := s.store.CreateReport(ctx, report); err != nil && !errors.Is(err, store.ErrDuplicateKey) {
		s.fail(ctx, reqCtx, id, fmt.Errorf("storing report: %w", err), emit)
		return
	}
	if err := s.store.UpdateAnalysisStatus(ctx, id, models.AnalysisStatusCompleted); err != nil &&
		!errors.Is(err, store.ErrInvalidTransition) {
		s.fail(ctx, reqCtx, id, fmt.Errorf("completing analysis: %w", err), emit)
		return
	}

	_ = s.cache.SetAnalysisStatus(ctx, id, models.AnalysisStatusCompleted, statusTTL)

	s.emit(reqCtx, emit, Event{Status: models.AnalysisStatusCompleted, Data: &data})
}

// fail records the failure and emits the terminal failed event. The status
// update is best-effort: a secondary failure must not mask the original
// error. Emission is skipped when the consumer already cancelled.
func (s *Service) fail(ctx, reqCtx context.Context, id uuid.UUID, cause error, emit EmitFunc) {
	slog.Error("analysis failed", "error", cause, "analysis_id", id)

	if err := s.store.UpdateAnalysisStatus(ctx, id, models.AnalysisStatusFailed); err != nil {
		slog.Error("failed to mark analysis failed", "error", err, "analysis_id", id)
	}
	_ = s.cache.SetAnalysisStatus(ctx, id, models.AnalysisStatusFailed, statusTTL)

	if reqCtx.Err() != nil {
		return
	}
	emit(Event{
		Status: models.AnalysisStatusFailed,
		Error:  cause.Error(),
		Code:   failureCode,
	})
}

func (s *Service) emit(reqCtx context.Context, emit EmitFunc, ev Event) {
	if reqCtx.Err() != nil {
		return
	}
	emit(ev)
}

func (s *Service) pause() {
	if s.stageDelay > 0 {
		time.Sleep(s.stageDelay)
	}
}
