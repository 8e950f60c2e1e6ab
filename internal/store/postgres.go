package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joonhokim/stockpulse/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.OwnerID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, owner_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.OwnerID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

// --- Analyses ---

func (s *PostgresStore) CreateAnalysis(ctx context.Context, analysis *models.Analysis) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, owner_id, ticker, market, options, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		analysis.ID, analysis.OwnerID, analysis.Ticker, analysis.Market, analysis.Options,
		analysis.Status, analysis.CreatedAt, analysis.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the analysis left-joined with its report, if one exists.
func (s *PostgresStore) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	var a models.Analysis
	var (
		reportID       *uuid.UUID
		reportAnalysis *uuid.UUID
		summary        *string
		recommendation *string
		signals        []string
		chartData      []models.ChartPoint
		reportCreated  *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT a.id, a.owner_id, a.ticker, a.market, a.options, a.status, a.created_at, a.updated_at,
		        r.id, r.analysis_id, r.summary, r.recommendation, r.signals, r.chart_data, r.created_at
		 FROM analyses a
		 LEFT JOIN reports r ON r.analysis_id = a.id
		 WHERE a.id = $1`, id,
	).Scan(&a.ID, &a.OwnerID, &a.Ticker, &a.Market, &a.Options, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		&reportID, &reportAnalysis, &summary, &recommendation, &signals, &chartData, &reportCreated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	if reportID != nil {
		a.Report = &models.Report{
			ID:             *reportID,
			AnalysisID:     *reportAnalysis,
			Summary:        *summary,
			Recommendation: *recommendation,
			Signals:        signals,
			ChartData:      chartData,
			CreatedAt:      *reportCreated,
		}
	}
	return &a, nil
}

var validTransitions = map[string][]string{
	models.AnalysisStatusProcessing: {models.AnalysisStatusCompleted, models.AnalysisStatusFailed},
}

// UpdateAnalysisStatus applies a status transition. Terminal statuses are
// absorbing: any transition out of completed or failed returns
// ErrInvalidTransition.
func (s *PostgresStore) UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status string) error {
	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM analyses WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get analysis status: %w", err)
	}

	allowed := validTransitions[currentStatus]
	valid := false
	for _, a := range allowed {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE analyses SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update analysis status: %w", err)
	}
	return nil
}

// --- Reports ---

// CreateReport inserts the report row. A second insert for the same analysis
// returns ErrDuplicateKey (reports.analysis_id carries a unique index).
func (s *PostgresStore) CreateReport(ctx context.Context, report *models.Report) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (id, analysis_id, summary, recommendation, signals, chart_data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.ID, report.AnalysisID, report.Summary, report.Recommendation,
		report.Signals, report.ChartData, report.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReportByAnalysisID(ctx context.Context, analysisID uuid.UUID) (*models.Report, error) {
	var r models.Report
	err := s.pool.QueryRow(ctx,
		`SELECT id, analysis_id, summary, recommendation, signals, chart_data, created_at
		 FROM reports WHERE analysis_id = $1`, analysisID,
	).Scan(&r.ID, &r.AnalysisID, &r.Summary, &r.Recommendation, &r.Signals, &r.ChartData, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report by analysis: %w", err)
	}
	return &r, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
