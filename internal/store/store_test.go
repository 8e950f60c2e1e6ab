package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joonhokim/stockpulse/internal/store"
	"github.com/joonhokim/stockpulse/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("stockpulse_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

// newAnalysis builds a processing analysis owned by a fresh principal.
func newAnalysis() *models.Analysis {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Analysis{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Ticker:    "AAPL",
		Market:    "US",
		Options:   []string{},
		Status:    models.AnalysisStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// newReport builds a report for the given analysis.
func newReport(analysisID uuid.UUID) *models.Report {
	return &models.Report{
		ID:             uuid.New(),
		AnalysisID:     analysisID,
		Summary:        "Strong upward momentum with healthy volume.",
		Recommendation: models.RecommendationBuy,
		Signals:        []string{"Golden cross imminent", "RSI recovering"},
		ChartData: []models.ChartPoint{
			{Time: "2026-08-30", Value: 101.5},
			{Time: "2026-08-31", Value: 103.2},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// --- API Key Tests ---

func TestAPIKey_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	key := &models.APIKey{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Name:      "test-key",
		KeyHash:   "bcrypt-hash-here",
		KeyPrefix: "sp_abcd",
		Scopes:    []string{"analyze", "read"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.CreateAPIKey(ctx, key)
	require.NoError(t, err)

	// Get by prefix
	keys, err := s.GetAPIKeyByPrefix(ctx, "sp_abcd")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, "test-key", keys[0].Name)
}

func TestAPIKey_UpdateLastUsed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	key := &models.APIKey{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Name:      "usage-key",
		KeyHash:   "hash",
		KeyPrefix: "sp_used",
		Scopes:    []string{"read"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	err := s.UpdateAPIKeyLastUsed(ctx, key.ID)
	require.NoError(t, err)

	keys, err := s.GetAPIKeyByPrefix(ctx, "sp_used")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotNil(t, keys[0].LastUsedAt)
}

func TestAPIKey_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	id := uuid.New()
	key := &models.APIKey{
		ID: id, OwnerID: uuid.New(), Name: "dup1", KeyHash: "h1", KeyPrefix: "sp_dup1",
		Scopes: []string{"read"}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	key2 := &models.APIKey{
		ID: id, OwnerID: uuid.New(), Name: "dup2", KeyHash: "h2", KeyPrefix: "sp_dup2",
		Scopes: []string{"read"}, CreatedAt: now, UpdatedAt: now,
	}
	err := s.CreateAPIKey(ctx, key2)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

// --- Analysis Tests ---

func TestAnalysis_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	analysis := newAnalysis()
	require.NoError(t, s.CreateAnalysis(ctx, analysis))

	got, err := s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.ID, got.ID)
	assert.Equal(t, analysis.OwnerID, got.OwnerID)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, "US", got.Market)
	assert.Equal(t, models.AnalysisStatusProcessing, got.Status)
	assert.Nil(t, got.Report)
}

func TestAnalysis_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetAnalysis(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAnalysis_GetJoinsReport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	analysis := newAnalysis()
	require.NoError(t, s.CreateAnalysis(ctx, analysis))

	report := newReport(analysis.ID)
	require.NoError(t, s.CreateReport(ctx, report))
	require.NoError(t, s.UpdateAnalysisStatus(ctx, analysis.ID, models.AnalysisStatusCompleted))

	got, err := s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusCompleted, got.Status)
	require.NotNil(t, got.Report)
	assert.Equal(t, report.ID, got.Report.ID)
	assert.Equal(t, models.RecommendationBuy, got.Report.Recommendation)
	assert.Len(t, got.Report.Signals, 2)
	require.Len(t, got.Report.ChartData, 2)
	assert.Equal(t, "2026-08-30", got.Report.ChartData[0].Time)
	assert.InDelta(t, 101.5, got.Report.ChartData[0].Value, 0.001)
}

func TestAnalysis_UpdateStatusProcessingToCompleted(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	analysis := newAnalysis()
	require.NoError(t, s.CreateAnalysis(ctx, analysis))

	err := s.UpdateAnalysisStatus(ctx, analysis.ID, models.AnalysisStatusCompleted)
	require.NoError(t, err)

	got, err := s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusCompleted, got.Status)
}

func TestAnalysis_UpdateStatusProcessingToFailed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	analysis := newAnalysis()
	require.NoError(t, s.CreateAnalysis(ctx, analysis))

	err := s.UpdateAnalysisStatus(ctx, analysis.ID, models.AnalysisStatusFailed)
	require.NoError(t, err)

	got, err := s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, got.Status)
}

func TestAnalysis_TerminalStatusIsAbsorbing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	analysis := newAnalysis()
	require.NoError(t, s.CreateAnalysis(ctx, analysis))
	require.NoError(t, s.UpdateAnalysisStatus(ctx, analysis.ID, models.AnalysisStatusCompleted))

	// completed -> failed must not happen
	err := s.UpdateAnalysisStatus(ctx, analysis.ID, models.AnalysisStatusFailed)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	// completed -> processing must not happen either
	err = s.UpdateAnalysisStatus(ctx, analysis.ID, models.AnalysisStatusProcessing)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	got, err := s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusCompleted, got.Status)
}

func TestAnalysis_UpdateStatusNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.UpdateAnalysisStatus(context.Background(), uuid.New(), models.AnalysisStatusCompleted)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- Report Tests ---

func TestReport_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	analysis := newAnalysis()
	require.NoError(t, s.CreateAnalysis(ctx, analysis))

	report := newReport(analysis.ID)
	require.NoError(t, s.CreateReport(ctx, report))

	got, err := s.GetReportByAnalysisID(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.Summary, got.Summary)
}

func TestReport_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetReportByAnalysisID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReport_OnePerAnalysis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	analysis := newAnalysis()
	require.NoError(t, s.CreateAnalysis(ctx, analysis))
	require.NoError(t, s.CreateReport(ctx, newReport(analysis.ID)))

	// A second report for the same analysis loses on the unique index.
	err := s.CreateReport(ctx, newReport(analysis.ID))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

// --- Ping Test ---

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.Ping(context.Background())
	assert.NoError(t, err)
}
