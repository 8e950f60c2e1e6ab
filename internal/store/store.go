package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid status transition")

// Store is the data access interface. All database operations go through here.
//
// The backing connection uses service-level credentials: writes performed on
// behalf of the analysis worker are never scoped to the requesting principal,
// so a stream opened by an anonymous or differently-scoped caller can still
// drive an analysis to its terminal state.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error

	CreateAnalysis(ctx context.Context, analysis *models.Analysis) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status string) error

	CreateReport(ctx context.Context, report *models.Report) error
	GetReportByAnalysisID(ctx context.Context, analysisID uuid.UUID) (*models.Report, error)
}
