package ai

import (
	"fmt"

	"github.com/joonhokim/stockpulse/internal/ai/mock"
	"github.com/joonhokim/stockpulse/internal/ai/zai"
	"github.com/joonhokim/stockpulse/internal/config"
	"github.com/joonhokim/stockpulse/pkg/models"
)

// NewProvider constructs the appropriate report provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.ReportProvider, error) {
	switch cfg.Provider {
	case "mock":
		return mock.NewProvider(cfg.Mock), nil
	case "zai":
		return zai.NewProvider(cfg.ZAI, cfg.InferenceTimeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of mock, zai", cfg.Provider)
	}
}
