// Package mock provides the built-in report provider: deterministic in shape,
// randomized in values. It is both the default server provider and the test
// double for packages that depend on models.ReportProvider.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/joonhokim/stockpulse/internal/config"
	"github.com/joonhokim/stockpulse/pkg/models"
)

// Provider satisfies models.ReportProvider. The zero value delegates to
// GenerateFunc when set; NewProvider installs the default mock behavior.
type Provider struct {
	Name_        string
	GenerateFunc func(ctx context.Context, ticker, market string) (models.ReportData, error)
}

func (p *Provider) Name() string { return p.Name_ }

func (p *Provider) GenerateReport(ctx context.Context, ticker, market string) (models.ReportData, error) {
	if p.GenerateFunc != nil {
		return p.GenerateFunc(ctx, ticker, market)
	}
	return models.ReportData{}, nil
}

// NewProvider returns a Provider producing randomized demo reports: a base
// price between 100 and 150 and cfg.ChartDays consecutive daily points
// ending today.
func NewProvider(cfg config.MockConfig) *Provider {
	return newProvider(cfg.ChartDays, time.Now)
}

func newProvider(days int, now func() time.Time) *Provider {
	return &Provider{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, ticker, _ string) (models.ReportData, error) {
			basePrice := 100 + rand.Float64()*50

			points := make([]models.ChartPoint, days)
			today := now().UTC()
			for i := range points {
				day := today.AddDate(0, 0, -(days - 1 - i))
				points[i] = models.ChartPoint{
					Time:  day.Format("2006-01-02"),
					Value: basePrice + (rand.Float64()*10 - 2) + float64(i),
				}
			}

			return models.ReportData{
				Summary: fmt.Sprintf("AI analysis for %s. Technical indicators and market data "+
					"suggest strong growth potential. Rising volume alongside an attempted "+
					"breakout above key resistance is a positive sign. Mind short-term "+
					"volatility and consider scaling in gradually. (demo data)", ticker),
				Recommendation: models.RecommendationBuy,
				Signals: []string{
					"Golden cross imminent",
					"Improving institutional and foreign inflows",
					"RSI in neutral territory",
				},
				ChartData: points,
			}, nil
		},
	}
}

// NewFailingProvider returns a Provider that always returns the given error.
func NewFailingProvider(err error) *Provider {
	return &Provider{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _, _ string) (models.ReportData, error) {
			return models.ReportData{}, err
		},
	}
}

// NewBlockingProvider returns a Provider that blocks until context is cancelled.
func NewBlockingProvider(err error) *Provider {
	return &Provider{
		Name_: "mock-blocking",
		GenerateFunc: func(ctx context.Context, _, _ string) (models.ReportData, error) {
			<-ctx.Done()
			return models.ReportData{}, err
		},
	}
}

// Compile-time check that Provider implements ReportProvider.
var _ models.ReportProvider = (*Provider)(nil)
