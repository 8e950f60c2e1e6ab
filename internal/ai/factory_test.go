package ai_test

import (
	"testing"
	"time"

	"github.com/joonhokim/stockpulse/internal/ai"
	"github.com/joonhokim/stockpulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Mock(t *testing.T) {
	cfg := config.AIConfig{
		Provider: "mock",
		Mock:     config.MockConfig{ChartDays: 30},
	}
	p, err := ai.NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestNewProvider_ZAI(t *testing.T) {
	cfg := config.AIConfig{
		Provider:         "zai",
		InferenceTimeout: 60 * time.Second,
		ZAI: config.ZAIConfig{
			APIKey:  "test-key",
			BaseURL: "https://open.bigmodel.cn/api/paas/v4",
			Model:   "glm-4-flash",
		},
	}
	p, err := ai.NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "zai", p.Name())
}

func TestNewProvider_Unknown(t *testing.T) {
	cfg := config.AIConfig{Provider: "unknown-provider"}
	_, err := ai.NewProvider(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown AI provider")
	assert.Contains(t, err.Error(), "unknown-provider")
}

func TestNewProvider_Empty(t *testing.T) {
	cfg := config.AIConfig{Provider: ""}
	_, err := ai.NewProvider(cfg)
	require.Error(t, err)
}
