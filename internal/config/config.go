package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the stockpulse server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	StageDelay       time.Duration
	Mock             MockConfig
	ZAI              ZAIConfig
}

type MockConfig struct {
	ChartDays int
}

type ZAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

var validProviders = map[string]bool{
	"mock": true,
	"zai":  true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("STOCKPULSE_PORT", 8080),
			Env:  envString("STOCKPULSE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "mock"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			StageDelay:       envDurationMillis("MOCK_STAGE_DELAY_MS", time.Second),
			Mock: MockConfig{
				ChartDays: envInt("MOCK_CHART_DAYS", 30),
			},
			ZAI: ZAIConfig{
				APIKey:  os.Getenv("ZAI_API_KEY"),
				BaseURL: envString("ZAI_BASE_URL", "https://open.bigmodel.cn/api/paas/v4"),
				Model:   envString("ZAI_MODEL", "glm-4-flash"),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of mock, zai; got %q", c.AI.Provider)
	}

	if c.AI.Provider == "zai" {
		if c.AI.ZAI.APIKey == "" {
			return fmt.Errorf("ZAI_API_KEY is required when AI_PROVIDER is zai")
		}
		if !strings.HasPrefix(c.AI.ZAI.BaseURL, "http://") && !strings.HasPrefix(c.AI.ZAI.BaseURL, "https://") {
			return fmt.Errorf("ZAI_BASE_URL must start with http:// or https://, got %q", c.AI.ZAI.BaseURL)
		}
	}

	if c.AI.Mock.ChartDays <= 0 {
		return fmt.Errorf("MOCK_CHART_DAYS must be positive; got %d", c.AI.Mock.ChartDays)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func envDurationMillis(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}
