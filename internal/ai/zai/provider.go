// Package zai implements models.ReportProvider against the Z.AI (GLM)
// OpenAI-compatible chat completions API.
package zai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/joonhokim/stockpulse/internal/ai/aierrors"
	"github.com/joonhokim/stockpulse/internal/config"
	"github.com/joonhokim/stockpulse/pkg/models"
)

const systemPrompt = "You are a professional stock analyst. Respond ONLY with valid JSON."

// Provider implements models.ReportProvider using the Z.AI HTTP API.
type Provider struct {
	cfg    config.ZAIConfig
	client *http.Client
}

// NewProvider creates a new Z.AI provider.
func NewProvider(cfg config.ZAIConfig, timeout time.Duration) *Provider {
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Name() string { return "zai" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *Provider) GenerateReport(ctx context.Context, ticker, market string) (models.ReportData, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(ticker, market)},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return models.ReportData{}, fmt.Errorf("encoding request: %w", err)
	}

	u := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return models.ReportData{}, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return models.ReportData{}, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ReportData{}, fmt.Errorf("%w: status %d", aierrors.ErrProviderUnavailable, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return models.ReportData{}, fmt.Errorf("%w: %v", aierrors.ErrInvalidResponse, err)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return models.ReportData{}, fmt.Errorf("%w: empty completion", aierrors.ErrInvalidResponse)
	}

	data, err := parseReport(chatResp.Choices[0].Message.Content)
	if err != nil {
		return models.ReportData{}, err
	}
	return data, nil
}

func buildPrompt(ticker, market string) string {
	return fmt.Sprintf(`Analyze the stock %q on the %s market. Return a JSON object with:
- "summary": a short analyst summary
- "recommendation": one of "BUY", "SELL", "HOLD"
- "signals": an array of short textual findings
- "chartData": an array of 30 consecutive daily {"time": "YYYY-MM-DD", "value": <number>} points in chronological order`,
		ticker, market)
}

// parseReport decodes the model completion into a strictly-typed ReportData,
// stripping markdown code fences the model sometimes wraps JSON in.
func parseReport(content string) (models.ReportData, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var data models.ReportData
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return models.ReportData{}, fmt.Errorf("%w: %v", aierrors.ErrInvalidResponse, err)
	}
	if err := data.Validate(); err != nil {
		return models.ReportData{}, fmt.Errorf("%w: %v", aierrors.ErrInvalidResponse, err)
	}
	return data, nil
}

// classifyError maps transport errors to the provider error taxonomy.
func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", aierrors.ErrInferenceTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", aierrors.ErrInferenceTimeout, err)
	}
	return fmt.Errorf("%w: %v", aierrors.ErrProviderUnavailable, err)
}

var _ models.ReportProvider = (*Provider)(nil)
