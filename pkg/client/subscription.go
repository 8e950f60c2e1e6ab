package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/pkg/models"
)

// Event is one message from an analysis progress stream.
type Event struct {
	Status   string             `json:"status,omitempty"`
	Progress int                `json:"progress,omitempty"`
	Message  string             `json:"message,omitempty"`
	Data     *models.ReportData `json:"data,omitempty"`
	Error    string             `json:"error,omitempty"`
	Code     int                `json:"code,omitempty"`
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	return e.Status == models.AnalysisStatusCompleted ||
		e.Status == models.AnalysisStatusFailed ||
		(e.Status == "" && e.Error != "")
}

// Subscribe attaches to the progress stream for id and patches cache as
// events arrive. It only opens the stream while the cached entry is still
// processing; an entry already terminal, or absent, needs no subscription.
//
// Progress events update the entry last-write-wins. A terminal completed
// event pins progress to 100 and, when the event carries report data,
// stores a report snapshot in the cache; a terminal failed event patches
// the status only. After any terminal event the stream is closed and not
// reopened. A transport error also closes the stream without retry; the
// caller decides whether to re-fetch and resubscribe.
//
// onEvent, when non-nil, observes every decoded event before it is applied.
func (c *Client) Subscribe(ctx context.Context, cache *AnalysisCache, id uuid.UUID, onEvent func(Event)) error {
	entry, ok := cache.Get(id)
	if !ok || entry.Analysis.Status != models.AnalysisStatusProcessing {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/analyses/%s/stream", c.baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	c.setAuth(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("opening stream: unexpected status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		payload, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}
		if onEvent != nil {
			onEvent(ev)
		}

		c.apply(cache, id, ev)
		if ev.Terminal() {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	// Server closed the stream without a terminal event; treat it like a
	// transport error.
	return errors.New("reading stream: closed before terminal event")
}

func (c *Client) apply(cache *AnalysisCache, id uuid.UUID, ev Event) {
	switch {
	case ev.Status == models.AnalysisStatusProcessing:
		cache.Apply(id, Patch{Progress: ev.Progress, Message: ev.Message})

	case ev.Status == models.AnalysisStatusCompleted:
		p := Patch{Status: models.AnalysisStatusCompleted, Progress: 100}
		if ev.Data != nil {
			p.Report = reportFromData(id, *ev.Data)
		}
		cache.Apply(id, p)

	case ev.Status == models.AnalysisStatusFailed:
		cache.Apply(id, Patch{Status: models.AnalysisStatusFailed, Err: ev.Error})

	case ev.Error != "":
		cache.Apply(id, Patch{Err: ev.Error})
	}
}

// reportFromData builds a local report snapshot from streamed report data.
// The server assigns the real report id and timestamp; a later joined read
// replaces this snapshot with the persisted row.
func reportFromData(analysisID uuid.UUID, data models.ReportData) *models.Report {
	return &models.Report{
		ID:             uuid.Nil,
		AnalysisID:     analysisID,
		Summary:        data.Summary,
		Recommendation: data.Recommendation,
		Signals:        data.Signals,
		ChartData:      data.ChartData,
		CreatedAt:      time.Now().UTC(),
	}
}
