package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/pkg/client"
	"github.com/joonhokim/stockpulse/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseServer serves the given frames on the stream endpoint.
func sseServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/stream")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}))
}

func seededCache(id uuid.UUID, status string) *client.AnalysisCache {
	cache := client.NewAnalysisCache()
	cache.Put(models.Analysis{
		ID:     id,
		Ticker: "AAPL",
		Market: "US",
		Status: status,
	})
	return cache
}

func TestSubscribe_ProgressThenCompleted(t *testing.T) {
	id := uuid.New()
	srv := sseServer(t,
		`{"status": "processing", "progress": 10, "message": "Initializing AI..."}`,
		`{"status": "processing", "progress": 40, "message": "Analyzing market data..."}`,
		`{"status": "processing", "progress": 80, "message": "Generating report..."}`,
		`{"status": "completed", "data": {"summary": "Looks strong.", "recommendation": "BUY", "signals": ["Golden cross imminent"], "chartData": [{"time": "2026-08-31", "value": 101.5}]}}`,
	)
	defer srv.Close()

	cache := seededCache(id, models.AnalysisStatusProcessing)

	var seen []client.Event
	err := client.New(srv.URL).Subscribe(context.Background(), cache, id, func(ev client.Event) {
		seen = append(seen, ev)
	})
	require.NoError(t, err)
	require.Len(t, seen, 4)

	entry, ok := cache.Get(id)
	require.True(t, ok)
	assert.Equal(t, models.AnalysisStatusCompleted, entry.Analysis.Status)
	assert.Equal(t, 100, entry.Progress, "terminal completion pins progress to 100")
	require.NotNil(t, entry.Analysis.Report)
	assert.Equal(t, models.RecommendationBuy, entry.Analysis.Report.Recommendation)
	assert.Equal(t, id, entry.Analysis.Report.AnalysisID)
	assert.Equal(t, "Looks strong.", entry.Analysis.Report.Summary)
}

func TestSubscribe_ProgressLastWriteWins(t *testing.T) {
	id := uuid.New()
	srv := sseServer(t,
		`{"status": "processing", "progress": 10, "message": "Initializing AI..."}`,
		`{"status": "processing", "progress": 40, "message": "Analyzing market data..."}`,
	)
	defer srv.Close()

	cache := seededCache(id, models.AnalysisStatusProcessing)

	// Stream ends without a terminal event; the patches still landed.
	err := client.New(srv.URL).Subscribe(context.Background(), cache, id, nil)
	require.Error(t, err)

	entry, _ := cache.Get(id)
	assert.Equal(t, 40, entry.Progress)
	assert.Equal(t, "Analyzing market data...", entry.Message)
	assert.Equal(t, models.AnalysisStatusProcessing, entry.Analysis.Status)
}

func TestSubscribe_Failed(t *testing.T) {
	id := uuid.New()
	srv := sseServer(t,
		`{"status": "processing", "progress": 10, "message": "Initializing AI..."}`,
		`{"status": "failed", "error": "provider unavailable", "code": 50200}`,
	)
	defer srv.Close()

	cache := seededCache(id, models.AnalysisStatusProcessing)
	err := client.New(srv.URL).Subscribe(context.Background(), cache, id, nil)
	require.NoError(t, err)

	entry, _ := cache.Get(id)
	assert.Equal(t, models.AnalysisStatusFailed, entry.Analysis.Status)
	assert.Equal(t, "provider unavailable", entry.Err)
	assert.Nil(t, entry.Analysis.Report, "a failed analysis never gains a report")
}

func TestSubscribe_AlreadyCompletedShortCircuit(t *testing.T) {
	id := uuid.New()
	srv := sseServer(t, `{"status": "completed", "message": "Analysis already completed"}`)
	defer srv.Close()

	cache := seededCache(id, models.AnalysisStatusProcessing)
	err := client.New(srv.URL).Subscribe(context.Background(), cache, id, nil)
	require.NoError(t, err)

	entry, _ := cache.Get(id)
	assert.Equal(t, models.AnalysisStatusCompleted, entry.Analysis.Status)
	assert.Equal(t, 100, entry.Progress)
	assert.Nil(t, entry.Analysis.Report, "no data frame means no local report snapshot")
}

func TestSubscribe_NotFoundEvent(t *testing.T) {
	id := uuid.New()
	srv := sseServer(t, `{"error": "Analysis not found"}`)
	defer srv.Close()

	cache := seededCache(id, models.AnalysisStatusProcessing)
	err := client.New(srv.URL).Subscribe(context.Background(), cache, id, nil)
	require.NoError(t, err)

	entry, _ := cache.Get(id)
	assert.Equal(t, "Analysis not found", entry.Err)
}

func TestSubscribe_SkipsTerminalEntries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls++
	}))
	defer srv.Close()

	id := uuid.New()
	cache := seededCache(id, models.AnalysisStatusCompleted)

	err := client.New(srv.URL).Subscribe(context.Background(), cache, id, nil)
	require.NoError(t, err)
	assert.Zero(t, calls, "a terminal entry never opens a stream")
}

func TestSubscribe_SkipsUnknownEntries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls++
	}))
	defer srv.Close()

	err := client.New(srv.URL).Subscribe(context.Background(), client.NewAnalysisCache(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestSubscribe_TransportErrorNoRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	id := uuid.New()
	cache := seededCache(id, models.AnalysisStatusProcessing)

	err := client.New(srv.URL).Subscribe(context.Background(), cache, id, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "no automatic reconnect")

	// The cached entry is untouched; the caller decides what to do next.
	entry, _ := cache.Get(id)
	assert.Equal(t, models.AnalysisStatusProcessing, entry.Analysis.Status)
}

func TestSubscribe_ContextCancelled(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	cache := seededCache(id, models.AnalysisStatusProcessing)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.New(srv.URL).Subscribe(ctx, cache, id, nil)
	require.Error(t, err)
}

// --- cache ---

func TestAnalysisCache_ApplyUnknownIDIsNoop(t *testing.T) {
	cache := client.NewAnalysisCache()
	cache.Apply(uuid.New(), client.Patch{Status: models.AnalysisStatusCompleted})

	_, ok := cache.Get(uuid.New())
	assert.False(t, ok)
}

func TestAnalysisCache_PutResetsProgress(t *testing.T) {
	id := uuid.New()
	cache := seededCache(id, models.AnalysisStatusProcessing)
	cache.Apply(id, client.Patch{Progress: 40, Message: "Analyzing market data..."})

	cache.Put(models.Analysis{ID: id, Ticker: "AAPL", Status: models.AnalysisStatusProcessing})

	entry, _ := cache.Get(id)
	assert.Zero(t, entry.Progress)
	assert.Empty(t, entry.Message)
}

func TestAnalysisCache_Delete(t *testing.T) {
	id := uuid.New()
	cache := seededCache(id, models.AnalysisStatusProcessing)
	cache.Delete(id)

	_, ok := cache.Get(id)
	assert.False(t, ok)
}

// --- view composition ---

func TestComposeView_Unknown(t *testing.T) {
	v := client.ComposeView(client.NewAnalysisCache(), uuid.New())
	assert.Equal(t, client.ViewUnknown, v.State)
}

func TestComposeView_Initializing(t *testing.T) {
	id := uuid.New()
	cache := seededCache(id, models.AnalysisStatusProcessing)

	v := client.ComposeView(cache, id)
	assert.Equal(t, client.ViewInitializing, v.State)
	assert.Equal(t, "AAPL", v.Ticker)
}

func TestComposeView_Processing(t *testing.T) {
	id := uuid.New()
	cache := seededCache(id, models.AnalysisStatusProcessing)
	cache.Apply(id, client.Patch{Progress: 40, Message: "Analyzing market data..."})

	v := client.ComposeView(cache, id)
	assert.Equal(t, client.ViewProcessing, v.State)
	assert.Equal(t, 40, v.Progress)
	assert.Equal(t, "Analyzing market data...", v.Message)
}

func TestComposeView_Completed(t *testing.T) {
	id := uuid.New()
	cache := seededCache(id, models.AnalysisStatusProcessing)
	report := &models.Report{ID: uuid.New(), AnalysisID: id, Recommendation: models.RecommendationBuy}
	cache.Apply(id, client.Patch{Status: models.AnalysisStatusCompleted, Progress: 100, Report: report})

	v := client.ComposeView(cache, id)
	assert.Equal(t, client.ViewCompleted, v.State)
	assert.Equal(t, 100, v.Progress)
	require.NotNil(t, v.Report)
	assert.Equal(t, models.RecommendationBuy, v.Report.Recommendation)
}

func TestComposeView_Failed(t *testing.T) {
	id := uuid.New()
	cache := seededCache(id, models.AnalysisStatusProcessing)
	cache.Apply(id, client.Patch{Status: models.AnalysisStatusFailed, Err: "provider unavailable"})

	v := client.ComposeView(cache, id)
	assert.Equal(t, client.ViewFailed, v.State)
	assert.Equal(t, "provider unavailable", v.Err)
	assert.Nil(t, v.Report)
}

func TestComposeView_StreamErrorWhileProcessing(t *testing.T) {
	id := uuid.New()
	cache := seededCache(id, models.AnalysisStatusProcessing)
	cache.Apply(id, client.Patch{Err: "Analysis not found"})

	v := client.ComposeView(cache, id)
	assert.Equal(t, client.ViewFailed, v.State)
}
