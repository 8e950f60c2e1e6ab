package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/internal/analysis"
)

// AnalysisRunner defines the worker operation the stream handler depends on.
type AnalysisRunner interface {
	Run(ctx context.Context, id uuid.UUID, emit analysis.EmitFunc)
}

// connState tracks whether this connection's channel is still writable.
// It is owned by a single handler invocation and checked before every write;
// it is never shared across requests.
type connState struct {
	open bool
}

// NewStreamHandler returns an http.HandlerFunc for
// GET /api/v1/analyses/{analysisID}/stream. It binds one worker run to one
// server-sent-events channel: every worker emission becomes one
// `data: <json>\n\n` frame, and the channel closes after the terminal event
// or as soon as the client disconnects. Writing after either is a no-op.
func NewStreamHandler(svc AnalysisRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		state := &connState{open: true}
		send := func(ev analysis.Event) {
			if !state.open || r.Context().Err() != nil {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Error("marshal stream event", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				// Client went away mid-write; stop writing, the worker
				// finishes on its own.
				state.open = false
				return
			}
			flusher.Flush()
			if ev.Terminal() {
				state.open = false
			}
		}

		id, err := uuid.Parse(chi.URLParam(r, "analysisID"))
		if err != nil {
			// An unparseable id cannot name any analysis; same terminal
			// event as an unknown one.
			send(analysis.Event{Error: "Analysis not found"})
			return
		}

		svc.Run(r.Context(), id, send)
		state.open = false
	}
}
