// Package handler contains the HTTP handlers for the stockpulse API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	mw "github.com/joonhokim/stockpulse/internal/api/middleware"
	"github.com/joonhokim/stockpulse/internal/api/response"
	"github.com/joonhokim/stockpulse/pkg/models"
)

// AnalysisCreator defines the creation operation the handler depends on.
type AnalysisCreator interface {
	CreateAnalysis(ctx context.Context, ownerID uuid.UUID, ticker, market string) (*models.Analysis, error)
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
// On success it inserts a processing analysis and returns its id; the caller
// then opens the stream endpoint to drive and observe the run.
func NewAnalyzeHandler(svc AnalysisCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := mw.GetPrincipal(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized,
				response.CodeUnauthenticated, "Authentication required")
			return
		}

		var req struct {
			Ticker string `json:"ticker"`
			Market string `json:"market"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				response.CodeValidation, "Invalid JSON body")
			return
		}

		// Surface the first violation only.
		if req.Ticker == "" {
			response.Error(w, http.StatusBadRequest,
				response.CodeValidation, "ticker is required")
			return
		}
		if req.Market == "" {
			req.Market = "US"
		}

		analysis, err := svc.CreateAnalysis(r.Context(), principal.ID, req.Ticker, req.Market)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				response.CodeInternal, "A database error occurred")
			return
		}

		response.Created(w, map[string]any{"id": analysis.ID})
	}
}
