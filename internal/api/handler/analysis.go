package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/joonhokim/stockpulse/internal/api/middleware"
	"github.com/joonhokim/stockpulse/internal/api/response"
	"github.com/joonhokim/stockpulse/internal/store"
)

// NewGetAnalysisHandler returns an http.HandlerFunc for
// GET /api/v1/analyses/{analysisID}: the analysis joined with at most one
// report, scoped to its owner.
func NewGetAnalysisHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := mw.GetPrincipal(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized,
				response.CodeUnauthenticated, "Authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "analysisID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				response.CodeValidation, "analysisID must be a valid UUID")
			return
		}

		analysis, err := st.GetAnalysis(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound,
				response.CodeNotFound, "Analysis not found")
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				response.CodeInternal, "A database error occurred")
			return
		}

		// Don't leak other owners' analyses.
		if analysis.OwnerID != principal.ID {
			response.Error(w, http.StatusNotFound,
				response.CodeNotFound, "Analysis not found")
			return
		}

		response.JSON(w, analysis)
	}
}
