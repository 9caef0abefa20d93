package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/productvision/catalog/internal/similarity"
)

// SimilarHandler handles similarity scan endpoints.
type SimilarHandler struct {
	scanner *similarity.Scanner
}

// NewSimilarHandler creates a new similar-products handler.
func NewSimilarHandler(scanner *similarity.Scanner) *SimilarHandler {
	return &SimilarHandler{scanner: scanner}
}

// Find returns catalog products similar to the given one. Query parameters
// threshold, max_results and debug override the scan defaults. The response
// is always 200; degraded modes yield an empty list.
func (h *SimilarHandler) Find(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	threshold := queryFloat(r, "threshold", similarity.DefaultSimilarThreshold)
	maxResults := queryInt(r, "max_results", similarity.DefaultSimilarMaxResults)
	debug := r.URL.Query().Get("debug") == "true"

	results := h.scanner.FindSimilar(r.Context(), id, threshold, maxResults, debug)
	if results == nil {
		results = []similarity.Result{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"product_id":       id,
		"similar_products": results,
		"count":            len(results),
	})
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
