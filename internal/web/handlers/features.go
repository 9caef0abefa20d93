package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/productvision/catalog/internal/catalog"
	"github.com/productvision/catalog/internal/similarity"
)

// FeaturesHandler exposes the feature cache for a single product.
type FeaturesHandler struct {
	store     *catalog.Store
	resolver  *catalog.Resolver
	extractor *similarity.Extractor
	cache     similarity.FeatureCache
}

// NewFeaturesHandler creates a new features handler.
func NewFeaturesHandler(store *catalog.Store, resolver *catalog.Resolver, extractor *similarity.Extractor, cache similarity.FeatureCache) *FeaturesHandler {
	return &FeaturesHandler{
		store:     store,
		resolver:  resolver,
		extractor: extractor,
		cache:     cache,
	}
}

// Get returns the feature record for a product, extracting it through the
// vision provider on a cache miss. The result carries a cached flag so
// callers can tell a fresh extraction from a cache hit.
func (h *FeaturesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.Read(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to read product")
		return
	}

	if features, ok := h.cache.Get(id); ok {
		respondJSON(w, http.StatusOK, map[string]any{
			"product_id": id,
			"features":   features,
			"cached":     true,
		})
		return
	}

	imagePath, err := h.resolver.Resolve(rec, false)
	if err != nil {
		respondError(w, http.StatusNotFound, "product has no image")
		return
	}

	features := h.extractor.Extract(r.Context(), imagePath, id)
	respondJSON(w, http.StatusOK, map[string]any{
		"product_id": id,
		"features":   features,
		"cached":     false,
	})
}

// Invalidate drops the cached features so the next extraction hits the
// vision provider again.
func (h *FeaturesHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.cache.Invalidate(id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to invalidate features")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"invalidated": id,
	})
}
