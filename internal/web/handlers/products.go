package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/productvision/catalog/internal/catalog"
	"github.com/productvision/catalog/internal/similarity"
)

// ProductsHandler handles product document endpoints.
type ProductsHandler struct {
	store    *catalog.Store
	resolver *catalog.Resolver
	cache    similarity.FeatureCache
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(store *catalog.Store, resolver *catalog.Resolver, cache similarity.FeatureCache) *ProductsHandler {
	return &ProductsHandler{
		store:    store,
		resolver: resolver,
		cache:    cache,
	}
}

// ProductSummary is the list-view projection of a product document.
type ProductSummary struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Price       string `json:"price,omitempty"`
	Image       string `json:"image,omitempty"`
}

// List returns a summary of every product in the catalog.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	summaries := make([]ProductSummary, 0, len(ids))
	for _, id := range ids {
		rec, err := h.store.Read(id)
		if err != nil {
			log.Printf("products: skipping unreadable document %s: %v", sanitizeForLog(id), err)
			continue
		}
		summaries = append(summaries, ProductSummary{
			ProductID:   id,
			ProductName: rec.DisplayName(),
			Category:    rec.Category,
			Price:       rec.Price,
			Image:       rec.Image,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"products": summaries,
		"count":    len(summaries),
	})
}

// Get returns the full product document.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	respondJSON(w, http.StatusOK, rec)
}

// Delete removes a product document and its cached features.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	if err := h.cache.Invalidate(id); err != nil {
		log.Printf("products: failed to invalidate features for %s: %v", sanitizeForLog(id), err)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"deleted": id,
	})
}

// Image serves the resolved product image file.
func (h *ProductsHandler) Image(w http.ResponseWriter, r *http.Request) {
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

	path, err := h.resolver.Resolve(rec, false)
	if err != nil {
		respondError(w, http.StatusNotFound, "product has no image")
		return
	}

	http.ServeFile(w, r, path)
}
