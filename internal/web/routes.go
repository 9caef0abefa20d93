package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/productvision/catalog/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	productsHandler := handlers.NewProductsHandler(s.store, s.resolver, s.cache)
	uploadHandler := handlers.NewUploadHandler(s.store, s.scanner, s.config.Catalog.ImageDir)
	similarHandler := handlers.NewSimilarHandler(s.scanner)
	featuresHandler := handlers.NewFeaturesHandler(s.store, s.resolver, s.extractor, s.cache)
	warmHandler := handlers.NewWarmHandler(s.store, s.resolver, s.extractor, s.jobManager)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Products
		r.Get("/products", productsHandler.List)
		r.Post("/products", uploadHandler.Create)
		r.Get("/products/{id}", productsHandler.Get)
		r.Delete("/products/{id}", productsHandler.Delete)
		r.Get("/products/{id}/image", productsHandler.Image)

		// Similarity
		r.Get("/products/{id}/similar", similarHandler.Find)

		// Feature cache
		r.Get("/products/{id}/features", featuresHandler.Get)
		r.Delete("/products/{id}/features", featuresHandler.Invalidate)

		// Cache warming (long-running)
		r.Post("/features/warm", warmHandler.Start)
		r.Get("/features/warm/{jobId}", warmHandler.Status)
	})
}
