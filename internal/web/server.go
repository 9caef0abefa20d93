package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/productvision/catalog/internal/ai"
	"github.com/productvision/catalog/internal/catalog"
	"github.com/productvision/catalog/internal/config"
	"github.com/productvision/catalog/internal/similarity"
	"github.com/productvision/catalog/internal/web/handlers"
	"github.com/productvision/catalog/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server

	store      *catalog.Store
	resolver   *catalog.Resolver
	cache      similarity.FeatureCache
	extractor  *similarity.Extractor
	scanner    *similarity.Scanner
	jobManager *handlers.JobManager
}

// NewServer creates a new web server. The provider may be nil; the scan
// endpoints then serve empty results and the warm endpoint refuses to start.
func NewServer(cfg *config.Config, port int, host string, provider ai.Provider) *Server {
	r := chi.NewRouter()

	store := catalog.NewStore(cfg.Catalog.Dir)
	resolver := catalog.NewResolver(cfg.Catalog.ImageDir)
	cache := similarity.NewFileCache(cfg.Catalog.FeatureDir)
	extractor := similarity.NewExtractor(provider, cache, store)
	scanner := similarity.NewScanner(store, resolver, extractor, similarity.NewScorer(store))

	s := &Server{
		config:     cfg,
		router:     r,
		store:      store,
		resolver:   resolver,
		cache:      cache,
		extractor:  extractor,
		scanner:    scanner,
		jobManager: handlers.NewJobManager(),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long timeout for uploads and cold scans
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
