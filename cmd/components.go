package cmd

import (
	"github.com/productvision/catalog/internal/ai"
	"github.com/productvision/catalog/internal/catalog"
	"github.com/productvision/catalog/internal/config"
	"github.com/productvision/catalog/internal/similarity"
)

// catalogComponents bundles the wiring shared by the CLI commands.
type catalogComponents struct {
	store     *catalog.Store
	resolver  *catalog.Resolver
	cache     similarity.FeatureCache
	extractor *similarity.Extractor
	scanner   *similarity.Scanner
}

func buildComponents(cfg *config.Config, provider ai.Provider) *catalogComponents {
	store := catalog.NewStore(cfg.Catalog.Dir)
	resolver := catalog.NewResolver(cfg.Catalog.ImageDir)
	cache := similarity.NewFileCache(cfg.Catalog.FeatureDir)
	extractor := similarity.NewExtractor(provider, cache, store)

	return &catalogComponents{
		store:     store,
		resolver:  resolver,
		cache:     cache,
		extractor: extractor,
		scanner:   similarity.NewScanner(store, resolver, extractor, similarity.NewScorer(store)),
	}
}
