package similarity

import (
	"context"
	"log"

	"github.com/productvision/catalog/internal/ai"
	"github.com/productvision/catalog/internal/catalog"
)

// maxImageSize bounds the payload sent to the vision model.
const maxImageSize = 800

// DefaultFeatures returns the sentinel record used whenever extraction cannot
// run: missing image, unconfigured provider, or any vision call failure.
func DefaultFeatures() *ai.ProductFeatures {
	return &ai.ProductFeatures{
		Colors:              []string{"unknown"},
		ProductType:         "unspecified",
		Materials:           []string{"unknown"},
		Style:               []string{"unknown"},
		DistinctiveElements: []string{"unspecified"},
	}
}

// Extractor turns a product image into a feature record through the vision
// provider, with a durable product-keyed cache in front of it.
type Extractor struct {
	provider ai.Provider
	cache    FeatureCache
	store    *catalog.Store
}

func NewExtractor(provider ai.Provider, cache FeatureCache, store *catalog.Store) *Extractor {
	return &Extractor{
		provider: provider,
		cache:    cache,
		store:    store,
	}
}

// Available reports whether a vision provider is configured. Without one
// every extraction yields the sentinel record and scans return empty.
func (e *Extractor) Available() bool {
	return e.provider != nil
}

// Extract returns the feature record for an image, consulting the cache
// first when a product ID is given and writing back on success. It never
// fails: every error path yields the sentinel record.
func (e *Extractor) Extract(ctx context.Context, imagePath, productID string) *ai.ProductFeatures {
	if productID != "" {
		if features, ok := e.cache.Get(productID); ok {
			return features
		}
		if features := e.migrateLegacy(productID); features != nil {
			return features
		}
	}

	imageData, err := ai.LoadImage(imagePath, maxImageSize)
	if err != nil {
		log.Printf("extractor: cannot load image %s: %v", imagePath, err)
		return DefaultFeatures()
	}

	if !e.Available() {
		return DefaultFeatures()
	}

	features, err := e.provider.ExtractFeatures(ctx, imageData)
	if err != nil {
		log.Printf("extractor: vision call failed for %s: %v", imagePath, err)
		return DefaultFeatures()
	}

	if productID != "" {
		if err := e.cache.Put(productID, features); err != nil {
			log.Printf("extractor: failed to cache features for %s: %v", productID, err)
		}
	}
	return features
}

// migrateLegacy picks up features cached inside a product document by older
// versions and moves them into the dedicated cache.
func (e *Extractor) migrateLegacy(productID string) *ai.ProductFeatures {
	if e.store == nil {
		return nil
	}
	rec, err := e.store.Read(productID)
	if err != nil || rec.ImageFeatures == nil {
		return nil
	}
	if err := e.cache.Put(productID, rec.ImageFeatures); err != nil {
		log.Printf("extractor: failed to migrate legacy features for %s: %v", productID, err)
	}
	return rec.ImageFeatures
}
