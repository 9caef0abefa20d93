package similarity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/productvision/catalog/internal/ai"
)

// FeatureCache stores extracted feature records keyed by product ID, with a
// lifecycle independent of the product documents. Extraction is paid and
// non-deterministic, so a hit must short-circuit the vision call entirely.
type FeatureCache interface {
	Get(productID string) (*ai.ProductFeatures, bool)
	Put(productID string, features *ai.ProductFeatures) error
	Invalidate(productID string) error
}

// FileCache keeps one JSON file per product in its own directory.
// Concurrent writers for different products touch different files and are
// safe; a single product has no locking, matching the store's contract.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(productID string) string {
	return filepath.Join(c.dir, productID+".json")
}

func (c *FileCache) Get(productID string) (*ai.ProductFeatures, bool) {
	if productID == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.path(productID))
	if err != nil {
		return nil, false
	}
	var features ai.ProductFeatures
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, false
	}
	return &features, true
}

func (c *FileCache) Put(productID string, features *ai.ProductFeatures) error {
	if productID == "" {
		return fmt.Errorf("empty product id")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.MarshalIndent(features, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding features for %s: %w", productID, err)
	}
	if err := os.WriteFile(c.path(productID), data, 0o644); err != nil {
		return fmt.Errorf("writing features for %s: %w", productID, err)
	}
	return nil
}

func (c *FileCache) Invalidate(productID string) error {
	if productID == "" {
		return nil
	}
	if err := os.Remove(c.path(productID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("invalidating features for %s: %w", productID, err)
	}
	return nil
}
