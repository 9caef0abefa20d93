package catalog

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoImage signals that no usable local image exists for a product. Many
// products legitimately lack one, so callers skip rather than fail.
var ErrNoImage = errors.New("no usable product image")

// Resolver finds the best candidate image file on disk for a product,
// tolerating every historical shape of image reference. Read-only.
type Resolver struct {
	imageDir string
}

func NewResolver(imageDir string) *Resolver {
	return &Resolver{imageDir: imageDir}
}

// Resolve returns an existing image path for the product, or ErrNoImage.
// Candidates are tried in priority order: the canonical image field, then the
// legacy reference fields, then any unmodeled field whose key mentions
// "image", then a directory scan for files prefixed by the product ID.
func (r *Resolver) Resolve(rec *ProductRecord, debug bool) (string, error) {
	for _, candidate := range r.candidates(rec, debug) {
		if path, ok := r.locate(candidate, debug); ok {
			return path, nil
		}
	}

	if path, ok := r.scanByPrefix(rec.ProductID, debug); ok {
		return path, nil
	}

	if debug {
		log.Printf("resolver: no usable image for product %s", rec.ProductID)
	}
	return "", ErrNoImage
}

func (r *Resolver) candidates(rec *ProductRecord, debug bool) []string {
	var out []string
	add := func(source, value string) {
		if value == "" {
			return
		}
		if debug {
			log.Printf("resolver: candidate from %s: %s", source, value)
		}
		out = append(out, value)
	}

	add("image", rec.Image)
	if len(rec.RawImages) > 0 {
		add("raw_images", rec.RawImages[0])
	}
	if len(rec.Images) > 0 {
		add("images", rec.Images[0])
	}
	if len(rec.ImagePaths) > 0 {
		add("image_paths", rec.ImagePaths[0])
	}
	if len(rec.ImageURLs) > 0 {
		add("image_urls", filepath.Base(rec.ImageURLs[0]))
	}

	// Last-chance pass over unmodeled fields from older schema variants.
	for key, raw := range rec.Extra {
		if !strings.Contains(strings.ToLower(key), "image") {
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			add(key, list[0])
			continue
		}
		var scalar string
		if err := json.Unmarshal(raw, &scalar); err == nil {
			add(key, scalar)
		}
	}

	return out
}

// locate post-processes one candidate reference into an existing file path.
// Bare filenames are looked up in the image directory; stale absolute or
// relative paths from older records are retried by basename.
func (r *Resolver) locate(candidate string, debug bool) (string, bool) {
	path := candidate
	if !strings.ContainsRune(path, os.PathSeparator) && !strings.Contains(path, "/") {
		path = filepath.Join(r.imageDir, path)
	}

	if fileExists(path) {
		return path, true
	}

	alt := filepath.Join(r.imageDir, filepath.Base(candidate))
	if alt != path && fileExists(alt) {
		if debug {
			log.Printf("resolver: %s missing, using %s", path, alt)
		}
		return alt, true
	}

	if debug {
		log.Printf("resolver: candidate %s does not exist", candidate)
	}
	return "", false
}

// scanByPrefix looks for any file in the image directory whose name starts
// with the product ID.
func (r *Resolver) scanByPrefix(productID string, debug bool) (string, bool) {
	if productID == "" {
		return "", false
	}

	entries, err := os.ReadDir(r.imageDir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), productID) {
			continue
		}
		path := filepath.Join(r.imageDir, entry.Name())
		if debug {
			log.Printf("resolver: matched %s by product ID prefix", path)
		}
		return path, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
