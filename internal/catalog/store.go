package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound signals a product document that does not exist. Absence is a
// normal outcome for most callers, not a failure.
var ErrNotFound = errors.New("product not found")

// Store is the flat-file product store: one JSON document per product, named
// by ID. There are no transactional guarantees across documents.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory holding the product documents.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the document path for a product ID.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func validateID(id string) error {
	if id == "" || filepath.Base(id) != id {
		return fmt.Errorf("invalid product id: %q", id)
	}
	return nil
}

func (s *Store) Read(id string) (*ProductRecord, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading product %s: %w", id, err)
	}

	var rec ProductRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing product %s: %w", id, err)
	}
	return &rec, nil
}

// Write persists a product document, creating the store directory on first
// use. The canonical image field is normalized from the legacy reference
// fields so readers never have to walk the historical priority chain again.
func (s *Store) Write(id string, rec *ProductRecord) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	rec.ProductID = id
	normalizeImage(rec)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding product %s: %w", id, err)
	}
	if err := os.WriteFile(s.Path(id), data, 0o644); err != nil {
		return fmt.Errorf("writing product %s: %w", id, err)
	}
	return nil
}

func (s *Store) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.Remove(s.Path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	return nil
}

// List returns all product IDs in the store. Order follows the directory
// listing and carries no meaning.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing store: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// Count returns the number of product documents in the store.
func (s *Store) Count() int {
	ids, err := s.List()
	if err != nil {
		return 0
	}
	return len(ids)
}

// normalizeImage fills the canonical image field from the first legacy
// reference, reduced to a bare filename.
func normalizeImage(rec *ProductRecord) {
	if rec.Image != "" {
		rec.Image = filepath.Base(rec.Image)
		return
	}
	for _, refs := range [][]string{rec.RawImages, rec.Images, rec.ImagePaths, rec.ImageURLs} {
		if len(refs) > 0 && refs[0] != "" {
			rec.Image = filepath.Base(refs[0])
			return
		}
	}
}
