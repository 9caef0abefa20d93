package similarity

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/productvision/catalog/internal/ai"
	"github.com/productvision/catalog/internal/catalog"
)

// mockProvider returns queued feature records in call order.
type mockProvider struct {
	queue []*ai.ProductFeatures
	err   error
	calls int
	usage ai.Usage
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) ExtractFeatures(_ context.Context, _ []byte) (*ai.ProductFeatures, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) == 0 {
		return nil, errors.New("mock queue exhausted")
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	return next, nil
}

func (m *mockProvider) GetUsage() *ai.Usage { return &m.usage }
func (m *mockProvider) ResetUsage()         { m.usage = ai.Usage{} }

// writeTestJPEG writes a small valid JPEG so extraction can decode it.
func writeTestJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := range 16 {
		for y := range 16 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// testEnv wires a store, image dir, cache and extractor around a provider.
type testEnv struct {
	store    *catalog.Store
	resolver *catalog.Resolver
	cache    *FileCache
	imageDir string
}

func newTestEnv(t *testing.T, provider ai.Provider) (*testEnv, *Scanner) {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		store:    catalog.NewStore(filepath.Join(root, "response")),
		imageDir: filepath.Join(root, "raw"),
		cache:    NewFileCache(filepath.Join(root, "features")),
	}
	env.resolver = catalog.NewResolver(env.imageDir)
	extractor := NewExtractor(provider, env.cache, env.store)
	scanner := NewScanner(env.store, env.resolver, extractor, NewScorer(env.store))
	return env, scanner
}

// addProduct writes a product document, its image, and cached features.
func (e *testEnv) addProduct(t *testing.T, id string, rec catalog.ProductRecord, features *ai.ProductFeatures) {
	t.Helper()
	rec.RawImages = []string{id + ".jpg"}
	if err := e.store.Write(id, &rec); err != nil {
		t.Fatal(err)
	}
	writeTestJPEG(t, filepath.Join(e.imageDir, id+".jpg"))
	if features != nil {
		if err := e.cache.Put(id, features); err != nil {
			t.Fatal(err)
		}
	}
}

func shoeFeatures() *ai.ProductFeatures {
	return &ai.ProductFeatures{
		Colors:              []string{"red", "black"},
		ProductType:         "men's running shoe",
		Materials:           []string{"mesh"},
		Style:               []string{"sporty"},
		DistinctiveElements: []string{"white sole"},
	}
}
