package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/productvision/catalog/internal/ai"
	"github.com/productvision/catalog/internal/catalog"
	"github.com/productvision/catalog/internal/similarity"
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

// testComponents wires store, resolver, cache, extractor and scanner around
// temp directories, the same shape the server builds at startup.
type testComponents struct {
	store     *catalog.Store
	resolver  *catalog.Resolver
	cache     *similarity.FileCache
	extractor *similarity.Extractor
	scanner   *similarity.Scanner
	imageDir  string
}

func newTestComponents(t *testing.T, provider ai.Provider) *testComponents {
	t.Helper()
	root := t.TempDir()

	c := &testComponents{
		store:    catalog.NewStore(filepath.Join(root, "response")),
		imageDir: filepath.Join(root, "raw"),
		cache:    similarity.NewFileCache(filepath.Join(root, "features")),
	}
	c.resolver = catalog.NewResolver(c.imageDir)
	c.extractor = similarity.NewExtractor(provider, c.cache, c.store)
	c.scanner = similarity.NewScanner(c.store, c.resolver, c.extractor, similarity.NewScorer(c.store))
	return c
}

// addProduct writes a product document, its image file and cached features.
func (c *testComponents) addProduct(t *testing.T, id string, rec catalog.ProductRecord, features *ai.ProductFeatures) {
	t.Helper()
	rec.RawImages = []string{id + ".jpg"}
	if err := c.store.Write(id, &rec); err != nil {
		t.Fatal(err)
	}
	writeTestJPEG(t, filepath.Join(c.imageDir, id+".jpg"))
	if features != nil {
		if err := c.cache.Put(id, features); err != nil {
			t.Fatal(err)
		}
	}
}

// testJPEGBytes returns a small valid JPEG.
func testJPEGBytes(t *testing.T) []byte {
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
	return buf.Bytes()
}

func writeTestJPEG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, testJPEGBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testFeatures() *ai.ProductFeatures {
	return &ai.ProductFeatures{
		Colors:              []string{"red", "black"},
		ProductType:         "men's running shoe",
		Materials:           []string{"mesh"},
		Style:               []string{"sporty"},
		DistinctiveElements: []string{"white sole"},
	}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// multipartRequest builds a multipart product upload request. Each image is
// attached as a product_images part with a valid JPEG body.
func multipartRequest(t *testing.T, fields map[string]string, imageNames []string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range imageNames {
		part, err := mw.CreateFormFile("product_images", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.Copy(part, bytes.NewReader(testJPEGBytes(t))); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
