package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/productvision/catalog/internal/ai"
	"github.com/productvision/catalog/internal/catalog"
	"github.com/productvision/catalog/internal/similarity"
)

func productFields() map[string]string {
	return map[string]string{
		"product_name":     "Trail Sneaker",
		"product_category": "shoes",
		"product_price":    "79.99",
	}
}

func TestUploadCreate(t *testing.T) {
	c := newTestComponents(t, nil)
	h := NewUploadHandler(c.store, c.scanner, c.imageDir)

	req := multipartRequest(t, productFields(), []string{"front.jpg", "side.jpg"})
	recorder := httptest.NewRecorder()
	h.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)

	var rec catalog.ProductRecord
	parseJSONResponse(t, recorder, &rec)
	if rec.ProductName != "Trail Sneaker" || rec.Category != "shoes" || rec.Price != "79.99" {
		t.Errorf("unexpected document: %+v", rec)
	}
	if len(rec.RawImages) != 2 {
		t.Fatalf("expected 2 stored images, got %v", rec.RawImages)
	}

	// Images land in the image directory under product-keyed names.
	for _, name := range rec.RawImages {
		if _, err := os.Stat(filepath.Join(c.imageDir, name)); err != nil {
			t.Errorf("stored image %s missing: %v", name, err)
		}
	}

	// The document is persisted and readable back.
	stored, err := c.store.Read(rec.ProductID)
	if err != nil {
		t.Fatalf("reading created product: %v", err)
	}
	if stored.Image == "" {
		t.Error("expected canonical image field filled on write")
	}
}

func TestUploadMissingFields(t *testing.T) {
	c := newTestComponents(t, nil)
	h := NewUploadHandler(c.store, c.scanner, c.imageDir)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"no name", map[string]string{"product_category": "shoes", "product_price": "1"}},
		{"no category", map[string]string{"product_name": "x", "product_price": "1"}},
		{"no price", map[string]string{"product_name": "x", "product_category": "shoes"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := multipartRequest(t, tc.fields, []string{"a.jpg"})
			recorder := httptest.NewRecorder()
			h.Create(recorder, req)
			assertStatusCode(t, recorder, http.StatusBadRequest)
		})
	}
}

func TestUploadNoImages(t *testing.T) {
	c := newTestComponents(t, nil)
	h := NewUploadHandler(c.store, c.scanner, c.imageDir)

	req := multipartRequest(t, productFields(), nil)
	recorder := httptest.NewRecorder()
	h.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestUploadTooManyImages(t *testing.T) {
	c := newTestComponents(t, nil)
	h := NewUploadHandler(c.store, c.scanner, c.imageDir)

	req := multipartRequest(t, productFields(), []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg", "6.jpg"})
	recorder := httptest.NewRecorder()
	h.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestUploadRejectsExtension(t *testing.T) {
	c := newTestComponents(t, nil)
	h := NewUploadHandler(c.store, c.scanner, c.imageDir)

	req := multipartRequest(t, productFields(), []string{"script.exe"})
	recorder := httptest.NewRecorder()
	h.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestUploadDuplicateDetected(t *testing.T) {
	provider := &mockProvider{queue: []*ai.ProductFeatures{testFeatures()}}
	c := newTestComponents(t, provider)
	h := NewUploadHandler(c.store, c.scanner, c.imageDir)

	// An existing product with identical cached features.
	c.addProduct(t, "existing", catalog.ProductRecord{ProductName: "Original"}, testFeatures())

	req := multipartRequest(t, productFields(), []string{"front.jpg"})
	recorder := httptest.NewRecorder()
	h.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusConflict)

	var resp struct {
		DuplicateDetected bool                `json:"duplicate_detected"`
		SimilarProducts   []similarity.Result `json:"similar_products"`
	}
	parseJSONResponse(t, recorder, &resp)
	if !resp.DuplicateDetected {
		t.Error("expected duplicate_detected true")
	}
	if len(resp.SimilarProducts) != 1 || resp.SimilarProducts[0].ProductID != "existing" {
		t.Errorf("expected the existing product as candidate, got %+v", resp.SimilarProducts)
	}

	// Nothing was created.
	if c.store.Count() != 1 {
		t.Errorf("expected catalog unchanged, got %d products", c.store.Count())
	}
}

func TestUploadDuplicateConfirmed(t *testing.T) {
	provider := &mockProvider{queue: []*ai.ProductFeatures{testFeatures()}}
	c := newTestComponents(t, provider)
	h := NewUploadHandler(c.store, c.scanner, c.imageDir)

	c.addProduct(t, "existing", catalog.ProductRecord{ProductName: "Original"}, testFeatures())

	fields := productFields()
	fields["confirmed"] = "true"
	req := multipartRequest(t, fields, []string{"front.jpg"})
	recorder := httptest.NewRecorder()
	h.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	if c.store.Count() != 2 {
		t.Errorf("expected 2 products after confirmed create, got %d", c.store.Count())
	}
	if provider.calls != 0 {
		t.Errorf("confirmed create must skip the duplicate scan, got %d provider calls", provider.calls)
	}
}

func TestUploadWithoutProviderSkipsDuplicateCheck(t *testing.T) {
	c := newTestComponents(t, nil)
	h := NewUploadHandler(c.store, c.scanner, c.imageDir)

	c.addProduct(t, "existing", catalog.ProductRecord{ProductName: "Original"}, testFeatures())

	req := multipartRequest(t, productFields(), []string{"front.jpg"})
	recorder := httptest.NewRecorder()
	h.Create(recorder, req)

	// No vision provider means the duplicate check degrades to a pass.
	assertStatusCode(t, recorder, http.StatusCreated)
	if c.store.Count() != 2 {
		t.Errorf("expected creation to proceed, got %d products", c.store.Count())
	}
}
