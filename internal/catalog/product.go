package catalog

import (
	"encoding/json"
	"time"

	"github.com/productvision/catalog/internal/ai"
)

// ProductRecord is one product document. Several image reference fields
// coexist because historical versions of the catalog wrote different shapes;
// Image is the canonical field normalized on write, the rest are legacy.
type ProductRecord struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Name        string `json:"name,omitempty"` // older documents used "name"
	Category    string `json:"category,omitempty"`
	Price       string `json:"price,omitempty"`

	Image      string   `json:"image,omitempty"`
	Images     []string `json:"images,omitempty"`
	RawImages  []string `json:"raw_images,omitempty"`
	ImagePaths []string `json:"image_paths,omitempty"`
	ImageURLs  []string `json:"image_urls,omitempty"`

	Tags           []string `json:"tags,omitempty"`
	Specifications []string `json:"specifications,omitempty"`
	SEOKeywords    []string `json:"seo_keywords,omitempty"`
	TargetAudience []string `json:"target_audience,omitempty"`
	Materials      []string `json:"materials,omitempty"`
	Styles         []string `json:"styles,omitempty"`
	Colors         []string `json:"colors,omitempty"`

	// ImageFeatures is the legacy in-document feature cache. New features are
	// written to the dedicated feature cache; this field is only read for
	// migration.
	ImageFeatures *ai.ProductFeatures `json:"image_features,omitempty"`

	// Extra preserves fields this code does not model (persona descriptions,
	// generated copy, ...) across read-modify-write cycles.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownFields lists every JSON key modeled by ProductRecord; anything else
// read from a document lands in Extra.
var knownFields = map[string]bool{
	"product_id": true, "product_name": true, "name": true,
	"category": true, "price": true,
	"image": true, "images": true, "raw_images": true,
	"image_paths": true, "image_urls": true,
	"tags": true, "specifications": true, "seo_keywords": true,
	"target_audience": true, "materials": true, "styles": true, "colors": true,
	"image_features": true,
}

// productRecordAlias avoids recursion in the custom JSON methods.
type productRecordAlias ProductRecord

func (p *ProductRecord) UnmarshalJSON(data []byte) error {
	var alias productRecordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if knownFields[key] {
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}

	*p = ProductRecord(alias)
	return nil
}

func (p ProductRecord) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(productRecordAlias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range p.Extra {
		if _, exists := merged[key]; !exists {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// DisplayName returns the product name, tolerating older documents that used
// the "name" field.
func (p *ProductRecord) DisplayName() string {
	if p.ProductName != "" {
		return p.ProductName
	}
	if p.Name != "" {
		return p.Name
	}
	return "Unknown Product"
}

// NewProductID returns a fresh timestamp-style product ID, the convention the
// catalog has always used for document names.
func NewProductID() string {
	return time.Now().Format("20060102150405")
}
