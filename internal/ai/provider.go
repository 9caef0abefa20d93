package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/productvision/catalog/internal/config"
)

// ErrNotConfigured is returned by FromConfig when no credential is available
// for the selected provider. Callers treat this as degraded mode, not as a
// hard failure.
var ErrNotConfigured = errors.New("no vision provider configured")

// ProductFeatures is the structured visual profile of one product image,
// exactly the JSON shape the vision model is instructed to return.
type ProductFeatures struct {
	Colors              []string `json:"colors"`
	ProductType         string   `json:"product_type"`
	Materials           []string `json:"materials"`
	Style               []string `json:"style"`
	DistinctiveElements []string `json:"distinctive_elements"`
}

// Provider defines the interface for vision analysis backends.
type Provider interface {
	Name() string
	ExtractFeatures(ctx context.Context, imageData []byte) (*ProductFeatures, error)

	// Usage tracking.
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token consumption across extraction calls.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// FromConfig builds the vision provider selected by AI_PROVIDER.
// Returns ErrNotConfigured when the provider's credential is missing.
func FromConfig(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.AI.Provider {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewGeminiProvider(ctx, cfg.Gemini.APIKey)
	case "openai", "":
		if cfg.OpenAI.Token == "" {
			return nil, ErrNotConfigured
		}
		return NewOpenAIProvider(cfg.OpenAI.Token, cfg.AI.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.AI.Provider)
	}
}
