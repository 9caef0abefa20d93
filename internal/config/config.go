package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	OpenAI  OpenAIConfig
	Gemini  GeminiConfig
	AI      AIConfig
	Catalog CatalogConfig
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type AIConfig struct {
	Provider string        // "openai" (default) or "gemini"
	Timeout  time.Duration // per-request timeout for vision calls
}

type CatalogConfig struct {
	Dir        string // directory holding one JSON document per product
	ImageDir   string // directory holding raw product images
	FeatureDir string // directory holding cached feature records
}

// envStr reads an environment variable, falling back to a default when unset.
func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envSeconds reads an environment variable as a positive number of seconds.
// Returns the default duration if the env var is unset, empty, or invalid.
func envSeconds(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		AI: AIConfig{
			Provider: envStr("AI_PROVIDER", "openai"),
			Timeout:  envSeconds("AI_TIMEOUT_SECONDS", 60*time.Second),
		},
		Catalog: CatalogConfig{
			Dir:        envStr("CATALOG_DIR", "response"),
			ImageDir:   envStr("IMAGE_DIR", "raw"),
			FeatureDir: envStr("FEATURE_CACHE_DIR", "features"),
		},
	}
}

// HasVisionProvider reports whether a credential for the selected vision
// provider is configured. Similarity features degrade to empty results
// without one.
func (c *Config) HasVisionProvider() bool {
	switch c.AI.Provider {
	case "gemini":
		return c.Gemini.APIKey != ""
	default:
		return c.OpenAI.Token != ""
	}
}
