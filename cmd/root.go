package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/productvision/catalog/internal/ai"
	"github.com/productvision/catalog/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "A product catalog with AI-powered similarity and duplicate detection",
	Long: `Catalog manages a flat-file product catalog and uses vision models
(OpenAI, Gemini) to extract visual features from product photos. The
features drive similar-product lookups and duplicate detection on upload.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// buildProvider creates the configured vision provider. A missing credential
// is not fatal; the caller gets nil and degrades to empty scan results.
func buildProvider(ctx context.Context, cfg *config.Config) (ai.Provider, error) {
	provider, err := ai.FromConfig(ctx, cfg)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			fmt.Println("No vision provider configured; similarity features disabled")
			return nil, nil
		}
		return nil, err
	}
	return provider, nil
}
