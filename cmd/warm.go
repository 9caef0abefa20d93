package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/productvision/catalog/internal/config"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Extract and cache features for the whole catalog",
	Long: `Walk every product in the catalog and extract visual features for it,
filling the feature cache so that similarity scans and duplicate checks
run without further vision calls.

Examples:
  # Warm the cache, skipping products already cached
  catalog warm

  # Re-extract everything, dropping cached features first
  catalog warm --force`,
	RunE: runWarm,
}

func init() {
	rootCmd.AddCommand(warmCmd)

	warmCmd.Flags().Bool("force", false, "Invalidate cached features and re-extract")
}

func runWarm(cmd *cobra.Command, args []string) error {
	force := mustGetBool(cmd, "force")

	cfg := config.Load()
	provider, err := buildProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if provider == nil {
		return errors.New("a vision provider is required to warm the cache")
	}

	c := buildComponents(cfg, provider)
	ids, err := c.store.List()
	if err != nil {
		return fmt.Errorf("listing catalog: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("Catalog is empty, nothing to warm")
		return nil
	}

	startTime := time.Now()
	bar := progressbar.NewOptions(len(ids),
		progressbar.OptionSetDescription("Warming feature cache"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("products"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	processed := 0
	skipped := 0
	for _, id := range ids {
		bar.Add(1)

		rec, err := c.store.Read(id)
		if err != nil {
			skipped++
			continue
		}
		imagePath, err := c.resolver.Resolve(rec, false)
		if err != nil {
			skipped++
			continue
		}

		if force {
			if err := c.cache.Invalidate(id); err != nil {
				fmt.Printf("\nWarning: failed to invalidate %s: %v\n", id, err)
			}
		}

		c.extractor.Extract(cmd.Context(), imagePath, id)
		processed++
	}

	usage := provider.GetUsage()
	fmt.Printf("\nWarmed %d products (%d skipped) in %s\n", processed, skipped, time.Since(startTime).Round(time.Second))
	fmt.Printf("Token usage: %d input, %d output\n", usage.InputTokens, usage.OutputTokens)
	return nil
}
