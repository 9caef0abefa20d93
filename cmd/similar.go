package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/productvision/catalog/internal/config"
	"github.com/productvision/catalog/internal/similarity"
)

var similarCmd = &cobra.Command{
	Use:   "similar <product-id>",
	Short: "Find catalog products similar to the given one",
	Long: `Find catalog products visually similar to the given product.

Examples:
  # Default threshold and result count
  catalog similar 20240101120000

  # Lower the threshold and show scoring details
  catalog similar 20240101120000 --threshold 0.2 --debug

  # JSON output for scripting
  catalog similar 20240101120000 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().Float64("threshold", similarity.DefaultSimilarThreshold, "Minimum similarity score")
	similarCmd.Flags().Int("max-results", similarity.DefaultSimilarMaxResults, "Maximum number of results")
	similarCmd.Flags().Bool("debug", false, "Log per-attribute scoring details")
	similarCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")
	maxResults := mustGetInt(cmd, "max-results")
	debug := mustGetBool(cmd, "debug")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	provider, err := buildProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	c := buildComponents(cfg, provider)
	results := c.scanner.FindSimilar(cmd.Context(), args[0], threshold, maxResults, debug)

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No similar products found")
		return nil
	}

	fmt.Printf("Found %d similar product(s):\n", len(results))
	for _, r := range results {
		fmt.Printf("  %.2f  %s  %s", r.SimilarityScore, r.ProductID, r.ProductName)
		if r.Price != "" {
			fmt.Printf("  (%s)", r.Price)
		}
		fmt.Println()
	}
	return nil
}
