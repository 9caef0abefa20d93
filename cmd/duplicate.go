package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/productvision/catalog/internal/config"
	"github.com/productvision/catalog/internal/similarity"
)

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <image>...",
	Short: "Check whether an image duplicates an existing product",
	Long: `Check one or more product images against the catalog before creating
a new product. Only the first image is scored; extra images are accepted
for symmetry with the upload flow.

Examples:
  catalog duplicate new-shoe.jpg

  # Stricter matching
  catalog duplicate new-shoe.jpg --threshold 0.95`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDuplicate,
}

func init() {
	rootCmd.AddCommand(duplicateCmd)

	duplicateCmd.Flags().Float64("threshold", similarity.DefaultDuplicateThreshold, "Minimum score to count as a duplicate")
	duplicateCmd.Flags().Bool("debug", false, "Log per-attribute scoring details")
	duplicateCmd.Flags().Bool("json", false, "Output as JSON")
}

func runDuplicate(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")
	debug := mustGetBool(cmd, "debug")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	provider, err := buildProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	c := buildComponents(cfg, provider)
	isDup, candidates := c.scanner.CheckDuplicate(cmd.Context(), args, threshold, debug)

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"duplicate_detected": isDup,
			"similar_products":   candidates,
		})
	}

	if !isDup {
		fmt.Println("No duplicates found")
		return nil
	}

	fmt.Printf("Possible duplicate! %d catalog product(s) match:\n", len(candidates))
	for _, r := range candidates {
		fmt.Printf("  %.2f  %s  %s\n", r.SimilarityScore, r.ProductID, r.ProductName)
	}
	return nil
}
