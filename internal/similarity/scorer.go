package similarity

import (
	"log"
	"strings"

	"golang.org/x/text/cases"

	"github.com/productvision/catalog/internal/ai"
	"github.com/productvision/catalog/internal/catalog"
)

// MetadataLoader is the slice of the product store the scorer needs to
// side-load tags, target audience and specifications.
type MetadataLoader interface {
	Read(id string) (*catalog.ProductRecord, error)
}

// Scorer computes the weighted similarity between two feature records.
// Stateless and deterministic; the only side effect is debug logging.
type Scorer struct {
	store   MetadataLoader
	weights *Weights
}

func NewScorer(store MetadataLoader) *Scorer {
	return &Scorer{
		store:   store,
		weights: loadWeights(),
	}
}

// ScoreOptions carries the per-side product IDs used to side-load metadata.
// Either may be empty (e.g. an uploaded image that is not a product yet);
// metadata attributes are then simply skipped.
type ScoreOptions struct {
	ProductID1 string
	ProductID2 string
	Debug      bool
}

// Score returns the normalized similarity of two feature records. The result
// is the weighted sum over comparable attributes divided by their total
// weight, 0.0 when nothing is comparable. The gender penalty is subtracted
// flat and deliberately not clamped, so the result can go below zero.
func (s *Scorer) Score(f1, f2 *ai.ProductFeatures, opts ScoreOptions) float64 {
	if f1 == nil || f2 == nil {
		return 0.0
	}

	var score, totalWeight float64
	w := s.weights

	// Product type: exact match gets full weight, same garment group half.
	if f1.ProductType != "" && f2.ProductType != "" {
		typeScore := 0.0
		type1 := fold(f1.ProductType)
		type2 := fold(f2.ProductType)
		switch {
		case type1 == type2:
			typeScore = w.Weights.ProductType
		case sameTypeGroup(type1, type2, w.TypeGroups):
			typeScore = w.PartialTypeCredit
		}
		score += typeScore
		totalWeight += w.Weights.ProductType

		if opts.Debug {
			log.Printf("scorer: product_type %.4f (%q vs %q)", typeScore, f1.ProductType, f2.ProductType)
		}

		// Gender mismatch penalty: flat, outside the total weight.
		if genderMismatch(type1, type2, w) {
			score -= w.GenderPenalty
			if opts.Debug {
				log.Printf("scorer: gender mismatch penalty -%.2f", w.GenderPenalty)
			}
		}
	}

	score, totalWeight = addOverlap(score, totalWeight, "colors", f1.Colors, f2.Colors, w.Weights.Colors, opts.Debug)
	score, totalWeight = addOverlap(score, totalWeight, "materials", f1.Materials, f2.Materials, w.Weights.Materials, opts.Debug)
	score, totalWeight = addOverlap(score, totalWeight, "style", f1.Style, f2.Style, w.Weights.Style, opts.Debug)
	score, totalWeight = addOverlap(score, totalWeight, "distinctive_elements", f1.DistinctiveElements, f2.DistinctiveElements, w.Weights.DistinctiveElements, opts.Debug)

	rec1 := s.loadMetadata(opts.ProductID1, opts.Debug)
	rec2 := s.loadMetadata(opts.ProductID2, opts.Debug)
	if rec1 != nil && rec2 != nil {
		score, totalWeight = addOverlap(score, totalWeight, "tags",
			foldAll(rec1.Tags), foldAll(rec2.Tags), w.Weights.Tags, opts.Debug)
		score, totalWeight = addOverlap(score, totalWeight, "target_audience",
			foldAll(rec1.TargetAudience), foldAll(rec2.TargetAudience), w.Weights.TargetAudience, opts.Debug)
		score, totalWeight = addSpecifications(score, totalWeight,
			rec1.Specifications, rec2.Specifications, w.Weights.Specifications, opts.Debug)
	}

	if totalWeight == 0 {
		return 0.0
	}
	final := score / totalWeight

	if opts.Debug {
		log.Printf("scorer: final %.4f (raw %.4f / weight %.2f)", final, score, totalWeight)
	}
	return final
}

// loadMetadata side-loads a product document for its metadata attributes.
// Failures are silent: the attribute contributions are simply skipped.
func (s *Scorer) loadMetadata(productID string, debug bool) *catalog.ProductRecord {
	if productID == "" || s.store == nil {
		return nil
	}
	rec, err := s.store.Read(productID)
	if err != nil {
		if debug {
			log.Printf("scorer: no metadata for %s: %v", productID, err)
		}
		return nil
	}
	return rec
}

// addOverlap adds one intersection-over-max attribute contribution. The
// attribute only counts toward the total weight when both sides have it.
func addOverlap(score, totalWeight float64, name string, list1, list2 []string, weight float64, debug bool) (float64, float64) {
	if len(list1) == 0 || len(list2) == 0 {
		return score, totalWeight
	}

	set1 := toSet(list1)
	set2 := toSet(list2)
	matches := 0
	for v := range set1 {
		if set2[v] {
			matches++
		}
	}

	maxLen := max(len(set1), len(set2))
	contribution := weight * float64(matches) / float64(maxLen)

	if debug {
		log.Printf("scorer: %s %.4f (%d/%d common)", name, contribution, matches, maxLen)
	}
	return score + contribution, totalWeight + weight
}

// addSpecifications scores specification lists by counting pairs that share
// at least two whitespace-separated tokens, each left entry matching at most
// once.
func addSpecifications(score, totalWeight float64, specs1, specs2 []string, weight float64, debug bool) (float64, float64) {
	if len(specs1) == 0 || len(specs2) == 0 {
		return score, totalWeight
	}

	matching := 0
	for _, spec1 := range specs1 {
		words1 := toSet(strings.Fields(fold(spec1)))
		for _, spec2 := range specs2 {
			common := 0
			for _, word := range strings.Fields(fold(spec2)) {
				if words1[word] {
					common++
				}
			}
			if common >= 2 {
				matching++
				break
			}
		}
	}

	maxLen := max(len(specs1), len(specs2))
	contribution := weight * float64(matching) / float64(maxLen)

	if debug {
		log.Printf("scorer: specifications %.4f (%d/%d matching pairs)", contribution, matching, maxLen)
	}
	return score + contribution, totalWeight + weight
}

// sameTypeGroup reports whether both folded product types contain a keyword
// from the same garment group.
func sameTypeGroup(type1, type2 string, groups map[string][]string) bool {
	for _, keywords := range groups {
		if containsAny(type1, keywords) && containsAny(type2, keywords) {
			return true
		}
	}
	return false
}

// genderMismatch reports whether one folded product type reads masculine and
// the other feminine. Feminine terms are stripped before the masculine test
// so that "women's" does not register as containing "men".
func genderMismatch(type1, type2 string, w *Weights) bool {
	masc1, fem1 := genderOf(type1, w)
	masc2, fem2 := genderOf(type2, w)
	return (masc1 && fem2) || (fem1 && masc2)
}

func genderOf(productType string, w *Weights) (masculine, feminine bool) {
	feminine = containsAny(productType, w.GenderTerms.Feminine)

	stripped := productType
	for _, term := range w.GenderTerms.Feminine {
		stripped = strings.ReplaceAll(stripped, term, "")
	}
	masculine = containsAny(stripped, w.GenderTerms.Masculine)
	return masculine, feminine
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, v := range list {
		set[v] = true
	}
	return set
}

// fold lower-cases with Unicode case folding, so metadata written in mixed
// scripts still compares.
func fold(s string) string {
	return cases.Fold().String(s)
}

func foldAll(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = fold(v)
	}
	return out
}
