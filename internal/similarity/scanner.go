package similarity

import (
	"context"
	"log"
	"os"
	"sort"

	"github.com/productvision/catalog/internal/ai"
	"github.com/productvision/catalog/internal/catalog"
)

// Defaults for the two scan operations. Duplicate detection demands a much
// higher score than mere similarity.
const (
	DefaultSimilarThreshold   = 0.3
	DefaultSimilarMaxResults  = 4
	DefaultDuplicateThreshold = 0.85
)

// Result is one scored catalog candidate. Transient; lives for one scan.
type Result struct {
	ProductID       string  `json:"product_id"`
	ProductName     string  `json:"product_name"`
	Category        string  `json:"category"`
	Price           string  `json:"price,omitempty"`
	Thumbnail       string  `json:"thumbnail"`
	SimilarityScore float64 `json:"similarity_score"`
}

// ProductSource is the slice of the product store the scanner walks. An
// index-backed candidate source can replace the flat store without touching
// the scoring rules.
type ProductSource interface {
	List() ([]string, error)
	Read(id string) (*catalog.ProductRecord, error)
	Count() int
}

// Scanner runs one-vs-many similarity scans over the whole product store.
// The pass is a sequential linear scan; the feature cache, not concurrency,
// is what keeps repeat scans cheap.
type Scanner struct {
	store     ProductSource
	resolver  *catalog.Resolver
	extractor *Extractor
	scorer    *Scorer
}

func NewScanner(store ProductSource, resolver *catalog.Resolver, extractor *Extractor, scorer *Scorer) *Scanner {
	return &Scanner{
		store:     store,
		resolver:  resolver,
		extractor: extractor,
		scorer:    scorer,
	}
}

// FindSimilar returns up to maxResults catalog products scoring at least
// threshold against the target, best first. Every failure mode (missing
// target, unresolvable image, unconfigured provider, too few products)
// yields an empty result, never an error.
func (s *Scanner) FindSimilar(ctx context.Context, productID string, threshold float64, maxResults int, debug bool) []Result {
	if !s.extractor.Available() {
		log.Printf("scanner: no vision provider, similar products unavailable")
		return nil
	}
	if s.store.Count() < 2 {
		return nil
	}

	target, err := s.store.Read(productID)
	if err != nil {
		log.Printf("scanner: target product %s: %v", productID, err)
		return nil
	}

	targetImage, err := s.resolver.Resolve(target, debug)
	if err != nil {
		log.Printf("scanner: no image for target product %s", productID)
		return nil
	}

	targetFeatures := s.extractor.Extract(ctx, targetImage, productID)

	results := s.scan(ctx, scanParams{
		features:  targetFeatures,
		featureID: productID,
		skipID:    productID,
		threshold: threshold,
		withPrice: true,
		debug:     debug,
	})

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// CheckDuplicate scans the catalog against the first uploaded image and
// reports whether anything scores at least threshold. The uploaded product
// does not exist yet, so its features are extracted uncached and results
// omit the price. The caller caps the candidate list if it wants to.
func (s *Scanner) CheckDuplicate(ctx context.Context, imagePaths []string, threshold float64, debug bool) (bool, []Result) {
	if len(imagePaths) == 0 {
		return false, nil
	}
	if !s.extractor.Available() {
		log.Printf("scanner: no vision provider, duplicate check unavailable")
		return false, nil
	}
	if _, err := os.Stat(imagePaths[0]); err != nil {
		log.Printf("scanner: uploaded image missing: %v", err)
		return false, nil
	}
	if s.store.Count() == 0 {
		return false, nil
	}

	features := s.extractor.Extract(ctx, imagePaths[0], "")

	results := s.scan(ctx, scanParams{
		features:  features,
		threshold: threshold,
		debug:     debug,
	})
	return len(results) > 0, results
}

type scanParams struct {
	features  *ai.ProductFeatures
	featureID string
	skipID    string
	threshold float64
	withPrice bool
	debug     bool
}

// scan is the shared linear pass: resolve, extract (cached), score, filter,
// sort. One bad document never aborts the scan.
func (s *Scanner) scan(ctx context.Context, p scanParams) []Result {
	ids, err := s.store.List()
	if err != nil {
		log.Printf("scanner: listing store: %v", err)
		return nil
	}

	var results []Result
	for _, id := range ids {
		if id == p.skipID {
			continue
		}

		rec, err := s.store.Read(id)
		if err != nil {
			if p.debug {
				log.Printf("scanner: skipping %s: %v", id, err)
			}
			continue
		}

		imagePath, err := s.resolver.Resolve(rec, p.debug)
		if err != nil {
			if p.debug {
				log.Printf("scanner: skipping %s: no image", id)
			}
			continue
		}

		features := s.extractor.Extract(ctx, imagePath, id)

		score := s.scorer.Score(p.features, features, ScoreOptions{
			ProductID1: p.featureID,
			ProductID2: id,
			Debug:      p.debug,
		})
		if p.debug {
			log.Printf("scanner: %s scored %.4f", id, score)
		}
		if score < p.threshold {
			continue
		}

		result := Result{
			ProductID:       id,
			ProductName:     rec.DisplayName(),
			Category:        rec.Category,
			Thumbnail:       imagePath,
			SimilarityScore: score,
		}
		if p.withPrice {
			result.Price = rec.Price
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	return results
}
