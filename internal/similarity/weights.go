package similarity

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed weights.yaml
var weightsYAML []byte

// Weights holds the tuning of the similarity scorer. The values ship embedded
// so every build scores identically.
type Weights struct {
	Weights struct {
		ProductType         float64 `yaml:"product_type"`
		Colors              float64 `yaml:"colors"`
		Materials           float64 `yaml:"materials"`
		Style               float64 `yaml:"style"`
		DistinctiveElements float64 `yaml:"distinctive_elements"`
		Tags                float64 `yaml:"tags"`
		TargetAudience      float64 `yaml:"target_audience"`
		Specifications      float64 `yaml:"specifications"`
	} `yaml:"weights"`

	PartialTypeCredit float64 `yaml:"partial_type_credit"`
	GenderPenalty     float64 `yaml:"gender_penalty"`

	TypeGroups map[string][]string `yaml:"type_groups"`

	GenderTerms struct {
		Masculine []string `yaml:"masculine"`
		Feminine  []string `yaml:"feminine"`
	} `yaml:"gender_terms"`
}

func loadWeights() *Weights {
	var w Weights
	if err := yaml.Unmarshal(weightsYAML, &w); err != nil {
		// Embedded file, so this can only happen on a broken build.
		panic("failed to unmarshal embedded weights.yaml: " + err.Error())
	}
	return &w
}
