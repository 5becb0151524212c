package metric

import (
	"fmt"
	"math"

	"ethnos/internal/model"
)

// Distance describes how far apart two profiles sit in value space.
// Aggregate and Affinity are both in [0, 1] and sum to 1.
type Distance struct {
	PerCategory map[model.Category]float64 `json:"per_category"`
	Aggregate   float64                    `json:"aggregate"`
	Affinity    float64                    `json:"affinity"`
}

// DistanceConfig tunes how per-category distances fold into the
// aggregate. The zero value weighs every category equally.
type DistanceConfig struct {
	// CategoryWeights overrides the per-category contribution. Missing
	// categories get weight zero. Weights must be non-negative and at
	// least one must be positive when the map is non-nil.
	CategoryWeights map[model.Category]float64
}

func (c DistanceConfig) validate() error {
	if c.CategoryWeights == nil {
		return nil
	}
	positive := false
	for category, weight := range c.CategoryWeights {
		if !model.ValidCategory(category) {
			return fmt.Errorf("distance config: unknown category %q", category)
		}
		if weight < 0 {
			return fmt.Errorf("distance config: category %q has negative weight %v", category, weight)
		}
		if weight > 0 {
			positive = true
		}
	}
	if !positive {
		return fmt.Errorf("distance config: all category weights are zero")
	}
	return nil
}

// CulturalDistance measures a and b axis by axis. For each category the
// distance is the mean absolute weight difference over the union of axis
// names in that category, with an absent axis counted as weight zero.
// Categories absent from both profiles contribute nothing.
//
// The metric is symmetric and zero for identical value sets.
func CulturalDistance(a, b model.Profile, cfg DistanceConfig) (Distance, error) {
	if err := cfg.validate(); err != nil {
		return Distance{}, err
	}

	perCategory := make(map[model.Category]float64)
	for _, category := range model.Categories() {
		names := make(map[string]struct{})
		collectNames(names, a.Values, category)
		collectNames(names, b.Values, category)
		if len(names) == 0 {
			continue
		}
		sum := 0.0
		for name := range names {
			key := model.AxisKey{Name: name, Category: category}
			sum += math.Abs(a.AxisWeight(key) - b.AxisWeight(key))
		}
		perCategory[category] = sum / float64(len(names))
	}

	aggregate := 0.0
	weightSum := 0.0
	for _, category := range model.Categories() {
		d, present := perCategory[category]
		if !present {
			continue
		}
		weight := 1.0
		if cfg.CategoryWeights != nil {
			weight = cfg.CategoryWeights[category]
		}
		aggregate += weight * d
		weightSum += weight
	}
	if weightSum > 0 {
		aggregate /= weightSum
	}

	return Distance{
		PerCategory: perCategory,
		Aggregate:   aggregate,
		Affinity:    1 - aggregate,
	}, nil
}

func collectNames(into map[string]struct{}, tokens []model.ValueToken, category model.Category) {
	for _, token := range tokens {
		if token.Category == category {
			into[token.Name] = struct{}{}
		}
	}
}
