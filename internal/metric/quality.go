package metric

import (
	"math"
	"strings"

	"ethnos/internal/model"
)

// Quality scores a single profile on internal structure rather than on
// fit to an environment. All component scores are in [0, 1].
type Quality struct {
	Coherence  float64 `json:"coherence"`
	Complexity float64 `json:"complexity"`
	Stability  float64 `json:"stability"`
	Overall    float64 `json:"overall"`
}

// Component weights for the overall score.
const (
	coherenceWeight  = 0.2
	complexityWeight = 0.15
	stabilityWeight  = 0.1
)

// Element count at which the complexity score saturates.
const complexitySaturation = 15.0

// ProfileQuality computes the structural quality of p.
func ProfileQuality(p model.Profile) Quality {
	q := Quality{
		Coherence:  coherence(p),
		Complexity: complexity(p),
		Stability:  stability(p),
	}
	total := coherenceWeight + complexityWeight + stabilityWeight
	q.Overall = (q.Coherence*coherenceWeight + q.Complexity*complexityWeight + q.Stability*stabilityWeight) / total
	return q
}

// coherence rewards profiles whose values concentrate in few categories
// and whose practices and memes echo the value vocabulary.
func coherence(p model.Profile) float64 {
	var factors []float64

	if len(p.Values) > 1 {
		categories := make(map[model.Category]struct{})
		for _, token := range p.Values {
			categories[token.Category] = struct{}{}
		}
		factors = append(factors, 1.0-float64(len(categories))/float64(len(p.Values)))
	}

	practiceAlignment := 0.0
	for _, practice := range p.Practices {
		text := strings.ToLower(practice.Name + " " + practice.Description)
		for _, token := range p.Values {
			if textMentions(text, token.Name) {
				practiceAlignment += 0.1
			}
		}
	}
	factors = append(factors, math.Min(practiceAlignment, 1.0))

	memeAlignment := 0.0
	for _, meme := range p.Memes {
		text := strings.ToLower(meme.Text)
		for _, token := range p.Values {
			if textMentions(text, token.Name) {
				memeAlignment += 0.1
			}
		}
	}
	factors = append(factors, math.Min(memeAlignment, 1.0))

	return mean(factors, 0.5)
}

// complexity combines raw element count with the spread of value weights
// and the category diversity of the value set.
func complexity(p model.Profile) float64 {
	elementCount := len(p.Values) + len(p.Memes) + len(p.Practices) + len(p.Myths)
	normalizedCount := math.Min(float64(elementCount)/complexitySaturation, 1.0)

	relationship := 0.0
	if len(p.Values) > 0 {
		relationship += variance(valueWeights(p))
		categories := make(map[model.Category]struct{})
		for _, token := range p.Values {
			categories[token.Category] = struct{}{}
		}
		relationship += float64(len(categories)) / float64(len(model.Categories()))
	}
	relationship = math.Min(relationship, 1.0)

	return (normalizedCount + relationship) / 2.0
}

// stability rewards even weight distributions and an established mythology.
func stability(p model.Profile) float64 {
	var factors []float64

	if len(p.Values) > 0 {
		factors = append(factors, math.Max(1.0-stddev(valueWeights(p)), 0.0))
	}
	if len(p.Memes) > 0 {
		viralities := make([]float64, len(p.Memes))
		for i, meme := range p.Memes {
			viralities[i] = meme.Virality
		}
		factors = append(factors, math.Max(1.0-stddev(viralities), 0.0))
	}
	if len(p.Myths) > 0 {
		factors = append(factors, math.Min(float64(len(p.Myths))/3.0, 1.0))
	}

	return mean(factors, 0.5)
}

func textMentions(text, tokenName string) bool {
	for _, keyword := range strings.Fields(strings.ToLower(tokenName)) {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func valueWeights(p model.Profile) []float64 {
	weights := make([]float64, len(p.Values))
	for i, token := range p.Values {
		weights[i] = token.Weight
	}
	return weights
}

func mean(values []float64, empty float64) float64 {
	if len(values) == 0 {
		return empty
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values, 0)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	return math.Sqrt(variance(values))
}
