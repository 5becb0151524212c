// Package synth blends culture profiles into derived profiles. Blending
// is a pure function of its inputs: the same profiles and weights always
// produce the same output, element for element.
package synth

import (
	"fmt"
	"sort"
	"strings"

	"ethnos/internal/model"
)

// SynthesisError reports a precondition violation. No partial profile is
// ever produced alongside one.
type SynthesisError struct {
	Reason string
}

func (e *SynthesisError) Error() string {
	return "synthesis: " + e.Reason
}

func synthErrorf(format string, args ...any) error {
	return &SynthesisError{Reason: fmt.Sprintf(format, args...)}
}

// Config tunes the engine. The zero value keeps every contributed
// element, matching plain weighted blending.
type Config struct {
	// InclusionThreshold drops memes, practices and myths whose summed
	// normalized source weight does not strictly exceed it. Must be in
	// [0, 1). Zero keeps everything.
	InclusionThreshold float64
}

func (c Config) validate() error {
	if c.InclusionThreshold < 0 || c.InclusionThreshold >= 1 {
		return synthErrorf("inclusion threshold %v outside [0,1)", c.InclusionThreshold)
	}
	return nil
}

// Engine synthesizes profiles under a fixed config.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Options names the derived profile. Zero fields get deterministic
// defaults built from the source profiles.
type Options struct {
	ID          string
	Name        string
	Description string
}

// Synthesize blends sources into one profile. Weights must be
// non-negative with a positive sum; they are normalized internally, so
// only their ratios matter. A zero-weight source contributes nothing.
// Repeated source IDs are merged by summing their weights. Each source
// contributes its value axes scaled by its normalized weight; an axis
// absent from a source counts as zero there, which dilutes contested
// axes rather than picking a winner.
//
// The returned profile carries provenance entries whose weights are the
// normalized source weights and sum to one.
func (e *Engine) Synthesize(sources []model.Profile, weights []float64, opts Options) (model.Profile, error) {
	if len(sources) == 0 {
		return model.Profile{}, synthErrorf("no source profiles")
	}
	if len(weights) != len(sources) {
		return model.Profile{}, synthErrorf("%d weights for %d sources", len(weights), len(sources))
	}
	for i, src := range sources {
		if src.ID == "" {
			return model.Profile{}, synthErrorf("source %d has empty id", i)
		}
	}
	sources, weights = mergeDuplicateSources(sources, weights)
	normalized, err := normalizeWeights(weights)
	if err != nil {
		return model.Profile{}, err
	}

	out := model.Profile{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		ID:              opts.ID,
		Name:            opts.Name,
		Description:     opts.Description,
		Values:          blendValues(sources, normalized),
		Memes:           blendMemes(sources, normalized, e.cfg.InclusionThreshold),
		Practices:       blendPractices(sources, normalized, e.cfg.InclusionThreshold),
		Myths:           blendMyths(sources, normalized, e.cfg.InclusionThreshold),
		Provenance:      provenance(sources, normalized),
	}
	if out.ID == "" {
		out.ID = derivedID(sources)
	}
	if out.Name == "" {
		out.Name = derivedName(sources)
	}
	if out.Description == "" {
		out.Description = fmt.Sprintf("synthesis of %d profiles", len(sources))
	}
	return out, nil
}

// mergeDuplicateSources collapses repeated source IDs into the first
// occurrence, summing their weights. Blending the merged pair equals
// blending the repeats, so only provenance and derived names change.
func mergeDuplicateSources(sources []model.Profile, weights []float64) ([]model.Profile, []float64) {
	index := make(map[string]int, len(sources))
	outSources := make([]model.Profile, 0, len(sources))
	outWeights := make([]float64, 0, len(sources))
	for i, src := range sources {
		if j, ok := index[src.ID]; ok {
			outWeights[j] += weights[i]
			continue
		}
		index[src.ID] = len(outSources)
		outSources = append(outSources, src)
		outWeights = append(outWeights, weights[i])
	}
	return outSources, outWeights
}

func normalizeWeights(weights []float64) ([]float64, error) {
	sum := 0.0
	for i, w := range weights {
		if w < 0 {
			return nil, synthErrorf("weight %d is %v, want >= 0", i, w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, synthErrorf("all %d weights are zero", len(weights))
	}
	normalized := make([]float64, len(weights))
	for i, w := range weights {
		normalized[i] = w / sum
	}
	return normalized, nil
}

func blendValues(sources []model.Profile, weights []float64) []model.ValueToken {
	keys := make(map[model.AxisKey]struct{})
	for _, src := range sources {
		for _, token := range src.Values {
			keys[token.Key()] = struct{}{}
		}
	}

	out := make([]model.ValueToken, 0, len(keys))
	for key := range keys {
		blended := 0.0
		for i, src := range sources {
			blended += weights[i] * src.AxisWeight(key)
		}
		out = append(out, model.ValueToken{Name: key.Name, Weight: blended, Category: key.Category})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func blendMemes(sources []model.Profile, weights []float64, threshold float64) []model.Meme {
	type acc struct {
		weightSum    float64
		viralitySum  float64
		contribution float64
	}
	byText := make(map[string]*acc)
	for i, src := range sources {
		for _, meme := range src.Memes {
			a := byText[meme.Text]
			if a == nil {
				a = &acc{}
				byText[meme.Text] = a
			}
			a.weightSum += weights[i]
			a.viralitySum += weights[i] * meme.Virality
			a.contribution += weights[i]
		}
	}

	out := make([]model.Meme, 0, len(byText))
	for text, a := range byText {
		if a.contribution <= threshold {
			continue
		}
		out = append(out, model.Meme{Text: text, Virality: a.viralitySum / a.weightSum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}

func blendPractices(sources []model.Profile, weights []float64, threshold float64) []model.Practice {
	type acc struct {
		contribution float64
		best         model.Practice
		bestWeight   float64
	}
	byName := make(map[string]*acc)
	for i, src := range sources {
		for _, practice := range src.Practices {
			a := byName[practice.Name]
			if a == nil {
				a = &acc{best: practice, bestWeight: weights[i]}
				byName[practice.Name] = a
			} else if weights[i] > a.bestWeight {
				a.best = practice
				a.bestWeight = weights[i]
			}
			a.contribution += weights[i]
		}
	}

	out := make([]model.Practice, 0, len(byName))
	for _, a := range byName {
		if a.contribution <= threshold {
			continue
		}
		out = append(out, a.best)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func blendMyths(sources []model.Profile, weights []float64, threshold float64) []model.Myth {
	type acc struct {
		contribution float64
		best         model.Myth
		bestWeight   float64
	}
	byName := make(map[string]*acc)
	for i, src := range sources {
		for _, myth := range src.Myths {
			a := byName[myth.Name]
			if a == nil {
				a = &acc{best: myth, bestWeight: weights[i]}
				byName[myth.Name] = a
			} else if weights[i] > a.bestWeight {
				a.best = myth
				a.bestWeight = weights[i]
			}
			a.contribution += weights[i]
		}
	}

	out := make([]model.Myth, 0, len(byName))
	for _, a := range byName {
		if a.contribution <= threshold {
			continue
		}
		out = append(out, a.best)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func provenance(sources []model.Profile, weights []float64) []model.Ancestry {
	out := make([]model.Ancestry, len(sources))
	for i, src := range sources {
		out[i] = model.Ancestry{ProfileID: src.ID, Weight: weights[i]}
	}
	return out
}

func derivedID(sources []model.Profile) string {
	ids := make([]string, len(sources))
	for i, src := range sources {
		ids[i] = src.ID
	}
	return "synth-" + strings.Join(ids, "+")
}

func derivedName(sources []model.Profile) string {
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name
	}
	return strings.Join(names, " / ")
}
