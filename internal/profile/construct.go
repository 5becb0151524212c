package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"ethnos/internal/model"
)

// ProvenanceTolerance is the allowed deviation of a non-empty provenance
// weight sum from 1.0.
const ProvenanceTolerance = 1e-6

// ValidationError reports a malformed profile construction. It is always
// surfaced to the caller, never recovered silently.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile: %s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Option adjusts construction policy.
type Option func(*options)

type options struct {
	clampWeights bool
	meanMerge    bool
}

// WithClamping opts into clamping out-of-range weights and viralities to
// [0, 1] instead of rejecting them. Rejection is the default policy.
func WithClamping() Option {
	return func(o *options) { o.clampWeights = true }
}

// WithMeanMerge opts into averaging the weights of value tokens that share
// (name, category) but disagree. Without it, conflicting duplicates are a
// validation error.
func WithMeanMerge() Option {
	return func(o *options) { o.meanMerge = true }
}

// New validates and normalizes a profile. The returned profile has
// deterministic element ordering (values by category then name, memes by
// text, practices and myths by name) so that downstream arithmetic and
// serialization are order-insensitive by construction.
//
// The input is not mutated.
func New(p model.Profile, opts ...Option) (model.Profile, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(p.Name) == "" {
		return model.Profile{}, validationErrorf("name", "must not be empty")
	}
	if strings.TrimSpace(p.Description) == "" {
		return model.Profile{}, validationErrorf("description", "must not be empty")
	}

	out := Clone(p)
	if out.SchemaVersion == 0 {
		out.SchemaVersion = 1
	}
	if out.CodecVersion == 0 {
		out.CodecVersion = 1
	}

	values, err := normalizeValues(out.Values, o)
	if err != nil {
		return model.Profile{}, err
	}
	out.Values = values

	memes, err := normalizeMemes(out.Memes, o)
	if err != nil {
		return model.Profile{}, err
	}
	out.Memes = memes

	practices, err := normalizePractices(out.Practices)
	if err != nil {
		return model.Profile{}, err
	}
	out.Practices = practices

	myths, err := normalizeMyths(out.Myths)
	if err != nil {
		return model.Profile{}, err
	}
	out.Myths = myths

	if err := validateProvenance(out.Provenance); err != nil {
		return model.Profile{}, err
	}

	return out, nil
}

// Validate checks an already-built profile without normalizing it.
func Validate(p model.Profile) error {
	_, err := New(p)
	return err
}

func normalizeValues(tokens []model.ValueToken, o options) ([]model.ValueToken, error) {
	byKey := make(map[model.AxisKey]model.ValueToken, len(tokens))
	conflictSum := make(map[model.AxisKey]float64, len(tokens))
	conflictCount := make(map[model.AxisKey]int, len(tokens))

	for i, token := range tokens {
		if strings.TrimSpace(token.Name) == "" {
			return nil, validationErrorf("values", "token %d has empty name", i)
		}
		if !model.ValidCategory(token.Category) {
			return nil, validationErrorf("values", "token %q has unknown category %q", token.Name, token.Category)
		}
		weight := token.Weight
		if weight < 0 || weight > 1 {
			if !o.clampWeights {
				return nil, validationErrorf("values", "token %q weight %v outside [0,1]", token.Name, weight)
			}
			weight = clamp01(weight)
		}
		token.Weight = weight

		key := token.Key()
		existing, seen := byKey[key]
		if !seen {
			byKey[key] = token
			conflictSum[key] = weight
			conflictCount[key] = 1
			continue
		}
		conflictSum[key] += weight
		conflictCount[key]++
		if math.Abs(existing.Weight-weight) <= ProvenanceTolerance {
			continue
		}
		if !o.meanMerge {
			return nil, validationErrorf("values", "token %q in category %q has conflicting weights %v and %v", token.Name, token.Category, existing.Weight, weight)
		}
		existing.Weight = conflictSum[key] / float64(conflictCount[key])
		byKey[key] = existing
	}

	out := make([]model.ValueToken, 0, len(byKey))
	for _, token := range byKey {
		out = append(out, token)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func normalizeMemes(memes []model.Meme, o options) ([]model.Meme, error) {
	byText := make(map[string]model.Meme, len(memes))
	sums := make(map[string]float64, len(memes))
	counts := make(map[string]int, len(memes))

	for i, meme := range memes {
		if strings.TrimSpace(meme.Text) == "" {
			return nil, validationErrorf("memes", "meme %d has empty text", i)
		}
		virality := meme.Virality
		if virality < 0 || virality > 1 {
			if !o.clampWeights {
				return nil, validationErrorf("memes", "meme %q virality %v outside [0,1]", meme.Text, virality)
			}
			virality = clamp01(virality)
		}
		meme.Virality = virality

		sums[meme.Text] += virality
		counts[meme.Text]++
		merged := meme
		merged.Virality = sums[meme.Text] / float64(counts[meme.Text])
		byText[meme.Text] = merged
	}

	out := make([]model.Meme, 0, len(byText))
	for _, meme := range byText {
		out = append(out, meme)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out, nil
}

func normalizePractices(practices []model.Practice) ([]model.Practice, error) {
	byName := make(map[string]model.Practice, len(practices))
	for i, practice := range practices {
		if strings.TrimSpace(practice.Name) == "" {
			return nil, validationErrorf("practices", "practice %d has empty name", i)
		}
		existing, seen := byName[practice.Name]
		if !seen {
			byName[practice.Name] = practice
			continue
		}
		if existing.Description == "" {
			existing.Description = practice.Description
			byName[practice.Name] = existing
		}
	}

	out := make([]model.Practice, 0, len(byName))
	for _, practice := range byName {
		out = append(out, practice)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func normalizeMyths(myths []model.Myth) ([]model.Myth, error) {
	byName := make(map[string]model.Myth, len(myths))
	for i, myth := range myths {
		if strings.TrimSpace(myth.Name) == "" {
			return nil, validationErrorf("myths", "myth %d has empty name", i)
		}
		if _, seen := byName[myth.Name]; !seen {
			byName[myth.Name] = myth
		}
	}

	out := make([]model.Myth, 0, len(byName))
	for _, myth := range byName {
		out = append(out, myth)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func validateProvenance(provenance []model.Ancestry) error {
	if len(provenance) == 0 {
		return nil
	}
	sum := 0.0
	for i, ancestry := range provenance {
		if strings.TrimSpace(ancestry.ProfileID) == "" {
			return validationErrorf("provenance", "entry %d has empty profile id", i)
		}
		if ancestry.Weight < 0 {
			return validationErrorf("provenance", "entry %q has negative weight %v", ancestry.ProfileID, ancestry.Weight)
		}
		sum += ancestry.Weight
	}
	if math.Abs(sum-1.0) > ProvenanceTolerance {
		return validationErrorf("provenance", "weights sum to %v, want 1.0", sum)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
