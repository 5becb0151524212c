package synth

import (
	"fmt"
	"strings"

	"ethnos/internal/model"
	"ethnos/internal/profile"
)

// AmplifyTarget selects the value tokens an amplification touches. A
// token matches when its category equals Category, or when its name
// contains any of Keywords case-insensitively. An empty target matches
// nothing.
type AmplifyTarget struct {
	Label    string
	Category model.Category
	Keywords []string
}

func (t AmplifyTarget) matches(token model.ValueToken) bool {
	if t.Category != "" && token.Category == t.Category {
		return true
	}
	name := strings.ToLower(token.Name)
	for _, keyword := range t.Keywords {
		if keyword != "" && strings.Contains(name, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// Amplify returns a copy of p with matching value weights scaled by
// intensity and clamped to 1.0. Intensity must be positive; values below
// one dampen instead of amplify, which is intentional.
func Amplify(p model.Profile, target AmplifyTarget, intensity float64) (model.Profile, error) {
	if intensity <= 0 {
		return model.Profile{}, synthErrorf("amplify intensity %v, want > 0", intensity)
	}
	if target.Category == "" && len(target.Keywords) == 0 {
		return model.Profile{}, synthErrorf("amplify target matches nothing")
	}
	if target.Category != "" && !model.ValidCategory(target.Category) {
		return model.Profile{}, synthErrorf("amplify target has unknown category %q", target.Category)
	}

	out := profile.Clone(p)
	label := target.Label
	if label == "" && target.Category != "" {
		label = string(target.Category)
	}
	if label == "" {
		label = strings.ToLower(target.Keywords[0])
	}
	out.ID = fmt.Sprintf("%s-amplified-%s", p.ID, label)
	out.Name = fmt.Sprintf("%s (amplified %s)", p.Name, label)

	for i := range out.Values {
		if !target.matches(out.Values[i]) {
			continue
		}
		scaled := out.Values[i].Weight * intensity
		if scaled > 1.0 {
			scaled = 1.0
		}
		out.Values[i].Weight = scaled
	}
	return out, nil
}
