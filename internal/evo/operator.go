package evo

import (
	"math/rand"

	"ethnos/internal/model"
	"ethnos/internal/profile"
)

// Operator mutates a profile in place of the classic genetic operator.
// Implementations must be pure up to the rng: the same rng state and
// input profile always yield the same output, and the input is never
// mutated.
type Operator interface {
	Name() string
	Apply(rng *rand.Rand, p model.Profile) model.Profile
}

// PerturbAxisWeights nudges each value weight with probability Rate by a
// uniform delta in [-Delta, Delta], clamped to [0, 1].
type PerturbAxisWeights struct {
	Rate  float64
	Delta float64
}

func (o PerturbAxisWeights) Name() string { return "perturb_axis_weights" }

func (o PerturbAxisWeights) Apply(rng *rand.Rand, p model.Profile) model.Profile {
	out := profile.Clone(p)
	for i := range out.Values {
		if rng.Float64() >= o.Rate {
			continue
		}
		w := out.Values[i].Weight + (rng.Float64()*2-1)*o.Delta
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		out.Values[i].Weight = w
	}
	return out
}

// ShiftMemeVirality nudges each meme's virality with probability Rate by
// a uniform delta in [-Delta, Delta], clamped to [0, 1].
type ShiftMemeVirality struct {
	Rate  float64
	Delta float64
}

func (o ShiftMemeVirality) Name() string { return "shift_meme_virality" }

func (o ShiftMemeVirality) Apply(rng *rand.Rand, p model.Profile) model.Profile {
	out := profile.Clone(p)
	for i := range out.Memes {
		if rng.Float64() >= o.Rate {
			continue
		}
		v := out.Memes[i].Virality + (rng.Float64()*2-1)*o.Delta
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out.Memes[i].Virality = v
	}
	return out
}
