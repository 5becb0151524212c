package profile

import "ethnos/internal/model"

// Clone returns a deep copy of p. Mutating the copy never aliases the
// original's slices.
func Clone(p model.Profile) model.Profile {
	out := p
	if p.Values != nil {
		out.Values = make([]model.ValueToken, len(p.Values))
		copy(out.Values, p.Values)
	}
	if p.Memes != nil {
		out.Memes = make([]model.Meme, len(p.Memes))
		copy(out.Memes, p.Memes)
	}
	if p.Practices != nil {
		out.Practices = make([]model.Practice, len(p.Practices))
		copy(out.Practices, p.Practices)
	}
	if p.Myths != nil {
		out.Myths = make([]model.Myth, len(p.Myths))
		copy(out.Myths, p.Myths)
	}
	if p.Provenance != nil {
		out.Provenance = make([]model.Ancestry, len(p.Provenance))
		copy(out.Provenance, p.Provenance)
	}
	return out
}
