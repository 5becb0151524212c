package scape

import (
	"context"
	"math"
	"strings"

	"ethnos/internal/model"
)

// Gravity scores the narrative pull of a profile's textual corpus. It
// looks for markers of momentous change, phase transitions and causal
// intuition across memes, myths and practices, weighting the three
// signals 0.4 / 0.4 / 0.2 and normalizing into [0, 1].
type Gravity struct {
	// CausalWeight and PhaseDetection dampen their signal groups.
	CausalWeight   float64
	PhaseDetection float64
}

// NewGravity returns a gravity environment with the standard
// sensitivities.
func NewGravity() *Gravity {
	return &Gravity{CausalWeight: 0.9, PhaseDetection: 0.99}
}

var (
	highGravityWords = []string{
		"turning point", "change", "decision", "crucial", "urgent",
		"crisis", "chance", "destiny",
	}
	mediumGravityWords = []string{
		"consider", "challenge", "problem", "opportunity", "shift",
		"new", "first",
	}
	phaseTransitionWords = []string{
		"beginning", "ending", "transformation", "threshold",
		"crossroads", "choice", "decisive",
	}
	timeSignalWords = []string{
		"until now", "from now", "first time", "last", "future",
	}
	causalSignalWords = []string{
		"somehow", "intuition", "premonition", "sense", "feeling",
		"unease",
	}
	causalPatternWords = []string{
		"because", "therefore", "result", "influence", "effect",
	}
)

func (e *Gravity) Name() string { return "gravity" }

func (e *Gravity) Evaluate(ctx context.Context, p model.Profile) (float64, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	text := strings.ToLower(corpus(p))

	base := e.baseGravity(text)
	phase := e.phaseTransition(text)
	causal := e.causalGravity(text)

	importance := base*0.4 + phase*0.4 + causal*0.2
	return math.Min(importance, 5.0) / 5.0, nil
}

func (e *Gravity) baseGravity(text string) float64 {
	score := 0.0
	for _, word := range highGravityWords {
		if strings.Contains(text, word) {
			score += 2.0
		}
	}
	for _, word := range mediumGravityWords {
		if strings.Contains(text, word) {
			score += 1.0
		}
	}
	if len(text) > 100 {
		score += 0.5
	}
	if strings.Contains(text, "?") || strings.Contains(text, "!") {
		score += 0.3
	}
	return math.Min(score, 5.0)
}

func (e *Gravity) phaseTransition(text string) float64 {
	score := 0.0
	for _, word := range phaseTransitionWords {
		if strings.Contains(text, word) {
			score += 1.5
		}
	}
	for _, word := range timeSignalWords {
		if strings.Contains(text, word) {
			score += 0.8
		}
	}
	return math.Min(score*e.PhaseDetection, 5.0)
}

func (e *Gravity) causalGravity(text string) float64 {
	score := 0.0
	for _, word := range causalSignalWords {
		if strings.Contains(text, word) {
			score += 1.2
		}
	}
	for _, word := range causalPatternWords {
		if strings.Contains(text, word) {
			score += 0.6
		}
	}
	return math.Min(score*e.CausalWeight, 5.0)
}

func corpus(p model.Profile) string {
	var b strings.Builder
	b.WriteString(p.Description)
	for _, meme := range p.Memes {
		b.WriteString("\n")
		b.WriteString(meme.Text)
	}
	for _, myth := range p.Myths {
		b.WriteString("\n")
		b.WriteString(myth.Name)
		b.WriteString("\n")
		b.WriteString(myth.Narrative)
	}
	for _, practice := range p.Practices {
		b.WriteString("\n")
		b.WriteString(practice.Name)
		b.WriteString("\n")
		b.WriteString(practice.Description)
	}
	return b.String()
}
