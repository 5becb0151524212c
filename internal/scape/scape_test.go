package scape

import (
	"context"
	"errors"
	"math"
	"testing"

	"ethnos/internal/model"
)

func TestAxisTargetPerfectMatch(t *testing.T) {
	env, err := NewAxisTarget("test", map[model.AxisKey]float64{
		{Name: "curiosity", Category: model.CategoryCognitive}: 0.8,
	})
	if err != nil {
		t.Fatalf("NewAxisTarget: %v", err)
	}
	p := model.Profile{
		ID: "p", Name: "p", Description: "p",
		Values: []model.ValueToken{
			{Name: "curiosity", Weight: 0.8, Category: model.CategoryCognitive},
		},
	}
	fitness, err := env.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if fitness != 1.0 {
		t.Fatalf("fitness = %v, want 1.0", fitness)
	}
}

func TestAxisTargetMissingAxisCountsAsZero(t *testing.T) {
	env, err := NewAxisTarget("test", map[model.AxisKey]float64{
		{Name: "curiosity", Category: model.CategoryCognitive}: 0.6,
	})
	if err != nil {
		t.Fatalf("NewAxisTarget: %v", err)
	}
	fitness, err := env.Evaluate(context.Background(), model.Profile{ID: "p", Name: "p", Description: "p"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(fitness-0.4) > 1e-12 {
		t.Fatalf("fitness = %v, want 0.4", fitness)
	}
}

func TestAxisTargetValidation(t *testing.T) {
	if _, err := NewAxisTarget("", map[model.AxisKey]float64{}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := NewAxisTarget("x", nil); err == nil {
		t.Fatal("expected error for no targets")
	}
	if _, err := NewAxisTarget("x", map[model.AxisKey]float64{
		{Name: "a", Category: "spiritual"}: 0.5,
	}); err == nil {
		t.Fatal("expected error for unknown category")
	}
	if _, err := NewAxisTarget("x", map[model.AxisKey]float64{
		{Name: "a", Category: model.CategoryCognitive}: 1.5,
	}); err == nil {
		t.Fatal("expected error for out-of-range target")
	}
}

func TestCoherenceBounded(t *testing.T) {
	p := model.Profile{
		ID: "p", Name: "p", Description: "p",
		Values: []model.ValueToken{
			{Name: "curiosity", Weight: 0.8, Category: model.CategoryCognitive},
			{Name: "wonder", Weight: 0.7, Category: model.CategoryCognitive},
		},
		Memes: []model.Meme{{Text: "curiosity opens doors", Virality: 0.6}},
	}
	fitness, err := Coherence{}.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if fitness < 0 || fitness > 1 {
		t.Fatalf("fitness = %v outside [0,1]", fitness)
	}
}

func TestGravityRanksChargedTextsHigher(t *testing.T) {
	env := NewGravity()
	calm := model.Profile{
		ID: "calm", Name: "calm", Description: "a quiet village by the sea",
	}
	charged := model.Profile{
		ID: "charged", Name: "charged", Description: "a culture at a turning point",
		Memes: []model.Meme{
			{Text: "every crisis is a threshold", Virality: 0.9},
			{Text: "intuition is the first decision", Virality: 0.8},
		},
		Myths: []model.Myth{
			{Name: "the crossroads", Narrative: "a beginning chosen because of a premonition"},
		},
	}
	calmFitness, err := env.Evaluate(context.Background(), calm)
	if err != nil {
		t.Fatalf("Evaluate calm: %v", err)
	}
	chargedFitness, err := env.Evaluate(context.Background(), charged)
	if err != nil {
		t.Fatalf("Evaluate charged: %v", err)
	}
	if chargedFitness <= calmFitness {
		t.Fatalf("charged %v <= calm %v", chargedFitness, calmFitness)
	}
	if chargedFitness > 1 {
		t.Fatalf("fitness %v above 1", chargedFitness)
	}
}

func TestEvaluateHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Coherence{}).Evaluate(ctx, model.Profile{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestRegistry(t *testing.T) {
	t.Cleanup(resetRegistryForTests)

	env, err := New("gravity")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if env.Name() != "gravity" {
		t.Fatalf("name = %q", env.Name())
	}

	if _, err := New("missing"); !errors.Is(err, ErrEnvironmentUnknown) {
		t.Fatalf("unknown lookup: %v", err)
	}
	if err := Register("gravity", "", func() (Environment, error) { return nil, nil }); !errors.Is(err, ErrEnvironmentExists) {
		t.Fatalf("duplicate registration: %v", err)
	}

	names := make(map[string]bool)
	for _, desc := range List() {
		names[desc.Name] = true
	}
	for _, want := range []string{"axis_target", "coherence", "gravity"} {
		if !names[want] {
			t.Fatalf("List missing %q", want)
		}
	}
}
