package profile

import (
	"errors"
	"testing"

	"ethnos/internal/model"
)

func baseProfile() model.Profile {
	return model.Profile{
		ID:          "p1",
		Name:        "collective-scholars",
		Description: "communal knowledge culture",
		Values: []model.ValueToken{
			{Name: "curiosity", Weight: 0.9, Category: model.CategoryCognitive},
			{Name: "loyalty", Weight: 0.6, Category: model.CategorySocial},
		},
		Memes:     []model.Meme{{Text: "knowledge is shared breath", Virality: 0.7}},
		Practices: []model.Practice{{Name: "evening recitation"}},
		Myths:     []model.Myth{{Name: "the first archive", Narrative: "a library that survived the flood"}},
	}
}

func TestNewSortsDeterministically(t *testing.T) {
	p := baseProfile()
	p.Values = []model.ValueToken{
		{Name: "loyalty", Weight: 0.6, Category: model.CategorySocial},
		{Name: "patience", Weight: 0.4, Category: model.CategoryTemporal},
		{Name: "curiosity", Weight: 0.9, Category: model.CategoryCognitive},
	}
	got, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got.Values[0].Name != "curiosity" || got.Values[1].Name != "loyalty" || got.Values[2].Name != "patience" {
		t.Fatalf("unexpected value order: %+v", got.Values)
	}
}

func TestNewRejectsEmptyName(t *testing.T) {
	p := baseProfile()
	p.Name = "  "
	if _, err := New(p); err == nil {
		t.Fatal("expected validation error for empty name")
	}
}

func TestNewRejectsUnknownCategory(t *testing.T) {
	p := baseProfile()
	p.Values = append(p.Values, model.ValueToken{Name: "x", Weight: 0.5, Category: "spiritual"})
	var verr *ValidationError
	_, err := New(p)
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "values" {
		t.Fatalf("field = %q, want values", verr.Field)
	}
}

func TestNewRejectsOutOfRangeWeight(t *testing.T) {
	p := baseProfile()
	p.Values[0].Weight = 1.2
	if _, err := New(p); err == nil {
		t.Fatal("expected validation error for weight > 1")
	}
}

func TestWithClampingClampsWeights(t *testing.T) {
	p := baseProfile()
	p.Values[0].Weight = 1.2
	p.Memes[0].Virality = -0.3
	got, err := New(p, WithClamping())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got.AxisWeight(model.AxisKey{Name: "curiosity", Category: model.CategoryCognitive}) != 1.0 {
		t.Fatalf("weight not clamped: %+v", got.Values)
	}
	if got.Memes[0].Virality != 0 {
		t.Fatalf("virality not clamped: %+v", got.Memes)
	}
}

func TestConflictingDuplicateTokens(t *testing.T) {
	p := baseProfile()
	p.Values = append(p.Values, model.ValueToken{Name: "curiosity", Weight: 0.5, Category: model.CategoryCognitive})

	if _, err := New(p); err == nil {
		t.Fatal("expected conflict error without merge strategy")
	}

	got, err := New(p, WithMeanMerge())
	if err != nil {
		t.Fatalf("New with mean merge: %v", err)
	}
	weight := got.AxisWeight(model.AxisKey{Name: "curiosity", Category: model.CategoryCognitive})
	if diff := weight - 0.7; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("merged weight = %v, want 0.7", weight)
	}
}

func TestExactDuplicateTokensMergeSilently(t *testing.T) {
	p := baseProfile()
	p.Values = append(p.Values, p.Values[0])
	got, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(got.Values) != 2 {
		t.Fatalf("len(values) = %d, want 2", len(got.Values))
	}
}

func TestProvenanceMustSumToOne(t *testing.T) {
	p := baseProfile()
	p.Provenance = []model.Ancestry{
		{ProfileID: "a", Weight: 0.6},
		{ProfileID: "b", Weight: 0.5},
	}
	if _, err := New(p); err == nil {
		t.Fatal("expected provenance sum error")
	}

	p.Provenance[1].Weight = 0.4
	if _, err := New(p); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := baseProfile()
	c := Clone(p)
	c.Values[0].Weight = 0.1
	c.Memes[0].Virality = 0.1
	if p.Values[0].Weight != 0.9 || p.Memes[0].Virality != 0.7 {
		t.Fatal("clone aliases original slices")
	}
}
