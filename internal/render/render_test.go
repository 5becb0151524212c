package render

import (
	"errors"
	"strings"
	"testing"

	"ethnos/internal/model"
)

func renderProfile() model.Profile {
	return model.Profile{
		ID:          "r",
		Name:        "tidal-archivists",
		Description: "coastal culture of careful record keepers",
		Values: []model.ValueToken{
			{Name: "precision", Weight: 0.9, Category: model.CategoryCognitive},
			{Name: "patience", Weight: 0.6, Category: model.CategoryTemporal},
			{Name: "hospitality", Weight: 0.3, Category: model.CategorySocial},
		},
		Memes: []model.Meme{
			{Text: "the tide keeps its own ledger", Virality: 0.8},
			{Text: "ink before memory", Virality: 0.4},
		},
		Practices: []model.Practice{
			{Name: "dawn inventory", Description: "count what the night changed"},
		},
		Myths: []model.Myth{
			{Name: "the drowned library", Narrative: "records that outlived their readers"},
		},
	}
}

func TestRenderIncludesEverythingWithLargeBudget(t *testing.T) {
	out, err := Render(renderProfile(), DefaultBudget)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		`You embody the "tidal-archivists" culture.`,
		"## Values",
		"- precision (cognitive, weight 0.90)",
		"## Practices",
		"Follow the practice of dawn inventory",
		"## Memes",
		`"the tide keeps its own ledger"`,
		"## Myths",
		"the drowned library",
		"Think and respond according to this culture.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRanksValuesByWeight(t *testing.T) {
	out, err := Render(renderProfile(), DefaultBudget)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	precision := strings.Index(out, "- precision")
	patience := strings.Index(out, "- patience")
	hospitality := strings.Index(out, "- hospitality")
	if precision > patience || patience > hospitality {
		t.Fatalf("values not ranked by weight:\n%s", out)
	}
}

func TestRenderDropsLowestPriorityFirst(t *testing.T) {
	p := renderProfile()
	full, err := Render(p, DefaultBudget)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out, err := Render(p, len(full)-1)
	if err != nil {
		t.Fatalf("Render under budget: %v", err)
	}
	if strings.Contains(out, "- hospitality") {
		t.Fatalf("lowest-weight value survived truncation:\n%s", out)
	}
	if !strings.Contains(out, "- precision") {
		t.Fatalf("highest-weight value dropped:\n%s", out)
	}
	if len(out) >= len(full) {
		t.Fatal("truncated render not shorter")
	}
}

func TestRenderOmitsEmptySectionHeaders(t *testing.T) {
	p := model.Profile{ID: "e", Name: "sparse", Description: "almost nothing"}
	out, err := Render(p, DefaultBudget)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, header := range []string{"## Values", "## Practices", "## Memes", "## Myths"} {
		if strings.Contains(out, header) {
			t.Fatalf("empty section header %q present:\n%s", header, out)
		}
	}
}

func TestRenderErrorWhenFrameTooBig(t *testing.T) {
	var rerr *RenderError
	_, err := Render(renderProfile(), 10)
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want RenderError", err)
	}
	if rerr.Budget != 10 || rerr.Minimum <= 10 {
		t.Fatalf("unexpected error detail: %+v", rerr)
	}
}

func TestRenderZeroBudgetErrors(t *testing.T) {
	if _, err := Render(model.Profile{Name: "x", Description: "y"}, 0); err == nil {
		t.Fatal("expected error for zero budget")
	}
}
