// Package render turns a culture profile into a system-prompt style
// context block for a downstream language model.
package render

import (
	"fmt"
	"sort"
	"strings"

	"ethnos/internal/model"
)

// DefaultBudget is a comfortable context size for most profiles.
const DefaultBudget = 4000

// RenderError reports that a profile cannot be rendered inside the
// budget, even with every optional element dropped.
type RenderError struct {
	Budget  int
	Minimum int
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: budget %d below minimum %d", e.Budget, e.Minimum)
}

type item struct {
	section  int
	priority float64
	line     string
}

// section order in the output
const (
	sectionValues = iota
	sectionPractices
	sectionMemes
	sectionMyths
)

var sectionHeaders = map[int]string{
	sectionValues:    "## Values",
	sectionPractices: "## Practices",
	sectionMemes:     "## Memes",
	sectionMyths:     "## Myths",
}

// Render builds the context block for p within budget characters.
// Values are ranked by weight, memes by virality; when the full block
// exceeds the budget, the lowest-priority lines are dropped first and
// emptied sections disappear with their headers. The frame around the
// sections is never dropped: when even that exceeds the budget, a
// RenderError is returned.
func Render(p model.Profile, budget int) (string, error) {
	header := fmt.Sprintf("You embody the %q culture.\nCultural character: %s\n", p.Name, p.Description)
	footer := "\nThink and respond according to this culture."

	minimum := len(header) + len(footer)
	if budget < minimum {
		return "", &RenderError{Budget: budget, Minimum: minimum}
	}

	items := collectItems(p)
	for {
		body := assemble(items)
		out := header + body + footer
		if len(out) <= budget {
			return out, nil
		}
		var dropped bool
		items, dropped = dropLowest(items)
		if !dropped {
			return "", &RenderError{Budget: budget, Minimum: len(header + assemble(nil) + footer)}
		}
	}
}

func collectItems(p model.Profile) []item {
	var items []item

	values := append([]model.ValueToken(nil), p.Values...)
	sort.Slice(values, func(i, j int) bool {
		if values[i].Weight != values[j].Weight {
			return values[i].Weight > values[j].Weight
		}
		return values[i].Name < values[j].Name
	})
	for _, token := range values {
		items = append(items, item{
			section:  sectionValues,
			priority: token.Weight,
			line:     fmt.Sprintf("- %s (%s, weight %.2f)", token.Name, token.Category, token.Weight),
		})
	}

	for _, practice := range p.Practices {
		line := "- Follow the practice of " + practice.Name
		if practice.Description != "" {
			line += ": " + practice.Description
		}
		items = append(items, item{section: sectionPractices, priority: 0.5, line: line})
	}

	memes := append([]model.Meme(nil), p.Memes...)
	sort.Slice(memes, func(i, j int) bool {
		if memes[i].Virality != memes[j].Virality {
			return memes[i].Virality > memes[j].Virality
		}
		return memes[i].Text < memes[j].Text
	})
	for _, meme := range memes {
		items = append(items, item{
			section:  sectionMemes,
			priority: meme.Virality,
			line:     fmt.Sprintf("- %q", meme.Text),
		})
	}

	for _, myth := range p.Myths {
		items = append(items, item{
			section:  sectionMyths,
			priority: 0.5,
			line:     fmt.Sprintf("- %s: %s", myth.Name, myth.Narrative),
		})
	}

	return items
}

func assemble(items []item) string {
	var b strings.Builder
	for section := sectionValues; section <= sectionMyths; section++ {
		first := true
		for _, it := range items {
			if it.section != section {
				continue
			}
			if first {
				b.WriteString("\n")
				b.WriteString(sectionHeaders[section])
				b.WriteString("\n")
				first = false
			}
			b.WriteString(it.line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// dropLowest removes the single lowest-priority item, later sections
// first on ties.
func dropLowest(items []item) ([]item, bool) {
	if len(items) == 0 {
		return items, false
	}
	lowest := 0
	for i := 1; i < len(items); i++ {
		if items[i].priority < items[lowest].priority ||
			(items[i].priority == items[lowest].priority && items[i].section >= items[lowest].section) {
			lowest = i
		}
	}
	return append(items[:lowest:lowest], items[lowest+1:]...), true
}
