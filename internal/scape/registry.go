package scape

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"ethnos/internal/model"
)

var (
	// ErrEnvironmentExists is returned when registering a duplicate name.
	ErrEnvironmentExists = errors.New("environment already registered")
	// ErrEnvironmentUnknown is returned when looking up an unregistered name.
	ErrEnvironmentUnknown = errors.New("unknown environment")
)

// Factory builds a fresh environment instance.
type Factory func() (Environment, error)

type registryEntry struct {
	factory Factory
	summary string
}

var registry = struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}{entries: map[string]registryEntry{}}

// Register adds a named environment factory.
func Register(name, summary string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("register environment: empty name")
	}
	if factory == nil {
		return fmt.Errorf("register environment %q: nil factory", name)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, dup := registry.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrEnvironmentExists, name)
	}
	registry.entries[name] = registryEntry{factory: factory, summary: summary}
	return nil
}

// New builds a registered environment by name.
func New(name string) (Environment, error) {
	registry.mu.RLock()
	entry, ok := registry.entries[name]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEnvironmentUnknown, name)
	}
	return entry.factory()
}

// List returns registered environments sorted by name.
func List() []Description {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	out := make([]Description, 0, len(registry.entries))
	for name, entry := range registry.entries {
		out = append(out, Description{Name: name, Summary: entry.summary})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resetRegistryForTests() {
	registry.mu.Lock()
	registry.entries = map[string]registryEntry{}
	registry.mu.Unlock()
	registerBuiltins()
}

// defaultCuriosityTargets is the stock benchmark for the axis_target
// environment: a curious, communal, patient culture.
func defaultCuriosityTargets() map[model.AxisKey]float64 {
	return map[model.AxisKey]float64{
		{Name: "curiosity", Category: model.CategoryCognitive}: 0.9,
		{Name: "loyalty", Category: model.CategorySocial}:      0.7,
		{Name: "patience", Category: model.CategoryTemporal}:   0.6,
	}
}

func registerBuiltins() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(Register("axis_target", "distance to a fixed point in value space", func() (Environment, error) {
		return NewAxisTarget("axis_target", defaultCuriosityTargets())
	}))
	must(Register("coherence", "structural quality of the profile itself", func() (Environment, error) {
		return Coherence{}, nil
	}))
	must(Register("gravity", "narrative pull of the profile's texts", func() (Environment, error) {
		return NewGravity(), nil
	}))
}

func init() {
	registerBuiltins()
}
