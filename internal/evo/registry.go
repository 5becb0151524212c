package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrOperatorExists is returned when registering a duplicate name.
	ErrOperatorExists = errors.New("operator already registered")
	// ErrOperatorUnknown is returned when looking up an unregistered name.
	ErrOperatorUnknown = errors.New("unknown operator")
)

// OperatorParams configures an operator built from the registry.
type OperatorParams struct {
	Rate  float64
	Delta float64
}

// OperatorFactory builds an operator from params.
type OperatorFactory func(params OperatorParams) (Operator, error)

var operatorRegistry = struct {
	mu        sync.RWMutex
	factories map[string]OperatorFactory
}{factories: map[string]OperatorFactory{}}

// RegisterOperator adds a named operator factory. Registration is
// typically done from init funcs and must not race with lookups.
func RegisterOperator(name string, factory OperatorFactory) error {
	if name == "" {
		return fmt.Errorf("register operator: empty name")
	}
	if factory == nil {
		return fmt.Errorf("register operator %q: nil factory", name)
	}
	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()
	if _, dup := operatorRegistry.factories[name]; dup {
		return fmt.Errorf("%w: %s", ErrOperatorExists, name)
	}
	operatorRegistry.factories[name] = factory
	return nil
}

// NewOperator builds a registered operator by name.
func NewOperator(name string, params OperatorParams) (Operator, error) {
	operatorRegistry.mu.RLock()
	factory, ok := operatorRegistry.factories[name]
	operatorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorUnknown, name)
	}
	return factory(params)
}

// ListOperators returns registered names in sorted order.
func ListOperators() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()
	names := make([]string, 0, len(operatorRegistry.factories))
	for name := range operatorRegistry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetOperatorRegistryForTests() {
	operatorRegistry.mu.Lock()
	operatorRegistry.factories = map[string]OperatorFactory{}
	operatorRegistry.mu.Unlock()
	registerBuiltinOperators()
}

func validateOperatorParams(name string, params OperatorParams) error {
	if params.Rate < 0 || params.Rate > 1 {
		return fmt.Errorf("operator %s: rate %v outside [0,1]", name, params.Rate)
	}
	if params.Delta < 0 || params.Delta > 1 {
		return fmt.Errorf("operator %s: delta %v outside [0,1]", name, params.Delta)
	}
	return nil
}

func registerBuiltinOperators() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(RegisterOperator("perturb_axis_weights", func(params OperatorParams) (Operator, error) {
		if err := validateOperatorParams("perturb_axis_weights", params); err != nil {
			return nil, err
		}
		return PerturbAxisWeights{Rate: params.Rate, Delta: params.Delta}, nil
	}))
	must(RegisterOperator("shift_meme_virality", func(params OperatorParams) (Operator, error) {
		if err := validateOperatorParams("shift_meme_virality", params); err != nil {
			return nil, err
		}
		return ShiftMemeVirality{Rate: params.Rate, Delta: params.Delta}, nil
	}))
}

func init() {
	registerBuiltinOperators()
}

var (
	_ Operator = PerturbAxisWeights{}
	_ Operator = ShiftMemeVirality{}
)
