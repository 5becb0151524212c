package scape

import (
	"context"
	"fmt"
	"math"

	"ethnos/internal/model"
)

// AxisTarget rewards profiles whose value weights sit close to a target
// point in axis space. Fitness is one minus the mean absolute distance
// to the targets, with missing axes counted as weight zero.
type AxisTarget struct {
	EnvName string
	Targets map[model.AxisKey]float64
}

// NewAxisTarget validates targets and returns the environment.
func NewAxisTarget(name string, targets map[model.AxisKey]float64) (*AxisTarget, error) {
	if name == "" {
		return nil, fmt.Errorf("axis target: empty name")
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("axis target %s: no targets", name)
	}
	for key, weight := range targets {
		if !model.ValidCategory(key.Category) {
			return nil, fmt.Errorf("axis target %s: unknown category in %s", name, key)
		}
		if weight < 0 || weight > 1 {
			return nil, fmt.Errorf("axis target %s: target %s weight %v outside [0,1]", name, key, weight)
		}
	}
	return &AxisTarget{EnvName: name, Targets: targets}, nil
}

func (e *AxisTarget) Name() string { return e.EnvName }

func (e *AxisTarget) Evaluate(ctx context.Context, p model.Profile) (float64, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	sum := 0.0
	for key, target := range e.Targets {
		sum += math.Abs(p.AxisWeight(key) - target)
	}
	return 1 - sum/float64(len(e.Targets)), nil
}
