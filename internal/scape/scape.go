// Package scape provides the environments a simulation scores profiles
// against. Every environment is deterministic: the same profile always
// gets the same fitness.
package scape

import (
	"context"

	"ethnos/internal/model"
)

// Environment scores a profile's fit. Fitness is in [0, 1], higher is
// better. Implementations must be safe for concurrent use.
type Environment interface {
	Name() string
	Evaluate(ctx context.Context, p model.Profile) (float64, error)
}

// Description pairs an environment name with a human summary, for
// listings.
type Description struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
