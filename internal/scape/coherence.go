package scape

import (
	"context"

	"ethnos/internal/metric"
	"ethnos/internal/model"
)

// Coherence scores profiles by structural quality: internally aligned,
// reasonably complex, stable cultures win regardless of which values
// they hold.
type Coherence struct{}

func (Coherence) Name() string { return "coherence" }

func (Coherence) Evaluate(ctx context.Context, p model.Profile) (float64, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	return metric.ProfileQuality(p).Overall, nil
}
