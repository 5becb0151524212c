package storage

import (
	"context"

	"ethnos/internal/model"
)

// Store defines persistence for culture profiles and simulation runs.
type Store interface {
	Init(ctx context.Context) error
	SaveProfile(ctx context.Context, profile model.Profile) error
	GetProfile(ctx context.Context, id string) (model.Profile, bool, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	SaveEnvironmentSummary(ctx context.Context, summary model.EnvironmentSummary) error
	GetEnvironmentSummary(ctx context.Context, name string) (model.EnvironmentSummary, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveTopProfiles(ctx context.Context, runID string, top []model.TopProfileRecord) error
	GetTopProfiles(ctx context.Context, runID string) ([]model.TopProfileRecord, bool, error)
}
