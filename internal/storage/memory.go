package storage

import (
	"context"
	"sort"
	"sync"

	"ethnos/internal/model"
	"ethnos/internal/profile"
)

type MemoryStore struct {
	mu           sync.RWMutex
	initialized  bool
	profiles     map[string]model.Profile
	environments map[string]model.EnvironmentSummary
	history      map[string][]float64
	diagnostics  map[string][]model.GenerationDiagnostics
	topProfiles  map[string][]model.TopProfileRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.profiles = make(map[string]model.Profile)
	s.environments = make(map[string]model.EnvironmentSummary)
	s.history = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.GenerationDiagnostics)
	s.topProfiles = make(map[string][]model.TopProfileRecord)
	return nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.ID] = profile.Clone(p)
	return nil
}

func (s *MemoryStore) GetProfile(_ context.Context, id string) (model.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, false, nil
	}
	return profile.Clone(p), true, nil
}

func (s *MemoryStore) ListProfiles(_ context.Context) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, profile.Clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SaveEnvironmentSummary(_ context.Context, summary model.EnvironmentSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.environments[summary.Name] = summary
	return nil
}

func (s *MemoryStore) GetEnvironmentSummary(_ context.Context, name string) (model.EnvironmentSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.environments[name]
	return summary, ok, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveGenerationDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.diagnostics[runID] = append([]model.GenerationDiagnostics(nil), diagnostics...)
	return nil
}

func (s *MemoryStore) GetGenerationDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.GenerationDiagnostics(nil), diagnostics...), true, nil
}

func (s *MemoryStore) SaveTopProfiles(_ context.Context, runID string, top []model.TopProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]model.TopProfileRecord, len(top))
	for i, record := range top {
		record.Profile = profile.Clone(record.Profile)
		records[i] = record
	}
	s.topProfiles[runID] = records
	return nil
}

func (s *MemoryStore) GetTopProfiles(_ context.Context, runID string) ([]model.TopProfileRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top, ok := s.topProfiles[runID]
	if !ok {
		return nil, false, nil
	}
	records := make([]model.TopProfileRecord, len(top))
	for i, record := range top {
		record.Profile = profile.Clone(record.Profile)
		records[i] = record
	}
	return records, true, nil
}
