// Package ethnos is the public facade over profile construction,
// synthesis, evolution and rendering. It owns persistence wiring so
// embedders and the CLI share one orchestration path.
package ethnos

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ethnos/internal/evo"
	"ethnos/internal/metric"
	"ethnos/internal/model"
	"ethnos/internal/profile"
	"ethnos/internal/render"
	"ethnos/internal/scape"
	"ethnos/internal/stats"
	"ethnos/internal/storage"
	"ethnos/internal/synth"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultDBPath        = "ethnos.db"
	topProfileCount      = 5
)

// ErrProfileNotFound is returned when a requested profile id is absent
// from the store.
var ErrProfileNotFound = errors.New("profile not found")

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
}

type Client struct {
	store         storage.Store
	benchmarksDir string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		benchmarksDir: benchmarksDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

type CreateProfileRequest struct {
	ID          string
	Name        string
	Description string
	Values      []model.ValueToken
	Memes       []model.Meme
	Practices   []model.Practice
	Myths       []model.Myth
	// Clamp accepts out-of-range weights by clamping them to [0, 1]
	// instead of rejecting the profile.
	Clamp bool
}

// CreateProfile validates, normalizes and stores a hand-authored
// profile. A fresh ID is assigned when the request leaves it empty.
func (c *Client) CreateProfile(ctx context.Context, req CreateProfileRequest) (model.Profile, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	var opts []profile.Option
	if req.Clamp {
		opts = append(opts, profile.WithClamping())
	}

	p, err := profile.New(model.Profile{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Values:      req.Values,
		Memes:       req.Memes,
		Practices:   req.Practices,
		Myths:       req.Myths,
	}, opts...)
	if err != nil {
		return model.Profile{}, err
	}

	if err := c.store.SaveProfile(ctx, p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func (c *Client) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	p, ok, err := c.store.GetProfile(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}
	if !ok {
		return model.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return p, nil
}

func (c *Client) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	return c.store.ListProfiles(ctx)
}

type SynthesizeRequest struct {
	SourceIDs          []string
	Weights            []float64
	ID                 string
	Name               string
	Description        string
	InclusionThreshold float64
}

// Synthesize blends stored profiles and stores the result.
func (c *Client) Synthesize(ctx context.Context, req SynthesizeRequest) (model.Profile, error) {
	sources := make([]model.Profile, len(req.SourceIDs))
	for i, id := range req.SourceIDs {
		p, err := c.GetProfile(ctx, id)
		if err != nil {
			return model.Profile{}, err
		}
		sources[i] = p
	}

	engine, err := synth.NewEngine(synth.Config{InclusionThreshold: req.InclusionThreshold})
	if err != nil {
		return model.Profile{}, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	p, err := engine.Synthesize(sources, req.Weights, synth.Options{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return model.Profile{}, err
	}

	if err := c.store.SaveProfile(ctx, p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

type AmplifyRequest struct {
	ProfileID string
	Label     string
	Category  model.Category
	Keywords  []string
	Intensity float64
}

// Amplify scales matching value weights of a stored profile and stores
// the amplified copy.
func (c *Client) Amplify(ctx context.Context, req AmplifyRequest) (model.Profile, error) {
	p, err := c.GetProfile(ctx, req.ProfileID)
	if err != nil {
		return model.Profile{}, err
	}
	amplified, err := synth.Amplify(p, synth.AmplifyTarget{
		Label:    req.Label,
		Category: req.Category,
		Keywords: req.Keywords,
	}, req.Intensity)
	if err != nil {
		return model.Profile{}, err
	}
	if err := c.store.SaveProfile(ctx, amplified); err != nil {
		return model.Profile{}, err
	}
	return amplified, nil
}

// Distance measures two stored profiles.
func (c *Client) Distance(ctx context.Context, aID, bID string, categoryWeights map[model.Category]float64) (metric.Distance, error) {
	a, err := c.GetProfile(ctx, aID)
	if err != nil {
		return metric.Distance{}, err
	}
	b, err := c.GetProfile(ctx, bID)
	if err != nil {
		return metric.Distance{}, err
	}
	return metric.CulturalDistance(a, b, metric.DistanceConfig{CategoryWeights: categoryWeights})
}

// Quality scores a stored profile's internal structure.
func (c *Client) Quality(ctx context.Context, id string) (metric.Quality, error) {
	p, err := c.GetProfile(ctx, id)
	if err != nil {
		return metric.Quality{}, err
	}
	return metric.ProfileQuality(p), nil
}

// Render builds the context block for a stored profile. A budget of
// zero uses the default.
func (c *Client) Render(ctx context.Context, id string, budget int) (string, error) {
	p, err := c.GetProfile(ctx, id)
	if err != nil {
		return "", err
	}
	if budget == 0 {
		budget = render.DefaultBudget
	}
	return render.Render(p, budget)
}

type EvolveRequest struct {
	Environment       string
	ProfileIDs        []string
	Generations       int
	SelectionFraction float64
	// MutationRate and MutationDelta follow evo.Config: nil selects the
	// simulator defaults, an explicit zero rate disables mutation.
	MutationRate  *float64
	MutationDelta *float64
	Operator      string
	Elitism           bool
	Seed              int64
	Workers           int
}

type EvolveSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	FinalBestFitness float64
	BestProfile      model.Profile
}

// Evolve runs a seeded simulation over stored profiles, persisting the
// run's fitness history, diagnostics, top profiles and file artifacts.
// When ProfileIDs is empty the whole store is the initial population.
func (c *Client) Evolve(ctx context.Context, req EvolveRequest) (EvolveSummary, error) {
	if req.Environment == "" {
		req.Environment = "axis_target"
	}
	if req.Generations <= 0 {
		req.Generations = 20
	}

	env, err := scape.New(req.Environment)
	if err != nil {
		return EvolveSummary{}, err
	}

	var initial []model.Profile
	if len(req.ProfileIDs) == 0 {
		initial, err = c.store.ListProfiles(ctx)
		if err != nil {
			return EvolveSummary{}, err
		}
	} else {
		initial = make([]model.Profile, len(req.ProfileIDs))
		for i, id := range req.ProfileIDs {
			p, err := c.GetProfile(ctx, id)
			if err != nil {
				return EvolveSummary{}, err
			}
			initial[i] = p
		}
	}

	mutationRate := evo.DefaultMutationRate
	if req.MutationRate != nil {
		mutationRate = *req.MutationRate
	}
	mutationDelta := evo.DefaultMutationDelta
	if req.MutationDelta != nil {
		mutationDelta = *req.MutationDelta
	}

	var operator evo.Operator
	if req.Operator != "" {
		operator, err = evo.NewOperator(req.Operator, evo.OperatorParams{
			Rate:  mutationRate,
			Delta: mutationDelta,
		})
		if err != nil {
			return EvolveSummary{}, err
		}
	}

	sim, err := evo.NewSimulator(evo.Config{
		Evaluator:         env,
		Generations:       req.Generations,
		SelectionFraction: req.SelectionFraction,
		MutationRate:      &mutationRate,
		MutationDelta:     &mutationDelta,
		Operator:          operator,
		Elitism:           req.Elitism,
		Seed:              req.Seed,
		Workers:           req.Workers,
	}, initial)
	if err != nil {
		return EvolveSummary{}, err
	}

	trajectory, runErr := sim.Run(ctx)
	if runErr != nil {
		return EvolveSummary{}, runErr
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%d", req.Environment, req.Seed, now.Unix())

	best, _ := trajectory.Best()
	bestByGeneration := make([]float64, len(trajectory))
	diagnostics := make([]model.GenerationDiagnostics, len(trajectory))
	for i, snapshot := range trajectory {
		bestByGeneration[i] = snapshot.Diagnostics.BestFitness
		diagnostics[i] = snapshot.Diagnostics
	}

	final := trajectory[len(trajectory)-1].Ranked
	top := make([]model.TopProfileRecord, 0, topProfileCount)
	for rank, scored := range final {
		if rank >= topProfileCount {
			break
		}
		top = append(top, model.TopProfileRecord{Rank: rank, Fitness: scored.Fitness, Profile: scored.Profile})
	}

	if err := c.store.SaveProfile(ctx, best.Profile); err != nil {
		return EvolveSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, bestByGeneration); err != nil {
		return EvolveSummary{}, err
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, diagnostics); err != nil {
		return EvolveSummary{}, err
	}
	if err := c.store.SaveTopProfiles(ctx, runID, top); err != nil {
		return EvolveSummary{}, err
	}
	if err := c.store.SaveEnvironmentSummary(ctx, model.EnvironmentSummary{
		VersionedRecord: model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion, CodecVersion: storage.CurrentCodecVersion},
		Name:            req.Environment,
		Description:     environmentSummaryText(req.Environment),
		BestFitness:     best.Fitness,
	}); err != nil {
		return EvolveSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:             runID,
			Environment:       req.Environment,
			PopulationSize:    len(initial),
			Generations:       req.Generations,
			SelectionFraction: req.SelectionFraction,
			MutationRate:      mutationRate,
			MutationDelta:     mutationDelta,
			Operator:          req.Operator,
			Elitism:           req.Elitism,
			Seed:              req.Seed,
			Workers:           req.Workers,
		},
		BestByGeneration:      bestByGeneration,
		GenerationDiagnostics: diagnostics,
		FinalBestFitness:      best.Fitness,
		TopProfiles:           top,
	})
	if err != nil {
		return EvolveSummary{}, err
	}

	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:            runID,
		Environment:      req.Environment,
		PopulationSize:   len(initial),
		Generations:      req.Generations,
		Seed:             req.Seed,
		Workers:          req.Workers,
		Elitism:          req.Elitism,
		FinalBestFitness: best.Fitness,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return EvolveSummary{}, err
	}

	return EvolveSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByGeneration: bestByGeneration,
		FinalBestFitness: best.Fitness,
		BestProfile:      best.Profile,
	}, nil
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Environment      string
	Seed             int64
	Population       int
	Generations      int
	Elitism          bool
	FinalBestFitness float64
}

// Runs lists recorded runs, newest first.
func (c *Client) Runs(_ context.Context, limit int) ([]RunItem, error) {
	if limit <= 0 {
		limit = 20
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}

	items := make([]RunItem, 0, limit)
	for _, entry := range entries {
		if len(items) == limit {
			break
		}
		items = append(items, RunItem{
			RunID:            entry.RunID,
			CreatedAtUTC:     entry.CreatedAtUTC,
			Environment:      entry.Environment,
			Seed:             entry.Seed,
			Population:       entry.PopulationSize,
			Generations:      entry.Generations,
			Elitism:          entry.Elitism,
			FinalBestFitness: entry.FinalBestFitness,
		})
	}
	return items, nil
}

// FitnessHistory returns a run's best-by-generation series, consulting
// the store first and falling back to file artifacts.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, error) {
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return history, nil
	}
	series, ok, err := stats.ReadFitnessSeries(c.benchmarksDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return series, nil
}

// Diagnostics returns a run's per-generation statistics.
func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, error) {
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return diagnostics, nil
}

// TopProfiles returns a run's best profiles, consulting the store first
// and falling back to file artifacts.
func (c *Client) TopProfiles(ctx context.Context, runID string) ([]model.TopProfileRecord, error) {
	top, ok, err := c.store.GetTopProfiles(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return top, nil
	}
	read, ok, err := stats.ReadTopProfiles(c.benchmarksDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return read, nil
}

// ProvenanceEntry resolves one ancestry link. Profile is nil when the
// ancestor is no longer in the store.
type ProvenanceEntry struct {
	Ancestry model.Ancestry
	Profile  *model.Profile
}

// ResolveProvenance expands a profile's ancestry into stored profiles.
func (c *Client) ResolveProvenance(ctx context.Context, id string) ([]ProvenanceEntry, error) {
	p, err := c.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	entries := make([]ProvenanceEntry, len(p.Provenance))
	for i, ancestry := range p.Provenance {
		entries[i] = ProvenanceEntry{Ancestry: ancestry}
		ancestor, ok, err := c.store.GetProfile(ctx, ancestry.ProfileID)
		if err != nil {
			return nil, err
		}
		if ok {
			entries[i].Profile = &ancestor
		}
	}
	return entries, nil
}

// Environments lists the registered evolution environments.
func (c *Client) Environments(_ context.Context) []scape.Description {
	return scape.List()
}

func environmentSummaryText(name string) string {
	for _, desc := range scape.List() {
		if desc.Name == name {
			return desc.Summary
		}
	}
	return name
}
