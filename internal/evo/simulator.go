// Package evo runs seeded generational simulations over culture
// profiles. A run is reproducible bit for bit: all randomness flows
// through one rand.Rand owned by the simulator, drawn from only in the
// single-threaded breeding phase.
package evo

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"ethnos/internal/model"
	"ethnos/internal/profile"
	"ethnos/internal/synth"
)

// Evaluator scores a profile against an environment. Implementations
// must be safe for concurrent use and deterministic for a given profile.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, p model.Profile) (float64, error)
}

// EvaluationError wraps an evaluator failure with the generation it
// occurred in. A run aborts on the first one.
type EvaluationError struct {
	Generation int
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed at generation %d: %v", e.Generation, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// State is the simulator lifecycle phase.
type State int

const (
	StateInitialized State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ScoredProfile pairs a profile with its fitness.
type ScoredProfile struct {
	Profile model.Profile `json:"profile"`
	Fitness float64       `json:"fitness"`
}

// GenerationSnapshot records one evaluated generation, ranked best
// first.
type GenerationSnapshot struct {
	Generation  int                         `json:"generation"`
	Ranked      []ScoredProfile             `json:"ranked"`
	Diagnostics model.GenerationDiagnostics `json:"diagnostics"`
}

// Trajectory is the ordered record of a run's generations. On abort it
// holds the generations completed before the failure.
type Trajectory []GenerationSnapshot

// Best returns the top profile of the last recorded generation.
func (t Trajectory) Best() (ScoredProfile, bool) {
	if len(t) == 0 || len(t[len(t)-1].Ranked) == 0 {
		return ScoredProfile{}, false
	}
	return t[len(t)-1].Ranked[0], true
}

// Defaults applied by NewSimulator for unset config fields.
const (
	DefaultSelectionFraction = 0.5
	DefaultMutationRate      = 0.1
	DefaultMutationDelta     = 0.05
	DefaultIDPrefix          = "pop"
)

// Children blend their two parents with a weight drawn uniformly from
// [blendFloor, 1-blendFloor], so both parents always contribute.
const blendFloor = 0.05

// Config drives a simulation run.
type Config struct {
	// Evaluator scores profiles each generation. Required.
	Evaluator Evaluator
	// Generations is the number of evaluated generations. Required.
	Generations int
	// SelectionFraction is the share of the ranked population eligible
	// as parents. Defaults to DefaultSelectionFraction.
	SelectionFraction float64
	// MutationRate and MutationDelta parameterize the default operator
	// when Operator is nil. Nil selects DefaultMutationRate and
	// DefaultMutationDelta; an explicit zero rate disables mutation.
	MutationRate  *float64
	MutationDelta *float64
	// Operator overrides the default PerturbAxisWeights mutation.
	Operator Operator
	// Elitism copies the best profile unchanged into each next
	// generation.
	Elitism bool
	// Seed fixes the run's random trajectory.
	Seed int64
	// Workers bounds concurrent evaluations. Defaults to NumCPU.
	Workers int
	// IDPrefix namespaces generated child profile IDs.
	IDPrefix string
}

func (c *Config) applyDefaults() {
	if c.SelectionFraction == 0 {
		c.SelectionFraction = DefaultSelectionFraction
	}
	if c.MutationRate == nil {
		rate := DefaultMutationRate
		c.MutationRate = &rate
	}
	if c.MutationDelta == nil {
		delta := DefaultMutationDelta
		c.MutationDelta = &delta
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.IDPrefix == "" {
		c.IDPrefix = DefaultIDPrefix
	}
}

func (c Config) validate() error {
	if c.Evaluator == nil {
		return fmt.Errorf("simulator config: nil evaluator")
	}
	if c.Generations < 1 {
		return fmt.Errorf("simulator config: generations %d, want >= 1", c.Generations)
	}
	if c.SelectionFraction <= 0 || c.SelectionFraction > 1 {
		return fmt.Errorf("simulator config: selection fraction %v outside (0,1]", c.SelectionFraction)
	}
	if *c.MutationRate < 0 || *c.MutationRate > 1 {
		return fmt.Errorf("simulator config: mutation rate %v outside [0,1]", *c.MutationRate)
	}
	if *c.MutationDelta < 0 || *c.MutationDelta > 1 {
		return fmt.Errorf("simulator config: mutation delta %v outside [0,1]", *c.MutationDelta)
	}
	if c.Workers < 1 {
		return fmt.Errorf("simulator config: workers %d, want >= 1", c.Workers)
	}
	return nil
}

// Simulator evolves a fixed-size population. A simulator runs once;
// build a new one for a new run.
type Simulator struct {
	cfg      Config
	selector Selector
	operator Operator
	blender  *synth.Engine

	mu         sync.Mutex
	state      State
	population []model.Profile
}

// NewSimulator validates cfg and the initial population. The population
// needs at least two profiles with unique, non-empty IDs; its length
// fixes the population size for the whole run.
func NewSimulator(cfg Config, initial []model.Profile) (*Simulator, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(initial) < 2 {
		return nil, fmt.Errorf("simulator: initial population %d, want >= 2", len(initial))
	}
	seen := make(map[string]struct{}, len(initial))
	for i, p := range initial {
		if p.ID == "" {
			return nil, fmt.Errorf("simulator: initial profile %d has empty id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("simulator: duplicate initial profile id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	operator := cfg.Operator
	if operator == nil {
		operator = PerturbAxisWeights{Rate: *cfg.MutationRate, Delta: *cfg.MutationDelta}
	}
	blender, err := synth.NewEngine(synth.Config{})
	if err != nil {
		return nil, err
	}

	population := make([]model.Profile, len(initial))
	for i, p := range initial {
		population[i] = profile.Clone(p)
	}

	return &Simulator{
		cfg:        cfg,
		selector:   Selector{Fraction: cfg.SelectionFraction},
		operator:   operator,
		blender:    blender,
		state:      StateInitialized,
		population: population,
	}, nil
}

// State reports the current lifecycle phase.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Simulator) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run executes the simulation. Cancellation is honored between
// generations, never mid-evaluation sweep. On error the returned
// trajectory holds the generations completed before the abort.
func (s *Simulator) Run(ctx context.Context) (Trajectory, error) {
	s.mu.Lock()
	if s.state != StateInitialized {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("simulator: run in state %s", state)
	}
	s.state = StateRunning
	s.mu.Unlock()

	rng := rand.New(rand.NewSource(s.cfg.Seed))
	trajectory := make(Trajectory, 0, s.cfg.Generations)

	for generation := 0; generation < s.cfg.Generations; generation++ {
		if err := ctx.Err(); err != nil {
			s.setState(StateAborted)
			return trajectory, fmt.Errorf("run aborted before generation %d: %w", generation, err)
		}

		ranked, err := s.evaluate(ctx, generation)
		if err != nil {
			s.setState(StateAborted)
			return trajectory, err
		}
		trajectory = append(trajectory, GenerationSnapshot{
			Generation:  generation,
			Ranked:      ranked,
			Diagnostics: diagnostics(generation, ranked),
		})

		if generation == s.cfg.Generations-1 {
			break
		}
		if err := s.breed(rng, generation, ranked); err != nil {
			s.setState(StateAborted)
			return trajectory, err
		}
	}

	s.setState(StateCompleted)
	return trajectory, nil
}

// evaluate scores the whole population concurrently, then ranks it best
// first with profile ID as the tie break. The sweep is a barrier: no
// breeding randomness is drawn until every score is in.
func (s *Simulator) evaluate(ctx context.Context, generation int) ([]ScoredProfile, error) {
	population := s.population
	results := make([]ScoredProfile, len(population))
	errs := make([]error, len(population))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fitness, err := s.cfg.Evaluator.Evaluate(ctx, population[i])
				results[i] = ScoredProfile{Profile: population[i], Fitness: fitness}
				errs[i] = err
			}
		}()
	}
	for i := range population {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, &EvaluationError{Generation: generation, Err: err}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Fitness != results[j].Fitness {
			return results[i].Fitness > results[j].Fitness
		}
		return results[i].Profile.ID < results[j].Profile.ID
	})
	return results, nil
}

// breed builds the next population from the ranked current one. All rng
// draws happen here, child by child, in index order.
func (s *Simulator) breed(rng *rand.Rand, generation int, ranked []ScoredProfile) error {
	n := len(ranked)
	next := make([]model.Profile, n)
	start := 0
	if s.cfg.Elitism {
		next[0] = profile.Clone(ranked[0].Profile)
		start = 1
	}

	poolSize := s.selector.PoolSize(n)
	for i := start; i < n; i++ {
		first := s.selector.PickParent(rng, poolSize)
		second := first
		for second == first {
			second = s.selector.PickParent(rng, poolSize)
		}
		blend := blendFloor + (1-2*blendFloor)*rng.Float64()

		child, err := s.blender.Synthesize(
			[]model.Profile{ranked[first].Profile, ranked[second].Profile},
			[]float64{blend, 1 - blend},
			synth.Options{ID: fmt.Sprintf("%s-g%d-i%d", s.cfg.IDPrefix, generation+1, i)},
		)
		if err != nil {
			return fmt.Errorf("breed generation %d: %w", generation+1, err)
		}
		next[i] = s.operator.Apply(rng, child)
	}

	s.population = next
	return nil
}

func diagnostics(generation int, ranked []ScoredProfile) model.GenerationDiagnostics {
	d := model.GenerationDiagnostics{
		Generation:  generation,
		BestFitness: ranked[0].Fitness,
		MinFitness:  ranked[len(ranked)-1].Fitness,
	}
	sum := 0.0
	for _, scored := range ranked {
		sum += scored.Fitness
	}
	d.MeanFitness = sum / float64(len(ranked))
	return d
}
