package ethnos

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"ethnos/internal/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", BenchmarksDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func createTestProfile(t *testing.T, client *Client, id string, curiosity float64) model.Profile {
	t.Helper()
	p, err := client.CreateProfile(context.Background(), CreateProfileRequest{
		ID:          id,
		Name:        "culture " + id,
		Description: "test culture",
		Values: []model.ValueToken{
			{Name: "curiosity", Weight: curiosity, Category: model.CategoryCognitive},
			{Name: "loyalty", Weight: 0.5, Category: model.CategorySocial},
		},
		Memes: []model.Meme{{Text: "meme of " + id, Virality: 0.6}},
	})
	if err != nil {
		t.Fatalf("CreateProfile %s: %v", id, err)
	}
	return p
}

func TestCreateAndGetProfile(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	created := createTestProfile(t, client, "alpha", 0.8)
	got, err := client.GetProfile(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Name != "culture alpha" || len(got.Values) != 2 {
		t.Fatalf("profile = %+v", got)
	}

	if _, err := client.GetProfile(ctx, "missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("error = %v, want ErrProfileNotFound", err)
	}
}

func TestCreateProfileAssignsID(t *testing.T) {
	client := newTestClient(t)
	p, err := client.CreateProfile(context.Background(), CreateProfileRequest{
		Name:        "anonymous",
		Description: "no id supplied",
	})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestSynthesizePersistsProvenance(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	createTestProfile(t, client, "a", 0.9)
	createTestProfile(t, client, "b", 0.1)

	blend, err := client.Synthesize(ctx, SynthesizeRequest{
		SourceIDs: []string{"a", "b"},
		Weights:   []float64{3, 1},
		ID:        "blend",
		Name:      "blended culture",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	w := blend.AxisWeight(model.AxisKey{Name: "curiosity", Category: model.CategoryCognitive})
	want := 0.75*0.9 + 0.25*0.1
	if math.Abs(w-want) > 1e-12 {
		t.Fatalf("blended curiosity = %v, want %v", w, want)
	}

	entries, err := client.ResolveProvenance(ctx, "blend")
	if err != nil {
		t.Fatalf("ResolveProvenance: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	sum := 0.0
	for _, entry := range entries {
		if entry.Profile == nil {
			t.Fatalf("unresolved ancestor %q", entry.Ancestry.ProfileID)
		}
		sum += entry.Ancestry.Weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("provenance sum = %v", sum)
	}
}

func TestDistanceAndQuality(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	createTestProfile(t, client, "a", 0.9)
	createTestProfile(t, client, "b", 0.1)

	d, err := client.Distance(ctx, "a", "b", nil)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if d.Aggregate <= 0 || d.Affinity >= 1 {
		t.Fatalf("distance = %+v", d)
	}

	q, err := client.Quality(ctx, "a")
	if err != nil {
		t.Fatalf("Quality: %v", err)
	}
	if q.Overall < 0 || q.Overall > 1 {
		t.Fatalf("quality = %+v", q)
	}
}

func TestAmplify(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	createTestProfile(t, client, "a", 0.4)

	amplified, err := client.Amplify(ctx, AmplifyRequest{
		ProfileID: "a",
		Label:     "curiosity",
		Keywords:  []string{"curiosity"},
		Intensity: 2.0,
	})
	if err != nil {
		t.Fatalf("Amplify: %v", err)
	}
	w := amplified.AxisWeight(model.AxisKey{Name: "curiosity", Category: model.CategoryCognitive})
	if math.Abs(w-0.8) > 1e-12 {
		t.Fatalf("amplified weight = %v, want 0.8", w)
	}
	if _, err := client.GetProfile(ctx, amplified.ID); err != nil {
		t.Fatalf("amplified profile not stored: %v", err)
	}
}

func TestEvolvePersistsRun(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c", "d"} {
		createTestProfile(t, client, id, 0.2*float64(i+1))
	}

	summary, err := client.Evolve(ctx, EvolveRequest{
		Environment: "axis_target",
		Generations: 5,
		Seed:        42,
		Workers:     2,
		Elitism:     true,
	})
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	if summary.RunID == "" || len(summary.BestByGeneration) != 5 {
		t.Fatalf("summary = %+v", summary)
	}

	history, err := client.FitnessHistory(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("FitnessHistory: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("history = %v", history)
	}

	diagnostics, err := client.Diagnostics(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	if len(diagnostics) != 5 {
		t.Fatalf("diagnostics length = %d", len(diagnostics))
	}

	top, err := client.TopProfiles(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("TopProfiles: %v", err)
	}
	if len(top) == 0 || top[0].Fitness != summary.FinalBestFitness {
		t.Fatalf("top = %+v", top)
	}

	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, "config.json")); err != nil {
		t.Fatalf("missing artifacts: %v", err)
	}

	if _, err := client.GetProfile(ctx, summary.BestProfile.ID); err != nil {
		t.Fatalf("best profile not stored: %v", err)
	}

	runs, err := client.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("runs = %+v", runs)
	}
}

func TestEvolveZeroMutationRate(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	createTestProfile(t, client, "a", 0.3)
	createTestProfile(t, client, "b", 0.7)

	// With rate 0 the delta is never drawn, so identical seeds must give
	// identical histories whatever the delta.
	zero := 0.0
	small, large := 0.05, 0.9
	base := EvolveRequest{
		Environment: "axis_target",
		ProfileIDs:  []string{"a", "b"},
		Generations: 4,
		Seed:        9,
		Workers:     1,
	}
	first := base
	first.MutationRate = &zero
	first.MutationDelta = &small
	second := base
	second.MutationRate = &zero
	second.MutationDelta = &large

	a, err := client.Evolve(ctx, first)
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	b, err := client.Evolve(ctx, second)
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	if !reflect.DeepEqual(a.BestByGeneration, b.BestByGeneration) {
		t.Fatalf("zero mutation rate still applied deltas:\n%v\n%v", a.BestByGeneration, b.BestByGeneration)
	}
}

func TestEvolveUnknownEnvironment(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	createTestProfile(t, client, "a", 0.5)
	createTestProfile(t, client, "b", 0.6)

	if _, err := client.Evolve(ctx, EvolveRequest{Environment: "volcano", Generations: 1}); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestRenderStoredProfile(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	createTestProfile(t, client, "a", 0.8)

	out, err := client.Render(ctx, "a", 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "culture a") || !strings.Contains(out, "curiosity") {
		t.Fatalf("render output:\n%s", out)
	}
}

func TestEnvironmentsListing(t *testing.T) {
	client := newTestClient(t)
	envs := client.Environments(context.Background())
	if len(envs) < 3 {
		t.Fatalf("environments = %+v", envs)
	}
}
