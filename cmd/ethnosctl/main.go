package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ethnos/internal/evo"
	"ethnos/internal/model"
	"ethnos/internal/storage"
	ethnosapi "ethnos/pkg/ethnos"
)

const benchmarksDir = "benchmarks"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "create":
		return runCreate(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "list":
		return runList(ctx, args[1:])
	case "synthesize":
		return runSynthesize(ctx, args[1:])
	case "amplify":
		return runAmplify(ctx, args[1:])
	case "distance":
		return runDistance(ctx, args[1:])
	case "quality":
		return runQuality(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	case "evolve":
		return runEvolve(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "environments":
		return runEnvironments(ctx, args[1:])
	case "provenance":
		return runProvenance(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func storeFlags(fs *flag.FlagSet) (*string, *string) {
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "ethnos.db", "sqlite database path")
	return storeKind, dbPath
}

func newClient(ctx context.Context, storeKind, dbPath string) (*ethnosapi.Client, error) {
	client, err := ethnosapi.New(ethnosapi.Options{
		StoreKind:     storeKind,
		DBPath:        dbPath,
		BenchmarksDir: benchmarksDir,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	file := fs.String("file", "", "profile JSON file")
	id := fs.String("id", "", "profile id (generated when empty)")
	name := fs.String("name", "", "profile name")
	description := fs.String("description", "", "profile description")
	values := fs.String("values", "", "value tokens as category/name=weight;...")
	memes := fs.String("memes", "", "memes as text=virality;...")
	clamp := fs.Bool("clamp", false, "clamp out-of-range weights instead of rejecting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := ethnosapi.CreateProfileRequest{
		ID:          *id,
		Name:        *name,
		Description: *description,
		Clamp:       *clamp,
	}
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("parse %s: %w", *file, err)
		}
		if *id != "" {
			req.ID = *id
		}
		req.Clamp = *clamp
	} else {
		tokens, err := parseValues(*values)
		if err != nil {
			return err
		}
		req.Values = tokens
		parsed, err := parseMemes(*memes)
		if err != nil {
			return err
		}
		req.Memes = parsed
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	p, err := client.CreateProfile(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("created profile id=%s name=%q values=%d\n", p.ID, p.Name, len(p.Values))
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "profile id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("id is required")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	p, err := client.GetProfile(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	profiles, err := client.ListProfiles(ctx)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("no profiles found")
		return nil
	}
	for _, p := range profiles {
		fmt.Printf("%s\t%q\tvalues=%d memes=%d\n", p.ID, p.Name, len(p.Values), len(p.Memes))
	}
	return nil
}

func runSynthesize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("synthesize", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	sources := fs.String("sources", "", "comma-separated source profile ids")
	weights := fs.String("weights", "", "comma-separated weights, one per source")
	id := fs.String("id", "", "derived profile id (generated when empty)")
	name := fs.String("name", "", "derived profile name")
	description := fs.String("description", "", "derived profile description")
	threshold := fs.Float64("threshold", 0, "inclusion threshold in [0,1)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sources == "" {
		return errors.New("sources are required")
	}

	sourceIDs := strings.Split(*sources, ",")
	weightValues, err := parseFloats(*weights)
	if err != nil {
		return err
	}
	if len(weightValues) == 0 {
		weightValues = make([]float64, len(sourceIDs))
		for i := range weightValues {
			weightValues[i] = 1
		}
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	p, err := client.Synthesize(ctx, ethnosapi.SynthesizeRequest{
		SourceIDs:          sourceIDs,
		Weights:            weightValues,
		ID:                 *id,
		Name:               *name,
		Description:        *description,
		InclusionThreshold: *threshold,
	})
	if err != nil {
		return err
	}
	fmt.Printf("synthesized profile id=%s values=%d memes=%d\n", p.ID, len(p.Values), len(p.Memes))
	return nil
}

func runAmplify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("amplify", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "profile id")
	label := fs.String("label", "", "amplification label")
	category := fs.String("category", "", "match value tokens in this category")
	keywords := fs.String("keywords", "", "comma-separated name keywords to match")
	intensity := fs.Float64("intensity", 1.5, "scale factor for matching weights")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("id is required")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var keywordList []string
	if *keywords != "" {
		keywordList = strings.Split(*keywords, ",")
	}
	p, err := client.Amplify(ctx, ethnosapi.AmplifyRequest{
		ProfileID: *id,
		Label:     *label,
		Category:  model.Category(*category),
		Keywords:  keywordList,
		Intensity: *intensity,
	})
	if err != nil {
		return err
	}
	fmt.Printf("amplified profile id=%s\n", p.ID)
	return nil
}

func runDistance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("distance", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	a := fs.String("a", "", "first profile id")
	b := fs.String("b", "", "second profile id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *a == "" || *b == "" {
		return errors.New("both -a and -b are required")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	d, err := client.Distance(ctx, *a, *b, nil)
	if err != nil {
		return err
	}
	return printJSON(d)
}

func runQuality(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("quality", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "profile id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("id is required")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	q, err := client.Quality(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(q)
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "profile id")
	budget := fs.Int("budget", 0, "character budget (0 for default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("id is required")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	out, err := client.Render(ctx, *id, *budget)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runEvolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evolve", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	environment := fs.String("environment", "axis_target", "evolution environment")
	profiles := fs.String("profiles", "", "comma-separated initial profile ids (all stored when empty)")
	generations := fs.Int("generations", 20, "evaluated generations")
	selection := fs.Float64("selection", 0, "selection fraction (0 for default)")
	mutationRate := fs.Float64("mutation-rate", evo.DefaultMutationRate, "per-axis mutation probability (0 disables mutation)")
	mutationDelta := fs.Float64("mutation-delta", evo.DefaultMutationDelta, "mutation delta bound")
	operator := fs.String("operator", "", "mutation operator name (default perturb_axis_weights)")
	elitism := fs.Bool("elitism", false, "carry the best profile unchanged")
	seed := fs.Int64("seed", 0, "rng seed")
	workers := fs.Int("workers", 0, "evaluation workers (0 for NumCPU)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var profileIDs []string
	if *profiles != "" {
		profileIDs = strings.Split(*profiles, ",")
	}

	summary, err := client.Evolve(ctx, ethnosapi.EvolveRequest{
		Environment:       *environment,
		ProfileIDs:        profileIDs,
		Generations:       *generations,
		SelectionFraction: *selection,
		MutationRate:      mutationRate,
		MutationDelta:     mutationDelta,
		Operator:          *operator,
		Elitism:           *elitism,
		Seed:              *seed,
		Workers:           *workers,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run=%s final_best=%.4f best_profile=%s artifacts=%s\n",
		summary.RunID, summary.FinalBestFitness, summary.BestProfile.ID, summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		return printJSON(runs)
	}
	for _, item := range runs {
		fmt.Printf("%s\t%s\tenv=%s seed=%d pop=%d gens=%d best=%.4f\n",
			item.RunID, item.CreatedAtUTC, item.Environment, item.Seed,
			item.Population, item.Generations, item.FinalBestFitness)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("run is required")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	for generation, best := range history {
		fmt.Printf("%d\t%.6f\n", generation, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("run is required")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	return printJSON(diagnostics)
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	runID := fs.String("run", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("run is required")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	top, err := client.TopProfiles(ctx, *runID)
	if err != nil {
		return err
	}
	for _, record := range top {
		fmt.Printf("%d\t%.6f\t%s\t%q\n", record.Rank, record.Fitness, record.Profile.ID, record.Profile.Name)
	}
	return nil
}

func runEnvironments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("environments", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, env := range client.Environments(ctx) {
		fmt.Printf("%s\t%s\n", env.Name, env.Summary)
	}
	return nil
}

func runProvenance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("provenance", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	id := fs.String("id", "", "profile id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("id is required")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	entries, err := client.ResolveProvenance(ctx, *id)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no provenance recorded")
		return nil
	}
	for _, entry := range entries {
		name := "(missing)"
		if entry.Profile != nil {
			name = fmt.Sprintf("%q", entry.Profile.Name)
		}
		fmt.Printf("%s\t%.4f\t%s\n", entry.Ancestry.ProfileID, entry.Ancestry.Weight, name)
	}
	return nil
}

func parseValues(raw string) ([]model.ValueToken, error) {
	if raw == "" {
		return nil, nil
	}
	var tokens []model.ValueToken
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, weightText, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid value token %q, want category/name=weight", part)
		}
		category, name, ok := strings.Cut(key, "/")
		if !ok {
			return nil, fmt.Errorf("invalid value token %q, want category/name=weight", part)
		}
		weight, err := strconv.ParseFloat(weightText, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", part, err)
		}
		tokens = append(tokens, model.ValueToken{
			Name:     strings.TrimSpace(name),
			Weight:   weight,
			Category: model.Category(strings.TrimSpace(category)),
		})
	}
	return tokens, nil
}

func parseMemes(raw string) ([]model.Meme, error) {
	if raw == "" {
		return nil, nil
	}
	var memes []model.Meme
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		text, viralityText, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid meme %q, want text=virality", part)
		}
		virality, err := strconv.ParseFloat(viralityText, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid virality in %q: %w", part, err)
		}
		memes = append(memes, model.Meme{Text: strings.TrimSpace(text), Virality: virality})
	}
	return memes, nil
}

func parseFloats(raw string) ([]float64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, len(parts))
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", part, err)
		}
		out[i] = value
	}
	return out, nil
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: ethnosctl <init|create|show|list|synthesize|amplify|distance|quality|render|evolve|runs|fitness|diagnostics|top|environments|provenance> [flags]", msg)
}
