package stats

import (
	"path/filepath"
	"testing"

	"ethnos/internal/model"
)

func sampleArtifacts(runID string) RunArtifacts {
	return RunArtifacts{
		Config: RunConfig{
			RunID:          runID,
			Environment:    "gravity",
			PopulationSize: 8,
			Generations:    3,
			Seed:           42,
			Workers:        2,
		},
		BestByGeneration: []float64{0.2, 0.5, 0.8},
		GenerationDiagnostics: []model.GenerationDiagnostics{
			{Generation: 0, BestFitness: 0.2, MeanFitness: 0.1, MinFitness: 0.0},
		},
		FinalBestFitness: 0.8,
		TopProfiles: []model.TopProfileRecord{
			{Rank: 0, Fitness: 0.8, Profile: model.Profile{
				VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
				ID:              "best", Name: "best", Description: "best",
			}},
		},
	}
}

func TestWriteAndReadRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-1"))
	if err != nil {
		t.Fatalf("WriteRunArtifacts: %v", err)
	}
	if runDir != filepath.Join(baseDir, "run-1") {
		t.Fatalf("runDir = %q", runDir)
	}

	cfg, ok, err := ReadRunConfig(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("ReadRunConfig: ok=%v err=%v", ok, err)
	}
	if cfg.Environment != "gravity" || cfg.Seed != 42 {
		t.Fatalf("config = %+v", cfg)
	}

	top, ok, err := ReadTopProfiles(baseDir, "run-1")
	if err != nil || !ok || len(top) != 1 || top[0].Profile.ID != "best" {
		t.Fatalf("ReadTopProfiles: %v %v %v", top, ok, err)
	}

	series, ok, err := ReadFitnessSeries(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("ReadFitnessSeries: ok=%v err=%v", ok, err)
	}
	if len(series) != 3 || series[2] != 0.8 {
		t.Fatalf("series = %v", series)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestRunIndexAppendAndReplace(t *testing.T) {
	baseDir := t.TempDir()
	first := RunIndexEntry{RunID: "run-1", Environment: "gravity", FinalBestFitness: 0.5, CreatedAtUTC: "2026-01-01T00:00:00Z"}
	second := RunIndexEntry{RunID: "run-2", Environment: "coherence", FinalBestFitness: 0.6, CreatedAtUTC: "2026-01-02T00:00:00Z"}
	if err := AppendRunIndex(baseDir, first); err != nil {
		t.Fatalf("AppendRunIndex: %v", err)
	}
	if err := AppendRunIndex(baseDir, second); err != nil {
		t.Fatalf("AppendRunIndex: %v", err)
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("ListRunIndex: %v", err)
	}
	if len(index) != 2 || index[0].RunID != "run-2" {
		t.Fatalf("index = %+v, want newest first", index)
	}

	first.FinalBestFitness = 0.9
	if err := AppendRunIndex(baseDir, first); err != nil {
		t.Fatalf("AppendRunIndex replace: %v", err)
	}
	index, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("ListRunIndex: %v", err)
	}
	if len(index) != 2 {
		t.Fatalf("replace grew index: %+v", index)
	}
	for _, entry := range index {
		if entry.RunID == "run-1" && entry.FinalBestFitness != 0.9 {
			t.Fatalf("entry not replaced: %+v", entry)
		}
	}
}

func TestListRunIndexEmptyDir(t *testing.T) {
	index, err := ListRunIndex(t.TempDir())
	if err != nil {
		t.Fatalf("ListRunIndex: %v", err)
	}
	if len(index) != 0 {
		t.Fatalf("index = %+v, want empty", index)
	}
}

func TestReadMissingRun(t *testing.T) {
	baseDir := t.TempDir()
	if _, ok, err := ReadRunConfig(baseDir, "nope"); err != nil || ok {
		t.Fatalf("ReadRunConfig: ok=%v err=%v", ok, err)
	}
	if _, ok, err := ReadTopProfiles(baseDir, "nope"); err != nil || ok {
		t.Fatalf("ReadTopProfiles: ok=%v err=%v", ok, err)
	}
	if _, ok, err := ReadFitnessSeries(baseDir, "nope"); err != nil || ok {
		t.Fatalf("ReadFitnessSeries: ok=%v err=%v", ok, err)
	}
}
