package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/heatplate/internal/fsutil"
	"github.com/banshee-data/heatplate/internal/relax"
	"github.com/banshee-data/heatplate/internal/testutil"
)

func TestDefaultSolverConfig(t *testing.T) {
	cfg := DefaultSolverConfig()

	if cfg.Rows == nil || *cfg.Rows != 10 {
		t.Errorf("Expected Rows 10, got %v", cfg.Rows)
	}
	if cfg.Epsilon == nil || *cfg.Epsilon != 1e-6 {
		t.Errorf("Expected Epsilon 1e-6, got %v", cfg.Epsilon)
	}
	if cfg.ReportElapsed == nil || *cfg.ReportElapsed != true {
		t.Errorf("Expected ReportElapsed true, got %v", cfg.ReportElapsed)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}

	if cfg.GetLeftTemperature() != 100 {
		t.Errorf("GetLeftTemperature() = %v, want 100", cfg.GetLeftTemperature())
	}
	if cfg.GetRightTemperature() != 0 {
		t.Errorf("GetRightTemperature() = %v, want 0", cfg.GetRightTemperature())
	}
	if cfg.GetMaxIterations() != DefaultMaxIterations {
		t.Errorf("GetMaxIterations() = %d, want %d", cfg.GetMaxIterations(), DefaultMaxIterations)
	}
}

func TestEmptySolverConfig_GettersFallBack(t *testing.T) {
	empty := EmptySolverConfig()
	defaults := DefaultSolverConfig()

	got := []interface{}{
		empty.GetRows(), empty.GetCols(), empty.GetLeftTemperature(), empty.GetRightTemperature(),
		empty.GetEpsilon(), empty.GetMaxIterations(), empty.GetWorkers(), empty.GetProgressInterval(),
		empty.GetPrintGrid(), empty.GetReportElapsed(),
	}
	want := []interface{}{
		defaults.GetRows(), defaults.GetCols(), defaults.GetLeftTemperature(), defaults.GetRightTemperature(),
		defaults.GetEpsilon(), defaults.GetMaxIterations(), defaults.GetWorkers(), defaults.GetProgressInterval(),
		defaults.GetPrintGrid(), defaults.GetReportElapsed(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("empty config getters differ from defaults (-want +got):\n%s", diff)
	}
}

func TestLoadSolverConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "solver.json")

	testJSON := `{
  "rows": 400,
  "cols": 400,
  "epsilon": 1e-4,
  "max_iterations": 0,
  "workers": 4,
  "print_grid": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadSolverConfig(configPath)
	testutil.AssertNoError(t, err)

	if cfg.GetRows() != 400 || cfg.GetCols() != 400 {
		t.Errorf("shape = %dx%d, want 400x400", cfg.GetRows(), cfg.GetCols())
	}
	if cfg.GetEpsilon() != 1e-4 {
		t.Errorf("GetEpsilon() = %v, want 1e-4", cfg.GetEpsilon())
	}
	if cfg.GetMaxIterations() != 0 {
		t.Errorf("GetMaxIterations() = %d, want 0 (uncapped)", cfg.GetMaxIterations())
	}
	if !cfg.GetPrintGrid() {
		t.Error("GetPrintGrid() = false, want true")
	}
	// Omitted fields keep their defaults.
	if cfg.LeftTemperature != nil || cfg.GetLeftTemperature() != 100 {
		t.Errorf("LeftTemperature = %v, want nil with default 100", cfg.LeftTemperature)
	}

	want := relax.Config{Epsilon: 1e-4, MaxIterations: 0, Workers: 4}
	got := cfg.RelaxConfig()
	if got.Epsilon != want.Epsilon || got.MaxIterations != want.MaxIterations || got.Workers != want.Workers {
		t.Errorf("RelaxConfig() = %+v, want %+v", got, want)
	}
}

func TestLoadSolverConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantSub string
	}{
		{"wrong extension", write("solver.yaml", "rows: 3"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "absent.json"), "failed to stat"},
		{"bad json", write("bad.json", "{"), "failed to parse"},
		{"too small", write("small.json", `{"rows": 2}`), "at least 3x3"},
		{"zero epsilon", write("eps.json", `{"epsilon": 0}`), "epsilon"},
		{"negative cap", write("cap.json", `{"max_iterations": -5}`), "max_iterations"},
		{"negative workers", write("workers.json", `{"workers": -1}`), "workers"},
		{"negative progress", write("progress.json", `{"progress_interval": -1}`), "progress_interval"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSolverConfig(tc.path)
			testutil.AssertError(t, err)
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestLoadSolverConfig_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "huge.json")
	if err := os.WriteFile(p, make([]byte, 1024*1024+1), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSolverConfig(p); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too large error, got %v", err)
	}
}

func TestValidate_GridTooSmall(t *testing.T) {
	cfg := EmptySolverConfig()
	cfg.Cols = ptrInt(2)
	if err := cfg.Validate(); !errors.Is(err, ErrGridTooSmall) {
		t.Errorf("Validate() = %v, want ErrGridTooSmall", err)
	}
}

func TestDefaultsFileMatchesCode(t *testing.T) {
	cfg, err := LoadSolverConfig("../../" + DefaultConfigPath)
	testutil.AssertNoError(t, err)
	if diff := cmp.Diff(DefaultSolverConfig(), cfg); diff != "" {
		t.Errorf("defaults file drifted from DefaultSolverConfig (-code +file):\n%s", diff)
	}
}

func TestPreset(t *testing.T) {
	if diff := cmp.Diff([]string{"large", "small"}, PresetNames()); diff != "" {
		t.Errorf("PresetNames mismatch:\n%s", diff)
	}

	small, err := Preset("small")
	testutil.AssertNoError(t, err)
	if small.GetRows() != 10 || !small.GetPrintGrid() || small.GetReportElapsed() {
		t.Errorf("small preset = %+v", small)
	}

	large, err := Preset("large")
	testutil.AssertNoError(t, err)
	if large.GetRows() != 400 || large.GetCols() != 400 || large.GetPrintGrid() {
		t.Errorf("large preset = %+v", large)
	}

	// Presets hand out fresh copies.
	*small.Rows = 99
	again, _ := Preset("small")
	if again.GetRows() != 10 {
		t.Error("Preset returned shared state")
	}

	if _, err := Preset("medium"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Preset(medium) = %v, want ErrUnknownPreset", err)
	}
}

func TestMerge(t *testing.T) {
	base := DefaultSolverConfig()
	override := &SolverConfig{Rows: ptrInt(40), PrintGrid: ptrBool(true)}

	merged := base.Merge(override)
	if merged.GetRows() != 40 || merged.GetCols() != 10 || !merged.GetPrintGrid() {
		t.Errorf("merged = rows %d cols %d print %v", merged.GetRows(), merged.GetCols(), merged.GetPrintGrid())
	}
	if base.GetRows() != 10 {
		t.Error("Merge must not modify the receiver")
	}
	if base.Merge(nil).GetRows() != 10 {
		t.Error("Merge(nil) must copy the receiver")
	}
}

func TestLoadSolverConfigFS_Memory(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("plates/wide.json", []byte(`{"rows": 5, "cols": 40, "right_temperature": 20}`))

	cfg, err := LoadSolverConfigFS(fsys, "plates/wide.json")
	testutil.AssertNoError(t, err)
	if cfg.GetRows() != 5 || cfg.GetCols() != 40 || cfg.GetRightTemperature() != 20 {
		t.Errorf("unexpected config: rows %d cols %d right %v", cfg.GetRows(), cfg.GetCols(), cfg.GetRightTemperature())
	}

	_, err = LoadSolverConfigFS(fsys, "plates/missing.json")
	testutil.AssertError(t, err)
}

func TestLoadDefaultConfig(t *testing.T) {
	t.Run("missing file uses code defaults", func(t *testing.T) {
		cfg, err := LoadDefaultConfig(fsutil.NewMemoryFileSystem())
		testutil.AssertNoError(t, err)
		if diff := cmp.Diff(DefaultSolverConfig(), cfg); diff != "" {
			t.Errorf("unexpected defaults (-want +got):\n%s", diff)
		}
	})

	t.Run("file overrides code defaults", func(t *testing.T) {
		fsys := fsutil.NewMemoryFileSystem()
		fsys.WriteFile(DefaultConfigPath, []byte(`{"rows": 20, "epsilon": 1e-3}`))

		cfg, err := LoadDefaultConfig(fsys)
		testutil.AssertNoError(t, err)
		if cfg.GetRows() != 20 || cfg.GetEpsilon() != 1e-3 {
			t.Errorf("rows %d epsilon %v, want 20 and 1e-3", cfg.GetRows(), cfg.GetEpsilon())
		}
		if cfg.Cols == nil || *cfg.Cols != DefaultCols {
			t.Errorf("Cols = %v, want explicit default %d", cfg.Cols, DefaultCols)
		}
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		fsys := fsutil.NewMemoryFileSystem()
		fsys.WriteFile(DefaultConfigPath, []byte(`{"rows": 1}`))

		_, err := LoadDefaultConfig(fsys)
		if !errors.Is(err, ErrGridTooSmall) {
			t.Errorf("LoadDefaultConfig() = %v, want ErrGridTooSmall", err)
		}
	})
}
