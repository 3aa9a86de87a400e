package spec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProject(t *testing.T) {
	s, err := LoadProject("../../examples/default-project")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if s.SpecVersion != "0.1.0" {
		t.Errorf("spec_version = %q, want %q", s.SpecVersion, "0.1.0")
	}
	if s.Server.Host != "macad.speckle.xyz" {
		t.Errorf("server.host = %q, want %q", s.Server.Host, "macad.speckle.xyz")
	}
	if len(s.Models) != 2 {
		t.Fatalf("models count = %d, want 2", len(s.Models))
	}
	if s.Models[1].ProjectID != "daeb18ed0a" || s.Models[1].ModelID != "aab87740df" {
		t.Errorf("models[1] = %+v, want kunsthaus ids", s.Models[1])
	}

	// Analysis
	if len(s.Analysis.Categories) != 8 {
		t.Errorf("categories count = %d, want 8", len(s.Analysis.Categories))
	}
	if s.Analysis.AreaBasedCategory != "Windows" {
		t.Errorf("area_based_category = %q, want Windows", s.Analysis.AreaBasedCategory)
	}
	if s.Analysis.DepthConstant != 70 {
		t.Errorf("depth_constant = %v, want 70", s.Analysis.DepthConstant)
	}
	stairs := s.Analysis.CategoryByName("@Stairs")
	if stairs == nil {
		t.Fatal("missing Stairs category")
	}
	if stairs.Density != 7800 || stairs.CarbonFactor != 0.13 {
		t.Errorf("stairs = %+v, want density 7800 carbon 0.13", *stairs)
	}

	// Refresh
	if s.Refresh.Schedule != "@every 30m" {
		t.Errorf("refresh.schedule = %q", s.Refresh.Schedule)
	}
	if s.Refresh.Concurrency != 2 {
		t.Errorf("refresh.concurrency = %d, want 2", s.Refresh.Concurrency)
	}

	// Store path is resolved against the project directory.
	wantStore := filepath.Join("../../examples/default-project", ".dashboard", "history.db")
	if s.Store.Path != wantStore {
		t.Errorf("store path = %q, want %q", s.Store.Path, wantStore)
	}

	// Defaults fill what the file leaves out.
	if len(s.Space.SubCategories) != 10 {
		t.Errorf("space sub_categories = %d, want 10 defaults", len(s.Space.SubCategories))
	}
	if s.Server.TimeoutSec != DefaultTimeoutSec {
		t.Errorf("timeout_sec = %d, want default %d", s.Server.TimeoutSec, DefaultTimeoutSec)
	}
}

func TestLoadProjectMissing(t *testing.T) {
	_, err := LoadProject("/nonexistent/path")
	if err == nil {
		t.Error("expected error for missing project directory")
	}
}

func TestLoadProjectEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("server:\n  token_env: TEST_DASHBOARD_TOKEN\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TEST_DASHBOARD_TOKEN=abc123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("TEST_DASHBOARD_TOKEN") })

	s, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if got := s.Server.Token(); got != "abc123" {
		t.Errorf("token = %q, want abc123", got)
	}
	if len(s.Analysis.Categories) != len(DefaultCategories()) {
		t.Errorf("expected default categories, got %d", len(s.Analysis.Categories))
	}
	if s.Analysis.AreaBasedCategory != DefaultAreaBasedCategory {
		t.Errorf("area_based_category = %q, want default", s.Analysis.AreaBasedCategory)
	}
}

func TestModelByName(t *testing.T) {
	s := Default()
	s.Models = []ModelRef{{Name: "Farnsworth House", ProjectID: "p", ModelID: "m"}}

	m, err := s.ModelByName("farnsworth house")
	if err != nil {
		t.Fatalf("ModelByName failed: %v", err)
	}
	if m.ModelID != "m" {
		t.Errorf("model id = %q, want m", m.ModelID)
	}

	_, err = s.ModelByName("villa savoye")
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("err = %v, want ErrUnknownModel", err)
	}
}

func TestAnalysisHelpers(t *testing.T) {
	a := Analysis{
		AreaBasedCategory: "@Windows",
		Categories:        []Category{{Name: "@Windows"}, {Name: "Walls"}},
	}
	m := a.Mapping()
	if _, ok := m["Windows"]; !ok {
		t.Error("mapping should be keyed by label without prefix")
	}
	if !a.IsAreaBased("Windows") || !a.IsAreaBased("@Windows") {
		t.Error("Windows should be area based with or without prefix")
	}
	if a.IsAreaBased("Walls") {
		t.Error("Walls should not be area based")
	}
	if a.CategoryByName("Roof") != nil {
		t.Error("Roof should not be found")
	}
}
