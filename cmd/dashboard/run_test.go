package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/analytics"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/object"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/space"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/store"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/validation"
)

const exampleProject = "../../examples/default-project"

func exampleModel() string {
	return filepath.Join(exampleProject, "model.json")
}

func TestAnalyzeRunOffline(t *testing.T) {
	s, err := loadValid(exampleProject)
	if err != nil {
		t.Fatalf("loadValid: %v", err)
	}

	run, err := analyzeRun(context.Background(), s, analyzeOptions{input: exampleModel()})
	if err != nil {
		t.Fatalf("analyzeRun: %v", err)
	}
	if run.Model != "model" {
		t.Errorf("Model = %q, want %q", run.Model, "model")
	}
	if len(run.Result.Rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(run.Result.Rows))
	}

	var buf bytes.Buffer
	printTotals(&buf, run)
	out := buf.String()
	for _, want := range []string{"Floors", "Stairs", "Columns", "Windows", "15,600.0", "262,500.0", "28,875.0", "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("totals output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeRunStrictRejectsUnknownCategory(t *testing.T) {
	s, err := loadValid(exampleProject)
	if err != nil {
		t.Fatalf("loadValid: %v", err)
	}
	path := filepath.Join(t.TempDir(), "unknown.json")
	if err := os.WriteFile(path, []byte(`{"@Doors":[{"volume":1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := analyzeRun(context.Background(), s, analyzeOptions{input: path, strict: true}); err == nil {
		t.Error("expected error for unmapped category in strict mode")
	}
}

func TestRunTagWritesTaggedTree(t *testing.T) {
	src := filepath.Join(t.TempDir(), "untagged.json")
	if err := os.WriteFile(src, []byte(`{"@Stairs":[{"volume":2}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(t.TempDir(), "tagged.json")

	if err := runTag(exampleProject, src, dst); err != nil {
		t.Fatalf("runTag: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	root, err := object.Load(f)
	if err != nil {
		t.Fatalf("loading tagged tree: %v", err)
	}
	stairs, _ := root.Elements("@Stairs")
	if len(stairs) != 1 {
		t.Fatalf("got %d stairs, want 1", len(stairs))
	}
	if m, _ := stairs[0].String("@material"); m != "Steel" {
		t.Errorf("@material = %q, want Steel", m)
	}
	if d, _ := stairs[0].Float("@density"); d != 7800 {
		t.Errorf("@density = %v, want 7800", d)
	}
}

func TestRunExportOffline(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"xlsx", "pdf"} {
		out := filepath.Join(dir, "report."+format)
		err := runExport(context.Background(), exampleProject, analyzeOptions{input: exampleModel()}, format, out)
		if err != nil {
			t.Fatalf("runExport(%s): %v", format, err)
		}
		info, err := os.Stat(out)
		if err != nil {
			t.Fatalf("stat %s: %v", out, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s export is empty", format)
		}
	}

	err := runExport(context.Background(), exampleProject, analyzeOptions{input: exampleModel()}, "csv", filepath.Join(dir, "x.csv"))
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestPrintValidationReport(t *testing.T) {
	r := validation.NewReport()
	r.AddError(validation.Result{
		Level:       validation.LevelSchema,
		Message:     "depth must be positive",
		SpecPath:    "analysis.depth_constant",
		ActualValue: 0,
		Expected:    "> 0",
	})
	r.AddWarning(validation.Result{Level: validation.LevelInput, Message: "category Doors is not mapped; skipped"})

	var buf bytes.Buffer
	printValidationReport(&buf, r)
	out := buf.String()
	for _, want := range []string{
		"ERRORS (1):",
		"[schema] depth must be positive",
		"-> analysis.depth_constant = 0",
		"expected: > 0",
		"WARNINGS (1):",
		"Result: INVALID",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q, want 01234567", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q, want abc", got)
	}
}

func TestAnalyzeRunMalformedCategoryFinding(t *testing.T) {
	s, err := loadValid(exampleProject)
	if err != nil {
		t.Fatalf("loadValid: %v", err)
	}
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"@Stairs":[{"volume":1}],"@Floors":[{"volume":2},null]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = analyzeRun(context.Background(), s, analyzeOptions{input: path})
	finding, ok := analytics.Finding(err)
	if !ok {
		t.Fatalf("err = %v, want an element finding", err)
	}
	r := validation.NewReport()
	r.Add(finding)

	var buf bytes.Buffer
	printValidationReport(&buf, r)
	if !strings.Contains(buf.String(), "element: Floors[1]") {
		t.Errorf("report should point at Floors[1]:\n%s", buf.String())
	}
}

func TestPrintSpaceCategory(t *testing.T) {
	d, err := space.Distribute(spec.DefaultSpaceAllowances(), 1e6)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	var buf bytes.Buffer
	printSpace(&buf, d, "Industrial")
	out := buf.String()
	for _, want := range []string{"Energy Generation", "Food Production", "Waste Management", "Population: 15,847"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Living Space") || strings.Contains(out, space.GrandTotalLabel) {
		t.Errorf("category view should only list Industrial rows:\n%s", out)
	}
}

func TestPrintTrend(t *testing.T) {
	var buf bytes.Buffer
	printTrend(&buf, "farnsworth house", "Stairs", nil)
	if !strings.Contains(buf.String(), "No Stairs runs recorded for farnsworth house") {
		t.Errorf("unexpected empty trend output: %q", buf.String())
	}

	buf.Reset()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	printTrend(&buf, "farnsworth house", "Stairs", []store.TrendPoint{
		{At: at, VersionID: "v1", Carbon: 2028},
		{At: at.Add(time.Hour), VersionID: "v2", Carbon: 1014.5},
	})
	out := buf.String()
	for _, want := range []string{"Carbon trend: farnsworth house / Stairs", "v1", "2,028.0", "v2", "1,014.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("trend output missing %q:\n%s", want, out)
		}
	}
}
