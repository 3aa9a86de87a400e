package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/internal/pipeline"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/internal/server"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/analytics"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/export"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/insights"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/object"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/space"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/speckle"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/store"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/validation"
)

var errNoInsightsProject = errors.New("insights.project_id is not set")

// loadAndValidate loads the spec and runs schema validation.
func loadAndValidate(projectPath string) (*spec.ProjectSpec, *validation.Report, error) {
	projectSpec, err := spec.LoadProject(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading spec: %w", err)
	}
	schemaReport := validation.ValidateSchema(projectSpec)
	return projectSpec, schemaReport, nil
}

// loadValid is loadAndValidate for commands that cannot proceed on an
// invalid spec.
func loadValid(projectPath string) (*spec.ProjectSpec, error) {
	projectSpec, schemaReport, err := loadAndValidate(projectPath)
	if err != nil {
		return nil, err
	}
	if !schemaReport.Valid {
		printValidationReport(os.Stderr, schemaReport)
		return nil, fmt.Errorf("spec has validation errors")
	}
	return projectSpec, nil
}

func newClient(s *spec.ProjectSpec) *speckle.Client {
	return speckle.New(s.Server.Host, s.Server.Token(),
		speckle.WithTimeout(time.Duration(s.Server.TimeoutSec)*time.Second),
		speckle.WithLogger(logger.Named("speckle")))
}

func runValidate(projectPath string) error {
	_, schemaReport, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}

	printValidationReport(os.Stdout, schemaReport)

	if !schemaReport.Valid {
		os.Exit(1)
	}
	return nil
}

// analyzeRun aggregates either a local model file or the latest version
// of a configured model. Remote runs are recorded in the history store.
func analyzeRun(ctx context.Context, s *spec.ProjectSpec, opts analyzeOptions) (*store.Run, error) {
	if opts.strict {
		s.Analysis.Strict = true
	}

	if opts.input != "" {
		root, err := loadObject(opts.input)
		if err != nil {
			return nil, err
		}
		res, err := analytics.Aggregate(root, &s.Analysis)
		var empty *analytics.EmptyInputError
		switch {
		case errors.As(err, &empty):
			logger.Warn("model has no recognized categories", zap.Strings("skipped", empty.Skipped))
		case err != nil:
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(opts.input), filepath.Ext(opts.input))
		return &store.Run{Model: name, ObjectID: root.ID(), CreatedAt: time.Now().UTC(), Result: res}, nil
	}

	ref, err := s.ModelByName(opts.model)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(s.Store.Path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	p := &pipeline.Pipeline{
		Source:   newClient(s),
		Analysis: &s.Analysis,
		Recorder: st,
		Logger:   logger,
	}
	return p.Run(ctx, ref)
}

func loadObject(path string) (*object.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model file: %w", err)
	}
	defer f.Close()

	root, err := object.Load(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return root, nil
}

func runAnalyze(ctx context.Context, projectPath string, opts analyzeOptions, asJSON bool) error {
	projectSpec, err := loadValid(projectPath)
	if err != nil {
		return err
	}

	run, err := analyzeRun(ctx, projectSpec, opts)
	if err != nil {
		if finding, ok := analytics.Finding(err); ok {
			report := validation.NewReport()
			report.Add(finding)
			printValidationReport(os.Stderr, report)
		}
		return err
	}

	if asJSON {
		output := map[string]any{
			"run":         run,
			"table":       run.Result.Table(),
			"grand_total": run.Result.GrandTotal(),
			"shares":      run.Result.Shares(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	printTotals(os.Stdout, run)
	if len(run.Result.Report.Warnings) > 0 {
		fmt.Println()
		printValidationReport(os.Stdout, run.Result.Report)
	}
	return nil
}

func runTag(projectPath, input, output string) error {
	projectSpec, err := loadValid(projectPath)
	if err != nil {
		return err
	}

	root, err := loadObject(input)
	if err != nil {
		return err
	}
	report, err := analytics.Tag(root, &projectSpec.Analysis)
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		logger.Warn(w.Message)
	}
	for _, i := range report.Info {
		logger.Info(i.Message)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(root)
}

func runExport(ctx context.Context, projectPath string, opts analyzeOptions, format, output string) error {
	projectSpec, err := loadValid(projectPath)
	if err != nil {
		return err
	}

	format = strings.ToLower(format)
	var write func(io.Writer, export.Report) error
	switch format {
	case "xlsx":
		write = export.WriteXLSX
	case "pdf":
		write = export.WritePDF
	default:
		return fmt.Errorf("unsupported export format %q (valid options: xlsx, pdf)", format)
	}

	run, err := analyzeRun(ctx, projectSpec, opts)
	if err != nil {
		return err
	}

	rep := export.Report{
		Model:       run.Model,
		ProjectID:   run.ProjectID,
		ModelID:     run.ModelID,
		VersionID:   run.VersionID,
		GeneratedAt: run.CreatedAt,
		Result:      run.Result,
	}
	if run.ProjectID != "" {
		rep.ViewerURL = speckle.ViewerURL(projectSpec.Server.Host, run.ProjectID, run.ModelID, run.VersionID)
	}

	if output == "" {
		output = strings.ReplaceAll(run.Model, " ", "_") + "." + format
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	if err := write(f, rep); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", output)
	return nil
}

func runInsights(ctx context.Context, projectPath, team string) error {
	projectSpec, err := loadValid(projectPath)
	if err != nil {
		return err
	}
	if projectSpec.Insights.ProjectID == "" {
		return errNoInsightsProject
	}

	rep, err := insights.Fetch(ctx, newClient(projectSpec), projectSpec.Insights.ProjectID,
		projectSpec.Server.ModelsLimit, projectSpec.Server.VersionsLimit,
		projectSpec.Refresh.Concurrency, projectSpec.Insights.Teams)
	if err != nil {
		return err
	}
	if team != "" {
		rep.FilterTeam(team, projectSpec.Insights.Teams)
	}

	printInsights(os.Stdout, rep)
	return nil
}

func runSpace(projectPath string, totalArea float64, category string) error {
	projectSpec, err := loadValid(projectPath)
	if err != nil {
		return err
	}
	if totalArea == 0 {
		totalArea = projectSpec.Space.TotalAreaM2
	}

	d, err := space.Distribute(projectSpec.Space.SubCategories, totalArea)
	if err != nil {
		printValidationReport(os.Stderr, d.Report)
		return err
	}

	printSpace(os.Stdout, d, category)
	if len(d.Report.Warnings) > 0 {
		fmt.Println()
		printValidationReport(os.Stdout, d.Report)
	}
	return nil
}

func runHistory(ctx context.Context, projectPath, model string, limit int, category string) error {
	projectSpec, err := loadValid(projectPath)
	if err != nil {
		return err
	}
	ref, err := projectSpec.ModelByName(model)
	if err != nil {
		return err
	}

	st, err := store.Open(projectSpec.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if category != "" {
		points, err := st.CarbonTrend(ctx, ref.Name, category)
		if err != nil {
			return err
		}
		printTrend(os.Stdout, ref.Name, category, points)
		return nil
	}

	runs, err := st.History(ctx, ref.Name, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("No runs recorded for %s in %s.\n", ref.Name, st.Path())
		return nil
	}
	printHistory(os.Stdout, ref.Name, runs)
	return nil
}

func runServe(ctx context.Context, projectPath string, port int) error {
	projectSpec, err := loadValid(projectPath)
	if err != nil {
		return err
	}

	st, err := store.Open(projectSpec.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("recording runs", zap.String("store", st.Path()))

	srv := server.New(server.Config{
		ProjectPath: projectPath,
		Port:        port,
		Spec:        projectSpec,
		Client:      newClient(projectSpec),
		History:     st,
		Logger:      logger,
	})
	return srv.Start(ctx)
}
