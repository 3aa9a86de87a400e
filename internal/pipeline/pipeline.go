// Package pipeline fetches model versions from the server, aggregates them,
// and records each run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/analytics"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/object"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/speckle"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/store"
)

// Source provides model versions and their object trees.
// *speckle.Client satisfies it.
type Source interface {
	LatestVersion(ctx context.Context, projectID, modelID string) (speckle.Version, error)
	Receive(ctx context.Context, projectID, objectID string) (*object.Node, error)
}

// Recorder persists finished runs. *store.Store satisfies it.
type Recorder interface {
	Save(ctx context.Context, r *store.Run) error
}

// Pipeline analyzes configured models. Recorder may be nil.
type Pipeline struct {
	Source      Source
	Analysis    *spec.Analysis
	Recorder    Recorder
	Logger      *zap.Logger
	Concurrency int
}

// Outcome is the result of one model in RunAll.
type Outcome struct {
	Ref spec.ModelRef `json:"ref"`
	Run *store.Run    `json:"run,omitempty"`
	Err error         `json:"-"`
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Run analyzes the latest version of one model. A model without
// recognized categories yields a run with an empty result.
func (p *Pipeline) Run(ctx context.Context, ref spec.ModelRef) (*store.Run, error) {
	log := p.logger().With(zap.String("model", ref.Name))
	start := time.Now()

	version, err := p.Source.LatestVersion(ctx, ref.ProjectID, ref.ModelID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref.Name, err)
	}
	root, err := p.Source.Receive(ctx, ref.ProjectID, version.ReferencedObject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref.Name, err)
	}

	res, err := analytics.Aggregate(root, p.Analysis)
	var empty *analytics.EmptyInputError
	switch {
	case errors.As(err, &empty):
		log.Warn("model has no recognized categories", zap.Strings("skipped", empty.Skipped))
	case err != nil:
		return nil, fmt.Errorf("%s: %w", ref.Name, err)
	}
	for _, w := range res.Report.Warnings {
		log.Warn(w.Message)
	}

	run := &store.Run{
		Model:     ref.Name,
		ProjectID: ref.ProjectID,
		ModelID:   ref.ModelID,
		VersionID: version.ID,
		ObjectID:  version.ReferencedObject,
		Author:    version.AuthorName(),
		Result:    res,
	}
	if p.Recorder != nil {
		if err := p.Recorder.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("%s: %w", ref.Name, err)
		}
	}

	log.Info("analyzed model",
		zap.String("version", version.ID),
		zap.Int("categories", len(res.Rows)),
		zap.Int("vertices", len(res.Vertices)),
		zap.Duration("took", time.Since(start)))
	return run, nil
}

// RunAll analyzes every model with at most Concurrency in flight. Outcomes
// are returned in input order; a failing model does not stop the others.
func (p *Pipeline) RunAll(ctx context.Context, refs []spec.ModelRef) []Outcome {
	out := make([]Outcome, len(refs))
	limit := p.Concurrency
	if limit <= 0 {
		limit = spec.DefaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			out[i].Ref = ref
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			run, err := p.Run(ctx, ref)
			out[i].Run = run
			out[i].Err = err
			if err != nil {
				p.logger().Error("model analysis failed", zap.String("model", ref.Name), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Failed returns the outcomes that ended in an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
