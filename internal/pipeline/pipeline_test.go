package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/object"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/speckle"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/store"
)

type fakeSource struct {
	trees    map[string]string // model id -> tree JSON
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSource) LatestVersion(ctx context.Context, projectID, modelID string) (speckle.Version, error) {
	if _, ok := f.trees[modelID]; !ok {
		return speckle.Version{}, speckle.ErrNoVersions
	}
	return speckle.Version{ID: "v-" + modelID, ReferencedObject: modelID, Author: &speckle.User{Name: "Ana"}}, nil
}

func (f *fakeSource) Receive(ctx context.Context, projectID, objectID string) (*object.Node, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return object.Decode(strings.NewReader(f.trees[objectID]))
}

type memRecorder struct {
	mu   sync.Mutex
	runs []*store.Run
}

func (m *memRecorder) Save(ctx context.Context, r *store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func analysis() *spec.Analysis {
	a := spec.Default().Analysis
	return &a
}

func TestRun(t *testing.T) {
	src := &fakeSource{trees: map[string]string{"m1": `{"@Stairs": [{"volume": 2}]}`}}
	rec := &memRecorder{}
	p := &Pipeline{Source: src, Analysis: analysis(), Recorder: rec, Logger: zaptest.NewLogger(t)}

	run, err := p.Run(context.Background(), spec.ModelRef{Name: "house", ProjectID: "p", ModelID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "house", run.Model)
	assert.Equal(t, "v-m1", run.VersionID)
	assert.Equal(t, "m1", run.ObjectID)
	assert.Equal(t, "Ana", run.Author)
	require.Len(t, run.Result.Rows, 1)
	assert.InDelta(t, 2028, run.Result.Rows[0].TotalEmbodiedCarbon, 1e-9)
	assert.Len(t, rec.runs, 1)
}

func TestRunEmptyModelIsNotFatal(t *testing.T) {
	src := &fakeSource{trees: map[string]string{"m1": `{"name": "nothing here"}`}}
	p := &Pipeline{Source: src, Analysis: analysis()}

	run, err := p.Run(context.Background(), spec.ModelRef{Name: "empty", ModelID: "m1"})
	require.NoError(t, err)
	assert.Empty(t, run.Result.Rows)
}

func TestRunPropagatesErrors(t *testing.T) {
	src := &fakeSource{trees: map[string]string{"bad": `{"@Stairs": [{"area": 2}]}`}}
	p := &Pipeline{Source: src, Analysis: analysis()}

	_, err := p.Run(context.Background(), spec.ModelRef{Name: "none", ModelID: "missing"})
	assert.ErrorIs(t, err, speckle.ErrNoVersions)

	_, err = p.Run(context.Background(), spec.ModelRef{Name: "bad", ModelID: "bad"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestRunAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	trees := map[string]string{}
	var refs []spec.ModelRef
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		trees[id] = `{"@Floors": [{"volume": 1}]}`
		refs = append(refs, spec.ModelRef{Name: "model " + id, ModelID: id})
	}
	refs = append(refs, spec.ModelRef{Name: "ghost", ModelID: "ghost"})

	src := &fakeSource{trees: trees, delay: 20 * time.Millisecond}
	rec := &memRecorder{}
	p := &Pipeline{Source: src, Analysis: analysis(), Recorder: rec, Concurrency: 2}

	outcomes := p.RunAll(context.Background(), refs)
	require.Len(t, outcomes, len(refs))
	for i, o := range outcomes {
		assert.Equal(t, refs[i].Name, o.Ref.Name, "outcomes must keep input order")
	}

	failed := Failed(outcomes)
	require.Len(t, failed, 1)
	assert.Equal(t, "ghost", failed[0].Ref.Name)
	assert.True(t, errors.Is(failed[0].Err, speckle.ErrNoVersions))

	assert.Len(t, rec.runs, 6)
	assert.LessOrEqual(t, src.peak.Load(), int32(2))
}

func TestRunAllCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{trees: map[string]string{"a": `{}`}}
	p := &Pipeline{Source: src, Analysis: analysis(), Concurrency: 1}
	outcomes := p.RunAll(ctx, []spec.ModelRef{{Name: "a", ModelID: "a"}})
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
}
