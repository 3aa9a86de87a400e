// Package insights summarizes project activity: commits per model, connector
// usage, contributors, and a daily commit timeline.
package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/speckle"
)

// TeamOther is the team of models whose name matches no team prefix.
const TeamOther = "Other"

const unknownName = "unknown"

// Source lists projects and model versions. *speckle.Client satisfies it.
type Source interface {
	Project(ctx context.Context, projectID string, modelsLimit int) (*speckle.Project, error)
	Versions(ctx context.Context, projectID, modelID string, limit int) ([]speckle.Version, error)
}

// ModelCommits is the commit count of one model.
type ModelCommits struct {
	Model    string `json:"model"`
	FullName string `json:"full_name"`
	Team     string `json:"team"`
	Commits  int    `json:"commits"`
}

// Count is a named tally.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DayCount is the number of commits on one calendar day (UTC).
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Report is the activity summary of one project.
type Report struct {
	ProjectID     string         `json:"project_id"`
	ProjectName   string         `json:"project_name"`
	Team          string         `json:"team,omitempty"`
	TotalVersions int            `json:"total_versions"`
	Models        []ModelCommits `json:"models"`
	Connectors    []Count        `json:"connectors"`
	Contributors  []Count        `json:"contributors"`
	Timeline      []DayCount     `json:"timeline"`
}

// Categorize returns the team owning a model name, matched by prefix
// against teams in order, or TeamOther.
func Categorize(name string, teams []string) string {
	lower := strings.ToLower(name)
	for _, team := range teams {
		if team != "" && strings.HasPrefix(lower, strings.ToLower(team)) {
			return cases.Title(language.English).String(team)
		}
	}
	return TeamOther
}

// StripPrefix drops the leading "team/" folder from a model name.
func StripPrefix(name string) string {
	if _, rest, ok := strings.Cut(name, "/"); ok {
		return rest
	}
	return name
}

// ModelsForTeam returns the models owned by team. Team names resolve the
// way Categorize does, so any name outside teams selects TeamOther.
func ModelsForTeam(models []ModelCommits, team string, teams []string) []ModelCommits {
	want := Categorize(team, teams)
	out := []ModelCommits{}
	for _, m := range models {
		if m.Team == want {
			out = append(out, m)
		}
	}
	return out
}

// FilterTeam narrows the report's model list to one team. Project-wide
// counts are left as they are.
func (r *Report) FilterTeam(team string, teams []string) {
	r.Team = Categorize(team, teams)
	r.Models = ModelsForTeam(r.Models, team, teams)
}

// Build summarizes the given versions, keyed by model ID.
func Build(project *speckle.Project, versions map[string][]speckle.Version, teams []string) *Report {
	r := &Report{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Models:      make([]ModelCommits, 0, len(project.Models)),
	}

	connectors := map[string]int{}
	contributors := map[string]int{}
	days := map[string]int{}
	for _, m := range project.Models {
		vs := versions[m.ID]
		r.Models = append(r.Models, ModelCommits{
			Model:    StripPrefix(m.Name),
			FullName: m.Name,
			Team:     Categorize(m.Name, teams),
			Commits:  len(vs),
		})
		for _, v := range vs {
			r.TotalVersions++
			connectors[orUnknown(v.SourceApplication)]++
			contributors[orUnknown(v.AuthorName())]++
			if !v.CreatedAt.IsZero() {
				days[v.CreatedAt.UTC().Format("2006-01-02")]++
			}
		}
	}

	r.Connectors = rank(connectors)
	r.Contributors = rank(contributors)
	r.Timeline = make([]DayCount, 0, len(days))
	for d, n := range days {
		r.Timeline = append(r.Timeline, DayCount{Date: d, Count: n})
	}
	sort.Slice(r.Timeline, func(i, j int) bool { return r.Timeline[i].Date < r.Timeline[j].Date })
	return r
}

// Fetch loads a project and the versions of each of its models, then
// builds the report. At most concurrency version queries run at once.
func Fetch(ctx context.Context, src Source, projectID string, modelsLimit, versionsLimit, concurrency int, teams []string) (*Report, error) {
	project, err := src.Project(ctx, projectID, modelsLimit)
	if err != nil {
		return nil, err
	}

	lists := make([][]speckle.Version, len(project.Models))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, m := range project.Models {
		i, m := i, m
		g.Go(func() error {
			vs, err := src.Versions(gctx, projectID, m.ID, versionsLimit)
			if err != nil {
				return fmt.Errorf("model %s: %w", m.Name, err)
			}
			lists[i] = vs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	versions := make(map[string][]speckle.Version, len(project.Models))
	for i, m := range project.Models {
		versions[m.ID] = lists[i]
	}
	return Build(project, versions, teams), nil
}

func orUnknown(s string) string {
	if s == "" {
		return unknownName
	}
	return s
}

// rank orders tallies by count descending, then name ascending.
func rank(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
