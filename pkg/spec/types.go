package spec

import (
	"fmt"
	"strings"
)

// ProjectSpec is the top-level configuration for a dashboard project.
type ProjectSpec struct {
	SpecVersion string      `yaml:"spec_version" json:"spec_version"`
	Server      ServerDef   `yaml:"server" json:"server"`
	Models      []ModelRef  `yaml:"models" json:"models"`
	Analysis    Analysis    `yaml:"analysis" json:"analysis"`
	Insights    InsightsDef `yaml:"insights" json:"insights"`
	Space       SpaceDef    `yaml:"space" json:"space"`
	Store       StoreDef    `yaml:"store" json:"store"`
	Refresh     RefreshDef  `yaml:"refresh" json:"refresh"`
}

// ServerDef locates the collaboration server.
type ServerDef struct {
	Host          string `yaml:"host" json:"host"`
	TokenEnv      string `yaml:"token_env" json:"token_env"`
	VersionsLimit int    `yaml:"versions_limit" json:"versions_limit"`
	ModelsLimit   int    `yaml:"models_limit" json:"models_limit"`
	TimeoutSec    int    `yaml:"timeout_sec" json:"timeout_sec"`
}

// ModelRef names one model on the server.
type ModelRef struct {
	Name      string `yaml:"name" json:"name"`
	ProjectID string `yaml:"project_id" json:"project_id"`
	ModelID   string `yaml:"model_id" json:"model_id"`
}

// Analysis configures the element metric aggregation.
type Analysis struct {
	AreaBasedCategory string     `yaml:"area_based_category" json:"area_based_category"`
	DepthConstant     float64    `yaml:"depth_constant" json:"depth_constant"`
	Strict            bool       `yaml:"strict" json:"strict"`
	Categories        []Category `yaml:"categories" json:"categories"`
}

// Category maps one element category to its material constants.
type Category struct {
	Name         string  `yaml:"name" json:"name"`
	Material     string  `yaml:"material" json:"material"`
	Density      float64 `yaml:"density" json:"density"`             // kg/m³
	CarbonFactor float64 `yaml:"carbon_factor" json:"carbon_factor"` // kgCO2e per kg
}

// Label returns the category name without the detach prefix.
func (c Category) Label() string {
	return strings.TrimPrefix(c.Name, "@")
}

// Mapping returns the categories keyed by label.
func (a Analysis) Mapping() map[string]Category {
	m := make(map[string]Category, len(a.Categories))
	for _, c := range a.Categories {
		m[c.Label()] = c
	}
	return m
}

// CategoryByName returns the category for a raw or prefixed name, or nil if not found.
func (a Analysis) CategoryByName(name string) *Category {
	label := strings.TrimPrefix(name, "@")
	for i := range a.Categories {
		if a.Categories[i].Label() == label {
			return &a.Categories[i]
		}
	}
	return nil
}

// IsAreaBased reports whether the named category derives volume from area.
func (a Analysis) IsAreaBased(name string) bool {
	return a.AreaBasedCategory != "" &&
		strings.TrimPrefix(a.AreaBasedCategory, "@") == strings.TrimPrefix(name, "@")
}

// InsightsDef configures project activity statistics.
type InsightsDef struct {
	ProjectID string   `yaml:"project_id" json:"project_id"`
	Teams     []string `yaml:"teams" json:"teams"`
}

// SpaceDef configures the space distribution calculator.
type SpaceDef struct {
	TotalAreaM2   float64          `yaml:"total_area_m2" json:"total_area_m2"`
	SubCategories []SpaceAllowance `yaml:"sub_categories" json:"sub_categories"`
}

// SpaceAllowance is the area per person allotted to one use.
type SpaceAllowance struct {
	Name          string  `yaml:"name" json:"name"`
	Category      string  `yaml:"category" json:"category"`
	AreaPerPerson float64 `yaml:"area_per_person_m2" json:"area_per_person_m2"`
}

type StoreDef struct {
	Path string `yaml:"path" json:"path"`
}

type RefreshDef struct {
	Schedule    string `yaml:"schedule" json:"schedule"`
	Concurrency int    `yaml:"concurrency" json:"concurrency"`
}

// ModelByName returns the model with the given name (case-insensitive).
func (s *ProjectSpec) ModelByName(name string) (ModelRef, error) {
	for _, m := range s.Models {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	names := make([]string, len(s.Models))
	for i, m := range s.Models {
		names[i] = m.Name
	}
	return ModelRef{}, fmt.Errorf("%w: %q (valid options: %s)", ErrUnknownModel, name, strings.Join(names, ", "))
}
