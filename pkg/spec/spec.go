package spec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProjectFile is the spec file name looked up by LoadProject.
const ProjectFile = "project.yaml"

// ErrUnknownModel is returned when a model name is not configured.
var ErrUnknownModel = errors.New("unknown model name")

// Load reads a project spec from a YAML file and fills unset fields with defaults.
func Load(path string) (*ProjectSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	var spec ProjectSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing spec YAML: %w", err)
	}

	applyDefaults(&spec)
	return &spec, nil
}

// LoadProject loads a project spec from a project directory.
// It looks for project.yaml in the given directory and loads an optional
// .env file next to it. A relative store path is resolved against the
// project directory.
func LoadProject(projectDir string) (*ProjectSpec, error) {
	if err := LoadEnv(projectDir); err != nil {
		return nil, err
	}
	spec, err := Load(filepath.Join(projectDir, ProjectFile))
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(spec.Store.Path) {
		spec.Store.Path = filepath.Join(projectDir, spec.Store.Path)
	}
	return spec, nil
}

// LoadEnv loads projectDir/.env into the process environment. Variables
// already set win. A missing file is not an error.
func LoadEnv(projectDir string) error {
	path := filepath.Join(projectDir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Token returns the access token from the configured environment variable.
func (s ServerDef) Token() string {
	return os.Getenv(s.TokenEnv)
}

func applyDefaults(s *ProjectSpec) {
	if s.SpecVersion == "" {
		s.SpecVersion = DefaultSpecVersion
	}

	if s.Server.Host == "" {
		s.Server.Host = DefaultHost
	}
	if s.Server.TokenEnv == "" {
		s.Server.TokenEnv = DefaultTokenEnv
	}
	if s.Server.VersionsLimit <= 0 {
		s.Server.VersionsLimit = DefaultVersionsLimit
	}
	if s.Server.ModelsLimit <= 0 {
		s.Server.ModelsLimit = DefaultModelsLimit
	}
	if s.Server.TimeoutSec <= 0 {
		s.Server.TimeoutSec = DefaultTimeoutSec
	}

	if len(s.Analysis.Categories) == 0 {
		s.Analysis.Categories = DefaultCategories()
		if s.Analysis.AreaBasedCategory == "" {
			s.Analysis.AreaBasedCategory = DefaultAreaBasedCategory
		}
	}
	if s.Analysis.DepthConstant == 0 {
		s.Analysis.DepthConstant = DefaultDepthConstant
	}

	if len(s.Insights.Teams) == 0 {
		s.Insights.Teams = DefaultTeams()
	}

	if s.Space.TotalAreaM2 == 0 {
		s.Space.TotalAreaM2 = DefaultTotalAreaM2
	}
	if len(s.Space.SubCategories) == 0 {
		s.Space.SubCategories = DefaultSpaceAllowances()
	}

	if s.Store.Path == "" {
		s.Store.Path = DefaultStorePath
	}
	if s.Refresh.Concurrency <= 0 {
		s.Refresh.Concurrency = DefaultConcurrency
	}
}

// Default returns a spec with every field set to its default.
func Default() *ProjectSpec {
	s := &ProjectSpec{}
	applyDefaults(s)
	return s
}
