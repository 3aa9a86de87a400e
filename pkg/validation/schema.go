package validation

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
)

// ValidateSchema performs schema validation on a parsed ProjectSpec.
// It checks structural correctness before anything is fetched or computed.
func ValidateSchema(s *spec.ProjectSpec) *Report {
	r := NewReport()

	validateServer(s, r)
	validateModels(s, r)
	validateCategories(s, r)
	validateAreaBased(s, r)
	validateSpace(s, r)
	validateRefresh(s, r)

	return r
}

func validateServer(s *spec.ProjectSpec, r *Report) {
	if strings.TrimSpace(s.Server.Host) == "" {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "server.host must not be empty",
			SpecPath: "server.host",
			Expected: "host name, e.g. " + spec.DefaultHost,
		})
	}
	if s.Server.TokenEnv != "" && s.Server.Token() == "" {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("environment variable %s is not set; only public projects can be read", s.Server.TokenEnv),
			SpecPath:    "server.token_env",
			ActualValue: s.Server.TokenEnv,
			Suggestions: []string{"Set the token in the environment or in a .env file next to project.yaml"},
		})
	}
}

func validateModels(s *spec.ProjectSpec, r *Report) {
	seen := make(map[string]int, len(s.Models))
	for i, m := range s.Models {
		path := fmt.Sprintf("models[%d]", i)
		if m.Name == "" {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("%s: name must not be empty", path),
				SpecPath: path + ".name",
			})
		} else if prev, dup := seen[strings.ToLower(m.Name)]; dup {
			r.AddError(Result{
				Level:        LevelSchema,
				Message:      fmt.Sprintf("duplicate model name %q", m.Name),
				SpecPath:     path + ".name",
				ActualValue:  m.Name,
				ConflictWith: fmt.Sprintf("models[%d]", prev),
			})
		} else {
			seen[strings.ToLower(m.Name)] = i
		}
		if m.ProjectID == "" {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("%s (%s): project_id must not be empty", path, m.Name),
				SpecPath: path + ".project_id",
			})
		}
		if m.ModelID == "" {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("%s (%s): model_id must not be empty", path, m.Name),
				SpecPath: path + ".model_id",
			})
		}
	}
	if len(s.Models) == 0 {
		r.AddInfo(Result{
			Level:    LevelSchema,
			Message:  "no models configured; only offline analysis is available",
			SpecPath: "models",
		})
	}
}

func validateCategories(s *spec.ProjectSpec, r *Report) {
	cats := s.Analysis.Categories
	if len(cats) == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "analysis.categories must contain at least one category",
			SpecPath: "analysis.categories",
			Expected: "at least 1 category",
		})
		return
	}

	seen := make(map[string]int, len(cats))
	for i, c := range cats {
		path := fmt.Sprintf("analysis.categories[%d]", i)
		label := c.Label()
		if label == "" {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("%s: name must not be empty", path),
				SpecPath: path + ".name",
			})
			continue
		}
		if prev, dup := seen[label]; dup {
			r.AddError(Result{
				Level:        LevelSchema,
				Message:      fmt.Sprintf("duplicate category %q", label),
				SpecPath:     path + ".name",
				ActualValue:  c.Name,
				ConflictWith: fmt.Sprintf("analysis.categories[%d]", prev),
			})
		}
		seen[label] = i

		if c.Density < 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): density must be non-negative", path, label),
				SpecPath:    path + ".density",
				ActualValue: c.Density,
				Expected:    ">= 0",
			})
		}
		if c.CarbonFactor < 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s (%s): carbon_factor must be non-negative", path, label),
				SpecPath:    path + ".carbon_factor",
				ActualValue: c.CarbonFactor,
				Expected:    ">= 0",
			})
		}
		if c.Material == "" {
			r.AddWarning(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("%s (%s): material label is empty", path, label),
				SpecPath: path + ".material",
			})
		}
	}
}

func validateAreaBased(s *spec.ProjectSpec, r *Report) {
	a := s.Analysis
	if a.AreaBasedCategory == "" {
		return
	}
	if a.CategoryByName(a.AreaBasedCategory) == nil {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("area_based_category %q is not a configured category", a.AreaBasedCategory),
			SpecPath:    "analysis.area_based_category",
			ActualValue: a.AreaBasedCategory,
			Suggestions: []string{"Add the category to analysis.categories or clear area_based_category"},
		})
	}
	if a.DepthConstant <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "analysis.depth_constant must be > 0",
			SpecPath:    "analysis.depth_constant",
			ActualValue: a.DepthConstant,
			Expected:    "> 0",
		})
	}
}

func validateSpace(s *spec.ProjectSpec, r *Report) {
	if s.Space.TotalAreaM2 <= 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "space.total_area_m2 must be > 0",
			SpecPath:    "space.total_area_m2",
			ActualValue: s.Space.TotalAreaM2,
			Expected:    "> 0",
		})
	}
	for i, a := range s.Space.SubCategories {
		if a.AreaPerPerson < 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("space.sub_categories[%d] (%s): area_per_person_m2 must be non-negative", i, a.Name),
				SpecPath:    fmt.Sprintf("space.sub_categories[%d].area_per_person_m2", i),
				ActualValue: a.AreaPerPerson,
				Expected:    ">= 0",
			})
		}
	}
}

func validateRefresh(s *spec.ProjectSpec, r *Report) {
	if s.Refresh.Schedule == "" {
		return
	}
	if _, err := cron.ParseStandard(s.Refresh.Schedule); err != nil {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("refresh.schedule %q is not a valid cron expression: %v", s.Refresh.Schedule, err),
			SpecPath:    "refresh.schedule",
			ActualValue: s.Refresh.Schedule,
			Expected:    "5-field cron expression or descriptor such as @every 30m",
		})
	}
}
