package spec

// Baseline values used when project.yaml leaves a field unset.
const (
	DefaultSpecVersion   = "0.1.0"
	DefaultHost          = "macad.speckle.xyz"
	DefaultTokenEnv      = "SPECKLE_TOKEN"
	DefaultVersionsLimit = 100
	DefaultModelsLimit   = 100
	DefaultTimeoutSec    = 60

	DefaultAreaBasedCategory = "Windows"
	DefaultDepthConstant     = 70.0 // depth units applied to window area

	DefaultTotalAreaM2 = 1_000_000.0
	DefaultStorePath   = ".dashboard/history.db"
	DefaultConcurrency = 4
)

// DefaultCategories returns the material constants per element category.
// Densities in kg/m³, carbon factors in kgCO2e/kg.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Floors", Material: "Concrete", Density: 2400, CarbonFactor: 0.159},
		{Name: "FloorSlabs", Material: "Concrete", Density: 2400, CarbonFactor: 0.01},
		{Name: "Walls", Material: "Concrete", Density: 2400, CarbonFactor: 0.159},
		{Name: "Stairs", Material: "Steel", Density: 7800, CarbonFactor: 0.13},
		{Name: "Facade", Material: "Glass", Density: 2500, CarbonFactor: 20.85},
		{Name: "Roof", Material: "Concrete", Density: 2400, CarbonFactor: 0.159},
		{Name: "Columns", Material: "Steel", Density: 7800, CarbonFactor: 1.37},
		{Name: "Windows", Material: "Glass", Density: 2500, CarbonFactor: 0.11},
	}
}

// DefaultTeams returns the model-name prefixes that identify each team.
func DefaultTeams() []string {
	return []string{"residential", "structure", "service", "facade", "industrial", "data"}
}

// DefaultSpaceAllowances returns the baseline area per person for each use.
func DefaultSpaceAllowances() []SpaceAllowance {
	return []SpaceAllowance{
		{Name: "Living Space", Category: "Residential", AreaPerPerson: 20},
		{Name: "Circulation & Common Areas", Category: "Residential", AreaPerPerson: 2},
		{Name: "Shared Amenities", Category: "Residential", AreaPerPerson: 3},
		{Name: "Energy Generation", Category: "Industrial", AreaPerPerson: 10},
		{Name: "Food Production", Category: "Industrial", AreaPerPerson: 10},
		{Name: "Waste Management", Category: "Industrial", AreaPerPerson: 3},
		{Name: "Schools", Category: "Services", AreaPerPerson: 2},
		{Name: "Hospitals", Category: "Services", AreaPerPerson: 0.5},
		{Name: "Retail & Amenities", Category: "Services", AreaPerPerson: 2.6},
		{Name: "Green Spaces", Category: "Services", AreaPerPerson: 10},
	}
}
