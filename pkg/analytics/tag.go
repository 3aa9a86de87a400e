package analytics

import (
	"fmt"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/object"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/validation"
)

// Tag attaches the material, density, and embodied carbon of each mapped
// category to every element under it. The tree is modified in place.
// Unmapped categories follow the same skip or strict policy as Aggregate.
func Tag(root *object.Node, a *spec.Analysis) (*validation.Report, error) {
	report := validation.NewReport()
	slots, _, err := categorySlots(root, a, report)
	if err != nil {
		return nil, err
	}

	for _, s := range slots {
		for _, el := range s.elements {
			el.Set(TagMaterial, s.category.Material)
			el.Set(TagDensity, s.category.Density)
			el.Set(TagEmbodiedCarbon, s.category.CarbonFactor)
		}
		report.AddInfo(validation.Result{
			Level:   validation.LevelInput,
			Message: fmt.Sprintf("tagged %d %s elements as %s", len(s.elements), s.label, s.category.Material),
		})
	}
	return report, nil
}
