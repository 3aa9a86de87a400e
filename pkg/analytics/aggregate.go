// Package analytics computes per-category volume, mass, and embodied carbon
// for a building model tree.
package analytics

import (
	"fmt"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/object"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/validation"
)

// Element attribute names.
const (
	AttrVolume         = "volume"
	AttrArea           = "area"
	TagMaterial        = "@material"
	TagDensity         = "@density"
	TagEmbodiedCarbon  = "@embodied_carbon"
	grandTotalCategory = "Total"
)

// CategoryTotals holds the summed metrics of one element category.
type CategoryTotals struct {
	Category            string  `json:"category"`
	Material            string  `json:"material"`
	ElementCount        int     `json:"element_count"`
	TotalVolume         float64 `json:"total_volume"`          // m³
	TotalMass           float64 `json:"total_mass"`            // kg
	TotalEmbodiedCarbon float64 `json:"total_embodied_carbon"` // kgCO2e
}

// VertexSample is one point for the 3D scatter view.
type VertexSample struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Element string  `json:"element"`
}

// Result is the output of one aggregation run.
type Result struct {
	Rows     []CategoryTotals   `json:"rows"`
	Vertices []VertexSample     `json:"vertices"`
	Skipped  []string           `json:"skipped,omitempty"`
	Report   *validation.Report `json:"report"`
}

// Aggregate sums volume, mass, and embodied carbon per category of root.
//
// Categories are visited in the order the root declares them. Unmapped
// categories are skipped with a warning, or rejected with
// *UnknownCategoryError when a.Strict is set. An empty category yields a
// zero row. When nothing is recognized, an empty Result is returned together
// with *EmptyInputError.
func Aggregate(root *object.Node, a *spec.Analysis) (*Result, error) {
	res := &Result{
		Rows:     []CategoryTotals{},
		Vertices: []VertexSample{},
		Report:   validation.NewReport(),
	}

	slots, skipped, err := categorySlots(root, a, res.Report)
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped

	index := make(map[string]int, len(slots))
	for _, s := range slots {
		i, seen := index[s.label]
		if !seen {
			i = len(res.Rows)
			index[s.label] = i
			res.Rows = append(res.Rows, CategoryTotals{Category: s.label, Material: s.category.Material})
		}
		row := &res.Rows[i]

		areaBased := a.IsAreaBased(s.label)
		if areaBased && a.DepthConstant <= 0 {
			return nil, fmt.Errorf("%w: %g for area-based category %s", ErrInvalidDepth, a.DepthConstant, s.label)
		}
		for j, el := range s.elements {
			m, err := measure(el, s, j, areaBased, a.DepthConstant)
			if err != nil {
				return nil, err
			}
			row.ElementCount++
			row.TotalVolume += m.volume
			row.TotalMass += m.mass
			row.TotalEmbodiedCarbon += m.carbon

			res.Vertices = appendVertices(res.Vertices, el, s.label)
		}
	}

	if len(res.Rows) == 0 {
		return res, &EmptyInputError{Skipped: skipped}
	}
	return res, nil
}

type metrics struct {
	volume, mass, carbon float64
}

func measure(el *object.Node, s slot, index int, areaBased bool, depth float64) (metrics, error) {
	attr := AttrVolume
	if areaBased {
		attr = AttrArea
	}
	v, ok := el.Float(attr)
	if !ok {
		return metrics{}, &MissingAttributeError{Category: s.label, Index: index, Attribute: attr}
	}
	if v < 0 {
		return metrics{}, &InvalidAttributeError{Category: s.label, Index: index, Attribute: attr, Value: v}
	}
	volume := v
	if areaBased {
		volume = v * depth
	}

	density, err := tagOrDefault(el, s, index, TagDensity, s.category.Density)
	if err != nil {
		return metrics{}, err
	}
	factor, err := tagOrDefault(el, s, index, TagEmbodiedCarbon, s.category.CarbonFactor)
	if err != nil {
		return metrics{}, err
	}

	mass := volume * density
	return metrics{volume: volume, mass: mass, carbon: mass * factor}, nil
}

// tagOrDefault reads a numeric tag from the element, falling back to the
// mapping value when the tag is absent.
func tagOrDefault(el *object.Node, s slot, index int, tag string, fallback float64) (float64, error) {
	if _, present := el.Get(tag); !present {
		return fallback, nil
	}
	v, ok := el.Float(tag)
	if !ok {
		return 0, &MissingAttributeError{Category: s.label, Index: index, Attribute: tag}
	}
	if v < 0 {
		return 0, &InvalidAttributeError{Category: s.label, Index: index, Attribute: tag, Value: v}
	}
	return v, nil
}

// Table is the column-oriented form of the rows consumed by charts.
type Table struct {
	Element        []string  `json:"element"`
	Volume         []float64 `json:"volume"`
	Mass           []float64 `json:"mass"`
	EmbodiedCarbon []float64 `json:"embodied carbon"`
}

// Table returns the rows as parallel columns.
func (r *Result) Table() Table {
	t := Table{
		Element:        make([]string, len(r.Rows)),
		Volume:         make([]float64, len(r.Rows)),
		Mass:           make([]float64, len(r.Rows)),
		EmbodiedCarbon: make([]float64, len(r.Rows)),
	}
	for i, row := range r.Rows {
		t.Element[i] = row.Category
		t.Volume[i] = row.TotalVolume
		t.Mass[i] = row.TotalMass
		t.EmbodiedCarbon[i] = row.TotalEmbodiedCarbon
	}
	return t
}

// GrandTotal sums every row.
func (r *Result) GrandTotal() CategoryTotals {
	total := CategoryTotals{Category: grandTotalCategory}
	for _, row := range r.Rows {
		total.ElementCount += row.ElementCount
		total.TotalVolume += row.TotalVolume
		total.TotalMass += row.TotalMass
		total.TotalEmbodiedCarbon += row.TotalEmbodiedCarbon
	}
	return total
}

// Share is one slice of the volume and carbon pie charts.
type Share struct {
	Category string  `json:"category"`
	Volume   float64 `json:"volume"`
	Carbon   float64 `json:"carbon"`
}

// Shares returns each category's fraction of total volume and carbon.
// Fractions are 0 when the corresponding total is 0.
func (r *Result) Shares() []Share {
	total := r.GrandTotal()
	out := make([]Share, len(r.Rows))
	for i, row := range r.Rows {
		out[i].Category = row.Category
		if total.TotalVolume > 0 {
			out[i].Volume = row.TotalVolume / total.TotalVolume
		}
		if total.TotalEmbodiedCarbon > 0 {
			out[i].Carbon = row.TotalEmbodiedCarbon / total.TotalEmbodiedCarbon
		}
	}
	return out
}
