// Package space distributes a plot's area across uses in proportion to the
// area each use needs per person, and derives the supported population.
package space

import (
	"fmt"
	"math"
	"strings"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/validation"
)

const (
	// GrandTotalLabel names the totals row.
	GrandTotalLabel = "Grand Totals"
	allCategories   = "All"

	livingSpaceName  = "Living Space"
	minLivingSpaceM2 = 10.0
)

// Row is one use with its share of the plot.
type Row struct {
	SubCategory   string  `json:"sub_category"`
	Category      string  `json:"category"`
	AreaPerPerson float64 `json:"area_per_person_m2"`
	TotalArea     float64 `json:"total_area_m2"`
}

// CategoryRow sums the rows of one category.
type CategoryRow struct {
	Category      string  `json:"category"`
	AreaPerPerson float64 `json:"area_per_person_m2"`
	TotalArea     float64 `json:"total_area_m2"`
}

// Distribution is the calculator output.
type Distribution struct {
	TotalAreaM2   float64            `json:"total_area_m2"`
	Rows          []Row              `json:"rows"`
	GrandTotal    Row                `json:"grand_total"`
	Categories    []CategoryRow      `json:"categories"`
	CategoryTotal CategoryRow        `json:"category_total"`
	Population    int                `json:"population"`
	Report        *validation.Report `json:"report"`
}

// Validate checks the inputs. A living space below 10 m² per person is a
// warning; a non-positive plot area, a negative allowance, or allowances
// summing to zero are errors.
func Validate(items []spec.SpaceAllowance, totalArea float64) *validation.Report {
	r := validation.NewReport()
	if totalArea <= 0 {
		r.AddError(validation.Result{
			Level:       validation.LevelInput,
			Message:     "total area must be greater than 0",
			SpecPath:    "space.total_area_m2",
			ActualValue: totalArea,
			Expected:    "> 0",
		})
	}

	sum := 0.0
	for i, it := range items {
		sum += it.AreaPerPerson
		if it.AreaPerPerson < 0 {
			r.AddError(validation.Result{
				Level:       validation.LevelInput,
				Message:     fmt.Sprintf("%s: area per person must be non-negative", it.Name),
				SpecPath:    fmt.Sprintf("space.sub_categories[%d].area_per_person_m2", i),
				ActualValue: it.AreaPerPerson,
				Expected:    ">= 0",
			})
		}
		if strings.EqualFold(it.Name, livingSpaceName) && it.AreaPerPerson < minLivingSpaceM2 {
			r.AddWarning(validation.Result{
				Level:       validation.LevelInput,
				Message:     fmt.Sprintf("living space of %.1f m² per person is below the %.0f m² minimum", it.AreaPerPerson, minLivingSpaceM2),
				SpecPath:    fmt.Sprintf("space.sub_categories[%d].area_per_person_m2", i),
				ActualValue: it.AreaPerPerson,
				Expected:    fmt.Sprintf(">= %.0f", minLivingSpaceM2),
			})
		}
	}
	if sum <= 0 {
		r.AddError(validation.Result{
			Level:       validation.LevelInput,
			Message:     "area per person values must not sum to zero",
			SpecPath:    "space.sub_categories",
			ActualValue: sum,
			Expected:    "> 0",
		})
	}
	return r
}

// Distribute splits totalArea across items. Each row's area is rounded to
// 0.1 m² and the grand total to whole m². The report is returned in the
// distribution; invalid inputs also return an error.
func Distribute(items []spec.SpaceAllowance, totalArea float64) (*Distribution, error) {
	d := &Distribution{
		TotalAreaM2: totalArea,
		Rows:        make([]Row, 0, len(items)),
		Categories:  []CategoryRow{},
		Report:      Validate(items, totalArea),
	}
	if err := d.Report.Err(); err != nil {
		return d, fmt.Errorf("space distribution: %w", err)
	}

	sumPerPerson := 0.0
	for _, it := range items {
		sumPerPerson += it.AreaPerPerson
	}

	sumArea := 0.0
	for _, it := range items {
		area := round(it.AreaPerPerson*totalArea/sumPerPerson, 1)
		sumArea += area
		d.Rows = append(d.Rows, Row{
			SubCategory:   it.Name,
			Category:      it.Category,
			AreaPerPerson: it.AreaPerPerson,
			TotalArea:     area,
		})
	}
	d.GrandTotal = Row{
		SubCategory:   GrandTotalLabel,
		Category:      allCategories,
		AreaPerPerson: sumPerPerson,
		TotalArea:     round(sumArea, 0),
	}

	d.Categories = CategoryTotals(d.Rows)
	d.CategoryTotal = CategoryRow{Category: GrandTotalLabel}
	for _, c := range d.Categories {
		d.CategoryTotal.AreaPerPerson += c.AreaPerPerson
		d.CategoryTotal.TotalArea += c.TotalArea
	}
	d.CategoryTotal.TotalArea = round(d.CategoryTotal.TotalArea, 0)

	d.Population = Population(d.GrandTotal.TotalArea, d.GrandTotal.AreaPerPerson)
	return d, nil
}

// CategoryTotals sums rows per category in first-seen order.
func CategoryTotals(rows []Row) []CategoryRow {
	out := []CategoryRow{}
	index := map[string]int{}
	for _, r := range rows {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, CategoryRow{Category: r.Category})
		}
		out[i].AreaPerPerson += r.AreaPerPerson
		out[i].TotalArea += r.TotalArea
	}
	return out
}

// Population is the number of people the area supports, truncated.
func Population(totalArea, areaPerPerson float64) int {
	if areaPerPerson <= 0 {
		return 0
	}
	return int(totalArea / areaPerPerson)
}

// ByCategory returns the rows of one category.
func (d *Distribution) ByCategory(category string) []Row {
	out := []Row{}
	for _, r := range d.Rows {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
