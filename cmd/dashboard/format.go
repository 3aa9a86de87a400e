package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/analytics"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/export"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/insights"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/space"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/store"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/validation"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// newTable returns a bordered table whose columns from firstNumeric on are
// right-aligned.
func newTable(firstNumeric int, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= firstNumeric:
				return numberStyle
			default:
				return cellStyle
			}
		}).
		Headers(headers...)
}

func printValidationReport(w io.Writer, r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  [%s] %s\n", e.Level, e.Message)
			if e.Element != "" {
				fmt.Fprintf(w, "    element: %s\n", e.Element)
			}
			if e.SpecPath != "" {
				fmt.Fprintf(w, "    -> %s = %v\n", e.SpecPath, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Fprintf(w, "    expected: %s\n", e.Expected)
			}
			if e.ConflictWith != "" {
				fmt.Fprintf(w, "    conflicts with: %s\n", e.ConflictWith)
			}
			for _, s := range e.Suggestions {
				fmt.Fprintf(w, "    * %s\n", s)
			}
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "WARNINGS (%d):\n", len(r.Warnings))
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [%s] %s\n", warn.Level, warn.Message)
			if warn.SpecPath != "" {
				fmt.Fprintf(w, "    -> %s = %v\n", warn.SpecPath, warn.ActualValue)
			}
			if warn.Expected != "" {
				fmt.Fprintf(w, "    expected: %s\n", warn.Expected)
			}
			for _, s := range warn.Suggestions {
				fmt.Fprintf(w, "    * %s\n", s)
			}
		}
		fmt.Fprintln(w)
	}

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func totalsRow(c analytics.CategoryTotals) []string {
	return []string{
		c.Category,
		c.Material,
		strconv.Itoa(c.ElementCount),
		export.Number(c.TotalVolume, 2),
		export.Number(c.TotalMass, 1),
		export.Number(c.TotalEmbodiedCarbon, 1),
	}
}

func printTotals(w io.Writer, run *store.Run) {
	title := "Embodied Carbon: " + run.Model
	if run.VersionID != "" {
		title += " @ " + run.VersionID
	}
	fmt.Fprintln(w, titleStyle.Render(title))

	res := run.Result
	if len(res.Rows) == 0 {
		fmt.Fprintln(w, "No recognized categories.")
		return
	}

	t := newTable(2, "Category", "Material", "Elements", "Volume (m³)", "Mass (kg)", "Carbon (kgCO2e)")
	for _, row := range res.Rows {
		t.Row(totalsRow(row)...)
	}
	t.Row(totalsRow(res.GrandTotal())...)
	fmt.Fprintln(w, t.Render())

	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped categories: %v\n", res.Skipped)
	}
	fmt.Fprintf(w, "Vertex samples: %d\n", len(res.Vertices))
}

func printInsights(w io.Writer, r *insights.Report) {
	name := r.ProjectName
	if name == "" {
		name = r.ProjectID
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Project %s: %d versions", name, r.TotalVersions)))

	models := newTable(2, "Team", "Model", "Commits")
	for _, m := range r.Models {
		models.Row(m.Team, m.Model, strconv.Itoa(m.Commits))
	}
	fmt.Fprintln(w, models.Render())

	fmt.Fprintln(w, countsTable("Connector", r.Connectors).Render())
	fmt.Fprintln(w, countsTable("Contributor", r.Contributors).Render())

	if n := len(r.Timeline); n > 0 {
		fmt.Fprintf(w, "Active days: %d (%s to %s)\n", n, r.Timeline[0].Date, r.Timeline[n-1].Date)
	}
}

func countsTable(label string, counts []insights.Count) *table.Table {
	t := newTable(1, label, "Count")
	for _, c := range counts {
		t.Row(c.Name, strconv.Itoa(c.Count))
	}
	return t
}

// printSpace prints the distribution. A non-empty category limits the
// sub-category table to that category and drops the category summary.
func printSpace(w io.Writer, d *space.Distribution, category string) {
	fmt.Fprintln(w, titleStyle.Render("Space Distribution: "+export.Number(d.TotalAreaM2, 0)+" m²"))

	rows := newTable(2, "Sub-category", "Category", "m²/person", "Total area (m²)")
	if category != "" {
		for _, r := range d.ByCategory(category) {
			rows.Row(r.SubCategory, r.Category, export.Number(r.AreaPerPerson, 1), export.Number(r.TotalArea, 1))
		}
		fmt.Fprintln(w, rows.Render())
		fmt.Fprintf(w, "Population: %s\n", export.Number(float64(d.Population), 0))
		return
	}
	for _, r := range d.Rows {
		rows.Row(r.SubCategory, r.Category, export.Number(r.AreaPerPerson, 1), export.Number(r.TotalArea, 1))
	}
	g := d.GrandTotal
	rows.Row(g.SubCategory, g.Category, export.Number(g.AreaPerPerson, 1), export.Number(g.TotalArea, 0))
	fmt.Fprintln(w, rows.Render())

	cats := newTable(1, "Category", "m²/person", "Total area (m²)")
	for _, c := range d.Categories {
		cats.Row(c.Category, export.Number(c.AreaPerPerson, 1), export.Number(c.TotalArea, 1))
	}
	ct := d.CategoryTotal
	cats.Row(ct.Category, export.Number(ct.AreaPerPerson, 1), export.Number(ct.TotalArea, 0))
	fmt.Fprintln(w, cats.Render())

	fmt.Fprintf(w, "Population: %s\n", export.Number(float64(d.Population), 0))
}

func printHistory(w io.Writer, model string, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintf(w, "No runs recorded for %s.\n", model)
		return
	}
	fmt.Fprintln(w, titleStyle.Render("History: "+model))

	t := newTable(4, "Recorded", "Version", "Author", "Run", "Volume (m³)", "Carbon (kgCO2e)")
	for _, r := range runs {
		total := r.Result.GrandTotal()
		t.Row(
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.VersionID,
			r.Author,
			shortID(r.ID),
			export.Number(total.TotalVolume, 2),
			export.Number(total.TotalEmbodiedCarbon, 1),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func printTrend(w io.Writer, model, category string, points []store.TrendPoint) {
	if len(points) == 0 {
		fmt.Fprintf(w, "No %s runs recorded for %s.\n", category, model)
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Carbon trend: %s / %s", model, category)))

	t := newTable(2, "Recorded", "Version", "Carbon (kgCO2e)")
	for _, p := range points {
		t.Row(p.At.Local().Format("2006-01-02 15:04"), p.VersionID, export.Number(p.Carbon, 1))
	}
	fmt.Fprintln(w, t.Render())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
