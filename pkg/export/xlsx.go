package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook.
const (
	SheetTotals   = "Totals"
	SheetVertices = "Vertices"
	SheetSummary  = "Summary"
)

var totalsHeader = []any{"Category", "Material", "Elements", "Volume (m³)", "Mass (kg)", "Embodied Carbon (kgCO2e)"}

// WriteXLSX writes the totals, vertex samples, and run summary as a workbook.
func WriteXLSX(w io.Writer, rep Report) error {
	if rep.Result == nil {
		return fmt.Errorf("export %s: no result", rep.Model)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTotals); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetVertices); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetTotals, "A1", &totalsHeader); err != nil {
		return err
	}
	row := 2
	for _, t := range rep.Result.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{t.Category, t.Material, t.ElementCount, t.TotalVolume, t.TotalMass, t.TotalEmbodiedCarbon}
		if err := f.SetSheetRow(SheetTotals, cell, &values); err != nil {
			return err
		}
		row++
	}
	total := rep.Result.GrandTotal()
	cell, _ := excelize.CoordinatesToCellName(1, row)
	totals := []any{total.Category, "", total.ElementCount, total.TotalVolume, total.TotalMass, total.TotalEmbodiedCarbon}
	if err := f.SetSheetRow(SheetTotals, cell, &totals); err != nil {
		return err
	}
	end, _ := excelize.CoordinatesToCellName(len(totalsHeader), row)
	if err := f.SetCellStyle(SheetTotals, "A1", "F1", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetTotals, cell, end, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetTotals, "A", "F", 18); err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetVertices, "A1", &[]any{"X", "Y", "Z", "Element"}); err != nil {
		return err
	}
	for i, v := range rep.Result.Vertices {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetVertices, cell, &[]any{v.X, v.Y, v.Z, v.Element}); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetVertices, "A1", "D1", bold); err != nil {
		return err
	}

	summary := [][]any{
		{"Model", rep.Model},
		{"Project", rep.ProjectID},
		{"Model ID", rep.ModelID},
		{"Version", rep.VersionID},
		{"Viewer", rep.ViewerURL},
		{"Generated", rep.generated()},
	}
	for i, kv := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &kv); err != nil {
			return err
		}
	}
	if rep.ViewerURL != "" {
		if err := f.SetCellHyperLink(SheetSummary, "B5", rep.ViewerURL, "External"); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
