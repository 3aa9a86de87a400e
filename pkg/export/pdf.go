package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

const qrImageName = "viewer-qr"

// WritePDF writes a one-page report: the totals table, the grand total, and
// a QR code linking to the model in the web viewer.
func WritePDF(w io.Writer, rep Report) error {
	if rep.Result == nil {
		return fmt.Errorf("export %s: no result", rep.Model)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(190, 10, tr("Embodied Carbon Report"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(120, 6, tr(fmt.Sprintf("Model: %s", rep.Model)))
	pdf.Ln(6)
	pdf.Cell(120, 6, fmt.Sprintf("Project: %s   Version: %s", rep.ProjectID, rep.VersionID))
	pdf.Ln(6)
	pdf.Cell(120, 6, fmt.Sprintf("Generated: %s", rep.generated()))
	pdf.Ln(6)

	if rep.ViewerURL != "" {
		png, err := qrcode.Encode(rep.ViewerURL, qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("encoding viewer QR code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(qrImageName, opts, bytes.NewReader(png))
		pdf.ImageOptions(qrImageName, 165, 10, 35, 35, false, opts, 0, rep.ViewerURL)
	}
	pdf.SetY(50)

	widths := []float64{40, 30, 20, 30, 35, 35}
	headers := []string{"Category", "Material", "Elements", "Volume (m3)", "Mass (kg)", "Carbon (kgCO2e)"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, t := range rep.Result.Rows {
		pdf.CellFormat(widths[0], 7, tr(t.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(t.Material), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", t.ElementCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, Number(t.TotalVolume, 2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, Number(t.TotalMass, 1), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 7, Number(t.TotalEmbodiedCarbon, 1), "1", 1, "R", false, 0, "")
	}

	total := rep.Result.GrandTotal()
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(widths[0]+widths[1], 8, total.Category, "1", 0, "L", true, 0, "")
	pdf.CellFormat(widths[2], 8, fmt.Sprintf("%d", total.ElementCount), "1", 0, "R", true, 0, "")
	pdf.CellFormat(widths[3], 8, Number(total.TotalVolume, 2), "1", 0, "R", true, 0, "")
	pdf.CellFormat(widths[4], 8, Number(total.TotalMass, 1), "1", 0, "R", true, 0, "")
	pdf.CellFormat(widths[5], 8, Number(total.TotalEmbodiedCarbon, 1), "1", 1, "R", true, 0, "")

	if len(rep.Result.Skipped) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(190, 5, tr(fmt.Sprintf("Categories without material mapping (not counted): %v", rep.Result.Skipped)), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}
