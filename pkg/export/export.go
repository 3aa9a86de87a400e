// Package export renders analysis results as spreadsheet and PDF reports.
package export

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/analytics"
)

// Report is the content of one exported document.
type Report struct {
	Model       string
	ProjectID   string
	ModelID     string
	VersionID   string
	ViewerURL   string
	GeneratedAt time.Time
	Result      *analytics.Result
}

var printer = message.NewPrinter(language.English)

// Number formats v with thousands separators and the given decimals.
func Number(v float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

func (r Report) generated() string {
	t := r.GeneratedAt
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}
