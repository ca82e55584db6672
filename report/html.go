package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report").Funcs(template.FuncMap{
		"money":  models.FormatMoney,
		"pct":    models.FormatPct,
		"number": models.FormatNumber,
		"count":  models.FormatCount,
		"lookup": utils.LookupURL,
		"join":   strings.Join,
		"yesno":  yesNo,
		"sign":   signClass,
	}).ParseFS(templateFS, "templates/report.html.tmpl"),
)

type pageData struct {
	Analysis *models.Analysis
	Full     bool
	Details  []models.Detail
}

// Render writes the complete report: criteria, summary, ranked candidates,
// every selected detail and the warnings.
func Render(w io.Writer, a *models.Analysis) error {
	return execute(w, pageData{Analysis: a, Full: true, Details: a.Details})
}

// RenderDetail writes a standalone page for one selected listing.
func RenderDetail(w io.Writer, a *models.Analysis, d models.Detail) error {
	return execute(w, pageData{Analysis: a, Details: []models.Detail{d}})
}

func execute(w io.Writer, data pageData) error {
	if err := reportTemplate.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func signClass(f models.Float) string {
	v, ok := f.Get()
	switch {
	case !ok:
		return ""
	case v > 0:
		return "pos"
	case v < 0:
		return "neg"
	}
	return ""
}
