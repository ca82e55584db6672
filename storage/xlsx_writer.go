package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

const (
	sheetSummary  = "Summary"
	sheetRanked   = "Ranked Listings"
	sheetDetails  = "Flip Details"
	sheetCriteria = "Comps Criteria"

	detailDivider = "----"
)

var detailHeader = []string{
	"MLS #", "Status", "Area", "Address", "County", "City", "Zip", "Sub",
	"Bedrooms", "Full Baths", "Total Finished SF", "List / Sale Price", "List / Close Dt", "Zillow",
}

// XLSXWriter saves each analysis as a four-sheet workbook.
type XLSXWriter struct {
	path string
}

func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

func (x *XLSXWriter) Write(a *models.Analysis) error {
	f, err := BuildWorkbook(a)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(x.path), 0755); err != nil {
		return fmt.Errorf("xlsx: create output dir: %w", err)
	}
	if err := f.SaveAs(x.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return nil
}

func (x *XLSXWriter) Close() error { return nil }

// BuildWorkbook lays out a as Summary, Ranked Listings, Flip Details and
// Comps Criteria sheets. Money and percentages stay numeric with a display
// format; lookup links are HYPERLINK formulas.
func BuildWorkbook(a *models.Analysis) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetSummary)
	for _, name := range []string{sheetRanked, sheetDetails, sheetCriteria} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("xlsx: add sheet %s: %w", name, err)
		}
	}

	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for _, build := range []func(*excelize.File, *styles, *models.Analysis) error{
		writeSummarySheet, writeRankedSheet, writeDetailsSheet, writeCriteriaSheet,
	} {
		if err := build(f, st, a); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

type styles struct {
	header int
	money  int
	pct    int
}

func newStyles(f *excelize.File) (*styles, error) {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return nil, fmt.Errorf("xlsx: money style: %w", err)
	}
	pctFmt := `0.0"%"`
	pct, err := f.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt})
	if err != nil {
		return nil, fmt.Errorf("xlsx: percent style: %w", err)
	}
	return &styles{header: header, money: money, pct: pct}, nil
}

// sheetRows appends rows to one sheet and remembers the first error.
type sheetRows struct {
	f    *excelize.File
	name string
	row  int
	err  error
}

func (s *sheetRows) append(values ...interface{}) {
	if s.err != nil {
		return
	}
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetSheetRow(s.name, cell, &values)
}

func (s *sheetRows) header(st *styles, headers []string) {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	s.append(values...)
	if s.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(headers), s.row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(s.name, "A1", last, st.header)
}

// link puts a HYPERLINK formula for address into column col of the
// current row. Blank addresses leave the cell empty.
func (s *sheetRows) link(col int, address string) {
	url := utils.LookupURL(address)
	if s.err != nil || url == "" {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, s.row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellFormula(s.name, cell, hyperlinkFormula(url))
}

func (s *sheetRows) colStyle(columns string, style int) {
	if s.err != nil {
		return
	}
	s.err = s.f.SetColStyle(s.name, columns, style)
}

func (s *sheetRows) wrap(what string) error {
	if s.err != nil {
		return fmt.Errorf("xlsx: %s: %w", what, s.err)
	}
	return nil
}

func hyperlinkFormula(url string) string {
	return fmt.Sprintf(`HYPERLINK("%s","Zillow")`, strings.ReplaceAll(url, `"`, `""`))
}

func floatValue(f models.Float) interface{} {
	if v, ok := f.Get(); ok {
		return v
	}
	return nil
}

func intValue(i models.Int) interface{} {
	if v, ok := i.Get(); ok {
		return v
	}
	return nil
}

func writeSummarySheet(f *excelize.File, st *styles, a *models.Analysis) error {
	s := &sheetRows{f: f, name: sheetSummary}
	s.colStyle("D:F", st.money)
	s.colStyle("G", st.pct)
	s.header(st, []string{a.GroupBy, "# Listings", "# Sold", "Avg List Price", "Avg Sold Price", "Sold - List", "Sold - List (%)"})
	for _, r := range a.Summary {
		label := r.Group
		if label == "" {
			label = models.GroupNone.String()
		}
		s.append(label, r.ListingsCount, r.SoldCount,
			floatValue(r.AvgListPrice), floatValue(r.AvgSoldPrice), floatValue(r.Gap), floatValue(r.GapPct))
	}
	return s.wrap("summary sheet")
}

func writeRankedSheet(f *excelize.File, st *styles, a *models.Analysis) error {
	s := &sheetRows{f: f, name: sheetRanked}
	s.colStyle("F:H", st.money)
	s.colStyle("I", st.pct)
	s.header(st, rankedHeader)
	for _, r := range a.Ranked {
		l := r.Listing
		s.append(r.Rank, l.ID, l.Address, intValue(l.Bedrooms), floatValue(l.FinishedSF),
			floatValue(l.ListPrice), floatValue(r.AvgCompPrice), floatValue(r.PriceDiff),
			floatValue(r.PriceDiffPct), r.Count)
		s.link(len(rankedHeader), l.Address)
	}
	return s.wrap("ranked sheet")
}

func propertyValues(p models.Property, price models.Float, date string) []interface{} {
	return []interface{}{
		p.ID, p.Status, p.Area, p.Address, p.County, p.City, p.Zip, p.Subdivision,
		intValue(p.Bedrooms), intValue(p.FullBaths), floatValue(p.FinishedSF), floatValue(price), date,
	}
}

// writeDetailsSheet writes, per selected listing, the listing row, its
// matched comps and a divider row.
func writeDetailsSheet(f *excelize.File, st *styles, a *models.Analysis) error {
	s := &sheetRows{f: f, name: sheetDetails}
	s.colStyle("L", st.money)
	s.header(st, detailHeader)
	zillowCol := len(detailHeader)

	divider := make([]interface{}, len(detailHeader))
	for i := range divider {
		divider[i] = detailDivider
	}

	for _, d := range a.Details {
		s.append(propertyValues(d.Listing.Property, d.Listing.ListPrice, d.Listing.ListDate)...)
		s.link(zillowCol, d.Listing.Address)
		for _, c := range d.Comps {
			s.append(propertyValues(c.Property, c.SalePrice, c.CloseDate)...)
			s.link(zillowCol, c.Address)
		}
		s.append(divider...)
	}
	return s.wrap("details sheet")
}

func writeCriteriaSheet(f *excelize.File, st *styles, a *models.Analysis) error {
	s := &sheetRows{f: f, name: sheetCriteria}
	c := a.Criteria
	s.header(st, []string{
		"Same ZIP", "Same County", "Same City", "Same Sub", "Same # Bedrooms",
		"Bedroom Tolerance", "SF Range (%)", "Group By", "Focus",
	})
	s.append(c.SameZip, c.SameCounty, c.SameCity, c.SameSub, c.SameBedrooms,
		c.BedroomTolerance, c.SizeTolerancePct, a.GroupBy, strings.Join(a.Focus, ", "))
	return s.wrap("criteria sheet")
}
