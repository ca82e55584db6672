package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

const (
	inputListings = "listings"
	inputComps    = "comps"
)

// Canonical column names, as they appear in the MLS export.
const (
	colID         = "MLS #"
	colArea       = "Area"
	colAddress    = "Address"
	colCounty     = "County"
	colCity       = "City"
	colZip        = "Zip"
	colSub        = "Sub"
	colBedrooms   = "Bedrooms"
	colFullBaths  = "Full Baths"
	colFinishedSF = "Total Finished SF"
	colListPrice  = "List Price"
	colListDate   = "List Dt"
	colSalePrice  = "Sale Price"
	colCloseDate  = "Close Dt"
)

// columnAliases maps each canonical column to the header spellings accepted
// for it. Headers are compared lower-cased with whitespace collapsed.
var columnAliases = map[string][]string{
	colID:         {"mls #", "mls#", "mls", "mls number", "listing id", "id"},
	colArea:       {"area"},
	colAddress:    {"address", "street address"},
	colCounty:     {"county"},
	colCity:       {"city"},
	colZip:        {"zip", "zip code", "zipcode", "postal code"},
	colSub:        {"sub", "subdivision"},
	colBedrooms:   {"bedrooms", "beds", "bedroom"},
	colFullBaths:  {"full baths", "baths full"},
	colFinishedSF: {"total finished sf", "finished sf", "total sf", "sqft"},
	colListPrice:  {"list price"},
	colListDate:   {"list dt", "list date"},
	colSalePrice:  {"sale price", "sold price", "close price"},
	colCloseDate:  {"close dt", "close date", "sold date"},
}

var (
	listingColumns = []string{colID, colArea, colAddress, colCounty, colCity, colZip, colSub,
		colBedrooms, colFullBaths, colFinishedSF, colListPrice, colListDate}
	compColumns = []string{colID, colArea, colAddress, colCounty, colCity, colZip, colSub,
		colBedrooms, colFullBaths, colFinishedSF, colSalePrice, colCloseDate}

	// numberNoise is stripped before parsing: currency symbols, grouping commas, blanks.
	numberNoise = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")
	// floatZipRegexp matches ZIP codes that went through a float column, e.g. "64111.0".
	floatZipRegexp = regexp.MustCompile(`^(\d+)\.0+$`)
)

// NormalizedSet is the typed output of one normalisation pass.
type NormalizedSet struct {
	Listings []models.Listing
	Comps    []models.Comp
	Warnings []models.DataQualityWarning
}

// Normalizer turns RawTables into typed Listings and Comps.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize cleans both inputs. Both status columns are checked before any
// row is processed; a missing one aborts with a *models.SchemaError.
func (n *Normalizer) Normalize(listings, comps models.RawTable) (*NormalizedSet, error) {
	if _, err := statusColumn(listings, inputListings); err != nil {
		return nil, err
	}
	if _, err := statusColumn(comps, inputComps); err != nil {
		return nil, err
	}

	ls, lw, err := n.NormalizeListings(listings)
	if err != nil {
		return nil, err
	}
	cs, cw, err := n.NormalizeComps(comps)
	if err != nil {
		return nil, err
	}

	return &NormalizedSet{
		Listings: ls,
		Comps:    cs,
		Warnings: append(lw, cw...),
	}, nil
}

// NormalizeListings types every row of t as a Listing.
func (n *Normalizer) NormalizeListings(t models.RawTable) ([]models.Listing, []models.DataQualityWarning, error) {
	status, err := statusColumn(t, inputListings)
	if err != nil {
		return nil, nil, err
	}

	p := newRowParser(inputListings, t.Headers, status, listingColumns)
	seen := utils.NewKeySet()
	out := make([]models.Listing, 0, len(t.Rows))

	for _, row := range t.Rows {
		prop := p.property(row, seen)
		out = append(out, models.Listing{
			Property:  prop,
			ListPrice: p.number(row, colListPrice, prop.ID),
			ListDate:  normaliseText(p.cell(row, colListDate)),
		})
	}

	n.report(inputListings, len(t.Rows), len(out), p.warnings)
	return out, p.warnings, nil
}

// NormalizeComps types every row of t as a Comp.
func (n *Normalizer) NormalizeComps(t models.RawTable) ([]models.Comp, []models.DataQualityWarning, error) {
	status, err := statusColumn(t, inputComps)
	if err != nil {
		return nil, nil, err
	}

	p := newRowParser(inputComps, t.Headers, status, compColumns)
	seen := utils.NewKeySet()
	out := make([]models.Comp, 0, len(t.Rows))

	for _, row := range t.Rows {
		prop := p.property(row, seen)
		out = append(out, models.Comp{
			Property:  prop,
			SalePrice: p.number(row, colSalePrice, prop.ID),
			CloseDate: normaliseText(p.cell(row, colCloseDate)),
		})
	}

	n.report(inputComps, len(t.Rows), len(out), p.warnings)
	return out, p.warnings, nil
}

func (n *Normalizer) report(input string, in, out int, warnings []models.DataQualityWarning) {
	n.logger.Info("[normalizer] Cleaned %s %d -> %d records (dropped %d, %d warnings)",
		input, in, out, in-out, len(warnings))
	for _, w := range warnings {
		n.logger.Warn("[normalizer] %s", w)
	}
}

// statusColumn finds the first header containing "status", case-insensitively.
func statusColumn(t models.RawTable, input string) (int, error) {
	for i, h := range t.Headers {
		if strings.Contains(strings.ToLower(h), "status") {
			return i, nil
		}
	}
	return -1, &models.SchemaError{Input: input, Column: "status"}
}

type rowParser struct {
	input    string
	status   int
	index    map[string]int
	warnings []models.DataQualityWarning
}

func newRowParser(input string, headers []string, status int, want []string) *rowParser {
	byHeader := make(map[string]int, len(headers))
	for i, h := range headers {
		key := headerKey(h)
		if _, dup := byHeader[key]; !dup {
			byHeader[key] = i
		}
	}

	p := &rowParser{input: input, status: status, index: make(map[string]int, len(want))}
	for _, col := range want {
		p.index[col] = -1
		for _, alias := range columnAliases[col] {
			if i, ok := byHeader[alias]; ok {
				p.index[col] = i
				break
			}
		}
		if p.index[col] < 0 {
			p.warn("", col, "column not present")
		}
	}
	return p
}

func (p *rowParser) warn(id, field, reason string) {
	p.warnings = append(p.warnings, models.DataQualityWarning{
		Input:    p.input,
		RecordID: id,
		Field:    field,
		Reason:   reason,
	})
}

func (p *rowParser) cell(row []string, col string) string {
	i, ok := p.index[col]
	if !ok || i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// property parses the shared fields. Rows with a missing or repeated
// identifier are kept and flagged.
func (p *rowParser) property(row []string, seen *utils.KeySet) models.Property {
	id := strings.TrimSpace(p.cell(row, colID))
	if id == "" {
		p.warn("", colID, "missing identifier")
	} else if !seen.Add(id) {
		p.warn(id, colID, "duplicate identifier")
	}

	var status string
	if p.status < len(row) {
		status = normaliseStatus(row[p.status])
	}

	return models.Property{
		ID:          id,
		Status:      status,
		Area:        normaliseText(p.cell(row, colArea)),
		Address:     normaliseText(p.cell(row, colAddress)),
		County:      normaliseText(p.cell(row, colCounty)),
		City:        normaliseText(p.cell(row, colCity)),
		Zip:         normaliseZip(p.cell(row, colZip)),
		Subdivision: normaliseText(p.cell(row, colSub)),
		Bedrooms:    p.count(row, colBedrooms, id),
		FullBaths:   p.count(row, colFullBaths, id),
		FinishedSF:  p.number(row, colFinishedSF, id),
	}
}

// number parses a non-negative numeric cell. Blank cells are absent without
// a warning; anything unparseable is absent with one.
func (p *rowParser) number(row []string, col, id string) models.Float {
	raw := p.cell(row, col)
	v, ok, blank := parseNumber(raw)
	if !ok {
		if !blank {
			p.warn(id, col, "unparseable numeric value "+strconv.Quote(strings.TrimSpace(raw)))
		}
		return models.None[float64]()
	}
	return models.Some(v)
}

// count parses a whole-number cell such as bedrooms; "3.0" is accepted.
func (p *rowParser) count(row []string, col, id string) models.Int {
	raw := p.cell(row, col)
	v, ok, blank := parseNumber(raw)
	if !ok {
		if !blank {
			p.warn(id, col, "unparseable numeric value "+strconv.Quote(strings.TrimSpace(raw)))
		}
		return models.None[int]()
	}
	if v != math.Trunc(v) {
		p.warn(id, col, "fractional count "+strconv.Quote(strings.TrimSpace(raw)))
		return models.None[int]()
	}
	return models.Some(int(v))
}

// parseNumber returns the value, whether it parsed, and whether the cell was blank.
func parseNumber(raw string) (float64, bool, bool) {
	s := numberNoise.Replace(strings.TrimSpace(raw))
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "null", "none", "-":
		return 0, false, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false, false
	}
	return v, true, false
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func normaliseStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normaliseZip keeps ZIP codes as strings so leading zeros survive.
func normaliseZip(s string) string {
	s = strings.TrimSpace(s)
	if m := floatZipRegexp.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func headerKey(h string) string {
	return strings.ToLower(normaliseText(h))
}
