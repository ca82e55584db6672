package models

// RawTable holds an unprocessed tabular export exactly as read from a CSV
// file or a database table. Cells are untyped strings; nothing is cleaned.
type RawTable struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Status values that let a record participate in matching.
const (
	StatusActive = "active"
	StatusSold   = "sold"
)

// Property carries the fields shared by active listings and sold comps.
// Geography fields are trimmed but keep their original case; comparisons
// are done case-insensitively by the matcher.
type Property struct {
	ID          string `json:"mls"`
	Status      string `json:"status"`
	Area        string `json:"area"`
	Address     string `json:"address"`
	County      string `json:"county"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	Subdivision string `json:"sub"`
	Bedrooms    Int    `json:"bedrooms"`
	FullBaths   Int    `json:"full_baths"`
	FinishedSF  Float  `json:"total_finished_sf"`
}

// Listing is an active inventory record.
type Listing struct {
	Property
	ListPrice Float  `json:"list_price"`
	ListDate  string `json:"list_date"`
}

// IsActive reports whether the listing participates in matching.
func (l Listing) IsActive() bool {
	return l.Status == StatusActive
}

// Comp is a sold reference record.
type Comp struct {
	Property
	SalePrice Float  `json:"sale_price"`
	CloseDate string `json:"close_date"`
}

// IsSold reports whether the comp may be used as a price reference.
func (c Comp) IsSold() bool {
	return c.Status == StatusSold
}

// ActiveListings returns the listings whose status is active, in input order.
func ActiveListings(listings []Listing) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.IsActive() {
			out = append(out, l)
		}
	}
	return out
}

// SoldComps returns the comps whose status is sold, in input order.
func SoldComps(comps []Comp) []Comp {
	out := make([]Comp, 0, len(comps))
	for _, c := range comps {
		if c.IsSold() {
			out = append(out, c)
		}
	}
	return out
}
