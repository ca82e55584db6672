package models

// MatchResult is computed once per listing per run and never mutated.
// Comps is a filtered copy; the comp set it was drawn from is untouched.
type MatchResult struct {
	Listing      Listing             `json:"listing"`
	Comps        []Comp              `json:"-"`
	Count        int                 `json:"comp_count"`
	AvgCompPrice Float               `json:"avg_comp_price"`
	PriceDiff    Float               `json:"price_diff"`
	PriceDiffPct Float               `json:"price_diff_pct"`
	Warning      *DataQualityWarning `json:"warning,omitempty"`
}

// RankedResult is a MatchResult with its 1-based position in the ranking.
type RankedResult struct {
	Rank int `json:"rank"`
	MatchResult
}

// SummaryRow aggregates one group, or the whole universe when Group is "".
type SummaryRow struct {
	Group         string `json:"group,omitempty"`
	ListingsCount int    `json:"listings_count"`
	SoldCount     int    `json:"sold_count"`
	AvgListPrice  Float  `json:"avg_list_price"`
	AvgSoldPrice  Float  `json:"avg_sold_price"`
	Gap           Float  `json:"sold_minus_list"`
	GapPct        Float  `json:"sold_minus_list_pct"`
}

// Detail is the full matched-comp view of one selected listing.
type Detail struct {
	Listing Listing `json:"listing"`
	Comps   []Comp  `json:"comps"`
}

// Analysis is everything one run produces.
type Analysis struct {
	RunID       string               `json:"run_id"`
	Criteria    MatchCriteria        `json:"criteria"`
	Grouping    Grouping             `json:"-"`
	GroupBy     string               `json:"group_by"`
	Focus       []string             `json:"focus,omitempty"`
	ActiveCount int                  `json:"active_count"`
	SoldCount   int                  `json:"sold_count"`
	Summary     []SummaryRow         `json:"summary"`
	Ranked      []RankedResult       `json:"ranked"`
	Details     []Detail             `json:"details,omitempty"`
	Warnings    []DataQualityWarning `json:"warnings"`
}
