package models

import (
	"fmt"
	"strings"
)

// Size tolerance bounds, in percent.
const (
	MinSizeTolerancePct     = 5
	MaxSizeTolerancePct     = 50
	DefaultSizeTolerancePct = 15
)

// MatchCriteria configures which comps count as matching a listing. It is a
// plain value passed into each call and never mutated.
type MatchCriteria struct {
	SameZip      bool `json:"same_zip"`
	SameCounty   bool `json:"same_county"`
	SameCity     bool `json:"same_city"`
	SameSub      bool `json:"same_sub"`
	SameBedrooms bool `json:"same_bedrooms"`

	// BedroomTolerance widens SameBedrooms to |comp - listing| <= n. Zero is exact match.
	BedroomTolerance int `json:"bedroom_tolerance" validate:"gte=0,lte=5"`

	SizeTolerancePct float64 `json:"sf_range_pct" validate:"gte=5,lte=50"`
}

// DefaultCriteria mirrors the analyzer's out-of-the-box settings:
// same ZIP, same bedroom count, ±15% finished size.
func DefaultCriteria() MatchCriteria {
	return MatchCriteria{
		SameZip:          true,
		SameBedrooms:     true,
		SizeTolerancePct: DefaultSizeTolerancePct,
	}
}

// Grouping is a supported summary dimension.
type Grouping int

const (
	GroupNone Grouping = iota
	GroupArea
	GroupCounty
	GroupCity
	GroupSubdivision
)

var groupingNames = map[Grouping]string{
	GroupNone:        "ALL",
	GroupArea:        "Area",
	GroupCounty:      "County",
	GroupCity:        "City",
	GroupSubdivision: "Sub",
}

func (g Grouping) String() string {
	if name, ok := groupingNames[g]; ok {
		return name
	}
	return fmt.Sprintf("Grouping(%d)", int(g))
}

// ParseGrouping accepts the dimension names used in exports and config.
func ParseGrouping(s string) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "none":
		return GroupNone, nil
	case "area":
		return GroupArea, nil
	case "county":
		return GroupCounty, nil
	case "city":
		return GroupCity, nil
	case "sub", "subdivision":
		return GroupSubdivision, nil
	}
	return GroupNone, fmt.Errorf("%w: %q", ErrUnknownGrouping, s)
}

// Key returns the grouping value of p. GroupNone always yields "".
func (g Grouping) Key(p Property) string {
	switch g {
	case GroupArea:
		return p.Area
	case GroupCounty:
		return p.County
	case GroupCity:
		return p.City
	case GroupSubdivision:
		return p.Subdivision
	}
	return ""
}
