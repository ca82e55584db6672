package services

import (
	"strings"

	"flip-analyzer/models"
)

// Match selects the comps that match l under c and prices l against them.
// It is a pure function: comps is only read, and the returned Comps slice
// is a fresh copy.
//
// A listing without a usable (present, positive) size cannot define a
// tolerance band; it gets no comps and carries a DataQualityWarning.
func Match(l models.Listing, comps []models.Comp, c models.MatchCriteria) models.MatchResult {
	res := models.MatchResult{Listing: l, Comps: []models.Comp{}}

	size, ok := l.FinishedSF.Get()
	if !ok || size <= 0 {
		res.Warning = &models.DataQualityWarning{
			Input:    inputListings,
			RecordID: l.ID,
			Field:    colFinishedSF,
			Reason:   "no usable size, comps not matched",
		}
		return res
	}

	delta := size * c.SizeTolerancePct / 100
	lo, hi := size-delta, size+delta

	prices := make([]models.Float, 0)
	for _, comp := range comps {
		if !comp.IsSold() || !passesCriteria(l, comp, c) {
			continue
		}
		compSize, ok := comp.FinishedSF.Get()
		if !ok || compSize < lo || compSize > hi {
			continue
		}
		res.Comps = append(res.Comps, comp)
		prices = append(prices, comp.SalePrice)
	}

	res.Count = len(res.Comps)
	res.AvgCompPrice = models.Mean(prices)

	avg, hasAvg := res.AvgCompPrice.Get()
	list, hasList := l.ListPrice.Get()
	if hasAvg && hasList {
		res.PriceDiff = models.Some(avg - list)
		if list > 0 {
			res.PriceDiffPct = models.FiniteFloat((avg - list) / list * 100)
		}
	}
	return res
}

// MatchAll runs Match for every listing, preserving input order.
func MatchAll(listings []models.Listing, comps []models.Comp, c models.MatchCriteria) []models.MatchResult {
	out := make([]models.MatchResult, 0, len(listings))
	for _, l := range listings {
		out = append(out, Match(l, comps, c))
	}
	return out
}

// passesCriteria applies the enabled predicates conjunctively. A blank or
// absent value on either side never satisfies an enabled predicate.
func passesCriteria(l models.Listing, comp models.Comp, c models.MatchCriteria) bool {
	if c.SameZip && !sameExact(l.Zip, comp.Zip) {
		return false
	}
	if c.SameCounty && !sameFold(l.County, comp.County) {
		return false
	}
	if c.SameCity && !sameFold(l.City, comp.City) {
		return false
	}
	if c.SameSub && !sameFold(l.Subdivision, comp.Subdivision) {
		return false
	}
	if c.SameBedrooms && !bedroomsWithin(l.Bedrooms, comp.Bedrooms, c.BedroomTolerance) {
		return false
	}
	return true
}

func sameExact(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && a == b
}

func sameFold(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func bedroomsWithin(a, b models.Int, tolerance int) bool {
	x, ok := a.Get()
	if !ok {
		return false
	}
	y, ok := b.Get()
	if !ok {
		return false
	}
	d := x - y
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
