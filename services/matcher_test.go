package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flip-analyzer/models"
)

func activeListing(id, zip string, beds int, sf, price float64) models.Listing {
	return models.Listing{
		Property: models.Property{
			ID: id, Status: models.StatusActive, Zip: zip, County: "Jackson", City: "Kansas City",
			Subdivision: "Brookside", Bedrooms: models.Some(beds), FinishedSF: models.Some(sf),
		},
		ListPrice: models.Some(price),
	}
}

func soldComp(id, zip string, beds int, sf, price float64) models.Comp {
	return models.Comp{
		Property: models.Property{
			ID: id, Status: models.StatusSold, Zip: zip, County: "Jackson", City: "Kansas City",
			Subdivision: "Brookside", Bedrooms: models.Some(beds), FinishedSF: models.Some(sf),
		},
		SalePrice: models.Some(price),
	}
}

func criteria(sameZip, sameBeds bool, tol float64) models.MatchCriteria {
	return models.MatchCriteria{SameZip: sameZip, SameBedrooms: sameBeds, SizeTolerancePct: tol}
}

func mustFloat(t *testing.T, f models.Float) float64 {
	t.Helper()
	v, ok := f.Get()
	require.True(t, ok, "expected a present value")
	return v
}

func TestMatchScenario(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1500, 200000)
	comps := []models.Comp{
		soldComp("C1", "64111", 3, 1450, 230000),
		soldComp("C2", "64111", 4, 1480, 250000),
	}

	res := Match(l, comps, criteria(true, true, 15))

	require.Len(t, res.Comps, 1)
	assert.Equal(t, "C1", res.Comps[0].ID)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 230000.0, mustFloat(t, res.AvgCompPrice))
	assert.Equal(t, 30000.0, mustFloat(t, res.PriceDiff))
	assert.InDelta(t, 15.0, mustFloat(t, res.PriceDiffPct), 1e-9)
	assert.Nil(t, res.Warning)
}

func TestMatchBedroomTolerance(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1500, 200000)
	comps := []models.Comp{
		soldComp("C1", "64111", 3, 1450, 230000),
		soldComp("C2", "64111", 4, 1480, 250000),
		soldComp("C3", "64111", 5, 1500, 270000),
	}
	c := criteria(true, true, 15)
	c.BedroomTolerance = 1

	res := Match(l, comps, c)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 240000.0, mustFloat(t, res.AvgCompPrice))
}

func TestMatchCountEqualsMatchedLength(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1500, 200000)
	comps := []models.Comp{
		soldComp("C1", "64111", 3, 1450, 230000),
		soldComp("C2", "64112", 3, 1500, 210000),
		soldComp("C3", "64111", 2, 1600, 190000),
		soldComp("C4", "64111", 3, 2000, 400000),
	}
	for _, c := range []models.MatchCriteria{
		criteria(true, true, 15), criteria(false, false, 50), criteria(true, false, 5), criteria(false, true, 30),
	} {
		res := Match(l, comps, c)
		assert.Equal(t, len(res.Comps), res.Count)
	}
}

func TestMatchNoFlagsDependsOnlyOnSize(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1000, 100000)
	far := soldComp("C1", "99999", 6, 1050, 150000)
	far.County, far.City, far.Subdivision = "Other", "Elsewhere", "Nowhere"
	outside := soldComp("C2", "64111", 3, 1200, 150000)

	res := Match(l, []models.Comp{far, outside}, criteria(false, false, 10))
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "C1", res.Comps[0].ID)
}

func TestMatchToleranceIsMonotonic(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1500, 200000)
	var comps []models.Comp
	for i, sf := range []float64{700, 900, 1100, 1300, 1400, 1500, 1600, 1700, 1900, 2200, 2300} {
		comps = append(comps, soldComp(string(rune('A'+i)), "64111", 3, sf, 200000+sf))
	}

	prev := -1
	for tol := models.MinSizeTolerancePct; tol <= models.MaxSizeTolerancePct; tol += 5 {
		count := Match(l, comps, criteria(true, true, float64(tol))).Count
		assert.GreaterOrEqual(t, count, prev, "tolerance %d", tol)
		prev = count
	}
}

func TestMatchBandIsInclusive(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1000, 100000)
	comps := []models.Comp{
		soldComp("LOW", "64111", 3, 900, 100000),
		soldComp("HIGH", "64111", 3, 1100, 100000),
		soldComp("BELOW", "64111", 3, 899.5, 100000),
		soldComp("ABOVE", "64111", 3, 1100.5, 100000),
	}
	res := Match(l, comps, criteria(true, true, 10))
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "LOW", res.Comps[0].ID)
	assert.Equal(t, "HIGH", res.Comps[1].ID)
}

func TestMatchZipIsStringComparison(t *testing.T) {
	l := activeListing("L1", " 06510 ", 3, 1000, 100000)
	comps := []models.Comp{
		soldComp("C1", "06510", 3, 1000, 120000),
		soldComp("C2", "6510", 3, 1000, 130000),
	}
	res := Match(l, comps, criteria(true, false, 15))
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "C1", res.Comps[0].ID)
}

func TestMatchGeographyIsCaseInsensitive(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1000, 100000)
	match := soldComp("C1", "64111", 3, 1000, 120000)
	match.County, match.City, match.Subdivision = " JACKSON", "kansas city ", "BROOKSIDE"
	blank := soldComp("C2", "64111", 3, 1000, 120000)
	blank.County = ""

	c := models.MatchCriteria{SameCounty: true, SameCity: true, SameSub: true, SizeTolerancePct: 15}
	res := Match(l, []models.Comp{match, blank}, c)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "C1", res.Comps[0].ID)
}

func TestMatchZeroSizeFlagsWarning(t *testing.T) {
	for _, size := range []models.Float{models.Some(0.0), models.None[float64]()} {
		l := activeListing("L0", "64111", 3, 0, 100000)
		l.FinishedSF = size
		comps := []models.Comp{soldComp("C1", "64111", 3, 0, 120000)}

		res := Match(l, comps, criteria(true, true, 15))
		require.NotNil(t, res.Warning)
		assert.Equal(t, "L0", res.Warning.RecordID)
		assert.Equal(t, 0, res.Count)
		assert.False(t, res.AvgCompPrice.Present())
		assert.False(t, res.PriceDiff.Present())
		assert.False(t, res.PriceDiffPct.Present())
	}
}

func TestMatchSkipsUnsoldAndAbsentSizes(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1000, 100000)
	pending := soldComp("P", "64111", 3, 1000, 500000)
	pending.Status = "pending"
	noSize := soldComp("N", "64111", 3, 0, 500000)
	noSize.FinishedSF = models.None[float64]()

	res := Match(l, []models.Comp{pending, noSize}, criteria(true, true, 15))
	assert.Equal(t, 0, res.Count)
	assert.False(t, res.AvgCompPrice.Present())
	assert.Nil(t, res.Warning)
}

func TestMatchAverageIgnoresAbsentSalePrice(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1000, 100000)
	noPrice := soldComp("C2", "64111", 3, 1000, 0)
	noPrice.SalePrice = models.None[float64]()
	comps := []models.Comp{soldComp("C1", "64111", 3, 1000, 120000), noPrice}

	res := Match(l, comps, criteria(true, true, 15))
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 120000.0, mustFloat(t, res.AvgCompPrice))
}

func TestMatchZeroListPriceHasNoPercent(t *testing.T) {
	l := activeListing("L1", "64111", 3, 1000, 0)
	res := Match(l, []models.Comp{soldComp("C1", "64111", 3, 1000, 120000)}, criteria(true, true, 15))
	assert.Equal(t, 120000.0, mustFloat(t, res.PriceDiff))
	assert.False(t, res.PriceDiffPct.Present())
}

func TestMatchDoesNotMutateComps(t *testing.T) {
	comps := []models.Comp{
		soldComp("C1", "64111", 3, 1450, 230000),
		soldComp("C2", "64111", 4, 1480, 250000),
	}
	before := make([]models.Comp, len(comps))
	copy(before, comps)

	res := Match(activeListing("L1", "64111", 3, 1500, 200000), comps, criteria(true, true, 15))
	res.Comps[0].ID = "changed"

	assert.Equal(t, before, comps)
}
