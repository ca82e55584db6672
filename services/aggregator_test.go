package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

func newTestAggregator() *Aggregator { return NewAggregator(utils.NewNopLogger()) }

func inCounty(l models.Listing, county string) models.Listing {
	l.County = county
	return l
}

func compInCounty(c models.Comp, county string) models.Comp {
	c.County = county
	return c
}

func TestSummarizeGroupedScenario(t *testing.T) {
	active := []models.Listing{
		inCounty(activeListing("A1", "64111", 3, 1500, 100000), "County A"),
		inCounty(activeListing("A2", "64111", 3, 1500, 120000), "County A"),
	}
	sold := []models.Comp{
		compInCounty(soldComp("S1", "64111", 3, 1500, 140000), "County A"),
	}

	rows := newTestAggregator().Summarize(active, sold, models.GroupCounty)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "County A", r.Group)
	assert.Equal(t, 2, r.ListingsCount)
	assert.Equal(t, 1, r.SoldCount)
	assert.Equal(t, 110000.0, mustFloat(t, r.AvgListPrice))
	assert.Equal(t, 140000.0, mustFloat(t, r.AvgSoldPrice))
	assert.Equal(t, 30000.0, mustFloat(t, r.Gap))
	assert.InDelta(t, 27.27, mustFloat(t, r.GapPct), 0.01)
}

func TestSummarizeGroupOrdering(t *testing.T) {
	active := []models.Listing{
		inCounty(activeListing("1", "1", 3, 1, 1), "Clay"),
		inCounty(activeListing("2", "1", 3, 1, 1), "Platte"),
		inCounty(activeListing("3", "1", 3, 1, 1), "Platte"),
		inCounty(activeListing("4", "1", 3, 1, 1), "Cass"),
		inCounty(activeListing("5", "1", 3, 1, 1), ""),
	}
	sold := []models.Comp{compInCounty(soldComp("S", "1", 3, 1, 1), "Bates")}

	rows := newTestAggregator().Summarize(active, sold, models.GroupCounty)

	var got []string
	for _, r := range rows {
		got = append(got, r.Group)
	}
	assert.Equal(t, []string{"Platte", "Cass", "Clay", "Bates"}, got)
}

func TestSummarizeGroupKeysAreCaseInsensitive(t *testing.T) {
	active := []models.Listing{inCounty(activeListing("1", "1", 3, 1, 100), "Jackson")}
	sold := []models.Comp{compInCounty(soldComp("S", "1", 3, 1, 200), " JACKSON ")}

	rows := newTestAggregator().Summarize(active, sold, models.GroupCounty)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ListingsCount)
	assert.Equal(t, 1, rows[0].SoldCount)
}

func TestSummarizeSoldOnlyGroupHasNoGap(t *testing.T) {
	sold := []models.Comp{compInCounty(soldComp("S", "1", 3, 1, 200), "Bates")}

	rows := newTestAggregator().Summarize(nil, sold, models.GroupCounty)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].ListingsCount)
	assert.False(t, rows[0].AvgListPrice.Present())
	assert.False(t, rows[0].Gap.Present())
	assert.False(t, rows[0].GapPct.Present())
}

func TestSummarizeGlobal(t *testing.T) {
	active := []models.Listing{
		activeListing("A1", "1", 3, 1, 100000),
		activeListing("A2", "1", 3, 1, 300000),
	}
	sold := []models.Comp{soldComp("S1", "1", 3, 1, 250000)}

	rows := newTestAggregator().Summarize(active, sold, models.GroupNone)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Group)
	assert.Equal(t, 2, rows[0].ListingsCount)
	assert.Equal(t, 200000.0, mustFloat(t, rows[0].AvgListPrice))
	assert.Equal(t, 50000.0, mustFloat(t, rows[0].Gap))
	assert.InDelta(t, 25.0, mustFloat(t, rows[0].GapPct), 1e-9)
}

func TestSummarizeZeroListPriceLeavesPercentAbsent(t *testing.T) {
	active := []models.Listing{activeListing("A1", "1", 3, 1, 0)}
	sold := []models.Comp{soldComp("S1", "1", 3, 1, 250000)}

	row := newTestAggregator().Summarize(active, sold, models.GroupNone)[0]
	assert.Equal(t, 250000.0, mustFloat(t, row.Gap))
	assert.False(t, row.GapPct.Present())
}

func TestSummarizeEmptyInputs(t *testing.T) {
	agg := newTestAggregator()

	rows := agg.Summarize(nil, nil, models.GroupNone)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].ListingsCount)
	assert.Equal(t, 0, rows[0].SoldCount)
	assert.False(t, rows[0].GapPct.Present())

	assert.Empty(t, agg.Summarize(nil, nil, models.GroupCity))
}

func result(id string, pct models.Float) models.MatchResult {
	return models.MatchResult{Listing: models.Listing{Property: models.Property{ID: id}}, PriceDiffPct: pct}
}

func TestRankOrdersByPercentDescending(t *testing.T) {
	in := []models.MatchResult{
		result("none-1", models.None[float64]()),
		result("low", models.Some(-5.0)),
		result("tie-a", models.Some(12.0)),
		result("high", models.Some(30.0)),
		result("none-2", models.None[float64]()),
		result("tie-b", models.Some(12.0)),
	}

	ranked := newTestAggregator().Rank(in)

	var ids []string
	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank)
		ids = append(ids, r.Listing.ID)
	}
	assert.Equal(t, []string{"high", "tie-a", "tie-b", "low", "none-1", "none-2"}, ids)
	assert.Equal(t, "none-1", in[0].Listing.ID, "input must not be reordered")
}

func TestRankEmptyCompSetKeepsInputOrder(t *testing.T) {
	listings := []models.Listing{
		activeListing("L1", "64111", 3, 1500, 200000),
		activeListing("L2", "64111", 3, 1500, 210000),
		activeListing("L3", "64111", 3, 0, 220000),
	}
	results := MatchAll(listings, nil, models.DefaultCriteria())
	ranked := newTestAggregator().Rank(results)

	require.Len(t, ranked, 3)
	for i, r := range ranked {
		assert.Equal(t, listings[i].ID, r.Listing.ID)
		assert.Equal(t, 0, r.Count)
		assert.False(t, r.AvgCompPrice.Present())
	}
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, newTestAggregator().Rank(nil))
}
