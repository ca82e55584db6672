package services

import (
	"sort"
	"strings"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

// Aggregator builds summary rows and ranks match results.
type Aggregator struct {
	logger *utils.Logger
}

func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

type groupAcc struct {
	key       string
	label     string
	listPrice []models.Float
	salePrice []models.Float
	active    int
	sold      int
}

// Summarize computes counts, average prices and the sold-minus-list gap.
// With GroupNone it returns one global row; otherwise one row per group
// value, ordered by descending active count then group key. Records with a
// blank group value are left out of grouped rows. Empty inputs are not an
// error.
func (a *Aggregator) Summarize(active []models.Listing, sold []models.Comp, g models.Grouping) []models.SummaryRow {
	if g == models.GroupNone {
		acc := &groupAcc{}
		for _, l := range active {
			acc.active++
			acc.listPrice = append(acc.listPrice, l.ListPrice)
		}
		for _, c := range sold {
			acc.sold++
			acc.salePrice = append(acc.salePrice, c.SalePrice)
		}
		return []models.SummaryRow{acc.row()}
	}

	groups := make(map[string]*groupAcc)
	lookup := func(p models.Property) *groupAcc {
		label := strings.TrimSpace(g.Key(p))
		if label == "" {
			return nil
		}
		key := strings.ToLower(label)
		acc, ok := groups[key]
		if !ok {
			acc = &groupAcc{key: key, label: label}
			groups[key] = acc
		}
		return acc
	}

	for _, l := range active {
		if acc := lookup(l.Property); acc != nil {
			acc.active++
			acc.listPrice = append(acc.listPrice, l.ListPrice)
		}
	}
	for _, c := range sold {
		if acc := lookup(c.Property); acc != nil {
			acc.sold++
			acc.salePrice = append(acc.salePrice, c.SalePrice)
		}
	}

	accs := make([]*groupAcc, 0, len(groups))
	for _, acc := range groups {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool {
		if accs[i].active != accs[j].active {
			return accs[i].active > accs[j].active
		}
		return accs[i].key < accs[j].key
	})

	rows := make([]models.SummaryRow, 0, len(accs))
	for _, acc := range accs {
		rows = append(rows, acc.row())
	}
	a.logger.Debug("[aggregator] Summarised %d active / %d sold into %d %s groups",
		len(active), len(sold), len(rows), g)
	return rows
}

func (acc *groupAcc) row() models.SummaryRow {
	row := models.SummaryRow{
		Group:         acc.label,
		ListingsCount: acc.active,
		SoldCount:     acc.sold,
		AvgListPrice:  models.Mean(acc.listPrice),
		AvgSoldPrice:  models.Mean(acc.salePrice),
	}
	row.Gap, row.GapPct = gap(row.AvgSoldPrice, row.AvgListPrice)
	return row
}

// gap returns sold-list and its percentage of list. The percentage is
// absent when list is absent or zero.
func gap(sold, list models.Float) (models.Float, models.Float) {
	s, ok := sold.Get()
	if !ok {
		return models.None[float64](), models.None[float64]()
	}
	l, ok := list.Get()
	if !ok {
		return models.None[float64](), models.None[float64]()
	}
	abs := models.FiniteFloat(s - l)
	if l == 0 {
		return abs, models.None[float64]()
	}
	return abs, models.FiniteFloat((s - l) / l * 100)
}

// Rank orders results by PriceDiffPct descending. Ties and results without
// a PriceDiffPct keep their input order; the latter always come last.
// The input slice is not reordered.
func (a *Aggregator) Rank(results []models.MatchResult) []models.RankedResult {
	ordered := make([]models.MatchResult, len(results))
	copy(ordered, results)

	sort.SliceStable(ordered, func(i, j int) bool {
		pi, iok := ordered[i].PriceDiffPct.Get()
		pj, jok := ordered[j].PriceDiffPct.Get()
		switch {
		case iok && jok:
			return pi > pj
		case iok:
			return true
		default:
			return false
		}
	})

	ranked := make([]models.RankedResult, len(ordered))
	for i, r := range ordered {
		ranked[i] = models.RankedResult{Rank: i + 1, MatchResult: r}
	}
	return ranked
}
