package services

import (
	"fmt"
	"io"
	"strings"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

// Print writes a terminal report of a: summary, ranked candidates,
// selected details and warnings.
func Print(w io.Writer, a *models.Analysis) {
	sep := strings.Repeat("═", 96)
	thin := strings.Repeat("─", 96)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏠 FLIP ANALYSIS  (run %s)\033[0m\n", a.RunID)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	c := a.Criteria
	fmt.Fprintf(w, "\033[1;33m  Comps Matching Criteria\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Same ZIP: %v | Same County: %v | Same City: %v | Same Sub: %v | Same # Bedrooms: %v (±%d) | ± SF Range: %.0f%%\n\n",
		c.SameZip, c.SameCounty, c.SameCity, c.SameSub, c.SameBedrooms, c.BedroomTolerance, c.SizeTolerancePct)

	fmt.Fprintf(w, "\033[1;33m  Summary by %s\033[0m\n", a.GroupBy)
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  %-24s %9s %9s %14s %14s %14s %9s\n",
		"Group", "Listings", "Sold", "Avg List", "Avg Sold", "Sold - List", "%")
	for _, r := range a.Summary {
		label := r.Group
		if label == "" {
			label = "ALL"
		}
		fmt.Fprintf(w, "  %-24s %9d %9d %14s %14s %14s %9s\n",
			truncate(label, 24), r.ListingsCount, r.SoldCount,
			models.FormatMoney(r.AvgListPrice), models.FormatMoney(r.AvgSoldPrice),
			models.FormatMoney(r.Gap), models.FormatPct(r.GapPct))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Flip Candidates\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(a.Ranked) == 0 {
		fmt.Fprintf(w, "  No active listings to rank\n")
	} else {
		fmt.Fprintf(w, "  %4s  %-12s %-28s %4s %7s %12s %12s %12s %8s %6s\n",
			"Rank", "MLS #", "Address", "Beds", "SF", "List", "Avg Comp", "Diff", "Diff %", "Comps")
		for _, r := range a.Ranked {
			l := r.Listing
			fmt.Fprintf(w, "  %4d  %-12s %-28s %4s %7s %12s %12s %12s %8s %6d\n",
				r.Rank, truncate(l.ID, 12), truncate(l.Address, 28),
				models.FormatCount(l.Bedrooms), models.FormatNumber(l.FinishedSF),
				models.FormatMoney(l.ListPrice), models.FormatMoney(r.AvgCompPrice),
				models.FormatMoney(r.PriceDiff), models.FormatPct(r.PriceDiffPct), r.Count)
		}
	}
	fmt.Fprintln(w)

	for _, d := range a.Details {
		fmt.Fprintf(w, "\033[1;33m  📌 Flip Details: MLS %s\033[0m  %s\n", d.Listing.ID, utils.LookupURL(d.Listing.Address))
		fmt.Fprintf(w, "  %s\n", thin)
		if len(d.Comps) == 0 {
			fmt.Fprintf(w, "  No matching comps\n\n")
			continue
		}
		for _, comp := range d.Comps {
			fmt.Fprintf(w, "  %-12s %-28s %4s %7s %12s %-12s %s\n",
				truncate(comp.ID, 12), truncate(comp.Address, 28),
				models.FormatCount(comp.Bedrooms), models.FormatNumber(comp.FinishedSF),
				models.FormatMoney(comp.SalePrice), comp.CloseDate, utils.LookupURL(comp.Address))
		}
		fmt.Fprintln(w)
	}

	if len(a.Warnings) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Data Quality Warnings (%d)\033[0m\n", len(a.Warnings))
		fmt.Fprintf(w, "  %s\n", thin)
		for _, warn := range a.Warnings {
			fmt.Fprintf(w, "  • %s\n", warn)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
