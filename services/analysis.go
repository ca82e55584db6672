package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

// AnalysisRequest is one complete analysis run's input.
type AnalysisRequest struct {
	Listings models.RawTable
	Comps    models.RawTable
	Criteria models.MatchCriteria
	Grouping models.Grouping
	// Focus restricts matching to active listings whose grouping value is
	// listed (case-insensitive). Ignored with GroupNone; empty means all.
	Focus []string
	// Selected lists listing IDs whose matched comps are returned in full.
	Selected []string
}

// Analyzer runs normalisation, matching, summary and ranking for one
// request. It holds no state between runs.
type Analyzer struct {
	logger   *utils.Logger
	validate *validator.Validate
}

func NewAnalyzer(logger *utils.Logger) *Analyzer {
	return &Analyzer{logger: logger, validate: validator.New()}
}

// ValidateCriteria checks c against the supported ranges.
func (a *Analyzer) ValidateCriteria(c models.MatchCriteria) error {
	if err := a.validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidCriteria, err)
	}
	return nil
}

// Run executes one analysis. A *models.SchemaError or invalid criteria
// abort the run; data-quality problems are returned in Analysis.Warnings.
func (a *Analyzer) Run(req AnalysisRequest) (*models.Analysis, error) {
	if err := a.ValidateCriteria(req.Criteria); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := a.logger.With("run_id", runID)
	log.Info("[analyzer] Run started: %d listing rows, %d comp rows, group by %s",
		len(req.Listings.Rows), len(req.Comps.Rows), req.Grouping)

	set, err := NewNormalizer(log).Normalize(req.Listings, req.Comps)
	if err != nil {
		log.Error("[analyzer] Normalisation failed: %v", err)
		return nil, err
	}

	active := models.ActiveListings(set.Listings)
	sold := models.SoldComps(set.Comps)
	agg := NewAggregator(log)

	analysis := &models.Analysis{
		RunID:       runID,
		Criteria:    req.Criteria,
		Grouping:    req.Grouping,
		GroupBy:     req.Grouping.String(),
		ActiveCount: len(active),
		SoldCount:   len(sold),
		Summary:     agg.Summarize(active, sold, req.Grouping),
		Warnings:    append([]models.DataQualityWarning{}, set.Warnings...),
	}

	candidates := active
	if req.Grouping != models.GroupNone && len(req.Focus) > 0 {
		analysis.Focus = req.Focus
		candidates = focusListings(active, req.Grouping, req.Focus)
	}

	results := MatchAll(candidates, sold, req.Criteria)
	for _, r := range results {
		if r.Warning != nil {
			log.Warn("[analyzer] %s", *r.Warning)
			analysis.Warnings = append(analysis.Warnings, *r.Warning)
		}
	}
	analysis.Ranked = agg.Rank(results)

	details, missing := selectDetails(results, req.Selected)
	analysis.Details = details
	for _, id := range missing {
		w := models.DataQualityWarning{Input: "selection", RecordID: id, Field: colID, Reason: "not among analysed listings"}
		log.Warn("[analyzer] %s", w)
		analysis.Warnings = append(analysis.Warnings, w)
	}

	log.Info("[analyzer] Run finished: %d active, %d sold, %d ranked, %d warnings",
		analysis.ActiveCount, analysis.SoldCount, len(analysis.Ranked), len(analysis.Warnings))
	return analysis, nil
}

func focusListings(active []models.Listing, g models.Grouping, focus []string) []models.Listing {
	want := make(map[string]struct{}, len(focus))
	for _, f := range focus {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			want[f] = struct{}{}
		}
	}

	out := make([]models.Listing, 0, len(active))
	for _, l := range active {
		if _, ok := want[strings.ToLower(strings.TrimSpace(g.Key(l.Property)))]; ok {
			out = append(out, l)
		}
	}
	return out
}

// selectDetails returns details in selection order, skipping repeats, and
// the selected IDs that matched no analysed listing. A repeated listing ID
// resolves to its first row.
func selectDetails(results []models.MatchResult, selected []string) ([]models.Detail, []string) {
	if len(selected) == 0 {
		return nil, nil
	}

	byID := make(map[string]models.MatchResult, len(results))
	for _, r := range results {
		if r.Listing.ID == "" {
			continue
		}
		if _, dup := byID[r.Listing.ID]; !dup {
			byID[r.Listing.ID] = r
		}
	}

	seen := utils.NewKeySet()
	var details []models.Detail
	var missing []string
	for _, id := range selected {
		id = strings.TrimSpace(id)
		if id == "" || !seen.Add(id) {
			continue
		}
		r, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		comps := make([]models.Comp, len(r.Comps))
		copy(comps, r.Comps)
		details = append(details, models.Detail{Listing: r.Listing, Comps: comps})
	}
	return details, missing
}
