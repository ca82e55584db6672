package storage

import (
	"context"

	"flip-analyzer/models"
)

// TableSource yields the raw listing and comp tables for one run.
type TableSource interface {
	Tables(ctx context.Context) (listings, comps models.RawTable, err error)
	Close() error
}

// AnalysisWriter is the interface any export backend must satisfy.
type AnalysisWriter interface {
	Write(a *models.Analysis) error
	Close() error
}
