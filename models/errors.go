package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCriteria = errors.New("invalid match criteria")
	ErrUnknownGrouping = errors.New("unknown grouping dimension")
)

// SchemaError reports a required column missing from one input. It is fatal
// to the whole run; no partial result is produced.
type SchemaError struct {
	Input  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s input has no %q column", e.Input, e.Column)
}

// DataQualityWarning flags a non-fatal problem with one record or column.
// The affected field is treated as absent and the row is still processed.
type DataQualityWarning struct {
	Input    string `json:"input"`
	RecordID string `json:"record_id,omitempty"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}

func (w DataQualityWarning) String() string {
	if w.RecordID == "" {
		return fmt.Sprintf("%s: %s: %s", w.Input, w.Field, w.Reason)
	}
	return fmt.Sprintf("%s %s: %s: %s", w.Input, w.RecordID, w.Field, w.Reason)
}
