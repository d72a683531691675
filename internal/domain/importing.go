package domain

import "time"

// RowErrorCode classifies a per-row import finding.
type RowErrorCode string

const (
	RowErrorValidation RowErrorCode = "validation"
	RowErrorDuplicate  RowErrorCode = "duplicate"
)

// RowError is one validation or duplicate finding for a source row.
// Field is the catalog field name, or "row" for whole-row findings.
type RowError struct {
	RowNumber int          `json:"row_number"`
	Code      RowErrorCode `json:"code"`
	Field     string       `json:"field"`
	Message   string       `json:"message"`
}

// ColumnMapping assigns catalog fields to source column headers.
// Keys are catalog field names, values are headers exactly as they
// appear in the source file.
type ColumnMapping map[string]string

// MappingTemplate is a saved, reusable column mapping. Templates are
// looked up by exact name first, then by header signature, so the same
// spreadsheet shape is recognized on re-upload without renaming.
type MappingTemplate struct {
	Name            string        `json:"name"`
	HeaderSignature string        `json:"headerSignature"`
	Mapping         ColumnMapping `json:"mapping"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
