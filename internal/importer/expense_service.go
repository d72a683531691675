package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/planledger/internal/domain"
	"github.com/rpattn/planledger/internal/repository"
)

// ExpenseOptions describes one expense-import call.
type ExpenseOptions struct {
	FilePath string
	// Mapping is an optional explicit field→header override. Entries whose
	// header is not present verbatim in the file are dropped silently.
	Mapping      domain.ColumnMapping
	TemplateName string
	// UseSavedTemplate defaults to true when nil.
	UseSavedTemplate  *bool
	SaveTemplate      bool
	TemplateStorePath string
}

func (o ExpenseOptions) useSavedTemplate() bool {
	return o.UseSavedTemplate == nil || *o.UseSavedTemplate
}

// ExpensePreview is the outcome of a dry run. RejectedCount counts rows
// discarded for any reason, duplicates included.
type ExpensePreview struct {
	TotalRows       int                  `json:"totalRows"`
	AcceptedCount   int                  `json:"acceptedCount"`
	RejectedCount   int                  `json:"rejectedCount"`
	DuplicateCount  int                  `json:"duplicateCount"`
	Mapping         domain.ColumnMapping `json:"mapping"`
	TemplateApplied string               `json:"templateApplied,omitempty"`
	TemplateSaved   string               `json:"templateSaved,omitempty"`
	Errors          []domain.RowError    `json:"errors"`
	Accepted        []domain.ExpenseLine `json:"accepted"`
}

// ExpenseCommitResult is an ExpensePreview plus the write outcome.
type ExpenseCommitResult struct {
	ExpensePreview
	InsertedCount         int `json:"insertedCount"`
	SkippedDuplicateCount int `json:"skippedDuplicateCount"`
}

// ExpenseService composes the file reader, mapping resolver, validator,
// and dedup engine into a side-effect-free preview and a transactional
// commit for planned expense lines.
type ExpenseService struct {
	lines repository.ExpenseLineRepository
	tx    repository.TxRunner
}

// NewExpenseService wires the expense importer.
func NewExpenseService(lines repository.ExpenseLineRepository, tx repository.TxRunner) *ExpenseService {
	return &ExpenseService{lines: lines, tx: tx}
}

// Preview runs the full pipeline without touching the ledger. The only
// permitted side effect is a template-store write when SaveTemplate is set.
func (s *ExpenseService) Preview(ctx context.Context, opts ExpenseOptions) (ExpensePreview, error) {
	result := ExpensePreview{
		Errors:   []domain.RowError{},
		Accepted: []domain.ExpenseLine{},
	}

	table, err := ReadTable(opts.FilePath)
	if err != nil {
		return result, err
	}

	store := NewTemplateStore(opts.TemplateStorePath)
	resolved, err := resolveExpenseMapping(opts, table.Headers, store)
	if err != nil {
		return result, err
	}
	result.Mapping = resolved.Mapping
	result.TemplateApplied = resolved.TemplateApplied
	result.TemplateSaved = resolved.TemplateSaved

	existing, err := s.existingFingerprints(ctx)
	if err != nil {
		return result, err
	}

	result.TotalRows = len(table.Records)
	seen := make(map[string]bool)

	for i, record := range table.Records {
		rowNumber := i + 2 // header occupies row 1
		line, errs := validateExpenseRow(rowNumber, resolved.Mapping, record)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		if existing[line.Fingerprint] || seen[line.Fingerprint] {
			seen[line.Fingerprint] = true
			result.DuplicateCount++
			result.Errors = append(result.Errors, domain.RowError{
				RowNumber: rowNumber,
				Code:      domain.RowErrorDuplicate,
				Field:     "row",
				Message:   "duplicate of an existing ledger row or an earlier row in this file",
			})
			continue
		}
		seen[line.Fingerprint] = true
		result.Accepted = append(result.Accepted, line)
	}

	result.AcceptedCount = len(result.Accepted)
	result.RejectedCount = result.TotalRows - result.AcceptedCount
	return result, nil
}

// Commit re-derives the preview fresh, then inserts every accepted row in
// one transaction. An empty accepted set opens no transaction. Committing
// the same file again finds the first run's inserts in the existing set
// and reports them as skipped duplicates.
func (s *ExpenseService) Commit(ctx context.Context, opts ExpenseOptions) (ExpenseCommitResult, error) {
	preview, err := s.Preview(ctx, opts)
	if err != nil {
		return ExpenseCommitResult{ExpensePreview: preview}, err
	}

	result := ExpenseCommitResult{
		ExpensePreview:        preview,
		SkippedDuplicateCount: preview.DuplicateCount,
	}
	if len(preview.Accepted) == 0 {
		return result, nil
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		for _, line := range preview.Accepted {
			if err := s.lines.InsertTx(ctx, tx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to commit expense import: %w", err)
	}

	result.InsertedCount = preview.AcceptedCount
	return result, nil
}

func (s *ExpenseService) existingFingerprints(ctx context.Context) (map[string]bool, error) {
	lines, err := s.lines.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate existing expense lines: %w", err)
	}
	set := make(map[string]bool, len(lines))
	for _, line := range lines {
		set[ExpenseFingerprint(line)] = true
	}
	return set, nil
}
