package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/planledger/internal/domain"
	"github.com/rpattn/planledger/internal/repository"
)

// unmatchedReviewLimit caps the review queue returned by a commit.
const unmatchedReviewLimit = 20

// Matcher is the reconciliation collaborator consumed by the actuals
// importer. It accepts committed actual rows, matches them against planned
// expense lines, and reports aggregate statistics; ListUnmatched feeds the
// review queue.
type Matcher interface {
	IngestActualTransactions(ctx context.Context, scenarioID string, rows []domain.ActualTransaction) (domain.MatchStats, error)
	ListUnmatchedActualTransactions(ctx context.Context, scenarioID string, limit int) ([]domain.ActualTransaction, error)
}

// ActualsOptions describes one actuals-import call. The actuals importer
// never persists mapping templates.
type ActualsOptions struct {
	FilePath string
	Mapping  domain.ColumnMapping
}

// ActualsPreview is the dry-run outcome for a bank-transaction file.
type ActualsPreview struct {
	TotalRows      int                        `json:"totalRows"`
	AcceptedCount  int                        `json:"acceptedCount"`
	RejectedCount  int                        `json:"rejectedCount"`
	DuplicateCount int                        `json:"duplicateCount"`
	Mapping        domain.ColumnMapping       `json:"mapping"`
	Errors         []domain.RowError          `json:"errors"`
	Accepted       []domain.ActualTransaction `json:"accepted"`
}

// ActualsCommitResult adds the write outcome and the reconciliation
// statistics for the initiating scenario.
type ActualsCommitResult struct {
	ActualsPreview
	InsertedCount         int                        `json:"insertedCount"`
	SkippedDuplicateCount int                        `json:"skippedDuplicateCount"`
	Match                 domain.MatchStats          `json:"match"`
	Unmatched             []domain.ActualTransaction `json:"unmatched"`
}

// ActualsService is the bank-transaction instantiation of the import
// pipeline: smaller field catalog, no recurrence, no template store, and a
// reconciliation hand-off on commit.
type ActualsService struct {
	actuals repository.ActualTransactionRepository
	tx      repository.TxRunner
	matcher Matcher
}

// NewActualsService wires the actuals importer.
func NewActualsService(actuals repository.ActualTransactionRepository, tx repository.TxRunner, matcher Matcher) *ActualsService {
	return &ActualsService{actuals: actuals, tx: tx, matcher: matcher}
}

// Preview runs the pipeline with no side effects at all.
func (s *ActualsService) Preview(ctx context.Context, opts ActualsOptions) (ActualsPreview, error) {
	result := ActualsPreview{
		Errors:   []domain.RowError{},
		Accepted: []domain.ActualTransaction{},
	}

	table, err := ReadTable(opts.FilePath)
	if err != nil {
		return result, err
	}

	resolved := resolveActualsMapping(opts.Mapping, table.Headers)
	result.Mapping = resolved.Mapping

	existing, err := s.existingFingerprints(ctx)
	if err != nil {
		return result, err
	}

	result.TotalRows = len(table.Records)
	seen := make(map[string]bool)

	for i, record := range table.Records {
		rowNumber := i + 2
		txn, errs := validateActualRow(rowNumber, resolved.Mapping, record)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		if existing[txn.Fingerprint] || seen[txn.Fingerprint] {
			seen[txn.Fingerprint] = true
			result.DuplicateCount++
			result.Errors = append(result.Errors, domain.RowError{
				RowNumber: rowNumber,
				Code:      domain.RowErrorDuplicate,
				Field:     "row",
				Message:   "duplicate of an existing ledger row or an earlier row in this file",
			})
			continue
		}
		seen[txn.Fingerprint] = true
		result.Accepted = append(result.Accepted, txn)
	}

	result.AcceptedCount = len(result.Accepted)
	result.RejectedCount = result.TotalRows - result.AcceptedCount
	return result, nil
}

// Commit inserts the accepted rows transactionally, then delegates them to
// the reconciliation matcher and surfaces its statistics plus a review
// queue of still-unmatched rows for the initiating scenario.
func (s *ActualsService) Commit(ctx context.Context, opts ActualsOptions) (ActualsCommitResult, error) {
	preview, err := s.Preview(ctx, opts)
	if err != nil {
		return ActualsCommitResult{ActualsPreview: preview}, err
	}

	result := ActualsCommitResult{
		ActualsPreview:        preview,
		SkippedDuplicateCount: preview.DuplicateCount,
		Unmatched:             []domain.ActualTransaction{},
	}
	if len(preview.Accepted) == 0 {
		return result, nil
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		for _, txn := range preview.Accepted {
			if err := s.actuals.InsertTx(ctx, tx, txn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to commit actuals import: %w", err)
	}
	result.InsertedCount = preview.AcceptedCount

	scenarioID := preview.Accepted[0].ScenarioID
	stats, err := s.matcher.IngestActualTransactions(ctx, scenarioID, preview.Accepted)
	if err != nil {
		return result, fmt.Errorf("failed to reconcile actual transactions: %w", err)
	}
	result.Match = stats

	unmatched, err := s.matcher.ListUnmatchedActualTransactions(ctx, scenarioID, unmatchedReviewLimit)
	if err != nil {
		return result, fmt.Errorf("failed to list unmatched transactions: %w", err)
	}
	result.Unmatched = unmatched

	return result, nil
}

func (s *ActualsService) existingFingerprints(ctx context.Context) (map[string]bool, error) {
	txns, err := s.actuals.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate existing actual transactions: %w", err)
	}
	set := make(map[string]bool, len(txns))
	for _, txn := range txns {
		set[ActualFingerprint(txn)] = true
	}
	return set, nil
}
