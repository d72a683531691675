// Package reconcile matches committed actual transactions against planned
// expense lines of the same scenario.
package reconcile

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rpattn/planledger/internal/domain"
	"github.com/rpattn/planledger/internal/repository"
)

// An actual matches a planned line when scenario and minor-units amount
// agree, the service agrees when the actual names one, the line is in a
// plannable status, and the transaction date falls within matchWindowDays
// of the line's start date.
const matchWindowDays = 3

const matchScenarioQuery = `UPDATE actual_transactions a
SET matched_expense_line_id = e.id
FROM expense_lines e
WHERE a.scenario_id = $1
  AND a.matched_expense_line_id IS NULL
  AND a.deleted_at IS NULL
  AND e.deleted_at IS NULL
  AND e.scenario_id = a.scenario_id
  AND e.amount_minor = a.amount_minor
  AND e.status IN ('planned', 'approved', 'committed')
  AND (a.service_id IS NULL OR e.service_id = a.service_id)
  AND abs(e.start_date - a.transaction_date) <= $2`

const countUnmatchedQuery = `SELECT count(*)
FROM actual_transactions
WHERE scenario_id = $1 AND matched_expense_line_id IS NULL AND deleted_at IS NULL`

const listUnmatchedQuery = `SELECT id, scenario_id, service_id, transaction_date, description, amount_minor, currency
FROM actual_transactions
WHERE scenario_id = $1 AND matched_expense_line_id IS NULL AND deleted_at IS NULL
ORDER BY transaction_date, id
LIMIT $2`

// Matcher reconciles actuals against planned expense lines via SQL.
type Matcher struct {
	pool repository.PgxPool
}

// NewMatcher wires a matcher backed by pgx.
func NewMatcher(pool repository.PgxPool) *Matcher {
	return &Matcher{pool: pool}
}

// IngestActualTransactions runs a matching pass over the scenario's
// unmatched actuals (the just-committed rows included) and reports
// aggregate statistics.
func (m *Matcher) IngestActualTransactions(ctx context.Context, scenarioID string, rows []domain.ActualTransaction) (domain.MatchStats, error) {
	stats := domain.MatchStats{Inserted: len(rows)}

	tag, err := m.pool.Exec(ctx, matchScenarioQuery, scenarioID, matchWindowDays)
	if err != nil {
		return stats, fmt.Errorf("failed to match actual transactions: %w", err)
	}
	stats.Matched = int(tag.RowsAffected())

	if err := m.pool.QueryRow(ctx, countUnmatchedQuery, scenarioID).Scan(&stats.Unmatched); err != nil {
		return stats, fmt.Errorf("failed to count unmatched transactions: %w", err)
	}

	if total := stats.Matched + stats.Unmatched; total > 0 {
		stats.MatchRate = float64(stats.Matched) / float64(total)
	}
	return stats, nil
}

// ListUnmatchedActualTransactions returns up to limit still-unmatched
// actuals for the scenario, oldest first, as a review queue.
func (m *Matcher) ListUnmatchedActualTransactions(ctx context.Context, scenarioID string, limit int) ([]domain.ActualTransaction, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := m.pool.Query(ctx, listUnmatchedQuery, scenarioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unmatched transactions: %w", err)
	}
	defer rows.Close()

	txns := []domain.ActualTransaction{}
	for rows.Next() {
		var (
			txn             domain.ActualTransaction
			serviceID       pgtype.Text
			transactionDate pgtype.Date
		)
		if scanErr := rows.Scan(
			&txn.ID,
			&txn.ScenarioID,
			&serviceID,
			&transactionDate,
			&txn.Description,
			&txn.AmountMinor,
			&txn.Currency,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan unmatched transaction: %w", scanErr)
		}
		txn.ServiceID = serviceID.String
		if transactionDate.Valid {
			txn.TransactionDate = transactionDate.Time.Format("2006-01-02")
		}
		txns = append(txns, txn)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate unmatched transactions: %w", rowsErr)
	}
	return txns, nil
}
