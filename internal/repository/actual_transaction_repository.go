package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rpattn/planledger/internal/domain"
)

const listActiveActualsQuery = `SELECT id, scenario_id, service_id, transaction_date, description,
       amount_minor, currency, matched_expense_line_id, created_at
FROM actual_transactions
WHERE deleted_at IS NULL
ORDER BY created_at, id`

const insertActualQuery = `INSERT INTO actual_transactions
  (id, scenario_id, service_id, transaction_date, description, amount_minor, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type actualTransactionRepository struct {
	pool PgxPool
}

// NewActualTransactionRepository wires a repository backed by pgx.
func NewActualTransactionRepository(pool PgxPool) ActualTransactionRepository {
	return &actualTransactionRepository{pool: pool}
}

func (r *actualTransactionRepository) ListActive(ctx context.Context) ([]domain.ActualTransaction, error) {
	rows, err := r.pool.Query(ctx, listActiveActualsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list actual transactions: %w", err)
	}
	defer rows.Close()

	txns := []domain.ActualTransaction{}
	for rows.Next() {
		var (
			txn             domain.ActualTransaction
			serviceID       pgtype.Text
			transactionDate pgtype.Date
			matchedID       pgtype.UUID
		)
		if scanErr := rows.Scan(
			&txn.ID,
			&txn.ScenarioID,
			&serviceID,
			&transactionDate,
			&txn.Description,
			&txn.AmountMinor,
			&txn.Currency,
			&matchedID,
			&txn.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan actual transaction: %w", scanErr)
		}

		txn.ServiceID = serviceID.String
		if transactionDate.Valid {
			txn.TransactionDate = transactionDate.Time.Format(isoDateLayout)
		}
		if matchedID.Valid {
			matched := uuid.UUID(matchedID.Bytes)
			txn.MatchedExpenseLineID = &matched
		}
		txns = append(txns, txn)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate actual transactions: %w", rowsErr)
	}
	return txns, nil
}

func (r *actualTransactionRepository) InsertTx(ctx context.Context, tx pgx.Tx, txn domain.ActualTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	_, err := tx.Exec(ctx, insertActualQuery,
		txn.ID,
		txn.ScenarioID,
		nullableText(txn.ServiceID),
		txn.TransactionDate,
		txn.Description,
		txn.AmountMinor,
		txn.Currency,
	)
	if err != nil {
		return fmt.Errorf("failed to insert actual transaction: %w", err)
	}
	return nil
}
