package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/rpattn/planledger/internal/domain"
)

// TxRunner runs a function inside one database transaction. The function
// receives the transaction explicitly; any error (or panic) rolls the
// whole transaction back, so no partial batch survives.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// ExpenseLineRepository is the ledger surface the import engine consumes
// for planned expense lines.
type ExpenseLineRepository interface {
	// ListActive enumerates all non-deleted expense lines with their
	// recurrence rule, if any. Used to rebuild the existing-fingerprint set.
	ListActive(ctx context.Context) ([]domain.ExpenseLine, error)
	// InsertTx inserts one line (and its recurrence rule when present)
	// inside the caller-supplied transaction.
	InsertTx(ctx context.Context, tx pgx.Tx, line domain.ExpenseLine) error
}

// ActualTransactionRepository is the ledger surface for bank-style actuals.
type ActualTransactionRepository interface {
	ListActive(ctx context.Context) ([]domain.ActualTransaction, error)
	InsertTx(ctx context.Context, tx pgx.Tx, txn domain.ActualTransaction) error
}
