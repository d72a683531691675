package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActualTransaction is one bank-style actual in the ledger. Amounts are
// integer minor units; TransactionDate is an ISO calendar date.
// MatchedExpenseLineID is set by the reconciliation matcher once the
// transaction has been tied to a planned expense line.
type ActualTransaction struct {
	ID                   uuid.UUID  `json:"id,omitempty"`
	ScenarioID           string     `json:"scenario_id"`
	ServiceID            string     `json:"service_id,omitempty"`
	TransactionDate      string     `json:"transaction_date"`
	Description          string     `json:"description"`
	AmountMinor          int64      `json:"amount_minor"`
	Currency             string     `json:"currency"`
	MatchedExpenseLineID *uuid.UUID `json:"matched_expense_line_id,omitempty"`
	RowNumber            int        `json:"row_number,omitempty"`
	Fingerprint          string     `json:"fingerprint,omitempty"`
	CreatedAt            time.Time  `json:"created_at,omitempty"`
}

// MatchStats aggregates the outcome of reconciling a batch of actuals
// against planned expense lines.
type MatchStats struct {
	Inserted  int     `json:"inserted"`
	Matched   int     `json:"matched"`
	Unmatched int     `json:"unmatched"`
	MatchRate float64 `json:"match_rate"`
}
