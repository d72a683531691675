package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExpenseType distinguishes recurring lines from one-off spend.
type ExpenseType string

const (
	ExpenseTypeRecurring ExpenseType = "recurring"
	ExpenseTypeOneTime   ExpenseType = "one_time"
)

// ExpenseStatus tracks where a line sits in the planning lifecycle.
type ExpenseStatus string

const (
	ExpenseStatusPlanned   ExpenseStatus = "planned"
	ExpenseStatusApproved  ExpenseStatus = "approved"
	ExpenseStatusCommitted ExpenseStatus = "committed"
	ExpenseStatusActual    ExpenseStatus = "actual"
	ExpenseStatusCancelled ExpenseStatus = "cancelled"
)

// RecurrenceFrequency enumerates supported recurrence cadences.
type RecurrenceFrequency string

const (
	FrequencyMonthly   RecurrenceFrequency = "monthly"
	FrequencyQuarterly RecurrenceFrequency = "quarterly"
	FrequencyYearly    RecurrenceFrequency = "yearly"
)

// RecurrenceRule describes how a recurring expense line repeats.
// MonthOfYear is only meaningful for yearly frequencies. Dates are
// ISO calendar dates (YYYY-MM-DD); AnchorDate may be empty.
type RecurrenceRule struct {
	ID            uuid.UUID           `json:"id,omitempty"`
	ExpenseLineID uuid.UUID           `json:"expense_line_id,omitempty"`
	Frequency     RecurrenceFrequency `json:"frequency"`
	Interval      int                 `json:"interval"`
	DayOfMonth    int                 `json:"day_of_month"`
	MonthOfYear   *int                `json:"month_of_year,omitempty"`
	AnchorDate    string              `json:"anchor_date,omitempty"`
}

// ExpenseLine is one planned expense in the ledger. Amounts are integer
// minor units (cents); Currency is always USD for imported lines.
// RowNumber and Fingerprint are populated during import and never persisted;
// fingerprints are recomputed from persisted fields so that manually entered
// and imported rows hash identically.
type ExpenseLine struct {
	ID          uuid.UUID       `json:"id,omitempty"`
	ScenarioID  string          `json:"scenario_id"`
	ServiceID   string          `json:"service_id"`
	ContractID  string          `json:"contract_id,omitempty"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	ExpenseType ExpenseType     `json:"expense_type"`
	Status      ExpenseStatus   `json:"status"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date,omitempty"`
	Recurrence  *RecurrenceRule `json:"recurrence,omitempty"`
	RowNumber   int             `json:"row_number,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
}
