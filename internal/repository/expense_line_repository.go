package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/planledger/internal/domain"
)

const isoDateLayout = "2006-01-02"

// PgxPool abstracts the subset of pgxpool.Pool the repositories use, so
// tests can substitute a mock pool.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

const listActiveExpenseLinesQuery = `SELECT e.id, e.scenario_id, e.service_id, e.contract_id, e.name, e.category,
       e.expense_type, e.status, e.amount_minor, e.currency, e.start_date, e.end_date, e.created_at,
       r.frequency, r.interval, r.day_of_month, r.month_of_year, r.anchor_date
FROM expense_lines e
LEFT JOIN recurrence_rules r ON r.expense_line_id = e.id
WHERE e.deleted_at IS NULL
ORDER BY e.created_at, e.id`

const insertExpenseLineQuery = `INSERT INTO expense_lines
  (id, scenario_id, service_id, contract_id, name, category, expense_type, status, amount_minor, currency, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const insertRecurrenceRuleQuery = `INSERT INTO recurrence_rules
  (id, expense_line_id, frequency, interval, day_of_month, month_of_year, anchor_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type expenseLineRepository struct {
	pool PgxPool
}

// NewExpenseLineRepository wires a repository backed by pgx.
func NewExpenseLineRepository(pool PgxPool) ExpenseLineRepository {
	return &expenseLineRepository{pool: pool}
}

func (r *expenseLineRepository) ListActive(ctx context.Context) ([]domain.ExpenseLine, error) {
	rows, err := r.pool.Query(ctx, listActiveExpenseLinesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.ExpenseLine{}
	for rows.Next() {
		var (
			line        domain.ExpenseLine
			contractID  pgtype.Text
			category    pgtype.Text
			startDate   pgtype.Date
			endDate     pgtype.Date
			frequency   pgtype.Text
			interval    pgtype.Int4
			dayOfMonth  pgtype.Int4
			monthOfYear pgtype.Int4
			anchorDate  pgtype.Date
		)
		if scanErr := rows.Scan(
			&line.ID,
			&line.ScenarioID,
			&line.ServiceID,
			&contractID,
			&line.Name,
			&category,
			&line.ExpenseType,
			&line.Status,
			&line.AmountMinor,
			&line.Currency,
			&startDate,
			&endDate,
			&line.CreatedAt,
			&frequency,
			&interval,
			&dayOfMonth,
			&monthOfYear,
			&anchorDate,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan expense line: %w", scanErr)
		}

		line.ContractID = contractID.String
		line.Category = category.String
		if startDate.Valid {
			line.StartDate = startDate.Time.Format(isoDateLayout)
		}
		if endDate.Valid {
			line.EndDate = endDate.Time.Format(isoDateLayout)
		}
		if frequency.Valid {
			rule := &domain.RecurrenceRule{
				ExpenseLineID: line.ID,
				Frequency:     domain.RecurrenceFrequency(frequency.String),
				Interval:      int(interval.Int32),
				DayOfMonth:    int(dayOfMonth.Int32),
			}
			if monthOfYear.Valid {
				month := int(monthOfYear.Int32)
				rule.MonthOfYear = &month
			}
			if anchorDate.Valid {
				rule.AnchorDate = anchorDate.Time.Format(isoDateLayout)
			}
			line.Recurrence = rule
		}
		lines = append(lines, line)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate expense lines: %w", rowsErr)
	}
	return lines, nil
}

func (r *expenseLineRepository) InsertTx(ctx context.Context, tx pgx.Tx, line domain.ExpenseLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}

	_, err := tx.Exec(ctx, insertExpenseLineQuery,
		line.ID,
		line.ScenarioID,
		line.ServiceID,
		nullableText(line.ContractID),
		line.Name,
		nullableText(line.Category),
		string(line.ExpenseType),
		string(line.Status),
		line.AmountMinor,
		line.Currency,
		line.StartDate,
		nullableText(line.EndDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense line: %w", err)
	}

	if rule := line.Recurrence; rule != nil {
		_, err := tx.Exec(ctx, insertRecurrenceRuleQuery,
			uuid.New(),
			line.ID,
			string(rule.Frequency),
			rule.Interval,
			rule.DayOfMonth,
			rule.MonthOfYear,
			nullableText(rule.AnchorDate),
		)
		if err != nil {
			return fmt.Errorf("failed to insert recurrence rule: %w", err)
		}
	}
	return nil
}

func nullableText(value string) any {
	if value == "" {
		return nil
	}
	return value
}
