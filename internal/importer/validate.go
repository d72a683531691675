package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/planledger/internal/domain"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// validISODate accepts strict YYYY-MM-DD strings that form a real calendar
// date; 2026-02-30 is rejected.
func validISODate(raw string) bool {
	if !isoDatePattern.MatchString(raw) {
		return false
	}
	_, err := time.Parse("2006-01-02", raw)
	return err == nil
}

// rowReader resolves catalog fields to trimmed cell values through the
// column mapping.
type rowReader struct {
	mapping domain.ColumnMapping
	record  map[string]string
}

func (r rowReader) mapped(field string) bool {
	_, ok := r.mapping[field]
	return ok
}

func (r rowReader) value(field string) string {
	header, ok := r.mapping[field]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.record[header])
}

type rowErrors struct {
	rowNumber int
	errs      []domain.RowError
}

func (e *rowErrors) add(field, message string) {
	e.errs = append(e.errs, domain.RowError{
		RowNumber: e.rowNumber,
		Code:      domain.RowErrorValidation,
		Field:     field,
		Message:   message,
	})
}

func checkUnmappedRequired(e *rowErrors, r rowReader, required []string) {
	for _, field := range required {
		if !r.mapped(field) {
			e.add(field, "no source column mapped")
		}
	}
}

func checkCurrency(e *rowErrors, r rowReader) string {
	currency := strings.ToUpper(r.value(FieldCurrency))
	if currency == "" {
		currency = "USD"
	}
	if currency != "USD" {
		e.add(FieldCurrency, fmt.Sprintf("unsupported currency %q, only USD is accepted", currency))
	}
	return currency
}

func checkAmount(e *rowErrors, r rowReader) int64 {
	if !r.mapped(FieldAmount) {
		return 0
	}
	amount, err := ParseAmountMinor(r.value(FieldAmount))
	if err != nil {
		e.add(FieldAmount, fmt.Sprintf("invalid amount %q", r.value(FieldAmount)))
		return 0
	}
	if amount < 0 {
		e.add(FieldAmount, "amount must not be negative")
		return 0
	}
	return amount
}

// validateExpenseRow turns one raw record into a typed expense line or a
// list of field-level errors. Any error discards the whole row; all errors
// are still reported. rowNumber is the 1-based spreadsheet row, header
// included.
func validateExpenseRow(rowNumber int, mapping domain.ColumnMapping, record map[string]string) (domain.ExpenseLine, []domain.RowError) {
	r := rowReader{mapping: mapping, record: record}
	e := &rowErrors{rowNumber: rowNumber}

	checkUnmappedRequired(e, r, expenseRequired)

	for _, field := range []string{FieldScenarioID, FieldServiceID, FieldName} {
		if r.mapped(field) && r.value(field) == "" {
			e.add(field, "value is required")
		}
	}

	expenseType := domain.ExpenseType(r.value(FieldExpenseType))
	if r.mapped(FieldExpenseType) {
		switch expenseType {
		case domain.ExpenseTypeRecurring, domain.ExpenseTypeOneTime:
		default:
			e.add(FieldExpenseType, `expense type must be "recurring" or "one_time"`)
		}
	}

	status := domain.ExpenseStatus(r.value(FieldStatus))
	if r.mapped(FieldStatus) {
		switch status {
		case domain.ExpenseStatusPlanned, domain.ExpenseStatusApproved,
			domain.ExpenseStatusCommitted, domain.ExpenseStatusActual,
			domain.ExpenseStatusCancelled:
		default:
			e.add(FieldStatus, "unknown status")
		}
	}

	currency := checkCurrency(e, r)
	amount := checkAmount(e, r)

	if r.mapped(FieldStartDate) && !validISODate(r.value(FieldStartDate)) {
		e.add(FieldStartDate, "date must be YYYY-MM-DD")
	}
	if endDate := r.value(FieldEndDate); endDate != "" && !validISODate(endDate) {
		e.add(FieldEndDate, "date must be YYYY-MM-DD")
	}

	var recurrence *domain.RecurrenceRule
	if expenseType == domain.ExpenseTypeRecurring {
		recurrence = validateRecurrence(e, r)
	}

	line := domain.ExpenseLine{
		ScenarioID:  r.value(FieldScenarioID),
		ServiceID:   r.value(FieldServiceID),
		ContractID:  r.value(FieldContractID),
		Name:        r.value(FieldName),
		Category:    r.value(FieldCategory),
		ExpenseType: expenseType,
		Status:      status,
		AmountMinor: amount,
		Currency:    currency,
		StartDate:   r.value(FieldStartDate),
		EndDate:     r.value(FieldEndDate),
		RowNumber:   rowNumber,
	}

	if len(e.errs) > 0 {
		return line, e.errs
	}

	// A recurrence rule is only attached to a fully clean row.
	line.Recurrence = recurrence
	line.Fingerprint = ExpenseFingerprint(line)
	return line, nil
}

// validateRecurrence checks the conditional recurrence fields and returns
// the rule when every one of them is clean, nil otherwise.
func validateRecurrence(e *rowErrors, r rowReader) *domain.RecurrenceRule {
	before := len(e.errs)

	frequency := domain.RecurrenceFrequency(r.value(FieldFrequency))
	switch frequency {
	case domain.FrequencyMonthly, domain.FrequencyQuarterly, domain.FrequencyYearly:
	default:
		e.add(FieldFrequency, `frequency must be "monthly", "quarterly", or "yearly"`)
	}

	interval := 1
	if raw := r.value(FieldInterval); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			e.add(FieldInterval, "interval must be a positive integer")
		} else {
			interval = parsed
		}
	}

	dayOfMonth := 0
	if raw := r.value(FieldDayOfMonth); raw == "" {
		e.add(FieldDayOfMonth, "day of month is required for recurring expenses")
	} else if parsed, err := strconv.Atoi(raw); err != nil || parsed < 1 || parsed > 31 {
		e.add(FieldDayOfMonth, "day of month must be between 1 and 31")
	} else {
		dayOfMonth = parsed
	}

	var monthOfYear *int
	rawMonth := r.value(FieldMonthOfYear)
	if rawMonth == "" {
		if frequency == domain.FrequencyYearly {
			e.add(FieldMonthOfYear, "month of year is required for yearly recurrence")
		}
	} else if parsed, err := strconv.Atoi(rawMonth); err != nil || parsed < 1 || parsed > 12 {
		e.add(FieldMonthOfYear, "month of year must be between 1 and 12")
	} else {
		monthOfYear = &parsed
	}

	anchorDate := r.value(FieldAnchorDate)
	if anchorDate != "" && !validISODate(anchorDate) {
		e.add(FieldAnchorDate, "date must be YYYY-MM-DD")
	}

	if len(e.errs) > before {
		return nil
	}
	return &domain.RecurrenceRule{
		Frequency:   frequency,
		Interval:    interval,
		DayOfMonth:  dayOfMonth,
		MonthOfYear: monthOfYear,
		AnchorDate:  anchorDate,
	}
}

// validateActualRow is the bank-transaction counterpart: smaller catalog,
// no recurrence.
func validateActualRow(rowNumber int, mapping domain.ColumnMapping, record map[string]string) (domain.ActualTransaction, []domain.RowError) {
	r := rowReader{mapping: mapping, record: record}
	e := &rowErrors{rowNumber: rowNumber}

	checkUnmappedRequired(e, r, actualsRequired)

	for _, field := range []string{FieldScenarioID, FieldDescription} {
		if r.mapped(field) && r.value(field) == "" {
			e.add(field, "value is required")
		}
	}

	if r.mapped(FieldTransactionDate) && !validISODate(r.value(FieldTransactionDate)) {
		e.add(FieldTransactionDate, "date must be YYYY-MM-DD")
	}

	currency := checkCurrency(e, r)
	amount := checkAmount(e, r)

	tx := domain.ActualTransaction{
		ScenarioID:      r.value(FieldScenarioID),
		ServiceID:       r.value(FieldServiceID),
		TransactionDate: r.value(FieldTransactionDate),
		Description:     r.value(FieldDescription),
		AmountMinor:     amount,
		Currency:        currency,
		RowNumber:       rowNumber,
	}
	if len(e.errs) > 0 {
		return tx, e.errs
	}
	tx.Fingerprint = ActualFingerprint(tx)
	return tx, nil
}
