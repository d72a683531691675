package importer

import (
	"testing"

	"github.com/rpattn/planledger/internal/domain"
)

// expenseMapping maps every expense field to a header of the same name.
func expenseMapping(fields ...string) domain.ColumnMapping {
	mapping := domain.ColumnMapping{}
	for _, field := range fields {
		mapping[field] = field
	}
	return mapping
}

func validRecurringRecord() (domain.ColumnMapping, map[string]string) {
	mapping := expenseMapping(
		FieldScenarioID, FieldServiceID, FieldName, FieldExpenseType, FieldStatus,
		FieldAmount, FieldCurrency, FieldStartDate, FieldFrequency, FieldInterval,
		FieldDayOfMonth, FieldMonthOfYear, FieldAnchorDate,
	)
	record := map[string]string{
		FieldScenarioID:  "scn-1",
		FieldServiceID:   "svc-1",
		FieldName:        "Hosting",
		FieldExpenseType: "recurring",
		FieldStatus:      "planned",
		FieldAmount:      "100.00",
		FieldCurrency:    "",
		FieldStartDate:   "2026-01-01",
		FieldFrequency:   "monthly",
		FieldInterval:    "",
		FieldDayOfMonth:  "15",
		FieldMonthOfYear: "",
		FieldAnchorDate:  "",
	}
	return mapping, record
}

func TestValidateExpenseRowValidRecurring(t *testing.T) {
	mapping, record := validRecurringRecord()
	line, errs := validateExpenseRow(2, mapping, record)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if line.AmountMinor != 10000 {
		t.Fatalf("expected 10000 minor units, got %d", line.AmountMinor)
	}
	if line.Currency != "USD" {
		t.Fatalf("blank currency should default to USD, got %q", line.Currency)
	}
	if line.Recurrence == nil {
		t.Fatal("expected recurrence rule")
	}
	if line.Recurrence.Interval != 1 {
		t.Fatalf("blank interval should default to 1, got %d", line.Recurrence.Interval)
	}
	if line.Fingerprint == "" {
		t.Fatal("expected fingerprint on a clean row")
	}
}

func TestValidateExpenseRowUnmappedRequiredFields(t *testing.T) {
	_, errs := validateExpenseRow(2, domain.ColumnMapping{}, map[string]string{})
	if len(errs) != len(expenseRequired) {
		t.Fatalf("expected one error per required field, got %v", errs)
	}
	for _, err := range errs {
		if err.Code != domain.RowErrorValidation {
			t.Fatalf("expected validation code, got %q", err.Code)
		}
	}
}

func TestValidateExpenseRowWholeRowRejection(t *testing.T) {
	mapping, record := validRecurringRecord()
	record[FieldAmount] = "abc"

	line, errs := validateExpenseRow(2, mapping, record)
	if len(errs) != 1 || errs[0].Field != FieldAmount {
		t.Fatalf("expected single amount error, got %v", errs)
	}
	// One bad field discards the row; no recurrence or fingerprint attach.
	if line.Recurrence != nil || line.Fingerprint != "" {
		t.Fatalf("rejected row should carry no recurrence or fingerprint: %+v", line)
	}
}

func TestValidateExpenseRowRejectsNegativeAmount(t *testing.T) {
	mapping, record := validRecurringRecord()
	record[FieldAmount] = "-5.00"
	_, errs := validateExpenseRow(2, mapping, record)
	if len(errs) != 1 || errs[0].Field != FieldAmount {
		t.Fatalf("expected negative amount rejection, got %v", errs)
	}
}

func TestValidateExpenseRowRejectsNonUSD(t *testing.T) {
	mapping, record := validRecurringRecord()
	record[FieldCurrency] = "eur"
	_, errs := validateExpenseRow(2, mapping, record)
	if len(errs) != 1 || errs[0].Field != FieldCurrency {
		t.Fatalf("expected currency rejection, got %v", errs)
	}
}

func TestValidateExpenseRowRejectsImpossibleCalendarDate(t *testing.T) {
	mapping, record := validRecurringRecord()
	record[FieldStartDate] = "2026-02-30"
	_, errs := validateExpenseRow(2, mapping, record)
	if len(errs) != 1 || errs[0].Field != FieldStartDate {
		t.Fatalf("expected start date rejection, got %v", errs)
	}
}

func TestValidateExpenseRowRecurrenceConditionality(t *testing.T) {
	// monthOfYear is required only for yearly frequency.
	mapping, record := validRecurringRecord()
	record[FieldFrequency] = "yearly"
	record[FieldMonthOfYear] = ""
	if _, errs := validateExpenseRow(2, mapping, record); len(errs) != 1 || errs[0].Field != FieldMonthOfYear {
		t.Fatalf("yearly without monthOfYear should fail, got %v", errs)
	}

	record[FieldMonthOfYear] = "6"
	if _, errs := validateExpenseRow(2, mapping, record); len(errs) != 0 {
		t.Fatalf("yearly with monthOfYear should pass, got %v", errs)
	}

	// dayOfMonth bounds hold regardless of frequency.
	mapping, record = validRecurringRecord()
	record[FieldDayOfMonth] = "32"
	if _, errs := validateExpenseRow(2, mapping, record); len(errs) != 1 || errs[0].Field != FieldDayOfMonth {
		t.Fatalf("dayOfMonth=32 should always fail, got %v", errs)
	}
}

func TestValidateExpenseRowSkipsRecurrenceForOneTime(t *testing.T) {
	mapping, record := validRecurringRecord()
	record[FieldExpenseType] = "one_time"
	record[FieldFrequency] = ""
	record[FieldDayOfMonth] = ""

	line, errs := validateExpenseRow(2, mapping, record)
	if len(errs) != 0 {
		t.Fatalf("one_time rows should skip recurrence checks, got %v", errs)
	}
	if line.Recurrence != nil {
		t.Fatal("one_time row must not carry a recurrence rule")
	}
}

func TestValidateExpenseRowInvalidInterval(t *testing.T) {
	mapping, record := validRecurringRecord()
	record[FieldInterval] = "0"
	if _, errs := validateExpenseRow(2, mapping, record); len(errs) != 1 || errs[0].Field != FieldInterval {
		t.Fatalf("interval=0 should fail, got %v", errs)
	}
}

func TestValidateActualRow(t *testing.T) {
	mapping := expenseMapping(FieldScenarioID, FieldTransactionDate, FieldDescription, FieldAmount)
	record := map[string]string{
		FieldScenarioID:      "scn-1",
		FieldTransactionDate: "2026-03-15",
		FieldDescription:     "AWS invoice",
		FieldAmount:          "150.00",
	}

	txn, errs := validateActualRow(2, mapping, record)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if txn.AmountMinor != 15000 || txn.Currency != "USD" {
		t.Fatalf("unexpected transaction: %+v", txn)
	}

	record[FieldTransactionDate] = "15/03/2026"
	if _, errs := validateActualRow(2, mapping, record); len(errs) != 1 || errs[0].Field != FieldTransactionDate {
		t.Fatalf("expected strict date rejection, got %v", errs)
	}
}
