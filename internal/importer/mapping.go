package importer

import (
	"regexp"
	"strings"

	"github.com/rpattn/planledger/internal/domain"
)

// Catalog field names for the expense-line importer, in declaration order.
// The order matters: auto-detection scans fields in this order and the
// canonical fingerprint token concatenates business fields in this order.
const (
	FieldScenarioID  = "scenarioId"
	FieldServiceID   = "serviceId"
	FieldContractID  = "contractId"
	FieldName        = "name"
	FieldCategory    = "category"
	FieldExpenseType = "expenseType"
	FieldStatus      = "status"
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldStartDate   = "startDate"
	FieldEndDate     = "endDate"
	FieldFrequency   = "frequency"
	FieldInterval    = "interval"
	FieldDayOfMonth  = "dayOfMonth"
	FieldMonthOfYear = "monthOfYear"
	FieldAnchorDate  = "anchorDate"

	// Actuals-only fields.
	FieldTransactionDate = "transactionDate"
	FieldDescription     = "description"
)

var expenseCatalog = []string{
	FieldScenarioID, FieldServiceID, FieldContractID, FieldName, FieldCategory,
	FieldExpenseType, FieldStatus, FieldAmount, FieldCurrency, FieldStartDate,
	FieldEndDate, FieldFrequency, FieldInterval, FieldDayOfMonth,
	FieldMonthOfYear, FieldAnchorDate,
}

var actualsCatalog = []string{
	FieldScenarioID, FieldServiceID, FieldTransactionDate, FieldDescription,
	FieldAmount, FieldCurrency,
}

var expenseRequired = []string{
	FieldScenarioID, FieldServiceID, FieldName, FieldExpenseType, FieldStatus,
	FieldAmount, FieldStartDate,
}

var actualsRequired = []string{
	FieldScenarioID, FieldTransactionDate, FieldDescription, FieldAmount,
}

// fieldAliases maps each catalog field to normalized header aliases, most
// specific first. The first header whose normalized form matches wins.
var fieldAliases = map[string][]string{
	FieldScenarioID:      {"scenario_id", "scenario", "plan_id", "plan"},
	FieldServiceID:       {"service_id", "service", "vendor_id", "vendor", "supplier"},
	FieldContractID:      {"contract_id", "contract", "agreement_id", "po_number"},
	FieldName:            {"name", "line_name", "title", "label"},
	FieldCategory:        {"category", "cost_category", "group", "bucket"},
	FieldExpenseType:     {"expense_type", "type", "recurrence_type", "kind"},
	FieldStatus:          {"status", "state", "approval_status"},
	FieldAmount:          {"amount", "amount_usd", "usd", "cost", "price", "value", "total"},
	FieldCurrency:        {"currency", "currency_code", "ccy"},
	FieldStartDate:       {"start_date", "start", "effective_date", "begin_date"},
	FieldEndDate:         {"end_date", "end", "expiry_date", "expiration_date"},
	FieldFrequency:       {"frequency", "freq", "cadence", "billing_frequency"},
	FieldInterval:        {"interval", "every", "repeat_every"},
	FieldDayOfMonth:      {"day_of_month", "day", "billing_day"},
	FieldMonthOfYear:     {"month_of_year", "month", "billing_month"},
	FieldAnchorDate:      {"anchor_date", "anchor", "first_occurrence"},
	FieldTransactionDate: {"transaction_date", "date", "posted_date", "posting_date", "value_date"},
	FieldDescription:     {"description", "memo", "narrative", "details", "merchant", "payee"},
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeHeader trims, lowercases, and collapses internal whitespace to
// underscores, yielding the form used for alias matching and signatures.
func NormalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	return whitespacePattern.ReplaceAllString(header, "_")
}

// HeaderSignature joins the normalized headers with "|", order preserved.
// It identifies a spreadsheet shape independently of template names.
func HeaderSignature(headers []string) string {
	normalized := make([]string, len(headers))
	for i, header := range headers {
		normalized[i] = NormalizeHeader(header)
	}
	return strings.Join(normalized, "|")
}

// normalizeMapping drops entries whose target header is not present
// verbatim (case-sensitive) in the source header list. Invalid entries are
// dropped silently; the surviving entries are returned.
func normalizeMapping(mapping domain.ColumnMapping, headers []string) domain.ColumnMapping {
	present := make(map[string]bool, len(headers))
	for _, header := range headers {
		present[header] = true
	}
	normalized := domain.ColumnMapping{}
	for field, header := range mapping {
		if present[header] {
			normalized[field] = header
		}
	}
	return normalized
}

// autoDetect scans each catalog field's alias list in order and takes the
// first header whose normalized form matches. Unmatched fields stay
// unmapped; a header is still eligible for multiple fields.
func autoDetect(catalog []string, headers []string) domain.ColumnMapping {
	normalized := make([]string, len(headers))
	for i, header := range headers {
		normalized[i] = NormalizeHeader(header)
	}

	mapping := domain.ColumnMapping{}
	for _, field := range catalog {
		for _, alias := range fieldAliases[field] {
			found := false
			for i, norm := range normalized {
				if norm == alias {
					mapping[field] = headers[i]
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}
	return mapping
}

// ResolvedMapping is the outcome of mapping resolution for one call.
type ResolvedMapping struct {
	Mapping         domain.ColumnMapping
	TemplateApplied string
	TemplateSaved   string
}

// resolveExpenseMapping walks the fallback tiers: explicit mapping, saved
// template by name, saved template by header signature, auto-detection.
// When saveTemplate is set the resolved mapping is upserted under the given
// name (or a signature-derived default).
func resolveExpenseMapping(opts ExpenseOptions, headers []string, store *TemplateStore) (ResolvedMapping, error) {
	resolved := ResolvedMapping{}

	if len(opts.Mapping) > 0 {
		if mapping := normalizeMapping(opts.Mapping, headers); len(mapping) > 0 {
			resolved.Mapping = mapping
		}
	}

	if resolved.Mapping == nil && opts.useSavedTemplate() {
		template, err := store.Find(opts.TemplateName, HeaderSignature(headers))
		if err != nil {
			return resolved, err
		}
		if template != nil {
			if mapping := normalizeMapping(template.Mapping, headers); len(mapping) > 0 {
				resolved.Mapping = mapping
				resolved.TemplateApplied = template.Name
			}
		}
	}

	if len(resolved.Mapping) == 0 {
		resolved.Mapping = autoDetect(expenseCatalog, headers)
	}

	if opts.SaveTemplate {
		signature := HeaderSignature(headers)
		name := strings.TrimSpace(opts.TemplateName)
		if name == "" {
			name = "template:" + signature
		}
		if err := store.Upsert(domain.MappingTemplate{
			Name:            name,
			HeaderSignature: signature,
			Mapping:         resolved.Mapping,
		}); err != nil {
			return resolved, err
		}
		resolved.TemplateSaved = name
	}

	return resolved, nil
}

// resolveActualsMapping uses only the explicit tier then auto-detection;
// the actuals importer never touches the template store.
func resolveActualsMapping(explicit domain.ColumnMapping, headers []string) ResolvedMapping {
	if len(explicit) > 0 {
		if mapping := normalizeMapping(explicit, headers); len(mapping) > 0 {
			return ResolvedMapping{Mapping: mapping}
		}
	}
	return ResolvedMapping{Mapping: autoDetect(actualsCatalog, headers)}
}
