package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/rpattn/planledger/internal/domain"
)

// fingerprint hashes a canonical token with SHA-256 and hex-encodes it.
// The hash is an opaque equality key for deduplication, nothing more.
func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ExpenseFingerprint computes the dedup fingerprint of an expense line.
// The canonical token is a fixed-order "|"-joined concatenation of the
// business fields, with the amount as a decimal minor-units string and a
// trailing recurrence sub-token (empty when the line has no recurrence).
// Persisted and imported rows run through the same function, so hashes
// stay comparable regardless of how a row entered the ledger.
func ExpenseFingerprint(line domain.ExpenseLine) string {
	sub := ""
	if r := line.Recurrence; r != nil {
		month := ""
		if r.MonthOfYear != nil {
			month = strconv.Itoa(*r.MonthOfYear)
		}
		sub = strings.Join([]string{
			string(r.Frequency),
			strconv.Itoa(r.Interval),
			strconv.Itoa(r.DayOfMonth),
			month,
			r.AnchorDate,
		}, "|")
	}

	token := strings.Join([]string{
		line.ScenarioID,
		line.ServiceID,
		line.ContractID,
		line.Name,
		line.Category,
		string(line.ExpenseType),
		string(line.Status),
		line.StartDate,
		line.EndDate,
		strconv.FormatInt(line.AmountMinor, 10),
		line.Currency,
		sub,
	}, "|")
	return fingerprint(token)
}

// ActualFingerprint computes the dedup fingerprint of an actual
// transaction. Actuals have no recurrence, so the sub-token slot is
// always empty.
func ActualFingerprint(tx domain.ActualTransaction) string {
	token := strings.Join([]string{
		tx.ScenarioID,
		tx.ServiceID,
		tx.TransactionDate,
		tx.Description,
		strconv.FormatInt(tx.AmountMinor, 10),
		tx.Currency,
		"",
	}, "|")
	return fingerprint(token)
}
