// Package models defines the data types flowing through the statement import
// pipeline, from normalized transactions to ledger entry intents.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibikovilya/prior-import/internal/parsererror"
)

// UnknownAccount is the sentinel emitted when a section header carries no
// recognizable account digits. Masked identifiers always start with "****",
// so the sentinel can never collide with a real one.
const UnknownAccount = "Unknown Account"

// NormalizedTransaction is one statement row after field normalization.
// Amount keeps the exact digits and sign of the source text; no float
// conversion happens anywhere in the pipeline.
type NormalizedTransaction struct {
	Date     time.Time       `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Category string          `json:"category"`
	Account  string          `json:"account"` // masked, e.g. "****5333"
	Tags     []string        `json:"tags"`
	Notes    string          `json:"notes"`
}

// ClassifiedRow is a normalized transaction with its transfer classification.
type ClassifiedRow struct {
	NormalizedTransaction
	IsCashWithdrawal bool `json:"is_cash_withdrawal"`
}

// RowResult is the typed outcome of parsing one candidate statement line:
// either an accepted row or a rejection with a reason.
type RowResult struct {
	Row      *ClassifiedRow
	Rejected *parsererror.Rejection
}

// Accepted reports whether the result carries a usable row.
func (r RowResult) Accepted() bool {
	return r.Row != nil
}
