package models

import "time"

// EntryIntent is the ledger entry embedded in a transaction intent.
type EntryIntent struct {
	Account Account
	Date    time.Time
	Amount  Money
	Name    string
	Notes   string
}

// TransactionIntent is one ordinary transaction ready for persistence,
// or one leg of a transfer.
type TransactionIntent struct {
	Entry    EntryIntent
	Category Category
	Tags     []Tag
}

// TransferIntent links two transaction legs: an outflow from a real account
// and the matching inflow into the per-currency cash counter-account.
// The legs carry equal and opposite amounts on the same date and currency.
type TransferIntent struct {
	Outflow TransactionIntent
	Inflow  TransactionIntent
}

// LedgerEntryIntent is the tagged union handed to the persistence boundary:
// exactly one of Transaction or Transfer is set.
type LedgerEntryIntent struct {
	Transaction *TransactionIntent
	Transfer    *TransferIntent
}

// IsTransfer reports whether the intent is a two-legged transfer.
func (i LedgerEntryIntent) IsTransfer() bool {
	return i.Transfer != nil
}
