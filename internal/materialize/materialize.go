// Package materialize turns classified, deduplicated statement rows into
// ledger entry intents ready for bulk persistence.
package materialize

import (
	"context"
	"fmt"

	"github.com/bibikovilya/prior-import/internal/logging"
	"github.com/bibikovilya/prior-import/internal/models"
)

// Resolver supplies identity-or-creation of the domain objects an intent
// references. Implemented by the persistence boundary.
type Resolver interface {
	// ResolveAccount finds or creates an account from a raw statement label.
	ResolveAccount(ctx context.Context, label string) (models.Account, error)

	// ResolveCategory finds or creates a category from a raw label.
	// An empty label resolves to no category.
	ResolveCategory(ctx context.Context, label string) (models.Category, error)

	// ResolveTag finds or creates a tag from a raw label. Unresolvable tags
	// report ok=false and are filtered out.
	ResolveTag(ctx context.Context, label string) (tag models.Tag, ok bool, err error)

	// FindOrCreateCashAccount resolves the synthetic "Cash <CUR>" account.
	FindOrCreateCashAccount(ctx context.Context, currency string) (models.Account, error)
}

// Materializer builds ledger entry intents. Amounts and dates pass through
// unchanged; the only state is the per-currency cash account cache, scoped
// to one import run.
type Materializer struct {
	resolver Resolver
	logger   logging.Logger

	// pinned, when set, overrides per-row account resolution.
	pinned *models.Account

	cash map[string]models.Account
}

// New creates a Materializer over the given resolver.
func New(resolver Resolver, logger logging.Logger) *Materializer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Materializer{
		resolver: resolver,
		logger:   logger,
		cash:     make(map[string]models.Account),
	}
}

// WithPinnedAccount fixes every row to one account, skipping label
// resolution. Used when the user pinned the import to an account up front.
func (m *Materializer) WithPinnedAccount(account models.Account) *Materializer {
	m.pinned = &account
	return m
}

// Materialize builds one intent per accepted row, in order. Rejected rows
// are skipped. The returned batch is only valid as a unit; the persistence
// boundary must apply it atomically.
func (m *Materializer) Materialize(ctx context.Context, results []models.RowResult) ([]models.LedgerEntryIntent, error) {
	var intents []models.LedgerEntryIntent
	for _, res := range results {
		if !res.Accepted() {
			continue
		}
		intent, err := m.materializeRow(ctx, *res.Row)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}

	m.logger.Info("Materialized ledger entry intents",
		logging.Field{Key: "count", Value: len(intents)})
	return intents, nil
}

func (m *Materializer) materializeRow(ctx context.Context, row models.ClassifiedRow) (models.LedgerEntryIntent, error) {
	account, err := m.resolveAccount(ctx, row.Account)
	if err != nil {
		return models.LedgerEntryIntent{}, err
	}

	if row.IsCashWithdrawal {
		transfer, err := m.buildTransfer(ctx, row, account)
		if err != nil {
			return models.LedgerEntryIntent{}, err
		}
		return models.LedgerEntryIntent{Transfer: transfer}, nil
	}

	tx, err := m.buildTransaction(ctx, row, account)
	if err != nil {
		return models.LedgerEntryIntent{}, err
	}
	return models.LedgerEntryIntent{Transaction: tx}, nil
}

func (m *Materializer) buildTransaction(ctx context.Context, row models.ClassifiedRow, account models.Account) (*models.TransactionIntent, error) {
	category, err := m.resolver.ResolveCategory(ctx, row.Category)
	if err != nil {
		return nil, fmt.Errorf("resolving category %q: %w", row.Category, err)
	}

	var tags []models.Tag
	for _, label := range row.Tags {
		tag, ok, err := m.resolver.ResolveTag(ctx, label)
		if err != nil {
			return nil, fmt.Errorf("resolving tag %q: %w", label, err)
		}
		if ok {
			tags = append(tags, tag)
		}
	}

	return &models.TransactionIntent{
		Entry: models.EntryIntent{
			Account: account,
			Date:    row.Date,
			Amount:  models.NewMoney(row.Amount, row.Currency),
			Name:    row.Name,
			Notes:   row.Notes,
		},
		Category: category,
		Tags:     tags,
	}, nil
}

// buildTransfer builds the two linked legs of a cash withdrawal: an outflow
// of the absolute amount from the source account and the exact negative into
// the per-currency cash counter-account, same date and currency, no category
// or tags on the cash side.
func (m *Materializer) buildTransfer(ctx context.Context, row models.ClassifiedRow, source models.Account) (*models.TransferIntent, error) {
	cash, err := m.cashAccount(ctx, row.Currency)
	if err != nil {
		return nil, err
	}

	outAmount := models.NewMoney(row.Amount, row.Currency).Abs()

	outflow := models.TransactionIntent{
		Entry: models.EntryIntent{
			Account: source,
			Date:    row.Date,
			Amount:  outAmount,
			Name:    row.Name,
			Notes:   row.Notes,
		},
	}
	inflow := models.TransactionIntent{
		Entry: models.EntryIntent{
			Account: cash,
			Date:    row.Date,
			Amount:  outAmount.Neg(),
			Name:    fmt.Sprintf("Cash withdrawal from %s", source.Name),
		},
	}

	return &models.TransferIntent{Outflow: outflow, Inflow: inflow}, nil
}

func (m *Materializer) resolveAccount(ctx context.Context, label string) (models.Account, error) {
	if m.pinned != nil {
		return *m.pinned, nil
	}
	account, err := m.resolver.ResolveAccount(ctx, label)
	if err != nil {
		return models.Account{}, fmt.Errorf("resolving account %q: %w", label, err)
	}
	return account, nil
}

// cashAccount resolves "Cash <CUR>" once per currency per import run.
// Concurrent imports can race the underlying find-or-create; the host is
// expected to serialize materialization per family.
func (m *Materializer) cashAccount(ctx context.Context, currency string) (models.Account, error) {
	if account, ok := m.cash[currency]; ok {
		return account, nil
	}
	account, err := m.resolver.FindOrCreateCashAccount(ctx, currency)
	if err != nil {
		return models.Account{}, fmt.Errorf("resolving cash account for %s: %w", currency, err)
	}
	m.cash[currency] = account
	return account, nil
}
