// Package store is the SQLite-backed persistence boundary of the importer:
// account/category/tag resolution, the prior-import note lookup used for
// deduplication, and atomic application of a materialized intent batch.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/bibikovilya/prior-import/internal/currencyutils"
	"github.com/bibikovilya/prior-import/internal/dateutils"
	"github.com/bibikovilya/prior-import/internal/dedup"
	"github.com/bibikovilya/prior-import/internal/importer"
	"github.com/bibikovilya/prior-import/internal/logging"
	"github.com/bibikovilya/prior-import/internal/models"
)

// Store wraps the ledger database. It assumes single-writer-per-family
// semantics and takes no cross-process locks.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// New opens (creating if needed) the ledger database at dbPath and brings
// its schema up to date.
func New(dbPath string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ResolveAccount finds or creates an account by its statement label.
func (s *Store) ResolveAccount(ctx context.Context, label string) (models.Account, error) {
	if label == "" {
		label = models.UnknownAccount
	}
	return s.findOrCreateAccount(ctx, label, "", false)
}

// FindOrCreateCashAccount resolves the synthetic per-currency cash account.
func (s *Store) FindOrCreateCashAccount(ctx context.Context, currency string) (models.Account, error) {
	return s.findOrCreateAccount(ctx, "Cash "+currency, currency, true)
}

func (s *Store) findOrCreateAccount(ctx context.Context, name, currency string, isCash bool) (models.Account, error) {
	var account models.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, currency, is_cash FROM accounts WHERE name = ?`, name).
		Scan(&account.ID, &account.Name, &account.Currency, &account.IsCash)
	if err == nil {
		return account, nil
	}
	if err != sql.ErrNoRows {
		return models.Account{}, fmt.Errorf("query account %q: %w", name, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (name, currency, is_cash) VALUES (?, ?, ?)`,
		name, currency, isCash)
	if err != nil {
		return models.Account{}, fmt.Errorf("create account %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Account{}, fmt.Errorf("account id for %q: %w", name, err)
	}

	s.logger.Debug("Created account",
		logging.Field{Key: "name", Value: name},
		logging.Field{Key: "id", Value: id})
	return models.Account{ID: id, Name: name, Currency: currency, IsCash: isCash}, nil
}

// ResolveCategory finds or creates a category. An empty label means no
// category.
func (s *Store) ResolveCategory(ctx context.Context, label string) (models.Category, error) {
	if label == "" {
		return models.Category{}, nil
	}

	var category models.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM categories WHERE name = ?`, label).
		Scan(&category.ID, &category.Name)
	if err == nil {
		return category, nil
	}
	if err != sql.ErrNoRows {
		return models.Category{}, fmt.Errorf("query category %q: %w", label, err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, label)
	if err != nil {
		return models.Category{}, fmt.Errorf("create category %q: %w", label, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Category{}, fmt.Errorf("category id for %q: %w", label, err)
	}
	return models.Category{ID: id, Name: label}, nil
}

// ResolveTag finds or creates a tag. Blank labels are unresolvable and get
// filtered by the caller.
func (s *Store) ResolveTag(ctx context.Context, label string) (models.Tag, bool, error) {
	if label == "" {
		return models.Tag{}, false, nil
	}

	var tag models.Tag
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM tags WHERE name = ?`, label).
		Scan(&tag.ID, &tag.Name)
	if err == nil {
		return tag, true, nil
	}
	if err != sql.ErrNoRows {
		return models.Tag{}, false, fmt.Errorf("query tag %q: %w", label, err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, label)
	if err != nil {
		return models.Tag{}, false, fmt.Errorf("create tag %q: %w", label, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Tag{}, false, fmt.Errorf("tag id for %q: %w", label, err)
	}
	return models.Tag{ID: id, Name: label}, true, nil
}

// PriorImportNotes returns the note texts of entries written by earlier
// imports of the same kind within the scope, excluding the running import.
func (s *Store) PriorImportNotes(ctx context.Context, scope dedup.Scope) (map[string]struct{}, error) {
	query := `
		SELECT DISTINCT e.notes
		FROM entries e
		JOIN imports i ON i.id = e.import_id
		WHERE i.kind = ? AND i.id != ? AND e.notes != ''`
	args := []interface{}{scope.ImportKind, scope.ExcludeImportID}

	if scope.PinnedAccountLabel != "" {
		query += ` AND e.account_id IN (SELECT id FROM accounts WHERE name = ?)`
		args = append(args, scope.PinnedAccountLabel)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prior import notes: %w", err)
	}
	defer rows.Close()

	notes := make(map[string]struct{})
	for rows.Next() {
		var note string
		if err := rows.Scan(&note); err != nil {
			return nil, fmt.Errorf("scan prior import note: %w", err)
		}
		notes[note] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prior import notes: %w", err)
	}
	return notes, nil
}

// ApplyBatch writes the whole intent batch in one database transaction.
// Any failure rolls the entire import back, so a retried run never sees a
// half-written file.
func (s *Store) ApplyBatch(ctx context.Context, rec importer.ImportRecord, intents []models.LedgerEntryIntent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is a no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (id, kind, source) VALUES (?, ?, ?)`,
		rec.ID, rec.Kind, rec.Source); err != nil {
		return fmt.Errorf("insert import record: %w", err)
	}

	for _, intent := range intents {
		if intent.IsTransfer() {
			if err := s.insertTransfer(ctx, tx, rec.ID, intent.Transfer); err != nil {
				return err
			}
			continue
		}
		if _, err := s.insertTransaction(ctx, tx, rec.ID, intent.Transaction); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("Applied import batch",
		logging.Field{Key: "import_id", Value: rec.ID},
		logging.Field{Key: "intents", Value: len(intents)})
	return nil
}

func (s *Store) insertTransaction(ctx context.Context, tx *sql.Tx, importID string, intent *models.TransactionIntent) (int64, error) {
	var categoryID interface{}
	if !intent.Category.None() {
		categoryID = intent.Category.ID
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (category_id) VALUES (?)`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	txID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	entry := intent.Entry
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (transaction_id, account_id, date, amount, name, currency, notes, import_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txID,
		entry.Account.ID,
		dateutils.ToISODate(entry.Date),
		currencyutils.FormatStatementAmount(entry.Amount.Amount, false),
		entry.Name,
		entry.Amount.Currency,
		entry.Notes,
		importID); err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	for _, tag := range intent.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
			txID, tag.ID); err != nil {
			return 0, fmt.Errorf("insert transaction tag: %w", err)
		}
	}

	return txID, nil
}

// insertTransfer writes both legs first, then the transfer row linking them.
func (s *Store) insertTransfer(ctx context.Context, tx *sql.Tx, importID string, intent *models.TransferIntent) error {
	outflowID, err := s.insertTransaction(ctx, tx, importID, &intent.Outflow)
	if err != nil {
		return err
	}
	inflowID, err := s.insertTransaction(ctx, tx, importID, &intent.Inflow)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (outflow_transaction_id, inflow_transaction_id) VALUES (?, ?)`,
		outflowID, inflowID); err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}
