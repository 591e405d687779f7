// Package dedup filters statement rows that were already imported, matching
// the cleaned note text against entries recorded by prior imports.
package dedup

import (
	"context"

	"github.com/bibikovilya/prior-import/internal/logging"
	"github.com/bibikovilya/prior-import/internal/models"
	"github.com/bibikovilya/prior-import/internal/parsererror"
	"github.com/bibikovilya/prior-import/internal/textutils"
)

// Scope bounds the prior-entry lookup: either one pinned account or every
// account in the owning family, always excluding the current import run.
type Scope struct {
	// PinnedAccountLabel restricts matching to one account when the import
	// is fixed to it; empty means the whole family.
	PinnedAccountLabel string
	// ImportKind is the import type whose prior entries participate.
	ImportKind string
	// ExcludeImportID is the identifier of the running import.
	ExcludeImportID string
}

// NotesSource supplies the cleaned note texts of previously imported entries
// for a scope. Implemented by the persistence boundary; injected here so the
// pipeline stays storage-agnostic.
type NotesSource interface {
	PriorImportNotes(ctx context.Context, scope Scope) (map[string]struct{}, error)
}

// Deduplicator rejects rows whose cleaned note byte-for-byte matches a prior
// entry's note. This is deliberately coarse: a defense against re-importing
// the same file, not a transaction-matching engine.
type Deduplicator struct {
	source NotesSource
	scope  Scope
	logger logging.Logger

	// notes is fetched lazily once per import run and cached for its lifetime.
	notes  map[string]struct{}
	loaded bool
}

// New creates a Deduplicator over the given source and scope.
func New(source NotesSource, scope Scope, logger logging.Logger) *Deduplicator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Deduplicator{source: source, scope: scope, logger: logger}
}

// IsDuplicate reports whether the cleaned note matches a prior entry's note.
func (d *Deduplicator) IsDuplicate(ctx context.Context, note string) (bool, error) {
	if err := d.load(ctx); err != nil {
		return false, err
	}
	_, ok := d.notes[textutils.CleanNote(note)]
	return ok, nil
}

// Filter turns accepted rows with duplicate notes into duplicate rejections,
// preserving order and leaving every other result untouched.
func (d *Deduplicator) Filter(ctx context.Context, results []models.RowResult) ([]models.RowResult, error) {
	filtered := make([]models.RowResult, 0, len(results))
	for _, res := range results {
		if !res.Accepted() {
			filtered = append(filtered, res)
			continue
		}
		dup, err := d.IsDuplicate(ctx, res.Row.Notes)
		if err != nil {
			return nil, err
		}
		if dup {
			filtered = append(filtered, models.RowResult{Rejected: &parsererror.Rejection{
				Line:   res.Row.Notes,
				Reason: parsererror.RejectDuplicate,
			}})
			continue
		}
		filtered = append(filtered, res)
	}
	return filtered, nil
}

func (d *Deduplicator) load(ctx context.Context) error {
	if d.loaded {
		return nil
	}
	notes, err := d.source.PriorImportNotes(ctx, d.scope)
	if err != nil {
		return err
	}
	if notes == nil {
		notes = map[string]struct{}{}
	}
	d.notes = notes
	d.loaded = true
	d.logger.Debug("Loaded prior import notes",
		logging.Field{Key: "count", Value: len(notes)})
	return nil
}
