package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/aebridge/internal/logging"
	"github.com/dshills/aebridge/internal/search"
	"github.com/dshills/aebridge/internal/storage"
	"github.com/dshills/aebridge/pkg/types"
)

var (
	// ErrModifiedSinceWrite is returned by Undo when the live text no longer
	// matches what the journaled write left behind.
	ErrModifiedSinceWrite = errors.New("text modified since replacement")
	// ErrNotUndoable is returned by Undo for a write that never succeeded.
	ErrNotUndoable = errors.New("failed replacement cannot be undone")
	// ErrNoNoteStore is returned when a note result is written without a
	// note store to receive it.
	ErrNoNoteStore = errors.New("no note store configured")
)

// NoteStore reads and writes project notes. Notes live outside the host, so
// they are never routed through its expression or comment calls.
type NoteStore interface {
	GetNote(ctx context.Context, path string) (string, error)
	SetNote(ctx context.Context, path, text string) error
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithNoteStore sets where note results are written.
func WithNoteStore(notes NoteStore) UpdaterOption {
	return func(u *Updater) {
		u.notes = notes
	}
}

// Updater writes replacement text back to the host and journals each write.
// The journal is optional; without it writes are not recorded and Undo is
// unavailable.
type Updater struct {
	host    Host
	journal storage.Storage
	notes   NoteStore
	logger  *logging.Logger
}

// NewUpdater creates an Updater. journal may be nil.
func NewUpdater(host Host, journal storage.Storage, logger *logging.Logger, opts ...UpdaterOption) *Updater {
	if logger == nil {
		logger = logging.NopLogger()
	}
	u := &Updater{
		host:    host,
		journal: journal,
		logger:  logger.WithComponent("updater"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update writes text at path without search context.
func (u *Updater) Update(ctx context.Context, path, text string) error {
	_, err := u.write(ctx, &storage.Replacement{PropertyPath: path, After: text})
	return err
}

// For returns an update function that journals writes against result and the
// query that found it. Note results are written to the note store.
func (u *Updater) For(result *types.SearchResult, query string) search.UpdateFunc {
	return func(ctx context.Context, path, text string) error {
		rec := &storage.Replacement{PropertyPath: path, After: text, Query: query}
		if result != nil {
			rec.ResultID = result.ID
			rec.LayerID = result.LayerID
			if result.Type == types.ResultNote {
				rec.Kind = storage.KindNote
			}
		}
		_, err := u.write(ctx, rec)
		return err
	}
}

// write reads the before-image, applies rec.After and records the attempt.
func (u *Updater) write(ctx context.Context, rec *storage.Replacement) (*storage.Replacement, error) {
	if rec.Kind != storage.KindNote {
		rec.Kind = storage.KindExpression
		if id, ok := ParseCommentPath(rec.PropertyPath); ok {
			rec.Kind = storage.KindComment
			rec.LayerID = id
		}
	}

	before, err := u.readText(ctx, rec.Kind, rec.PropertyPath)
	if err == nil {
		rec.Before = before
		err = u.writeText(ctx, rec.Kind, rec.PropertyPath, rec.After)
	}
	rec.Success = err == nil
	if err != nil {
		rec.Error = err.Error()
	}

	u.record(ctx, rec)
	if err != nil {
		u.logger.Warn("write failed", "path", rec.PropertyPath, "error", err)
		return rec, err
	}
	u.logger.Info("text replaced", "path", rec.PropertyPath, "kind", rec.Kind, "journal_id", rec.ID)
	return rec, nil
}

// record journals rec. A journal failure never fails the host write, which
// has already happened.
func (u *Updater) record(ctx context.Context, rec *storage.Replacement) {
	if u.journal == nil {
		return
	}
	if err := u.journal.RecordReplacement(ctx, rec); err != nil {
		u.logger.Error("failed to journal replacement", "path", rec.PropertyPath, "error", err)
	}
}

// Undo restores the before-image of journaled replacement id. Unless force is
// set, the live text must still equal what the replacement wrote. The
// restore is itself journaled and returned.
func (u *Updater) Undo(ctx context.Context, id int64, force bool) (*storage.Replacement, error) {
	if u.journal == nil {
		return nil, errors.New("no journal configured")
	}
	rep, err := u.journal.GetReplacement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load replacement %d: %w", id, err)
	}
	if rep.Reverted {
		return nil, storage.ErrAlreadyReverted
	}
	if !rep.Success {
		return nil, ErrNotUndoable
	}

	live, err := u.readText(ctx, rep.Kind, rep.PropertyPath)
	if err != nil {
		return nil, err
	}
	if live != rep.After && !force {
		return nil, ErrModifiedSinceWrite
	}
	if err := u.writeText(ctx, rep.Kind, rep.PropertyPath, rep.Before); err != nil {
		return nil, err
	}

	undo := &storage.Replacement{
		ResultID:     fmt.Sprintf("undo:%d", rep.ID),
		LayerID:      rep.LayerID,
		PropertyPath: rep.PropertyPath,
		Kind:         rep.Kind,
		Before:       live,
		After:        rep.Before,
		Success:      true,
	}

	tx, err := u.journal.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.MarkReverted(ctx, rep.ID); err != nil {
		return nil, err
	}
	if err := tx.RecordReplacement(ctx, undo); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit undo: %w", err)
	}

	u.logger.Info("replacement reverted", "journal_id", rep.ID, "path", rep.PropertyPath)
	return undo, nil
}

func (u *Updater) readText(ctx context.Context, kind storage.Kind, path string) (string, error) {
	if kind != storage.KindNote {
		return readText(ctx, u.host, path)
	}
	if u.notes == nil {
		return "", ErrNoNoteStore
	}
	text, err := u.notes.GetNote(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read note %s: %w", path, err)
	}
	return text, nil
}

func (u *Updater) writeText(ctx context.Context, kind storage.Kind, path, text string) error {
	if kind != storage.KindNote {
		return writeText(ctx, u.host, path, text)
	}
	if u.notes == nil {
		return ErrNoNoteStore
	}
	if err := u.notes.SetNote(ctx, path, text); err != nil {
		return fmt.Errorf("failed to write note %s: %w", path, err)
	}
	return nil
}
