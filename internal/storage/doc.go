// Package storage provides SQLite-based persistence for the replacement
// journal.
//
// Every write the bridge makes on behalf of a replacement is recorded with
// the live text read immediately before it, so the change can be undone
// later even after the search session that produced it is gone. Completed
// project searches are kept as a short history.
//
// # Database Schema
//
// Tables:
//   - replacements: before/after text per write, success and revert state
//   - searches: query options, result counts and duration
//   - schema_version: applied migrations
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage(filepath.Join(dir, "journal.db"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	rec := &storage.Replacement{
//	    PropertyPath: "Transform/Position",
//	    Kind:         storage.KindExpression,
//	    Before:       "wiggle(2, 30)",
//	    After:        "wiggle(2, 10)",
//	    Success:      true,
//	}
//	if err := db.RecordReplacement(ctx, rec); err != nil {
//	    return err
//	}
//
// # Transactions
//
// An undo restores text through the host and then marks the row reverted;
// both journal writes share one transaction:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if err := tx.MarkReverted(ctx, id); err != nil {
//	    return err
//	}
//	if err := tx.RecordReplacement(ctx, undo); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// # Build Modes
//
// The default build uses modernc.org/sqlite and needs no C compiler. Building
// with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3. The
// connection pool is limited to one connection because SQLite has a single
// writer; do not call the non-transactional methods while a Tx is open.
//
// # Migrations
//
// Schema versions are semantic versions applied in order on open.
// RollbackMigration reverts the newest one.
package storage
