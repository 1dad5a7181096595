package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyReverted is returned when undoing a replacement twice
	ErrAlreadyReverted = errors.New("replacement already reverted")
)

// DefaultListLimit caps list queries called with a non-positive limit.
const DefaultListLimit = 50

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// Replacement operations

const replacementColumns = `id, result_id, layer_id, property_path, kind, before_text, after_text,
       query, success, error, reverted, reverted_at, created_at`

// recordReplacementWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) recordReplacementWithQuerier(ctx context.Context, q querier, r *Replacement) error {
	query := `
		INSERT INTO replacements (result_id, layer_id, property_path, kind, before_text, after_text,
		                          query, success, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		r.ResultID, r.LayerID, r.PropertyPath, string(r.Kind), r.Before, r.After,
		r.Query, r.Success, r.Error, now)
	if err != nil {
		return fmt.Errorf("failed to record replacement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	r.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) RecordReplacement(ctx context.Context, r *Replacement) error {
	return s.recordReplacementWithQuerier(ctx, s.querier(), r)
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReplacement(row scanner) (*Replacement, error) {
	var r Replacement
	var kind string
	var resultID, query, errText sql.NullString
	var revertedAt sql.NullTime
	err := row.Scan(&r.ID, &resultID, &r.LayerID, &r.PropertyPath, &kind, &r.Before, &r.After,
		&query, &r.Success, &errText, &r.Reverted, &revertedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Kind = Kind(kind)
	r.ResultID = resultID.String
	r.Query = query.String
	r.Error = errText.String
	if revertedAt.Valid {
		t := revertedAt.Time
		r.RevertedAt = &t
	}
	return &r, nil
}

// getReplacementWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getReplacementWithQuerier(ctx context.Context, q querier, id int64) (*Replacement, error) {
	query := `SELECT ` + replacementColumns + ` FROM replacements WHERE id = ?`
	r, err := scanReplacement(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStorage) GetReplacement(ctx context.Context, id int64) (*Replacement, error) {
	return s.getReplacementWithQuerier(ctx, s.querier(), id)
}

// listReplacementsWithQuerier returns the newest replacements first
func (s *SQLiteStorage) listReplacementsWithQuerier(ctx context.Context, q querier, limit int) ([]*Replacement, error) {
	query := `SELECT ` + replacementColumns + ` FROM replacements ORDER BY id DESC LIMIT ?`
	rows, err := q.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Replacement
	for rows.Next() {
		r, err := scanReplacement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) ListReplacements(ctx context.Context, limit int) ([]*Replacement, error) {
	return s.listReplacementsWithQuerier(ctx, s.querier(), limit)
}

// markRevertedWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) markRevertedWithQuerier(ctx context.Context, q querier, id int64) error {
	result, err := q.ExecContext(ctx,
		`UPDATE replacements SET reverted = 1, reverted_at = ? WHERE id = ? AND reverted = 0`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark replacement reverted: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// distinguish a missing row from one already reverted
	if _, err := s.getReplacementWithQuerier(ctx, q, id); err != nil {
		return err
	}
	return ErrAlreadyReverted
}

func (s *SQLiteStorage) MarkReverted(ctx context.Context, id int64) error {
	return s.markRevertedWithQuerier(ctx, s.querier(), id)
}

// Search history

// recordSearchWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) recordSearchWithQuerier(ctx context.Context, q querier, rec *SearchRecord) error {
	query := `
		INSERT INTO searches (query, is_regex, match_case, whole_word, scope,
		                      result_count, match_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		rec.Query, rec.IsRegex, rec.MatchCase, rec.WholeWord, rec.Scope,
		rec.ResultCount, rec.MatchCount, rec.Duration.Milliseconds(), now)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	rec.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) RecordSearch(ctx context.Context, rec *SearchRecord) error {
	return s.recordSearchWithQuerier(ctx, s.querier(), rec)
}

// listSearchesWithQuerier returns the newest searches first
func (s *SQLiteStorage) listSearchesWithQuerier(ctx context.Context, q querier, limit int) ([]*SearchRecord, error) {
	query := `
		SELECT id, query, is_regex, match_case, whole_word, scope,
		       result_count, match_count, duration_ms, created_at
		FROM searches
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SearchRecord
	for rows.Next() {
		var rec SearchRecord
		var scope sql.NullString
		var durationMS sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.IsRegex, &rec.MatchCase, &rec.WholeWord, &scope,
			&rec.ResultCount, &rec.MatchCount, &durationMS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Scope = scope.String
		rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) ListSearches(ctx context.Context, limit int) ([]*SearchRecord, error) {
	return s.listSearchesWithQuerier(ctx, s.querier(), limit)
}

// Status operations

// getStatsWithQuerier counts journal rows and reports the database size
func (s *SQLiteStorage) getStatsWithQuerier(ctx context.Context, q querier) (*Stats, error) {
	stats := &Stats{}

	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN reverted = 1 THEN 1 ELSE 0 END), 0)
		FROM replacements
	`).Scan(&stats.Replacements, &stats.Failed, &stats.Reverted)
	if err != nil {
		return nil, err
	}

	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM searches").Scan(&stats.Searches); err != nil {
		return nil, err
	}

	if stats.Replacements > 0 {
		var last time.Time
		err := q.QueryRowContext(ctx, "SELECT created_at FROM replacements ORDER BY id DESC LIMIT 1").Scan(&last)
		if err != nil {
			return nil, err
		}
		stats.LastReplacementAt = last
	}

	// Calculate database size
	var pageCount, pageSize int64
	err = q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		err = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		if err == nil {
			stats.SizeBytes = pageCount * pageSize
		}
	}

	version, err := schemaVersion(ctx, q)
	if err != nil {
		return nil, err
	}
	stats.SchemaVersion = version

	return stats, nil
}

func (s *SQLiteStorage) GetStats(ctx context.Context) (*Stats, error) {
	return s.getStatsWithQuerier(ctx, s.querier())
}

// Transaction implementations

func (t *sqliteTx) RecordReplacement(ctx context.Context, r *Replacement) error {
	return t.storage.recordReplacementWithQuerier(ctx, t.querier(), r)
}

func (t *sqliteTx) GetReplacement(ctx context.Context, id int64) (*Replacement, error) {
	return t.storage.getReplacementWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListReplacements(ctx context.Context, limit int) ([]*Replacement, error) {
	return t.storage.listReplacementsWithQuerier(ctx, t.querier(), limit)
}

func (t *sqliteTx) MarkReverted(ctx context.Context, id int64) error {
	return t.storage.markRevertedWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) RecordSearch(ctx context.Context, rec *SearchRecord) error {
	return t.storage.recordSearchWithQuerier(ctx, t.querier(), rec)
}

func (t *sqliteTx) ListSearches(ctx context.Context, limit int) ([]*SearchRecord, error) {
	return t.storage.listSearchesWithQuerier(ctx, t.querier(), limit)
}

func (t *sqliteTx) GetStats(ctx context.Context) (*Stats, error) {
	return t.storage.getStatsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
