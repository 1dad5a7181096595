package storage

import (
	"context"
	"time"
)

// Storage persists the replacement journal and search history.
type Storage interface {
	// Replacement operations
	RecordReplacement(ctx context.Context, r *Replacement) error
	GetReplacement(ctx context.Context, id int64) (*Replacement, error)
	ListReplacements(ctx context.Context, limit int) ([]*Replacement, error)
	MarkReverted(ctx context.Context, id int64) error

	// Search history
	RecordSearch(ctx context.Context, s *SearchRecord) error
	ListSearches(ctx context.Context, limit int) ([]*SearchRecord, error)

	// Status operations
	GetStats(ctx context.Context) (*Stats, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Kind is the kind of text a replacement rewrote.
type Kind string

const (
	KindExpression Kind = "expression"
	KindComment    Kind = "comment"
	KindNote       Kind = "note"
)

// Replacement is one journaled write to the host. Before holds the live text
// read immediately before the write, so it can be restored by an undo.
type Replacement struct {
	ID           int64
	ResultID     string // search result the write came from, empty for direct edits
	LayerID      int
	PropertyPath string
	Kind         Kind
	Before       string
	After        string
	Query        string
	Success      bool
	Error        string
	Reverted     bool
	RevertedAt   *time.Time // Nullable
	CreatedAt    time.Time
}

// SearchRecord is one completed project search.
type SearchRecord struct {
	ID          int64
	Query       string
	IsRegex     bool
	MatchCase   bool
	WholeWord   bool
	Scope       string
	ResultCount int
	MatchCount  int
	Duration    time.Duration
	CreatedAt   time.Time
}

// Stats summarises the journal.
type Stats struct {
	Replacements      int
	Failed            int
	Reverted          int
	Searches          int
	LastReplacementAt time.Time
	SizeBytes         int64
	SchemaVersion     string
}
