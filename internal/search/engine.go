package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/aebridge/internal/logging"
	"github.com/dshills/aebridge/pkg/types"
)

// ContextChars is how many runes of surrounding line text a match carries on
// each side.
const ContextChars = 30

// DefaultPatternCacheSize bounds the compiled-pattern cache.
const DefaultPatternCacheSize = 128

var (
	// ErrSearchInProgress is returned when a project search is already running.
	ErrSearchInProgress = errors.New("search already in progress")
	// ErrEditorScope is returned when a project search is asked to use the editor scope.
	ErrEditorScope = errors.New("editor scope has no remote snapshots; use SearchInEditor")
	// ErrNoProvider is returned when SearchInProject is called without a provider.
	ErrNoProvider = errors.New("snapshot provider is required")
)

// InvalidMatchIndex is the error text reported for out-of-range match indices.
const InvalidMatchIndex = "Invalid match index"

// SnapshotProvider fetches the text snapshots a project search runs over.
type SnapshotProvider func(ctx context.Context, opts types.SearchOptions) ([]types.ExpressionSnapshot, error)

// UpdateFunc persists a rewritten expression, normally through the bridge.
type UpdateFunc func(ctx context.Context, propertyPath, newExpression string) error

// UpdaterFactory returns the UpdateFunc that persists writes to one result.
type UpdaterFactory func(result *types.SearchResult) UpdateFunc

// ConfirmFunc approves a single match during a confirm-each replacement.
type ConfirmFunc func(result *types.SearchResult, match types.SearchMatch) bool

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPatternCacheSize sets how many compiled patterns are kept.
func WithPatternCacheSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cacheSize = n
		}
	}
}

// Engine is a stateful search session over fetched snapshots.
//
// The held result set is replaced, never merged, by each project search.
// Callbacks (provider, updater, confirm) run without the engine lock held and
// must not call back into the same engine.
type Engine struct {
	mu      sync.Mutex
	options types.SearchOptions
	results []*types.SearchResult
	current int

	lastSearchAt   time.Time
	lastSearchTook time.Duration

	cacheSize int
	patterns  *lru.Cache[patternKey, *regexp2.Regexp]
	session   sessionLock
	logger    *logging.Logger
}

// New creates an Engine with an empty result set.
func New(opts ...Option) *Engine {
	e := &Engine{
		current:   -1,
		cacheSize: DefaultPatternCacheSize,
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("search")

	cache, err := lru.New[patternKey, *regexp2.Regexp](e.cacheSize)
	if err != nil {
		// only fails for a non-positive size, which the option rejects
		panic(fmt.Sprintf("failed to create pattern cache: %v", err))
	}
	e.patterns = cache
	return e
}

// compile returns the cached pattern for opts, compiling it on a miss.
func (e *Engine) compile(opts types.SearchOptions) (*regexp2.Regexp, error) {
	key := keyFor(opts)
	if re, ok := e.patterns.Get(key); ok {
		return re, nil
	}
	re, err := compilePattern(opts)
	if err != nil {
		return nil, err
	}
	e.patterns.Add(key, re)
	return re, nil
}

// SearchInEditor finds every match of opts in content, line by line. An empty
// query or a malformed pattern yields no matches.
func (e *Engine) SearchInEditor(content string, opts types.SearchOptions) []types.SearchMatch {
	if opts.Query == "" {
		return nil
	}
	re, err := e.compile(opts)
	if err != nil {
		e.logger.Warn("invalid search pattern", "query", opts.Query, "regex", opts.IsRegex, "error", err)
		return nil
	}
	return e.scan(re, content)
}

func (e *Engine) scan(re *regexp2.Regexp, content string) []types.SearchMatch {
	var matches []types.SearchMatch
	for i, line := range strings.Split(content, "\n") {
		runes := []rune(line)
		pos := 0
		for pos <= len(runes) {
			m, err := re.FindRunesMatchStartingAt(runes, pos)
			if err != nil {
				e.logger.Warn("match aborted", "line", i+1, "error", err)
				break
			}
			if m == nil {
				break
			}

			start, length := m.Index, m.Length
			matches = append(matches, types.SearchMatch{
				StartLine:     i + 1,
				StartColumn:   start + 1,
				EndLine:       i + 1,
				EndColumn:     start + 1 + length,
				MatchText:     string(runes[start : start+length]),
				ContextBefore: string(runes[max(0, start-ContextChars):start]),
				ContextAfter:  string(runes[start+length : min(len(runes), start+length+ContextChars)]),
				LineText:      line,
			})

			// zero-length matches must still advance
			if length == 0 {
				pos = start + 1
			} else {
				pos = start + length
			}
		}
	}
	return matches
}

// SearchInProject fetches snapshots through fetchAll, searches each one and
// replaces the held result set with the snapshots that matched. The cursor
// is reset to the first result, or -1 when nothing matched.
func (e *Engine) SearchInProject(ctx context.Context, fetchAll SnapshotProvider, opts types.SearchOptions) ([]types.SearchResult, error) {
	if fetchAll == nil {
		return nil, ErrNoProvider
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Scope == types.ScopeEditor {
		return nil, ErrEditorScope
	}
	if !e.session.TryAcquire() {
		return nil, ErrSearchInProgress
	}
	defer e.session.Release()

	start := time.Now()
	snapshots, err := fetchAll(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", err)
	}

	results := make([]*types.SearchResult, 0)
	seen := make(map[string]int)
	for _, snap := range snapshots {
		if !includeSnapshot(snap, opts) {
			continue
		}
		matches := e.SearchInEditor(snap.Expression, opts)
		if len(matches) == 0 {
			continue
		}
		results = append(results, &types.SearchResult{
			ID:           resultID(snap, seen),
			LayerName:    snap.LayerName,
			LayerID:      snap.LayerID,
			PropertyName: snap.PropertyName,
			PropertyPath: snap.PropertyPath,
			Expression:   snap.Expression,
			Matches:      matches,
			Type:         snapshotType(snap),
		})
	}

	e.mu.Lock()
	e.options = opts
	e.results = results
	e.current = -1
	if len(results) > 0 {
		e.current = 0
	}
	e.lastSearchAt = start
	e.lastSearchTook = time.Since(start)
	out := e.copyResultsLocked()
	e.mu.Unlock()

	e.logger.Info("project search complete",
		"query", opts.Query, "snapshots", len(snapshots), "results", len(out), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func includeSnapshot(snap types.ExpressionSnapshot, opts types.SearchOptions) bool {
	switch snapshotType(snap) {
	case types.ResultComment:
		return opts.IncludeComments
	case types.ResultNote:
		return opts.IncludeNotes
	default:
		return true
	}
}

func snapshotType(snap types.ExpressionSnapshot) types.ResultType {
	if snap.Type == "" {
		return types.ResultExpression
	}
	return snap.Type
}

// resultID derives a stable identifier from layer and property path.
func resultID(snap types.ExpressionSnapshot, seen map[string]int) string {
	id := fmt.Sprintf("%d:%s", snap.LayerID, snap.PropertyPath)
	n := seen[id]
	seen[id] = n + 1
	if n > 0 {
		id = fmt.Sprintf("%s#%d", id, n)
	}
	return id
}

// NextResult advances the cursor circularly. It returns nil on an empty set.
func (e *Engine) NextResult() *types.SearchResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.results) == 0 {
		return nil
	}
	e.current = (e.current + 1) % len(e.results)
	return e.results[e.current].Clone()
}

// PreviousResult moves the cursor back circularly. It returns nil on an empty set.
func (e *Engine) PreviousResult() *types.SearchResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.results) == 0 {
		return nil
	}
	n := len(e.results)
	e.current = (e.current - 1 + n) % n
	return e.results[e.current].Clone()
}

// CurrentResult returns the result under the cursor, or nil.
func (e *Engine) CurrentResult() *types.SearchResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current < 0 || e.current >= len(e.results) {
		return nil
	}
	return e.results[e.current].Clone()
}

// Result returns the held result with id, or nil.
func (e *Engine) Result(id string) *types.SearchResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range e.results {
		if r.ID == id {
			return r.Clone()
		}
	}
	return nil
}

// Results returns a copy of the held result set.
func (e *Engine) Results() []types.SearchResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyResultsLocked()
}

func (e *Engine) copyResultsLocked() []types.SearchResult {
	out := make([]types.SearchResult, len(e.results))
	for i, r := range e.results {
		out[i] = *r.Clone()
	}
	return out
}

// Statistics sums the held result set on demand.
func (e *Engine) Statistics() types.Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := 0
	for _, r := range e.results {
		total += len(r.Matches)
	}
	return types.Statistics{
		TotalResults: len(e.results),
		TotalMatches: total,
		CurrentIndex: e.current,
		Query:        e.options.Query,
	}
}

// LastSearch reports when the last project search started and how long it took.
func (e *Engine) LastSearch() (time.Time, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSearchAt, e.lastSearchTook
}

// ClearResults drops the held result set.
func (e *Engine) ClearResults() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = nil
	e.current = -1
}

// UpdateOptions applies fn to the current options.
func (e *Engine) UpdateOptions(fn func(*types.SearchOptions)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.options)
}

// Options returns a copy of the current options.
func (e *Engine) Options() types.SearchOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.options
}

// refresh swaps in text this engine just wrote for result id and recomputes
// its matches. A result left without matches is dropped.
func (e *Engine) refresh(id, expression string) {
	opts := e.Options()
	var matches []types.SearchMatch
	if opts.Query != "" {
		matches = e.SearchInEditor(expression, opts)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i, r := range e.results {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	if len(matches) > 0 {
		e.results[idx].Expression = expression
		e.results[idx].Matches = matches
		return
	}

	e.results = append(e.results[:idx], e.results[idx+1:]...)
	switch {
	case len(e.results) == 0:
		e.current = -1
	case idx < e.current:
		e.current--
	case e.current >= len(e.results):
		e.current = len(e.results) - 1
	}
}

// sortMatchesDescending orders matches from the end of the text backwards so
// splicing one never shifts the columns of those still to be applied.
func sortMatchesDescending(indices []int, matches []types.SearchMatch) {
	sort.SliceStable(indices, func(a, b int) bool {
		ma, mb := matches[indices[a]], matches[indices[b]]
		if ma.StartLine != mb.StartLine {
			return ma.StartLine > mb.StartLine
		}
		return ma.StartColumn > mb.StartColumn
	})
}
