package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/aebridge/pkg/types"
)

type write struct {
	path       string
	expression string
}

// recorder captures persisted expressions and can be told to fail.
type recorder struct {
	mu    sync.Mutex
	calls []write
	err   error
}

func (r *recorder) update(_ context.Context, path, expression string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, write{path: path, expression: expression})
	return nil
}

func searchedEngine(t *testing.T, opts types.SearchOptions, snaps ...types.ExpressionSnapshot) (*Engine, []types.SearchResult) {
	t.Helper()
	e := New()
	if len(snaps) == 0 {
		snaps = projectSnapshots()
	}
	results, err := e.SearchInProject(context.Background(), staticProvider(snaps...), opts)
	require.NoError(t, err)
	return e, results
}

func TestReplaceInEditor(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ropts   types.ReplaceOptions
		sopts   types.SearchOptions
		want    string
		count   int
	}{
		{
			name:    "preserve title case",
			content: "Hello world",
			ropts:   types.ReplaceOptions{ReplaceText: "hi", PreserveCase: true},
			sopts:   types.SearchOptions{Query: "Hello"},
			want:    "Hi world",
			count:   1,
		},
		{
			name:    "preserve each occurrence",
			content: "Hello HELLO hello",
			ropts:   types.ReplaceOptions{ReplaceText: "bye", PreserveCase: true},
			sopts:   types.SearchOptions{Query: "hello"},
			want:    "Bye BYE bye",
			count:   3,
		},
		{
			name:    "verbatim without preserve",
			content: "Hello HELLO",
			ropts:   types.ReplaceOptions{ReplaceText: "bye"},
			sopts:   types.SearchOptions{Query: "hello"},
			want:    "bye bye",
			count:   2,
		},
		{
			name:    "regex capture groups",
			content: "foo(1) foo(2)",
			ropts:   types.ReplaceOptions{ReplaceText: "bar[$1]"},
			sopts:   types.SearchOptions{Query: `foo\((\d)\)`, IsRegex: true},
			want:    "bar[1] bar[2]",
			count:   2,
		},
		{
			name:    "dollar escape",
			content: "cost",
			ropts:   types.ReplaceOptions{ReplaceText: "$$"},
			sopts:   types.SearchOptions{Query: "cost", IsRegex: true},
			want:    "$",
			count:   1,
		},
		{
			name:    "multiline content",
			content: "a.x\nb.x",
			ropts:   types.ReplaceOptions{ReplaceText: "y"},
			sopts:   types.SearchOptions{Query: ".x"},
			want:    "ay\nby",
			count:   2,
		},
		{
			name:    "literal dot is escaped",
			content: "a.x abx",
			ropts:   types.ReplaceOptions{ReplaceText: "-"},
			sopts:   types.SearchOptions{Query: "."},
			want:    "a-x abx",
			count:   1,
		},
		{
			name:    "malformed regex",
			content: "unchanged",
			ropts:   types.ReplaceOptions{ReplaceText: "x"},
			sopts:   types.SearchOptions{Query: "([", IsRegex: true},
			want:    "unchanged",
			count:   0,
		},
		{
			name:    "no match",
			content: "unchanged",
			ropts:   types.ReplaceOptions{ReplaceText: "x"},
			sopts:   types.SearchOptions{Query: "zzz"},
			want:    "unchanged",
			count:   0,
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := e.ReplaceInEditor(tt.content, tt.ropts, tt.sopts)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.count, n)
		})
	}
}

func TestReplaceInResultInvalidIndex(t *testing.T) {
	e, results := searchedEngine(t, types.SearchOptions{Query: "wiggle"})
	rec := &recorder{}

	for _, idx := range []int{-1, len(results[0].Matches)} {
		out := e.ReplaceInResult(context.Background(), &results[0], idx, types.ReplaceOptions{ReplaceText: "x"}, rec.update)
		assert.False(t, out.Success)
		assert.Equal(t, InvalidMatchIndex, out.Error)
		assert.Equal(t, results[0].ID, out.SearchResultID)
	}
	assert.Empty(t, rec.calls, "update must not be called")
}

func TestReplaceInResult(t *testing.T) {
	e, results := searchedEngine(t, types.SearchOptions{Query: "wiggle"})
	rec := &recorder{}

	out := e.ReplaceInResult(context.Background(), &results[0], 0,
		types.ReplaceOptions{ReplaceText: "JITTER", PreserveCase: true}, rec.update)

	require.True(t, out.Success, out.Error)
	assert.Equal(t, "wiggle", out.OriginalText)
	assert.Equal(t, "jitter", out.ReplacedText)
	assert.Equal(t, []write{{path: "Transform/Position", expression: "jitter(2, 30)"}}, rec.calls)

	// the rewritten result no longer matches and is dropped
	stats := e.Statistics()
	assert.Equal(t, 1, stats.TotalResults)
	assert.Equal(t, 0, stats.CurrentIndex)
	assert.Equal(t, "2:Transform/Rotation", e.CurrentResult().ID)
}

func TestReplaceInResultRegexKeepsReplacementVerbatim(t *testing.T) {
	e, results := searchedEngine(t, types.SearchOptions{Query: "wig+le", IsRegex: true})
	rec := &recorder{}

	rotation := results[1]
	require.Equal(t, "Wiggle", rotation.Matches[1].MatchText)
	out := e.ReplaceInResult(context.Background(), &rotation, 1,
		types.ReplaceOptions{ReplaceText: "jitter", PreserveCase: true}, rec.update)

	require.True(t, out.Success, out.Error)
	assert.Equal(t, "time * 10;\nwiggle(1, 5) + jitter", rec.calls[0].expression)

	held := e.Result(rotation.ID)
	require.NotNil(t, held, "one match remains")
	assert.Len(t, held.Matches, 1)
	assert.Equal(t, rec.calls[0].expression, held.Expression)
}

func TestReplaceInResultUpdateFailure(t *testing.T) {
	e, results := searchedEngine(t, types.SearchOptions{Query: "wiggle"})
	rec := &recorder{err: errors.New("host rejected")}

	out := e.ReplaceInResult(context.Background(), &results[0], 0, types.ReplaceOptions{ReplaceText: "x"}, rec.update)
	assert.False(t, out.Success)
	assert.Equal(t, "host rejected", out.Error)
	assert.Equal(t, 2, e.Statistics().TotalResults, "held results are untouched")

	out = e.ReplaceInResult(context.Background(), &results[0], 0, types.ReplaceOptions{ReplaceText: "x"}, nil)
	assert.Equal(t, ErrNoUpdater.Error(), out.Error)
}

func TestReplaceAllInResult(t *testing.T) {
	e, results := searchedEngine(t, types.SearchOptions{Query: "wiggle"})
	rec := &recorder{}

	out := e.ReplaceAllInResult(context.Background(), &results[1],
		types.ReplaceOptions{ReplaceText: "jitter", ReplaceAll: true, PreserveCase: true}, rec.update, nil)

	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].MatchIndex)
	assert.Equal(t, 1, out[1].MatchIndex)
	assert.Equal(t, "Jitter", out[1].ReplacedText)
	for _, r := range out {
		assert.True(t, r.Success)
	}
	require.Len(t, rec.calls, 1, "one write per result")
	assert.Equal(t, "time * 10;\njitter(1, 5) + Jitter", rec.calls[0].expression)
	assert.Nil(t, e.Result(results[1].ID))
}

func TestReplaceAllInResultConfirmEach(t *testing.T) {
	e, results := searchedEngine(t, types.SearchOptions{Query: "wiggle"})
	rec := &recorder{}

	var asked []string
	confirm := func(_ *types.SearchResult, m types.SearchMatch) bool {
		asked = append(asked, m.MatchText)
		return m.MatchText == "Wiggle"
	}
	out := e.ReplaceAllInResult(context.Background(), &results[1],
		types.ReplaceOptions{ReplaceText: "jitter", ConfirmEach: true}, rec.update, confirm)

	assert.Equal(t, []string{"wiggle", "Wiggle"}, asked)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].MatchIndex)
	assert.Equal(t, "time * 10;\nwiggle(1, 5) + jitter", rec.calls[0].expression)

	declined := e.ReplaceAllInResult(context.Background(), e.Result(results[1].ID),
		types.ReplaceOptions{ReplaceText: "jitter", ConfirmEach: true}, rec.update,
		func(*types.SearchResult, types.SearchMatch) bool { return false })
	assert.Empty(t, declined)
	assert.Len(t, rec.calls, 1)
}

func TestReplaceAllInResultRegexGroups(t *testing.T) {
	snap := types.ExpressionSnapshot{LayerID: 7, PropertyPath: "Text/Source Text", Expression: "a1 b2"}
	e, results := searchedEngine(t, types.SearchOptions{Query: `([a-z])(\d)`, IsRegex: true}, snap)
	rec := &recorder{}

	out := e.ReplaceAllInResult(context.Background(), &results[0], types.ReplaceOptions{ReplaceText: "$2$1"}, rec.update, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "1a 2b", rec.calls[0].expression)
}

func TestReplaceAllInResultRegexKeepsLineContext(t *testing.T) {
	snap := types.ExpressionSnapshot{LayerID: 7, PropertyPath: "Text/Source Text", Expression: "ab ac\nx = ab"}
	e, results := searchedEngine(t, types.SearchOptions{Query: `(a)(?=b)`, IsRegex: true}, snap)
	rec := &recorder{}

	out := e.ReplaceAllInResult(context.Background(), &results[0], types.ReplaceOptions{ReplaceText: "[$1]"}, rec.update, nil)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.True(t, r.Success)
		assert.Equal(t, "[a]", r.ReplacedText)
	}
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "[a]b ac\nx = [a]b", rec.calls[0].expression)
}

func TestReplaceAllInResultRegexAnchor(t *testing.T) {
	snap := types.ExpressionSnapshot{LayerID: 7, PropertyPath: "Text/Source Text", Expression: "x x"}
	e, results := searchedEngine(t, types.SearchOptions{Query: `^x`, IsRegex: true}, snap)
	rec := &recorder{}

	out := e.ReplaceAllInResult(context.Background(), &results[0], types.ReplaceOptions{ReplaceText: "y"}, rec.update, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "y x", rec.calls[0].expression)
}

func TestReplaceAllInResultRegexStalePosition(t *testing.T) {
	snap := types.ExpressionSnapshot{LayerID: 7, PropertyPath: "Text/Source Text", Expression: "ab"}
	e, results := searchedEngine(t, types.SearchOptions{Query: `(a)(?=b)`, IsRegex: true}, snap)
	rec := &recorder{}

	stale := results[0]
	stale.Matches = []types.SearchMatch{stale.Matches[0]}
	stale.Matches[0].LineText = "ac"

	out := e.ReplaceAllInResult(context.Background(), &stale, types.ReplaceOptions{ReplaceText: "[$1]"}, rec.update, nil)
	require.Len(t, out, 1)
	assert.False(t, out[0].Success)
	assert.Equal(t, ErrStaleMatch.Error(), out[0].Error)
	assert.Empty(t, out[0].ReplacedText, "the raw template is never reported as applied")
	assert.Empty(t, rec.calls, "nothing is written when a match cannot be re-located")
}

func TestReplaceAllInProject(t *testing.T) {
	e, _ := searchedEngine(t, types.SearchOptions{Query: "wiggle"})
	rec := &recorder{}

	var seen []string
	updateFor := func(r *types.SearchResult) UpdateFunc {
		seen = append(seen, r.ID)
		return rec.update
	}
	held := e.Results()
	out := e.ReplaceAllInProject(context.Background(), types.ReplaceOptions{ReplaceText: "jitter", ReplaceAll: true}, updateFor, nil)
	assert.Len(t, out, 3)
	assert.Len(t, rec.calls, 2)
	assert.Equal(t, []string{held[0].ID, held[1].ID}, seen, "one update function per result")
	assert.Equal(t, types.Statistics{CurrentIndex: -1, Query: "wiggle"}, e.Statistics())

	e, _ = searchedEngine(t, types.SearchOptions{Query: "wiggle"})
	out = e.ReplaceAllInProject(context.Background(), types.ReplaceOptions{ReplaceText: "jitter"}, nil, nil)
	require.Len(t, out, 3)
	assert.Equal(t, ErrNoUpdater.Error(), out[0].Error)
}

func TestSpliceMatchRange(t *testing.T) {
	_, err := spliceMatch("abc", types.SearchMatch{StartLine: 2, StartColumn: 1, EndColumn: 2}, "x")
	assert.ErrorIs(t, err, types.ErrInvalidMatchRange)

	_, err = spliceMatch("abc", types.SearchMatch{StartLine: 1, StartColumn: 3, EndColumn: 9}, "x")
	assert.ErrorIs(t, err, types.ErrInvalidMatchRange)

	got, err := spliceMatch("größe", types.SearchMatch{StartLine: 1, StartColumn: 3, EndColumn: 5}, "SS")
	require.NoError(t, err)
	assert.Equal(t, "grSSe", got)
}
