package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/aebridge/pkg/types"
)

func staticProvider(snaps ...types.ExpressionSnapshot) SnapshotProvider {
	return func(context.Context, types.SearchOptions) ([]types.ExpressionSnapshot, error) {
		return snaps, nil
	}
}

func projectSnapshots() []types.ExpressionSnapshot {
	return []types.ExpressionSnapshot{
		{LayerID: 1, LayerName: "Title", PropertyName: "Position", PropertyPath: "Transform/Position", Expression: "wiggle(2, 30)"},
		{LayerID: 1, LayerName: "Title", PropertyName: "Opacity", PropertyPath: "Transform/Opacity", Expression: "100"},
		{LayerID: 2, LayerName: "BG", PropertyName: "Rotation", PropertyPath: "Transform/Rotation", Expression: "time * 10;\nwiggle(1, 5) + Wiggle"},
		{LayerID: 2, LayerName: "BG", PropertyPath: "#comment/2", Expression: "uses wiggle", Type: types.ResultComment},
		{LayerID: 0, LayerName: "notes", PropertyPath: "note:todo", Expression: "check wiggle", Type: types.ResultNote},
	}
}

func TestSearchInEditorLiteralCaseInsensitive(t *testing.T) {
	e := New()
	matches := e.SearchInEditor("AAbb AAbb", types.SearchOptions{Query: "aabb"})

	require.Len(t, matches, 2)
	assert.Equal(t, 1, matches[0].StartColumn)
	assert.Equal(t, 6, matches[1].StartColumn)
	assert.Equal(t, "AAbb", matches[0].MatchText)
	assert.Equal(t, 5, matches[0].EndColumn)
	assert.Equal(t, "AAbb ", matches[1].ContextBefore)
	assert.Equal(t, " AAbb", matches[0].ContextAfter)
	assert.Equal(t, "AAbb AAbb", matches[1].LineText)
}

func TestSearchInEditorRegex(t *testing.T) {
	e := New()
	matches := e.SearchInEditor("aaa bb aaaa", types.SearchOptions{Query: "a+", IsRegex: true})

	require.Len(t, matches, 2)
	assert.Equal(t, "aaa", matches[0].MatchText)
	assert.Equal(t, 1, matches[0].StartColumn)
	assert.Equal(t, 4, matches[0].EndColumn)
	assert.Equal(t, "aaaa", matches[1].MatchText)
	assert.Equal(t, 8, matches[1].StartColumn)
	assert.Equal(t, 12, matches[1].EndColumn)
}

func TestSearchInEditorOptions(t *testing.T) {
	content := "thisComp.layer(\"Ctrl\")\nvar ctrl = thisComp;\nCTRL.x"
	tests := []struct {
		name  string
		opts  types.SearchOptions
		lines []int
	}{
		{"case insensitive", types.SearchOptions{Query: "ctrl"}, []int{1, 2, 3}},
		{"match case", types.SearchOptions{Query: "ctrl", MatchCase: true}, []int{2}},
		{"whole word", types.SearchOptions{Query: "this", MatchWholeWord: true}, nil},
		{"whole word hit", types.SearchOptions{Query: "thisComp", MatchWholeWord: true}, []int{1, 2}},
		{"literal metacharacters", types.SearchOptions{Query: "layer(\""}, []int{1}},
		{"whole word ignored for regex", types.SearchOptions{Query: "th.s", IsRegex: true, MatchWholeWord: true}, []int{1, 2}},
		{"empty query", types.SearchOptions{}, nil},
		{"malformed regex", types.SearchOptions{Query: "(unclosed", IsRegex: true}, nil},
	}
	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []int
			for _, m := range e.SearchInEditor(content, tt.opts) {
				lines = append(lines, m.StartLine)
			}
			assert.Equal(t, tt.lines, lines)
		})
	}
}

func TestSearchInEditorZeroLengthMatchesTerminate(t *testing.T) {
	e := New()
	matches := e.SearchInEditor("ab", types.SearchOptions{Query: "x*", IsRegex: true})

	// one empty match at each position including end of line
	require.Len(t, matches, 3)
	for i, m := range matches {
		assert.Equal(t, i+1, m.StartColumn)
		assert.Equal(t, m.StartColumn, m.EndColumn)
	}
}

func TestSearchInEditorRuneColumns(t *testing.T) {
	e := New()
	matches := e.SearchInEditor("// größe: size", types.SearchOptions{Query: "size"})
	require.Len(t, matches, 1)
	assert.Equal(t, 11, matches[0].StartColumn)
}

func TestSearchInProject(t *testing.T) {
	e := New()
	results, err := e.SearchInProject(context.Background(), staticProvider(projectSnapshots()...),
		types.SearchOptions{Query: "wiggle"})
	require.NoError(t, err)

	require.Len(t, results, 2, "comments and notes are excluded by default")
	assert.Equal(t, "1:Transform/Position", results[0].ID)
	assert.Equal(t, types.ResultExpression, results[0].Type)
	assert.Len(t, results[1].Matches, 2)
	assert.Equal(t, 2, results[1].Matches[0].StartLine)

	stats := e.Statistics()
	assert.Equal(t, types.Statistics{TotalResults: 2, TotalMatches: 3, CurrentIndex: 0, Query: "wiggle"}, stats)

	at, took := e.LastSearch()
	assert.False(t, at.IsZero())
	assert.GreaterOrEqual(t, took, time.Duration(0))
}

func TestSearchInProjectIncludesCommentsAndNotes(t *testing.T) {
	e := New()
	results, err := e.SearchInProject(context.Background(), staticProvider(projectSnapshots()...),
		types.SearchOptions{Query: "wiggle", IncludeComments: true, IncludeNotes: true, MatchCase: true})
	require.NoError(t, err)

	var kinds []types.ResultType
	for _, r := range results {
		kinds = append(kinds, r.Type)
	}
	assert.Equal(t, []types.ResultType{types.ResultExpression, types.ResultExpression, types.ResultComment, types.ResultNote}, kinds)
	assert.Equal(t, 4, e.Statistics().TotalMatches, "match case skips the capitalised Wiggle")
}

func TestSearchInProjectReplacesPreviousSet(t *testing.T) {
	e := New()
	ctx := context.Background()
	_, err := e.SearchInProject(ctx, staticProvider(projectSnapshots()...), types.SearchOptions{Query: "wiggle"})
	require.NoError(t, err)
	e.NextResult()

	results, err := e.SearchInProject(ctx, staticProvider(projectSnapshots()...), types.SearchOptions{Query: "time"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, e.Statistics().CurrentIndex)

	results, err = e.SearchInProject(ctx, staticProvider(projectSnapshots()...), types.SearchOptions{Query: "nothing here"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, -1, e.Statistics().CurrentIndex)
	assert.Nil(t, e.CurrentResult())
}

func TestSearchInProjectDuplicateIDs(t *testing.T) {
	snap := types.ExpressionSnapshot{LayerID: 3, PropertyPath: "Effects/Slider", Expression: "x"}
	e := New()
	results, err := e.SearchInProject(context.Background(), staticProvider(snap, snap), types.SearchOptions{Query: "x"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "3:Effects/Slider", results[0].ID)
	assert.Equal(t, "3:Effects/Slider#1", results[1].ID)
}

func TestSearchInProjectErrors(t *testing.T) {
	e := New()
	ctx := context.Background()

	_, err := e.SearchInProject(ctx, nil, types.SearchOptions{Query: "x"})
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = e.SearchInProject(ctx, staticProvider(), types.SearchOptions{})
	assert.ErrorIs(t, err, types.ErrEmptyQuery)

	_, err = e.SearchInProject(ctx, staticProvider(), types.SearchOptions{Query: "x", Scope: types.ScopeEditor})
	assert.ErrorIs(t, err, ErrEditorScope)

	boom := errors.New("host down")
	_, err = e.SearchInProject(ctx, func(context.Context, types.SearchOptions) ([]types.ExpressionSnapshot, error) {
		return nil, boom
	}, types.SearchOptions{Query: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestSearchInProjectRejectsConcurrentSearch(t *testing.T) {
	e := New()
	release := make(chan struct{})
	started := make(chan struct{})
	blocking := func(context.Context, types.SearchOptions) ([]types.ExpressionSnapshot, error) {
		close(started)
		<-release
		return nil, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := e.SearchInProject(context.Background(), blocking, types.SearchOptions{Query: "x"})
		done <- err
	}()
	<-started

	_, err := e.SearchInProject(context.Background(), staticProvider(), types.SearchOptions{Query: "x"})
	assert.ErrorIs(t, err, ErrSearchInProgress)

	close(release)
	assert.NoError(t, <-done)
}

func TestNavigation(t *testing.T) {
	e := New()
	assert.Nil(t, e.NextResult())
	assert.Nil(t, e.PreviousResult())
	assert.Nil(t, e.CurrentResult())

	_, err := e.SearchInProject(context.Background(), staticProvider(projectSnapshots()...),
		types.SearchOptions{Query: "wiggle", IncludeComments: true})
	require.NoError(t, err)

	assert.Equal(t, "1:Transform/Position", e.CurrentResult().ID)
	assert.Equal(t, "2:Transform/Rotation", e.NextResult().ID)
	assert.Equal(t, "2:#comment/2", e.NextResult().ID)
	assert.Equal(t, "1:Transform/Position", e.NextResult().ID, "wraps forward")
	assert.Equal(t, "2:#comment/2", e.PreviousResult().ID, "wraps backward")
	assert.Equal(t, 2, e.Statistics().CurrentIndex)

	// returned results are copies
	r := e.CurrentResult()
	r.Matches = nil
	assert.NotEmpty(t, e.CurrentResult().Matches)
	assert.NotNil(t, e.Result("2:#comment/2"))
	assert.Nil(t, e.Result("missing"))

	e.ClearResults()
	assert.Nil(t, e.NextResult())
	assert.Empty(t, e.Results())
	assert.Equal(t, types.Statistics{CurrentIndex: -1, Query: "wiggle"}, e.Statistics())
}

func TestOptions(t *testing.T) {
	e := New(WithPatternCacheSize(4))
	e.UpdateOptions(func(o *types.SearchOptions) {
		o.Query = "abc"
		o.MatchCase = true
	})
	opts := e.Options()
	assert.Equal(t, "abc", opts.Query)
	assert.True(t, opts.MatchCase)
	assert.False(t, opts.IsRegex)
}

func TestPatternCacheReuse(t *testing.T) {
	e := New(WithPatternCacheSize(1))
	opts := types.SearchOptions{Query: "abc"}
	e.SearchInEditor("abc", opts)
	first, ok := e.patterns.Get(keyFor(opts))
	require.True(t, ok)

	e.SearchInEditor("abc abc", opts)
	second, _ := e.patterns.Get(keyFor(opts))
	assert.Same(t, first, second)

	e.SearchInEditor("x", types.SearchOptions{Query: "x"})
	_, ok = e.patterns.Get(keyFor(opts))
	assert.False(t, ok, "size-one cache evicts the older pattern")
}
