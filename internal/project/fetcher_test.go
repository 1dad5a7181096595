package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/aebridge/internal/bridge"
	"github.com/dshills/aebridge/internal/search"
	"github.com/dshills/aebridge/pkg/types"
)

func fastRetry() bridge.RetryPolicy {
	return bridge.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
}

func paths(snaps []types.ExpressionSnapshot) []string {
	var out []string
	for _, s := range snaps {
		out = append(out, s.PropertyPath)
	}
	return out
}

func TestCommentPath(t *testing.T) {
	assert.Equal(t, "#comment/12", CommentPath(12))

	id, ok := ParseCommentPath("#comment/12")
	assert.True(t, ok)
	assert.Equal(t, 12, id)

	for _, p := range []string{"L1/Transform/Position", "#comment/", "#comment/x", "comment/1"} {
		_, ok := ParseCommentPath(p)
		assert.False(t, ok, p)
	}
}

func TestSnapshotsExpressionsOnly(t *testing.T) {
	f := NewFetcher(newFakeHost(), WithRetryPolicy(fastRetry()))

	snaps, err := f.Snapshots(context.Background(), types.SearchOptions{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"L1/Transform/Position", "L2/Transform/Rotation"}, paths(snaps))
	assert.Equal(t, "Title", snaps[0].LayerName)
	assert.Equal(t, "Position", snaps[0].PropertyName)
	assert.Equal(t, types.ResultExpression, snaps[0].Type)
}

func TestSnapshotsIncludeComments(t *testing.T) {
	f := NewFetcher(newFakeHost(), WithRetryPolicy(fastRetry()), WithConcurrency(1))

	snaps, err := f.Snapshots(context.Background(), types.SearchOptions{Query: "x", IncludeComments: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"L1/Transform/Position", "#comment/1", "L2/Transform/Rotation"}, paths(snaps),
		"empty comments are skipped")
	assert.Equal(t, types.ResultComment, snaps[1].Type)
	assert.Equal(t, "main title", snaps[1].Expression)
}

func TestSnapshotsSelectedScope(t *testing.T) {
	f := NewFetcher(newFakeHost(), WithRetryPolicy(fastRetry()))

	snaps, err := f.Snapshots(context.Background(), types.SearchOptions{Query: "x", Scope: types.ScopeSelected})
	require.NoError(t, err)
	assert.Equal(t, []string{"L2/Transform/Rotation"}, paths(snaps))
}

func TestSnapshotsNotes(t *testing.T) {
	notes := NotesFunc(func(context.Context) ([]types.ExpressionSnapshot, error) {
		return []types.ExpressionSnapshot{{PropertyPath: "note:1", Expression: "todo: wiggle"}}, nil
	})
	f := NewFetcher(newFakeHost(), WithRetryPolicy(fastRetry()), WithNotes(notes))

	snaps, err := f.Snapshots(context.Background(), types.SearchOptions{Query: "x"})
	require.NoError(t, err)
	assert.Len(t, snaps, 2, "notes only when requested")

	snaps, err = f.Snapshots(context.Background(), types.SearchOptions{Query: "x", IncludeNotes: true})
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, types.ResultNote, snaps[2].Type)
}

func TestLayersRetry(t *testing.T) {
	host := newFakeHost()
	host.listFailures.Store(2)
	f := NewFetcher(host, WithRetryPolicy(fastRetry()))

	layers, err := f.Layers(context.Background(), types.ScopeProject)
	require.NoError(t, err)
	assert.Len(t, layers, 3)
	assert.Equal(t, int32(3), host.listCalls.Load())

	host.listFailures.Store(3)
	host.listCalls.Store(0)
	_, err = f.Layers(context.Background(), types.ScopeProject)
	assert.ErrorIs(t, err, errHostDown)
	assert.Equal(t, int32(3), host.listCalls.Load())
}

func TestFetcherFeedsSearchEngine(t *testing.T) {
	f := NewFetcher(newFakeHost(), WithRetryPolicy(fastRetry()))
	engine := search.New()

	results, err := engine.SearchInProject(context.Background(), f.Snapshots,
		types.SearchOptions{Query: "title", IncludeComments: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1:#comment/1", results[0].ID)
	assert.Equal(t, types.ResultComment, results[0].Type)
}
