package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/aebridge/internal/search"
	"github.com/dshills/aebridge/internal/storage"
	"github.com/dshills/aebridge/pkg/types"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "aebridge dev")
	assert.Contains(t, out.String(), "SQLite Driver: "+storage.DriverName)
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"status", "--host-url", "http://nope", "--no-journal"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host-url")
}

func TestSearchRequiresQuery(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"search"})

	assert.Error(t, cmd.Execute())
}

func TestPrintResults(t *testing.T) {
	results := []types.SearchResult{{
		ID:           "1_ADBE Position",
		LayerName:    "Shape",
		PropertyName: "Position",
		Matches: []types.SearchMatch{
			{StartLine: 1, StartColumn: 1, LineText: "wiggle(2, 30)"},
			{StartLine: 3, StartColumn: 7, LineText: "x = wiggle(1, 1)"},
		},
	}}
	var out bytes.Buffer
	printResults(&out, results, types.Statistics{TotalResults: 1, TotalMatches: 2, Query: "wiggle"})

	assert.Equal(t,
		"Shape › Position [1_ADBE Position]\n"+
			"  1:1  wiggle(2, 30)\n"+
			"  3:7  x = wiggle(1, 1)\n"+
			"2 matches in 1 results for \"wiggle\"\n",
		out.String())
}

func TestSearchReplaceFlags(t *testing.T) {
	cmd := newSearchCommand(&app{})
	for _, name := range []string{"replace", "preserve-case", "confirm"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestConfirmedReplaceAcrossProject(t *testing.T) {
	snaps := []types.ExpressionSnapshot{
		{LayerID: 1, LayerName: "Shape", PropertyName: "Position", PropertyPath: "Transform/Position", Expression: "wiggle(2, 30)"},
		{LayerID: 2, LayerName: "BG", PropertyName: "Rotation", PropertyPath: "Transform/Rotation", Expression: "wiggle(1, 1) + wiggle(3, 3)"},
	}
	engine := search.New()
	_, err := engine.SearchInProject(context.Background(),
		func(context.Context, types.SearchOptions) ([]types.ExpressionSnapshot, error) { return snaps, nil },
		types.SearchOptions{Query: "wiggle"})
	require.NoError(t, err)

	written := map[string]string{}
	updateFor := func(*types.SearchResult) search.UpdateFunc {
		return func(_ context.Context, path, text string) error {
			written[path] = text
			return nil
		}
	}

	var prompts bytes.Buffer
	confirm := promptConfirm(strings.NewReader("y\nno\n"), &prompts)
	outcomes := engine.ReplaceAllInProject(context.Background(),
		types.ReplaceOptions{ReplaceText: "jitter", ReplaceAll: true, ConfirmEach: true}, updateFor, confirm)

	assert.Equal(t, "jitter(2, 30)", written["Transform/Position"])
	_, touched := written["Transform/Rotation"]
	assert.False(t, touched, "declined matches are not written")
	assert.Equal(t, 3, strings.Count(prompts.String(), "replace? [y/N]"), "input ran out on the third match")

	var out bytes.Buffer
	require.NoError(t, printReplacements(&out, outcomes))
	assert.Equal(t, "1 replaced, 0 failed\n", out.String())
}

func TestPrintReplacementsFailure(t *testing.T) {
	var out bytes.Buffer
	err := printReplacements(&out, []types.ReplaceResult{
		{SearchResultID: "1_a", MatchIndex: 0, Success: true},
		{SearchResultID: "2_b", MatchIndex: 1, Error: "host down"},
	})
	require.Error(t, err)
	assert.Equal(t, "failed 2_b[1]: host down\n1 replaced, 1 failed\n", out.String())
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printConnection(&out, types.ConnectionStatus{Error: "dial refused"})
	assert.Equal(t, "Host:        disconnected (dial refused)\n", out.String())

	out.Reset()
	printConnection(&out, types.ConnectionStatus{Connected: true, Project: &types.ProjectInfo{Name: "promo.aep", NumItems: 1200, ActiveComp: "Main"}})
	assert.Contains(t, out.String(), "promo.aep (1,200 items)")
	assert.Contains(t, out.String(), "Active comp: Main")

	out.Reset()
	printJournal(&out, "/tmp/journal.db", &storage.Stats{
		Replacements:      4,
		Failed:            1,
		Reverted:          2,
		Searches:          9,
		SizeBytes:         8192,
		SchemaVersion:     "1.1.0",
		LastReplacementAt: time.Now().Add(-2 * time.Hour),
	})
	assert.Contains(t, out.String(), "8.2 kB")
	assert.Contains(t, out.String(), "4 (1 failed, 2 reverted)")
	assert.Contains(t, out.String(), "2 hours ago")
}
