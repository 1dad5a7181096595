// Package search implements the expression search-and-replace engine.
//
// The engine searches text snapshots fetched from the host and keeps the
// results as a navigable session. Replacements are persisted through a
// caller-supplied UpdateFunc, so the engine never talks to the host itself.
//
// # Basic Usage
//
//	engine := search.New()
//
//	results, err := engine.SearchInProject(ctx, fetcher.Snapshots, types.SearchOptions{
//	    Query: "wiggle",
//	    Scope: types.ScopeProject,
//	})
//
//	for r := engine.CurrentResult(); r != nil; r = engine.NextResult() {
//	    // circular; stop after len(results) steps
//	}
//
// # Patterns
//
// Patterns use ECMAScript semantics (github.com/dlclark/regexp2) so that user
// regexes behave as they do inside After Effects expressions. Literal queries
// are escaped; MatchWholeWord wraps a literal in \b and is ignored for regex
// queries. Matching is case-insensitive unless MatchCase is set. A pattern
// that fails to compile produces zero matches, never an error.
//
// # Positions
//
// Matches are found line by line. Lines and columns are 1-based rune offsets
// and a match never spans lines. Offsets refer to the snapshot taken at fetch
// time; the engine does not recheck live text before replacing, so a result
// can be stale if the project changed in between.
//
// # Replacement
//
// ReplaceInEditor rewrites a whole string. ReplaceInResult rewrites one match
// in a held result and calls the UpdateFunc with the full new expression:
//
//	res := engine.ReplaceInResult(ctx, result, 0, types.ReplaceOptions{
//	    ReplaceText:  "wiggle2",
//	    PreserveCase: true,
//	}, updater.Update)
//	if !res.Success {
//	    log.Printf("replace failed: %s", res.Error)
//	}
//
// After a successful write the held copy of that result is rebuilt from the
// text just written; results with no remaining matches are dropped.
//
// ReplaceAllInProject takes an UpdaterFactory so each result can be written
// through its own UpdateFunc. In regex mode $1..$n are expanded by re-running
// the pattern on the match's line at its recorded column; a pattern that no
// longer matches there fails the result with ErrStaleMatch.
package search
