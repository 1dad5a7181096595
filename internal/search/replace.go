package search

import (
	"context"
	"errors"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/dshills/aebridge/pkg/types"
)

var (
	// ErrNoUpdater is reported when a replacement has nowhere to persist.
	ErrNoUpdater = errors.New("update function is required")
	// ErrStaleMatch is reported when a regex no longer matches at the
	// position a search recorded.
	ErrStaleMatch = errors.New("pattern no longer matches at the recorded position")
)

// ReplaceInEditor replaces every match of sopts in content. Literal searches
// preserve the case of each matched text when ropts.PreserveCase is set;
// regex searches expand $1..$n from the capture groups instead. content is
// never modified; a bad pattern returns it unchanged with zero replacements.
func (e *Engine) ReplaceInEditor(content string, ropts types.ReplaceOptions, sopts types.SearchOptions) (string, int) {
	if sopts.Query == "" {
		return content, 0
	}
	re, err := e.compile(sopts)
	if err != nil {
		e.logger.Warn("invalid replace pattern", "query", sopts.Query, "error", err)
		return content, 0
	}

	count := 0
	out, err := re.ReplaceFunc(content, func(m regexp2.Match) string {
		count++
		if sopts.IsRegex {
			return expandGroups(ropts.ReplaceText, &m)
		}
		if ropts.PreserveCase {
			return PreserveCase(m.String(), ropts.ReplaceText)
		}
		return ropts.ReplaceText
	}, -1, -1)
	if err != nil {
		e.logger.Warn("replace aborted", "query", sopts.Query, "error", err)
		return content, 0
	}
	return out, count
}

// ReplaceInResult rewrites a single match of result and persists the new
// expression through update.
//
// The match is located in the result's own snapshot; live remote text is not
// consulted. Case preservation applies only to literal searches and capture
// groups are not expanded here. An out-of-range matchIndex is a soft failure
// and update is not called.
func (e *Engine) ReplaceInResult(ctx context.Context, result *types.SearchResult, matchIndex int, ropts types.ReplaceOptions, update UpdateFunc) types.ReplaceResult {
	out := types.ReplaceResult{MatchIndex: matchIndex}
	if result == nil || matchIndex < 0 || matchIndex >= len(result.Matches) {
		if result != nil {
			out.SearchResultID = result.ID
		}
		out.Error = InvalidMatchIndex
		return out
	}
	out.SearchResultID = result.ID

	match := result.Matches[matchIndex]
	out.OriginalText = match.MatchText

	replacement := ropts.ReplaceText
	if !e.Options().IsRegex && ropts.PreserveCase {
		replacement = PreserveCase(match.MatchText, replacement)
	}
	out.ReplacedText = replacement

	newExpression, err := spliceMatch(result.Expression, match, replacement)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	if err := e.persist(ctx, result, newExpression, update); err != nil {
		out.Error = err.Error()
		return out
	}
	out.Success = true
	return out
}

// ReplaceAllInResult rewrites every match of result, or only those approved
// by confirm when ropts.ConfirmEach is set, and persists the outcome with a
// single update call. It returns one entry per applied match.
func (e *Engine) ReplaceAllInResult(ctx context.Context, result *types.SearchResult, ropts types.ReplaceOptions, update UpdateFunc, confirm ConfirmFunc) []types.ReplaceResult {
	if result == nil || len(result.Matches) == 0 {
		return nil
	}

	opts := e.Options()
	var re *regexp2.Regexp
	if opts.IsRegex {
		// used only to recover capture groups at each recorded position
		re, _ = e.compile(opts)
	}

	order := make([]int, 0, len(result.Matches))
	for i, m := range result.Matches {
		if ropts.ConfirmEach && confirm != nil && !confirm(result, m) {
			continue
		}
		order = append(order, i)
	}
	if len(order) == 0 {
		return nil
	}
	sortMatchesDescending(order, result.Matches)

	expression := result.Expression
	applied := make([]types.ReplaceResult, 0, len(order))
	var spliceErr error
	for _, idx := range order {
		m := result.Matches[idx]
		var replacement string
		replacement, spliceErr = e.replacementFor(re, m, ropts, opts.IsRegex)
		if spliceErr == nil {
			expression, spliceErr = spliceMatch(expression, m, replacement)
		}
		applied = append(applied, types.ReplaceResult{
			SearchResultID: result.ID,
			MatchIndex:     idx,
			OriginalText:   m.MatchText,
			ReplacedText:   replacement,
		})
		if spliceErr != nil {
			// the whole result is written once, so one bad match fails it
			break
		}
	}

	err := spliceErr
	if err == nil {
		err = e.persist(ctx, result, expression, update)
	}
	for i := range applied {
		applied[i].Success = err == nil
		if err != nil {
			applied[i].Error = err.Error()
		}
	}
	// report in match order
	for i, j := 0, len(applied)-1; i < j; i, j = i+1, j-1 {
		applied[i], applied[j] = applied[j], applied[i]
	}
	return applied
}

// ReplaceAllInProject runs ReplaceAllInResult over every held result, writing
// each through the update function updateFor returns for it. A failure in one
// result does not stop the others.
func (e *Engine) ReplaceAllInProject(ctx context.Context, ropts types.ReplaceOptions, updateFor UpdaterFactory, confirm ConfirmFunc) []types.ReplaceResult {
	var all []types.ReplaceResult
	for _, r := range e.Results() {
		if ctx.Err() != nil {
			break
		}
		var update UpdateFunc
		if updateFor != nil {
			update = updateFor(&r)
		}
		all = append(all, e.ReplaceAllInResult(ctx, &r, ropts, update, confirm)...)
	}
	return all
}

// replacementFor computes the text that replaces m. In regex mode the
// pattern is re-run on m's whole line from the recorded column, so
// lookarounds, anchors and \b see the same context as the original search.
func (e *Engine) replacementFor(re *regexp2.Regexp, m types.SearchMatch, ropts types.ReplaceOptions, isRegex bool) (string, error) {
	if isRegex {
		if re == nil {
			return "", ErrStaleMatch
		}
		start, length := m.StartColumn-1, m.EndColumn-m.StartColumn
		gm, err := re.FindRunesMatchStartingAt([]rune(m.LineText), start)
		if err != nil {
			return "", err
		}
		if gm == nil || gm.Index != start || gm.Length != length {
			return "", ErrStaleMatch
		}
		return expandGroups(ropts.ReplaceText, gm), nil
	}
	if ropts.PreserveCase {
		return PreserveCase(m.MatchText, ropts.ReplaceText), nil
	}
	return ropts.ReplaceText, nil
}

func (e *Engine) persist(ctx context.Context, result *types.SearchResult, newExpression string, update UpdateFunc) error {
	if update == nil {
		return ErrNoUpdater
	}
	if err := update(ctx, result.PropertyPath, newExpression); err != nil {
		e.logger.Error("failed to persist replacement", "result", result.ID, "path", result.PropertyPath, "error", err)
		return err
	}
	e.refresh(result.ID, newExpression)
	return nil
}

// spliceMatch replaces the columns of m on its line with replacement.
func spliceMatch(expression string, m types.SearchMatch, replacement string) (string, error) {
	lines := strings.Split(expression, "\n")
	if m.StartLine < 1 || m.StartLine > len(lines) {
		return "", types.ErrInvalidMatchRange
	}
	idx := m.StartLine - 1
	runes := []rune(lines[idx])
	start, end := m.StartColumn-1, m.EndColumn-1
	if start < 0 || end < start || end > len(runes) {
		return "", types.ErrInvalidMatchRange
	}
	lines[idx] = string(runes[:start]) + replacement + string(runes[end:])
	return strings.Join(lines, "\n"), nil
}
