package search

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/dshills/aebridge/pkg/types"
)

// matchTimeout bounds a single match attempt so a pathological user pattern
// cannot stall a project-wide search.
const matchTimeout = 2 * time.Second

// patternKey identifies a compiled pattern in the cache.
type patternKey struct {
	query     string
	isRegex   bool
	matchCase bool
	wholeWord bool
}

func keyFor(opts types.SearchOptions) patternKey {
	return patternKey{
		query:     opts.Query,
		isRegex:   opts.IsRegex,
		matchCase: opts.MatchCase,
		wholeWord: opts.MatchWholeWord && !opts.IsRegex,
	}
}

// buildPattern returns the source the options compile to. Literal queries are
// escaped; whole-word wrapping only applies to literals because a regex query
// is used verbatim.
func buildPattern(opts types.SearchOptions) string {
	if opts.IsRegex {
		return opts.Query
	}
	pattern := regexp.QuoteMeta(opts.Query)
	if opts.MatchWholeWord {
		pattern = `\b` + pattern + `\b`
	}
	return pattern
}

// compilePattern compiles options with ECMAScript semantics so user patterns
// behave as they do in the host's expression engine.
func compilePattern(opts types.SearchOptions) (*regexp2.Regexp, error) {
	flags := regexp2.RegexOptions(regexp2.ECMAScript)
	if !opts.MatchCase {
		flags |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(buildPattern(opts), flags)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// expandGroups substitutes $1..$99 in template with the groups of m. "$$"
// yields a literal dollar sign and references to missing groups are left as
// written.
func expandGroups(template string, m *regexp2.Match) string {
	if !strings.Contains(template, "$") || m == nil {
		return template
	}
	groupCount := len(m.Groups()) - 1

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 >= len(template) {
			b.WriteByte(c)
			continue
		}
		next := template[i+1]
		if next == '$' {
			b.WriteByte('$')
			i++
			continue
		}
		if !isDigit(next) {
			b.WriteByte(c)
			continue
		}

		// prefer a two-digit reference when that group exists
		if i+2 < len(template) && isDigit(template[i+2]) {
			n, _ := strconv.Atoi(template[i+1 : i+3])
			if n >= 1 && n <= groupCount {
				b.WriteString(groupText(m, n))
				i += 2
				continue
			}
		}
		n := int(next - '0')
		if n >= 1 && n <= groupCount {
			b.WriteString(groupText(m, n))
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func groupText(m *regexp2.Match, n int) string {
	g := m.GroupByNumber(n)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
