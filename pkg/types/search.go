package types

// SearchScope selects which remote text a project search fetches.
type SearchScope string

const (
	ScopeProject  SearchScope = "project"  // every layer in the active project
	ScopeSelected SearchScope = "selected" // selected layers only
	ScopeEditor   SearchScope = "editor"   // local editor content, no fetch
)

// Valid reports whether s is a known scope. The empty scope is treated as project.
func (s SearchScope) Valid() bool {
	switch s {
	case "", ScopeProject, ScopeSelected, ScopeEditor:
		return true
	}
	return false
}

// ResultType identifies what kind of text a snapshot holds.
type ResultType string

const (
	ResultExpression ResultType = "expression"
	ResultComment    ResultType = "comment"
	ResultNote       ResultType = "note"
)

// SearchOptions controls pattern compilation and snapshot filtering.
type SearchOptions struct {
	Query           string      `json:"query"`
	IsRegex         bool        `json:"isRegex"`
	MatchCase       bool        `json:"matchCase"`
	MatchWholeWord  bool        `json:"matchWholeWord"`
	IncludeComments bool        `json:"includeComments"`
	IncludeNotes    bool        `json:"includeNotes"`
	Scope           SearchScope `json:"searchScope"`
}

// Validate checks the options before a project search.
func (o SearchOptions) Validate() error {
	if o.Query == "" {
		return ErrEmptyQuery
	}
	if !o.Scope.Valid() {
		return ErrInvalidScope
	}
	return nil
}

// SearchMatch locates a single hit inside a snapshot.
type SearchMatch struct {
	StartLine     int    `json:"startLine"`
	StartColumn   int    `json:"startColumn"`
	EndLine       int    `json:"endLine"`
	EndColumn     int    `json:"endColumn"`
	MatchText     string `json:"matchText"`
	ContextBefore string `json:"contextBefore"`
	ContextAfter  string `json:"contextAfter"`
	LineText      string `json:"lineText"`
}

// SearchResult groups the matches found in one snapshot. Matches are only
// valid against Expression as it was when fetched.
type SearchResult struct {
	ID           string        `json:"id"`
	LayerName    string        `json:"layerName"`
	LayerID      int           `json:"layerId"`
	PropertyName string        `json:"propertyName"`
	PropertyPath string        `json:"propertyPath"`
	Expression   string        `json:"expression"`
	Matches      []SearchMatch `json:"matches"`
	Type         ResultType    `json:"type"`
}

// Clone returns a deep copy so callers cannot alias engine state.
func (r *SearchResult) Clone() *SearchResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Matches = append([]SearchMatch(nil), r.Matches...)
	return &c
}

// ReplaceOptions controls how a replacement is applied.
type ReplaceOptions struct {
	ReplaceText  string `json:"replaceText"`
	ReplaceAll   bool   `json:"replaceAll"`
	ConfirmEach  bool   `json:"confirmEach"`
	PreserveCase bool   `json:"preserveCase"`
}

// ReplaceResult reports the outcome of one targeted replacement.
type ReplaceResult struct {
	SearchResultID string `json:"searchResultId"`
	MatchIndex     int    `json:"matchIndex"`
	OriginalText   string `json:"originalText"`
	ReplacedText   string `json:"replacedText"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// Statistics summarises the result set currently held by a search engine.
type Statistics struct {
	TotalResults int    `json:"totalResults"`
	TotalMatches int    `json:"totalMatches"`
	CurrentIndex int    `json:"currentIndex"`
	Query        string `json:"query"`
}
