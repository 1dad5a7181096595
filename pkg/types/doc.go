// Package types provides shared type definitions for the aebridge host bridge
// and expression search engine.
//
// # Host Errors
//
// Every failure surfaced by the bridge is a *CEPError carrying a code, a
// message, optional details and the time it was produced:
//
//	var cepErr *types.CEPError
//	if errors.As(err, &cepErr) && cepErr.Code == types.CodeTimeout {
//	    // host did not answer within the timeout window
//	}
//
// IsTimeout and IsConnectionError cover the two codes the bridge itself
// produces. Any other code was supplied by the host script.
//
// # Search Types
//
// SearchOptions drives a search, SearchMatch locates one hit inside a text
// snapshot, and SearchResult groups the matches found in one snapshot:
//
//	opts := types.SearchOptions{
//	    Query:     "wiggle",
//	    MatchCase: false,
//	    Scope:     types.ScopeProject,
//	}
//
// Lines and columns in SearchMatch are 1-based and measured in runes, so
// EndColumn is always StartColumn plus the rune length of MatchText.
//
// # Host Models
//
// Layer, LayerProperty, ProjectInfo and ValidationResult mirror the JSON
// payloads returned by the host script. ExpressionSnapshot is the unit of
// text the search engine works on; it is a point-in-time copy and may go
// stale relative to the live project.
package types
