package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/aebridge/internal/project"
	"github.com/dshills/aebridge/internal/search"
	"github.com/dshills/aebridge/internal/storage"
	"github.com/dshills/aebridge/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeHostUnavailable   = -32001 // The host did not accept or answer the command
	ErrorCodeHostTimeout       = -32002 // The host did not answer in time
	ErrorCodeSearchInProgress  = -32003 // Another project search is already running
	ErrorCodeEmptyQuery        = -32004 // Query parameter is empty
	ErrorCodeResultNotFound    = -32005 // No such search result in the session
	ErrorCodeJournalNotFound   = -32006 // No such journal entry
	ErrorCodeJournalDisabled   = -32007 // Server runs without a journal
	ErrorCodeHostRejected      = -32008 // The host reported an error for the command
	ErrorCodeModifiedSinceEdit = -32009 // Undo refused because the text changed
)

// DefaultResultLimit caps the results listed by search_project.
const DefaultResultLimit = 50

// handleSearchProject handles the search_project tool invocation
func (s *Server) handleSearchProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	opts, err := searchOptionsFromArgs(args)
	if err != nil {
		return nil, err
	}
	opts.IncludeComments = getBoolDefault(args, "include_comments", false)
	opts.IncludeNotes = getBoolDefault(args, "include_notes", false)
	opts.Scope = types.SearchScope(getStringDefault(args, "scope", string(types.ScopeProject)))
	if opts.Scope != types.ScopeProject && opts.Scope != types.ScopeSelected {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid scope", map[string]interface{}{
			"param":   "scope",
			"value":   opts.Scope,
			"allowed": []string{"project", "selected"},
		})
	}

	limit := getIntDefault(args, "limit", DefaultResultLimit)
	if limit < 1 || limit > 500 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 500", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	results, err := s.engine.SearchInProject(ctx, s.fetcher.Snapshots, opts)
	if errors.Is(err, search.ErrSearchInProgress) {
		return nil, newMCPError(ErrorCodeSearchInProgress, "a project search is already running", nil)
	}
	if err != nil {
		return nil, hostError("search failed", err)
	}

	stats := s.engine.Statistics()
	_, took := s.engine.LastSearch()
	s.recordSearch(ctx, opts, stats, took)

	listed := make([]map[string]interface{}, 0, min(limit, len(results)))
	for i, r := range results {
		if i >= limit {
			break
		}
		listed = append(listed, summarizeResult(r))
	}

	response := map[string]interface{}{
		"query":         opts.Query,
		"total_results": stats.TotalResults,
		"total_matches": stats.TotalMatches,
		"duration_ms":   took.Milliseconds(),
		"results":       listed,
	}
	if len(results) > limit {
		response["truncated"] = true
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// recordSearch adds a completed search to the history. Failures are logged only.
func (s *Server) recordSearch(ctx context.Context, opts types.SearchOptions, stats types.Statistics, took time.Duration) {
	if s.storage == nil {
		return
	}
	rec := &storage.SearchRecord{
		Query:       opts.Query,
		IsRegex:     opts.IsRegex,
		MatchCase:   opts.MatchCase,
		WholeWord:   opts.MatchWholeWord,
		Scope:       string(opts.Scope),
		ResultCount: stats.TotalResults,
		MatchCount:  stats.TotalMatches,
		Duration:    took,
	}
	if err := s.storage.RecordSearch(ctx, rec); err != nil {
		s.logger.Warn("failed to record search", "query", opts.Query, "error", err)
	}
}

// handleSearchText handles the search_text tool invocation
func (s *Server) handleSearchText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	content, ok := args["content"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "content parameter is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing",
		})
	}
	opts, err := searchOptionsFromArgs(args)
	if err != nil {
		return nil, err
	}

	if replaceText, ok := args["replace_text"].(string); ok {
		ropts := types.ReplaceOptions{
			ReplaceText:  replaceText,
			ReplaceAll:   true,
			PreserveCase: getBoolDefault(args, "preserve_case", false),
		}
		out, n := s.engine.ReplaceInEditor(content, ropts, opts)
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"content":      out,
			"replacements": n,
		})), nil
	}

	matches := s.engine.SearchInEditor(content, opts)
	if matches == nil {
		matches = []types.SearchMatch{}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":   len(matches),
		"matches": matches,
	})), nil
}

func (s *Server) handleNextResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return resultResponse(s.engine.NextResult(), s.engine.Statistics()), nil
}

func (s *Server) handlePreviousResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return resultResponse(s.engine.PreviousResult(), s.engine.Statistics()), nil
}

func (s *Server) handleCurrentResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return resultResponse(s.engine.CurrentResult(), s.engine.Statistics()), nil
}

func resultResponse(r *types.SearchResult, stats types.Statistics) *mcp.CallToolResult {
	if r == nil {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"result":  nil,
			"message": "No search results. Use search_project first.",
		}))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"position": fmt.Sprintf("%d of %d", stats.CurrentIndex+1, stats.TotalResults),
		"result":   r,
	}))
}

// handleGetStatistics handles the get_statistics tool invocation
func (s *Server) handleGetStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.engine.Statistics()
	response := map[string]interface{}{
		"query":         stats.Query,
		"total_results": stats.TotalResults,
		"total_matches": stats.TotalMatches,
		"current_index": stats.CurrentIndex,
	}
	if at, took := s.engine.LastSearch(); !at.IsZero() {
		response["last_search"] = humanize.Time(at)
		response["last_search_duration"] = took.String()
	}

	if s.storage != nil {
		js, err := s.storage.GetStats(ctx)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to read journal", map[string]interface{}{
				"error": err.Error(),
			})
		}
		journal := map[string]interface{}{
			"replacements":   js.Replacements,
			"failed":         js.Failed,
			"reverted":       js.Reverted,
			"searches":       js.Searches,
			"size":           humanize.Bytes(uint64(js.SizeBytes)),
			"schema_version": js.SchemaVersion,
		}
		if !js.LastReplacementAt.IsZero() {
			journal["last_replacement"] = humanize.Time(js.LastReplacementAt)
		}
		response["journal"] = journal
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClearResults handles the clear_results tool invocation
func (s *Server) handleClearResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engine.ClearResults()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"cleared": true})), nil
}

// targetResult resolves result_id, falling back to the current result.
func (s *Server) targetResult(args map[string]interface{}) (*types.SearchResult, error) {
	if id := getStringDefault(args, "result_id", ""); id != "" {
		r := s.engine.Result(id)
		if r == nil {
			return nil, newMCPError(ErrorCodeResultNotFound, "search result not found", map[string]interface{}{
				"param": "result_id",
				"value": id,
			})
		}
		return r, nil
	}
	r := s.engine.CurrentResult()
	if r == nil {
		return nil, newMCPError(ErrorCodeResultNotFound, "no current search result", nil)
	}
	return r, nil
}

// handleReplaceMatch handles the replace_match tool invocation
func (s *Server) handleReplaceMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	replaceText, ok := args["replace_text"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "replace_text parameter is required", map[string]interface{}{
			"param":  "replace_text",
			"reason": "missing",
		})
	}
	if _, ok := args["match_index"]; !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "match_index parameter is required", map[string]interface{}{
			"param":  "match_index",
			"reason": "missing",
		})
	}
	matchIndex := getIntDefault(args, "match_index", -1)

	result, err := s.targetResult(args)
	if err != nil {
		return nil, err
	}

	ropts := types.ReplaceOptions{
		ReplaceText:  replaceText,
		PreserveCase: getBoolDefault(args, "preserve_case", false),
	}
	out := s.engine.ReplaceInResult(ctx, result, matchIndex, ropts, s.updater.For(result, s.engine.Options().Query))
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"success":          out.Success,
		"search_result_id": out.SearchResultID,
		"match_index":      out.MatchIndex,
		"original_text":    out.OriginalText,
		"replaced_text":    out.ReplacedText,
		"error":            out.Error,
		"remaining":        s.engine.Statistics(),
	})), nil
}

// handleReplaceAll handles the replace_all tool invocation
func (s *Server) handleReplaceAll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	replaceText, ok := args["replace_text"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "replace_text parameter is required", map[string]interface{}{
			"param":  "replace_text",
			"reason": "missing",
		})
	}
	ropts := types.ReplaceOptions{
		ReplaceText:  replaceText,
		ReplaceAll:   true,
		PreserveCase: getBoolDefault(args, "preserve_case", false),
	}
	query := s.engine.Options().Query

	var outcomes []types.ReplaceResult
	if id := getStringDefault(args, "result_id", ""); id != "" {
		result, err := s.targetResult(args)
		if err != nil {
			return nil, err
		}
		outcomes = s.engine.ReplaceAllInResult(ctx, result, ropts, s.updater.For(result, query), nil)
	} else {
		if s.engine.Statistics().TotalResults == 0 {
			return nil, newMCPError(ErrorCodeResultNotFound, "no search results to replace", nil)
		}
		outcomes = s.engine.ReplaceAllInProject(ctx, ropts, func(r *types.SearchResult) search.UpdateFunc {
			return s.updater.For(r, query)
		}, nil)
	}

	replaced, failed := 0, 0
	var errs []string
	for _, o := range outcomes {
		if o.Success {
			replaced++
			continue
		}
		failed++
		if len(errs) < 5 {
			errs = append(errs, fmt.Sprintf("%s[%d]: %s", o.SearchResultID, o.MatchIndex, o.Error))
		}
	}

	response := map[string]interface{}{
		"replaced":  replaced,
		"failed":    failed,
		"remaining": s.engine.Statistics(),
	}
	if len(errs) > 0 {
		response["errors"] = errs
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListReplacements handles the list_replacements tool invocation
func (s *Server) handleListReplacements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.storage == nil {
		return nil, newMCPError(ErrorCodeJournalDisabled, "journal is disabled", nil)
	}
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 500 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 500", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	list, err := s.storage.ListReplacements(ctx, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list replacements", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries := make([]map[string]interface{}, 0, len(list))
	for _, r := range list {
		entry := map[string]interface{}{
			"id":       r.ID,
			"path":     r.PropertyPath,
			"kind":     r.Kind,
			"layer_id": r.LayerID,
			"before":   r.Before,
			"after":    r.After,
			"success":  r.Success,
			"reverted": r.Reverted,
			"when":     humanize.Time(r.CreatedAt),
		}
		if r.ResultID != "" {
			entry["result_id"] = r.ResultID
		}
		if r.Query != "" {
			entry["query"] = r.Query
		}
		if r.Error != "" {
			entry["error"] = r.Error
		}
		entries = append(entries, entry)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":        len(entries),
		"replacements": entries,
	})), nil
}

// handleUndoReplacement handles the undo_replacement tool invocation
func (s *Server) handleUndoReplacement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.storage == nil {
		return nil, newMCPError(ErrorCodeJournalDisabled, "journal is disabled", nil)
	}
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	id := getIntDefault(args, "id", 0)
	if id < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or not positive",
		})
	}

	undo, err := s.updater.Undo(ctx, int64(id), getBoolDefault(args, "force", false))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, newMCPError(ErrorCodeJournalNotFound, "journal entry not found", map[string]interface{}{"id": id})
	case errors.Is(err, project.ErrModifiedSinceWrite):
		return nil, newMCPError(ErrorCodeModifiedSinceEdit, "text changed since the replacement; pass force to restore anyway", map[string]interface{}{"id": id})
	case errors.Is(err, storage.ErrAlreadyReverted), errors.Is(err, project.ErrNotUndoable):
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), map[string]interface{}{"id": id})
	case err != nil:
		return nil, hostError("undo failed", err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"reverted":   id,
		"journal_id": undo.ID,
		"path":       undo.PropertyPath,
		"restored":   undo.After,
	})), nil
}

// handleGetLayerComment handles the get_layer_comment tool invocation
func (s *Server) handleGetLayerComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	layerID, err := requireInt(args, "layer_id")
	if err != nil {
		return nil, err
	}
	comment, err := s.bridge.GetLayerComment(ctx, layerID)
	if err != nil {
		return nil, hostError("failed to read comment", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"layer_id": layerID,
		"comment":  comment,
	})), nil
}

// handleSetLayerComment handles the set_layer_comment tool invocation
func (s *Server) handleSetLayerComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	layerID, err := requireInt(args, "layer_id")
	if err != nil {
		return nil, err
	}
	comment, ok := args["comment"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "comment parameter is required", map[string]interface{}{
			"param":  "comment",
			"reason": "missing",
		})
	}
	if err := s.updater.Update(ctx, project.CommentPath(layerID), comment); err != nil {
		return nil, hostError("failed to write comment", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"layer_id": layerID,
		"updated":  true,
	})), nil
}

// handleGetExpression handles the get_expression tool invocation
func (s *Server) handleGetExpression(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	expr, err := s.bridge.GetPropertyExpression(ctx, path)
	if err != nil {
		return nil, hostError("failed to read expression", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"path":       path,
		"expression": expr,
	})), nil
}

// handleSetExpression handles the set_expression tool invocation
func (s *Server) handleSetExpression(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	expr, ok := args["expression"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "expression parameter is required", map[string]interface{}{
			"param":  "expression",
			"reason": "missing",
		})
	}

	if getBoolDefault(args, "validate", true) && expr != "" {
		v, err := s.bridge.ValidateExpression(ctx, expr)
		if err != nil {
			return nil, hostError("validation failed", err)
		}
		if !v.Valid {
			return mcp.NewToolResultText(formatJSON(map[string]interface{}{
				"path":    path,
				"updated": false,
				"error":   v.Error,
				"line":    v.Line,
			})), nil
		}
	}

	if err := s.updater.Update(ctx, path, expr); err != nil {
		return nil, hostError("failed to write expression", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"path":    path,
		"updated": true,
	})), nil
}

// handleValidateExpression handles the validate_expression tool invocation
func (s *Server) handleValidateExpression(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	expr, err := requireString(args, "expression")
	if err != nil {
		return nil, err
	}
	v, err := s.bridge.ValidateExpression(ctx, expr)
	if err != nil {
		return nil, hostError("validation failed", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"valid": v.Valid,
		"error": v.Error,
		"line":  v.Line,
	})), nil
}

// handleListLayers handles the list_layers tool invocation
func (s *Server) handleListLayers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	scope := types.SearchScope(getStringDefault(args, "scope", string(types.ScopeProject)))
	if scope != types.ScopeProject && scope != types.ScopeSelected {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid scope", map[string]interface{}{
			"param":   "scope",
			"value":   scope,
			"allowed": []string{"project", "selected"},
		})
	}
	layers, err := s.fetcher.Layers(ctx, scope)
	if err != nil {
		return nil, hostError("failed to list layers", err)
	}
	if layers == nil {
		layers = []types.Layer{}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":  len(layers),
		"layers": layers,
	})), nil
}

// handleConnectionStatus handles the connection_status tool invocation
func (s *Server) handleConnectionStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.bridge.GetConnectionStatus(ctx)
	response := map[string]interface{}{
		"connected":        status.Connected,
		"checked_at":       status.CheckedAt.Format(time.RFC3339),
		"pending_requests": s.bridge.Pending(),
		"server_started":   humanize.Time(s.startedAt),
	}
	if status.Error != "" {
		response["error"] = status.Error
	}
	if status.Project != nil {
		response["project"] = status.Project
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// summarizeResult is the compact form of a result listed by search_project.
func summarizeResult(r types.SearchResult) map[string]interface{} {
	out := map[string]interface{}{
		"id":          r.ID,
		"layer":       r.LayerName,
		"layer_id":    r.LayerID,
		"property":    r.PropertyName,
		"path":        r.PropertyPath,
		"type":        r.Type,
		"match_count": len(r.Matches),
	}
	if len(r.Matches) > 0 {
		m := r.Matches[0]
		out["first_match"] = map[string]interface{}{
			"line":    m.StartLine,
			"column":  m.StartColumn,
			"context": m.ContextBefore + m.MatchText + m.ContextAfter,
		}
	}
	return out
}

// searchOptionsFromArgs reads the shared search parameters.
func searchOptionsFromArgs(args map[string]interface{}) (types.SearchOptions, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return types.SearchOptions{}, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	return types.SearchOptions{
		Query:          query,
		IsRegex:        getBoolDefault(args, "is_regex", false),
		MatchCase:      getBoolDefault(args, "match_case", false),
		MatchWholeWord: getBoolDefault(args, "match_whole_word", false),
	}, nil
}

// hostError maps bridge failures onto MCP error codes.
func hostError(message string, err error) error {
	data := map[string]interface{}{"error": err.Error()}
	var cepErr *types.CEPError
	if errors.As(err, &cepErr) {
		data["code"] = cepErr.Code
		switch {
		case types.IsTimeout(err):
			return newMCPError(ErrorCodeHostTimeout, message, data)
		case types.IsConnectionError(err):
			return newMCPError(ErrorCodeHostUnavailable, message, data)
		default:
			return newMCPError(ErrorCodeHostRejected, message, data)
		}
	}
	return newMCPError(ErrorCodeInternalError, message, data)
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// arguments extracts the argument map, treating absent arguments as empty.
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// requireString extracts a non-empty string parameter
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// requireInt extracts an integer parameter that must be present
func requireInt(args map[string]interface{}, key string) (int, error) {
	if _, ok := args[key]; !ok {
		return 0, newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing",
		})
	}
	switch args[key].(type) {
	case float64, int:
		return getIntDefault(args, key, 0), nil
	}
	return 0, newMCPError(ErrorCodeInvalidParams, key+" must be an integer", map[string]interface{}{
		"param": key,
		"value": args[key],
	})
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
