// Package mcp implements the Model Context Protocol (MCP) server for aebridge.
//
// The server exposes the host bridge and a stateful search session to AI
// assistants. Tools fall into four groups:
//   - Search session: search_project, search_text, next_result,
//     previous_result, current_result, get_statistics, clear_results
//   - Replacement: replace_match, replace_all
//   - Journal: list_replacements, undo_replacement
//   - Direct host access: get_layer_comment, set_layer_comment,
//     get_expression, set_expression, validate_expression, list_layers,
//     connection_status
//
// # Basic Usage
//
// The server is started via the serve command and speaks MCP on stdio:
//
//	aebridge serve --host-url ws://127.0.0.1:8787/bridge
//
// # Tool: search_project
//
//	Request:
//	{
//	  "name": "search_project",
//	  "arguments": {
//	    "query": "wiggle\\((\\d+)",
//	    "is_regex": true,
//	    "include_comments": false
//	  }
//	}
//
//	Response:
//	{
//	  "query": "wiggle\\((\\d+)",
//	  "total_results": 2,
//	  "total_matches": 3,
//	  "duration_ms": 41,
//	  "results": [
//	    {
//	      "id": "4:Transform/Position",
//	      "layer": "Title",
//	      "path": "Transform/Position",
//	      "match_count": 1,
//	      "first_match": {"line": 1, "column": 1, "context": "wiggle(2, 30)"}
//	    }
//	  ]
//	}
//
// Each search replaces the previous session. Navigation tools walk the held
// results circularly, and replace_match / replace_all write through the
// host. Every write is journaled with the text it replaced so
// undo_replacement can restore it.
//
// # Error Handling
//
// Failures are returned as MCPError values carrying a JSON-RPC style code:
//   - -32602: Invalid params
//   - -32603: Internal error
//   - -32001: Host unavailable (CONNECTION_ERROR)
//   - -32002: Host timeout (TIMEOUT)
//   - -32003: Search already in progress
//   - -32004: Empty query
//   - -32005: Search result not found
//   - -32006: Journal entry not found
//   - -32007: Journal disabled
//   - -32008: Host rejected the command
//   - -32009: Undo refused, text changed since the write
//
// A replacement that the host rejects is not a protocol error; it is
// reported in the tool result with success set to false.
//
// # Logging
//
// Stdout is reserved for the protocol. Logs go to stderr or to the log
// directory configured for the serve command.
package mcp
