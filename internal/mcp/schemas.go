package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func boolProp(description string, def bool) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": description,
		"default":     def,
	}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// searchOptionProperties are shared by the search tools.
func searchOptionProperties() map[string]interface{} {
	return map[string]interface{}{
		"query":            stringProp("Text or pattern to find"),
		"is_regex":         boolProp("Treat query as an ECMAScript regular expression", false),
		"match_case":       boolProp("Match letter case exactly", false),
		"match_whole_word": boolProp("Only match whole words (ignored for regex queries)", false),
	}
}

// searchProjectTool returns the tool definition for search_project
func searchProjectTool() mcp.Tool {
	props := searchOptionProperties()
	props["include_comments"] = boolProp("Also search layer comments", false)
	props["include_notes"] = boolProp("Also search project notes", false)
	props["scope"] = map[string]interface{}{
		"type":        "string",
		"description": "Which layers to search",
		"enum":        []string{"project", "selected"},
		"default":     "project",
	}
	props["limit"] = map[string]interface{}{
		"type":        "integer",
		"description": "Maximum number of results to list in the response (1-500)",
		"default":     DefaultResultLimit,
		"minimum":     1,
		"maximum":     500,
	}
	return mcp.Tool{
		Name:        "search_project",
		Description: "Search expressions across the open project and start a new result session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"query"},
		},
	}
}

// searchTextTool returns the tool definition for search_text
func searchTextTool() mcp.Tool {
	props := searchOptionProperties()
	props["content"] = stringProp("Expression text to search")
	props["replace_text"] = stringProp("When set, replace every match and return the rewritten content")
	props["preserve_case"] = boolProp("Match the case of each replaced literal", false)
	return mcp.Tool{
		Name:        "search_text",
		Description: "Search or rewrite a piece of expression text locally without touching the project",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"content", "query"},
		},
	}
}

// navigationTool returns a parameterless result navigation tool
func navigationTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getStatisticsTool returns the tool definition for get_statistics
func getStatisticsTool() mcp.Tool {
	return navigationTool("get_statistics", "Summarise the current result session and the replacement journal")
}

// clearResultsTool returns the tool definition for clear_results
func clearResultsTool() mcp.Tool {
	return navigationTool("clear_results", "Drop the current search results")
}

// replaceMatchTool returns the tool definition for replace_match
func replaceMatchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "replace_match",
		Description: "Replace one match of a search result and write it back to the project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"result_id":     stringProp("Search result id; defaults to the current result"),
				"match_index":   intProp("Zero-based index of the match within the result"),
				"replace_text":  stringProp("Replacement text"),
				"preserve_case": boolProp("Match the case of the replaced literal", false),
			},
			Required: []string{"match_index", "replace_text"},
		},
	}
}

// replaceAllTool returns the tool definition for replace_all
func replaceAllTool() mcp.Tool {
	return mcp.Tool{
		Name:        "replace_all",
		Description: "Replace every match in one result, or in every result of the session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"result_id":     stringProp("Limit to one search result; omit for the whole session"),
				"replace_text":  stringProp("Replacement text; $1..$n expand capture groups for regex searches"),
				"preserve_case": boolProp("Match the case of each replaced literal", false),
			},
			Required: []string{"replace_text"},
		},
	}
}

// listReplacementsTool returns the tool definition for list_replacements
func listReplacementsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_replacements",
		Description: "List journaled writes, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of entries (1-500)",
					"default":     20,
					"minimum":     1,
					"maximum":     500,
				},
			},
		},
	}
}

// undoReplacementTool returns the tool definition for undo_replacement
func undoReplacementTool() mcp.Tool {
	return mcp.Tool{
		Name:        "undo_replacement",
		Description: "Restore the text a journaled write replaced",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id":    intProp("Journal entry id from list_replacements"),
				"force": boolProp("Restore even if the text changed after the write", false),
			},
			Required: []string{"id"},
		},
	}
}

// getLayerCommentTool returns the tool definition for get_layer_comment
func getLayerCommentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_layer_comment",
		Description: "Read the comment of a layer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layer_id": intProp("Layer id"),
			},
			Required: []string{"layer_id"},
		},
	}
}

// setLayerCommentTool returns the tool definition for set_layer_comment
func setLayerCommentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "set_layer_comment",
		Description: "Replace the comment of a layer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layer_id": intProp("Layer id"),
				"comment":  stringProp("New comment text"),
			},
			Required: []string{"layer_id", "comment"},
		},
	}
}

// getExpressionTool returns the tool definition for get_expression
func getExpressionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_expression",
		Description: "Read the expression of a property",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": stringProp("Property path as returned by search results"),
			},
			Required: []string{"path"},
		},
	}
}

// setExpressionTool returns the tool definition for set_expression
func setExpressionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "set_expression",
		Description: "Replace the expression of a property",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":       stringProp("Property path"),
				"expression": stringProp("New expression text"),
				"validate":   boolProp("Check the expression with the host before writing", true),
			},
			Required: []string{"path", "expression"},
		},
	}
}

// validateExpressionTool returns the tool definition for validate_expression
func validateExpressionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "validate_expression",
		Description: "Ask the host whether an expression compiles, without applying it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"expression": stringProp("Expression text"),
			},
			Required: []string{"expression"},
		},
	}
}

// listLayersTool returns the tool definition for list_layers
func listLayersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_layers",
		Description: "List layers of the active composition",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "All layers or only the selected ones",
					"enum":        []string{"project", "selected"},
					"default":     "project",
				},
			},
		},
	}
}

// connectionStatusTool returns the tool definition for connection_status
func connectionStatusTool() mcp.Tool {
	return navigationTool("connection_status", "Check whether the host answers and describe the open project")
}
