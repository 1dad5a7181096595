package types

import "time"

// Layer is a layer in the active composition as reported by the host.
type Layer struct {
	ID       int    `json:"id"`
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Comment  string `json:"comment"`
	Type     string `json:"type,omitempty"`
	CompName string `json:"compName,omitempty"`
}

// LayerProperty is an animatable property that may carry an expression.
type LayerProperty struct {
	Name          string `json:"name"`
	Path          string `json:"path"`
	Expression    string `json:"expression"`
	HasExpression bool   `json:"hasExpression"`
	Enabled       bool   `json:"expressionEnabled"`
}

// ProjectInfo describes the open project.
type ProjectInfo struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	NumItems   int    `json:"numItems"`
	ActiveComp string `json:"activeComp,omitempty"`
	Version    string `json:"version,omitempty"`
}

// ValidationResult is the host's verdict on an expression.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	Line  int    `json:"line,omitempty"`
}

// ConnectionStatus is a point-in-time inference from one real read call.
type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
	// Project is what the check read from the host; nil when disconnected.
	Project *ProjectInfo `json:"project,omitempty"`
}

// ExpressionSnapshot is a copy of remote text taken at fetch time.
type ExpressionSnapshot struct {
	LayerID      int        `json:"layerId"`
	LayerName    string     `json:"layerName"`
	PropertyName string     `json:"propertyName"`
	PropertyPath string     `json:"propertyPath"`
	Expression   string     `json:"expression"`
	Type         ResultType `json:"type"`
}
