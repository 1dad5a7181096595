package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dshills/aebridge/pkg/types"
)

// Host operation names understood by the host script.
const (
	OpGetSelectedLayers     = "getSelectedLayers"
	OpGetLayerComment       = "getLayerComment"
	OpSetLayerComment       = "setLayerComment"
	OpGetPropertyExpression = "getPropertyExpression"
	OpSetPropertyExpression = "setPropertyExpression"
	OpValidateExpression    = "validateExpression"
	OpSearchExpressions     = "searchExpressions"
	OpGetAllLayers          = "getAllLayers"
	OpGetLayerProperties    = "getLayerProperties"
	OpGetProjectInfo        = "getProjectInfo"
)

// callJSON issues a call and decodes its payload into T.
func callJSON[T any](ctx context.Context, c *Client, operation string, args ...any) (T, error) {
	var out T
	payload, err := c.Call(ctx, operation, args...)
	if err != nil {
		return out, err
	}
	if len(payload) == 0 || string(payload) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return out, nil
}

// commentPayload is the shape of getLayerComment responses.
type commentPayload struct {
	LayerID int    `json:"layerId"`
	Comment string `json:"comment"`
}

// expressionPayload is the shape of getPropertyExpression responses.
type expressionPayload struct {
	Path       string `json:"path"`
	Expression string `json:"expression"`
}

// GetSelectedLayers returns the layers selected in the active composition.
func (c *Client) GetSelectedLayers(ctx context.Context) ([]types.Layer, error) {
	return callJSON[[]types.Layer](ctx, c, OpGetSelectedLayers)
}

// GetAllLayers returns every layer in the active composition.
func (c *Client) GetAllLayers(ctx context.Context) ([]types.Layer, error) {
	return callJSON[[]types.Layer](ctx, c, OpGetAllLayers)
}

// GetLayerComment returns the comment of layer id.
func (c *Client) GetLayerComment(ctx context.Context, id int) (string, error) {
	p, err := callJSON[commentPayload](ctx, c, OpGetLayerComment, id)
	return p.Comment, err
}

// SetLayerComment replaces the comment of layer id.
func (c *Client) SetLayerComment(ctx context.Context, id int, text string) error {
	_, err := c.Call(ctx, OpSetLayerComment, id, text)
	return err
}

// GetLayerProperties lists the expression-capable properties of layer id.
func (c *Client) GetLayerProperties(ctx context.Context, id int) ([]types.LayerProperty, error) {
	return callJSON[[]types.LayerProperty](ctx, c, OpGetLayerProperties, id)
}

// GetPropertyExpression returns the expression at path.
func (c *Client) GetPropertyExpression(ctx context.Context, path string) (string, error) {
	p, err := callJSON[expressionPayload](ctx, c, OpGetPropertyExpression, path)
	return p.Expression, err
}

// SetPropertyExpression replaces the expression at path.
func (c *Client) SetPropertyExpression(ctx context.Context, path, text string) error {
	_, err := c.Call(ctx, OpSetPropertyExpression, path, text)
	return err
}

// ValidateExpression asks the host to check an expression without applying it.
func (c *Client) ValidateExpression(ctx context.Context, text string) (types.ValidationResult, error) {
	return callJSON[types.ValidationResult](ctx, c, OpValidateExpression, text)
}

// SearchExpressions runs a host-side search and returns the matching snapshots.
func (c *Client) SearchExpressions(ctx context.Context, pattern string, isRegex bool) ([]types.ExpressionSnapshot, error) {
	return callJSON[[]types.ExpressionSnapshot](ctx, c, OpSearchExpressions, pattern, isRegex)
}

// GetProjectInfo describes the open project.
func (c *Client) GetProjectInfo(ctx context.Context) (types.ProjectInfo, error) {
	return callJSON[types.ProjectInfo](ctx, c, OpGetProjectInfo)
}

// GetConnectionStatus infers connectivity from one real read. There is no
// heartbeat; the answer is only true at CheckedAt.
func (c *Client) GetConnectionStatus(ctx context.Context) types.ConnectionStatus {
	status := types.ConnectionStatus{CheckedAt: time.Now()}
	info, err := c.GetProjectInfo(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Connected = true
	status.Project = &info
	return status
}
