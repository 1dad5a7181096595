package project

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/aebridge/pkg/types"
)

// Host is the subset of the bridge client the adapter drives.
// *bridge.Client satisfies it.
type Host interface {
	GetAllLayers(ctx context.Context) ([]types.Layer, error)
	GetSelectedLayers(ctx context.Context) ([]types.Layer, error)
	GetLayerProperties(ctx context.Context, layerID int) ([]types.LayerProperty, error)
	GetLayerComment(ctx context.Context, layerID int) (string, error)
	SetLayerComment(ctx context.Context, layerID int, text string) error
	GetPropertyExpression(ctx context.Context, path string) (string, error)
	SetPropertyExpression(ctx context.Context, path, text string) error
}

// commentPrefix marks snapshot paths that address a layer comment rather
// than a property.
const commentPrefix = "#comment/"

// CommentPath returns the snapshot path of layer id's comment.
func CommentPath(layerID int) string {
	return commentPrefix + strconv.Itoa(layerID)
}

// ParseCommentPath extracts the layer id from a comment path.
func ParseCommentPath(path string) (int, bool) {
	rest, ok := strings.CutPrefix(path, commentPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

// readText returns the live text at path.
func readText(ctx context.Context, host Host, path string) (string, error) {
	if id, ok := ParseCommentPath(path); ok {
		text, err := host.GetLayerComment(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to read comment of layer %d: %w", id, err)
		}
		return text, nil
	}
	text, err := host.GetPropertyExpression(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read expression at %s: %w", path, err)
	}
	return text, nil
}

// writeText replaces the live text at path.
func writeText(ctx context.Context, host Host, path, text string) error {
	if id, ok := ParseCommentPath(path); ok {
		if err := host.SetLayerComment(ctx, id, text); err != nil {
			return fmt.Errorf("failed to write comment of layer %d: %w", id, err)
		}
		return nil
	}
	if err := host.SetPropertyExpression(ctx, path, text); err != nil {
		return fmt.Errorf("failed to write expression at %s: %w", path, err)
	}
	return nil
}
