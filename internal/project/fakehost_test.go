package project

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dshills/aebridge/pkg/types"
)

var errHostDown = errors.New("host down")

// fakeHost is an in-memory Host keyed by property path and layer id.
type fakeHost struct {
	mu          sync.Mutex
	layers      []types.Layer
	selected    []int
	props       map[int][]types.LayerProperty
	comments    map[int]string
	expressions map[string]string

	listFailures atomic.Int32 // GetAllLayers failures left to inject
	listCalls    atomic.Int32
	failWrites   bool
	writes       []string
}

func newFakeHost() *fakeHost {
	h := &fakeHost{
		layers: []types.Layer{
			{ID: 1, Index: 1, Name: "Title"},
			{ID: 2, Index: 2, Name: "BG"},
			{ID: 3, Index: 3, Name: "Null"},
		},
		selected: []int{2},
		props: map[int][]types.LayerProperty{
			1: {
				{Name: "Position", Path: "L1/Transform/Position", Expression: "wiggle(2, 30)", HasExpression: true, Enabled: true},
				{Name: "Opacity", Path: "L1/Transform/Opacity"},
			},
			2: {
				{Name: "Rotation", Path: "L2/Transform/Rotation", Expression: "time * 10", HasExpression: true, Enabled: true},
			},
		},
		comments: map[int]string{1: "main title", 2: ""},
	}
	h.expressions = make(map[string]string)
	for _, props := range h.props {
		for _, p := range props {
			if p.HasExpression {
				h.expressions[p.Path] = p.Expression
			}
		}
	}
	return h
}

func (h *fakeHost) GetAllLayers(context.Context) ([]types.Layer, error) {
	h.listCalls.Add(1)
	if h.listFailures.Load() > 0 {
		h.listFailures.Add(-1)
		return nil, errHostDown
	}
	return h.layers, nil
}

func (h *fakeHost) GetSelectedLayers(context.Context) ([]types.Layer, error) {
	var out []types.Layer
	for _, l := range h.layers {
		for _, id := range h.selected {
			if l.ID == id {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (h *fakeHost) GetLayerProperties(_ context.Context, id int) ([]types.LayerProperty, error) {
	return h.props[id], nil
}

func (h *fakeHost) GetLayerComment(_ context.Context, id int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.comments[id], nil
}

func (h *fakeHost) SetLayerComment(_ context.Context, id int, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failWrites {
		return errHostDown
	}
	h.comments[id] = text
	h.writes = append(h.writes, CommentPath(id))
	return nil
}

func (h *fakeHost) GetPropertyExpression(_ context.Context, path string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.expressions[path], nil
}

func (h *fakeHost) SetPropertyExpression(_ context.Context, path, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failWrites {
		return errHostDown
	}
	h.expressions[path] = text
	h.writes = append(h.writes, path)
	return nil
}
