package project

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/aebridge/internal/bridge"
	"github.com/dshills/aebridge/internal/logging"
	"github.com/dshills/aebridge/pkg/types"
)

// DefaultConcurrency bounds concurrent per-layer property reads.
const DefaultConcurrency = 4

// NotesSource supplies project notes for searches that include them.
type NotesSource interface {
	Notes(ctx context.Context) ([]types.ExpressionSnapshot, error)
}

// NotesFunc adapts a function to NotesSource.
type NotesFunc func(ctx context.Context) ([]types.ExpressionSnapshot, error)

// Notes calls f.
func (f NotesFunc) Notes(ctx context.Context) ([]types.ExpressionSnapshot, error) {
	return f(ctx)
}

// Fetcher collects expression snapshots from the host for project searches.
type Fetcher struct {
	host        Host
	retry       bridge.RetryPolicy
	concurrency int
	notes       NotesSource
	logger      *logging.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithRetryPolicy sets the backoff used for layer listing.
func WithRetryPolicy(p bridge.RetryPolicy) FetcherOption {
	return func(f *Fetcher) { f.retry = p }
}

// WithConcurrency sets how many layers are read at once.
func WithConcurrency(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithNotes sets the notes source.
func WithNotes(src NotesSource) FetcherOption {
	return func(f *Fetcher) { f.notes = src }
}

// WithFetcherLogger sets the fetcher logger.
func WithFetcherLogger(l *logging.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a Fetcher over host.
func NewFetcher(host Host, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		host:        host,
		retry:       bridge.DefaultRetryPolicy(),
		concurrency: DefaultConcurrency,
		logger:      logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.WithComponent("fetcher")
	return f
}

// Layers lists the layers in scope. Listing is an idempotent read and is
// retried with backoff.
func (f *Fetcher) Layers(ctx context.Context, scope types.SearchScope) ([]types.Layer, error) {
	list := f.host.GetAllLayers
	if scope == types.ScopeSelected {
		list = f.host.GetSelectedLayers
	}
	layers, err := bridge.Retry(ctx, f.retry, list)
	if err != nil {
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}
	return layers, nil
}

// Snapshots returns every searchable text in scope: expressions of each
// layer, then layer comments when opts.IncludeComments is set, then notes
// when opts.IncludeNotes is set. Its signature matches search.SnapshotProvider.
func (f *Fetcher) Snapshots(ctx context.Context, opts types.SearchOptions) ([]types.ExpressionSnapshot, error) {
	start := time.Now()
	layers, err := f.Layers(ctx, opts.Scope)
	if err != nil {
		return nil, err
	}

	perLayer := make([][]types.ExpressionSnapshot, len(layers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, layer := range layers {
		g.Go(func() error {
			snaps, err := f.layerSnapshots(gctx, layer, opts.IncludeComments)
			if err != nil {
				return err
			}
			perLayer[i] = snaps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.ExpressionSnapshot
	for _, snaps := range perLayer {
		out = append(out, snaps...)
	}

	if opts.IncludeNotes && f.notes != nil {
		notes, err := f.notes.Notes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read notes: %w", err)
		}
		for _, n := range notes {
			n.Type = types.ResultNote
			out = append(out, n)
		}
	}

	f.logger.Debug("fetched snapshots",
		"layers", len(layers), "snapshots", len(out), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (f *Fetcher) layerSnapshots(ctx context.Context, layer types.Layer, includeComments bool) ([]types.ExpressionSnapshot, error) {
	props, err := f.host.GetLayerProperties(ctx, layer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read properties of layer %d: %w", layer.ID, err)
	}

	var out []types.ExpressionSnapshot
	for _, p := range props {
		if !p.HasExpression || p.Expression == "" {
			continue
		}
		out = append(out, types.ExpressionSnapshot{
			LayerID:      layer.ID,
			LayerName:    layer.Name,
			PropertyName: p.Name,
			PropertyPath: p.Path,
			Expression:   p.Expression,
			Type:         types.ResultExpression,
		})
	}

	if includeComments {
		comment, err := f.host.GetLayerComment(ctx, layer.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read comment of layer %d: %w", layer.ID, err)
		}
		if comment != "" {
			out = append(out, types.ExpressionSnapshot{
				LayerID:      layer.ID,
				LayerName:    layer.Name,
				PropertyName: "Comment",
				PropertyPath: CommentPath(layer.ID),
				Expression:   comment,
				Type:         types.ResultComment,
			})
		}
	}
	return out, nil
}
