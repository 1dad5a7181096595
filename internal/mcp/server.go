package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/aebridge/internal/bridge"
	"github.com/dshills/aebridge/internal/logging"
	"github.com/dshills/aebridge/internal/project"
	"github.com/dshills/aebridge/internal/search"
	"github.com/dshills/aebridge/internal/storage"
	"github.com/dshills/aebridge/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "aebridge"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Bridge is the host surface the tools need. *bridge.Client satisfies it.
type Bridge interface {
	project.Host
	ValidateExpression(ctx context.Context, text string) (types.ValidationResult, error)
	GetConnectionStatus(ctx context.Context) types.ConnectionStatus
	Pending() int
}

// Config holds the server dependencies. Storage and Notes are optional.
// Replacements in note results need Notes to implement project.NoteStore.
type Config struct {
	Bridge           Bridge
	Storage          storage.Storage
	Logger           *logging.Logger
	Retry            bridge.RetryPolicy
	FetchConcurrency int
	Notes            project.NotesSource
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	bridge    Bridge
	storage   storage.Storage
	engine    *search.Engine
	fetcher   *project.Fetcher
	updater   *project.Updater
	logger    *logging.Logger
	startedAt time.Time
}

// NewServer creates a new MCP server instance
func NewServer(cfg Config) (*Server, error) {
	if cfg.Bridge == nil {
		return nil, errors.New("bridge is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = bridge.DefaultRetryPolicy()
	}

	fetcherOpts := []project.FetcherOption{
		project.WithRetryPolicy(retry),
		project.WithConcurrency(cfg.FetchConcurrency),
		project.WithFetcherLogger(logger),
	}
	var updaterOpts []project.UpdaterOption
	if cfg.Notes != nil {
		fetcherOpts = append(fetcherOpts, project.WithNotes(cfg.Notes))
		if store, ok := cfg.Notes.(project.NoteStore); ok {
			updaterOpts = append(updaterOpts, project.WithNoteStore(store))
		}
	}

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		bridge:    cfg.Bridge,
		storage:   cfg.Storage,
		engine:    search.New(search.WithLogger(logger)),
		fetcher:   project.NewFetcher(cfg.Bridge, fetcherOpts...),
		updater:   project.NewUpdater(cfg.Bridge, cfg.Storage, logger, updaterOpts...),
		logger:    logger.WithComponent("mcp"),
		startedAt: time.Now(),
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve runs the MCP server on stdio until ctx is canceled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP on stdio", "version", ServerVersion)
	err := server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Engine exposes the search session, mainly for tests and the CLI.
func (s *Server) Engine() *search.Engine {
	return s.engine
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	// Search session
	s.mcp.AddTool(searchProjectTool(), s.handleSearchProject)
	s.mcp.AddTool(searchTextTool(), s.handleSearchText)
	s.mcp.AddTool(navigationTool("next_result", "Move to the next search result, wrapping at the end"), s.handleNextResult)
	s.mcp.AddTool(navigationTool("previous_result", "Move to the previous search result, wrapping at the start"), s.handlePreviousResult)
	s.mcp.AddTool(navigationTool("current_result", "Return the search result under the cursor"), s.handleCurrentResult)
	s.mcp.AddTool(getStatisticsTool(), s.handleGetStatistics)
	s.mcp.AddTool(clearResultsTool(), s.handleClearResults)

	// Replacement
	s.mcp.AddTool(replaceMatchTool(), s.handleReplaceMatch)
	s.mcp.AddTool(replaceAllTool(), s.handleReplaceAll)
	s.mcp.AddTool(listReplacementsTool(), s.handleListReplacements)
	s.mcp.AddTool(undoReplacementTool(), s.handleUndoReplacement)

	// Direct host access
	s.mcp.AddTool(getLayerCommentTool(), s.handleGetLayerComment)
	s.mcp.AddTool(setLayerCommentTool(), s.handleSetLayerComment)
	s.mcp.AddTool(getExpressionTool(), s.handleGetExpression)
	s.mcp.AddTool(setExpressionTool(), s.handleSetExpression)
	s.mcp.AddTool(validateExpressionTool(), s.handleValidateExpression)
	s.mcp.AddTool(listLayersTool(), s.handleListLayers)
	s.mcp.AddTool(connectionStatusTool(), s.handleConnectionStatus)

	return nil
}
