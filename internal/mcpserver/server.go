// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Orbit sessions to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/orbit/internal/apperr"
	"github.com/starford/orbit/internal/index"
	"github.com/starford/orbit/internal/sessionservice"
)

const formatURI = "orbit://session-format"

// Server wraps the MCP server with Orbit tools.
type Server struct {
	mcp *server.MCPServer
	svc *sessionservice.Service
}

// New creates a new MCP server with all Orbit tools registered.
func New(svc *sessionservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Orbit",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List sessions, newest first."),
		mcp.WithString("tag", mcp.Description("Only sessions carrying this tag")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions (default 20)")),
	), s.listSessions)

	s.mcp.AddTool(mcp.NewTool("read_session",
		mcp.WithDescription("Read one session as its Markdown document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the session file")),
	), s.readSession)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Full-text search through captured items."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("capture_item",
		mcp.WithDescription("Capture one item into a session. A leading @todo, @next, @note "+
			"or @link picks the item type; anything else becomes a note. Without a path the "+
			"session closest to now is used."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Capture input, e.g. \"@todo write tests\"")),
		mcp.WithString("path", mcp.Description("Relative path of the session file")),
	), s.captureItem)

	s.mcp.AddTool(mcp.NewTool("list_open_todos",
		mcp.WithDescription("List todo items that still have unchecked tasks."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of items (default 50)")),
	), s.listOpenTodos)

	s.mcp.AddTool(mcp.NewTool("get_session_format",
		mcp.WithDescription("Returns the Orbit session document format. "+
			"Call this before reading raw session files."),
	), s.getSessionFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Session Format",
			mcp.WithResourceDescription("Layout of Orbit session documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, _, err := s.svc.List(ctx, index.ListQuery{
		Tag:   req.GetString("tag", ""),
		Limit: req.GetInt("limit", 20),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rows)
}

func (s *Server) readSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	md, err := s.svc.Markdown(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(md), nil
}

func (s *Server) searchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results)
}

func (s *Server) captureItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path := strings.TrimSpace(req.GetString("path", ""))
	if path == "" {
		closest, err := s.svc.Closest(ctx, s.svc.Now())
		if err != nil {
			return toolError(fmt.Errorf("no session to capture into: %w", err)), nil
		}
		path = closest.Path
	}

	d, err := s.svc.Capture(ctx, path, input)
	if err != nil {
		return toolError(err), nil
	}
	item := d.Session.Items[len(d.Session.Items)-1]
	return mcp.NewToolResultText(fmt.Sprintf("captured %s into %s", item.Type.Prefix(), d.Path)), nil
}

func (s *Server) listOpenTodos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.OpenTodos(ctx, req.GetInt("limit", 50))
	if err != nil {
		return toolError(err), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no open todos"), nil
	}
	return jsonResult(rows)
}

func (s *Server) getSessionFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SessionFormat), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     SessionFormat,
		},
	}, nil
}
