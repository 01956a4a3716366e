package mcpserver

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/orbit/internal/testutil"
)

const legacyPath = "2024-01-15-1430-coding.md"

func testServer(t *testing.T) (*Server, *testutil.Env) {
	t.Helper()
	env := testutil.Service(t)
	_, err := env.Svc.Import(context.Background(), legacyPath, []byte(testutil.LegacyDoc))
	require.NoError(t, err)
	return New(env.Svc, "test"), env
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_sessions":      srv.listSessions,
		"read_session":       srv.readSession,
		"search_items":       srv.searchItems,
		"capture_item":       srv.captureItem,
		"list_open_todos":    srv.listOpenTodos,
		"get_session_format": srv.getSessionFormat,
	}
	h, ok := handlers[name]
	require.True(t, ok, "unknown tool %s", name)

	result, err := h(ctx, req)
	require.NoError(t, err)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListSessions(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_sessions", map[string]any{})
	assert.False(t, r.IsError)
	assert.Contains(t, resultText(r), legacyPath)

	r = callTool(t, srv, "list_sessions", map[string]any{"tag": "meeting"})
	assert.Equal(t, "[]", resultText(r))
}

func TestReadSession(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_session", map[string]any{"path": legacyPath})
	require.False(t, r.IsError)
	text := resultText(r)
	assert.Contains(t, text, "# Session: Focus - 2024-01-15 14:30\n")
	assert.Contains(t, text, "### 14:35 - @todo\n")

	r = callTool(t, srv, "read_session", map[string]any{"path": "nope.md"})
	assert.True(t, r.IsError)
	assert.Equal(t, "not found", resultText(r))

	r = callTool(t, srv, "read_session", map[string]any{})
	assert.True(t, r.IsError)
}

func TestSearchItems(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_items", map[string]any{"query": "invalidation"})
	require.False(t, r.IsError)
	assert.Contains(t, resultText(r), legacyPath)

	r = callTool(t, srv, "search_items", map[string]any{})
	assert.True(t, r.IsError)
}

func TestCaptureItem(t *testing.T) {
	srv, env := testServer(t)

	r := callTool(t, srv, "capture_item", map[string]any{"input": "@next ship it", "path": legacyPath})
	require.False(t, r.IsError, resultText(r))
	assert.Equal(t, "captured @next into "+legacyPath, resultText(r))

	r = callTool(t, srv, "capture_item", map[string]any{"input": "loose thought"})
	require.False(t, r.IsError, resultText(r))
	assert.Equal(t, "captured @note into "+legacyPath, resultText(r))

	d, err := env.Svc.Get(context.Background(), legacyPath)
	require.NoError(t, err)
	require.Len(t, d.Session.Items, 4)
	assert.Equal(t, "ship it", d.Session.Items[2].Content)
	assert.Equal(t, "loose thought", d.Session.Items[3].Content)

	r = callTool(t, srv, "capture_item", map[string]any{"input": "   ", "path": legacyPath})
	assert.True(t, r.IsError)
}

func TestCaptureItem_EmptyVault(t *testing.T) {
	srv := New(testutil.Service(t).Svc, "test")
	r := callTool(t, srv, "capture_item", map[string]any{"input": "hello"})
	assert.True(t, r.IsError)
}

func TestListOpenTodos(t *testing.T) {
	srv, env := testServer(t)

	r := callTool(t, srv, "list_open_todos", map[string]any{})
	require.False(t, r.IsError)
	assert.Contains(t, resultText(r), "write tests")

	d, err := env.Svc.Get(context.Background(), legacyPath)
	require.NoError(t, err)
	_, err = env.Svc.ToggleTask(context.Background(), legacyPath, d.Session.Items[0].ID, 0)
	require.NoError(t, err)

	r = callTool(t, srv, "list_open_todos", map[string]any{"limit": 5})
	assert.Equal(t, "no open todos", resultText(r))
}

func TestSessionFormat(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_session_format", nil)
	assert.Equal(t, SessionFormat, resultText(r))

	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, formatURI, tc.URI)
}
