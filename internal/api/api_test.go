package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/orbit/internal/preview"
	"github.com/starford/orbit/internal/sessionservice"
	"github.com/starford/orbit/internal/testutil"
)

const legacyPath = "2024-01-15-1430-coding.md"

func testEnv(t *testing.T, token string) (*testutil.Env, http.Handler) {
	t.Helper()
	env := testutil.Service(t)
	return env, NewRouter(env.Svc, preview.New(), token != "", token, nil)
}

func do(t *testing.T, h http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestCreateGetAndList(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/sessions", map[string]any{
		"identity":   "abc",
		"title":      "Cache rework",
		"tags":       []string{"Coding", "perf"},
		"started_at": "2024-01-15T14:30:00Z",
		"items": []map[string]any{
			{"type": "todo", "content": "write tests", "timestamp": "2024-01-15T14:35:00Z"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[sessionservice.SessionDetail](t, w)
	assert.Equal(t, "2024-01-15-1430-abc.md", created.Path)
	assert.Equal(t, `"`+created.Checksum+`"`, w.Header().Get("ETag"))

	w = do(t, router, http.MethodGet, "/sessions/2024-01-15-1430-abc.md", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[sessionservice.SessionDetail](t, w)
	assert.Equal(t, "Cache rework", got.Session.Title)
	assert.Equal(t, []string{"coding", "perf"}, got.Session.TagNames())
	require.Len(t, got.Session.Items, 1)

	w = do(t, router, http.MethodGet, "/sessions?tag=perf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[SessionListResponse](t, w)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, created.Path, list.Sessions[0].Path)

	w = do(t, router, http.MethodPost, "/sessions", map[string]any{
		"identity": "abc", "started_at": "2024-01-15T14:30:00Z",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreate_Validation(t *testing.T) {
	_, router := testEnv(t, "")

	cases := []map[string]any{
		{"identity": "../etc"},
		{"items": []map[string]any{{"type": "idea", "content": "x", "timestamp": "2024-01-15T14:35:00Z"}}},
		{"items": []map[string]any{{"type": "note", "content": "", "timestamp": "2024-01-15T14:35:00Z"}}},
		{"started_at": "2024-01-15T14:30:00Z", "ended_at": "2024-01-15T14:00:00Z"},
	}
	for _, body := range cases {
		w := do(t, router, http.MethodPost, "/sessions", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v: %s", body, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSession_Errors(t *testing.T) {
	env, router := testEnv(t, "")
	env.WriteFile(t, "bad.md", "no header here")

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/sessions/missing.md", nil).Code)

	w := do(t, router, http.MethodGet, "/sessions/bad.md", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "missing session header")

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/sessions/..%2F..%2Fetc%2Fpasswd", nil).Code)
}

func TestGetSession_EscapedSubdirectory(t *testing.T) {
	env, router := testEnv(t, "")
	env.WriteFile(t, "archive/"+legacyPath, testutil.LegacyDoc)

	w := do(t, router, http.MethodGet, "/sessions/"+url.PathEscape("archive/"+legacyPath), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "archive/"+legacyPath, decode[sessionservice.SessionDetail](t, w).Path)
}

func TestMarkdownEndpoint(t *testing.T) {
	env, router := testEnv(t, "")
	env.WriteFile(t, legacyPath, testutil.LegacyDoc)

	w := do(t, router, http.MethodGet, "/sessions/"+legacyPath+"/markdown", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Tags: coding\n")
}

func TestUpdateWithIfMatch(t *testing.T) {
	env, router := testEnv(t, "")
	env.WriteFile(t, legacyPath, testutil.LegacyDoc)

	current := decode[sessionservice.SessionDetail](t, do(t, router, http.MethodGet, "/sessions/"+legacyPath, nil))
	body := map[string]any{"title": "Renamed", "tags": []string{"coding"}, "started_at": "2024-01-15T14:30:00Z"}

	w := do(t, router, http.MethodPut, "/sessions/"+legacyPath, body, "If-Match", `"stale"`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPut, "/sessions/"+legacyPath, body, "If-Match", `"`+current.Checksum+`"`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[sessionservice.SessionDetail](t, w)
	assert.Equal(t, "Renamed", updated.Session.Title)
	assert.Empty(t, updated.Session.Items)
}

func TestDeleteSession(t *testing.T) {
	env, router := testEnv(t, "")
	env.WriteFile(t, legacyPath, testutil.LegacyDoc)

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/sessions/"+legacyPath, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/sessions/"+legacyPath, nil).Code)
}

func TestCaptureToggleAndEnd(t *testing.T) {
	env, router := testEnv(t, "")
	env.WriteFile(t, legacyPath, testutil.LegacyDoc)

	w := do(t, router, http.MethodPost, "/sessions/"+legacyPath+"/items", CaptureRequest{Input: "@link https://example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	d := decode[sessionservice.SessionDetail](t, w)
	require.Len(t, d.Session.Items, 3)
	assert.Equal(t, "https://example.com", d.Session.Items[2].Content)

	assert.Equal(t, http.StatusBadRequest,
		do(t, router, http.MethodPost, "/sessions/"+legacyPath+"/items", CaptureRequest{Input: "  @note "}).Code)

	todo := d.Session.Items[0]
	w = do(t, router, http.MethodPost, "/sessions/"+legacyPath+"/items/"+todo.ID.String()+"/tasks/1/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d = decode[sessionservice.SessionDetail](t, w)
	assert.Equal(t, "- [ ] write tests\n- [ ] fix parser", d.Session.Items[0].Content)

	assert.Equal(t, http.StatusBadRequest,
		do(t, router, http.MethodPost, "/sessions/"+legacyPath+"/items/nope/tasks/1/toggle", nil).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, router, http.MethodPost, "/sessions/"+legacyPath+"/items/"+todo.ID.String()+"/tasks/x/toggle", nil).Code)

	w = do(t, router, http.MethodPost, "/sessions/"+legacyPath+"/end", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode[sessionservice.SessionDetail](t, w).Session.EndedAt)
}

func TestImportAndClosest(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/import", ImportRequest{Name: "old.md", Content: testutil.LegacyDoc})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, legacyPath, decode[sessionservice.SessionDetail](t, w).Path)

	w = do(t, router, http.MethodPost, "/import", ImportRequest{Name: "junk.md", Content: "junk"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodGet, "/sessions/closest?at=2024-01-16T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, legacyPath, decode[sessionservice.SessionDetail](t, w).Path)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/sessions/closest?at=yesterday", nil).Code)
}

func TestSearchAndItems(t *testing.T) {
	_, router := testEnv(t, "")
	require.Equal(t, http.StatusCreated,
		do(t, router, http.MethodPost, "/import", ImportRequest{Content: testutil.LegacyDoc}).Code)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/search", nil).Code)

	w := do(t, router, http.MethodGet, "/search?q=invalidation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[map[string][]map[string]any](t, w)
	require.Len(t, res["results"], 1)
	assert.Equal(t, "note", res["results"][0]["type"])

	w = do(t, router, http.MethodGet, "/items?type=todo&open=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]map[string]any](t, w)["items"], 1)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/items?type=idea", nil).Code)
}

func TestEditorEndpoints(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/editor/actions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	actions := decode[map[string][]ActionInfo](t, w)["actions"]
	require.Len(t, actions, 10)
	assert.Equal(t, ActionInfo{Name: "bold", Title: "Bold", Inline: true}, actions[0])

	w = do(t, router, http.MethodPost, "/editor/format", map[string]any{
		"action": "bold", "text": "launch window", "selection": map[string]int{"start": 0, "length": 6},
	})
	require.Equal(t, http.StatusOK, w.Code)
	edit := decode[EditResponse](t, w)
	assert.Equal(t, "**launch** window", edit.Text)
	assert.Equal(t, 2, edit.Selection.Start)
	assert.Equal(t, 6, edit.Selection.Length)

	w = do(t, router, http.MethodPost, "/editor/format", map[string]any{"action": "blink", "text": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/editor/accept-line", map[string]any{
		"text": "- alpha", "selection": map[string]int{"start": 7},
	})
	require.Equal(t, http.StatusOK, w.Code)
	accept := decode[map[string]any](t, w)
	assert.Equal(t, true, accept["handled"])
	assert.Equal(t, "- alpha\n- ", accept["text"])

	w = do(t, router, http.MethodPost, "/editor/tasks", TasksRequest{Text: "- [ ] alpha\nplain\n\t- [x] beta"})
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode[map[string][]map[string]any](t, w)["tasks"]
	require.Len(t, tasks, 2)
	assert.EqualValues(t, 2, tasks[1]["line_index"])

	w = do(t, router, http.MethodPost, "/editor/tasks/toggle", ToggleRequest{Text: "- [ ] alpha", Line: 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "- [x] alpha", decode[map[string]string](t, w)["text"])

	w = do(t, router, http.MethodPost, "/preview", PreviewRequest{Markdown: "**hi**"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["html"], "<strong>hi</strong>")
}

func TestEditorFormat_MultiByteSelection(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/editor/format", map[string]any{
		"action": "bold", "text": "café", "selection": map[string]int{"start": 4},
	})
	require.Equal(t, http.StatusOK, w.Code)
	edit := decode[EditResponse](t, w)
	assert.Equal(t, "caf**text**é", edit.Text)
	assert.Equal(t, 5, edit.Selection.Start)
}

func TestEditorEndpoints_Validation(t *testing.T) {
	_, router := testEnv(t, "")

	cases := []struct {
		target string
		body   any
	}{
		{"/editor/tasks/toggle", map[string]any{"text": "- [ ] a", "line": -1}},
		{"/editor/format", map[string]any{"action": "bold", "text": "a", "selection": map[string]int{"start": -1}}},
		{"/editor/accept-line", map[string]any{"text": "- a", "selection": map[string]int{"start": 3, "length": -2}}},
		{"/editor/tasks", map[string]any{"text": strings.Repeat("x", maxBufferBytes+1)}},
		{"/preview", map[string]any{"markdown": strings.Repeat("x", maxBufferBytes+1)}},
	}
	for _, tc := range cases {
		w := do(t, router, http.MethodPost, tc.target, tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.target)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/sessions", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/sessions", nil, "Authorization", "Bearer wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/sessions", nil, "Authorization", "s3cret").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/sessions", nil, "Authorization", "Bearer s3cret").Code)
}
