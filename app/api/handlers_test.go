package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdubba/jira-insights/app/pipeline"
)

type fakeRunner struct {
	lastProject string
	lastSkip    map[pipeline.Stage]bool
	result      *pipeline.RunResult
	err         error
	lastRun     time.Time
}

func (f *fakeRunner) Run(_ context.Context, projectKey string, skip map[pipeline.Stage]bool) (*pipeline.RunResult, error) {
	f.lastProject = projectKey
	f.lastSkip = skip
	if f.err != nil {
		return &pipeline.RunResult{Status: "error", Message: f.err.Error()}, f.err
	}
	return f.result, nil
}

func (f *fakeRunner) LastRun() (time.Time, error) {
	if f.lastRun.IsZero() {
		return time.Time{}, os.ErrNotExist
	}
	return f.lastRun, nil
}

func (f *fakeRunner) LatestSnapshot(projectKey string) (string, error) {
	return "/data/jira_complete_data_" + projectKey + "_20240301_000000.json", nil
}

type fakeReader struct {
	lastCall string
	issues   []map[string]any
}

func (f *fakeReader) Search(_ context.Context, query string, limit int) []map[string]any {
	f.lastCall = "search:" + query
	return f.issues
}

func (f *fakeReader) IssuesByPriority(_ context.Context, priority string) []map[string]any {
	f.lastCall = "priority:" + priority
	return f.issues
}

func (f *fakeReader) IssuesByStatus(_ context.Context, status string) []map[string]any {
	f.lastCall = "status:" + status
	return f.issues
}

func (f *fakeReader) IssuesByType(_ context.Context, issueType string) []map[string]any {
	f.lastCall = "type:" + issueType
	return f.issues
}

func (f *fakeReader) AllIssues(_ context.Context, limit int) []map[string]any {
	f.lastCall = "all"
	return f.issues
}

func newTestAPI(t *testing.T, runner *fakeRunner, reader *fakeReader) (http.Handler, string) {
	t.Helper()

	dir := t.TempDir()
	handler := NewHandler(runner, reader, "TEST", dir)
	return NewServer(handler, "secret-key"), dir
}

func doRequest(t *testing.T, server http.Handler, method, path, apiKey, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *strings.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	} else {
		reqBody = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reqBody)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestAPIRequiresKey(t *testing.T) {
	server, _ := newTestAPI(t, &fakeRunner{}, &fakeReader{})

	w := doRequest(t, server, http.MethodGet, "/api/status", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, server, http.MethodGet, "/api/status", "wrong-key", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIAcceptsBearerToken(t *testing.T) {
	server, _ := newTestAPI(t, &fakeRunner{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer secret-key")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthIsPublic(t *testing.T) {
	server, _ := newTestAPI(t, &fakeRunner{lastRun: time.Now()}, &fakeReader{})

	w := doRequest(t, server, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Contains(t, health, "timestamp")
	assert.Contains(t, health, "last_run")
}

func TestAPIRun(t *testing.T) {
	runner := &fakeRunner{
		result: &pipeline.RunResult{Status: "success", ProjectKey: "OTHER", IssueCount: 3},
	}
	server, _ := newTestAPI(t, runner, &fakeReader{})

	body := `{"project_key": "OTHER", "skip": ["extract", "remote-sync"]}`
	w := doRequest(t, server, http.MethodPost, "/api/run", "secret-key", body)
	require.Equal(t, http.StatusOK, w.Code)

	var result pipeline.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 3, result.IssueCount)

	assert.Equal(t, "OTHER", runner.lastProject)
	assert.Equal(t, map[pipeline.Stage]bool{
		pipeline.StageExtract:    true,
		pipeline.StageRemoteSync: true,
	}, runner.lastSkip)
}

func TestAPIRunDefaultsProject(t *testing.T) {
	runner := &fakeRunner{result: &pipeline.RunResult{Status: "success"}}
	server, _ := newTestAPI(t, runner, &fakeReader{})

	w := doRequest(t, server, http.MethodPost, "/api/run", "secret-key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TEST", runner.lastProject)
}

func TestAPIRunRejectsUnknownStage(t *testing.T) {
	server, _ := newTestAPI(t, &fakeRunner{}, &fakeReader{})

	w := doRequest(t, server, http.MethodPost, "/api/run", "secret-key", `{"skip": ["deploy"]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])
}

func TestAPIRunFailureReturnsEnvelope(t *testing.T) {
	runner := &fakeRunner{err: os.ErrDeadlineExceeded}
	server, _ := newTestAPI(t, runner, &fakeReader{})

	w := doRequest(t, server, http.MethodPost, "/api/run", "secret-key", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var result pipeline.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "error", result.Status)
	assert.NotEmpty(t, result.Message)
}

func TestAPIStatusReportsInsightFiles(t *testing.T) {
	server, dir := newTestAPI(t, &fakeRunner{lastRun: time.Now()}, &fakeReader{})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "general_insights.json"), []byte("{}"), 0644))

	w := doRequest(t, server, http.MethodGet, "/api/status", "secret-key", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	assert.Contains(t, status["latest_snapshot"], "jira_complete_data_TEST")

	reports := status["insights"].(map[string]any)
	general := reports["general"].(map[string]any)
	sprint := reports["sprint"].(map[string]any)
	assert.Equal(t, true, general["present"])
	assert.Equal(t, false, sprint["present"])
}

func TestAPISearch(t *testing.T) {
	reader := &fakeReader{issues: []map[string]any{{"issue_key": "TEST-1"}}}
	server, _ := newTestAPI(t, &fakeRunner{}, reader)

	w := doRequest(t, server, http.MethodGet, "/api/search?q=login+bugs", "secret-key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "search:login bugs", reader.lastCall)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["total"])

	w = doRequest(t, server, http.MethodGet, "/api/search", "secret-key", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, server, http.MethodGet, "/api/search?q=x&limit=0", "secret-key", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIListIssues(t *testing.T) {
	reader := &fakeReader{issues: []map[string]any{{"issue_key": "TEST-1"}}}
	server, _ := newTestAPI(t, &fakeRunner{}, reader)

	w := doRequest(t, server, http.MethodGet, "/api/issues?priority=High", "secret-key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "priority:High", reader.lastCall)

	w = doRequest(t, server, http.MethodGet, "/api/issues?status=Done", "secret-key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "status:Done", reader.lastCall)

	w = doRequest(t, server, http.MethodGet, "/api/issues", "secret-key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "all", reader.lastCall)

	w = doRequest(t, server, http.MethodGet, "/api/issues?priority=High&status=Done", "secret-key", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRootListsEndpoints(t *testing.T) {
	server, _ := newTestAPI(t, &fakeRunner{}, &fakeReader{})

	w := doRequest(t, server, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "Jira Insights", info["service"])

	endpoints := info["endpoints"].(map[string]any)
	assert.Contains(t, endpoints, "run")
	assert.Contains(t, endpoints, "status")
}
