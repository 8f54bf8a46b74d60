package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if body, ok := routes[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
			return
		}
		http.NotFound(w, r)
	}))
}

func TestExtractProjects(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/rest/api/3/project": `[{"key": "TEST", "name": "Test Project"}]`,
	})
	defer server.Close()

	dir := t.TempDir()
	client := NewClient(server.URL, "user@example.com", "token", "test-agent")
	extractor := NewExtractor(client, dir, 0)

	projects, err := extractor.ExtractProjects(context.Background())
	if err != nil {
		t.Fatalf("ExtractProjects returned error: %v", err)
	}

	if len(projects) != 1 {
		t.Fatalf("Expected 1 project, got %d", len(projects))
	}

	if key, _ := projects[0]["key"].(string); key != "TEST" {
		t.Errorf("Expected project key 'TEST', got '%s'", key)
	}

	// The snapshot save step must run exactly once
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read output directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected exactly 1 snapshot file, got %d", len(entries))
	}
	if len(entries) == 1 && entries[0].Name() != "projects.json" {
		t.Errorf("Expected projects.json, got %s", entries[0].Name())
	}
}

func TestExtractProjectsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user@example.com", "token", "test-agent")
	extractor := NewExtractor(client, t.TempDir(), 0)

	if _, err := extractor.ExtractProjects(context.Background()); err == nil {
		t.Error("Expected error for non-2xx response")
	}
}

func TestExtractAll(t *testing.T) {
	routes := map[string]string{
		"/rest/api/3/project":                 `[{"key": "TEST", "name": "Test Project"}, {"key": "OTHER", "name": "Other"}]`,
		"/rest/agile/1.0/board":               `{"values": [{"id": 7, "name": "TEST board"}]}`,
		"/rest/agile/1.0/board/7/sprint":      `{"values": [{"id": 1, "name": "Sprint 1", "state": "active"}]}`,
		"/rest/agile/1.0/board/7/epic":        `{"values": [{"id": 9, "key": "TEST-9"}]}`,
		"/rest/api/3/search":                  `{"issues": [{"id": "10001", "key": "TEST-1", "fields": {"summary": "Test issue"}}]}`,
		"/rest/api/3/issue/TEST-1/comment":    `{"comments": [{"id": "c1", "body": "Looks good"}]}`,
	}
	server := newTestServer(t, routes)
	defer server.Close()

	dir := t.TempDir()
	client := NewClient(server.URL, "user@example.com", "token", "test-agent")
	extractor := NewExtractor(client, dir, 0)

	snapshot, path, err := extractor.ExtractAll(context.Background(), "TEST")
	if err != nil {
		t.Fatalf("ExtractAll returned error: %v", err)
	}

	// The OTHER project must be filtered out
	if len(snapshot.Projects) != 1 {
		t.Errorf("Expected 1 project after filtering, got %d", len(snapshot.Projects))
	}
	if len(snapshot.Boards) != 1 || len(snapshot.Sprints) != 1 || len(snapshot.Epics) != 1 {
		t.Errorf("Unexpected entity counts: boards=%d sprints=%d epics=%d",
			len(snapshot.Boards), len(snapshot.Sprints), len(snapshot.Epics))
	}
	if len(snapshot.Issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(snapshot.Issues))
	}
	if len(snapshot.Comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(snapshot.Comments))
	}

	if issueKey, _ := snapshot.Comments[0]["issue_key"].(string); issueKey != "TEST-1" {
		t.Errorf("Expected comment tagged with issue_key 'TEST-1', got '%s'", issueKey)
	}

	// The aggregate snapshot must be readable from disk
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read aggregate snapshot: %v", err)
	}
	var loaded Snapshot
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Failed to decode aggregate snapshot: %v", err)
	}
	if loaded.Metadata.ProjectKey != "TEST" {
		t.Errorf("Expected snapshot project key 'TEST', got '%s'", loaded.Metadata.ProjectKey)
	}
	if loaded.Metadata.Timestamp == "" {
		t.Error("Expected snapshot timestamp to be set")
	}
}

func TestExtractAllPartialFailureKeepsEarlierSnapshots(t *testing.T) {
	routes := map[string]string{
		"/rest/api/3/project": `[{"key": "TEST", "name": "Test Project"}]`,
		// Board endpoint missing: extraction fails after projects saved
	}
	server := newTestServer(t, routes)
	defer server.Close()

	dir := t.TempDir()
	client := NewClient(server.URL, "user@example.com", "token", "test-agent")
	extractor := NewExtractor(client, dir, 0)

	if _, _, err := extractor.ExtractAll(context.Background(), "TEST"); err == nil {
		t.Fatal("Expected extraction failure")
	}

	if _, err := os.Stat(dir + "/projects.json"); err != nil {
		t.Errorf("Expected projects.json to survive a later-stage failure: %v", err)
	}
}
