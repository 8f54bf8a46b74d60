package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	all      []map[string]any
	priority []map[string]any
}

func (f *fakeReader) AllIssues(_ context.Context, _ int) []map[string]any {
	return f.all
}

func (f *fakeReader) IssuesByPriority(_ context.Context, _ string) []map[string]any {
	return f.priority
}

func newMockCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestGenerateGeneralInsights(t *testing.T) {
	const analysis = "# Project Health\nThe project is on track.\n\nRisks:\nNone identified."

	srv := newMockCompletionServer(t, analysis)
	reader := &fakeReader{all: []map[string]any{
		{"issue_key": "TEST-1", "issue_type": "Bug", "status": "Open", "priority": "High"},
		{"issue_key": "TEST-2", "issue_type": "Story", "status": "Done", "priority": "Low"},
	}}

	g := NewGenerator("test-key", srv.URL+"/v1", "gpt-4o-mini", reader, t.TempDir())

	result := g.Generate(context.Background(), "general")

	assert.Equal(t, "general", result.Type)
	assert.Empty(t, result.Error)
	assert.Equal(t, 2, result.DataCount)
	assert.Equal(t, analysis, result.InsightsText)
	assert.Equal(t, "The project is on track.", result.Sections["project health"])
	assert.Equal(t, "None identified.", result.Sections["risks"])
}

func TestGenerateUnknownKind(t *testing.T) {
	srv := newMockCompletionServer(t, "unused")
	g := NewGenerator("test-key", srv.URL+"/v1", "gpt-4o-mini", &fakeReader{}, t.TempDir())

	result := g.Generate(context.Background(), "quarterly")

	assert.Equal(t, "quarterly", result.Type)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.InsightsText)
}

func TestGenerateModelFailureYieldsErrorResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	g := NewGenerator("test-key", srv.URL+"/v1", "gpt-4o-mini", &fakeReader{}, t.TempDir())

	result := g.Generate(context.Background(), "general")

	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.InsightsText)
}

func TestGenerateAllPersistsEveryKind(t *testing.T) {
	srv := newMockCompletionServer(t, "Summary:\nAll good.")
	dir := t.TempDir()
	reader := &fakeReader{
		all:      []map[string]any{{"issue_key": "TEST-1"}},
		priority: []map[string]any{{"issue_key": "TEST-2", "priority": "High"}},
	}

	g := NewGenerator("test-key", srv.URL+"/v1", "gpt-4o-mini", reader, dir)

	results, err := g.GenerateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, len(Kinds))

	for _, kind := range Kinds {
		path := filepath.Join(dir, kind+"_insights.json")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
			continue
		}

		loaded, err := Load(dir, kind)
		require.NoError(t, err)
		assert.Equal(t, kind, loaded.Type)
		assert.Equal(t, "All good.", loaded.Sections["summary"])
	}
}

func TestBuildGeneralPromptIncludesDistributionsAndSample(t *testing.T) {
	issues := []map[string]any{
		{"issue_key": "TEST-1", "issue_type": "Bug", "status": "Open", "priority": "High"},
		{"issue_key": "TEST-2", "issue_type": "Bug", "status": "Done", "priority": ""},
	}

	prompt := BuildGeneralPrompt(issues)

	assert.Contains(t, prompt, "Total issues: 2")
	assert.Contains(t, prompt, "- Bug: 2")
	assert.Contains(t, prompt, "- Unspecified: 1")
	assert.Contains(t, prompt, `"issue_key": "TEST-1"`)
}

func TestBuildPromptsEmptyData(t *testing.T) {
	builders := map[string]func([]map[string]any) string{
		"general":  BuildGeneralPrompt,
		"sprint":   BuildSprintPrompt,
		"team":     BuildTeamPrompt,
		"priority": BuildPriorityPrompt,
	}

	for name, build := range builders {
		prompt := build(nil)
		if !strings.Contains(prompt, "Total issues: 0") {
			t.Errorf("%s prompt missing zero count: %q", name, prompt)
		}
	}
}
