package processor

import (
	"strings"
	"testing"
)

func TestBuildVectorReady(t *testing.T) {
	merged := []MergedRecord{
		{
			IssueRecord: IssueRecord{
				ID:          "10001",
				Key:         "TEST-1",
				Summary:     "Fix login flow",
				Description: "Users cannot log in.",
				IssueType:   "Bug",
				Status:      "Open",
				Priority:    "High",
				Assignee:    "Ada",
			},
			Comments:    "first | second",
			EpicName:    "Auth overhaul",
			EpicSummary: "Rework authentication",
		},
	}

	items := BuildVectorReady(merged)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.ID != "10001" {
		t.Errorf("Expected id '10001', got %q", item.ID)
	}

	for _, fragment := range []string{"TEST-1", "Fix login flow", "Users cannot log in.", "Auth overhaul", "first | second"} {
		if !strings.Contains(item.Text, fragment) {
			t.Errorf("Expected text to contain %q, got %q", fragment, item.Text)
		}
	}

	if item.Metadata.Key != "TEST-1" || item.Metadata.Type != "Bug" || item.Metadata.Epic != "Auth overhaul" {
		t.Errorf("Unexpected metadata: %+v", item.Metadata)
	}
}

func TestVectorReadyTextContainsNoMarkup(t *testing.T) {
	// Records are built from normalized issues, so HTML must already be gone
	issues := NormalizeIssues([]map[string]any{
		{
			"id":  "1",
			"key": "TEST-1",
			"fields": map[string]any{
				"summary":     "Summary",
				"description": "<p>This is a <strong>test</strong> paragraph.</p>",
			},
		},
	})
	merged := MergeRecords(issues, nil, nil)
	items := BuildVectorReady(merged)

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if strings.ContainsAny(items[0].Text, "<>") {
		t.Errorf("Vector-ready text must not contain markup characters: %q", items[0].Text)
	}
}
