package processor

import (
	"testing"
)

func TestMergeRecordsIsLeftJoin(t *testing.T) {
	issues := []IssueRecord{
		{ID: "1", Key: "TEST-1", EpicLink: "TEST-100"},
		{ID: "2", Key: "TEST-2"},
		{ID: "3", Key: "TEST-3"},
	}
	comments := []CommentRecord{
		{ID: "c1", IssueKey: "TEST-1", Content: "first"},
		{ID: "c2", IssueKey: "TEST-1", Content: "second"},
		{ID: "c3", IssueKey: "TEST-3", Content: "only"},
		{ID: "c4", IssueKey: "ORPHAN-9", Content: "no matching issue"},
	}
	epics := []EpicRecord{
		{Key: "TEST-100", Name: "Auth overhaul", Summary: "Rework authentication", Description: "Everything auth"},
	}

	merged := MergeRecords(issues, comments, epics)

	// Every issue appears exactly once, comments or not
	if len(merged) != 3 {
		t.Fatalf("Expected 3 merged records, got %d", len(merged))
	}

	byKey := make(map[string]MergedRecord)
	for _, m := range merged {
		byKey[m.Key] = m
	}

	if byKey["TEST-1"].Comments != "first | second" {
		t.Errorf("Expected delimited comments, got %q", byKey["TEST-1"].Comments)
	}
	if byKey["TEST-2"].Comments != "" {
		t.Errorf("Issue without comments must get empty string, got %q", byKey["TEST-2"].Comments)
	}
	if byKey["TEST-3"].Comments != "only" {
		t.Errorf("Expected single comment, got %q", byKey["TEST-3"].Comments)
	}

	if byKey["TEST-1"].EpicName != "Auth overhaul" || byKey["TEST-1"].EpicSummary != "Rework authentication" {
		t.Errorf("Expected epic details joined, got %+v", byKey["TEST-1"])
	}
	if byKey["TEST-2"].EpicName != "" {
		t.Errorf("Issue without epic link must leave epic fields empty, got %q", byKey["TEST-2"].EpicName)
	}
}

func TestMergeRecordsUnresolvedEpicLink(t *testing.T) {
	issues := []IssueRecord{{Key: "TEST-1", EpicLink: "GONE-1"}}

	merged := MergeRecords(issues, nil, nil)
	if len(merged) != 1 {
		t.Fatalf("Expected 1 merged record, got %d", len(merged))
	}
	if merged[0].EpicName != "" || merged[0].EpicSummary != "" {
		t.Errorf("Unresolved epic link must leave epic fields empty, got %+v", merged[0])
	}
}
