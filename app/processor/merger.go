package processor

import (
	"strings"
)

const commentDelimiter = " | "

// MergeRecords left-joins comments (grouped by owning issue key) and epic
// details (by epic-link key) onto the issue records. Every issue appears
// in the output exactly once; issues without comments get an empty
// string, and unresolved epic links leave the epic fields empty.
func MergeRecords(issues []IssueRecord, comments []CommentRecord, epics []EpicRecord) []MergedRecord {
	commentsByIssue := make(map[string][]string)
	for _, comment := range comments {
		if comment.IssueKey == "" {
			continue
		}
		commentsByIssue[comment.IssueKey] = append(commentsByIssue[comment.IssueKey], comment.Content)
	}

	epicsByKey := make(map[string]EpicRecord, len(epics))
	for _, epic := range epics {
		if epic.Key != "" {
			epicsByKey[epic.Key] = epic
		}
	}

	merged := make([]MergedRecord, 0, len(issues))
	for _, issue := range issues {
		record := MergedRecord{
			IssueRecord: issue,
			Comments:    strings.Join(commentsByIssue[issue.Key], commentDelimiter),
		}

		if issue.EpicLink != "" {
			if epic, ok := epicsByKey[issue.EpicLink]; ok {
				record.EpicName = epic.Name
				record.EpicSummary = epic.Summary
				record.EpicDescription = epic.Description
			}
		}

		merged = append(merged, record)
	}

	return merged
}
