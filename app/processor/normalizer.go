package processor

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/mdubba/jira-insights/app/jira"
)

// ParseDate standardizes a Jira ISO-8601 timestamp (with Z or explicit
// offset) to a YYYY-MM-DD calendar-day string. Absent or unparsable
// input yields "" and never an error; a bad date must not abort a batch.
func ParseDate(value string) string {
	if value == "" {
		return ""
	}

	t, err := dateparse.ParseAny(value)
	if err != nil {
		slog.Warn("Failed to parse date", "value", value, "error", err)
		return ""
	}

	return t.Format("2006-01-02")
}

// nestedString navigates a key path (e.g. fields, status, name) through
// nested maps, returning "" as soon as any intermediate key is missing.
func nestedString(data map[string]any, path ...string) string {
	current := any(data)

	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = m[key]
		if !ok {
			return ""
		}
	}

	s, _ := current.(string)
	return s
}

func nestedValue(data map[string]any, path ...string) any {
	current := any(data)

	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}

	return current
}

// NormalizeIssues flattens raw issue entities into tabular records.
func NormalizeIssues(issues []jira.Entity) []IssueRecord {
	records := make([]IssueRecord, 0, len(issues))

	for _, issue := range issues {
		fields, _ := issue["fields"].(map[string]any)
		if fields == nil {
			fields = map[string]any{}
		}

		record := IssueRecord{
			ID:          stringField(issue, "id"),
			Key:         stringField(issue, "key"),
			Summary:     stringField(fields, "summary"),
			Description: cleanValue(fields["description"]),
			Status:      nestedString(fields, "status", "name"),
			Priority:    nestedString(fields, "priority", "name"),
			IssueType:   nestedString(fields, "issuetype", "name"),
			CreatedDate: ParseDate(stringField(fields, "created")),
			UpdatedDate: ParseDate(stringField(fields, "updated")),
			Assignee:    nestedString(fields, "assignee", "displayName"),
			Reporter:    nestedString(fields, "reporter", "displayName"),
			Labels:      joinStrings(fields["labels"]),
			Components:  joinNames(fields["components"]),
			EpicLink:    nestedString(fields, "epic", "key"),
		}

		if points, ok := fields["customfield_10002"].(float64); ok {
			record.StoryPoints = &points
		}

		records = append(records, record)
	}

	return records
}

// NormalizeComments flattens raw comment entities. Each comment carries
// the issue_key tag added during extraction.
func NormalizeComments(comments []jira.Entity) []CommentRecord {
	records := make([]CommentRecord, 0, len(comments))

	for _, comment := range comments {
		records = append(records, CommentRecord{
			ID:          stringField(comment, "id"),
			IssueKey:    stringField(comment, "issue_key"),
			Author:      nestedString(comment, "author", "displayName"),
			CreatedDate: ParseDate(stringField(comment, "created")),
			UpdatedDate: ParseDate(stringField(comment, "updated")),
			Content:     cleanValue(comment["body"]),
		})
	}

	return records
}

func NormalizeSprints(sprints []jira.Entity) []SprintRecord {
	records := make([]SprintRecord, 0, len(sprints))

	for _, sprint := range sprints {
		records = append(records, SprintRecord{
			ID:        intField(sprint, "id"),
			Name:      stringField(sprint, "name"),
			State:     stringField(sprint, "state"),
			StartDate: ParseDate(stringField(sprint, "startDate")),
			EndDate:   ParseDate(stringField(sprint, "endDate")),
			BoardID:   intField(sprint, "originBoardId"),
			Goal:      stringField(sprint, "goal"),
		})
	}

	return records
}

// NormalizeEpics flattens raw epic entities. Board-level epics carry
// name/summary at the top level; issue-shaped epics nest them under
// fields, so both locations are consulted.
func NormalizeEpics(epics []jira.Entity) []EpicRecord {
	records := make([]EpicRecord, 0, len(epics))

	for _, epic := range epics {
		fields, _ := epic["fields"].(map[string]any)
		if fields == nil {
			fields = map[string]any{}
		}

		record := EpicRecord{
			ID:          stringOrNumber(epic["id"]),
			Key:         stringField(epic, "key"),
			Name:        firstNonEmpty(stringField(fields, "name"), stringField(epic, "name")),
			Summary:     firstNonEmpty(stringField(fields, "summary"), stringField(epic, "summary")),
			Description: cleanValue(firstNonNil(fields["description"], epic["description"])),
			Status:      nestedString(fields, "status", "name"),
			CreatedDate: ParseDate(stringField(fields, "created")),
			UpdatedDate: ParseDate(stringField(fields, "updated")),
		}

		records = append(records, record)
	}

	return records
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}

func stringOrNumber(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func joinStrings(value any) string {
	items, ok := value.([]any)
	if !ok {
		return ""
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, ", ")
}

func joinNames(value any) string {
	items, ok := value.([]any)
	if !ok {
		return ""
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if name, ok := m["name"].(string); ok && name != "" {
				parts = append(parts, name)
			}
		}
	}

	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
