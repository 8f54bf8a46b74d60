package processor

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mdubba/jira-insights/app/jira"
)

// Processor converts raw snapshots into normalized records and persists
// both tabular (CSV) and document (JSON) representations plus the
// vector-ready document set.
type Processor struct {
	outputDir string
}

// Result is the in-memory output of one processing run. Downstream
// stages normally re-read the persisted artifacts instead of holding on
// to this.
type Result struct {
	Issues   []IssueRecord
	Comments []CommentRecord
	Sprints  []SprintRecord
	Epics    []EpicRecord
	Merged   []MergedRecord
	Items    []VectorReadyItem
}

func NewProcessor(outputDir string) *Processor {
	return &Processor{outputDir: outputDir}
}

// LoadSnapshot reads an aggregated extraction snapshot from disk.
func LoadSnapshot(path string) (*jira.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snapshot jira.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}

	return &snapshot, nil
}

// Run processes the snapshot at the given path end to end: per-entity
// normalization, the comment/epic merge, and vector-ready preparation.
func (p *Processor) Run(snapshotPath string) (*Result, error) {
	slog.Info("Processing snapshot", "file", snapshotPath)

	snapshot, err := LoadSnapshot(snapshotPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Issues:   NormalizeIssues(snapshot.Issues),
		Comments: NormalizeComments(snapshot.Comments),
		Sprints:  NormalizeSprints(snapshot.Sprints),
		Epics:    NormalizeEpics(snapshot.Epics),
	}
	result.Merged = MergeRecords(result.Issues, result.Comments, result.Epics)
	result.Items = BuildVectorReady(result.Merged)

	if err := p.persist(result); err != nil {
		return nil, err
	}

	slog.Info("Processing completed",
		"issues", len(result.Issues),
		"comments", len(result.Comments),
		"sprints", len(result.Sprints),
		"epics", len(result.Epics),
		"vector_ready", len(result.Items))

	return result, nil
}

// LoadVectorReady reads the persisted vector-ready document set, letting
// later stages run without re-processing.
func (p *Processor) LoadVectorReady() ([]VectorReadyItem, error) {
	path := filepath.Join(p.outputDir, "vector_ready_data.json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var items []VectorReadyItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return items, nil
}

// LoadMerged reads the persisted merged record set.
func (p *Processor) LoadMerged() ([]MergedRecord, error) {
	path := filepath.Join(p.outputDir, "merged_jira_data.json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var merged []MergedRecord
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return merged, nil
}

func (p *Processor) persist(result *Result) error {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	steps := []struct {
		json string
		data any
		csv  string
		rows func() ([]string, [][]string)
	}{
		{"processed_issues.json", result.Issues, "processed_issues.csv", func() ([]string, [][]string) { return issueTable(result.Issues) }},
		{"processed_comments.json", result.Comments, "processed_comments.csv", func() ([]string, [][]string) { return commentTable(result.Comments) }},
		{"processed_sprints.json", result.Sprints, "processed_sprints.csv", func() ([]string, [][]string) { return sprintTable(result.Sprints) }},
		{"processed_epics.json", result.Epics, "processed_epics.csv", func() ([]string, [][]string) { return epicTable(result.Epics) }},
		{"merged_jira_data.json", result.Merged, "merged_jira_data.csv", func() ([]string, [][]string) { return mergedTable(result.Merged) }},
	}

	for _, step := range steps {
		if err := p.saveJSON(step.data, step.json); err != nil {
			return err
		}
		headers, rows := step.rows()
		if err := p.saveCSV(step.csv, headers, rows); err != nil {
			return err
		}
	}

	return p.saveJSON(result.Items, "vector_ready_data.json")
}

func (p *Processor) saveJSON(data any, filename string) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}

	path := filepath.Join(p.outputDir, filename)
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	slog.Debug("Saved artifact", "file", path)
	return nil
}

func (p *Processor) saveCSV(filename string, headers []string, rows [][]string) error {
	path := filepath.Join(p.outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}

	slog.Debug("Saved artifact", "file", path)
	return nil
}

func issueTable(issues []IssueRecord) ([]string, [][]string) {
	headers := []string{"id", "key", "summary", "description", "status",
		"priority", "issue_type", "created_date", "updated_date", "assignee",
		"reporter", "labels", "components", "epic_link", "sprint", "story_points"}

	rows := make([][]string, 0, len(issues))
	for _, r := range issues {
		rows = append(rows, []string{r.ID, r.Key, r.Summary, r.Description,
			r.Status, r.Priority, r.IssueType, r.CreatedDate, r.UpdatedDate,
			r.Assignee, r.Reporter, r.Labels, r.Components, r.EpicLink,
			r.Sprint, formatPoints(r.StoryPoints)})
	}

	return headers, rows
}

func commentTable(comments []CommentRecord) ([]string, [][]string) {
	headers := []string{"id", "issue_key", "author", "created_date", "updated_date", "content"}

	rows := make([][]string, 0, len(comments))
	for _, r := range comments {
		rows = append(rows, []string{r.ID, r.IssueKey, r.Author, r.CreatedDate, r.UpdatedDate, r.Content})
	}

	return headers, rows
}

func sprintTable(sprints []SprintRecord) ([]string, [][]string) {
	headers := []string{"id", "name", "state", "start_date", "end_date", "board_id", "goal"}

	rows := make([][]string, 0, len(sprints))
	for _, r := range sprints {
		rows = append(rows, []string{strconv.Itoa(r.ID), r.Name, r.State,
			r.StartDate, r.EndDate, strconv.Itoa(r.BoardID), r.Goal})
	}

	return headers, rows
}

func epicTable(epics []EpicRecord) ([]string, [][]string) {
	headers := []string{"id", "key", "name", "summary", "description", "status", "created_date", "updated_date"}

	rows := make([][]string, 0, len(epics))
	for _, r := range epics {
		rows = append(rows, []string{r.ID, r.Key, r.Name, r.Summary, r.Description, r.Status, r.CreatedDate, r.UpdatedDate})
	}

	return headers, rows
}

func mergedTable(merged []MergedRecord) ([]string, [][]string) {
	headers := []string{"id", "key", "summary", "description", "status",
		"priority", "issue_type", "created_date", "updated_date", "assignee",
		"reporter", "labels", "components", "epic_link", "sprint", "story_points",
		"comments", "epic_name", "epic_summary", "epic_description"}

	rows := make([][]string, 0, len(merged))
	for _, r := range merged {
		rows = append(rows, []string{r.ID, r.Key, r.Summary, r.Description,
			r.Status, r.Priority, r.IssueType, r.CreatedDate, r.UpdatedDate,
			r.Assignee, r.Reporter, r.Labels, r.Components, r.EpicLink,
			r.Sprint, formatPoints(r.StoryPoints), r.Comments, r.EpicName,
			r.EpicSummary, r.EpicDescription})
	}

	return headers, rows
}

func formatPoints(points *float64) string {
	if points == nil {
		return ""
	}
	return strconv.FormatFloat(*points, 'f', -1, 64)
}
