package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Fields requested from the issue search endpoint. Story points live in a
// custom field on standard Jira Cloud setups.
var issueFields = []string{
	"summary", "description", "status", "priority", "issuetype",
	"created", "updated", "assignee", "reporter", "labels", "components",
	"epic", "customfield_10002",
}

const issueSearchMaxResults = 100

// Extractor pulls projects, boards, sprints, epics, issues and comments
// from Jira and persists every sub-extraction as its own JSON snapshot.
type Extractor struct {
	client    *Client
	outputDir string
	delay     time.Duration
}

func NewExtractor(client *Client, outputDir string, delay time.Duration) *Extractor {
	return &Extractor{
		client:    client,
		outputDir: outputDir,
		delay:     delay,
	}
}

func (e *Extractor) ExtractProjects(ctx context.Context) ([]Entity, error) {
	slog.Info("Extracting projects")

	var projects []Entity
	if err := e.client.GetJSON(ctx, "/rest/api/3/project", nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to extract projects: %w", err)
	}

	if err := e.saveJSON(projects, "projects.json"); err != nil {
		return nil, err
	}

	return projects, nil
}

func (e *Extractor) ExtractBoards(ctx context.Context, projectKey string) ([]Entity, error) {
	slog.Info("Extracting boards", "project", orAll(projectKey))

	params := url.Values{}
	if projectKey != "" {
		params.Set("projectKeyOrId", projectKey)
	}

	var page struct {
		Values []Entity `json:"values"`
	}
	if err := e.client.GetJSON(ctx, "/rest/agile/1.0/board", params, &page); err != nil {
		return nil, fmt.Errorf("failed to extract boards: %w", err)
	}

	if err := e.saveJSON(page, fmt.Sprintf("boards_%s.json", orAll(projectKey))); err != nil {
		return nil, err
	}

	return page.Values, nil
}

func (e *Extractor) ExtractSprints(ctx context.Context, boardID int) ([]Entity, error) {
	slog.Info("Extracting sprints", "board", boardID)

	var page struct {
		Values []Entity `json:"values"`
	}
	endpoint := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
	if err := e.client.GetJSON(ctx, endpoint, nil, &page); err != nil {
		return nil, fmt.Errorf("failed to extract sprints for board %d: %w", boardID, err)
	}

	if err := e.saveJSON(page, fmt.Sprintf("sprints_board_%d.json", boardID)); err != nil {
		return nil, err
	}

	return page.Values, nil
}

func (e *Extractor) ExtractEpics(ctx context.Context, boardID int) ([]Entity, error) {
	slog.Info("Extracting epics", "board", boardID)

	var page struct {
		Values []Entity `json:"values"`
	}
	endpoint := fmt.Sprintf("/rest/agile/1.0/board/%d/epic", boardID)
	if err := e.client.GetJSON(ctx, endpoint, nil, &page); err != nil {
		return nil, fmt.Errorf("failed to extract epics for board %d: %w", boardID, err)
	}

	if err := e.saveJSON(page, fmt.Sprintf("epics_board_%d.json", boardID)); err != nil {
		return nil, err
	}

	return page.Values, nil
}

func (e *Extractor) ExtractIssues(ctx context.Context, projectKey string) ([]Entity, error) {
	slog.Info("Extracting issues", "project", orAll(projectKey))

	params := url.Values{}
	if projectKey != "" {
		params.Set("jql", fmt.Sprintf("project = %s", projectKey))
	}
	params.Set("maxResults", strconv.Itoa(issueSearchMaxResults))
	params.Set("fields", strings.Join(issueFields, ","))

	var page struct {
		Issues []Entity `json:"issues"`
	}
	if err := e.client.GetJSON(ctx, "/rest/api/3/search", params, &page); err != nil {
		return nil, fmt.Errorf("failed to extract issues: %w", err)
	}

	if err := e.saveJSON(page, fmt.Sprintf("issues_%s.json", orAll(projectKey))); err != nil {
		return nil, err
	}

	return page.Issues, nil
}

// ExtractIssueDetails fetches the full representation of a single issue.
func (e *Extractor) ExtractIssueDetails(ctx context.Context, issueKey string) (Entity, error) {
	slog.Info("Extracting issue details", "issue", issueKey)

	var issue Entity
	endpoint := "/rest/api/3/issue/" + issueKey
	if err := e.client.GetJSON(ctx, endpoint, nil, &issue); err != nil {
		return nil, fmt.Errorf("failed to extract issue %s: %w", issueKey, err)
	}

	if err := e.saveJSON(issue, fmt.Sprintf("issue_%s.json", issueKey)); err != nil {
		return nil, err
	}

	return issue, nil
}

func (e *Extractor) ExtractComments(ctx context.Context, issueKey string) ([]Entity, error) {
	slog.Info("Extracting comments", "issue", issueKey)

	var page struct {
		Comments []Entity `json:"comments"`
	}
	endpoint := fmt.Sprintf("/rest/api/3/issue/%s/comment", issueKey)
	if err := e.client.GetJSON(ctx, endpoint, nil, &page); err != nil {
		return nil, fmt.Errorf("failed to extract comments for %s: %w", issueKey, err)
	}

	if err := e.saveJSON(page, fmt.Sprintf("comments_%s.json", issueKey)); err != nil {
		return nil, err
	}

	return page.Comments, nil
}

// ExtractAll traverses the full Jira hierarchy for one project (or all
// projects when projectKey is empty) and writes an aggregated snapshot.
// Sub-extractions are persisted incrementally, so a failure partway
// through still leaves the earlier entity files on disk.
func (e *Extractor) ExtractAll(ctx context.Context, projectKey string) (*Snapshot, string, error) {
	slog.Info("Extracting all data", "project", orAll(projectKey))

	timestamp := time.Now().Format("20060102_150405")

	projects, err := e.ExtractProjects(ctx)
	if err != nil {
		return nil, "", err
	}

	if projectKey != "" {
		filtered := make([]Entity, 0, 1)
		for _, p := range projects {
			if key, _ := p["key"].(string); key == projectKey {
				filtered = append(filtered, p)
			}
		}
		projects = filtered
	}

	snapshot := &Snapshot{
		Metadata: SnapshotMetadata{
			Timestamp:  timestamp,
			ProjectKey: projectKey,
		},
		Projects: projects,
		Boards:   []Entity{},
		Sprints:  []Entity{},
		Epics:    []Entity{},
		Issues:   []Entity{},
		Comments: []Entity{},
	}

	for _, project := range projects {
		key, _ := project["key"].(string)

		boards, err := e.ExtractBoards(ctx, key)
		if err != nil {
			return nil, "", err
		}
		snapshot.Boards = append(snapshot.Boards, boards...)

		for _, board := range boards {
			boardID := entityID(board)

			sprints, err := e.ExtractSprints(ctx, boardID)
			if err != nil {
				return nil, "", err
			}
			snapshot.Sprints = append(snapshot.Sprints, sprints...)

			epics, err := e.ExtractEpics(ctx, boardID)
			if err != nil {
				return nil, "", err
			}
			snapshot.Epics = append(snapshot.Epics, epics...)
		}

		issues, err := e.ExtractIssues(ctx, key)
		if err != nil {
			return nil, "", err
		}
		snapshot.Issues = append(snapshot.Issues, issues...)

		for _, issue := range issues {
			issueKey, _ := issue["key"].(string)

			comments, err := e.ExtractComments(ctx, issueKey)
			if err != nil {
				return nil, "", err
			}

			// Tag each comment with its owning issue so the processor
			// can group them later.
			for _, comment := range comments {
				comment["issue_key"] = issueKey
			}
			snapshot.Comments = append(snapshot.Comments, comments...)
		}

		// Fixed delay per project to stay under Jira rate limits
		if e.delay > 0 {
			time.Sleep(e.delay)
		}
	}

	filename := fmt.Sprintf("jira_complete_data_%s_%s.json", orAll(projectKey), timestamp)
	if err := e.saveJSON(snapshot, filename); err != nil {
		return nil, "", err
	}

	slog.Info("Extraction completed",
		"project", orAll(projectKey),
		"projects", len(snapshot.Projects),
		"boards", len(snapshot.Boards),
		"sprints", len(snapshot.Sprints),
		"epics", len(snapshot.Epics),
		"issues", len(snapshot.Issues),
		"comments", len(snapshot.Comments))

	return snapshot, filepath.Join(e.outputDir, filename), nil
}

func (e *Extractor) saveJSON(data any, filename string) error {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}

	path := filepath.Join(e.outputDir, filename)
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	slog.Debug("Saved snapshot", "file", path)
	return nil
}

func entityID(entity Entity) int {
	switch v := entity["id"].(type) {
	case float64:
		return int(v)
	case string:
		id, _ := strconv.Atoi(v)
		return id
	default:
		return 0
	}
}

func orAll(projectKey string) string {
	if projectKey == "" {
		return "all"
	}
	return projectKey
}
