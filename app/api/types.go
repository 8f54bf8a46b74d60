package api

import (
	"context"
	"time"

	"github.com/mdubba/jira-insights/app/pipeline"
	"github.com/mdubba/jira-insights/app/vectorstore"
)

type RunnerInterface interface {
	Run(ctx context.Context, projectKey string, skip map[pipeline.Stage]bool) (*pipeline.RunResult, error)
	LastRun() (time.Time, error)
	LatestSnapshot(projectKey string) (string, error)
}

var _ RunnerInterface = (*pipeline.Pipeline)(nil)

type ReaderInterface interface {
	Search(ctx context.Context, query string, limit int) []map[string]any
	IssuesByPriority(ctx context.Context, priority string) []map[string]any
	IssuesByStatus(ctx context.Context, status string) []map[string]any
	IssuesByType(ctx context.Context, issueType string) []map[string]any
	AllIssues(ctx context.Context, limit int) []map[string]any
}

var _ ReaderInterface = (*vectorstore.Store)(nil)

type Handler struct {
	runner         RunnerInterface
	reader         ReaderInterface
	defaultProject string
	insightsDir    string
	running        chan struct{}
}

// runRequest is the optional POST /api/run body.
type runRequest struct {
	ProjectKey string   `json:"project_key"`
	Skip       []string `json:"skip"`
}
