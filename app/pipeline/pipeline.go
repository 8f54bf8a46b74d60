package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mdubba/jira-insights/app/insights"
	"github.com/mdubba/jira-insights/app/jira"
	"github.com/mdubba/jira-insights/app/processor"
	"github.com/mdubba/jira-insights/app/slides"
)

const markerFileName = "last_run_timestamp.txt"

const markerTimeFormat = "2006-01-02 15:04:05"

type Extractor interface {
	ExtractAll(ctx context.Context, projectKey string) (*jira.Snapshot, string, error)
}

type SnapshotProcessor interface {
	Run(snapshotPath string) (*processor.Result, error)
	LoadVectorReady() ([]processor.VectorReadyItem, error)
}

type VectorLoader interface {
	EnsureSchema(ctx context.Context) error
	Import(ctx context.Context, items []processor.VectorReadyItem) error
}

type InsightGenerator interface {
	GenerateAll(ctx context.Context) ([]*insights.Result, error)
}

type LocalPresenter interface {
	Write(deck slides.Deck) (string, error)
}

type RemotePresenter interface {
	SyncDeck(ctx context.Context, deck slides.Deck) (*slides.Presentation, error)
}

// RunResult is the envelope a finished run reports, both on the CLI
// and through the HTTP API.
type RunResult struct {
	Status               string   `json:"status"`
	ProjectKey           string   `json:"project_key,omitempty"`
	SkippedStages        []string `json:"skipped_stages,omitempty"`
	SnapshotPath         string   `json:"snapshot_path,omitempty"`
	IssueCount           int      `json:"issue_count"`
	CommentCount         int      `json:"comment_count"`
	VectorItemCount      int      `json:"vector_item_count"`
	InsightTypes         []string `json:"insight_types,omitempty"`
	LocalPresentation    string   `json:"local_presentation,omitempty"`
	RemotePresentationID string   `json:"remote_presentation_id,omitempty"`
	StartedAt            string   `json:"started_at"`
	FinishedAt           string   `json:"finished_at"`
	Message              string   `json:"message,omitempty"`
}

// Pipeline runs the stages in order: extract, process, vectorstore,
// insights, slides, remote-sync. Skipped stages fall back to the
// artifacts a previous run left on disk.
type Pipeline struct {
	extractor   Extractor
	processor   SnapshotProcessor
	store       VectorLoader
	generator   InsightGenerator
	local       LocalPresenter
	remote      RemotePresenter
	jiraDataDir string
	insightsDir string
}

func New(extractor Extractor, proc SnapshotProcessor, store VectorLoader, generator InsightGenerator, local LocalPresenter, remote RemotePresenter, jiraDataDir, insightsDir string) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		processor:   proc,
		store:       store,
		generator:   generator,
		local:       local,
		remote:      remote,
		jiraDataDir: jiraDataDir,
		insightsDir: insightsDir,
	}
}

// Run executes every stage not present in skip. It returns an error
// result alongside the error so callers can report partial progress.
func (p *Pipeline) Run(ctx context.Context, projectKey string, skip map[Stage]bool) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{
		Status:     "success",
		ProjectKey: projectKey,
		StartedAt:  started.Format(time.RFC3339),
	}
	for _, stage := range Stages {
		if skip[stage] {
			result.SkippedStages = append(result.SkippedStages, string(stage))
		}
	}

	fail := func(err error) (*RunResult, error) {
		result.Status = "error"
		result.Message = err.Error()
		result.FinishedAt = time.Now().Format(time.RFC3339)
		return result, err
	}

	snapshotPath, err := p.runExtract(ctx, projectKey, skip, result)
	if err != nil {
		return fail(err)
	}

	items, err := p.runProcess(snapshotPath, skip, result)
	if err != nil {
		return fail(err)
	}

	if err := p.runVectorStore(ctx, items, skip, result); err != nil {
		return fail(err)
	}

	reports, err := p.runInsights(ctx, skip, result)
	if err != nil {
		return fail(err)
	}

	if err := p.runSlides(ctx, projectKey, reports, skip, result); err != nil {
		return fail(err)
	}

	if err := p.writeMarker(started); err != nil {
		return fail(err)
	}

	result.FinishedAt = time.Now().Format(time.RFC3339)
	slog.Info("Pipeline run completed",
		"project", orAll(projectKey),
		"duration", time.Since(started).Round(time.Millisecond).String(),
		"skipped", result.SkippedStages)
	return result, nil
}

func (p *Pipeline) runExtract(ctx context.Context, projectKey string, skip map[Stage]bool, result *RunResult) (string, error) {
	if skip[StageExtract] {
		path, err := p.LatestSnapshot(projectKey)
		if err != nil {
			if skip[StageProcess] {
				return "", nil
			}
			return "", fmt.Errorf("extract skipped and no snapshot available: %w", err)
		}
		slog.Info("Extract skipped, reusing snapshot", "path", path)
		result.SnapshotPath = path
		return path, nil
	}

	_, path, err := p.extractor.ExtractAll(ctx, projectKey)
	if err != nil {
		return "", fmt.Errorf("extract stage failed: %w", err)
	}
	result.SnapshotPath = path
	return path, nil
}

func (p *Pipeline) runProcess(snapshotPath string, skip map[Stage]bool, result *RunResult) ([]processor.VectorReadyItem, error) {
	if skip[StageProcess] {
		if skip[StageVectorStore] {
			return nil, nil
		}

		items, err := p.processor.LoadVectorReady()
		if err != nil {
			return nil, fmt.Errorf("process skipped and no vector-ready data available: %w", err)
		}
		slog.Info("Process skipped, reusing vector-ready data", "items", len(items))
		result.VectorItemCount = len(items)
		return items, nil
	}

	procResult, err := p.processor.Run(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("process stage failed: %w", err)
	}

	result.IssueCount = len(procResult.Issues)
	result.CommentCount = len(procResult.Comments)
	result.VectorItemCount = len(procResult.Items)
	return procResult.Items, nil
}

func (p *Pipeline) runVectorStore(ctx context.Context, items []processor.VectorReadyItem, skip map[Stage]bool, result *RunResult) error {
	if skip[StageVectorStore] {
		return nil
	}

	if err := p.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("vectorstore stage failed: %w", err)
	}
	if err := p.store.Import(ctx, items); err != nil {
		return fmt.Errorf("vectorstore stage failed: %w", err)
	}
	return nil
}

func (p *Pipeline) runInsights(ctx context.Context, skip map[Stage]bool, result *RunResult) ([]*insights.Result, error) {
	if skip[StageInsights] {
		if skip[StageSlides] {
			return nil, nil
		}

		reports := p.loadInsights()
		if len(reports) == 0 {
			return nil, fmt.Errorf("insights skipped and no insight reports available")
		}
		slog.Info("Insights skipped, reusing reports", "reports", len(reports))
		for _, r := range reports {
			result.InsightTypes = append(result.InsightTypes, r.Type)
		}
		return reports, nil
	}

	reports, err := p.generator.GenerateAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("insights stage failed: %w", err)
	}
	for _, r := range reports {
		result.InsightTypes = append(result.InsightTypes, r.Type)
	}
	return reports, nil
}

func (p *Pipeline) runSlides(ctx context.Context, projectKey string, reports []*insights.Result, skip map[Stage]bool, result *RunResult) error {
	if skip[StageSlides] && skip[StageRemoteSync] {
		return nil
	}

	deck := slides.BuildDeck(deckTitle(projectKey), reports)

	if !skip[StageSlides] {
		path, err := p.local.Write(deck)
		if err != nil {
			return fmt.Errorf("slides stage failed: %w", err)
		}
		result.LocalPresentation = path
	}

	if !skip[StageRemoteSync] {
		if p.remote == nil {
			slog.Warn("Remote sync enabled but no remote client configured, skipping")
			return nil
		}
		presentation, err := p.remote.SyncDeck(ctx, deck)
		if err != nil {
			return fmt.Errorf("remote-sync stage failed: %w", err)
		}
		result.RemotePresentationID = presentation.ID
	}
	return nil
}

// LatestSnapshot finds the newest aggregate snapshot for the project.
// Timestamps embedded in the file names sort lexicographically.
func (p *Pipeline) LatestSnapshot(projectKey string) (string, error) {
	pattern := filepath.Join(p.jiraDataDir, fmt.Sprintf("jira_complete_data_%s_*.json", orAll(projectKey)))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no snapshot matching %s", pattern)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches[0], nil
}

// LastRun reads the marker the previous successful run left behind.
func (p *Pipeline) LastRun() (time.Time, error) {
	data, err := os.ReadFile(filepath.Join(p.jiraDataDir, markerFileName))
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(markerTimeFormat, string(data))
}

func (p *Pipeline) writeMarker(started time.Time) error {
	if err := os.MkdirAll(p.jiraDataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(p.jiraDataDir, markerFileName)
	if err := os.WriteFile(path, []byte(started.Format(markerTimeFormat)), 0644); err != nil {
		return fmt.Errorf("failed to write run marker: %w", err)
	}
	return nil
}

func (p *Pipeline) loadInsights() []*insights.Result {
	var reports []*insights.Result
	for _, kind := range insights.Kinds {
		report, err := insights.Load(p.insightsDir, kind)
		if err != nil {
			slog.Warn("No stored insight report", "type", kind, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	return reports
}

func deckTitle(projectKey string) string {
	if projectKey == "" {
		return "Jira Insights: All Projects"
	}
	return "Jira Insights: " + projectKey
}

func orAll(projectKey string) string {
	if projectKey == "" {
		return "all"
	}
	return projectKey
}
