package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mdubba/jira-insights/app/insights"
	"github.com/mdubba/jira-insights/app/pipeline"
)

func NewHandler(runner RunnerInterface, reader ReaderInterface, defaultProject, insightsDir string) *Handler {
	h := &Handler{
		runner:         runner,
		reader:         reader,
		defaultProject: defaultProject,
		insightsDir:    insightsDir,
		running:        make(chan struct{}, 1),
	}
	h.running <- struct{}{}
	return h
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if lastRun, err := h.runner.LastRun(); err == nil {
		health["last_run"] = lastRun.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}

// APIRun triggers a full pipeline run. Only one run executes at a time;
// a second request while one is in flight gets 409.
func (h *Handler) APIRun(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "Invalid request body: " + err.Error(),
			})
			return
		}
	}

	skip, err := pipeline.ParseSkips(req.Skip)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	projectKey := req.ProjectKey
	if projectKey == "" {
		projectKey = h.defaultProject
	}

	select {
	case <-h.running:
	default:
		c.JSON(http.StatusConflict, gin.H{
			"status":  "error",
			"message": "A pipeline run is already in progress",
		})
		return
	}
	defer func() { h.running <- struct{}{} }()

	result, err := h.runner.Run(c.Request.Context(), projectKey, skip)
	if err != nil {
		slog.Error("Pipeline run failed", "project", projectKey, "error", err)
		c.JSON(http.StatusInternalServerError, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// APIStatus reports the last run and which insight reports exist on disk.
func (h *Handler) APIStatus(c *gin.Context) {
	status := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if lastRun, err := h.runner.LastRun(); err == nil {
		status["last_run"] = lastRun.Format(time.RFC3339)
	} else {
		status["last_run"] = nil
	}

	if snapshot, err := h.runner.LatestSnapshot(h.defaultProject); err == nil {
		status["latest_snapshot"] = snapshot
	} else {
		status["latest_snapshot"] = nil
	}

	reports := map[string]interface{}{}
	for _, kind := range insights.Kinds {
		path := filepath.Join(h.insightsDir, kind+"_insights.json")
		if info, err := os.Stat(path); err == nil {
			reports[kind] = map[string]interface{}{
				"present":     true,
				"modified_at": info.ModTime().Format(time.RFC3339),
			}
		} else {
			reports[kind] = map[string]interface{}{"present": false}
		}
	}
	status["insights"] = reports

	c.JSON(http.StatusOK, status)
}

// APISearch runs a semantic query against the vector store.
func (h *Handler) APISearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing q parameter"})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	issues := h.reader.Search(c.Request.Context(), query, limit)

	c.JSON(http.StatusOK, map[string]interface{}{
		"query":  query,
		"issues": issues,
		"total":  len(issues),
	})
}

// APIListIssues returns stored issues, optionally filtered by exactly
// one of priority, status, or type.
func (h *Handler) APIListIssues(c *gin.Context) {
	priority := c.Query("priority")
	status := c.Query("status")
	issueType := c.Query("type")

	filters := 0
	for _, v := range []string{priority, status, issueType} {
		if v != "" {
			filters++
		}
	}
	if filters > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Use at most one of priority, status, type"})
		return
	}

	ctx := c.Request.Context()

	var issues []map[string]any
	switch {
	case priority != "":
		issues = h.reader.IssuesByPriority(ctx, priority)
	case status != "":
		issues = h.reader.IssuesByStatus(ctx, status)
	case issueType != "":
		issues = h.reader.IssuesByType(ctx, issueType)
	default:
		issues = h.reader.AllIssues(ctx, 100)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"issues": issues,
		"total":  len(issues),
	})
}
