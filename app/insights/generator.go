package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sashabaranov/go-openai"
)

const systemPersona = "You are a skilled business analyst who provides insightful analysis " +
	"of Jira data. Your insights should be data-driven, actionable, and presented in a " +
	"clear, professional manner suitable for executive presentations."

const (
	completionTemperature = 0.2
	completionMaxTokens   = 2000
	readLimit             = 1000
)

// Kinds lists the insight reports a full run produces, in order.
var Kinds = []string{"general", "sprint", "team", "priority"}

// Reader supplies the issue records insights are generated from.
type Reader interface {
	AllIssues(ctx context.Context, limit int) []map[string]any
	IssuesByPriority(ctx context.Context, priority string) []map[string]any
}

// Result is one generated insight report. A failed model call yields a
// Result with Error set instead of aborting the run.
type Result struct {
	Type         string            `json:"type"`
	Timestamp    string            `json:"timestamp"`
	Model        string            `json:"model"`
	DataCount    int               `json:"data_count"`
	InsightsText string            `json:"insights_text"`
	Sections     map[string]string `json:"sections"`
	Error        string            `json:"error,omitempty"`
}

type Generator struct {
	client    *openai.Client
	model     string
	reader    Reader
	outputDir string
}

func NewGenerator(apiKey, baseURL, model string, reader Reader, outputDir string) *Generator {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Generator{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		reader:    reader,
		outputDir: outputDir,
	}
}

// Generate produces one insight report of the given kind.
func (g *Generator) Generate(ctx context.Context, kind string) *Result {
	result := &Result{
		Type:      kind,
		Timestamp: time.Now().Format(time.RFC3339),
		Model:     g.model,
	}

	issues, prompt, err := g.prepare(ctx, kind)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.DataCount = len(issues)

	text, err := g.complete(ctx, prompt)
	if err != nil {
		slog.Error("Insight generation failed", "type", kind, "error", err)
		result.Error = err.Error()
		return result
	}

	result.InsightsText = text
	result.Sections = ParseSections(text)
	return result
}

// GenerateAll runs every insight kind and persists each report to
// <kind>_insights.json. Model failures are recorded in the report;
// only persistence failures abort.
func (g *Generator) GenerateAll(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, len(Kinds))

	for _, kind := range Kinds {
		result := g.Generate(ctx, kind)

		if err := g.save(result); err != nil {
			return nil, err
		}

		slog.Info("Generated insights", "type", kind, "data_count", result.DataCount, "failed", result.Error != "")
		results = append(results, result)
	}

	return results, nil
}

func (g *Generator) prepare(ctx context.Context, kind string) ([]map[string]any, string, error) {
	switch kind {
	case "general":
		issues := g.reader.AllIssues(ctx, readLimit)
		return issues, BuildGeneralPrompt(issues), nil
	case "sprint":
		issues := g.reader.AllIssues(ctx, readLimit)
		return issues, BuildSprintPrompt(issues), nil
	case "team":
		issues := g.reader.AllIssues(ctx, readLimit)
		return issues, BuildTeamPrompt(issues), nil
	case "priority":
		issues := g.reader.IssuesByPriority(ctx, "High")
		return issues, BuildPriorityPrompt(issues), nil
	default:
		return nil, "", fmt.Errorf("unknown insight type: %s", kind)
	}
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPersona},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *Generator) save(result *Result) error {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create insights directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	path := filepath.Join(g.outputDir, result.Type+"_insights.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write insights file: %w", err)
	}

	return nil
}

// Load reads a previously persisted insight report of the given kind.
func Load(dir, kind string) (*Result, error) {
	data, err := os.ReadFile(filepath.Join(dir, kind+"_insights.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read insights file: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse insights file: %w", err)
	}

	return &result, nil
}
