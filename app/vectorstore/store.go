package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/mdubba/jira-insights/app/processor"
)

const ClassName = "JiraIssue"

// Object IDs are derived from the issue key under this namespace, so
// re-imports overwrite instead of duplicating.
var idNamespace = uuid.MustParse("8c2b54f0-41d3-5a89-9e0c-6a27e1f0b9d4")

// Store adapts the pipeline to a remote Weaviate instance: schema
// management, batched import of vector-ready items, and the read
// operations later stages query.
type Store struct {
	client         *weaviate.Client
	embeddingModel string
}

func NewStore(host, scheme, apiKey, embeddingModel string) (*Store, error) {
	config := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if apiKey != "" {
		config.AuthConfig = auth.ApiKey{Value: apiKey}
	}

	client, err := weaviate.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	return &Store{
		client:         client,
		embeddingModel: embeddingModel,
	}, nil
}

// EnsureSchema creates the JiraIssue class unless it already exists.
func (s *Store) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().
		WithClassName(ClassName).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}

	if exists {
		slog.Info("Schema already exists, skipping creation", "class", ClassName)
		return nil
	}

	class := &models.Class{
		Class:       ClassName,
		Description: "A Jira issue with all related data",
		Vectorizer:  "text2vec-openai",
		ModuleConfig: map[string]any{
			"text2vec-openai": map[string]any{
				"model": s.embeddingModel,
				"type":  "text",
			},
		},
		Properties: []*models.Property{
			{Name: "issue_key", DataType: []string{"string"}, Description: "The key of the Jira issue (e.g., PROJECT-123)"},
			{Name: "summary", DataType: []string{"text"}, Description: "The summary of the Jira issue"},
			{Name: "description", DataType: []string{"text"}, Description: "The description of the Jira issue"},
			{Name: "issue_type", DataType: []string{"string"}, Description: "The type of the Jira issue (e.g., Bug, Story, Task)"},
			{Name: "status", DataType: []string{"string"}, Description: "The status of the Jira issue (e.g., Open, In Progress, Done)"},
			{Name: "priority", DataType: []string{"string"}, Description: "The priority of the Jira issue (e.g., High, Medium, Low)"},
			{Name: "assignee", DataType: []string{"string"}, Description: "The assignee of the Jira issue"},
			{Name: "reporter", DataType: []string{"string"}, Description: "The reporter of the Jira issue"},
			{Name: "created_date", DataType: []string{"date"}, Description: "The creation date of the Jira issue"},
			{Name: "updated_date", DataType: []string{"date"}, Description: "The last update date of the Jira issue"},
			{Name: "labels", DataType: []string{"string"}, Description: "The labels of the Jira issue"},
			{Name: "components", DataType: []string{"string"}, Description: "The components of the Jira issue"},
			{Name: "epic_link", DataType: []string{"string"}, Description: "The key of the epic this issue belongs to"},
			{Name: "epic_name", DataType: []string{"string"}, Description: "The name of the epic this issue belongs to"},
			{Name: "epic_summary", DataType: []string{"text"}, Description: "The summary of the epic this issue belongs to"},
			{Name: "comments", DataType: []string{"text"}, Description: "The comments on the Jira issue"},
			{Name: "text_content", DataType: []string{"text"}, Description: "The full text content of the Jira issue for vectorization"},
		},
	}

	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("Created class in schema", "class", ClassName)
	return nil
}

// Import batch-loads vector-ready items. Item IDs are derived from the
// issue key, so re-imports overwrite. Individual item failures are
// logged and skipped; only a failed batch call is an error.
func (s *Store) Import(ctx context.Context, items []processor.VectorReadyItem) error {
	if len(items) == 0 {
		slog.Warn("No vector-ready items to import")
		return nil
	}

	objects := make([]*models.Object, 0, len(items))
	for _, item := range items {
		objects = append(objects, &models.Object{
			Class:      ClassName,
			ID:         strfmt.UUID(ObjectID(item.Metadata.Key)),
			Properties: itemProperties(item),
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch import failed: %w", err)
	}

	imported := 0
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			slog.Error("Failed to import item",
				"id", r.ID,
				"error", r.Result.Errors.Error[0].Message)
			continue
		}
		imported++
	}

	slog.Info("Imported items", "class", ClassName, "total", len(items), "imported", imported)
	return nil
}

// ObjectID returns the deterministic object UUID for an issue key.
func ObjectID(issueKey string) string {
	return uuid.NewSHA1(idNamespace, []byte(issueKey)).String()
}

func itemProperties(item processor.VectorReadyItem) map[string]any {
	return map[string]any{
		"issue_key":    item.Metadata.Key,
		"summary":      item.Metadata.Summary,
		"description":  item.Metadata.Description,
		"issue_type":   item.Metadata.Type,
		"status":       item.Metadata.Status,
		"priority":     item.Metadata.Priority,
		"assignee":     item.Metadata.Assignee,
		"reporter":     item.Metadata.Reporter,
		"created_date": qualifyDate(item.Metadata.Created),
		"updated_date": qualifyDate(item.Metadata.Updated),
		"labels":       item.Metadata.Labels,
		"components":   item.Metadata.Components,
		"epic_name":    item.Metadata.Epic,
		"epic_summary": item.Metadata.EpicSummary,
		"comments":     item.Metadata.Comments,
		"text_content": item.Text,
	}
}

// qualifyDate upgrades a calendar-day string to a full RFC 3339
// timestamp; values already time-qualified pass through.
func qualifyDate(date string) string {
	if date == "" || strings.Contains(date, "T") {
		return date
	}
	return date + "T00:00:00Z"
}

var issueProperties = []graphql.Field{
	{Name: "issue_key"}, {Name: "summary"}, {Name: "description"},
	{Name: "issue_type"}, {Name: "status"}, {Name: "priority"},
	{Name: "assignee"}, {Name: "reporter"}, {Name: "created_date"},
	{Name: "updated_date"}, {Name: "labels"}, {Name: "components"},
	{Name: "epic_name"}, {Name: "epic_summary"}, {Name: "comments"},
}

// Search runs a nearest-neighbor text query. Remote errors degrade to an
// empty result; reads never fail outward.
func (s *Store) Search(ctx context.Context, query string, limit int) []map[string]any {
	nearText := s.client.GraphQL().NearTextArgBuilder().WithConcepts([]string{query})

	res, err := s.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(issueProperties...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		slog.Error("Semantic search failed", "query", query, "error", err)
		return []map[string]any{}
	}

	return extractIssues(res)
}

func (s *Store) IssuesByPriority(ctx context.Context, priority string) []map[string]any {
	return s.issuesWhere(ctx, "priority", priority)
}

func (s *Store) IssuesByStatus(ctx context.Context, status string) []map[string]any {
	return s.issuesWhere(ctx, "status", status)
}

func (s *Store) IssuesByType(ctx context.Context, issueType string) []map[string]any {
	return s.issuesWhere(ctx, "issue_type", issueType)
}

// AllIssues fetches up to limit issues with no filter.
func (s *Store) AllIssues(ctx context.Context, limit int) []map[string]any {
	res, err := s.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(issueProperties...).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		slog.Error("Bulk fetch failed", "error", err)
		return []map[string]any{}
	}

	return extractIssues(res)
}

func (s *Store) issuesWhere(ctx context.Context, field, value string) []map[string]any {
	where := filters.Where().
		WithPath([]string{field}).
		WithOperator(filters.Equal).
		WithValueString(value)

	res, err := s.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(issueProperties...).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		slog.Error("Filtered fetch failed", "field", field, "value", value, "error", err)
		return []map[string]any{}
	}

	return extractIssues(res)
}

func extractIssues(res *models.GraphQLResponse) []map[string]any {
	if len(res.Errors) > 0 {
		slog.Error("GraphQL query returned errors", "error", res.Errors[0].Message)
		return []map[string]any{}
	}

	get, ok := res.Data["Get"].(map[string]any)
	if !ok {
		return []map[string]any{}
	}

	raw, ok := get[ClassName].([]any)
	if !ok {
		return []map[string]any{}
	}

	issues := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			issues = append(issues, m)
		}
	}

	return issues
}
