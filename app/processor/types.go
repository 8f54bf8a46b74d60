package processor

// Flattened record types for the processed (tabular) representations.
// Empty strings stand in for missing values; the merge step guarantees
// no other null form leaks downstream.

type IssueRecord struct {
	ID          string   `json:"id"`
	Key         string   `json:"key"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	IssueType   string   `json:"issue_type"`
	CreatedDate string   `json:"created_date"`
	UpdatedDate string   `json:"updated_date"`
	Assignee    string   `json:"assignee"`
	Reporter    string   `json:"reporter"`
	Labels      string   `json:"labels"`
	Components  string   `json:"components"`
	EpicLink    string   `json:"epic_link"`
	Sprint      string   `json:"sprint"`
	StoryPoints *float64 `json:"story_points"`
}

type CommentRecord struct {
	ID          string `json:"id"`
	IssueKey    string `json:"issue_key"`
	Author      string `json:"author"`
	CreatedDate string `json:"created_date"`
	UpdatedDate string `json:"updated_date"`
	Content     string `json:"content"`
}

type SprintRecord struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	BoardID   int    `json:"board_id"`
	Goal      string `json:"goal"`
}

type EpicRecord struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedDate string `json:"created_date"`
	UpdatedDate string `json:"updated_date"`
}

// MergedRecord is one issue joined with its concatenated comments and,
// when the epic link resolves, the epic's details.
type MergedRecord struct {
	IssueRecord
	Comments        string `json:"comments"`
	EpicName        string `json:"epic_name"`
	EpicSummary     string `json:"epic_summary"`
	EpicDescription string `json:"epic_description"`
}

// ItemMetadata mirrors the normalized fields of one merged record.
type ItemMetadata struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`
	Reporter    string `json:"reporter"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
	Labels      string `json:"labels"`
	Components  string `json:"components"`
	Epic        string `json:"epic"`
	EpicSummary string `json:"epic_summary"`
	Comments    string `json:"comments"`
}

// VectorReadyItem is the embedding-ready form of one merged record: a
// single markup-free text blob plus structured metadata.
type VectorReadyItem struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Metadata ItemMetadata `json:"metadata"`
}
