package jira

// Jira payloads are persisted verbatim, so entities stay as generic maps
// until the processor flattens them into typed records.
type Entity = map[string]any

type SnapshotMetadata struct {
	Timestamp  string `json:"timestamp"`
	ProjectKey string `json:"project_key,omitempty"`
}

// Snapshot is the aggregated result of one extraction run. It is written
// once and never mutated; later runs supersede it with a newer timestamp.
type Snapshot struct {
	Metadata SnapshotMetadata `json:"metadata"`
	Projects []Entity         `json:"projects"`
	Boards   []Entity         `json:"boards"`
	Sprints  []Entity         `json:"sprints"`
	Epics    []Entity         `json:"epics"`
	Issues   []Entity         `json:"issues"`
	Comments []Entity         `json:"comments"`
}
