package cfg

type Cfg struct {
	// Jira configuration
	JiraURL        string
	JiraUsername   string
	JiraAPIToken   string
	JiraProjectKey string

	// OpenAI configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Weaviate configuration
	WeaviateHost   string
	WeaviateScheme string
	WeaviateAPIKey string
	EmbeddingModel string

	// Beautiful.ai configuration
	BeautifulAIAPIKey  string
	BeautifulAIBaseURL string

	// Pipeline directories
	JiraDataDir      string
	ProcessedDataDir string
	InsightsDir      string
	PresentationsDir string

	// Application configuration
	Serve          bool
	SkipStages     []string
	Port           string
	APIAccessKey   string
	RateLimitDelay int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
