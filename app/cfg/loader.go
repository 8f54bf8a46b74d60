package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Jira configuration
	JiraURL        string `long:"jira-url" env:"JIRA_URL" description:"Base URL of the Jira instance (e.g., https://your-domain.atlassian.net)"`
	JiraUsername   string `long:"jira-username" env:"JIRA_USERNAME" description:"Jira username (usually email)"`
	JiraAPIToken   string `long:"jira-api-token" env:"JIRA_API_TOKEN" description:"Jira API token"`
	JiraProjectKey string `long:"project" env:"JIRA_PROJECT_KEY" description:"Default Jira project key"`

	// OpenAI configuration
	OpenAIAPIKey string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key"`
	OpenAIModel  string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o" description:"OpenAI chat model for insight generation"`

	// Weaviate configuration
	WeaviateHost   string `long:"weaviate-host" env:"WEAVIATE_HOST" default:"localhost:8080" description:"Weaviate host (host:port)"`
	WeaviateScheme string `long:"weaviate-scheme" env:"WEAVIATE_SCHEME" default:"http" description:"Weaviate scheme (http or https)"`
	WeaviateAPIKey string `long:"weaviate-api-key" env:"WEAVIATE_API_KEY" description:"Weaviate API key (optional)"`
	EmbeddingModel string `long:"embedding-model" env:"EMBEDDING_MODEL" default:"text-embedding-3-small" description:"Remote embedding model used by the vector store"`

	// Beautiful.ai configuration
	BeautifulAIAPIKey  string `long:"beautiful-ai-api-key" env:"BEAUTIFUL_AI_API_KEY" description:"Beautiful.ai API key"`
	BeautifulAIBaseURL string `long:"beautiful-ai-base-url" env:"BEAUTIFUL_AI_BASE_URL" default:"https://api.beautiful.ai/v1" description:"Beautiful.ai API base URL"`

	// Pipeline directories
	JiraDataDir      string `long:"jira-data-dir" env:"JIRA_DATA_DIR" default:"./jira_data" description:"Directory for raw Jira snapshots"`
	ProcessedDataDir string `long:"processed-data-dir" env:"PROCESSED_DATA_DIR" default:"./processed_data" description:"Directory for processed data artifacts"`
	InsightsDir      string `long:"insights-dir" env:"INSIGHTS_DIR" default:"./insights" description:"Directory for generated insight files"`
	PresentationsDir string `long:"presentations-dir" env:"PRESENTATIONS_DIR" default:"./presentations" description:"Directory for generated presentations"`

	// Application configuration
	ConfigFile     string   `long:"config" env:"CONFIG_FILE" default:"config.yml" description:"Optional YAML file with service credentials"`
	Serve          bool     `long:"serve" env:"SERVE" description:"Run as an HTTP server instead of a one-shot pipeline run"`
	SkipStages     []string `long:"skip" env:"SKIP_STAGES" env-delim:"," description:"Pipeline stages to skip (repeatable)"`
	Port           string   `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey   string   `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the HTTP entry point (optional)"`
	RateLimitDelay int      `long:"rate-limit-delay" env:"RATE_LIMIT_DELAY" default:"1" description:"Delay in seconds after each project's extraction"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Jira Insights/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// fileCfg mirrors the credential sections of the optional YAML config file.
// File values only fill fields left unset by flags and environment.
type fileCfg struct {
	Jira struct {
		URL        string `yaml:"url"`
		Username   string `yaml:"username"`
		APIToken   string `yaml:"api_token"`
		ProjectKey string `yaml:"project_key"`
	} `yaml:"jira"`
	OpenAI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`
	Weaviate struct {
		Host   string `yaml:"host"`
		Scheme string `yaml:"scheme"`
		APIKey string `yaml:"api_key"`
	} `yaml:"weaviate"`
	BeautifulAI struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"beautiful_ai"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		JiraURL:            raw.JiraURL,
		JiraUsername:       raw.JiraUsername,
		JiraAPIToken:       raw.JiraAPIToken,
		JiraProjectKey:     raw.JiraProjectKey,
		OpenAIAPIKey:       raw.OpenAIAPIKey,
		OpenAIModel:        raw.OpenAIModel,
		WeaviateHost:       raw.WeaviateHost,
		WeaviateScheme:     raw.WeaviateScheme,
		WeaviateAPIKey:     raw.WeaviateAPIKey,
		EmbeddingModel:     raw.EmbeddingModel,
		BeautifulAIAPIKey:  raw.BeautifulAIAPIKey,
		BeautifulAIBaseURL: raw.BeautifulAIBaseURL,
		JiraDataDir:        raw.JiraDataDir,
		ProcessedDataDir:   raw.ProcessedDataDir,
		InsightsDir:        raw.InsightsDir,
		PresentationsDir:   raw.PresentationsDir,
		Serve:              raw.Serve,
		SkipStages:         raw.SkipStages,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		RateLimitDelay:     raw.RateLimitDelay,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyConfigFile(cfg, raw.ConfigFile); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// applyConfigFile fills unset credential fields from an optional YAML file.
// A missing file is not an error; a malformed one is.
func applyConfigFile(cfg *Cfg, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileCfg
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.JiraURL = cmp.Or(cfg.JiraURL, fc.Jira.URL)
	cfg.JiraUsername = cmp.Or(cfg.JiraUsername, fc.Jira.Username)
	cfg.JiraAPIToken = cmp.Or(cfg.JiraAPIToken, fc.Jira.APIToken)
	cfg.JiraProjectKey = cmp.Or(cfg.JiraProjectKey, fc.Jira.ProjectKey)
	cfg.OpenAIAPIKey = cmp.Or(cfg.OpenAIAPIKey, fc.OpenAI.APIKey)
	cfg.WeaviateAPIKey = cmp.Or(cfg.WeaviateAPIKey, fc.Weaviate.APIKey)
	cfg.BeautifulAIAPIKey = cmp.Or(cfg.BeautifulAIAPIKey, fc.BeautifulAI.APIKey)

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
