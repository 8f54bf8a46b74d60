package cfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestApplyConfigFileFillsUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	content := `
jira:
  url: https://example.atlassian.net
  username: analyst@example.com
  api_token: file-token
  project_key: SJA
openai:
  api_key: file-openai-key
weaviate:
  api_key: file-weaviate-key
beautiful_ai:
  api_key: file-bai-key
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := &Cfg{
		// Simulates a value already provided via flag/env
		JiraUsername: "flag-user@example.com",
	}

	if err := applyConfigFile(cfg, path); err != nil {
		t.Fatalf("applyConfigFile returned error: %v", err)
	}

	if cfg.JiraURL != "https://example.atlassian.net" {
		t.Errorf("Expected Jira URL from file, got '%s'", cfg.JiraURL)
	}
	if cfg.JiraUsername != "flag-user@example.com" {
		t.Errorf("File value must not override flag value, got '%s'", cfg.JiraUsername)
	}
	if cfg.JiraAPIToken != "file-token" {
		t.Errorf("Expected API token from file, got '%s'", cfg.JiraAPIToken)
	}
	if cfg.JiraProjectKey != "SJA" {
		t.Errorf("Expected project key from file, got '%s'", cfg.JiraProjectKey)
	}
	if cfg.OpenAIAPIKey != "file-openai-key" {
		t.Errorf("Expected OpenAI key from file, got '%s'", cfg.OpenAIAPIKey)
	}
	if cfg.WeaviateAPIKey != "file-weaviate-key" {
		t.Errorf("Expected Weaviate key from file, got '%s'", cfg.WeaviateAPIKey)
	}
	if cfg.BeautifulAIAPIKey != "file-bai-key" {
		t.Errorf("Expected Beautiful.ai key from file, got '%s'", cfg.BeautifulAIAPIKey)
	}
}

func TestApplyConfigFileMissingFile(t *testing.T) {
	cfg := &Cfg{}
	if err := applyConfigFile(cfg, filepath.Join(t.TempDir(), "absent.yml")); err != nil {
		t.Errorf("Missing config file should not be an error, got: %v", err)
	}
}

func TestApplyConfigFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("jira: [not: a mapping"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if err := applyConfigFile(&Cfg{}, path); err == nil {
		t.Error("Expected error for malformed config file")
	}
}
