package slides

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const DefaultBeautifulAIBaseURL = "https://api.beautiful.ai/v1"

const registryFileName = "beautiful_ai_presentations.json"

// Presentation is the remote service's presentation resource.
type Presentation struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// RemoteSlide is the remote service's slide resource.
type RemoteSlide struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// UploadedImage is the remote service's image resource.
type UploadedImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// RegistryEntry records a synced presentation so later runs can find it.
type RegistryEntry struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// BeautifulAI talks to the Beautiful.ai REST API and keeps a local
// registry of presentations it has created.
type BeautifulAI struct {
	baseURL      string
	apiKey       string
	registryPath string
	httpClient   *http.Client
}

func NewBeautifulAI(baseURL, apiKey, registryDir string) *BeautifulAI {
	if baseURL == "" {
		baseURL = DefaultBeautifulAIBaseURL
	}

	return &BeautifulAI{
		baseURL:      baseURL,
		apiKey:       apiKey,
		registryPath: filepath.Join(registryDir, registryFileName),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (b *BeautifulAI) CreatePresentation(ctx context.Context, title string) (*Presentation, error) {
	var p Presentation
	err := b.do(ctx, http.MethodPost, "/presentations", map[string]any{"title": title}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *BeautifulAI) GetPresentation(ctx context.Context, id string) (*Presentation, error) {
	var p Presentation
	err := b.do(ctx, http.MethodGet, "/presentations/"+id, nil, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *BeautifulAI) ListPresentations(ctx context.Context) ([]Presentation, error) {
	var list []Presentation
	err := b.do(ctx, http.MethodGet, "/presentations", nil, &list)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (b *BeautifulAI) AddSlide(ctx context.Context, presentationID string, slide Slide) (*RemoteSlide, error) {
	var s RemoteSlide
	err := b.do(ctx, http.MethodPost, "/presentations/"+presentationID+"/slides", slidePayload(slide), &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (b *BeautifulAI) UpdateSlide(ctx context.Context, presentationID, slideID string, slide Slide) error {
	return b.do(ctx, http.MethodPut, "/presentations/"+presentationID+"/slides/"+slideID, slidePayload(slide), nil)
}

func (b *BeautifulAI) DeleteSlide(ctx context.Context, presentationID, slideID string) error {
	return b.do(ctx, http.MethodDelete, "/presentations/"+presentationID+"/slides/"+slideID, nil, nil)
}

// UploadImage pushes raw image bytes as base64 and returns the hosted
// image resource.
func (b *BeautifulAI) UploadImage(ctx context.Context, name string, data []byte) (*UploadedImage, error) {
	payload := map[string]any{
		"name": name,
		"data": base64.StdEncoding.EncodeToString(data),
	}

	var img UploadedImage
	if err := b.do(ctx, http.MethodPost, "/images", payload, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// SyncDeck creates a remote presentation for the deck, pushes every
// slide in order, and records the result in the local registry.
func (b *BeautifulAI) SyncDeck(ctx context.Context, deck Deck) (*Presentation, error) {
	p, err := b.CreatePresentation(ctx, deck.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to create presentation: %w", err)
	}

	for i, slide := range deck.Slides {
		if _, err := b.AddSlide(ctx, p.ID, slide); err != nil {
			return nil, fmt.Errorf("failed to add slide %d: %w", i+1, err)
		}
	}

	if err := b.record(deck.Title, p.ID); err != nil {
		return nil, err
	}

	slog.Info("Synced presentation", "title", deck.Title, "id", p.ID, "slides", len(deck.Slides))
	return p, nil
}

// Registry returns the locally recorded presentations by title.
func (b *BeautifulAI) Registry() (map[string]RegistryEntry, error) {
	registry := map[string]RegistryEntry{}

	data, err := os.ReadFile(b.registryPath)
	if os.IsNotExist(err) {
		return registry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read presentation registry: %w", err)
	}

	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse presentation registry: %w", err)
	}
	return registry, nil
}

func (b *BeautifulAI) record(title, id string) error {
	registry, err := b.Registry()
	if err != nil {
		return err
	}

	registry[title] = RegistryEntry{
		ID:        id,
		CreatedAt: time.Now().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presentation registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(b.registryPath), 0755); err != nil {
		return fmt.Errorf("failed to create presentations directory: %w", err)
	}
	if err := os.WriteFile(b.registryPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write presentation registry: %w", err)
	}
	return nil
}

func slidePayload(slide Slide) map[string]any {
	payload := map[string]any{
		"type":  slide.Kind,
		"title": slide.Title,
	}
	if slide.Subtitle != "" {
		payload["subtitle"] = slide.Subtitle
	}
	if len(slide.Bullets) > 0 {
		payload["bullets"] = slide.Bullets
	}
	return payload
}

func (b *BeautifulAI) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request to %s returned status %d: %s", path, resp.StatusCode, excerpt(data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response from %s: %w", path, err)
		}
	}
	return nil
}

func excerpt(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}
