package embed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// OllamaProvider calls Ollama's native embedding API.
type OllamaProvider struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

// NewOllamaProvider creates a provider for a local Ollama instance.
func NewOllamaProvider(cfg Config) *OllamaProvider {
	host := strings.TrimSuffix(cfg.BaseURL, "/")
	host = strings.TrimSuffix(host, "/v1")
	if host == "" {
		host = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60
	}
	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = DefaultDimension
	}

	return &OllamaProvider{
		baseURL:   host,
		model:     model,
		dimension: dimension,
		client:    &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Embed generates an embedding for a single input using Ollama's
// native /api/embed endpoint.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := map[string]any{
		"model": p.model,
		"input": text,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings in response")
	}
	return result.Embeddings[0], nil
}

// Dimension returns the configured output dimension.
func (p *OllamaProvider) Dimension() int {
	return p.dimension
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}
