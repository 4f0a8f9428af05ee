package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBackendURL = "http://localhost:11434"
	defaultModel      = "nomic-embed-text"
)

// Backend turns a text into an embedding vector by calling a remote service.
// Implementations may fail; recovery is the Provider's concern.
type Backend interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Space identifies the representation space of returned vectors.
	Space() string
}

// OllamaClient implements Backend against an Ollama /api/embeddings endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewOllamaClient creates a client for the given Ollama endpoint and model.
// Empty arguments fall back to the local default endpoint and model.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = defaultBackendURL
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

// Model returns the configured embedding model name.
func (c *OllamaClient) Model() string { return c.model }

// Space tags vectors with the backend and model that produced them.
func (c *OllamaClient) Space() string { return "ollama/" + c.model }

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests an embedding for text. The raw text is sent unmodified.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	data, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding backend: %s: %s", resp.Status, body)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embedding backend: response has no embedding field")
	}
	return result.Embedding, nil
}
