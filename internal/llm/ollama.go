package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"FeedInsight/internal/config"
	"FeedInsight/internal/domain"
	"FeedInsight/internal/ports"
	"FeedInsight/internal/schema"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaModel drives a local Ollama server. Contract enforcement uses the
// chat API's format parameter, which constrains decoding to the schema.
type OllamaModel struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

var _ ports.StructuredModel = (*OllamaModel)(nil)

// NewOllamaModel builds a client from configuration.
func NewOllamaModel(cfg config.ModelConfig) *OllamaModel {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	return &OllamaModel{
		baseURL:     baseURL,
		model:       cfg.Name,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.Timeout()},
	}
}

// ProviderName identifies the backend in provenance metadata.
func (c *OllamaModel) ProviderName() string { return "ollama" }

// ModelName returns the configured model identifier.
func (c *OllamaModel) ModelName() string { return c.model }

// Invoke posts a non-streaming chat request with the contract as the format
// constraint and validates the returned message content.
func (c *OllamaModel) Invoke(ctx context.Context, contract schema.Contract, prompt string) (schema.Response, error) {
	body, err := json.Marshal(map[string]any{
		"model":  c.model,
		"stream": false,
		"format": contract.JSONSchema(),
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"options": map[string]any{
			"temperature": c.temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("ollama chat after %s: %w", c.client.Timeout, domain.ErrModelTimeout)
		}
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ollama error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var chat struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if chat.Message.Content == "" {
		return nil, fmt.Errorf("%w: empty chat response", domain.ErrInvalidOutput)
	}

	return contract.Parse([]byte(chat.Message.Content))
}
