package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"FeedInsight/internal/config"
	"FeedInsight/internal/domain"
	"FeedInsight/internal/ports"
	"FeedInsight/internal/schema"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIModel talks to OpenAI-compatible chat-completion APIs and enforces
// the response contract through the json_schema response format.
type OpenAIModel struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	client      *http.Client
}

var _ ports.StructuredModel = (*OpenAIModel)(nil)

// NewOpenAIModel builds a client from configuration. An empty API key falls
// back to OPENAI_API_KEY.
func NewOpenAIModel(cfg config.ModelConfig) *OpenAIModel {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &OpenAIModel{
		baseURL:     baseURL,
		model:       cfg.Name,
		apiKey:      apiKey,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.Timeout()},
	}
}

// ProviderName identifies the backend in provenance metadata.
func (c *OpenAIModel) ProviderName() string { return "openai" }

// ModelName returns the configured model identifier.
func (c *OpenAIModel) ModelName() string { return c.model }

// Invoke posts the prompt with a strict JSON-Schema response format and
// validates the returned content against the contract.
func (c *OpenAIModel) Invoke(ctx context.Context, contract schema.Contract, prompt string) (schema.Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openai api key is not configured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "report_sections",
				"strict": true,
				"schema": contract.JSONSchema(),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("chat completion after %s: %w", c.client.Timeout, domain.ErrModelTimeout)
		}
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion has no choices", domain.ErrInvalidOutput)
	}

	return contract.Parse([]byte(completion.Choices[0].Message.Content))
}
