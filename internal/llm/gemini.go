package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"

	"FeedInsight/internal/config"
	"FeedInsight/internal/domain"
	"FeedInsight/internal/ports"
	"FeedInsight/internal/schema"
)

// GeminiModel backs the structured-model port with Google GenAI. Contract
// enforcement uses the SDK's response schema with JSON output.
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

var _ ports.StructuredModel = (*GeminiModel)(nil)

// NewGeminiModel creates a GenAI client. An empty API key falls back to
// GOOGLE_API_KEY.
func NewGeminiModel(ctx context.Context, cfg config.ModelConfig) (*GeminiModel, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiModel{
		client:      client,
		model:       cfg.Name,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout(),
	}, nil
}

// ProviderName identifies the backend in provenance metadata.
func (c *GeminiModel) ProviderName() string { return "gemini" }

// ModelName returns the configured model identifier.
func (c *GeminiModel) ModelName() string { return c.model }

// Invoke generates content constrained to the contract's schema.
func (c *GeminiModel) Invoke(ctx context.Context, contract schema.Contract, prompt string) (schema.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := float32(c.temperature)
	resp, err := c.client.Models.GenerateContent(callCtx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiSchema(contract),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("gemini generate after %s: %w", c.timeout, domain.ErrModelTimeout)
		}
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no candidates returned", domain.ErrInvalidOutput)
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("%w: candidate has no text", domain.ErrInvalidOutput)
	}

	return contract.Parse([]byte(text))
}

func geminiSchema(contract schema.Contract) *genai.Schema {
	properties := make(map[string]*genai.Schema, len(contract.Fields))
	required := make([]string, 0, len(contract.Fields))

	for _, field := range contract.Fields {
		itemProps := map[string]*genai.Schema{
			"title":   {Type: genai.TypeString, Description: "Title or theme of the item"},
			"summary": {Type: genai.TypeString, Description: "Detailed content/summary"},
		}
		itemRequired := []string{"title", "summary"}
		if field.WithIndex {
			itemProps["postIndex"] = &genai.Schema{
				Type:        genai.TypeInteger,
				Description: "The exact post number from \"[Post X]\"",
			}
			itemRequired = append(itemRequired, "postIndex")
		}

		properties[field.Key] = &genai.Schema{
			Type:        genai.TypeArray,
			Description: field.Description,
			Items: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: itemProps,
				Required:   itemRequired,
			},
		}
		required = append(required, field.Key)
	}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   required,
	}
}
