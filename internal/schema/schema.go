// Package schema builds the typed response contract a structured model call
// must satisfy, and validates raw model output against it.
package schema

import (
	"encoding/json"
	"fmt"

	"FeedInsight/internal/domain"
)

// Field declares one keyed array the model must return. Key is the section id,
// Description carries the extraction task in natural language, WithIndex
// controls whether items reference posts by position.
type Field struct {
	Key         string
	Description string
	WithIndex   bool
}

// Contract is the full response shape for one model invocation. It is a plain
// descriptor; providers render it into their own schema dialect.
type Contract struct {
	Fields []Field
}

// Item is the raw, model-emitted unit. PostIndex is a 1-based reference into
// the post list used for the same invocation and is meaningless outside it.
type Item struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	PostIndex int    `json:"postIndex,omitempty"`
}

// Response maps section ids to their raw items.
type Response map[string][]Item

// BuildContract derives a contract from the section list. Each section becomes
// a keyed array of extraction items carrying a post index.
func BuildContract(sections []domain.ReportSection) (Contract, error) {
	if len(sections) == 0 {
		return Contract{}, fmt.Errorf("at least one section is required")
	}

	fields := make([]Field, 0, len(sections))
	for _, section := range sections {
		fields = append(fields, Field{
			Key:         section.ID,
			Description: section.Instruction(),
			WithIndex:   true,
		})
	}

	return Contract{Fields: fields}, nil
}

// WithoutIndex returns a copy of the contract whose items omit the post index.
// The translation stage uses it so the model never sees link material.
func (c Contract) WithoutIndex() Contract {
	fields := make([]Field, len(c.Fields))
	for i, field := range c.Fields {
		field.WithIndex = false
		fields[i] = field
	}
	return Contract{Fields: fields}
}

// Parse validates raw model output against the contract. Every declared field
// must be present and decode as an item array; anything else is reported as
// domain.ErrInvalidOutput. Extra keys are tolerated.
func (c Contract) Parse(data []byte) (Response, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", domain.ErrInvalidOutput, err)
	}

	response := make(Response, len(c.Fields))
	for _, field := range c.Fields {
		payload, ok := raw[field.Key]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", domain.ErrInvalidOutput, field.Key)
		}

		var items []Item
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", domain.ErrInvalidOutput, field.Key, err)
		}
		response[field.Key] = items
	}

	return response, nil
}

// JSONSchema renders the contract as a JSON-Schema object. OpenAI-compatible
// and Ollama backends accept this dialect directly.
func (c Contract) JSONSchema() map[string]any {
	properties := make(map[string]any, len(c.Fields))
	required := make([]string, 0, len(c.Fields))

	for _, field := range c.Fields {
		itemProps := map[string]any{
			"title":   map[string]any{"type": "string", "description": "Title or theme of the item"},
			"summary": map[string]any{"type": "string", "description": "Detailed content/summary"},
		}
		itemRequired := []string{"title", "summary"}
		if field.WithIndex {
			itemProps["postIndex"] = map[string]any{
				"type":        "integer",
				"description": "The exact post number from \"[Post X]\"",
			}
			itemRequired = append(itemRequired, "postIndex")
		}

		properties[field.Key] = map[string]any{
			"type":        "array",
			"description": field.Description,
			"items": map[string]any{
				"type":                 "object",
				"properties":           itemProps,
				"required":             itemRequired,
				"additionalProperties": false,
			},
		}
		required = append(required, field.Key)
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
