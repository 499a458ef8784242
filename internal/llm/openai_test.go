package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FeedInsight/internal/config"
	"FeedInsight/internal/domain"
	"FeedInsight/internal/schema"
)

func testContract(t *testing.T) schema.Contract {
	t.Helper()
	contract, err := schema.BuildContract([]domain.ReportSection{{ID: "bugs", Prompt: "find bugs"}})
	if err != nil {
		t.Fatalf("BuildContract error: %v", err)
	}
	return contract
}

func completionBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return body
}

func TestOpenAIInvoke(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_, _ = w.Write(completionBody(`{"bugs":[{"title":"T","summary":"S","postIndex":1}]}`))
	}))
	defer server.Close()

	client := NewOpenAIModel(config.ModelConfig{
		Name:    "gpt-4o-mini",
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	response, err := client.Invoke(context.Background(), testContract(t), "prompt")
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if len(response["bugs"]) != 1 || response["bugs"][0].PostIndex != 1 {
		t.Fatalf("unexpected response: %+v", response)
	}

	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	format, ok := gotPayload["response_format"].(map[string]any)
	if !ok || format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", gotPayload["response_format"])
	}
}

func TestOpenAIInvokeInvalidContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(completionBody(`{"unexpected": true}`))
	}))
	defer server.Close()

	client := NewOpenAIModel(config.ModelConfig{Name: "m", APIKey: "k", BaseURL: server.URL})

	if _, err := client.Invoke(context.Background(), testContract(t), "prompt"); !errors.Is(err, domain.ErrInvalidOutput) {
		t.Fatalf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestOpenAIInvokeTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write(completionBody(`{}`))
	}))
	defer server.Close()
	defer close(release)

	client := NewOpenAIModel(config.ModelConfig{Name: "m", APIKey: "k", BaseURL: server.URL})
	client.client.Timeout = 50 * time.Millisecond

	if _, err := client.Invoke(context.Background(), testContract(t), "prompt"); !errors.Is(err, domain.ErrModelTimeout) {
		t.Fatalf("expected ErrModelTimeout, got %v", err)
	}
}

func TestOpenAIInvokeServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenAIModel(config.ModelConfig{Name: "m", APIKey: "k", BaseURL: server.URL})

	_, err := client.Invoke(context.Background(), testContract(t), "prompt")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if errors.Is(err, domain.ErrModelTimeout) {
		t.Fatal("a transport failure must not be classified as a timeout")
	}
}
