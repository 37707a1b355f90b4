package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/refresh-agent/refresh-api/internal/utils"
)

func chatReply(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	out, _ := json.Marshal(payload)
	return string(out)
}

func TestCompleteSuccess(t *testing.T) {
	var gotPath, gotAPIKey, gotVersion string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("api-key")
		gotVersion = r.URL.Query().Get("api-version")
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, chatReply(`{"answer": 42}`))
	}))
	defer server.Close()

	client := NewAzureClient(server.URL, "secret-key", "gpt-4o-mini", "2025-01-01-preview", utils.NewLogger("error"))

	raw, err := client.Complete(context.Background(), Request{
		SystemPrompt: "You are a test.",
		UserContent:  "hello",
		Temperature:  0.2,
		MaxTokens:    100,
		RequireJSON:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]int
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed["answer"] != 42 {
		t.Errorf("unexpected content %s", raw)
	}

	if gotPath != "/openai/deployments/gpt-4o-mini/chat/completions" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAPIKey != "secret-key" {
		t.Errorf("api-key header not sent, got %q", gotAPIKey)
	}
	if gotVersion != "2025-01-01-preview" {
		t.Errorf("unexpected api-version %q", gotVersion)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Role != "user" {
		t.Errorf("unexpected messages %+v", gotBody.Messages)
	}
	if gotBody.ResponseFormat == nil || gotBody.ResponseFormat.Type != "json_object" {
		t.Error("expected response_format json_object")
	}
}

func TestCompleteDeploymentOverride(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, chatReply(`{}`))
	}))
	defer server.Close()

	client := NewAzureClient(server.URL, "k", "gpt-4o-mini", "v1", utils.NewLogger("error"))
	if _, err := client.Complete(context.Background(), Request{Deployment: "gpt-4o"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/openai/deployments/gpt-4o/chat/completions" {
		t.Errorf("deployment override not applied, got %q", gotPath)
	}
}

func TestCompleteSalvagesCodeFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply("```json\n{\"fenced\": true}\n```"))
	}))
	defer server.Close()

	client := NewAzureClient(server.URL, "k", "d", "v1", utils.NewLogger("error"))
	raw, err := client.Complete(context.Background(), Request{RequireJSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]bool
	if err := json.Unmarshal(raw, &parsed); err != nil || !parsed["fenced"] {
		t.Errorf("fence salvage failed, got %s", raw)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
		},
		{
			name: "api error payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"error": {"message": "deployment not found", "code": "404"}}`)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"choices": []}`)
			},
		},
		{
			name: "non-JSON content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, chatReply("Sorry, I can't help with that."))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewAzureClient(server.URL, "k", "d", "v1", utils.NewLogger("error"))
			_, err := client.Complete(context.Background(), Request{RequireJSON: true})
			if !utils.IsCompletionError(err) {
				t.Fatalf("expected CompletionError, got %v", err)
			}
		})
	}
}
