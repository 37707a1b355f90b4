package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/refresh-agent/refresh-api/internal/utils"
)

// Client is the single round-trip LLM completion contract: system prompt and
// user content in, parsed JSON out. No retries; retry policy belongs to the
// caller of the whole request.
type Client interface {
	Complete(ctx context.Context, req Request) (json.RawMessage, error)
}

type Request struct {
	SystemPrompt string
	UserContent  string
	Temperature  float64
	MaxTokens    int
	RequireJSON  bool
	// Deployment overrides the client's default model deployment. The
	// comparative analysis and synthesis steps prefer the larger model.
	Deployment string
}

type azureClient struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	logger     *utils.Logger
	client     *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// NewAzureClient builds a chat-completions client for an Azure OpenAI style
// endpoint. Credentials are injected here once; components never read the
// environment themselves.
func NewAzureClient(endpoint, apiKey, deployment, apiVersion string, logger *utils.Logger) Client {
	return &azureClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		deployment: deployment,
		apiVersion: apiVersion,
		logger:     logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *azureClient) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	deployment := req.Deployment
	if deployment == "" {
		deployment = c.deployment
	}

	body := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserContent},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.RequireJSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, utils.NewCompletionError("failed to marshal completion request", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, url.PathEscape(deployment), url.QueryEscape(c.apiVersion))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, utils.NewCompletionError("failed to create completion request", err)
	}

	httpReq.Header.Set("api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, utils.NewCompletionError("completion request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewCompletionError("failed to read completion response", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Completion API error", "status", resp.StatusCode, "body", string(respBody))
		return nil, utils.NewCompletionError(
			fmt.Sprintf("completion API returned status %d", resp.StatusCode), nil)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, utils.NewCompletionError("failed to unmarshal completion response", err)
	}

	if chatResp.Error != nil {
		return nil, utils.NewCompletionError(
			fmt.Sprintf("completion API error: %s", chatResp.Error.Message), nil)
	}

	if len(chatResp.Choices) == 0 {
		return nil, utils.NewCompletionError("no choices in completion response", nil)
	}

	content := chatResp.Choices[0].Message.Content

	if !json.Valid([]byte(content)) {
		// Some models wrap JSON in markdown code fences despite the
		// response_format instruction.
		content = extractJSON(content)
		if !json.Valid([]byte(content)) {
			c.logger.Error("Failed to parse completion content", "content", content)
			return nil, utils.NewCompletionError("completion content is not valid JSON", nil)
		}
	}

	return json.RawMessage(content), nil
}

// extractJSON strips markdown code fences from model output.
func extractJSON(content string) string {
	if len(content) > 7 && content[:3] == "```" {
		start := 0
		end := len(content)

		for i := 3; i < len(content); i++ {
			if content[i] == '\n' {
				start = i + 1
				break
			}
		}

		for i := len(content) - 1; i >= 0; i-- {
			if i >= 2 && content[i-2:i+1] == "```" {
				end = i - 2
				break
			}
		}

		if start < end {
			content = content[start:end]
		}
	}

	return content
}
