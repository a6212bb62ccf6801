package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"TabSorter/internal/config"
	"TabSorter/internal/ports"
	"TabSorter/internal/prompt"
)

// OpenAIClient implements ports.Classifier backed by OpenAI-compatible chat APIs.
type OpenAIClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Classifier = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Name identifies the provider in logs and metrics.
func (c *OpenAIClient) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify sends one batch as a JSON-mode chat completion.
func (c *OpenAIClient) Classify(ctx context.Context, req ports.ClassifyRequest) (ports.ClassifyResponse, error) {
	if c == nil {
		return ports.ClassifyResponse{}, errors.New("openai client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return ports.ClassifyResponse{}, fmt.Errorf("openai client misconfigured: %w", ports.ErrAuth)
	}

	system, user, err := prompt.Build(req)
	if err != nil {
		return ports.ClassifyResponse{}, fmt.Errorf("build prompt: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"temperature":     0.1,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return ports.ClassifyResponse{}, fmt.Errorf("marshal openai payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.ClassifyResponse{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ports.ClassifyResponse{}, fmt.Errorf("send batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return ports.ClassifyResponse{}, &StatusError{
			Provider: c.Name(),
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(payload)),
		}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.ClassifyResponse{}, fmt.Errorf("decode openai response: %v: %w", err, ports.ErrMalformed)
	}
	if len(decoded.Choices) == 0 {
		return ports.ClassifyResponse{}, fmt.Errorf("openai response has no choices: %w", ports.ErrMalformed)
	}

	return prompt.Parse(decoded.Choices[0].Message.Content)
}
