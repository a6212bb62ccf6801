package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"TabSorter/internal/config"
	"TabSorter/internal/ports"
	"TabSorter/internal/prompt"
)

type generateFunc func(ctx context.Context, model, system, user string) (string, error)

// GeminiClient implements ports.Classifier on the Gemini API. It is the
// constrained free-tier provider and is normally paired with a rate limiter.
type GeminiClient struct {
	model    string
	generate generateFunc
}

var _ ports.Classifier = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	generate := func(ctx context.Context, model, system, user string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(user), &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0.1),
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}

	return &GeminiClient{model: model, generate: generate}, nil
}

// Name identifies the provider in logs and metrics.
func (c *GeminiClient) Name() string { return "gemini" }

// Classify sends one batch in JSON response mode.
func (c *GeminiClient) Classify(ctx context.Context, req ports.ClassifyRequest) (ports.ClassifyResponse, error) {
	system, user, err := prompt.Build(req)
	if err != nil {
		return ports.ClassifyResponse{}, fmt.Errorf("build prompt: %w", err)
	}

	text, err := c.generate(ctx, c.model, system, user)
	if err != nil {
		return ports.ClassifyResponse{}, classifyMessage(c.Name(), err)
	}
	return prompt.Parse(text)
}
