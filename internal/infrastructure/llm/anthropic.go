package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"TabSorter/internal/config"
	"TabSorter/internal/ports"
	"TabSorter/internal/prompt"
)

// promptFunc matches anthropic.PromptWithSettings without attachments.
type promptFunc func(system, user, schema, apiKey string, settings types.RequestSettings) (string, error)

// AnthropicClient implements ports.Classifier on the Anthropic messages API
// with structured output.
type AnthropicClient struct {
	apiKey   string
	settings types.RequestSettings
	call     promptFunc
}

var _ ports.Classifier = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration.
func NewAnthropicClient(cfg config.AnthropicConfig) *AnthropicClient {
	return &AnthropicClient{
		apiKey: cfg.APIKey,
		settings: types.RequestSettings{
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		call: promptWithSettings,
	}
}

func promptWithSettings(system, user, schema, apiKey string, settings types.RequestSettings) (string, error) {
	response, err := anthropic.PromptWithSettings(system, user, schema, apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in anthropic response: %w", ports.ErrMalformed)
	}
	return response.Content[0].Text, nil
}

// Name identifies the provider in logs and metrics.
func (c *AnthropicClient) Name() string { return "anthropic" }

// Classify sends one batch. The SDK call is not context aware, so it runs in
// a goroutine and the context bounds how long the pipeline waits for it.
func (c *AnthropicClient) Classify(ctx context.Context, req ports.ClassifyRequest) (ports.ClassifyResponse, error) {
	if c.apiKey == "" {
		return ports.ClassifyResponse{}, errors.Join(errors.New("anthropic api key is empty"), ports.ErrAuth)
	}

	system, user, err := prompt.Build(req)
	if err != nil {
		return ports.ClassifyResponse{}, fmt.Errorf("build prompt: %w", err)
	}

	type answer struct {
		text string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		text, err := c.call(system, user, prompt.Schema, c.apiKey, c.settings)
		done <- answer{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return ports.ClassifyResponse{}, fmt.Errorf("anthropic call: %w", ctx.Err())
	case a := <-done:
		if a.err != nil {
			return ports.ClassifyResponse{}, classifyMessage(c.Name(), a.err)
		}
		return prompt.Parse(a.text)
	}
}
