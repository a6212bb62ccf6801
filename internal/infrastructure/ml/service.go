package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"TabSorter/internal/ports"
)

// Client talks to a self-hosted classification service that already speaks
// the tab classification contract.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Classifier = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return "service" }

type classifyPayload struct {
	Tabs              []ports.TabInput       `json:"tabs"`
	AllowedCategories []string               `json:"allowedCategories"`
	CustomCategories  []ports.CustomCategory `json:"customCategories,omitempty"`
	DomainHints       map[string]string      `json:"domainHints,omitempty"`
}

// Classify posts one batch to /classify.
func (c *Client) Classify(ctx context.Context, req ports.ClassifyRequest) (ports.ClassifyResponse, error) {
	payload := classifyPayload{
		Tabs:              req.Tabs,
		AllowedCategories: req.AllowedCategories,
		CustomCategories:  req.CustomCategories,
		DomainHints:       req.DomainHints,
	}

	var resp ports.ClassifyResponse
	if err := c.post(ctx, "/classify", payload, &resp); err != nil {
		return ports.ClassifyResponse{}, err
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %v: %w", err, ports.ErrMalformed)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("unexpected status %s: %w", resp.Status, ports.ErrAuth)
	case http.StatusTooManyRequests:
		return fmt.Errorf("unexpected status %s: %w", resp.Status, ports.ErrRateLimited)
	default:
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
}
