package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"TabSorter/internal/domain"
	"TabSorter/internal/ports"
)

// WebhookSink posts each grouping as JSON to an HTTP endpoint that performs
// the actual tab grouping.
type WebhookSink struct {
	endpoint string
	client   *http.Client
}

var _ ports.GroupSink = (*WebhookSink)(nil)

// NewWebhookSink registers the endpoint.
func NewWebhookSink(endpoint string, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Publish posts the grouping.
func (w *WebhookSink) Publish(ctx context.Context, grouping domain.Grouping) error {
	if w.endpoint == "" || w.client == nil {
		return fmt.Errorf("webhook sink misconfigured")
	}

	body, err := json.Marshal(grouping)
	if err != nil {
		return fmt.Errorf("marshal grouping: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}
