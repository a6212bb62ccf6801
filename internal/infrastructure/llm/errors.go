package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"TabSorter/internal/ports"
)

// StatusError is a non-2xx answer from a provider HTTP API.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.Status, e.Body)
}

// Unwrap maps the status onto the shared classifier failure kinds.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ports.ErrAuth
	case e.Status == http.StatusTooManyRequests:
		return ports.ErrRateLimited
	default:
		return nil
	}
}

// classifyMessage maps SDK errors that only carry text onto the shared
// failure kinds.
func classifyMessage(provider string, err error) error {
	if err == nil {
		return nil
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return err
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "429") || strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests") || strings.Contains(s, "quota") ||
		strings.Contains(s, "resource_exhausted") || strings.Contains(s, "overloaded"):
		return fmt.Errorf("%s: %v: %w", provider, err, ports.ErrRateLimited)
	case strings.Contains(s, "401") || strings.Contains(s, "403") ||
		strings.Contains(s, "unauthorized") || strings.Contains(s, "forbidden") ||
		strings.Contains(s, "api key") || strings.Contains(s, "permission_denied"):
		return fmt.Errorf("%s: %v: %w", provider, err, ports.ErrAuth)
	default:
		return fmt.Errorf("%s: %w", provider, err)
	}
}
