package ports

import "errors"

// Classifier failure kinds. Adapters wrap these so the pipeline can tell a
// provider refusal from a transport problem.
var (
	ErrAuth        = errors.New("classifier: authentication failed")
	ErrRateLimited = errors.New("classifier: rate limited")
	ErrMalformed   = errors.New("classifier: malformed response")
)
