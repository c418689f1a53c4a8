package recurly

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a remote resource does not exist upstream.
// Callers distinguish it from transient failures because it is the one case
// where the local mirror may legitimately act (e.g. skip or delete).
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("recurly: %s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// APIError reports a non-2xx provider response that is not a 404.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("recurly: request failed: status=%d body=%s", e.StatusCode, e.Body)
}
