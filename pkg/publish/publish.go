// Package publish posts text and images to the social platform.
//
// XClient talks to the X API: v2 for creating posts and the v1.1 chunked
// upload endpoint for media (INIT, APPEND, FINALIZE, then STATUS polling while
// the server processes). Requests are signed with OAuth 1.0a user context.
// DryRun implements the same surface without network access.
package publish

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when publishing credentials are incomplete.
var ErrUnavailable = errors.New("publisher unavailable")

// APIError is a non-success response from the platform.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}
