package forge

import (
	"errors"
	"fmt"

	"github.com/iberi22/ai-git-core-template/pkg/gitutil"
)

// ErrNotMergeable is returned by Merge when the forge refuses the merge
// because the pull request is in an unmergeable state.
var ErrNotMergeable = errors.New("pull request is not mergeable")

// APIError wraps a failed forge call with the HTTP status when known.
type APIError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err looks like a credentials problem.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return true
		}
	}
	return gitutil.IsAuthError(err.Error())
}

// IsRateLimited reports whether err indicates the API rate limit was hit.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}
