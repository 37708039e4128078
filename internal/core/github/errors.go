package github

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/colonyops/mender/internal/core/repo"
	"github.com/colonyops/mender/pkg/retry"
)

// APIError is an HTTP error reported by gh api.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s (HTTP %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is maps HTTP statuses onto the repo sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case repo.ErrNotFound:
		return e.Status == 404
	case repo.ErrValidation:
		return e.Status == 422
	}
	return false
}

// Transient reports whether the request may succeed when repeated.
func (e *APIError) Transient() bool {
	if e.Status >= 500 {
		return true
	}
	if e.Status == 429 {
		return true
	}
	return e.Status == 403 && strings.Contains(strings.ToLower(e.Message), "rate limit")
}

var httpStatus = regexp.MustCompile(`(?:gh: )?([^:\n]*?)\s*\(HTTP (\d{3})\)`)

// networkHints mark gh failures that happen before any HTTP response.
var networkHints = []string{
	"error connecting to",
	"connection reset",
	"connection refused",
	"i/o timeout",
	"tls handshake timeout",
	"no such host",
	"unexpected eof",
}

// classify turns an executor error into an *APIError where gh reported an
// HTTP status, and marks everything that is not worth retrying as permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	if m := httpStatus.FindStringSubmatch(msg); m != nil {
		status, _ := strconv.Atoi(m[2])
		apiErr := &APIError{Status: status, Message: strings.TrimSpace(m[1]), Err: err}
		if apiErr.Transient() {
			return apiErr
		}
		return retry.Permanent(apiErr)
	}

	lower := strings.ToLower(msg)
	for _, hint := range networkHints {
		if strings.Contains(lower, hint) {
			return err
		}
	}
	return retry.Permanent(err)
}

// errNotFile is returned when a contents lookup hits a directory.
var errNotFile = errors.New("path is not a file")
