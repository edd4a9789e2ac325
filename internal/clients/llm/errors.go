package llm

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
)

// APIError is a non-2xx reply from a model provider.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("llm api error (status code: %d, type: %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("llm api error (status code: %d): %s", e.StatusCode, e.Message)
}

// OpenAI-compatible SDKs only surface the HTTP status inside the error text.
var statusCodePattern = regexp.MustCompile(`status code: (\d{3})`)

// StatusCode extracts the upstream HTTP status from err, or 0 if none is known.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	if m := statusCodePattern.FindStringSubmatch(err.Error()); m != nil {
		code, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return code
		}
	}
	return 0
}

// IsAuthError reports whether the provider rejected the credential.
func IsAuthError(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
