// Package errors parses non-2xx HTTP responses from upstream APIs into
// structured errors.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MinErrorStatusCode is the minimum HTTP status code considered an error.
const MinErrorStatusCode = 400

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// HTTPError represents an upstream HTTP error response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// ParseHTTPError returns nil for responses below 400. Otherwise it reads the
// body and extracts a message from the common JSON shapes ({"message"},
// {"error"}, JSON:API "errors"), falling back to the raw body.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < MinErrorStatusCode {
		return nil
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    fmt.Sprintf("failed to read error response body: %v", err),
		}
	}

	bodyStr := string(bodyBytes)
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       bodyStr,
		Message:    strings.TrimSpace(bodyStr),
	}

	var jsonErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Errors  []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if json.Unmarshal(bodyBytes, &jsonErr) != nil {
		return httpErr
	}

	switch {
	case jsonErr.Message != "":
		httpErr.Message = jsonErr.Message
	case jsonErr.Error != "":
		httpErr.Message = jsonErr.Error
	case len(jsonErr.Errors) > 0:
		details := make([]string, len(jsonErr.Errors))
		for i, e := range jsonErr.Errors {
			if e.Detail != "" {
				details[i] = e.Title + ": " + e.Detail
			} else {
				details[i] = e.Title
			}
		}
		httpErr.Message = strings.Join(details, "; ")
	}

	return httpErr
}

// GetHTTPStatusCode extracts the status code from an error chain containing
// an *HTTPError.
func GetHTTPStatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
