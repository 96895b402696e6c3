package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoLocation is returned for operations on a resource whose URL is not
// known (never fetched, or already deleted).
var ErrNoLocation = errors.New("resource has no URL")

// RequestError carries the common fields of all platform error types.
type RequestError struct {
	StatusCode int
	Resource   string // resource type name, e.g. "TestCase"
	URL        string
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d %s requesting %s %s: %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.Resource, e.URL, e.Body)
}

// Unauthorized is returned for 401 responses.
type Unauthorized struct {
	RequestError
}

// Conflict is returned for 409 responses. The platform reports the cause as
// a machine-readable code in the body, e.g. {"errors":[{"error":"email.in.use"}]}.
type Conflict struct {
	RequestError
	ErrorCode string
}

// BadResponse is returned for any response the client cannot interpret:
// unexpected status codes, redirects without a Location header, and
// unexpected content types.
type BadResponse struct {
	StatusCode int
	Resource   string
	URL        string
	Message    string
}

func (e *BadResponse) Error() string {
	return e.Message
}

// errorBody is the platform's JSON error envelope.
type errorBody struct {
	Errors []struct {
		Error string `json:"error"`
	} `json:"errors"`
}

// conflictCode extracts the error code from a 409 body, if present.
func conflictCode(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if len(eb.Errors) == 0 {
		return ""
	}
	return eb.Errors[0].Error
}

// statusError maps a non-success response to the appropriate error type.
func statusError(status int, resource, url string, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return &Unauthorized{RequestError{
			StatusCode: status,
			Resource:   resource,
			URL:        url,
			Body:       strings.TrimSpace(string(body)),
		}}
	case http.StatusConflict:
		code := conflictCode(body)
		msg := code
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return &Conflict{
			RequestError: RequestError{
				StatusCode: status,
				Resource:   resource,
				URL:        url,
				Body:       msg,
			},
			ErrorCode: code,
		}
	default:
		return &BadResponse{
			StatusCode: status,
			Resource:   resource,
			URL:        url,
			Message: fmt.Sprintf("unexpected response requesting %s %s: %d %s",
				resource, url, status, strings.TrimSpace(string(body))),
		}
	}
}

// missingLocationError covers redirect responses without a Location header.
func missingLocationError(status int, resource, url string) error {
	return &BadResponse{
		StatusCode: status,
		Resource:   resource,
		URL:        url,
		Message: fmt.Sprintf("Location header missing from %d response requesting %s %s",
			status, resource, url),
	}
}

// badContentTypeError covers successful responses with a content type the
// client does not speak.
func badContentTypeError(contentType, resource, url string) error {
	return &BadResponse{
		Resource: resource,
		URL:      url,
		Message: fmt.Sprintf("bad response fetching %s %s: content-type %s is not an expected type",
			resource, url, contentType),
	}
}
