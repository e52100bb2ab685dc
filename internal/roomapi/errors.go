package roomapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorKind classifies upstream failures into the three cases consumers
// must distinguish.
type ErrorKind string

const (
	// KindConnectivity means the request never produced a server response
	// (DNS failure, refused connection, timeout).
	KindConnectivity ErrorKind = "connectivity"
	// KindServer means the server answered with an error payload.
	KindServer ErrorKind = "server"
	// KindDecode means the server answered 2xx but the body was unusable.
	KindDecode ErrorKind = "decode"
)

// APIError is the single normalized error shape produced by this package.
// Every call site handles this instead of re-deriving the message priority
// logic per request.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("room api: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("room api: %s: %s", e.Kind, e.Message)
}

// IsConnectivity reports whether err is a normalized connectivity failure.
func IsConnectivity(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Kind == KindConnectivity
}

// Message extracts the normalized human-readable message from err, falling
// back to the supplied default for anything this package did not produce.
func Message(err error, fallback string) string {
	if apiErr, ok := err.(*APIError); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// classifyResponse turns a non-2xx upstream response body into an APIError.
// Priority order: structured {"message": ...} JSON field, then the plain body
// text, then a generic fallback.
func classifyResponse(statusCode int, body []byte) *APIError {
	var structured struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &structured); err == nil && structured.Message != "" {
		return &APIError{Kind: KindServer, StatusCode: statusCode, Message: structured.Message}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return &APIError{Kind: KindServer, StatusCode: statusCode, Message: text}
	}

	return &APIError{
		Kind:       KindServer,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("server returned status %d", statusCode),
	}
}

// classifyTransport wraps an error from http.Client.Do. The request never
// reached the server, so there is no status or body to inspect.
func classifyTransport(err error) *APIError {
	return &APIError{Kind: KindConnectivity, Message: err.Error()}
}
