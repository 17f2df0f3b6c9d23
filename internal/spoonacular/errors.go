package spoonacular

import "fmt"

// NetworkError means the request could not be sent or completed.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError captures non-2xx HTTP responses from the recipe API.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body == "" {
		return fmt.Sprintf("%s request failed: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// ParseError means the response body was not the JSON we expected.
type ParseError struct {
	Operation string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response malformed: %v", e.Operation, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
