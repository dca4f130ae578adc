package gateway

import "fmt"

// NetworkError means no response reached the server (transport failure,
// timeout, cancelled context).
type NetworkError struct{ Err error }

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// APIError means the server responded with a failure: a non-2xx status or
// a success:false envelope on a 2xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// ConflictError means the server rejected a status transition as illegal,
// typically because the client's view of the order was stale.
type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return fmt.Sprintf("conflict: %s", e.Message) }
