package apiclient

import "fmt"

// APIError represents an error response from the daemon's API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if this is a 404 response.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsConflict returns true if this is a 409 response, signaling that a
// conflict resolution was rejected by the origin.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409
}
