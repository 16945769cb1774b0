package market

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// APIError is the single error kind surfaced by the client. Status is the
// HTTP status of a remote rejection; 0 means the request never got a
// response (timeout, connection error, DNS).
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("market: request failed: %s", e.Message)
	}
	return fmt.Sprintf("market: API request failed: %d - %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Transport reports whether the error happened before any HTTP response.
func (e *APIError) Transport() bool { return e.Status == 0 }
