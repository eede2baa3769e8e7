package cataloro

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes a probe cares about.
var (
	// ErrConnectivity means the backend could not be reached at all.
	ErrConnectivity = errors.New("cataloro: backend unreachable")
	// ErrContentType means a json endpoint answered with something else.
	ErrContentType = errors.New("cataloro: response is not application/json")
	// ErrSchema means the body decoded but failed shape validation.
	ErrSchema = errors.New("cataloro: response schema mismatch")
)

// APIError is a non-2xx answer with the backend's own error body.
type APIError struct {
	Status int    `json:"-"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cataloro: api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("cataloro: api error %d", e.Status)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

func schemaErr(err error) error {
	return fmt.Errorf("%w: %v", ErrSchema, err)
}
