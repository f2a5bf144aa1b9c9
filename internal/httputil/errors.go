package httputil

import (
	"net/http"

	"github.com/pomerium/teamdash/internal/telemetry/requestid"
)

// HTTPError contains an HTTP status code and wrapped error.
type HTTPError struct {
	// HTTP status codes as registered with IANA.
	Status int
	// Err is the wrapped error.
	Err error
}

// NewError returns an error that contains a HTTP status and error.
func NewError(status int, err error) error {
	return &HTTPError{Status: status, Err: err}
}

// Error implements the `error` interface.
func (e *HTTPError) Error() string {
	return StatusText(e.Status) + ": " + e.Err.Error()
}

// Unwrap implements the `error` Unwrap interface.
func (e *HTTPError) Unwrap() error { return e.Err }

// ErrorResponse replies to the request with the error. JSON clients get a
// JSON body, everyone else plain text. The caller should not write to w
// afterwards.
func (e *HTTPError) ErrorResponse(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Status    int    `json:"status"`
		Error     string `json:"error"`
		RequestID string `json:"requestId,omitempty"`
	}{
		Status:    e.Status,
		Error:     e.Error(),
		RequestID: requestid.FromContext(r.Context()),
	}
	if WantsJSON(r) {
		RenderJSON(w, e.Status, response)
		return
	}
	http.Error(w, response.Error, e.Status)
}
