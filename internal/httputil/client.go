package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pomerium/teamdash/internal/telemetry/metrics"
	"github.com/pomerium/teamdash/internal/telemetry/requestid"
	"github.com/pomerium/teamdash/internal/tripper"
	"github.com/pomerium/teamdash/internal/version"
)

var errNotFound = errors.New("page not found")

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// NewClient returns an http.Client for the named outbound client. Requests
// pass through metrics, request-id and logging middleware and then through
// constructors, in order, before reaching base. A nil base means
// http.DefaultTransport.
func NewClient(name string, timeout time.Duration, base http.RoundTripper, constructors ...tripper.Constructor) *http.Client {
	chain := tripper.NewChain(
		metrics.HTTPMetricsRoundTripper(name),
		requestid.NewRoundTripper,
		tripper.Logging(func(evt *zerolog.Event) *zerolog.Event {
			return evt.Str("client", name)
		}),
		userAgent,
	).Append(constructors...)
	return &http.Client{
		Timeout:   timeout,
		Transport: chain.Then(base),
	}
}

func userAgent(next http.RoundTripper) http.RoundTripper {
	return tripper.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("User-Agent") != "" {
			return next.RoundTrip(req)
		}
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", version.UserAgent())
		return next.RoundTrip(req)
	})
}

// CheckResponse returns an *HTTPError for non-2xx responses. The body is
// drained and closed in that case.
func CheckResponse(res *http.Response) error {
	if res.StatusCode/100 == 2 {
		return nil
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	msg := "unexpected response"
	if req := res.Request; req != nil {
		msg = fmt.Sprintf("unexpected response from %s %s", req.Method, req.URL.Redacted())
	}
	if len(body) > 0 {
		msg += ": " + string(body)
	}
	return NewError(res.StatusCode, errors.New(msg))
}
