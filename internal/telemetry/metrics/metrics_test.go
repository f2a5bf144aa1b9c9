package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomerium/teamdash/internal/tripper"
)

func TestCounters(t *testing.T) {
	before := promtestutil.ToFloat64(gateUnauthorized)
	RecordGateUnauthorized()
	assert.Equal(t, before+1, promtestutil.ToFloat64(gateUnauthorized))

	before = promtestutil.ToFloat64(signIns.WithLabelValues(SignInFallback))
	RecordSignIn(SignInFallback)
	assert.Equal(t, before+1, promtestutil.ToFloat64(signIns.WithLabelValues(SignInFallback)))

	before = promtestutil.ToFloat64(directoryFallbacks)
	RecordDirectoryFallback()
	assert.Equal(t, before+1, promtestutil.ToFloat64(directoryFallbacks))
}

func TestHTTPMetricsRoundTripper(t *testing.T) {
	ok := HTTPMetricsRoundTripper("test-ok")(tripper.RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusUnauthorized, Body: http.NoBody}, nil
	}))
	_, err := ok.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	require.NoError(t, err)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(httpClientRequests.WithLabelValues("test-ok", "401")))

	failing := HTTPMetricsRoundTripper("test-error")(tripper.RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))
	_, err = failing.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	require.Error(t, err)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(httpClientRequests.WithLabelValues("test-error", "error")))
}

func TestHandler(t *testing.T) {
	RecordGateUnauthorized()

	srv := httptest.NewServer(Handler())
	t.Cleanup(srv.Close)

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "teamdash_gate_unauthorized_total")
}
