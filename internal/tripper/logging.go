package tripper

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pomerium/teamdash/internal/log"
)

// Logging returns a Constructor that logs every outbound request at debug
// level. customize may add fields to the event.
func Logging(customize ...func(evt *zerolog.Event) *zerolog.Event) Constructor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			res, err := next.RoundTrip(req)
			statusCode := http.StatusInternalServerError
			if res != nil {
				statusCode = res.StatusCode
			}
			evt := log.Debug(req.Context()).
				Str("method", req.Method).
				Str("authority", req.URL.Host).
				Str("path", req.URL.Path).
				Dur("duration", time.Since(start)).
				Int("response-code", statusCode)
			if err != nil {
				evt = evt.Err(err)
			}
			for _, f := range customize {
				evt = f(evt)
			}
			evt.Msg("outbound http-request")
			return res, err
		})
	}
}
