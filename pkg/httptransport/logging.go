package httptransport

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// LogRequests returns a wrapper that logs each outgoing request with its
// method, URL, status, and duration using the context logger.
func LogRequests() Wrapper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			lg := zctx.From(r.Context())
			start := time.Now()

			resp, err := next.RoundTrip(r)
			if err != nil {
				lg.Warn("Request failed",
					zap.String("method", r.Method),
					zap.String("url", r.URL.String()),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
				return nil, err
			}

			lg.Debug("Request",
				zap.String("method", r.Method),
				zap.String("url", r.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", r.Header.Get("X-Request-ID")),
			)
			return resp, nil
		})
	}
}

// Instrument returns a wrapper that adds OpenTelemetry tracing to outgoing
// requests via otelhttp.
func Instrument(opts ...otelhttp.Option) Wrapper {
	return func(next http.RoundTripper) http.RoundTripper {
		return otelhttp.NewTransport(next, opts...)
	}
}
