// Package httptransport provides http.RoundTripper wrappers for outgoing
// requests: request-ID injection, request logging, and OpenTelemetry
// instrumentation. Wrappers compose the way server middleware chains do, but
// on the client side of the connection.
package httptransport

import "net/http"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Wrapper decorates an http.RoundTripper.
type Wrapper func(http.RoundTripper) http.RoundTripper

// Wrap applies wrappers to base so that the first wrapper observes the
// request first (outermost).
func Wrap(base http.RoundTripper, wrappers ...Wrapper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(wrappers) - 1; i >= 0; i-- {
		base = wrappers[i](base)
	}
	return base
}
