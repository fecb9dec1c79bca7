package httptransport

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID returns a wrapper that ensures every outgoing request carries an
// X-Request-ID header. A caller-provided valid value is reused; otherwise a
// new UUID v4 is generated. Values must be at most 128 bytes of printable
// ASCII (0x20–0x7E) to be considered valid.
func RequestID() Wrapper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			id := r.Header.Get("X-Request-ID")
			if !isValidRequestID(id) {
				r = r.Clone(r.Context())
				r.Header.Set("X-Request-ID", uuid.New().String())
			}
			return next.RoundTrip(r)
		})
	}
}

// isValidRequestID checks that id is non-empty, at most 128 bytes, and
// contains only printable ASCII (0x20–0x7E).
func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}
