package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_OrderIsOutermostFirst(t *testing.T) {
	var order []string
	tag := func(name string) Wrapper {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := &http.Client{Transport: Wrap(nil, tag("a"), tag("b"))}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
	}))
	defer srv.Close()

	client := &http.Client{Transport: Wrap(nil, RequestID())}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = uuid.Parse(got)
	assert.NoError(t, err, "generated request id must be a UUID, got %q", got)
}

func TestRequestID_ReusesValidValue(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "caller-chosen-id")

	client := &http.Client{Transport: Wrap(nil, RequestID())}
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "caller-chosen-id", got)
}

func TestIsValidRequestID(t *testing.T) {
	assert.False(t, isValidRequestID(""))
	assert.False(t, isValidRequestID(string(make([]byte, 129))))
	assert.False(t, isValidRequestID("has\nnewline"))
	assert.True(t, isValidRequestID("abc-123"))
}
