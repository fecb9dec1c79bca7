// Package api implements the REST client for the remote storefront service:
// the product catalog endpoints and the auth endpoints. It performs no
// retries; a single failed attempt surfaces to the caller.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fakeshop/storefront/internal/domain/product"
	"github.com/fakeshop/storefront/pkg/httptransport"
)

// ErrServerUnavailable classifies "not found"-class transport failures on the
// auth endpoints, which the remote demo service produces when it is down.
var ErrServerUnavailable = errors.New("server is unavailable, try again later")

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

var _ product.Source = (*Client)(nil)

// Client talks to the remote product and auth sources.
type Client struct {
	base *url.URL
	http *http.Client
}

// Options configures the Client transport.
type Options struct {
	// Timeout bounds each request. Zero means 15 seconds.
	Timeout time.Duration
	// Instrumentation options passed to the otelhttp transport wrapper.
	OTel []otelhttp.Option
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout: timeout,
			Transport: httptransport.Wrap(nil,
				httptransport.RequestID(),
				httptransport.LogRequests(),
				httptransport.Instrument(opts.OTel...),
			),
		},
	}, nil
}

// List fetches the full product catalog.
func (c *Client) List(ctx context.Context) ([]product.Product, error) {
	raw, err := c.get(ctx, "/products")
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return product.DecodeList(jx.DecodeBytes(raw))
}

// GetByID fetches a single product. Returns product.ErrNotFound for an
// unknown id.
func (c *Client) GetByID(ctx context.Context, id int) (*product.Product, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/products/%d", id))
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	// The demo API answers 200 with an empty or null body for unknown ids.
	if body := bytes.TrimSpace(raw); len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, product.ErrNotFound
	}

	var p product.Product
	if err := p.Decode(jx.DecodeBytes(raw)); err != nil {
		return nil, errors.Wrapf(err, "decode product %d", id)
	}
	return &p, nil
}

// Categories fetches the list of known product categories.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	raw, err := c.get(ctx, "/products/categories")
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}

	var out []string
	if err := jx.DecodeBytes(raw).Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return out, nil
}

// Login authenticates against POST /auth/login and returns the bearer token.
// A 404-class response maps to ErrServerUnavailable.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("username")
	e.Str(username)
	e.FieldStart("password")
	e.Str(password)
	e.ObjEnd()

	raw, err := c.post(ctx, "/auth/login", e.Bytes())
	if err != nil {
		return "", classifyAuthErr(errors.Wrap(err, "login"))
	}

	var token string
	if err := jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		if key != "token" {
			return d.Skip()
		}
		var err error
		token, err = d.Str()
		return err
	}); err != nil {
		return "", errors.Wrap(err, "decode login response")
	}
	if token == "" {
		return "", errors.New("login response carries no token")
	}
	return token, nil
}

// NewUser is the account creation payload for POST /users.
type NewUser struct {
	// ID is chosen by the client; the demo service echoes it back instead of
	// allocating one.
	ID       int
	Username string
	Email    string
	Password string
}

// CreateUser registers a new account and returns the account id the service
// reports. It does not authenticate the new account.
func (c *Client) CreateUser(ctx context.Context, u NewUser) (int, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Int(u.ID)
	e.FieldStart("username")
	e.Str(u.Username)
	e.FieldStart("email")
	e.Str(u.Email)
	e.FieldStart("password")
	e.Str(u.Password)
	e.ObjEnd()

	raw, err := c.post(ctx, "/users", e.Bytes())
	if err != nil {
		return 0, classifyAuthErr(errors.Wrap(err, "create user"))
	}

	var id int
	if err := jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		if key != "id" {
			return d.Skip()
		}
		var err error
		id, err = d.Int()
		return err
	}); err != nil {
		return 0, errors.Wrap(err, "decode create user response")
	}
	return id, nil
}

// classifyAuthErr maps "not found"-class statuses on auth endpoints to
// ErrServerUnavailable, keeping everything else intact.
func classifyAuthErr(err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return ErrServerUnavailable
	}
	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	return raw, nil
}

func (c *Client) resolve(path string) string {
	return c.base.JoinPath(path).String()
}
