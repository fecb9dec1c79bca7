package health

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
)

// EndpointCheck returns a CheckFunc that issues a GET against url and treats
// any 2xx-4xx answer as reachable. 4xx still proves the service is up; only
// transport failures and 5xx count against it.
func EndpointCheck(client *http.Client, url string) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		resp, err := client.Do(req)
		if err != nil {
			return errors.Wrap(err, "reach endpoint")
		}
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			return errors.Errorf("endpoint answered %d", resp.StatusCode)
		}
		return nil
	}
}
