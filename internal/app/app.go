package app

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fakeshop/storefront/internal/api"
	"github.com/fakeshop/storefront/internal/catalog"
	"github.com/fakeshop/storefront/internal/cli"
	"github.com/fakeshop/storefront/internal/domain/cart"
	"github.com/fakeshop/storefront/internal/session"
	"github.com/fakeshop/storefront/internal/storage"
	"github.com/fakeshop/storefront/pkg/health"
)

// Run creates all dependencies and drives the interactive storefront until
// the context is cancelled or the user exits. It is the single wiring point
// for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("api", cfg.APIBaseURL),
		zap.String("state_dir", cfg.StateDir),
	)
	ctx = zctx.Base(ctx, lg)

	// Durable local storage, the browser-localStorage analog.
	store, err := storage.NewFileStore(cfg.StateDir, lg)
	if err != nil {
		return errors.Wrap(err, "open local storage")
	}

	// Remote API client.
	client, err := api.NewClient(cfg.APIBaseURL, api.Options{
		Timeout: cfg.HTTPTimeout,
		OTel: []otelhttp.Option{
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		},
	})
	if err != nil {
		return errors.Wrap(err, "create api client")
	}

	// Stores. The cart tracks the session's identity: it re-hydrates from the
	// identity-scoped entry on every login and logout.
	cartStore := cart.NewStore(store, lg)
	sessionStore := session.NewStore(client, store, lg)
	sessionStore.OnIdentityChange(cartStore.SetIdentity)
	cartStore.SetIdentity(sessionStore.Token())

	catalogStore := catalog.NewStore(client, cfg.DebounceWindow, lg)
	defer catalogStore.Close()

	// Remote availability monitor, surfaced by the status command.
	monitor := health.New()
	monitor.AddCheck("api", 5*time.Second,
		health.EndpointCheck(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.APIBaseURL+"/products"))
	monitor.Start(ctx, cfg.HealthInterval)
	defer monitor.Stop()

	// One-shot catalog fetch. The REPL renders the loading flag until it
	// settles; a failure is terminal until the user reloads.
	go func() {
		if err := catalogStore.Load(ctx); err != nil {
			lg.Warn("Catalog load failed", zap.Error(err))
		}
	}()

	a := cli.NewApp(catalogStore, cartStore, sessionStore, client, monitor, store, lg, os.Stdout)
	cli.RunREPL(ctx, a, os.Stdin, os.Stdout)
	return nil
}
