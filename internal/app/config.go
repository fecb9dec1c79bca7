package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	APIBaseURL     string        `default:"https://fakestoreapi.com" usage:"Base URL of the remote storefront API" flag:"api-base-url"`
	StateDir       string        `usage:"Directory for durable local state (default: <user config dir>/storefront)" flag:"state-dir"`
	HTTPTimeout    time.Duration `default:"15s" usage:"Per-request HTTP timeout" flag:"http-timeout"`
	DebounceWindow time.Duration `default:"300ms" usage:"Search debounce window" flag:"debounce-window"`
	HealthInterval time.Duration `default:"30s" usage:"Remote availability probe interval" flag:"health-interval"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then fills in the platform-dependent state directory default.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if cfg.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve user config dir")
		}
		cfg.StateDir = filepath.Join(base, "storefront")
	}

	return &cfg, nil
}
