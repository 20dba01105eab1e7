package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is shared with the server so one .env can serve both.
const EnvPrefix = "GOPHAUTH_"

// Config holds runtime settings for the credctl client commands.
//
// Fields:
//   - ServerEndpointAddr: host:port of the credential service.
//   - AudienceToken: identifies this client application on login and exchange.
//   - SessionFile: SQLite file keeping the token pair between runs.
//   - RequestTimeout: per-command deadline for remote calls.
type Config struct {
	ServerEndpointAddr string        `env:"SERVER_ADDR"`
	AudienceToken      string        `env:"AUDIENCE_TOKEN"`
	SessionFile        string        `env:"SESSION_FILE"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionFile = "gophauth-session.db"
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and GOPHAUTH_* environment variables. Command flags are
// applied on top by the CLI.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
