package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name in the Config env tags.
const EnvPrefix = "GOPHAUTH_"

// dotEnvFile is read outside production only.
var dotEnvFile = ".env"

// parseEnv overlays GOPHAUTH_* environment variables onto config. Unset
// variables leave the current value alone. Outside production a .env file
// in the working directory is loaded first; it never overrides variables
// that are already set.
func parseEnv(config *Config) error {
	if !isProductionEnv(config) {
		if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotEnvFile, err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func isProductionEnv(config *Config) bool {
	if v, ok := os.LookupEnv(EnvPrefix + "ENV"); ok {
		return (&Config{Environment: v}).IsProduction()
	}
	return config.IsProduction()
}
