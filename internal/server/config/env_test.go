package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetForTest removes key for the duration of the test and restores it after.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func useDotEnv(t *testing.T, content string) {
	t.Helper()
	orig := dotEnvFile
	t.Cleanup(func() { dotEnvFile = orig })

	dotEnvFile = filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotEnvFile, []byte(content), 0o600))
}

func TestParseEnv_OverridesFields(t *testing.T) {
	useDotEnv(t, "")
	t.Setenv("GOPHAUTH_SECRET_KEY", "from-env")
	t.Setenv("GOPHAUTH_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("GOPHAUTH_HASH_PARALLELISM", "2")
	t.Setenv("GOPHAUTH_PRIVILEGED_ROLES", "admin,root")
	t.Setenv("GOPHAUTH_REDIS_ADDR", "cache:6379")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, uint8(2), cfg.HashParallelism)
	assert.Equal(t, []string{"admin", "root"}, cfg.PrivilegedRoles)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
}

func TestParseEnv_InvalidValue(t *testing.T) {
	useDotEnv(t, "")
	t.Setenv("GOPHAUTH_HASH_WORKERS", "many")

	cfg := &Config{}
	assert.Error(t, parseEnv(cfg))
}

func TestParseEnv_DotEnvOutsideProduction(t *testing.T) {
	unsetForTest(t, "GOPHAUTH_LOG_LEVEL")
	unsetForTest(t, "GOPHAUTH_ENV")
	t.Setenv("GOPHAUTH_LOG_BACKEND", "slog")
	useDotEnv(t, "GOPHAUTH_LOG_LEVEL=debug\nGOPHAUTH_LOG_BACKEND=zap\n")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "slog", cfg.LogBackend, "real environment wins over .env")
}

func TestParseEnv_NoDotEnvInProduction(t *testing.T) {
	unsetForTest(t, "GOPHAUTH_LOG_LEVEL")
	t.Setenv("GOPHAUTH_ENV", EnvProduction)
	useDotEnv(t, "GOPHAUTH_LOG_LEVEL=debug\n")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.IsProduction())
}

func TestParseEnv_MissingDotEnv(t *testing.T) {
	orig := dotEnvFile
	t.Cleanup(func() { dotEnvFile = orig })
	dotEnvFile = filepath.Join(t.TempDir(), "absent.env")

	cfg := &Config{}
	assert.NoError(t, parseEnv(cfg))
}
