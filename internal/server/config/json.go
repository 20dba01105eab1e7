package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Interval fields use timex.Duration, which accepts both strings such as
// "168h" and integer nanoseconds. Absent fields keep the current value.
type JsonConfig struct {
	Environment                  *string         `json:"environment"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	SecretKeyS3URI               *string         `json:"secret_key_s3_uri"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
	S3AccessKey                  *string         `json:"s3_access_key"`
	S3SecretKey                  *string         `json:"s3_secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	HashMemoryKiB                *uint32         `json:"hash_memory_kib"`
	HashIterations               *uint32         `json:"hash_iterations"`
	HashParallelism              *uint8          `json:"hash_parallelism"`
	HashWorkers                  *int            `json:"hash_workers"`
	PrivilegedRoles              []string        `json:"privileged_roles"`
	RedisAddr                    *string         `json:"redis_addr"`
	AudienceCacheTTL             *timex.Duration `json:"audience_cache_ttl"`
	LogBackend                   *string         `json:"log_backend"`
	LogLevel                     *string         `json:"log_level"`
	RevocationPurgeInterval      *timex.Duration `json:"revocation_purge_interval"`
}

// parseJson loads configuration values from a JSON file into config.
//
// The file path comes from the -c or -config command-line flags; without
// them nothing is loaded. A file that cannot be read or holds invalid JSON
// panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.Environment, c.Environment)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SecretKeyS3URI, c.SecretKeyS3URI)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.AudienceCacheTTL != nil {
		config.AudienceCacheTTL = c.AudienceCacheTTL.Duration
	}
	if c.RevocationPurgeInterval != nil {
		config.RevocationPurgeInterval = c.RevocationPurgeInterval.Duration
	}
	if c.HashMemoryKiB != nil {
		config.HashMemoryKiB = *c.HashMemoryKiB
	}
	if c.HashIterations != nil {
		config.HashIterations = *c.HashIterations
	}
	if c.HashParallelism != nil {
		config.HashParallelism = *c.HashParallelism
	}
	if c.HashWorkers != nil {
		config.HashWorkers = *c.HashWorkers
	}
	if c.PrivilegedRoles != nil {
		config.PrivilegedRoles = c.PrivilegedRoles
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
