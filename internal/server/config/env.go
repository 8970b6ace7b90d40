package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvHTTPAddress     = "HTTP_ADDRESS"
	EnvGRPCAddress     = "GRPC_ADDRESS"
	EnvDatabaseDSN     = "DATABASE_DSN"
	EnvSecretKey       = "SECRET_KEY"
	EnvTokenValidity   = "TOKEN_VALIDITY_MINUTES"
	EnvAllowedOrigins  = "CORS_ALLOWED_ORIGINS"
	EnvLogLevel        = "LOG_LEVEL"
	defaultEnvFileName = ".env"
)

// envFile is the dotenv file loaded before reading the environment. A missing
// file is not an error; variables already set in the process win over it.
var envFile = defaultEnvFileName

// parseEnv overlays cfg with environment variables. Unset or empty variables
// keep the current value; an unparseable TOKEN_VALIDITY_MINUTES is ignored.
func parseEnv(cfg *Config) {
	_ = godotenv.Load(envFile)

	setString(&cfg.EndpointAddrHTTP, EnvHTTPAddress)
	setString(&cfg.EndpointAddrGRPC, EnvGRPCAddress)
	setString(&cfg.DatabaseDSN, EnvDatabaseDSN)
	setString(&cfg.SecretKey, EnvSecretKey)
	setString(&cfg.LogLevel, EnvLogLevel)

	if v := os.Getenv(EnvTokenValidity); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			cfg.TokenValidityDuration = time.Duration(minutes) * time.Minute
		}
	}
	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		cfg.AllowedOrigins = splitOrigins(v)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
