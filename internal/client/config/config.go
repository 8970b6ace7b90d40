package config

import "time"

// Config holds runtime settings for the sessionkeeper CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the Auth API (scheme://host:port).
//   - HealthEndpointAddr: host:port of the server's gRPC health service; when
//     empty the CLI probes GET /health on ServerBaseURL instead.
//   - DatabaseDSN: SQLite DSN of the local store holding the session token.
//   - RequestTimeout: upper bound for each Auth API call.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerBaseURL       string
	HealthEndpointAddr  string
	DatabaseDSN         string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.HealthEndpointAddr = "127.0.0.1:50051"
	c.DatabaseDSN = "sessionkeeper.db"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
