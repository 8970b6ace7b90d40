// Package config loads runtime configuration for the sessionkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the Auth API
//	-g string   host:port of the gRPC health endpoint
//	-d string   local SQLite DSN
//	-t int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "server_base_url": "http://127.0.0.1:8080",
//	  "health_endpoint_addr": "127.0.0.1:50051",
//	  "database_dsn": "sessionkeeper.db",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s",
//	  "log_level": "warn"
//	}
package config
