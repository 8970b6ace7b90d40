package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-g", "127.0.0.1:9091", "-d", "db", "-s", "secret",
			"-t", "15", "-o", "http://a,http://b", "-l", "debug",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP:      "127.0.0.1:9090",
				EndpointAddrGRPC:      "127.0.0.1:9091",
				DatabaseDSN:           "db",
				SecretKey:             "secret",
				TokenValidityDuration: 15 * time.Minute,
				AllowedOrigins:        []string{"http://a", "http://b"},
				LogLevel:              "debug",
			}},
		{name: "Test2 no flags keeps zero values", args: []string{"cmd", "-c", "x.json"}, expectPanic: false,
			expected: &Config{AllowedOrigins: []string{}}},
		{name: "Test3 incorrect validity", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
