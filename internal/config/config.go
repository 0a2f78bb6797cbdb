// Package config loads server configuration from the environment and flags.
package config

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Transport modes.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Toggle is a boolean that also accepts "no" and "off" as false.
type Toggle bool

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (t *Toggle) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "false", "0", "no", "off":
		*t = false
	case "true", "1", "yes", "on", "":
		*t = true
	default:
		return fmt.Errorf("invalid boolean %q", text)
	}
	return nil
}

// Config holds all configuration for the MCP Hub server.
type Config struct {
	// Catalog backend
	HubURL     string        `env:"MCP_HUB_URL"  envDefault:"http://localhost:8000/api/v1"`
	VerifySSL  Toggle        `env:"VERIFY_SSL"   envDefault:"true"`
	APITimeout time.Duration `env:"API_TIMEOUT"  envDefault:"30s"`

	// Transport settings
	Transport string `env:"TRANSPORT_MODE" envDefault:"http"`
	Host      string `env:"HOST"           envDefault:"0.0.0.0"`
	Port      int    `env:"PORT"           envDefault:"8080"`

	// Server settings
	ServerName      string        `env:"MCP_SERVER_NAME"  envDefault:"mcp-hub-mcp"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"INFO"`

	// Tracing
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelEnabled  Toggle `env:"OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseConfig parses environment and flags into a Config. Flags win over env.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	verify := bool(cfg.VerifySSL)
	fs.StringVar(&cfg.HubURL, "hub-url", cfg.HubURL, "MCP Hub API base URL")
	fs.BoolVar(&verify, "verify-ssl", verify, "Verify TLS certificates of the MCP Hub API")
	fs.DurationVar(&cfg.APITimeout, "api-timeout", cfg.APITimeout, "Timeout for each MCP Hub API call")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Host for HTTP transport (ignored for stdio)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port for HTTP transport (ignored for stdio)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: DEBUG, INFO, WARN or ERROR")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.VerifySSL = Toggle(verify)
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))

	return cfg, cfg.Validate()
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return fmt.Errorf("invalid transport type: %s (must be 'stdio' or 'http')", c.Transport)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("invalid api timeout: %v (must be positive)", c.APITimeout)
	}
	if strings.TrimSpace(c.HubURL) == "" {
		return fmt.Errorf("hub url is required")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.LogLevel == "DEBUG"
}
