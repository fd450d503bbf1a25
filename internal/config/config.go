// Package config loads server configuration from an optional YAML file
// overlaid on built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no explicit
// config path is given.
const DefaultFileName = "portfolio-mcp.yaml"

// Listen modes.
const (
	ListenStdio = "stdio"
	ListenTCP   = "tcp"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Listen   ListenConfig   `yaml:"listen"`
}

// ServerConfig is the identity announced in the protocol handshake.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// AuthConfig controls the startup session and session expiry.
type AuthConfig struct {
	// Token is the opaque auth token the startup session is created with.
	Token string `yaml:"token"`

	// SessionTTLSeconds is the sliding idle expiry for sessions; zero
	// keeps sessions alive until process stop.
	SessionTTLSeconds int `yaml:"session_ttl_seconds"`
}

// DispatchConfig bounds tool execution.
type DispatchConfig struct {
	// CallTimeoutSeconds bounds one handler invocation; zero disables
	// the bound.
	CallTimeoutSeconds int `yaml:"call_timeout_seconds"`
}

// ListenConfig selects the transport: stdio (default, single client) or a
// TCP listener serving one protocol loop per connection.
type ListenConfig struct {
	Mode string `yaml:"mode"`
	Addr string `yaml:"addr"`
}

// SessionTTL returns the session expiry as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLSeconds) * time.Second
}

// CallTimeout returns the per-call bound as a duration.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Dispatch.CallTimeoutSeconds) * time.Second
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:    "portfolio-mcp",
			Version: "1.0.0",
		},
		Auth: AuthConfig{
			Token:             "local",
			SessionTTLSeconds: 3600,
		},
		Dispatch: DispatchConfig{
			CallTimeoutSeconds: 30,
		},
		Listen: ListenConfig{
			Mode: ListenStdio,
		},
	}
}

// Load returns the default configuration overlaid with the YAML file at
// path. An empty path falls back to DefaultFileName in the working
// directory; a missing file is not an error, an unreadable or invalid one
// is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}

	if c.Server.Version == "" {
		return errors.New("server.version is required")
	}

	if c.Auth.SessionTTLSeconds < 0 {
		return errors.New("auth.session_ttl_seconds must not be negative")
	}

	if c.Dispatch.CallTimeoutSeconds < 0 {
		return errors.New("dispatch.call_timeout_seconds must not be negative")
	}

	switch c.Listen.Mode {
	case ListenStdio:
	case ListenTCP:
		if c.Listen.Addr == "" {
			return errors.New("listen.addr is required for tcp mode")
		}
	default:
		return fmt.Errorf("listen.mode %q is not supported (stdio, tcp)", c.Listen.Mode)
	}

	return nil
}
