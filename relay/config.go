// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Defaults for values the bootstrap chunk may omit.
const (
	DefaultHost = "localhost"
	DefaultPort = 8080

	// LogPortDisabled turns off the diagnostic side connection.
	LogPortDisabled = -1
)

// Configuration keys, in normalized form (see NormalizeKey).
const (
	KeyHost    = "host"
	KeyPort    = "port"
	KeyLogHost = "loghost"
	KeyLogPort = "logport"
)

// Environment variables that override the bootstrap configuration.
const (
	EnvHost    = "TEXTRELAY_HOST"
	EnvPort    = "TEXTRELAY_PORT"
	EnvLogHost = "TEXTRELAY_LOG_HOST"
	EnvLogPort = "TEXTRELAY_LOG_PORT"
)

// Values is a set of raw configuration values keyed by normalized name.
type Values map[string]string

// NormalizeKey folds case and drops '_' and '-', so "logPort",
// "log_port" and "LOG-PORT" name the same key.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer("_", "", "-", "").Replace(key)
}

// Set stores value under the normalized form of key.
func (v Values) Set(key, value string) {
	v[NormalizeKey(key)] = value
}

// Get returns the value stored under the normalized form of key.
func (v Values) Get(key string) (string, bool) {
	value, ok := v[NormalizeKey(key)]
	return value, ok
}

// ParseValues decodes key=value lines. Lines are split at the first '=';
// keys and values are trimmed. Blank lines and lines without '=' are
// ignored. A later line overrides an earlier one with the same key.
// Lines may be of any length.
func ParseValues(text []byte) Values {
	values := make(Values)
	for line := range bytes.Lines(text) {
		key, value, found := strings.Cut(string(line), "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values.Set(key, strings.TrimSpace(value))
	}
	return values
}

// EnvironmentOverrides collects configuration from the environment.
// lookup is normally os.LookupEnv. Empty variables are treated as unset.
func EnvironmentOverrides(lookup func(string) (string, bool)) Values {
	values := make(Values)
	for variable, key := range map[string]string{
		EnvHost:    KeyHost,
		EnvPort:    KeyPort,
		EnvLogHost: KeyLogHost,
		EnvLogPort: KeyLogPort,
	} {
		if value, ok := lookup(variable); ok && strings.TrimSpace(value) != "" {
			values.Set(key, strings.TrimSpace(value))
		}
	}
	return values
}

// Config names the relay target and the optional diagnostic side
// connection.
type Config struct {
	// Host is the target host.
	Host string

	// Port is the target TCP port.
	Port int

	// LogHost is the host for the side connection. Empty means Host.
	LogHost string

	// LogPort is the side connection's port, or LogPortDisabled.
	LogPort int
}

// DefaultConfig returns the configuration used when nothing is supplied.
func DefaultConfig() Config {
	return Config{
		Host:    DefaultHost,
		Port:    DefaultPort,
		LogPort: LogPortDisabled,
	}
}

// ParseConfig decodes a bootstrap payload over the defaults. Invalid
// values keep their defaults and are reported in the returned error.
func ParseConfig(payload []byte) (Config, error) {
	return DefaultConfig().Merge(ParseValues(payload))
}

// Merge returns c with every recognized key in values applied. Values
// that fail validation leave the corresponding field unchanged and are
// reported together in the returned error; the returned Config is
// always usable.
func (c Config) Merge(values Values) (Config, error) {
	var errs []error
	if host, ok := values.Get(KeyHost); ok && host != "" {
		c.Host = host
	}
	if logHost, ok := values.Get(KeyLogHost); ok {
		c.LogHost = logHost
	}
	if raw, ok := values.Get(KeyPort); ok {
		port, err := parsePort(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("port: %w", err))
		} else {
			c.Port = port
		}
	}
	if raw, ok := values.Get(KeyLogPort); ok {
		if strings.TrimSpace(raw) == strconv.Itoa(LogPortDisabled) {
			c.LogPort = LogPortDisabled
		} else if port, err := parsePort(raw); err != nil {
			errs = append(errs, fmt.Errorf("logPort: %w", err))
		} else {
			c.LogPort = port
		}
	}
	return c, errors.Join(errs...)
}

// Address returns the target as host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LogEnabled reports whether a side connection is configured.
func (c Config) LogEnabled() bool { return c.LogPort != LogPortDisabled }

// LogAddress returns the side connection's host:port, or "" when the
// side connection is disabled.
func (c Config) LogAddress() string {
	if !c.LogEnabled() {
		return ""
	}
	host := c.LogHost
	if host == "" {
		host = c.Host
	}
	return net.JoinHostPort(host, strconv.Itoa(c.LogPort))
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", raw)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}
