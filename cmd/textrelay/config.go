// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/textrelay/relay"
)

// fileConfig is the on-disk form of --config. Every field is optional;
// zero values leave the built-in defaults in place.
type fileConfig struct {
	Host           string `yaml:"host" json:"host"`
	Port           int    `yaml:"port" json:"port"`
	LogHost        string `yaml:"log_host" json:"log_host"`
	LogPort        int    `yaml:"log_port" json:"log_port"`
	ShutdownGrace  string `yaml:"shutdown_grace" json:"shutdown_grace"`
	ConnectTimeout string `yaml:"connect_timeout" json:"connect_timeout"`
}

// processConfig is everything the process needs before the handshake.
type processConfig struct {
	// Base is merged under the bootstrap chunk.
	Base relay.Config

	ShutdownGrace  time.Duration
	ConnectTimeout time.Duration
}

func defaultProcessConfig() processConfig {
	return processConfig{
		Base:           relay.DefaultConfig(),
		ShutdownGrace:  relay.DefaultShutdownGrace,
		ConnectTimeout: relay.DefaultConnectTimeout,
	}
}

// loadConfigFile reads path as YAML (.yaml, .yml) or JSON with comments
// (.json, .jsonc).
func loadConfigFile(path string) (processConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return processConfig{}, fmt.Errorf("reading config: %w", err)
	}

	config, err := parseConfigFile(data, filepath.Ext(path))
	if err != nil {
		return processConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func parseConfigFile(data []byte, extension string) (processConfig, error) {
	var file fileConfig
	switch strings.ToLower(extension) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return processConfig{}, fmt.Errorf("parsing YAML: %w", err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
			return processConfig{}, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		return processConfig{}, fmt.Errorf("unsupported config format %q (want .yaml, .yml, .json or .jsonc)", extension)
	}
	return file.resolve()
}

// resolve validates the file values and applies them over the defaults.
// Host and port validation is shared with the bootstrap chunk.
func (file fileConfig) resolve() (processConfig, error) {
	config := defaultProcessConfig()

	values := make(relay.Values)
	if file.Host != "" {
		values.Set(relay.KeyHost, file.Host)
	}
	if file.Port != 0 {
		values.Set(relay.KeyPort, strconv.Itoa(file.Port))
	}
	if file.LogHost != "" {
		values.Set(relay.KeyLogHost, file.LogHost)
	}
	if file.LogPort != 0 {
		values.Set(relay.KeyLogPort, strconv.Itoa(file.LogPort))
	}
	base, err := config.Base.Merge(values)
	if err != nil {
		return processConfig{}, err
	}
	config.Base = base

	if config.ShutdownGrace, err = parseDuration("shutdown_grace", file.ShutdownGrace, config.ShutdownGrace); err != nil {
		return processConfig{}, err
	}
	if config.ConnectTimeout, err = parseDuration("connect_timeout", file.ConnectTimeout, config.ConnectTimeout); err != nil {
		return processConfig{}, err
	}
	return config, nil
}

func parseDuration(name, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", name, raw)
	}
	return duration, nil
}
