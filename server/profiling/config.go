/*
 * Copyright 2026 The Coedit Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package profiling provides the server exposing metrics and pprof.
// Package profiling serves the metrics of coedit sessions and, when enabled,
// the pprof endpoints of the runtime.
package profiling

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMetricsPath is the path of the metrics endpoint when none is set.
const DefaultMetricsPath = "/metrics"

var (
	// ErrInvalidProfilingPort is returned when the profiling port is out of
	// range.
	ErrInvalidProfilingPort = errors.New("invalid port number for profiling server")

	// ErrInvalidMetricsPath is returned when the metrics path is not absolute
	// or collides with the pprof endpoints.
	ErrInvalidMetricsPath = errors.New("invalid metrics path")
)

// Config is the configuration of the profiling server.
type Config struct {
	// Port is the port the metrics are scraped from.
	Port int `yaml:"Port"`

	// MetricsPath is the path of the metrics endpoint.
	MetricsPath string `yaml:"MetricsPath"`

	// EnablePprof exposes the pprof endpoints under /debug/pprof.
	EnablePprof bool `yaml:"EnablePprof"`
}

// EnsureDefaultValue fills the unset fields.
func (c *Config) EnsureDefaultValue() {
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
}

// Addr returns the address the profiling server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidProfilingPort)
	}

	if c.MetricsPath != "" {
		if !strings.HasPrefix(c.MetricsPath, "/") || strings.HasPrefix(c.MetricsPath, httpPrefixPProf) {
			return fmt.Errorf("%q: %w", c.MetricsPath, ErrInvalidMetricsPath)
		}
	}

	return nil
}
