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

package archive

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultKeyPrefix is the prefix of the list keys.
	DefaultKeyPrefix = "coedit:activity:"

	// DefaultRetention is the number of events kept per document.
	DefaultRetention = 1000

	// DefaultTTL is how long the events of an inactive document are kept.
	DefaultTTL = "168h"
)

var (
	// ErrEmptyURL is returned when the Redis URL is empty.
	ErrEmptyURL = errors.New("redis url cannot be empty")

	// ErrInvalidRetention is returned when the retention is not positive.
	ErrInvalidRetention = errors.New("retention must be positive")
)

// Config is the configuration of the activity archive.
type Config struct {
	// URL is the Redis URL, e.g. "redis://localhost:6379/0".
	URL       string `yaml:"URL"`
	KeyPrefix string `yaml:"KeyPrefix"`
	Retention int    `yaml:"Retention"`
	TTL       string `yaml:"TTL"`
}

// EnsureDefaultValue fills the unset fields.
func (c *Config) EnsureDefaultValue() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.Retention == 0 {
		c.Retention = DefaultRetention
	}
	if c.TTL == "" {
		c.TTL = DefaultTTL
	}
}

// ParseTTL returns the TTL of the archived lists.
func (c *Config) ParseTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("parse ttl %s: %w", c.TTL, err)
	}
	return ttl, nil
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrEmptyURL
	}
	if c.Retention <= 0 {
		return fmt.Errorf("%d: %w", c.Retention, ErrInvalidRetention)
	}
	if _, err := c.ParseTTL(); err != nil {
		return err
	}
	return nil
}
