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

// Package housekeeping periodically releases the resources of sessions that
// nobody is connected to anymore.
package housekeeping

import (
	"fmt"
	"time"
)

// Config is the configuration for the housekeeping service.
type Config struct {
	// Interval is the time between housekeeping runs.
	Interval string `yaml:"Interval"`

	// SessionIdleTimeout is how long a session without clients is kept.
	SessionIdleTimeout string `yaml:"SessionIdleTimeout"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.ParseInterval(); err != nil {
		return fmt.Errorf(`invalid argument %s for "--housekeeping-interval" flag: %w`, c.Interval, err)
	}
	if _, err := c.ParseSessionIdleTimeout(); err != nil {
		return fmt.Errorf(
			`invalid argument %s for "--session-idle-timeout" flag: %w`,
			c.SessionIdleTimeout,
			err,
		)
	}
	return nil
}

// ParseInterval parses the interval.
func (c *Config) ParseInterval() (time.Duration, error) {
	return parsePositive("interval", c.Interval)
}

// ParseSessionIdleTimeout parses the session idle timeout.
func (c *Config) ParseSessionIdleTimeout() (time.Duration, error) {
	return parsePositive("session idle timeout", c.SessionIdleTimeout)
}

func parsePositive(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %s: %w", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, given %s", name, value)
	}
	return d, nil
}
