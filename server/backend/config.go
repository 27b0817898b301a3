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

package backend

import (
	"fmt"
	"time"

	"github.com/edu-tutor/coedit/server/backend/session"
	"github.com/edu-tutor/coedit/server/gateway"
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// CursorTTL is how long a cursor stays visible without updates.
	CursorTTL string `yaml:"CursorTTL"`

	// IntentTTL is how long a participant counts on an anchor after their
	// last signal.
	IntentTTL string `yaml:"IntentTTL"`

	// EditingWindow is how long after a keystroke a participant counts as
	// editing.
	EditingWindow string `yaml:"EditingWindow"`

	// HeartbeatTimeout is how long a participant stays online without
	// heartbeats.
	HeartbeatTimeout string `yaml:"HeartbeatTimeout"`

	// TickInterval is the interval of the clock ticks of every session.
	TickInterval string `yaml:"TickInterval"`

	// ActivityLogSize is the number of activity events kept in memory per
	// session.
	ActivityLogSize int `yaml:"ActivityLogSize"`

	// MaxEditors is the number of editor names in an intent summary.
	MaxEditors int `yaml:"MaxEditors"`

	// SnapshotActivity is the number of recent events in a snapshot.
	SnapshotActivity int `yaml:"SnapshotActivity"`

	// InboxSize is the number of messages that can wait for a session.
	InboxSize int `yaml:"InboxSize"`

	// ExportQueueSize is the number of events that can wait for export.
	ExportQueueSize int `yaml:"ExportQueueSize"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if _, err := c.SessionConfig(); err != nil {
		return err
	}
	if c.InboxSize < 0 {
		return fmt.Errorf(`invalid argument %d for "--session-inbox-size" flag`, c.InboxSize)
	}
	if c.ExportQueueSize < 0 {
		return fmt.Errorf(`invalid argument %d for "--export-queue-size" flag`, c.ExportQueueSize)
	}
	return nil
}

// SessionConfig returns the configuration of the sessions.
func (c *Config) SessionConfig() (session.Config, error) {
	conf := session.Config{
		Gateway: gateway.Config{
			ActivityLogSize:  c.ActivityLogSize,
			MaxEditors:       c.MaxEditors,
			SnapshotActivity: c.SnapshotActivity,
		},
		InboxSize: c.InboxSize,
	}

	var err error
	if conf.Gateway.CursorTTL, err = parseDuration("--cursor-ttl", c.CursorTTL); err != nil {
		return session.Config{}, err
	}
	if conf.Gateway.IntentTTL, err = parseDuration("--intent-ttl", c.IntentTTL); err != nil {
		return session.Config{}, err
	}
	if conf.Gateway.EditingWindow, err = parseDuration("--editing-window", c.EditingWindow); err != nil {
		return session.Config{}, err
	}
	if conf.Gateway.HeartbeatTimeout, err = parseDuration("--heartbeat-timeout", c.HeartbeatTimeout); err != nil {
		return session.Config{}, err
	}
	if conf.TickInterval, err = parseDuration("--tick-interval", c.TickInterval); err != nil {
		return session.Config{}, err
	}

	if err := conf.Gateway.Validate(); err != nil {
		return session.Config{}, err
	}
	return conf, nil
}

func parseDuration(flag, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf(`invalid argument "%s" for "%s" flag: %w`, value, flag, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf(`invalid argument "%s" for "%s" flag: must be positive`, value, flag)
	}
	return d, nil
}
