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

package gateway

import (
	"fmt"
	"time"
)

const (
	// DefaultCursorTTL is how long a cursor lives without updates.
	DefaultCursorTTL = 5 * time.Second

	// DefaultIntentTTL is how long an intent lives without signals.
	DefaultIntentTTL = 3 * time.Second

	// DefaultEditingWindow is how long a keystroke keeps a participant
	// editing.
	DefaultEditingWindow = 2 * time.Second

	// DefaultHeartbeatTimeout is how long a participant stays online without
	// heartbeats.
	DefaultHeartbeatTimeout = 30 * time.Second

	// DefaultActivityLogSize is the number of retained activity events.
	DefaultActivityLogSize = 200

	// DefaultMaxEditors caps the editors listed per anchor.
	DefaultMaxEditors = 3

	// DefaultSnapshotActivity is the number of events sent in a snapshot.
	DefaultSnapshotActivity = 50
)

// Config is the configuration of a Gateway.
type Config struct {
	CursorTTL        time.Duration
	IntentTTL        time.Duration
	EditingWindow    time.Duration
	HeartbeatTimeout time.Duration
	ActivityLogSize  int
	MaxEditors       int
	SnapshotActivity int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CursorTTL:        DefaultCursorTTL,
		IntentTTL:        DefaultIntentTTL,
		EditingWindow:    DefaultEditingWindow,
		HeartbeatTimeout: DefaultHeartbeatTimeout,
		ActivityLogSize:  DefaultActivityLogSize,
		MaxEditors:       DefaultMaxEditors,
		SnapshotActivity: DefaultSnapshotActivity,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.CursorTTL <= 0 || c.IntentTTL <= 0 || c.EditingWindow <= 0 || c.HeartbeatTimeout <= 0 {
		return fmt.Errorf("durations must be positive: %+v", c)
	}
	if c.EditingWindow > c.IntentTTL {
		return fmt.Errorf("editing window %s exceeds intent TTL %s", c.EditingWindow, c.IntentTTL)
	}
	if c.ActivityLogSize <= 0 || c.MaxEditors <= 0 || c.SnapshotActivity < 0 {
		return fmt.Errorf("sizes must be positive: %+v", c)
	}
	return nil
}
