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

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edu-tutor/coedit/server/backend"
	"github.com/edu-tutor/coedit/server/backend/archive"
	"github.com/edu-tutor/coedit/server/backend/housekeeping"
	"github.com/edu-tutor/coedit/server/backend/messagebroker"
	"github.com/edu-tutor/coedit/server/gateway"
	"github.com/edu-tutor/coedit/server/profiling"
	"github.com/edu-tutor/coedit/server/rpc"
)

// Below are the values of the default values of Coedit config.
const (
	DefaultRPCPort            = 8180
	DefaultProfilingPort      = 8181
	DefaultMaxMessageBytes    = 64 * 1024
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPingInterval       = 15 * time.Second
	DefaultClientQueueSize    = 256
	DefaultClientMessageRate  = 30.0
	DefaultClientMessageBurst = 60

	DefaultHousekeepingInterval = 30 * time.Second
	DefaultSessionIdleTimeout   = 10 * time.Minute

	DefaultCursorTTL        = gateway.DefaultCursorTTL
	DefaultIntentTTL        = gateway.DefaultIntentTTL
	DefaultEditingWindow    = gateway.DefaultEditingWindow
	DefaultHeartbeatTimeout = gateway.DefaultHeartbeatTimeout
	DefaultTickInterval     = time.Second
	DefaultActivityLogSize  = gateway.DefaultActivityLogSize
	DefaultMaxEditors       = gateway.DefaultMaxEditors
	DefaultSnapshotActivity = gateway.DefaultSnapshotActivity
	DefaultInboxSize        = 1024
	DefaultExportQueueSize  = 4096

	DefaultKafkaTopic        = "coedit.activity"
	DefaultKafkaWriteTimeout = messagebroker.DefaultWriteTimeout
)

// Config is the configuration for creating a Coedit instance.
type Config struct {
	RPC          *rpc.Config           `yaml:"RPC"`
	Profiling    *profiling.Config     `yaml:"Profiling"`
	Housekeeping *housekeeping.Config  `yaml:"Housekeeping"`
	Backend      *backend.Config       `yaml:"Backend"`
	Kafka        *messagebroker.Config `yaml:"Kafka"`
	Redis        *archive.Config       `yaml:"Redis"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRPCPort, DefaultProfilingPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// RPCAddr returns the RPC address.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("localhost:%d", c.RPC.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.RPC.Validate(); err != nil {
		return err
	}

	if err := c.Profiling.Validate(); err != nil {
		return err
	}

	if err := c.Housekeeping.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Kafka != nil {
		if err := c.Kafka.Validate(); err != nil {
			return err
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	defaults := newConfig(DefaultRPCPort, DefaultProfilingPort)
	if c.RPC == nil {
		c.RPC = defaults.RPC
	}
	if c.Profiling == nil {
		c.Profiling = defaults.Profiling
	}
	if c.Housekeeping == nil {
		c.Housekeeping = defaults.Housekeeping
	}
	if c.Backend == nil {
		c.Backend = defaults.Backend
	}

	if c.RPC.Port == 0 {
		c.RPC.Port = DefaultRPCPort
	}
	if c.RPC.MaxMessageBytes == 0 {
		c.RPC.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if c.RPC.WriteTimeout == "" {
		c.RPC.WriteTimeout = DefaultWriteTimeout.String()
	}
	if c.RPC.PingInterval == "" {
		c.RPC.PingInterval = DefaultPingInterval.String()
	}
	if c.RPC.ClientQueueSize == 0 {
		c.RPC.ClientQueueSize = DefaultClientQueueSize
	}
	if c.RPC.ClientMessageRate == 0 {
		c.RPC.ClientMessageRate = DefaultClientMessageRate
	}
	if c.RPC.ClientMessageBurst == 0 {
		c.RPC.ClientMessageBurst = DefaultClientMessageBurst
	}

	if c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}
	c.Profiling.EnsureDefaultValue()

	if c.Housekeeping.Interval == "" {
		c.Housekeeping.Interval = DefaultHousekeepingInterval.String()
	}
	if c.Housekeeping.SessionIdleTimeout == "" {
		c.Housekeeping.SessionIdleTimeout = DefaultSessionIdleTimeout.String()
	}

	if c.Backend.CursorTTL == "" {
		c.Backend.CursorTTL = DefaultCursorTTL.String()
	}
	if c.Backend.IntentTTL == "" {
		c.Backend.IntentTTL = DefaultIntentTTL.String()
	}
	if c.Backend.EditingWindow == "" {
		c.Backend.EditingWindow = DefaultEditingWindow.String()
	}
	if c.Backend.HeartbeatTimeout == "" {
		c.Backend.HeartbeatTimeout = DefaultHeartbeatTimeout.String()
	}
	if c.Backend.TickInterval == "" {
		c.Backend.TickInterval = DefaultTickInterval.String()
	}
	if c.Backend.ActivityLogSize == 0 {
		c.Backend.ActivityLogSize = DefaultActivityLogSize
	}
	if c.Backend.MaxEditors == 0 {
		c.Backend.MaxEditors = DefaultMaxEditors
	}
	if c.Backend.SnapshotActivity == 0 {
		c.Backend.SnapshotActivity = DefaultSnapshotActivity
	}
	if c.Backend.InboxSize == 0 {
		c.Backend.InboxSize = DefaultInboxSize
	}
	if c.Backend.ExportQueueSize == 0 {
		c.Backend.ExportQueueSize = DefaultExportQueueSize
	}

	if c.Kafka != nil && c.Kafka.Addresses != "" {
		if c.Kafka.Topic == "" {
			c.Kafka.Topic = DefaultKafkaTopic
		}
		if c.Kafka.WriteTimeout == "" {
			c.Kafka.WriteTimeout = DefaultKafkaWriteTimeout.String()
		}
	}

	if c.Redis != nil {
		c.Redis.EnsureDefaultValue()
	}
}

func newConfig(port int, profilingPort int) *Config {
	return &Config{
		RPC: &rpc.Config{
			Port:               port,
			MaxMessageBytes:    DefaultMaxMessageBytes,
			WriteTimeout:       DefaultWriteTimeout.String(),
			PingInterval:       DefaultPingInterval.String(),
			ClientQueueSize:    DefaultClientQueueSize,
			ClientMessageRate:  DefaultClientMessageRate,
			ClientMessageBurst: DefaultClientMessageBurst,
		},
		Profiling: &profiling.Config{
			Port:        profilingPort,
			MetricsPath: profiling.DefaultMetricsPath,
		},
		Housekeeping: &housekeeping.Config{
			Interval:           DefaultHousekeepingInterval.String(),
			SessionIdleTimeout: DefaultSessionIdleTimeout.String(),
		},
		Backend: &backend.Config{
			CursorTTL:        DefaultCursorTTL.String(),
			IntentTTL:        DefaultIntentTTL.String(),
			EditingWindow:    DefaultEditingWindow.String(),
			HeartbeatTimeout: DefaultHeartbeatTimeout.String(),
			TickInterval:     DefaultTickInterval.String(),
			ActivityLogSize:  DefaultActivityLogSize,
			MaxEditors:       DefaultMaxEditors,
			SnapshotActivity: DefaultSnapshotActivity,
			InboxSize:        DefaultInboxSize,
			ExportQueueSize:  DefaultExportQueueSize,
		},
	}
}
