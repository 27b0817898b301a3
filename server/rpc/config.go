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

package rpc

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRPCPort occurs when the port in the config is invalid.
	ErrInvalidRPCPort = errors.New("invalid port number for RPC server")
	// ErrInvalidMaxMessageBytes occurs when the message size limit is invalid.
	ErrInvalidMaxMessageBytes = errors.New("invalid max message bytes for RPC server")
	// ErrInvalidMessageRate occurs when the message rate limit is invalid.
	ErrInvalidMessageRate = errors.New("invalid client message rate for RPC server")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	// Port is the port number for the RPC server.
	Port int `yaml:"Port"`

	// MaxMessageBytes is the maximum size of a client frame.
	MaxMessageBytes int64 `yaml:"MaxMessageBytes"`

	// WriteTimeout is the deadline of a frame written to a client.
	WriteTimeout string `yaml:"WriteTimeout"`

	// PingInterval is the interval of WebSocket pings. A client that does
	// not answer within two intervals is disconnected.
	PingInterval string `yaml:"PingInterval"`

	// ClientQueueSize is the number of frames queued per client.
	ClientQueueSize int `yaml:"ClientQueueSize"`

	// ClientMessageRate is the number of cursor and activity messages a
	// client may send per second. Extra messages are dropped.
	ClientMessageRate float64 `yaml:"ClientMessageRate"`

	// ClientMessageBurst is the burst of the client message rate.
	ClientMessageBurst int `yaml:"ClientMessageBurst"`
}

// Validate validates the port number and the limits.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidRPCPort)
	}

	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("must be positive, given %d: %w", c.MaxMessageBytes, ErrInvalidMaxMessageBytes)
	}

	if _, err := c.ParseWriteTimeout(); err != nil {
		return err
	}
	if _, err := c.ParsePingInterval(); err != nil {
		return err
	}

	if c.ClientMessageRate <= 0 || c.ClientMessageBurst <= 0 {
		return fmt.Errorf(
			"rate %v and burst %d must be positive: %w",
			c.ClientMessageRate,
			c.ClientMessageBurst,
			ErrInvalidMessageRate,
		)
	}

	return nil
}

// ParseWriteTimeout returns the write timeout.
func (c *Config) ParseWriteTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.WriteTimeout)
	if err != nil {
		return 0, fmt.Errorf(`invalid argument "%s" for "--rpc-write-timeout" flag: %w`, c.WriteTimeout, err)
	}
	return d, nil
}

// ParsePingInterval returns the ping interval.
func (c *Config) ParsePingInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.PingInterval)
	if err != nil {
		return 0, fmt.Errorf(`invalid argument "%s" for "--rpc-ping-interval" flag: %w`, c.PingInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf(`invalid argument "%s" for "--rpc-ping-interval" flag: must be positive`, c.PingInterval)
	}
	return d, nil
}
