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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edu-tutor/coedit/server"
	"github.com/edu-tutor/coedit/server/backend/archive"
	"github.com/edu-tutor/coedit/server/backend/messagebroker"
	"github.com/edu-tutor/coedit/server/logging"
)

var (
	gracefulTimeout = 10 * time.Second
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "server [options]",
		Short:   "Start Coedit server",
		PreRunE: bindFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := configFromFlags()
			if err != nil {
				return err
			}

			if err := logging.SetLogLevel(viper.GetString("log-level")); err != nil {
				return err
			}
			if err := logging.SetLogFormat(viper.GetString("log-format")); err != nil {
				return err
			}

			r, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := r.Start(); err != nil {
				return err
			}

			if code := handleSignal(r); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

// configFromFlags builds the server config from the bound flags. If a config
// file is given, the flags are ignored.
func configFromFlags() (*server.Config, error) {
	if path := viper.GetString("config"); path != "" {
		return server.NewConfigFromFile(path)
	}

	conf := server.NewConfig()
	conf.RPC.Port = viper.GetInt("rpc-port")
	conf.RPC.MaxMessageBytes = viper.GetInt64("rpc-max-message-bytes")
	conf.RPC.ClientQueueSize = viper.GetInt("rpc-client-queue-size")
	conf.RPC.ClientMessageRate = viper.GetFloat64("rpc-client-message-rate")
	conf.RPC.ClientMessageBurst = viper.GetInt("rpc-client-message-burst")

	conf.Profiling.Port = viper.GetInt("profiling-port")
	conf.Profiling.EnablePprof = viper.GetBool("enable-pprof")

	conf.Housekeeping.Interval = viper.GetDuration("housekeeping-interval").String()
	conf.Housekeeping.SessionIdleTimeout = viper.GetDuration("session-idle-timeout").String()

	conf.Backend.CursorTTL = viper.GetDuration("cursor-ttl").String()
	conf.Backend.IntentTTL = viper.GetDuration("intent-ttl").String()
	conf.Backend.EditingWindow = viper.GetDuration("editing-window").String()
	conf.Backend.HeartbeatTimeout = viper.GetDuration("heartbeat-timeout").String()
	conf.Backend.ActivityLogSize = viper.GetInt("activity-log-size")

	if addrs := viper.GetString("kafka-addresses"); addrs != "" {
		conf.Kafka = &messagebroker.Config{
			Addresses:    addrs,
			Topic:        viper.GetString("kafka-topic"),
			WriteTimeout: viper.GetDuration("kafka-write-timeout").String(),
		}
	}

	if url := viper.GetString("redis-url"); url != "" {
		conf.Redis = &archive.Config{
			URL:       url,
			Retention: viper.GetInt("redis-retention"),
		}
		conf.Redis.EnsureDefaultValue()
	}

	return conf, nil
}

func handleSignal(r *server.Coedit) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-r.ShutdownCh():
		// coedit is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := r.Shutdown(graceful); err != nil {
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Config path")
	flags.StringP("log-level", "l", "info", "Log level: debug, info, warn, error, panic, fatal")
	flags.String("log-format", "json", "Log format: json, console")

	flags.Int("rpc-port", server.DefaultRPCPort, "RPC port")
	flags.Int64("rpc-max-message-bytes", server.DefaultMaxMessageBytes,
		"Maximum size in bytes of a frame the server will accept.")
	flags.Int("rpc-client-queue-size", server.DefaultClientQueueSize,
		"Number of outbound frames that can wait for a slow client.")
	flags.Float64("rpc-client-message-rate", server.DefaultClientMessageRate,
		"Cursor and activity frames per second accepted from a client.")
	flags.Int("rpc-client-message-burst", server.DefaultClientMessageBurst,
		"Burst of cursor and activity frames accepted from a client.")

	flags.Int("profiling-port", server.DefaultProfilingPort, "Profiling port")
	flags.Bool("enable-pprof", false, "Enable runtime profiling data via HTTP server.")

	flags.Duration("housekeeping-interval", server.DefaultHousekeepingInterval,
		"Interval between housekeeping runs")
	flags.Duration("session-idle-timeout", server.DefaultSessionIdleTimeout,
		"Time after which a session without clients is closed")

	flags.Duration("cursor-ttl", server.DefaultCursorTTL, "Time a cursor stays visible without updates")
	flags.Duration("intent-ttl", server.DefaultIntentTTL, "Time a participant counts on an anchor")
	flags.Duration("editing-window", server.DefaultEditingWindow,
		"Time after a keystroke a participant counts as editing")
	flags.Duration("heartbeat-timeout", server.DefaultHeartbeatTimeout,
		"Time a participant stays online without heartbeats")
	flags.Int("activity-log-size", server.DefaultActivityLogSize,
		"Number of activity events kept in memory per session")

	flags.String("kafka-addresses", "", "Comma separated list of Kafka addresses, e.g. localhost:29092")
	flags.String("kafka-topic", server.DefaultKafkaTopic, "Kafka topic of the activity events")
	flags.Duration("kafka-write-timeout", server.DefaultKafkaWriteTimeout, "Kafka write timeout")

	flags.String("redis-url", "", "Redis URL of the activity archive, e.g. redis://localhost:6379/0")
	flags.Int("redis-retention", archive.DefaultRetention, "Number of archived events kept per document")

	rootCmd.AddCommand(cmd)
}
