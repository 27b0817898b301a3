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

package server_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-tutor/coedit/server"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.Equal(t, "localhost:"+strconv.Itoa(server.DefaultRPCPort), conf.RPCAddr())
		assert.NoError(t, conf.Validate())

		_, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)

		assert.Equal(t, server.DefaultRPCPort, conf.RPC.Port)
		assert.Equal(t, server.DefaultActivityLogSize, conf.Backend.ActivityLogSize)
		assert.Nil(t, conf.Kafka)
		assert.Nil(t, conf.Redis)
	})

	t.Run("read config file test", func(t *testing.T) {
		conf, err := server.NewConfigFromFile("config.sample.yml")
		require.NoError(t, err)
		assert.NoError(t, conf.Validate())

		assert.Equal(t, server.DefaultRPCPort, conf.RPC.Port)
		assert.Equal(t, server.DefaultProfilingPort, conf.Profiling.Port)

		cursorTTL, err := time.ParseDuration(conf.Backend.CursorTTL)
		assert.NoError(t, err)
		assert.Equal(t, server.DefaultCursorTTL, cursorTTL)

		idleTimeout, err := conf.Housekeeping.ParseSessionIdleTimeout()
		assert.NoError(t, err)
		assert.Equal(t, server.DefaultSessionIdleTimeout, idleTimeout)

		assert.Equal(t, server.DefaultInboxSize, conf.Backend.InboxSize)
		assert.Equal(t, server.DefaultKafkaTopic, conf.Kafka.Topic)
		assert.Equal(t, 1000, conf.Redis.Retention)
		assert.Equal(t, "coedit:activity:", conf.Redis.KeyPrefix)
	})

	t.Run("invalid config test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.Backend.EditingWindow = "10s"
		assert.Error(t, conf.Validate())

		_, err := server.New(conf)
		assert.Error(t, err)
	})
}

func TestCoedit(t *testing.T) {
	t.Run("start and shutdown test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.RPC.Port = 18180
		conf.Profiling.Port = 18181

		coedit, err := server.New(conf)
		require.NoError(t, err)
		require.NoError(t, coedit.Start())

		_, err = coedit.Backend().Hub.Session("quiz-1")
		require.NoError(t, err)

		assert.NoError(t, coedit.Shutdown(true))
		assert.NoError(t, coedit.Shutdown(true))
		select {
		case <-coedit.ShutdownCh():
		default:
			assert.Fail(t, "shutdown channel is not closed")
		}
	})
}
