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

package messagebroker_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/server/backend/messagebroker"
)

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := messagebroker.Config{
			Addresses:    "localhost:9092",
			Topic:        "coedit.activity",
			WriteTimeout: "1s",
		}
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.Addresses = ""
		assert.ErrorIs(t, conf1.Validate(), messagebroker.ErrEmptyAddress)

		conf2 := validConf
		conf2.Addresses = "localhost:9092,"
		assert.ErrorIs(t, conf2.Validate(), messagebroker.ErrEmptyAddress)
		assert.Contains(t, conf2.Validate().Error(), conf2.Addresses)

		conf3 := validConf
		conf3.Topic = ""
		assert.ErrorIs(t, conf3.Validate(), messagebroker.ErrEmptyTopic)

		conf4 := validConf
		conf4.WriteTimeout = "invalid"
		assert.Error(t, conf4.Validate())
	})

	t.Run("split addresses test", func(t *testing.T) {
		c := &messagebroker.Config{Addresses: "localhost:9092,localhost:9093"}
		assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, c.SplitAddresses())

		timeout, err := c.ParseWriteTimeout()
		assert.NoError(t, err)
		assert.Equal(t, messagebroker.DefaultWriteTimeout, timeout)
	})
}

func TestEnsure(t *testing.T) {
	t.Run("discard broker without kafka test", func(t *testing.T) {
		assert.IsType(t, &messagebroker.DiscardBroker{}, messagebroker.Ensure(nil))
		assert.IsType(t, &messagebroker.DiscardBroker{}, messagebroker.Ensure(&messagebroker.Config{}))

		broker := messagebroker.Ensure(nil).(*messagebroker.DiscardBroker)
		msg := messagebroker.NewActivityEventMessage("quiz-1", types.ActivityEvent{ID: "e1", Seq: 1})
		assert.NoError(t, broker.Produce(context.Background(), msg))
		assert.NoError(t, broker.Produce(context.Background(), msg))
		assert.Equal(t, int64(2), broker.Discarded())
	})

	t.Run("kafka broker test", func(t *testing.T) {
		broker := messagebroker.Ensure(&messagebroker.Config{
			Addresses: "localhost:9092",
			Topic:     "coedit.activity",
		})
		assert.IsType(t, &messagebroker.KafkaBroker{}, broker)
		assert.NoError(t, broker.Close())
	})
}

func TestActivityEventMessage(t *testing.T) {
	t.Run("marshal test", func(t *testing.T) {
		at := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
		msg := messagebroker.NewActivityEventMessage("quiz-1", types.ActivityEvent{
			ID:          "e1",
			Seq:         7,
			Type:        types.ActivityComment,
			ActorID:     "u1",
			Anchor:      "q2",
			Description: "commented on q2",
			OccurredAt:  at,
		})
		assert.Equal(t, []byte("quiz-1"), msg.Key())

		encoded, err := msg.Marshal()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		assert.Equal(t, "quiz-1", decoded["doc_key"])
		assert.Equal(t, float64(7), decoded["seq"])
		assert.Equal(t, "comment", decoded["event_type"])
		assert.Equal(t, "2026-01-01T09:00:00Z", decoded["occurred_at"])
	})
}
