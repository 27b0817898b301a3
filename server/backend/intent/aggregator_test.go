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

package intent_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/server/backend/intent"
)

var t0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

type roster map[types.ID]bool

func (r roster) IsOnline(id types.ID) bool { return r[id] }

func newAggregator(online ...types.ID) *intent.Aggregator {
	r := roster{}
	for _, id := range online {
		r[id] = true
	}
	return intent.New(r, intent.Config{
		IntentTTL:     3 * time.Second,
		EditingWindow: 2 * time.Second,
		MaxEditors:    3,
	})
}

func TestAggregator(t *testing.T) {
	t.Run("editing decays to viewing then expires test", func(t *testing.T) {
		a := newAggregator("u1")

		started, err := a.RecordActivity("u1", "q3", types.SignalKeystroke, t0)
		assert.NoError(t, err)
		assert.True(t, started)

		intents := a.ComputeIntents(t0.Add(time.Second))
		assert.Len(t, intents, 1)
		assert.Equal(t, types.IntentEditing, intents[0].State)

		intents = a.ComputeIntents(t0.Add(2500 * time.Millisecond))
		assert.Len(t, intents, 1)
		assert.Equal(t, types.IntentViewing, intents[0].State)

		assert.Empty(t, a.ComputeIntents(t0.Add(3500*time.Millisecond)))
		assert.Empty(t, a.Anchors())
	})

	t.Run("edit start is reported once per editing streak test", func(t *testing.T) {
		a := newAggregator("u1")

		started, _ := a.RecordActivity("u1", "q1", types.SignalKeystroke, t0)
		assert.True(t, started)
		started, _ = a.RecordActivity("u1", "q1", types.SignalKeystroke, t0.Add(time.Second))
		assert.False(t, started)
		started, _ = a.RecordActivity("u1", "q1", types.SignalFocus, t0.Add(1500*time.Millisecond))
		assert.False(t, started)

		started, _ = a.RecordActivity("u1", "q1", types.SignalKeystroke, t0.Add(4*time.Second))
		assert.True(t, started)

		started, _ = a.RecordActivity("u1", "q2", types.SignalKeystroke, t0.Add(4*time.Second))
		assert.True(t, started)
	})

	t.Run("focus and idle test", func(t *testing.T) {
		a := newAggregator("u1")

		_, err := a.RecordActivity("u1", "q1", types.SignalFocus, t0)
		assert.NoError(t, err)
		summary := a.Summarize("q1", t0)
		assert.Equal(t, 0, summary.EditingCount)
		assert.Equal(t, 1, summary.ViewingCount)

		_, _ = a.RecordActivity("u1", "q1", types.SignalKeystroke, t0.Add(time.Second))
		assert.Equal(t, 1, a.Summarize("q1", t0.Add(time.Second)).EditingCount)

		_, _ = a.RecordActivity("u1", "q1", types.SignalIdle, t0.Add(1200*time.Millisecond))
		summary = a.Summarize("q1", t0.Add(1200*time.Millisecond))
		assert.Equal(t, 0, summary.EditingCount)
		assert.Equal(t, 1, summary.ViewingCount)
	})

	t.Run("summary keeps three most recent editors test", func(t *testing.T) {
		a := newAggregator("u1", "u2", "u3", "u4", "u5")

		_, _ = a.RecordActivity("u1", "q1", types.SignalKeystroke, t0)
		_, _ = a.RecordActivity("u2", "q1", types.SignalKeystroke, t0.Add(100*time.Millisecond))
		_, _ = a.RecordActivity("u3", "q1", types.SignalKeystroke, t0.Add(200*time.Millisecond))
		_, _ = a.RecordActivity("u4", "q1", types.SignalKeystroke, t0.Add(300*time.Millisecond))
		_, _ = a.RecordActivity("u5", "q1", types.SignalFocus, t0.Add(300*time.Millisecond))

		summary := a.Summarize("q1", t0.Add(time.Second))
		assert.Equal(t, 4, summary.EditingCount)
		assert.Equal(t, 1, summary.ViewingCount)
		assert.Equal(t, []types.ID{"u4", "u3", "u2"}, summary.Editors)

		empty := a.Summarize("q9", t0)
		assert.True(t, empty.IsEmpty())
		assert.Empty(t, empty.Editors)
	})

	t.Run("purge test", func(t *testing.T) {
		a := newAggregator("u1", "u2")
		_, _ = a.RecordActivity("u1", "q2", types.SignalFocus, t0)
		_, _ = a.RecordActivity("u1", "q1", types.SignalKeystroke, t0)
		_, _ = a.RecordActivity("u2", "q1", types.SignalFocus, t0)

		assert.Equal(t, []types.Anchor{"q1", "q2"}, a.Purge("u1"))
		assert.Equal(t, []types.Anchor{"q1"}, a.Anchors())
		assert.Empty(t, a.Purge("u1"))

		intents := a.ComputeIntents(t0)
		assert.Len(t, intents, 1)
		assert.Equal(t, types.ID("u2"), intents[0].ParticipantID)
	})

	t.Run("rejects offline participants and unknown kinds test", func(t *testing.T) {
		a := newAggregator("u1")
		_, err := a.RecordActivity("u2", "q1", types.SignalFocus, t0)
		assert.ErrorIs(t, err, intent.ErrStale)

		_, err = a.RecordActivity("u1", "q1", types.SignalKind("scroll"), t0)
		assert.ErrorIs(t, err, intent.ErrInvalidSignal)
		assert.Empty(t, a.Anchors())
	})
}
