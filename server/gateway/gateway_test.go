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

package gateway_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-tutor/coedit/api/message"
	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/server/backend/presence"
	"github.com/edu-tutor/coedit/server/backend/pubsub"
	"github.com/edu-tutor/coedit/server/gateway"
	"github.com/edu-tutor/coedit/server/logging"
	"github.com/edu-tutor/coedit/server/profiling/prometheus"
)

var t0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

type recordingSink struct {
	events []types.ActivityEvent
}

func (s *recordingSink) Export(_ string, event types.ActivityEvent) {
	s.events = append(s.events, event)
}

type harness struct {
	gw    *gateway.Gateway
	sink  *recordingSink
	subs  map[types.ID]*pubsub.Subscription
	queue int
}

func newHarness(t *testing.T, queueSize int) *harness {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)
	sink := &recordingSink{}
	gw, err := gateway.New("quiz-1", gateway.DefaultConfig(), sink, metrics, logging.New("test"))
	require.NoError(t, err)
	return &harness{gw: gw, sink: sink, subs: map[types.ID]*pubsub.Subscription{}, queue: queueSize}
}

func (h *harness) connect(clientID types.ID) {
	sub := pubsub.NewSubscription(clientID, h.queue, nil)
	h.subs[clientID] = sub
	h.gw.Connect(sub)
}

func (h *harness) join(clientID, participantID types.ID, role types.Role, now time.Time) {
	h.connect(clientID)
	_ = h.send(clientID, &message.Join{ParticipantID: participantID, DisplayName: string(participantID), Role: role}, now)
}

func (h *harness) send(clientID types.ID, req message.Request, now time.Time) error {
	return h.gw.OnMessage(clientID, req, now)
}

func (h *harness) drain(clientID types.ID) []message.Outbound {
	return h.subs[clientID].Drain()
}

func (h *harness) drainAll() {
	for id := range h.subs {
		h.drain(id)
	}
}

func deltas(outs []message.Outbound, kind message.DeltaKind) []message.Delta {
	var result []message.Delta
	for _, out := range outs {
		if delta, ok := out.Payload.(message.Delta); ok && delta.Kind == kind {
			result = append(result, delta)
		}
	}
	return result
}

func ofType(outs []message.Outbound, t message.Type) []message.Outbound {
	var result []message.Outbound
	for _, out := range outs {
		if out.Type == t {
			result = append(result, out)
		}
	}
	return result
}

func rejection(t *testing.T, outs []message.Outbound) message.Rejection {
	rejections := ofType(outs, message.TypeRejection)
	require.Len(t, rejections, 1)
	return rejections[0].Payload.(message.Rejection)
}

func TestJoin(t *testing.T) {
	t.Run("join sends snapshot and notifies others test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleOwner, t0)

		outs := h.drain("c1")
		require.Len(t, outs, 1)
		snapshot := outs[0].Payload.(message.Snapshot)
		require.Len(t, snapshot.Participants, 1)
		assert.True(t, snapshot.Participants[0].IsOnline())
		require.Len(t, snapshot.Activity, 1)
		assert.Equal(t, "joined the collaboration", snapshot.Activity[0].Description)
		assert.Equal(t, int64(1), snapshot.LastSeq)

		h.join("c2", "u2", types.RoleEditor, t0.Add(time.Second))
		outs = h.drain("c1")
		assert.Len(t, deltas(outs, message.DeltaParticipant), 1)
		activity := deltas(outs, message.DeltaActivity)
		require.Len(t, activity, 1)
		assert.Equal(t, types.ID("u2"), activity[0].Event.ActorID)

		outs = h.drain("c2")
		require.Len(t, outs, 1)
		assert.Len(t, outs[0].Payload.(message.Snapshot).Participants, 2)
		assert.Len(t, h.sink.events, 2)
	})

	t.Run("second connection of a participant does not rejoin test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u1", types.RoleEditor, t0)

		assert.Len(t, h.sink.events, 1)
		assert.Empty(t, deltas(h.drain("c1"), message.DeltaParticipant))
		assert.Len(t, ofType(h.drain("c2"), message.TypeStateSnapshot), 1)

		h.gw.Disconnect("c1", t0.Add(time.Second))
		assert.Len(t, h.sink.events, 1)

		h.gw.Disconnect("c2", t0.Add(2*time.Second))
		require.Len(t, h.sink.events, 2)
		assert.Equal(t, types.ActivityLeave, h.sink.events[1].Type)
	})

	t.Run("client cannot join as a second participant test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.drainAll()

		err := h.send("c1", &message.Join{ParticipantID: "u2", DisplayName: "B", Role: types.RoleEditor}, t0)
		assert.ErrorIs(t, err, gateway.ErrAlreadyJoined)
		assert.Equal(t, "ErrAlreadyJoined", rejection(t, h.drain("c1")).Code)
	})

	t.Run("deltas reach joined clients only test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.connect("lurker")
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u2", types.RoleEditor, t0)
		h.drainAll()

		assert.NoError(t, h.send("c1", &message.CursorUpdate{X: 1, Y: 1}, t0))
		assert.NoError(t, h.send("c1", &message.AddComment{Text: "check q1", Anchor: "q1"}, t0))
		assert.NotEmpty(t, h.drain("c2"))
		assert.Empty(t, h.drain("lurker"))

		assert.NoError(t, h.send("lurker", &message.Join{ParticipantID: "u3", DisplayName: "C", Role: types.RoleViewer}, t0))
		snapshots := ofType(h.drain("lurker"), message.TypeStateSnapshot)
		require.Len(t, snapshots, 1)
		assert.Len(t, snapshots[0].Payload.(message.Snapshot).Comments, 1)
	})

	t.Run("messages before join are rejected test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.connect("c1")

		err := h.send("c1", &message.CursorUpdate{X: 1, Y: 1}, t0)
		assert.ErrorIs(t, err, gateway.ErrNotJoined)
		r := rejection(t, h.drain("c1"))
		assert.Equal(t, "failed_precondition", r.Status)
		assert.Equal(t, message.TypeCursorUpdate, r.RequestType)

		assert.ErrorIs(t, h.send("ghost", &message.Heartbeat{}, t0), gateway.ErrUnknownClient)
	})
}

func TestPresence(t *testing.T) {
	t.Run("cursor is not echoed to its sender test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u2", types.RoleEditor, t0)
		h.drainAll()

		assert.NoError(t, h.send("c1", &message.CursorUpdate{X: 10, Y: 20}, t0))
		assert.Empty(t, h.drain("c1"))

		cursors := deltas(h.drain("c2"), message.DeltaCursor)
		require.Len(t, cursors, 1)
		assert.Equal(t, "#3B82F6", cursors[0].Cursor.ColorToken)
		assert.Equal(t, t0, cursors[0].Cursor.UpdatedAt)
	})

	t.Run("cursor expires after ttl test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u2", types.RoleEditor, t0)
		assert.NoError(t, h.send("c1", &message.CursorUpdate{X: 10, Y: 20}, t0))
		h.drainAll()

		h.gw.Tick(t0.Add(3 * time.Second))
		assert.Len(t, h.gw.Snapshot().Cursors, 1)
		assert.Empty(t, deltas(h.drain("c2"), message.DeltaCursorRemoved))

		h.gw.Tick(t0.Add(6 * time.Second))
		assert.Empty(t, h.gw.Snapshot().Cursors)
		removed := deltas(h.drain("c2"), message.DeltaCursorRemoved)
		require.Len(t, removed, 1)
		assert.Equal(t, types.ID("u1"), removed[0].ParticipantID)
	})

	t.Run("out of order cursor is dropped silently test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.drainAll()

		now := t0.Add(2 * time.Second)
		later := now.UnixMilli()
		earlier := t0.Add(time.Second).UnixMilli()
		assert.NoError(t, h.send("c1", &message.CursorUpdate{X: 1, Y: 1, At: &later}, now))
		assert.Error(t, h.send("c1", &message.CursorUpdate{X: 2, Y: 2, At: &earlier}, now))

		assert.Empty(t, ofType(h.drain("c1"), message.TypeRejection))
		assert.Equal(t, 1.0, h.gw.Snapshot().Cursors[0].X)
	})

	t.Run("older lagging cursor does not overwrite a clamped one test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.drainAll()

		now := t0.Add(10 * time.Second)
		lagging := now.Add(-6 * time.Second).UnixMilli()
		assert.NoError(t, h.send("c1", &message.CursorUpdate{X: 1, Y: 1, At: &lagging}, now))
		stored := h.gw.Snapshot().Cursors[0]
		assert.Equal(t, now.Add(-5*time.Second), stored.UpdatedAt)

		next := now.Add(500 * time.Millisecond)
		older := next.Add(-7 * time.Second).UnixMilli()
		err := h.send("c1", &message.CursorUpdate{X: 99, Y: 99, At: &older}, next)
		assert.ErrorIs(t, err, presence.ErrOutOfOrder)

		cursors := h.gw.Snapshot().Cursors
		require.Len(t, cursors, 1)
		assert.Equal(t, 1.0, cursors[0].X)
		assert.Equal(t, stored.UpdatedAt, cursors[0].UpdatedAt)
	})

	t.Run("heartbeat timeout takes participant offline test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u2", types.RoleEditor, t0)
		assert.NoError(t, h.send("c2", &message.Heartbeat{}, t0.Add(20*time.Second)))
		h.drainAll()

		h.gw.Tick(t0.Add(31 * time.Second))

		participants := deltas(h.drain("c2"), message.DeltaParticipant)
		require.Len(t, participants, 1)
		assert.Equal(t, types.ID("u1"), participants[0].Participant.ID)
		assert.False(t, participants[0].Participant.IsOnline())

		err := h.send("c1", &message.CursorUpdate{X: 1, Y: 1}, t0.Add(32*time.Second))
		assert.ErrorIs(t, err, gateway.ErrNotJoined)
	})

	t.Run("heartbeat for another participant is rejected test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.drainAll()

		err := h.send("c1", &message.Heartbeat{ParticipantID: "u2"}, t0)
		assert.ErrorIs(t, err, gateway.ErrParticipantMismatch)
		assert.Equal(t, "invalid_argument", rejection(t, h.drain("c1")).Status)
	})
}

func TestIntent(t *testing.T) {
	t.Run("keystroke records edit once and broadcasts summary test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u2", types.RoleEditor, t0)
		h.drainAll()

		keystroke := &message.ActivitySignal{Anchor: "q3", Kind: types.SignalKeystroke}
		assert.NoError(t, h.send("c1", keystroke, t0))
		assert.NoError(t, h.send("c1", keystroke, t0.Add(500*time.Millisecond)))

		outs := h.drain("c2")
		activity := deltas(outs, message.DeltaActivity)
		require.Len(t, activity, 1)
		assert.Equal(t, "edited q3", activity[0].Event.Description)

		intents := deltas(outs, message.DeltaIntent)
		require.Len(t, intents, 1)
		assert.Equal(t, 1, intents[0].Intent.EditingCount)
		assert.Equal(t, []types.ID{"u1"}, intents[0].Intent.Editors)

		h.gw.Tick(t0.Add(2600 * time.Millisecond))
		intents = deltas(h.drain("c2"), message.DeltaIntent)
		require.Len(t, intents, 1)
		assert.Equal(t, 0, intents[0].Intent.EditingCount)
		assert.Equal(t, 1, intents[0].Intent.ViewingCount)

		h.gw.Tick(t0.Add(4 * time.Second))
		intents = deltas(h.drain("c2"), message.DeltaIntent)
		require.Len(t, intents, 1)
		assert.True(t, intents[0].Intent.IsEmpty())
		assert.Empty(t, h.gw.Snapshot().Intents)
	})

	t.Run("leave clears cursor and intents test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u2", types.RoleEditor, t0)
		assert.NoError(t, h.send("c1", &message.CursorUpdate{X: 1, Y: 1, Anchor: "q1"}, t0))
		h.drainAll()
		assert.Len(t, h.gw.Snapshot().Intents, 1)

		assert.NoError(t, h.send("c1", &message.Leave{}, t0.Add(time.Second)))

		outs := h.drain("c2")
		assert.Len(t, deltas(outs, message.DeltaCursorRemoved), 1)
		assert.Len(t, deltas(outs, message.DeltaIntent), 1)
		assert.Len(t, deltas(outs, message.DeltaParticipant), 1)

		snapshot := h.gw.Snapshot()
		assert.Empty(t, snapshot.Cursors)
		assert.Empty(t, snapshot.Intents)
		assert.Equal(t, 2, h.gw.Clients())
	})
}

func TestComments(t *testing.T) {
	t.Run("add and resolve test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u2", types.RoleOwner, t0)
		h.drainAll()

		assert.NoError(t, h.send("c1", &message.AddComment{Text: "fix this", Anchor: "q1"}, t0))
		outs := h.drain("c2")
		comments := deltas(outs, message.DeltaComment)
		require.Len(t, comments, 1)
		c1 := comments[0].Comment
		assert.Equal(t, "commented on q1", deltas(outs, message.DeltaActivity)[0].Event.Description)
		assert.Len(t, deltas(h.drain("c1"), message.DeltaComment), 1)

		assert.NoError(t, h.send("c2", &message.ResolveComment{CommentID: c1.ID}, t0.Add(time.Second)))
		comments = deltas(h.drain("c1"), message.DeltaComment)
		require.Len(t, comments, 1)
		assert.True(t, comments[0].Comment.Resolved)
		h.drainAll()

		err := h.send("c2", &message.ResolveComment{CommentID: c1.ID}, t0.Add(2*time.Second))
		assert.Error(t, err)
		r := rejection(t, h.drain("c2"))
		assert.Equal(t, "already_exists", r.Status)
		assert.Equal(t, "ErrAlreadyResolved", r.Code)
		assert.Empty(t, h.drain("c1"))
	})

	t.Run("reply cannot be resolved test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		assert.NoError(t, h.send("c1", &message.AddComment{Text: "fix this", Anchor: "q1"}, t0))
		root := h.gw.Snapshot().Comments[0]

		assert.NoError(t, h.send("c1", &message.AddComment{Text: "reply", ParentID: root.ID}, t0))
		reply := h.gw.Snapshot().Comments[1]
		assert.Equal(t, types.Anchor("q1"), reply.Anchor)
		h.drainAll()

		err := h.send("c1", &message.ResolveComment{CommentID: reply.ID}, t0)
		assert.Error(t, err)
		assert.Equal(t, "ErrNotRoot", rejection(t, h.drain("c1")).Code)
	})

	t.Run("viewer cannot comment test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleViewer, t0)
		h.drainAll()

		assert.Error(t, h.send("c1", &message.AddComment{Text: "hi"}, t0))
		assert.Equal(t, "permission_denied", rejection(t, h.drain("c1")).Status)
		assert.Empty(t, h.gw.Snapshot().Comments)
	})
}

func TestSync(t *testing.T) {
	t.Run("incremental sync test", func(t *testing.T) {
		h := newHarness(t, 0)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u2", types.RoleEditor, t0)
		h.drainAll()

		assert.NoError(t, h.send("c1", &message.Sync{Since: 1}, t0))
		batches := ofType(h.drain("c1"), message.TypeActivityBatch)
		require.Len(t, batches, 1)
		batch := batches[0].Payload.(message.ActivityBatch)
		require.Len(t, batch.Events, 1)
		assert.Equal(t, int64(2), batch.Events[0].Seq)
		assert.Equal(t, int64(2), batch.LastSeq)

		assert.NoError(t, h.send("c1", &message.Sync{Since: 99}, t0))
		assert.Len(t, ofType(h.drain("c1"), message.TypeStateSnapshot), 1)
	})

	t.Run("overflow forces resync test", func(t *testing.T) {
		h := newHarness(t, 3)
		h.join("c1", "u1", types.RoleEditor, t0)
		h.join("c2", "u2", types.RoleEditor, t0)
		h.drainAll()

		for i := 0; i < 3; i++ {
			assert.NoError(t, h.send("c2", &message.AddComment{Text: "note", Anchor: "q1"}, t0))
		}

		outs := h.drain("c1")
		require.Len(t, outs, 1)
		assert.Equal(t, message.TypeResyncRequired, outs[0].Type)

		assert.NoError(t, h.send("c1", &message.Sync{Since: 2}, t0))
		outs = h.drain("c1")
		require.Len(t, outs, 1)
		snapshot := outs[0].Payload.(message.Snapshot)
		assert.Len(t, snapshot.Comments, 3)
		assert.Equal(t, int64(5), snapshot.LastSeq)
	})
}
