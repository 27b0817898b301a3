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

package message_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-tutor/coedit/api/message"
	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
	"github.com/edu-tutor/coedit/server/backend/annotation"
)

func TestDecode(t *testing.T) {
	t.Run("join test", func(t *testing.T) {
		req, err := message.Decode([]byte(`{"type":"join","payload":{
			"participantId":"u1","displayName":"Sarah Johnson","role":"editor"}}`))
		require.NoError(t, err)

		join, ok := req.(*message.Join)
		require.True(t, ok)
		assert.Equal(t, types.ID("u1"), join.ParticipantID)
		assert.Equal(t, types.RoleEditor, join.Role)
		assert.Equal(t, message.TypeJoin, req.Type())
	})

	t.Run("cursor update with client time test", func(t *testing.T) {
		req, err := message.Decode([]byte(`{"type":"cursor_update","payload":{"x":1.5,"y":2,"at":1767258000000}}`))
		require.NoError(t, err)

		update := req.(*message.CursorUpdate)
		at, ok := update.ReportedAt()
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), at)

		req, err = message.Decode([]byte(`{"type":"cursor_update","payload":{"x":1,"y":2}}`))
		require.NoError(t, err)
		_, ok = req.(*message.CursorUpdate).ReportedAt()
		assert.False(t, ok)
	})

	t.Run("payloadless requests test", func(t *testing.T) {
		req, err := message.Decode([]byte(`{"type":"heartbeat"}`))
		require.NoError(t, err)
		assert.IsType(t, &message.Heartbeat{}, req)

		req, err = message.Decode([]byte(`{"type":"sync","payload":null}`))
		require.NoError(t, err)
		assert.Equal(t, int64(0), req.(*message.Sync).Since)
	})

	t.Run("malformed frames test", func(t *testing.T) {
		for _, frame := range []string{
			`not json`,
			`{"type":"dance"}`,
			`{"type":"join","payload":{"participantId":"u1","displayName":"A","role":"admin"}}`,
			`{"type":"join"}`,
			`{"type":"activity_signal","payload":{"anchor":"q1","kind":"scroll"}}`,
			`{"type":"activity_signal","payload":{"anchor":"q 1","kind":"focus"}}`,
			`{"type":"add_comment","payload":{"text":""}}`,
			`{"type":"resolve_comment","payload":{}}`,
			`{"type":"sync","payload":{"since":-1}}`,
			`{"type":"cursor_update","payload":{"x":"left","y":0}}`,
		} {
			_, err := message.Decode([]byte(frame))
			assert.ErrorIs(t, err, message.ErrMalformed, frame)
			assert.Equal(t, errors.ErrCodeInvalidArgument, errors.StatusOf(err), frame)
		}
	})
}

func TestOutbound(t *testing.T) {
	t.Run("encode delta test", func(t *testing.T) {
		out := message.NewCursorDelta(types.CursorState{ParticipantID: "u1", X: 3, Y: 4, ColorToken: "#3B82F6"})
		assert.Equal(t, message.PriorityLow, out.Priority)
		assert.Equal(t, "cursor:u1", out.Key)

		data, err := out.Encode()
		require.NoError(t, err)

		var env message.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, message.TypeStateDelta, env.Type)

		var delta message.Delta
		require.NoError(t, json.Unmarshal(env.Payload, &delta))
		assert.Equal(t, message.DeltaCursor, delta.Kind)
		assert.Equal(t, 3.0, delta.Cursor.X)
	})

	t.Run("cursor removal shares the cursor key test", func(t *testing.T) {
		removed := message.NewCursorRemovedDelta("u1")
		assert.Equal(t, message.NewCursorDelta(types.CursorState{ParticipantID: "u1"}).Key, removed.Key)
	})

	t.Run("rejection test", func(t *testing.T) {
		out := message.NewRejection(message.TypeResolveComment, annotation.ErrAlreadyResolved)
		assert.Equal(t, message.PriorityHigh, out.Priority)

		rejection := out.Payload.(message.Rejection)
		assert.Equal(t, "already_exists", rejection.Status)
		assert.Equal(t, "ErrAlreadyResolved", rejection.Code)
		assert.Equal(t, message.TypeResolveComment, rejection.RequestType)
	})

	t.Run("empty activity batch encodes as list test", func(t *testing.T) {
		data, err := message.NewActivityBatch(nil, 7).Encode()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"activity_batch","payload":{"events":[],"lastSeq":7}}`, string(data))
	})
}
