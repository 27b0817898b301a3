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

package message

import (
	"fmt"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
)

// Priority decides what happens to a queued frame when a client falls
// behind.
type Priority int

const (
	// PriorityLow frames may be coalesced or dropped.
	PriorityLow Priority = iota

	// PriorityHigh frames are never dropped silently; losing one forces a
	// resync of the client.
	PriorityHigh
)

// Outbound is a server frame waiting for delivery to one client.
type Outbound struct {
	Type     Type
	Payload  any
	Priority Priority

	// Key identifies the entity of a low priority frame. A newer frame with
	// the same key replaces the queued one.
	Key string

	// Final marks a low priority frame that ends the state of its entity.
	// A newer frame of the same key still replaces it, but it is never
	// evicted to make room.
	Final bool
}

// Evictable reports whether the frame may be dropped when the queue is full.
func (o Outbound) Evictable() bool {
	return o.Priority == PriorityLow && !o.Final
}

// Encode marshals the frame.
func (o Outbound) Encode() ([]byte, error) {
	return Encode(o.Type, o.Payload)
}

// NewSnapshot wraps a snapshot.
func NewSnapshot(snapshot Snapshot) Outbound {
	return Outbound{Type: TypeStateSnapshot, Payload: snapshot, Priority: PriorityHigh}
}

// NewParticipantDelta wraps a participant change.
func NewParticipantDelta(p types.Participant) Outbound {
	return Outbound{
		Type:     TypeStateDelta,
		Payload:  Delta{Kind: DeltaParticipant, Participant: &p},
		Priority: PriorityHigh,
	}
}

// NewCursorDelta wraps a cursor move. Queued moves of the same participant
// are coalesced.
func NewCursorDelta(c types.CursorState) Outbound {
	return Outbound{
		Type:     TypeStateDelta,
		Payload:  Delta{Kind: DeltaCursor, Cursor: &c},
		Priority: PriorityLow,
		Key:      "cursor:" + c.ParticipantID.String(),
	}
}

// NewCursorRemovedDelta wraps a cursor removal. It shares the key of the
// cursor moves so a pending move is replaced by the removal. Dropping it
// would leave the cursor on the client, so it is final.
func NewCursorRemovedDelta(id types.ID) Outbound {
	return Outbound{
		Type:     TypeStateDelta,
		Payload:  Delta{Kind: DeltaCursorRemoved, ParticipantID: id},
		Priority: PriorityLow,
		Key:      "cursor:" + id.String(),
		Final:    true,
	}
}

// NewIntentDelta wraps the summary of an anchor.
func NewIntentDelta(s types.IntentSummary) Outbound {
	return Outbound{
		Type:     TypeStateDelta,
		Payload:  Delta{Kind: DeltaIntent, Intent: &s},
		Priority: PriorityLow,
		Key:      "intent:" + string(s.Anchor),
	}
}

// NewCommentDelta wraps a new or resolved comment.
func NewCommentDelta(c types.Comment) Outbound {
	return Outbound{
		Type:     TypeStateDelta,
		Payload:  Delta{Kind: DeltaComment, Comment: &c},
		Priority: PriorityHigh,
	}
}

// NewActivityDelta wraps an appended activity event.
func NewActivityDelta(e types.ActivityEvent) Outbound {
	return Outbound{
		Type:     TypeStateDelta,
		Payload:  Delta{Kind: DeltaActivity, Event: &e},
		Priority: PriorityHigh,
	}
}

// NewActivityBatch wraps the answer to a sync.
func NewActivityBatch(events []types.ActivityEvent, lastSeq int64) Outbound {
	if events == nil {
		events = []types.ActivityEvent{}
	}
	return Outbound{
		Type:     TypeActivityBatch,
		Payload:  ActivityBatch{Events: events, LastSeq: lastSeq},
		Priority: PriorityHigh,
	}
}

// NewRejection wraps the failure of a request.
func NewRejection(requestType Type, err error) Outbound {
	status := errors.StatusOf(err)
	if status == 0 {
		status = errors.ErrCodeInternal
	}
	return Outbound{
		Type: TypeRejection,
		Payload: Rejection{
			RequestType: requestType,
			Status:      status.String(),
			Code:        errors.CodeOf(err),
			Message:     err.Error(),
		},
		Priority: PriorityHigh,
	}
}

// NewResyncRequired wraps a resync notice.
func NewResyncRequired(dropped int) Outbound {
	return Outbound{
		Type:     TypeResyncRequired,
		Payload:  ResyncRequired{Reason: fmt.Sprintf("%d deliveries dropped", dropped)},
		Priority: PriorityHigh,
	}
}
