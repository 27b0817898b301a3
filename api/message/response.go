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
	"github.com/edu-tutor/coedit/api/types"
)

// Snapshot is the full state of a session as seen by a newly joined client.
type Snapshot struct {
	Participants []types.Participant   `json:"participants"`
	Cursors      []types.CursorState   `json:"cursors"`
	Intents      []types.IntentSummary `json:"intents"`
	Comments     []types.Comment       `json:"comments"`
	Activity     []types.ActivityEvent `json:"activity"`
	LastSeq      int64                 `json:"lastSeq"`
}

// DeltaKind is the kind of change carried by a Delta.
type DeltaKind string

// Delta kinds.
const (
	DeltaParticipant   DeltaKind = "participant"
	DeltaCursor        DeltaKind = "cursor"
	DeltaCursorRemoved DeltaKind = "cursor_removed"
	DeltaIntent        DeltaKind = "intent"
	DeltaComment       DeltaKind = "comment"
	DeltaActivity      DeltaKind = "activity"
)

// Delta is an incremental change. Exactly one of the entity fields is set,
// except for cursor_removed which only carries ParticipantID.
type Delta struct {
	Kind          DeltaKind            `json:"kind"`
	Participant   *types.Participant   `json:"participant,omitempty"`
	Cursor        *types.CursorState   `json:"cursor,omitempty"`
	ParticipantID types.ID             `json:"participantId,omitempty"`
	Intent        *types.IntentSummary `json:"intent,omitempty"`
	Comment       *types.Comment       `json:"comment,omitempty"`
	Event         *types.ActivityEvent `json:"event,omitempty"`
}

// ActivityBatch answers a Sync.
type ActivityBatch struct {
	Events  []types.ActivityEvent `json:"events"`
	LastSeq int64                 `json:"lastSeq"`
}

// Rejection tells the client that one of its requests failed.
type Rejection struct {
	RequestType Type   `json:"requestType"`
	Status      string `json:"status"`
	Code        string `json:"code,omitempty"`
	Message     string `json:"message"`
}

// ResyncRequired tells the client that deliveries were lost and it has to
// send a Sync.
type ResyncRequired struct {
	Reason string `json:"reason"`
}
