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
	"time"

	"github.com/edu-tutor/coedit/api/types"
)

// Join binds the connection to a participant and brings it online.
type Join struct {
	ParticipantID types.ID   `json:"participantId" validate:"required,max=128"`
	DisplayName   string     `json:"displayName" validate:"required,max=128"`
	AvatarToken   string     `json:"avatarToken,omitempty" validate:"max=64"`
	Role          types.Role `json:"role" validate:"required,oneof=owner editor viewer"`
}

// Type implements Request.
func (*Join) Type() Type { return TypeJoin }

// Leave unbinds the connection from its participant.
type Leave struct {
	ParticipantID types.ID `json:"participantId,omitempty" validate:"max=128"`
}

// Type implements Request.
func (*Leave) Type() Type { return TypeLeave }

// Heartbeat keeps the participant of the connection online.
type Heartbeat struct {
	ParticipantID types.ID `json:"participantId,omitempty" validate:"max=128"`
}

// Type implements Request.
func (*Heartbeat) Type() Type { return TypeHeartbeat }

// CursorUpdate reports the pointer position. At is the client clock in Unix
// milliseconds; the server clock is used when it is absent.
type CursorUpdate struct {
	X      float64      `json:"x" validate:"finite"`
	Y      float64      `json:"y" validate:"finite"`
	At     *int64       `json:"at,omitempty" validate:"omitempty,gt=0"`
	Anchor types.Anchor `json:"anchor,omitempty" validate:"anchor,max=256"`
}

// Type implements Request.
func (*CursorUpdate) Type() Type { return TypeCursorUpdate }

// ReportedAt returns the client time of the update, if any.
func (m *CursorUpdate) ReportedAt() (time.Time, bool) {
	if m.At == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*m.At).UTC(), true
}

// ActivitySignal reports an interaction with an anchor.
type ActivitySignal struct {
	Anchor types.Anchor     `json:"anchor" validate:"required,anchor,max=256"`
	Kind   types.SignalKind `json:"kind" validate:"required,oneof=keystroke focus idle"`
}

// Type implements Request.
func (*ActivitySignal) Type() Type { return TypeActivitySignal }

// AddComment creates a comment, or a reply when ParentID is set.
type AddComment struct {
	Text     string       `json:"text" validate:"required,max=4000"`
	Anchor   types.Anchor `json:"anchor,omitempty" validate:"anchor,max=256"`
	ParentID types.ID     `json:"parentId,omitempty" validate:"max=128"`
}

// Type implements Request.
func (*AddComment) Type() Type { return TypeAddComment }

// ResolveComment resolves a root comment.
type ResolveComment struct {
	CommentID types.ID `json:"commentId" validate:"required,max=128"`
}

// Type implements Request.
func (*ResolveComment) Type() Type { return TypeResolveComment }

// Sync asks for the activity events after Since.
type Sync struct {
	Since int64 `json:"since" validate:"gte=0"`
}

// Type implements Request.
func (*Sync) Type() Type { return TypeSync }
