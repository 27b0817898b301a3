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

package gateway

import (
	"fmt"
	"time"

	"github.com/edu-tutor/coedit/api/message"
	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
	"github.com/edu-tutor/coedit/server/backend/activity"
	"github.com/edu-tutor/coedit/server/backend/annotation"
	"github.com/edu-tutor/coedit/server/backend/presence"
)

func (g *Gateway) handle(clientID types.ID, req message.Request, now time.Time) error {
	switch m := req.(type) {
	case *message.Join:
		return g.join(clientID, m, now)
	case *message.Leave:
		return g.leaveRequest(clientID, m, now)
	case *message.Heartbeat:
		return g.heartbeat(clientID, m, now)
	case *message.CursorUpdate:
		return g.updateCursor(clientID, m, now)
	case *message.ActivitySignal:
		return g.signal(clientID, m.Anchor, m.Kind, now)
	case *message.AddComment:
		return g.addComment(clientID, m, now)
	case *message.ResolveComment:
		return g.resolveComment(clientID, m, now)
	case *message.Sync:
		return g.sync(clientID, m)
	default:
		return fmt.Errorf("handle %s: %w", req.Type(), message.ErrMalformed)
	}
}

// participantOf returns the participant the client joined as.
func (g *Gateway) participantOf(clientID types.ID, claimed types.ID) (types.ID, error) {
	participantID := g.clients[clientID]
	if participantID == "" {
		return "", ErrNotJoined
	}
	if claimed != "" && claimed != participantID {
		return "", ErrParticipantMismatch
	}
	return participantID, nil
}

func (g *Gateway) join(clientID types.ID, m *message.Join, now time.Time) error {
	bound := g.clients[clientID]
	if bound != "" && bound != m.ParticipantID {
		return ErrAlreadyJoined
	}

	p, joined := g.registry.Join(types.Participant{
		ID:          m.ParticipantID,
		DisplayName: m.DisplayName,
		AvatarToken: m.AvatarToken,
		Role:        m.Role,
	}, now)
	g.bind(clientID, p.ID)
	g.presence.AssignColor(p.ID)

	if joined {
		g.metrics.AddOnlineParticipants(1)
		g.broadcast(message.NewParticipantDelta(p), clientID)
		g.record(types.ActivityEvent{
			Type:        types.ActivityJoin,
			ActorID:     p.ID,
			Description: "joined the collaboration",
		}, now, clientID)
	}

	g.subs.Unicast(clientID, message.NewSnapshot(g.Snapshot()))
	return nil
}

func (g *Gateway) leaveRequest(clientID types.ID, m *message.Leave, now time.Time) error {
	participantID, err := g.participantOf(clientID, m.ParticipantID)
	if err != nil {
		return err
	}
	g.unbind(clientID, participantID, now)
	return nil
}

func (g *Gateway) heartbeat(clientID types.ID, m *message.Heartbeat, now time.Time) error {
	participantID, err := g.participantOf(clientID, m.ParticipantID)
	if err != nil {
		return err
	}
	return g.registry.Heartbeat(participantID, now)
}

func (g *Gateway) updateCursor(clientID types.ID, m *message.CursorUpdate, now time.Time) error {
	participantID, err := g.participantOf(clientID, "")
	if err != nil {
		return err
	}

	// The client clock orders updates but may neither run ahead of the server
	// nor lag behind by more than the cursor TTL. Ordering is checked against
	// the reported time before it is clamped.
	at := now
	if reported, ok := m.ReportedAt(); ok && reported.Before(now) {
		if prev, ok := g.presence.Get(participantID); ok && reported.Before(prev.UpdatedAt) {
			return presence.ErrOutOfOrder
		}
		at = reported
		if earliest := now.Add(-g.conf.CursorTTL); at.Before(earliest) {
			at = earliest
		}
	}

	cursor, err := g.presence.UpdateCursor(participantID, m.X, m.Y, at)
	if err != nil {
		return err
	}
	g.broadcast(message.NewCursorDelta(cursor), clientID)

	if m.Anchor != "" {
		return g.signal(clientID, m.Anchor, types.SignalFocus, now)
	}
	return nil
}

func (g *Gateway) signal(clientID types.ID, anchor types.Anchor, kind types.SignalKind, now time.Time) error {
	participantID, err := g.participantOf(clientID, "")
	if err != nil {
		return err
	}

	started, err := g.intents.RecordActivity(participantID, anchor, kind, now)
	if err != nil {
		return err
	}
	if started {
		g.record(types.ActivityEvent{
			Type:        types.ActivityEdit,
			ActorID:     participantID,
			Anchor:      anchor,
			Description: "edited " + string(anchor),
		}, now)
	}
	g.refreshIntent(anchor, now)
	return nil
}

func (g *Gateway) addComment(clientID types.ID, m *message.AddComment, now time.Time) error {
	participantID, err := g.participantOf(clientID, "")
	if err != nil {
		return err
	}

	comment, err := g.comments.AddComment(participantID, m.Text, m.Anchor, m.ParentID, now)
	if err != nil {
		return err
	}
	g.broadcast(message.NewCommentDelta(comment))

	description := "commented"
	if !comment.IsRoot() {
		description = "replied to a comment"
	}
	g.record(types.ActivityEvent{
		Type:        types.ActivityComment,
		ActorID:     participantID,
		Anchor:      comment.Anchor,
		Description: describeOn(description, comment.Anchor),
	}, now)
	return nil
}

func (g *Gateway) resolveComment(clientID types.ID, m *message.ResolveComment, now time.Time) error {
	participantID, err := g.participantOf(clientID, "")
	if err != nil {
		return err
	}
	if p, ok := g.registry.Get(participantID); !ok || !p.Role.CanAnnotate() {
		return annotation.ErrCommentForbidden
	}

	comment, err := g.comments.Resolve(m.CommentID)
	if err != nil {
		return err
	}
	g.broadcast(message.NewCommentDelta(comment))
	g.record(types.ActivityEvent{
		Type:        types.ActivityComment,
		ActorID:     participantID,
		Anchor:      comment.Anchor,
		Description: describeOn("resolved a comment", comment.Anchor),
	}, now)
	return nil
}

func (g *Gateway) sync(clientID types.ID, m *message.Sync) error {
	sub, ok := g.subs.Get(clientID)
	if !ok {
		return ErrUnknownClient
	}
	if sub.Resynced() {
		g.metrics.AddResync()
		g.subs.Unicast(clientID, message.NewSnapshot(g.Snapshot()))
		return nil
	}

	events, err := g.activity.Since(m.Since)
	if errors.Is(err, activity.ErrSnapshotRequired) {
		g.subs.Unicast(clientID, message.NewSnapshot(g.Snapshot()))
		return nil
	}
	if err != nil {
		return err
	}
	g.subs.Unicast(clientID, message.NewActivityBatch(events, g.activity.LastSeq()))
	return nil
}

// describeOn appends the anchor to a description, e.g. "commented on q2".
func describeOn(description string, anchor types.Anchor) string {
	if anchor == "" {
		if description == "commented" {
			return "added a comment"
		}
		return description
	}
	return description + " on " + string(anchor)
}
