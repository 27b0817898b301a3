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

// Package presence keeps the live cursor positions of the participants of a
// session and expires them when they stop moving.
package presence

import (
	"sort"
	"time"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
)

var (
	// ErrStale is returned when a cursor update comes from a participant
	// that is not online.
	ErrStale = errors.FailedPrecond("cursor update from offline participant").WithCode("ErrStale")

	// ErrOutOfOrder is returned when a cursor update is older than the
	// position already stored for the participant.
	ErrOutOfOrder = errors.FailedPrecond("cursor update out of order").WithCode("ErrOutOfOrder")
)

// Palette is the ordered list of colors handed out to participants.
var Palette = []string{
	"#3B82F6",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#8B5CF6",
	"#EC4899",
	"#14B8A6",
	"#F97316",
}

// Roster tells whether a participant is online.
type Roster interface {
	IsOnline(id types.ID) bool
}

// Broadcaster holds at most one cursor per online participant. It is not
// safe for concurrent use.
type Broadcaster struct {
	roster  Roster
	ttl     time.Duration
	cursors map[types.ID]types.CursorState

	// colors is kept across leaves so a returning participant gets the same
	// color back.
	colors    map[types.ID]string
	nextColor int
}

// New creates a new Broadcaster. Cursors not updated for longer than ttl
// are dropped by Tick.
func New(roster Roster, ttl time.Duration) *Broadcaster {
	return &Broadcaster{
		roster:  roster,
		ttl:     ttl,
		cursors: make(map[types.ID]types.CursorState),
		colors:  make(map[types.ID]string),
	}
}

// AssignColor returns the color of the participant, handing out the next
// palette entry on first use.
func (b *Broadcaster) AssignColor(id types.ID) string {
	if color, ok := b.colors[id]; ok {
		return color
	}
	color := Palette[b.nextColor%len(Palette)]
	b.nextColor++
	b.colors[id] = color
	return color
}

// UpdateCursor stores the position reported at the given time. Updates
// with the same timestamp as the stored one win; older ones are rejected.
func (b *Broadcaster) UpdateCursor(id types.ID, x, y float64, at time.Time) (types.CursorState, error) {
	if !b.roster.IsOnline(id) {
		return types.CursorState{}, ErrStale
	}
	if prev, ok := b.cursors[id]; ok && at.Before(prev.UpdatedAt) {
		return types.CursorState{}, ErrOutOfOrder
	}

	cursor := types.CursorState{
		ParticipantID: id,
		X:             x,
		Y:             y,
		ColorToken:    b.AssignColor(id),
		UpdatedAt:     at,
	}
	b.cursors[id] = cursor
	return cursor, nil
}

// Tick drops the cursors that were not updated within the TTL and returns
// the IDs of their owners, ordered by ID.
func (b *Broadcaster) Tick(now time.Time) []types.ID {
	var removed []types.ID
	for id, cursor := range b.cursors {
		if now.Sub(cursor.UpdatedAt) > b.ttl {
			delete(b.cursors, id)
			removed = append(removed, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed
}

// Remove drops the cursor of the participant and reports whether there was
// one.
func (b *Broadcaster) Remove(id types.ID) bool {
	if _, ok := b.cursors[id]; !ok {
		return false
	}
	delete(b.cursors, id)
	return true
}

// Get returns the cursor of the participant.
func (b *Broadcaster) Get(id types.ID) (types.CursorState, bool) {
	cursor, ok := b.cursors[id]
	return cursor, ok
}

// Snapshot returns every live cursor ordered by participant ID.
func (b *Broadcaster) Snapshot() []types.CursorState {
	cursors := make([]types.CursorState, 0, len(b.cursors))
	for _, cursor := range b.cursors {
		cursors = append(cursors, cursor)
	}
	sort.Slice(cursors, func(i, j int) bool {
		return cursors[i].ParticipantID < cursors[j].ParticipantID
	})
	return cursors
}

// Len returns the number of live cursors.
func (b *Broadcaster) Len() int {
	return len(b.cursors)
}
