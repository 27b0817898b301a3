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

// Package activity keeps the bounded, ordered feed of what happened in a
// session.
package activity

import (
	"fmt"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
)

// DefaultCapacity is the number of events retained by default.
const DefaultCapacity = 200

// ErrSnapshotRequired is returned by Since when the requested events are no
// longer retained. The client has to fetch a full snapshot.
var ErrSnapshotRequired = errors.OutOfRange("activity events evicted").WithCode("ErrSnapshotRequired")

// Log is a ring buffer of activity events. Sequence numbers start at 1 and
// increase by one per appended event. It is not safe for concurrent use.
type Log struct {
	events []types.ActivityEvent
	start  int
	size   int

	lastSeq int64
}

// New creates a new Log that retains the given number of events.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{events: make([]types.ActivityEvent, capacity)}
}

// Append assigns the next sequence number to the event and stores it,
// evicting the oldest event when full. OccurredAt is raised to the time of
// the previous event if it is earlier, so the feed stays ordered.
func (l *Log) Append(event types.ActivityEvent) types.ActivityEvent {
	if event.ID == "" {
		event.ID = types.NewID()
	}
	if last, ok := l.Last(); ok && event.OccurredAt.Before(last.OccurredAt) {
		event.OccurredAt = last.OccurredAt
	}
	l.lastSeq++
	event.Seq = l.lastSeq

	capacity := len(l.events)
	if l.size < capacity {
		l.events[(l.start+l.size)%capacity] = event
		l.size++
	} else {
		l.events[l.start] = event
		l.start = (l.start + 1) % capacity
	}
	return event
}

// Since returns the events after seq, oldest first. Since(0) lists every
// retained event as long as nothing was evicted yet.
func (l *Log) Since(seq int64) ([]types.ActivityEvent, error) {
	if seq > l.lastSeq || seq < 0 {
		return nil, fmt.Errorf("since %d, last %d: %w", seq, l.lastSeq, ErrSnapshotRequired)
	}
	if seq < l.oldestSeq()-1 {
		return nil, fmt.Errorf("since %d, oldest %d: %w", seq, l.oldestSeq(), ErrSnapshotRequired)
	}

	count := int(l.lastSeq - seq)
	return l.tail(count), nil
}

// Recent returns at most n of the newest events, oldest first.
func (l *Log) Recent(n int) []types.ActivityEvent {
	if n > l.size || n < 0 {
		n = l.size
	}
	return l.tail(n)
}

// Last returns the newest event.
func (l *Log) Last() (types.ActivityEvent, bool) {
	if l.size == 0 {
		return types.ActivityEvent{}, false
	}
	return l.events[(l.start+l.size-1)%len(l.events)], true
}

// LastSeq returns the sequence number of the newest event, or 0.
func (l *Log) LastSeq() int64 {
	return l.lastSeq
}

// Len returns the number of retained events.
func (l *Log) Len() int {
	return l.size
}

// oldestSeq returns the sequence number of the oldest retained event.
func (l *Log) oldestSeq() int64 {
	return l.lastSeq - int64(l.size) + 1
}

func (l *Log) tail(n int) []types.ActivityEvent {
	result := make([]types.ActivityEvent, n)
	capacity := len(l.events)
	first := l.start + l.size - n
	for i := 0; i < n; i++ {
		result[i] = l.events[(first+i)%capacity]
	}
	return result
}
