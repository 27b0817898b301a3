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

// Package pubsub delivers server frames to the clients of a session through
// bounded per-client queues.
package pubsub

import (
	"sync"

	"github.com/rs/xid"

	"github.com/edu-tutor/coedit/api/message"
	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
)

// DefaultQueueSize is the default capacity of a subscription queue.
const DefaultQueueSize = 256

var (
	// ErrSubscriptionClosed is returned when publishing to a closed
	// subscription.
	ErrSubscriptionClosed = errors.Unavailable("subscription closed").WithCode("ErrSubscriptionClosed")

	// ErrOverflow is returned when a high priority frame could not be queued
	// and the subscriber has to resync.
	ErrOverflow = errors.ResourceExhausted("subscription queue overflow").WithCode("ErrOverflow")
)

// Reasons reported to the drop callback.
const (
	DropLowPriority   = "low_priority"
	DropOverflow      = "overflow"
	DropResyncPending = "resync_pending"
)

// DropFunc is called with the reason and the number of dropped frames.
type DropFunc func(reason string, count int)

// Subscription is the outbound queue of one client. The session publishes
// into it and the connection writer drains it, so it is safe for
// concurrent use.
type Subscription struct {
	id         string
	subscriber types.ID
	capacity   int
	onDrop     DropFunc

	mu            sync.Mutex
	queue         []message.Outbound
	closed        bool
	resyncPending bool

	notify chan struct{}
	done   chan struct{}
}

// NewSubscription creates a new Subscription holding at most capacity frames.
func NewSubscription(subscriber types.ID, capacity int, onDrop DropFunc) *Subscription {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	if onDrop == nil {
		onDrop = func(string, int) {}
	}
	return &Subscription{
		id:         xid.New().String(),
		subscriber: subscriber,
		capacity:   capacity,
		onDrop:     onDrop,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// ID returns the id of this subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Subscriber returns the client ID of this subscription.
func (s *Subscription) Subscriber() types.ID {
	return s.subscriber
}

// Publish queues the frame. Low priority frames with a key replace a queued
// frame of the same key. When the queue is full the oldest evictable frame
// makes room. If there is none, an evictable frame is discarded and any
// other frame empties the queue in favor of a resync notice.
func (s *Subscription) Publish(out message.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSubscriptionClosed
	}
	if s.resyncPending {
		s.onDrop(DropResyncPending, 1)
		return nil
	}

	if out.Priority == message.PriorityLow && out.Key != "" {
		for i := range s.queue {
			if s.queue[i].Priority == message.PriorityLow && s.queue[i].Key == out.Key {
				s.queue[i] = out
				s.signal()
				return nil
			}
		}
	}

	if len(s.queue) >= s.capacity && !s.evictOldestLow() {
		if out.Evictable() {
			s.onDrop(DropLowPriority, 1)
			return nil
		}

		dropped := len(s.queue) + 1
		s.onDrop(DropOverflow, dropped)
		s.queue = append(s.queue[:0], message.NewResyncRequired(dropped))
		s.resyncPending = true
		s.signal()
		return ErrOverflow
	}

	s.queue = append(s.queue, out)
	s.signal()
	return nil
}

func (s *Subscription) evictOldestLow() bool {
	for i := range s.queue {
		if s.queue[i].Evictable() {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.onDrop(DropLowPriority, 1)
			return true
		}
	}
	return false
}

func (s *Subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Resynced clears the resync state after the subscriber asked for a sync.
// It reports whether a resync was pending.
func (s *Subscription) Resynced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.resyncPending
	s.resyncPending = false
	return pending
}

// Drain removes and returns every queued frame in order.
func (s *Subscription) Drain() []message.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}
	drained := s.queue
	s.queue = make([]message.Outbound, 0, len(drained))
	return drained
}

// Len returns the number of queued frames.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Notify returns a channel that receives a value when frames were queued.
func (s *Subscription) Notify() <-chan struct{} {
	return s.notify
}

// Done returns a channel that is closed when the subscription is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close closes the subscription. Queued frames can still be drained.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}
}
