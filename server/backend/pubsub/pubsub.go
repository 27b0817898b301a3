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

package pubsub

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/edu-tutor/coedit/api/message"
	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/server/logging"
)

// Subscriptions is the set of subscriptions of one session, keyed by client.
// It is owned by the session loop and not safe for concurrent use.
type Subscriptions struct {
	name   string
	subs   map[types.ID]*Subscription
	logger logging.Logger
}

// NewSubscriptions creates a new Subscriptions.
func NewSubscriptions(name string, logger logging.Logger) *Subscriptions {
	return &Subscriptions{
		name:   name,
		subs:   make(map[types.ID]*Subscription),
		logger: logger,
	}
}

// Set adds the given subscription, replacing the one of the same client.
func (s *Subscriptions) Set(sub *Subscription) {
	if prev, ok := s.subs[sub.Subscriber()]; ok && prev != sub {
		prev.Close()
	}
	s.subs[sub.Subscriber()] = sub
}

// Get returns the subscription of the client.
func (s *Subscriptions) Get(client types.ID) (*Subscription, bool) {
	sub, ok := s.subs[client]
	return sub, ok
}

// Delete closes and removes the subscription of the client.
func (s *Subscriptions) Delete(client types.ID) bool {
	sub, ok := s.subs[client]
	if !ok {
		return false
	}
	sub.Close()
	delete(s.subs, client)
	return true
}

// Len returns the number of subscriptions.
func (s *Subscriptions) Len() int {
	return len(s.subs)
}

// Clients returns the subscribed client IDs, ordered.
func (s *Subscriptions) Clients() []types.ID {
	clients := make([]types.ID, 0, len(s.subs))
	for id := range s.subs {
		clients = append(clients, id)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })
	return clients
}

// Unicast publishes the frame to one client.
func (s *Subscriptions) Unicast(client types.ID, out message.Outbound) {
	sub, ok := s.subs[client]
	if !ok {
		return
	}
	s.publish(sub, out)
}

// Broadcast publishes the frame to every client but the excluded ones.
func (s *Subscriptions) Broadcast(out message.Outbound, exclude ...types.ID) {
	s.BroadcastIf(out, func(client types.ID) bool {
		return !contains(exclude, client)
	})
}

// BroadcastIf publishes the frame to every client accepted by the filter.
func (s *Subscriptions) BroadcastIf(out message.Outbound, accept func(client types.ID) bool) {
	for id, sub := range s.subs {
		if !accept(id) {
			continue
		}
		s.publish(sub, out)
	}
}

func (s *Subscriptions) publish(sub *Subscription, out message.Outbound) {
	if err := sub.Publish(out); err != nil {
		s.logger.Warnf("%s publish %s to %s: %v", s, out.Type, sub.Subscriber(), err)
		return
	}
	if logging.Enabled(zap.DebugLevel) {
		s.logger.Debugf("%s publish %s to %s", s, out.Type, sub.Subscriber())
	}
}

// Close closes every subscription.
func (s *Subscriptions) Close() {
	for id, sub := range s.subs {
		sub.Close()
		delete(s.subs, id)
	}
}

// String returns a string representation of this subscriptions collection.
func (s *Subscriptions) String() string {
	return fmt.Sprintf("Subscriptions(%s)", s.name)
}

func contains(ids []types.ID, id types.ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
