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

// Package registry tracks the participants of a session and their
// connection state.
package registry

import (
	"sort"
	"time"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
)

var (
	// ErrParticipantNotFound is returned when the participant never joined.
	ErrParticipantNotFound = errors.NotFound("participant not found").WithCode("ErrParticipantNotFound")

	// ErrParticipantOffline is returned when the participant is not online.
	ErrParticipantOffline = errors.FailedPrecond("participant is offline").WithCode("ErrParticipantOffline")
)

// Filter selects participants by connection state.
type Filter int

const (
	// All selects every known participant.
	All Filter = iota

	// OnlineOnly selects online participants.
	OnlineOnly

	// OfflineOnly selects offline participants.
	OfflineOnly
)

// Registry is the authoritative set of participants of one session. It is
// not safe for concurrent use; the owning session serializes access.
type Registry struct {
	participants     map[types.ID]*types.Participant
	heartbeatTimeout time.Duration
}

// New creates a new registry. Participants whose last heartbeat is older
// than heartbeatTimeout are reported by Expired.
func New(heartbeatTimeout time.Duration) *Registry {
	return &Registry{
		participants:     make(map[types.ID]*types.Participant),
		heartbeatTimeout: heartbeatTimeout,
	}
}

// Join marks the participant online. An unknown participant is inserted as
// given. A known participant keeps its role, while its display name and
// avatar are refreshed when provided. The returned flag is false if the
// participant was already online, i.e. no join happened.
func (r *Registry) Join(p types.Participant, now time.Time) (types.Participant, bool) {
	if p.AvatarToken == "" {
		p.AvatarToken = types.AvatarFromName(p.DisplayName)
	}

	existing, ok := r.participants[p.ID]
	if !ok {
		p.ConnectionState = types.Online
		p.LastSeenAt = now
		r.participants[p.ID] = &p
		return p, true
	}

	if p.DisplayName != "" {
		existing.DisplayName = p.DisplayName
		existing.AvatarToken = p.AvatarToken
	}
	existing.LastSeenAt = now
	if existing.IsOnline() {
		return *existing, false
	}
	existing.ConnectionState = types.Online
	return *existing, true
}

// Leave marks the participant offline.
func (r *Registry) Leave(id types.ID, now time.Time) (types.Participant, error) {
	p, ok := r.participants[id]
	if !ok {
		return types.Participant{}, ErrParticipantNotFound
	}
	if !p.IsOnline() {
		return *p, ErrParticipantOffline
	}

	p.ConnectionState = types.Offline
	p.LastSeenAt = now
	return *p, nil
}

// Heartbeat refreshes the liveness of an online participant.
func (r *Registry) Heartbeat(id types.ID, now time.Time) error {
	p, ok := r.participants[id]
	if !ok {
		return ErrParticipantNotFound
	}
	if !p.IsOnline() {
		return ErrParticipantOffline
	}
	if now.After(p.LastSeenAt) {
		p.LastSeenAt = now
	}
	return nil
}

// Expired returns the online participants whose last heartbeat is older than
// the heartbeat timeout, ordered by ID. The caller is expected to Leave them.
func (r *Registry) Expired(now time.Time) []types.ID {
	var expired []types.ID
	for id, p := range r.participants {
		if p.IsOnline() && now.Sub(p.LastSeenAt) > r.heartbeatTimeout {
			expired = append(expired, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })
	return expired
}

// Get returns the participant of the given ID.
func (r *Registry) Get(id types.ID) (types.Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return types.Participant{}, false
	}
	return *p, true
}

// IsOnline returns whether the participant of the given ID is online.
func (r *Registry) IsOnline(id types.ID) bool {
	p, ok := r.participants[id]
	return ok && p.IsOnline()
}

// List returns the participants matching the filter, ordered by role, then
// display name, then ID.
func (r *Registry) List(filter Filter) []types.Participant {
	list := make([]types.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		switch {
		case filter == OnlineOnly && !p.IsOnline():
			continue
		case filter == OfflineOnly && p.IsOnline():
			continue
		}
		list = append(list, *p)
	}

	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Role.Rank() != b.Role.Rank() {
			return a.Role.Rank() < b.Role.Rank()
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	})
	return list
}

// Len returns the number of known participants.
func (r *Registry) Len() int {
	return len(r.participants)
}

// OnlineCount returns the number of online participants.
func (r *Registry) OnlineCount() int {
	count := 0
	for _, p := range r.participants {
		if p.IsOnline() {
			count++
		}
	}
	return count
}
