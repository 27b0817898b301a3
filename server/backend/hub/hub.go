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

// Package hub keeps the running sessions of the server, one per document.
package hub

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/edu-tutor/coedit/internal/validation"
	"github.com/edu-tutor/coedit/pkg/errors"
	"github.com/edu-tutor/coedit/server/backend/background"
	"github.com/edu-tutor/coedit/server/backend/session"
	"github.com/edu-tutor/coedit/server/gateway"
	"github.com/edu-tutor/coedit/server/logging"
	"github.com/edu-tutor/coedit/server/profiling/prometheus"
)

var (
	// ErrInvalidDocKey is returned when a document key is not valid.
	ErrInvalidDocKey = errors.InvalidArgument("document key is invalid").WithCode("ErrInvalidDocKey")

	// ErrHubClosed is returned when a session is requested after Close.
	ErrHubClosed = errors.Unavailable("hub closed").WithCode("ErrHubClosed")
)

// Hub creates sessions on demand and closes them when they become idle.
type Hub struct {
	conf       session.Config
	sink       gateway.Sink
	metrics    *prometheus.Metrics
	background *background.Background
	opts       []session.Option

	mu       sync.Mutex
	sessions map[string]*session.Session
	closed   bool
}

// New creates a new Hub.
func New(
	conf session.Config,
	sink gateway.Sink,
	metrics *prometheus.Metrics,
	bg *background.Background,
	opts ...session.Option,
) *Hub {
	return &Hub{
		conf:       conf,
		sink:       sink,
		metrics:    metrics,
		background: bg,
		opts:       opts,
		sessions:   make(map[string]*session.Session),
	}
}

// Session returns the session of the document, starting it if needed.
func (h *Hub) Session(docKey string) (*session.Session, error) {
	if err := validation.ValidateDocKey(docKey); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocKey, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if s, ok := h.sessions[docKey]; ok {
		return s, nil
	}

	s, err := session.New(docKey, h.conf, h.sink, h.metrics, h.opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(h.background); err != nil {
		return nil, err
	}
	h.sessions[docKey] = s
	h.metrics.AddSessions(1)
	logging.DefaultLogger().Infof("session %s started", docKey)
	return s, nil
}

// Get returns the running session of the document.
func (h *Hub) Get(docKey string) (*session.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[docKey]
	return s, ok
}

// DocKeys returns the keys of the running sessions in order.
func (h *Hub) DocKeys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := make([]string, 0, len(h.sessions))
	for key := range h.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of running sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// CloseIdle closes the sessions that have had no clients for at least idle.
// It returns the number of closed sessions.
func (h *Hub) CloseIdle(ctx context.Context, now time.Time, idle time.Duration) int {
	h.mu.Lock()
	var idleSessions []*session.Session
	for key, s := range h.sessions {
		if s.Clients() == 0 && s.IdleSince(now) >= idle {
			idleSessions = append(idleSessions, s)
			delete(h.sessions, key)
		}
	}
	h.mu.Unlock()

	logger := logging.From(ctx)
	for _, s := range idleSessions {
		s.Close()
		logger.Infof("session %s closed after %s idle", s.DocKey(), s.IdleSince(now))
	}
	h.metrics.AddSessions(-len(idleSessions))
	return len(idleSessions)
}

// Close closes every session.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	sessions := h.sessions
	h.sessions = make(map[string]*session.Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	h.metrics.AddSessions(-len(sessions))
}
