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

// Package session runs a collaboration session as an actor: one goroutine
// owns the gateway and applies client messages and clock ticks in order.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/edu-tutor/coedit/api/message"
	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
	"github.com/edu-tutor/coedit/server/backend/background"
	"github.com/edu-tutor/coedit/server/backend/pubsub"
	"github.com/edu-tutor/coedit/server/gateway"
	"github.com/edu-tutor/coedit/server/logging"
	"github.com/edu-tutor/coedit/server/profiling/prometheus"
)

const (
	// DefaultTickInterval is the interval of clock ticks.
	DefaultTickInterval = time.Second

	// DefaultInboxSize is the number of tasks that can wait for the loop.
	DefaultInboxSize = 1024
)

// ErrSessionClosed is returned when a task is sent to a closed session.
var ErrSessionClosed = errors.Unavailable("session closed").WithCode("ErrSessionClosed")

// Config is the configuration of a session.
type Config struct {
	Gateway      gateway.Config
	TickInterval time.Duration
	InboxSize    int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Gateway:      gateway.DefaultConfig(),
		TickInterval: DefaultTickInterval,
		InboxSize:    DefaultInboxSize,
	}
}

// Option configures a session.
type Option func(*Session)

// WithClock replaces the wall clock of the session.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

type task func(now time.Time)

// Session is a running collaboration session of one document.
type Session struct {
	docKey  string
	conf    Config
	gateway *gateway.Gateway
	clock   func() time.Time
	logger  logging.Logger

	inbox   chan task
	closing chan struct{}
	closed  chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool

	clients    atomic.Int32
	lastActive atomic.Int64
}

// New creates a new session of the document. It does not run until Start.
func New(
	docKey string,
	conf Config,
	sink gateway.Sink,
	metrics *prometheus.Metrics,
	opts ...Option,
) (*Session, error) {
	if conf.TickInterval <= 0 {
		conf.TickInterval = DefaultTickInterval
	}
	if conf.InboxSize <= 0 {
		conf.InboxSize = DefaultInboxSize
	}

	logger := logging.New("session", logging.NewField("doc", docKey))
	gw, err := gateway.New(docKey, conf.Gateway, sink, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("new session %s: %w", docKey, err)
	}

	s := &Session{
		docKey:  docKey,
		conf:    conf,
		gateway: gw,
		clock:   time.Now,
		logger:  logger,
		inbox:   make(chan task, conf.InboxSize),
		closing: make(chan struct{}),
		closed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActive.Store(s.clock().UnixNano())
	return s, nil
}

// DocKey returns the key of the document of this session.
func (s *Session) DocKey() string {
	return s.docKey
}

// Start runs the session loop as a background routine.
func (s *Session) Start(bg *background.Background) error {
	err := ErrSessionClosed
	s.startOnce.Do(func() {
		select {
		case <-s.closing:
			return
		default:
		}
		if bg.AttachGoroutine(s.run, "session") {
			s.started.Store(true)
			err = nil
		}
	})
	return err
}

func (s *Session) run(ctx context.Context) {
	defer close(s.closed)
	defer s.gateway.Close()

	ticker := time.NewTicker(s.conf.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case t := <-s.inbox:
			t(s.clock())
		case <-ticker.C:
			s.gateway.Tick(s.clock())
		case <-s.closing:
			return
		case <-ctx.Done():
			return
		}
	}
}

// send queues the task for the loop.
func (s *Session) send(ctx context.Context, t task) error {
	select {
	case <-s.closing:
		return ErrSessionClosed
	case <-s.closed:
		return ErrSessionClosed
	default:
	}

	select {
	case s.inbox <- t:
		return nil
	case <-s.closing:
		return ErrSessionClosed
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call queues the task and waits until the loop ran it.
func (s *Session) call(ctx context.Context, t task) error {
	done := make(chan struct{})
	if err := s.send(ctx, func(now time.Time) {
		defer close(done)
		t(now)
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attach connects a client through the subscription. Frames for the client
// are queued in sub.
func (s *Session) Attach(ctx context.Context, sub *pubsub.Subscription) error {
	if err := s.call(ctx, func(time.Time) {
		s.gateway.Connect(sub)
	}); err != nil {
		return err
	}
	s.clients.Add(1)
	return nil
}

// Detach disconnects the client.
func (s *Session) Detach(ctx context.Context, clientID types.ID) error {
	err := s.call(ctx, func(now time.Time) {
		s.gateway.Disconnect(clientID, now)
	})
	s.clients.Add(-1)
	s.lastActive.Store(s.clock().UnixNano())
	return err
}

// Dispatch queues a message of the client. Errors of the message itself are
// answered to the client by the gateway.
func (s *Session) Dispatch(ctx context.Context, clientID types.ID, req message.Request) error {
	return s.send(ctx, func(now time.Time) {
		if err := s.gateway.OnMessage(clientID, req, now); err != nil && logging.Enabled(zap.DebugLevel) {
			s.logger.Debugf("%s from %s: %v", req.Type(), clientID, err)
		}
	})
}

// Reject answers a frame of the client that could not be decoded.
func (s *Session) Reject(ctx context.Context, clientID types.ID, requestType message.Type, err error) error {
	return s.send(ctx, func(time.Time) {
		s.gateway.Reject(clientID, requestType, err)
	})
}

// View returns the current state of the session.
func (s *Session) View(ctx context.Context) (message.Snapshot, error) {
	var snapshot message.Snapshot
	if err := s.call(ctx, func(time.Time) {
		snapshot = s.gateway.Snapshot()
	}); err != nil {
		return message.Snapshot{}, err
	}
	return snapshot, nil
}

// Clients returns the number of attached clients.
func (s *Session) Clients() int {
	return int(s.clients.Load())
}

// IdleSince returns how long the session has been without clients, or 0 if
// it has any.
func (s *Session) IdleSince(now time.Time) time.Duration {
	if s.Clients() > 0 {
		return 0
	}
	return now.Sub(time.Unix(0, s.lastActive.Load()))
}

// Close stops the loop and closes every subscription.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closing)
		if !s.started.Load() {
			s.gateway.Close()
			close(s.closed)
		}
	})
	<-s.closed
}
