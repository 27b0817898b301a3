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

package housekeeping

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/edu-tutor/coedit/server/logging"
)

// Reaper closes the sessions that have been without clients for idle.
type Reaper interface {
	CloseIdle(ctx context.Context, now time.Time, idle time.Duration) int
}

// Housekeeping runs the reaper periodically.
type Housekeeping struct {
	reaper      Reaper
	interval    time.Duration
	idleTimeout time.Duration

	ctx        context.Context
	cancelFunc context.CancelFunc
	started    atomic.Bool
	done       chan struct{}
}

// New creates a new housekeeping instance.
func New(conf *Config, reaper Reaper) (*Housekeeping, error) {
	interval, err := conf.ParseInterval()
	if err != nil {
		return nil, err
	}
	idleTimeout, err := conf.ParseSessionIdleTimeout()
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	return &Housekeeping{
		reaper:      reaper,
		interval:    interval,
		idleTimeout: idleTimeout,
		ctx:         ctx,
		cancelFunc:  cancelFunc,
		done:        make(chan struct{}),
	}, nil
}

// Start starts the housekeeping loop.
func (h *Housekeeping) Start() error {
	if h.started.Swap(true) {
		return fmt.Errorf("%s: already started", h)
	}
	go h.run()
	return nil
}

// Stop stops the loop and waits for the running pass.
func (h *Housekeeping) Stop() error {
	h.cancelFunc()
	if h.started.Load() {
		<-h.done
	}
	return nil
}

func (h *Housekeeping) run() {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			h.RunOnce(now)
		case <-h.ctx.Done():
			return
		}
	}
}

// RunOnce performs one housekeeping pass.
func (h *Housekeeping) RunOnce(now time.Time) int {
	start := time.Now()
	closed := h.reaper.CloseIdle(h.ctx, now, h.idleTimeout)
	if closed > 0 {
		logging.From(h.ctx).Infof("HSKP: closed %d idle sessions, %s", closed, time.Since(start))
	}
	return closed
}

// String returns a string representation of this housekeeping.
func (h *Housekeeping) String() string {
	return fmt.Sprintf("Housekeeping(every %s, idle %s)", h.interval, h.idleTimeout)
}
