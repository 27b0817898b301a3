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

// Package background tracks the goroutines started by the backend, such as
// session loops and the activity exporter, so that shutdown can wait for
// them.
package background

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/edu-tutor/coedit/server/logging"
	"github.com/edu-tutor/coedit/server/profiling/prometheus"
)

type routineID int32

func (c *routineID) next() string {
	next := atomic.AddInt32((*int32)(c), 1)
	return "b" + strconv.Itoa(int(next))
}

// Background owns the lifetime of background routines. The context given to
// each routine is cancelled by Close.
type Background struct {
	ctx    context.Context
	cancel context.CancelFunc

	// wgMu blocks WaitGroup.Add while Close is waiting.
	wgMu    sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	routine routineID

	metrics *prometheus.Metrics
}

// New creates a new background service.
func New(metrics *prometheus.Metrics) *Background {
	ctx, cancel := context.WithCancel(context.Background())
	return &Background{
		ctx:     ctx,
		cancel:  cancel,
		metrics: metrics,
	}
}

// AttachGoroutine runs f in a tracked goroutine. It returns false without
// running f if the service is closed.
func (b *Background) AttachGoroutine(f func(ctx context.Context), taskType string) bool {
	b.wgMu.RLock()
	defer b.wgMu.RUnlock()
	if b.closed {
		logging.DefaultLogger().Warnf("background closed; skipping %s", taskType)
		return false
	}

	b.wg.Add(1)
	routineLogger := logging.New(b.routine.next(), logging.NewField("task", taskType))
	b.metrics.AddBackgroundGoroutines(taskType)
	go func() {
		defer func() {
			b.metrics.RemoveBackgroundGoroutines(taskType)
			b.wg.Done()
		}()
		f(logging.With(b.ctx, routineLogger))
	}()
	return true
}

// Close cancels the routines and waits for them to exit.
func (b *Background) Close() {
	b.wgMu.Lock()
	b.closed = true
	b.wgMu.Unlock()

	b.cancel()
	b.wg.Wait()
}
