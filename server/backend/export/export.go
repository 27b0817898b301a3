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

// Package export hands the activity events of every session to the message
// broker and the archive without blocking the session loops.
package export

import (
	"context"
	"time"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/server/backend/background"
	"github.com/edu-tutor/coedit/server/backend/messagebroker"
	"github.com/edu-tutor/coedit/server/logging"
	"github.com/edu-tutor/coedit/server/profiling/prometheus"
)

const (
	// DefaultQueueSize is the number of events waiting for export.
	DefaultQueueSize = 4096

	exportTimeout = 5 * time.Second
)

// Sink names used in metrics.
const (
	SinkQueue   = "queue"
	SinkBroker  = "broker"
	SinkArchive = "archive"
)

// Archive stores activity events.
type Archive interface {
	Append(ctx context.Context, docKey string, event types.ActivityEvent) error
}

type item struct {
	docKey string
	event  types.ActivityEvent
}

// Exporter queues activity events and exports them from one background
// routine. Events are dropped when the queue is full.
type Exporter struct {
	broker  messagebroker.Broker
	archive Archive
	metrics *prometheus.Metrics
	queue   chan item
	done    chan struct{}
}

// New creates a new Exporter. archive may be nil.
func New(
	broker messagebroker.Broker,
	archive Archive,
	metrics *prometheus.Metrics,
	queueSize int,
) *Exporter {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if broker == nil {
		broker = &messagebroker.DiscardBroker{}
	}
	return &Exporter{
		broker:  broker,
		archive: archive,
		metrics: metrics,
		queue:   make(chan item, queueSize),
		done:    make(chan struct{}),
	}
}

// Export queues the event of the document.
func (e *Exporter) Export(docKey string, event types.ActivityEvent) {
	select {
	case e.queue <- item{docKey: docKey, event: event}:
	default:
		e.metrics.AddExportFailure(SinkQueue)
		logging.DefaultLogger().Warnf("export queue full, drop event %d of %s", event.Seq, docKey)
	}
}

// Start runs the export routine.
func (e *Exporter) Start(bg *background.Background) bool {
	return bg.AttachGoroutine(e.run, "exporter")
}

// Done returns a channel that is closed when the export routine exits.
func (e *Exporter) Done() <-chan struct{} {
	return e.done
}

func (e *Exporter) run(ctx context.Context) {
	defer close(e.done)
	logger := logging.From(ctx)

	for {
		select {
		case it := <-e.queue:
			e.export(ctx, it)
		case <-ctx.Done():
			e.flush(logger)
			return
		}
	}
}

// flush exports what is left in the queue after cancellation.
func (e *Exporter) flush(logger logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	for {
		select {
		case it := <-e.queue:
			e.export(logging.With(ctx, logger), it)
		default:
			return
		}
	}
}

func (e *Exporter) export(ctx context.Context, it item) {
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()
	logger := logging.From(ctx)

	msg := messagebroker.NewActivityEventMessage(it.docKey, it.event)
	if err := e.broker.Produce(ctx, msg); err != nil {
		e.metrics.AddExportFailure(SinkBroker)
		logger.Warnf("produce event %d of %s: %v", it.event.Seq, it.docKey, err)
	}

	if e.archive == nil {
		return
	}
	if err := e.archive.Append(ctx, it.docKey, it.event); err != nil {
		e.metrics.AddExportFailure(SinkArchive)
		logger.Warnf("archive event %d of %s: %v", it.event.Seq, it.docKey, err)
	}
}
