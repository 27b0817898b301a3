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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/edu-tutor/coedit/internal/version"
)

const (
	namespace         = "coedit"
	messageTypeLabel  = "message_type"
	outcomeLabel      = "outcome"
	reasonLabel       = "reason"
	activityTypeLabel = "activity_type"
	sinkLabel         = "sink"
	taskTypeLabel     = "task_type"
)

// Metrics manages the metric information that the server measures.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion *prometheus.GaugeVec

	sessionsTotal           prometheus.Gauge
	connectionsTotal        prometheus.Gauge
	onlineParticipantsTotal prometheus.Gauge

	messagesHandledTotal   *prometheus.CounterVec
	messageHandleSeconds   prometheus.Histogram
	messagesRateLimited    *prometheus.CounterVec
	droppedDeliveriesTotal *prometheus.CounterVec
	cursorEvictionsTotal   prometheus.Counter
	activityEventsTotal    *prometheus.CounterVec
	exportFailuresTotal    *prometheus.CounterVec
	resyncsTotal           prometheus.Counter

	backgroundGoroutinesTotal *prometheus.GaugeVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	factory := promauto.With(reg)
	metrics := &Metrics{
		registry: reg,
		serverVersion: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		sessionsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "sessions_total",
			Help:      "The number of running collaboration sessions.",
		}),
		connectionsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "connections_total",
			Help:      "The number of attached client connections.",
		}),
		onlineParticipantsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "online_participants_total",
			Help:      "The number of online participants across sessions.",
		}),
		messagesHandledTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "messages_handled_total",
			Help:      "The total number of client messages handled, by type and outcome.",
		}, []string{messageTypeLabel, outcomeLabel}),
		messageHandleSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "message_handle_seconds",
			Help:      "The time spent handling a client message inside the session loop.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		}),
		messagesRateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "messages_rate_limited_total",
			Help:      "The total number of client messages dropped by the rate limiter.",
		}, []string{messageTypeLabel}),
		droppedDeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pubsub",
			Name:      "dropped_deliveries_total",
			Help:      "The total number of frames dropped from client queues, by reason.",
		}, []string{reasonLabel}),
		cursorEvictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "cursor_evictions_total",
			Help:      "The total number of cursors expired by the TTL sweep.",
		}),
		activityEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "events_total",
			Help:      "The total number of activity events appended, by type.",
		}, []string{activityTypeLabel}),
		exportFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "export_failures_total",
			Help:      "The total number of activity events that could not be exported, by sink.",
		}, []string{sinkLabel}),
		resyncsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pubsub",
			Name:      "resyncs_total",
			Help:      "The total number of clients forced to resync after a queue overflow.",
		}),
		backgroundGoroutinesTotal: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "goroutines_total",
			Help:      "The total number of goroutines attached by a particular background task.",
		}, []string{taskTypeLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// AddSessions adjusts the number of running sessions.
func (m *Metrics) AddSessions(delta int) {
	m.sessionsTotal.Add(float64(delta))
}

// AddConnections adjusts the number of attached connections.
func (m *Metrics) AddConnections(delta int) {
	m.connectionsTotal.Add(float64(delta))
}

// AddOnlineParticipants adjusts the number of online participants.
func (m *Metrics) AddOnlineParticipants(delta int) {
	m.onlineParticipantsTotal.Add(float64(delta))
}

// AddMessageHandled counts a handled client message.
func (m *Metrics) AddMessageHandled(messageType, outcome string) {
	m.messagesHandledTotal.With(prometheus.Labels{
		messageTypeLabel: messageType,
		outcomeLabel:     outcome,
	}).Inc()
}

// ObserveMessageHandleSeconds records the time spent on one message.
func (m *Metrics) ObserveMessageHandleSeconds(seconds float64) {
	m.messageHandleSeconds.Observe(seconds)
}

// AddRateLimited counts a message dropped by the rate limiter.
func (m *Metrics) AddRateLimited(messageType string) {
	m.messagesRateLimited.With(prometheus.Labels{
		messageTypeLabel: messageType,
	}).Inc()
}

// AddDroppedDeliveries counts frames dropped from a client queue.
func (m *Metrics) AddDroppedDeliveries(reason string, count int) {
	m.droppedDeliveriesTotal.With(prometheus.Labels{
		reasonLabel: reason,
	}).Add(float64(count))
}

// AddCursorEvictions counts cursors expired by the TTL sweep.
func (m *Metrics) AddCursorEvictions(count int) {
	m.cursorEvictionsTotal.Add(float64(count))
}

// AddActivityEvent counts an appended activity event.
func (m *Metrics) AddActivityEvent(activityType string) {
	m.activityEventsTotal.With(prometheus.Labels{
		activityTypeLabel: activityType,
	}).Inc()
}

// AddExportFailure counts an activity event a sink failed to accept.
func (m *Metrics) AddExportFailure(sink string) {
	m.exportFailuresTotal.With(prometheus.Labels{
		sinkLabel: sink,
	}).Inc()
}

// AddResync counts a client forced to resync.
func (m *Metrics) AddResync() {
	m.resyncsTotal.Inc()
}

// AddBackgroundGoroutines adds the number of goroutines attached by a particular background task.
func (m *Metrics) AddBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Inc()
}

// RemoveBackgroundGoroutines removes the number of goroutines attached by a particular background task.
func (m *Metrics) RemoveBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Dec()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
