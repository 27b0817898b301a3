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

// Package gateway holds the state of one collaboration session and applies
// client messages and clock ticks to it. A Gateway is single threaded: the
// session loop is its only caller, so none of its components lock.
package gateway

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/edu-tutor/coedit/api/message"
	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
	"github.com/edu-tutor/coedit/server/backend/activity"
	"github.com/edu-tutor/coedit/server/backend/annotation"
	"github.com/edu-tutor/coedit/server/backend/intent"
	"github.com/edu-tutor/coedit/server/backend/presence"
	"github.com/edu-tutor/coedit/server/backend/pubsub"
	"github.com/edu-tutor/coedit/server/backend/registry"
	"github.com/edu-tutor/coedit/server/logging"
	"github.com/edu-tutor/coedit/server/profiling/prometheus"
)

var (
	// ErrUnknownClient is returned for a client that is not connected.
	ErrUnknownClient = errors.NotFound("client not connected").WithCode("ErrUnknownClient")

	// ErrNotJoined is returned when a client sends a message that needs a
	// participant before joining.
	ErrNotJoined = errors.FailedPrecond("client has not joined").WithCode("ErrNotJoined")

	// ErrAlreadyJoined is returned when a client joins as a second
	// participant.
	ErrAlreadyJoined = errors.FailedPrecond("client joined as another participant").WithCode("ErrAlreadyJoined")

	// ErrParticipantMismatch is returned when a message names a participant
	// other than the one of the client.
	ErrParticipantMismatch = errors.InvalidArgument("participant does not match client").WithCode("ErrParticipantMismatch")
)

// Sink receives every activity event appended to the session.
type Sink interface {
	Export(docKey string, event types.ActivityEvent)
}

// Gateway is the state of one collaboration session.
type Gateway struct {
	docKey string
	conf   Config

	registry *registry.Registry
	presence *presence.Broadcaster
	intents  *intent.Aggregator
	comments *annotation.Store
	activity *activity.Log

	subs *pubsub.Subscriptions

	// clients maps connected clients to their participant, or "" before
	// they join. connections is the reverse index.
	clients     map[types.ID]types.ID
	connections map[types.ID]map[types.ID]struct{}

	// summaries holds the last intent summary sent per anchor.
	summaries map[types.Anchor]types.IntentSummary

	sink    Sink
	metrics *prometheus.Metrics
	logger  logging.Logger
}

// New creates a new Gateway for the document.
func New(
	docKey string,
	conf Config,
	sink Sink,
	metrics *prometheus.Metrics,
	logger logging.Logger,
) (*Gateway, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("validate gateway config: %w", err)
	}

	reg := registry.New(conf.HeartbeatTimeout)
	comments, err := annotation.New(reg)
	if err != nil {
		return nil, err
	}

	return &Gateway{
		docKey:   docKey,
		conf:     conf,
		registry: reg,
		presence: presence.New(reg, conf.CursorTTL),
		intents: intent.New(reg, intent.Config{
			IntentTTL:     conf.IntentTTL,
			EditingWindow: conf.EditingWindow,
			MaxEditors:    conf.MaxEditors,
		}),
		comments:    comments,
		activity:    activity.New(conf.ActivityLogSize),
		subs:        pubsub.NewSubscriptions(docKey, logger),
		clients:     make(map[types.ID]types.ID),
		connections: make(map[types.ID]map[types.ID]struct{}),
		summaries:   make(map[types.Anchor]types.IntentSummary),
		sink:        sink,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// Connect attaches the subscription of a new client.
func (g *Gateway) Connect(sub *pubsub.Subscription) {
	g.subs.Set(sub)
	g.clients[sub.Subscriber()] = ""
	g.metrics.AddConnections(1)
}

// Disconnect detaches the client. Its participant goes offline when this
// was its last connection.
func (g *Gateway) Disconnect(clientID types.ID, now time.Time) {
	participantID, ok := g.clients[clientID]
	if !ok {
		return
	}
	delete(g.clients, clientID)
	g.subs.Delete(clientID)
	g.metrics.AddConnections(-1)

	if participantID != "" {
		g.unbind(clientID, participantID, now)
	}
}

// Clients returns the number of connected clients.
func (g *Gateway) Clients() int {
	return len(g.clients)
}

// OnMessage applies a client message. Failures caused by the client are
// answered with a rejection; failures on stale input are dropped. The
// returned error is only meant for logging.
func (g *Gateway) OnMessage(clientID types.ID, req message.Request, now time.Time) error {
	if _, ok := g.clients[clientID]; !ok {
		return ErrUnknownClient
	}

	start := time.Now()
	err := g.handle(clientID, req, now)
	g.metrics.ObserveMessageHandleSeconds(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case err == nil:
	case isStale(err):
		outcome = "dropped"
		if logging.Enabled(zap.DebugLevel) {
			g.logger.Debugf("drop %s from %s: %v", req.Type(), clientID, err)
		}
	case errors.IsClientError(err):
		outcome = "rejected"
		g.subs.Unicast(clientID, message.NewRejection(req.Type(), err))
	default:
		outcome = "failed"
		g.logger.Errorf("handle %s from %s: %v", req.Type(), clientID, err)
		g.subs.Unicast(clientID, message.NewRejection(req.Type(), errors.Internal("internal error")))
	}
	g.metrics.AddMessageHandled(string(req.Type()), outcome)

	return err
}

func isStale(err error) bool {
	return errors.Is(err, presence.ErrStale) ||
		errors.Is(err, presence.ErrOutOfOrder) ||
		errors.Is(err, intent.ErrStale) ||
		errors.Is(err, registry.ErrParticipantNotFound) ||
		errors.Is(err, registry.ErrParticipantOffline)
}

// Reject answers a frame that could not be decoded.
func (g *Gateway) Reject(clientID types.ID, requestType message.Type, err error) {
	g.subs.Unicast(clientID, message.NewRejection(requestType, err))
	g.metrics.AddMessageHandled(string(requestType), "rejected")
}

// Tick applies the passage of time: participants without heartbeats leave,
// idle cursors are removed and intent summaries are refreshed.
func (g *Gateway) Tick(now time.Time) {
	for _, participantID := range g.registry.Expired(now) {
		g.logger.Infof("participant %s timed out", participantID)
		if err := g.leave(participantID, now); err != nil {
			g.logger.Warnf("leave %s: %v", participantID, err)
		}
	}

	removed := g.presence.Tick(now)
	for _, participantID := range removed {
		g.broadcast(message.NewCursorRemovedDelta(participantID))
	}
	if len(removed) > 0 {
		g.metrics.AddCursorEvictions(len(removed))
	}

	g.intents.ComputeIntents(now)
	for _, anchor := range g.trackedAnchors() {
		g.refreshIntent(anchor, now)
	}
}

// Snapshot returns the full state of the session.
func (g *Gateway) Snapshot() message.Snapshot {
	comments, err := g.comments.All()
	if err != nil {
		g.logger.Errorf("list comments: %v", err)
	}

	anchors := make([]types.Anchor, 0, len(g.summaries))
	for anchor := range g.summaries {
		anchors = append(anchors, anchor)
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i] < anchors[j] })
	intents := make([]types.IntentSummary, 0, len(anchors))
	for _, anchor := range anchors {
		intents = append(intents, g.summaries[anchor])
	}

	return message.Snapshot{
		Participants: g.registry.List(registry.All),
		Cursors:      g.presence.Snapshot(),
		Intents:      intents,
		Comments:     comments,
		Activity:     g.activity.Recent(g.conf.SnapshotActivity),
		LastSeq:      g.activity.LastSeq(),
	}
}

// Close closes every subscription. The gateway must not be used afterwards.
func (g *Gateway) Close() {
	g.metrics.AddConnections(-len(g.clients))
	g.metrics.AddOnlineParticipants(-g.registry.OnlineCount())
	g.subs.Close()
	g.clients = make(map[types.ID]types.ID)
}

func (g *Gateway) bind(clientID, participantID types.ID) {
	g.clients[clientID] = participantID
	conns, ok := g.connections[participantID]
	if !ok {
		conns = make(map[types.ID]struct{})
		g.connections[participantID] = conns
	}
	conns[clientID] = struct{}{}
}

func (g *Gateway) unbind(clientID, participantID types.ID, now time.Time) {
	if _, ok := g.clients[clientID]; ok {
		g.clients[clientID] = ""
	}
	conns := g.connections[participantID]
	delete(conns, clientID)
	if len(conns) > 0 {
		return
	}
	delete(g.connections, participantID)

	if err := g.leave(participantID, now); err != nil && !isStale(err) {
		g.logger.Warnf("leave %s: %v", participantID, err)
	}
}

// leave takes the participant offline and clears everything it owns.
func (g *Gateway) leave(participantID types.ID, now time.Time) error {
	p, err := g.registry.Leave(participantID, now)
	if err != nil {
		return err
	}
	g.metrics.AddOnlineParticipants(-1)

	for clientID := range g.connections[participantID] {
		g.clients[clientID] = ""
	}
	delete(g.connections, participantID)

	if g.presence.Remove(participantID) {
		g.broadcast(message.NewCursorRemovedDelta(participantID))
	}
	for _, anchor := range g.intents.Purge(participantID) {
		g.refreshIntent(anchor, now)
	}

	g.broadcast(message.NewParticipantDelta(p))
	g.record(types.ActivityEvent{
		Type:        types.ActivityLeave,
		ActorID:     participantID,
		Description: "left the collaboration",
	}, now)
	return nil
}

// broadcast publishes the frame to the clients of online participants.
// Clients that have not joined, or whose participant timed out, catch up
// with the snapshot of their next join.
func (g *Gateway) broadcast(out message.Outbound, exclude ...types.ID) {
	g.subs.BroadcastIf(out, func(clientID types.ID) bool {
		if g.clients[clientID] == "" {
			return false
		}
		for _, id := range exclude {
			if id == clientID {
				return false
			}
		}
		return true
	})
}

// record appends the event, broadcasts it and hands it to the sink.
func (g *Gateway) record(event types.ActivityEvent, now time.Time, exclude ...types.ID) types.ActivityEvent {
	event.OccurredAt = now
	appended := g.activity.Append(event)
	g.metrics.AddActivityEvent(string(appended.Type))
	g.broadcast(message.NewActivityDelta(appended), exclude...)
	if g.sink != nil {
		g.sink.Export(g.docKey, appended)
	}
	return appended
}

// refreshIntent broadcasts the summary of the anchor if it changed.
func (g *Gateway) refreshIntent(anchor types.Anchor, now time.Time) {
	summary := g.intents.Summarize(anchor, now)
	prev, known := g.summaries[anchor]
	switch {
	case known && prev.Equal(summary):
		return
	case !known && summary.IsEmpty():
		return
	case summary.IsEmpty():
		delete(g.summaries, anchor)
	default:
		g.summaries[anchor] = summary
	}
	g.broadcast(message.NewIntentDelta(summary))
}

func (g *Gateway) trackedAnchors() []types.Anchor {
	seen := make(map[types.Anchor]struct{}, len(g.summaries))
	var anchors []types.Anchor
	for anchor := range g.summaries {
		seen[anchor] = struct{}{}
		anchors = append(anchors, anchor)
	}
	for _, anchor := range g.intents.Anchors() {
		if _, ok := seen[anchor]; !ok {
			anchors = append(anchors, anchor)
		}
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i] < anchors[j] })
	return anchors
}
