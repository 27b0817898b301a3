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

package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/edu-tutor/coedit/api/message"
	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
	"github.com/edu-tutor/coedit/server/backend/pubsub"
	"github.com/edu-tutor/coedit/server/backend/session"
	"github.com/edu-tutor/coedit/server/logging"
)

const detachTimeout = 5 * time.Second

// ErrSessionNotFound is returned when a document has no running session.
var ErrSessionNotFound = errors.NotFound("session not found").WithCode("ErrSessionNotFound")

// connection is the WebSocket of one client.
type connection struct {
	id      types.ID
	conn    *websocket.Conn
	session *session.Session
	sub     *pubsub.Subscription
	limiter *rate.Limiter
	server  *Server
	logger  logging.Logger

	readDone chan struct{}
}

// handleConnect upgrades the request and serves the client until either
// side closes the connection.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	docKey := mux.Vars(r)["docID"]
	if _, err := s.be.Hub.Session(docKey); err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has answered the request.
		logging.DefaultLogger().Warnf("upgrade %s: %v", docKey, err)
		return
	}

	clientID := types.NewID()
	logger := logging.New(clientID.String(), logging.NewField("doc", docKey))
	sub := pubsub.NewSubscription(clientID, s.conf.ClientQueueSize, func(reason string, count int) {
		s.be.Metrics.AddDroppedDeliveries(reason, count)
	})

	sess, err := s.attach(docKey, sub)
	if err != nil {
		logger.Warnf("attach: %v", err)
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
		)
		_ = conn.Close()
		return
	}

	c := &connection{
		id:       clientID,
		conn:     conn,
		session:  sess,
		sub:      sub,
		limiter:  rate.NewLimiter(rate.Limit(s.conf.ClientMessageRate), s.conf.ClientMessageBurst),
		server:   s,
		logger:   logger,
		readDone: make(chan struct{}),
	}
	c.serve(logging.With(s.serviceCtx, logger))
}

// attach attaches the subscription to the session of the document. A session
// closed by housekeeping in the meantime is replaced once.
func (s *Server) attach(docKey string, sub *pubsub.Subscription) (*session.Session, error) {
	var lastErr error
	for i := 0; i < 2; i++ {
		sess, err := s.be.Hub.Session(docKey)
		if err != nil {
			return nil, err
		}
		if lastErr = sess.Attach(s.serviceCtx, sub); lastErr == nil {
			return sess, nil
		}
		if !errors.Is(lastErr, session.ErrSessionClosed) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (c *connection) serve(ctx context.Context) {
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		c.writeLoop(ctx)
	}()

	c.readLoop(ctx)
	close(c.readDone)
	<-writeDone

	detachCtx, cancel := context.WithTimeout(context.Background(), detachTimeout)
	defer cancel()
	if err := c.session.Detach(detachCtx, c.id); err != nil && !errors.Is(err, session.ErrSessionClosed) {
		c.logger.Warnf("detach: %v", err)
	}
	c.sub.Close()
}

func (c *connection) readLoop(ctx context.Context) {
	pongWait := 2 * c.server.pingInterval
	c.conn.SetReadLimit(c.server.conf.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Infof("read: %v", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		req, err := message.Decode(data)
		if err != nil {
			if err := c.session.Reject(ctx, c.id, peekType(data), err); err != nil {
				return
			}
			continue
		}

		if throttled(req.Type()) && !c.limiter.Allow() {
			c.server.be.Metrics.AddRateLimited(string(req.Type()))
			if logging.Enabled(zap.DebugLevel) {
				c.logger.Debugf("rate limited %s", req.Type())
			}
			continue
		}

		if err := c.session.Dispatch(ctx, c.id, req); err != nil {
			c.logger.Infof("dispatch %s: %v", req.Type(), err)
			return
		}
	}
}

func (c *connection) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(c.server.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.sub.Notify():
			if err := c.flush(); err != nil {
				c.logger.Infof("write: %v", err)
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(c.server.writeTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-c.sub.Done():
			_ = c.flush()
			c.close(websocket.CloseNormalClosure, "session closed")
			return
		case <-ctx.Done():
			c.close(websocket.CloseGoingAway, "server shutting down")
			return
		case <-c.readDone:
			return
		}
	}
}

// flush writes every queued frame.
func (c *connection) flush() error {
	for _, out := range c.sub.Drain() {
		data, err := out.Encode()
		if err != nil {
			c.logger.Errorf("encode %s: %v", out.Type, err)
			continue
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(c.server.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return err
		}
	}
	return nil
}

func (c *connection) close(code int, reason string) {
	deadline := time.Now().Add(c.server.writeTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

// throttled reports whether messages of the type are rate limited.
func throttled(t message.Type) bool {
	return t == message.TypeCursorUpdate || t == message.TypeActivitySignal
}

// peekType returns the type of a frame that failed to decode, if any.
func peekType(data []byte) message.Type {
	var env message.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ""
	}
	return env.Type
}
