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

// Package rpc serves the collaboration sessions over WebSocket and exposes
// a read only HTTP view of them.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/edu-tutor/coedit/server/backend"
	"github.com/edu-tutor/coedit/server/logging"
)

const shutdownTimeout = 5 * time.Second

// HealthResponse is the body of a health check.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// Server is the server that processes the connections of the clients.
type Server struct {
	conf         *Config
	be           *backend.Backend
	writeTimeout time.Duration
	pingInterval time.Duration

	upgrader   websocket.Upgrader
	httpServer *http.Server

	// serviceCtx is cancelled on shutdown to close the open connections,
	// which http.Server.Shutdown does not track.
	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// NewServer creates a new instance of Server.
func NewServer(conf *Config, be *backend.Backend) (*Server, error) {
	writeTimeout, err := conf.ParseWriteTimeout()
	if err != nil {
		return nil, err
	}
	pingInterval, err := conf.ParsePingInterval()
	if err != nil {
		return nil, err
	}

	serviceCtx, serviceCancel := context.WithCancel(context.Background())
	s := &Server{
		conf:         conf,
		be:           be,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the router of this server.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/sessions/{docID}", s.handleView).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{docID}/ws", s.handleConnect).Methods(http.MethodGet)
	return r
}

// Start starts this server by opening the rpc port.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		logging.DefaultLogger().Error(err)
		return err
	}

	go func() {
		logging.DefaultLogger().Infof("serving RPC on %d", s.conf.Port)

		if err := s.httpServer.Serve(lis); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logging.DefaultLogger().Error(err)
			}
		}
	}()

	return nil
}

// Shutdown shuts down this server.
func (s *Server) Shutdown(graceful bool) {
	s.serviceCancel()

	if !graceful {
		_ = s.httpServer.Close()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.DefaultLogger().Errorf("shutdown rpc server: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "SERVING", Sessions: s.be.Hub.Len()}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleView returns the state of a running session.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	docKey := mux.Vars(r)["docID"]
	sess, ok := s.be.Hub.Get(docKey)
	if !ok {
		writeError(w, fmt.Errorf("%s: %w", docKey, ErrSessionNotFound))
		return
	}

	snapshot, err := sess.View(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		logging.DefaultLogger().Warnf("write view of %s: %v", docKey, err)
	}
}
