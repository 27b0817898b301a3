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

// Package message defines the JSON frames exchanged between clients and a
// session over a WebSocket connection. Every frame is an Envelope whose
// payload depends on its type.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/edu-tutor/coedit/internal/validation"
	"github.com/edu-tutor/coedit/pkg/errors"
)

// ErrMalformed is returned when a frame cannot be decoded.
var ErrMalformed = errors.InvalidArgument("malformed message").WithCode("ErrMalformed")

// Type is the type of a frame.
type Type string

// Client to server types.
const (
	TypeJoin           Type = "join"
	TypeLeave          Type = "leave"
	TypeHeartbeat      Type = "heartbeat"
	TypeCursorUpdate   Type = "cursor_update"
	TypeActivitySignal Type = "activity_signal"
	TypeAddComment     Type = "add_comment"
	TypeResolveComment Type = "resolve_comment"
	TypeSync           Type = "sync"
)

// Server to client types.
const (
	TypeStateSnapshot  Type = "state_snapshot"
	TypeStateDelta     Type = "state_delta"
	TypeActivityBatch  Type = "activity_batch"
	TypeRejection      Type = "rejection"
	TypeResyncRequired Type = "resync_required"
)

// Envelope is the frame on the wire.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Request is a decoded client frame.
type Request interface {
	Type() Type
}

// Decode parses and validates a client frame.
func Decode(data []byte) (Request, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %v: %w", err, ErrMalformed)
	}

	var req Request
	switch env.Type {
	case TypeJoin:
		req = &Join{}
	case TypeLeave:
		req = &Leave{}
	case TypeHeartbeat:
		req = &Heartbeat{}
	case TypeCursorUpdate:
		req = &CursorUpdate{}
	case TypeActivitySignal:
		req = &ActivitySignal{}
	case TypeAddComment:
		req = &AddComment{}
	case TypeResolveComment:
		req = &ResolveComment{}
	case TypeSync:
		req = &Sync{}
	default:
		return nil, fmt.Errorf("decode type %q: %w", env.Type, ErrMalformed)
	}

	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, req); err != nil {
			return nil, fmt.Errorf("decode %s payload: %v: %w", env.Type, err, ErrMalformed)
		}
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validate %s: %v: %w", env.Type, err, ErrMalformed)
	}

	return req, nil
}

// Encode marshals a server frame.
func Encode(t Type, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	data, err := json.Marshal(Envelope{Type: t, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	return data, nil
}
