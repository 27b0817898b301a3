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

// Package messagebroker publishes activity events to an external broker so
// that analytics can consume them.
package messagebroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/server/logging"
)

// Message represents a message that can be sent to the message broker.
type Message interface {
	Key() []byte
	Marshal() ([]byte, error)
}

// ActivityEventMessage is an activity event of a session.
type ActivityEventMessage struct {
	DocKey      string             `json:"doc_key"`
	EventID     string             `json:"event_id"`
	Seq         int64              `json:"seq"`
	EventType   types.ActivityType `json:"event_type"`
	ActorID     string             `json:"actor_id"`
	Anchor      string             `json:"anchor,omitempty"`
	Description string             `json:"description"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// NewActivityEventMessage creates the message of the event.
func NewActivityEventMessage(docKey string, event types.ActivityEvent) ActivityEventMessage {
	return ActivityEventMessage{
		DocKey:      docKey,
		EventID:     event.ID.String(),
		Seq:         event.Seq,
		EventType:   event.Type,
		ActorID:     event.ActorID.String(),
		Anchor:      string(event.Anchor),
		Description: event.Description,
		OccurredAt:  event.OccurredAt,
	}
}

// Key returns the document key so that the events of a document stay in
// one partition.
func (m ActivityEventMessage) Key() []byte {
	return []byte(m.DocKey)
}

// Marshal marshals the activity event message to JSON.
func (m ActivityEventMessage) Marshal() ([]byte, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	return encoded, nil
}

// Broker is an interface for the message broker.
type Broker interface {
	Produce(ctx context.Context, msg Message) error
	Close() error
}

// Ensure creates a message broker based on the given configuration. If the
// configuration is nil or invalid, it returns a DiscardBroker so that callers
// can use the broker without nil checks.
func Ensure(conf *Config) Broker {
	if conf == nil {
		return &DiscardBroker{}
	}

	if err := conf.Validate(); err != nil {
		logging.DefaultLogger().Warnf("invalid kafka configuration: %v", err)
		return &DiscardBroker{}
	}

	logging.DefaultLogger().Infof(
		"connecting to kafka: %s, topic: %s",
		conf.Addresses,
		conf.Topic,
	)

	return newKafkaBroker(conf)
}
