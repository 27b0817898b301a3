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

package messagebroker

import (
	"context"
	"sync/atomic"
)

// DiscardBroker drops every activity message. Ensure returns it when no
// Kafka cluster is configured, so sessions export without a broker.
type DiscardBroker struct {
	discarded atomic.Int64
}

// Produce counts and drops the message.
func (b *DiscardBroker) Produce(_ context.Context, _ Message) error {
	b.discarded.Add(1)
	return nil
}

// Discarded returns the number of messages dropped so far.
func (b *DiscardBroker) Discarded() int64 {
	return b.discarded.Load()
}

// Close is a no-op.
func (b *DiscardBroker) Close() error {
	return nil
}
