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

package types

import "time"

// ActivityType is the type of an activity event.
type ActivityType string

const (
	// ActivityJoin is recorded when a participant comes online.
	ActivityJoin ActivityType = "join"

	// ActivityLeave is recorded when a participant goes offline.
	ActivityLeave ActivityType = "leave"

	// ActivityEdit is recorded when a participant starts editing an anchor.
	ActivityEdit ActivityType = "edit"

	// ActivityComment is recorded when a comment is added or resolved.
	ActivityComment ActivityType = "comment"
)

// ActivityEvent is an entry of the activity feed. Seq is assigned by the
// activity log and increases by one per event.
type ActivityEvent struct {
	ID          ID           `json:"id"`
	Seq         int64        `json:"seq"`
	Type        ActivityType `json:"type"`
	ActorID     ID           `json:"actorId"`
	Anchor      Anchor       `json:"anchor,omitempty"`
	Description string       `json:"description"`
	OccurredAt  time.Time    `json:"occurredAt"`
}
