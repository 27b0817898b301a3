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

// SignalKind is the kind of interaction a client reports for an anchor.
type SignalKind string

const (
	// SignalKeystroke is reported while the participant types.
	SignalKeystroke SignalKind = "keystroke"

	// SignalFocus is reported when the participant focuses an anchor.
	SignalFocus SignalKind = "focus"

	// SignalIdle is reported when the participant stops interacting.
	SignalIdle SignalKind = "idle"
)

// IntentState is the derived state of a participant on an anchor.
type IntentState string

const (
	// IntentEditing means a keystroke was seen within the editing window.
	IntentEditing IntentState = "editing"

	// IntentViewing means there was activity but no recent keystroke.
	IntentViewing IntentState = "viewing"
)

// EditIntent is the derived intent of one participant on one anchor.
type EditIntent struct {
	ParticipantID ID          `json:"participantId"`
	Anchor        Anchor      `json:"anchor"`
	State         IntentState `json:"state"`
	ObservedAt    time.Time   `json:"observedAt"`
}

// IntentSummary aggregates the intents on one anchor. Editors lists the most
// recent editors first and is capped by the session configuration.
type IntentSummary struct {
	Anchor       Anchor `json:"anchor"`
	EditingCount int    `json:"editingCount"`
	ViewingCount int    `json:"viewingCount"`
	Editors      []ID   `json:"editors"`
}

// Equal returns whether both summaries describe the same state.
func (s IntentSummary) Equal(other IntentSummary) bool {
	if s.Anchor != other.Anchor || s.EditingCount != other.EditingCount ||
		s.ViewingCount != other.ViewingCount || len(s.Editors) != len(other.Editors) {
		return false
	}
	for i := range s.Editors {
		if s.Editors[i] != other.Editors[i] {
			return false
		}
	}
	return true
}

// IsEmpty returns whether nobody is on the anchor.
func (s IntentSummary) IsEmpty() bool {
	return s.EditingCount == 0 && s.ViewingCount == 0
}
