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

// CursorState is the last reported pointer position of an online participant.
type CursorState struct {
	ParticipantID ID        `json:"participantId"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	ColorToken    string    `json:"colorToken"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
