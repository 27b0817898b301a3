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

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Role is the role of a participant in a quiz.
type Role string

const (
	// RoleOwner owns the quiz.
	RoleOwner Role = "owner"

	// RoleEditor can change and annotate the quiz.
	RoleEditor Role = "editor"

	// RoleViewer can only look at the quiz.
	RoleViewer Role = "viewer"
)

// Rank returns the position of the role in participant listings.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 0
	case RoleEditor:
		return 1
	case RoleViewer:
		return 2
	default:
		return 3
	}
}

// CanAnnotate returns whether the role may add comments.
func (r Role) CanAnnotate() bool {
	return r == RoleOwner || r == RoleEditor
}

// Validate returns an error if the role is unknown.
func (r Role) Validate() error {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return nil
	}
	return fmt.Errorf("unknown role %q", r)
}

// ConnectionState tells whether a participant is currently connected.
type ConnectionState string

const (
	// Online means the participant has joined and keeps sending heartbeats.
	Online ConnectionState = "online"

	// Offline means the participant left or timed out.
	Offline ConnectionState = "offline"
)

// Participant is a user known to a session.
type Participant struct {
	ID              ID              `json:"id"`
	DisplayName     string          `json:"displayName"`
	AvatarToken     string          `json:"avatarToken"`
	Role            Role            `json:"role"`
	ConnectionState ConnectionState `json:"connectionState"`
	LastSeenAt      time.Time       `json:"lastSeenAt"`
}

// IsOnline returns whether the participant is online.
func (p Participant) IsOnline() bool {
	return p.ConnectionState == Online
}

// AvatarFromName derives the initials shown in place of an avatar image,
// e.g. "Sarah Johnson" becomes "SJ".
func AvatarFromName(name string) string {
	var initials []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				initials = append(initials, unicode.ToUpper(r))
				break
			}
		}
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return string(initials)
}
