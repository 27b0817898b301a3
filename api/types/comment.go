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

// Anchor is an opaque reference to a part of the quiz, e.g. a question ID.
// The empty anchor means the comment or signal is not attached to anything.
type Anchor string

// Comment is an annotation on a quiz. Replies point at their root comment
// through ParentID; only roots carry a resolution state.
type Comment struct {
	ID        ID        `json:"id"`
	AuthorID  ID        `json:"authorId"`
	Text      string    `json:"text"`
	Anchor    Anchor    `json:"anchor,omitempty"`
	ParentID  ID        `json:"parentId,omitempty"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsRoot returns whether the comment starts a thread.
func (c Comment) IsRoot() bool {
	return c.ParentID == ""
}
