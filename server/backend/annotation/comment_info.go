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

package annotation

import (
	"fmt"
	"time"

	"github.com/edu-tutor/coedit/api/types"
)

// commentInfo is the row stored in memdb. Order is the zero padded insertion
// sequence so that string indexes sort by creation.
type commentInfo struct {
	ID        string
	AuthorID  string
	Text      string
	Anchor    string
	ParentID  string
	RootID    string
	Status    string
	Order     string
	CreatedAt time.Time
}

func orderKey(seq int64) string {
	return fmt.Sprintf("%016x", seq)
}

// DeepCopy returns a copy of this commentInfo.
func (i *commentInfo) DeepCopy() *commentInfo {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

// ToComment converts the row into the API type.
func (i *commentInfo) ToComment() types.Comment {
	return types.Comment{
		ID:        types.ID(i.ID),
		AuthorID:  types.ID(i.AuthorID),
		Text:      i.Text,
		Anchor:    types.Anchor(i.Anchor),
		ParentID:  types.ID(i.ParentID),
		Resolved:  i.Status == statusResolved,
		CreatedAt: i.CreatedAt,
	}
}
