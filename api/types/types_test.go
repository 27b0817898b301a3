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

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edu-tutor/coedit/api/types"
)

func TestID(t *testing.T) {
	t.Run("join id test", func(t *testing.T) {
		ids := []types.ID{"id1", "id2", "id3"}
		assert.Equal(t, "id1,id2,id3", types.JoinIDs(ids))
	})

	t.Run("new id test", func(t *testing.T) {
		assert.NotEqual(t, types.NewID(), types.NewID())
		assert.Len(t, types.NewID().String(), 20)
	})
}

func TestParticipant(t *testing.T) {
	t.Run("avatar from name test", func(t *testing.T) {
		assert.Equal(t, "SJ", types.AvatarFromName("Sarah Johnson"))
		assert.Equal(t, "MC", types.AvatarFromName("  mike   chen  "))
		assert.Equal(t, "A", types.AvatarFromName("Ada"))
		assert.Equal(t, "EW", types.AvatarFromName("Emma Wilson Jr"))
		assert.Equal(t, "?", types.AvatarFromName(""))
	})

	t.Run("role test", func(t *testing.T) {
		assert.Less(t, types.RoleOwner.Rank(), types.RoleEditor.Rank())
		assert.Less(t, types.RoleEditor.Rank(), types.RoleViewer.Rank())
		assert.True(t, types.RoleEditor.CanAnnotate())
		assert.False(t, types.RoleViewer.CanAnnotate())
		assert.NoError(t, types.RoleViewer.Validate())
		assert.Error(t, types.Role("admin").Validate())
	})
}

func TestIntentSummary(t *testing.T) {
	t.Run("equal test", func(t *testing.T) {
		a := types.IntentSummary{Anchor: "q1", EditingCount: 1, Editors: []types.ID{"u1"}}
		b := types.IntentSummary{Anchor: "q1", EditingCount: 1, Editors: []types.ID{"u1"}}
		assert.True(t, a.Equal(b))

		b.Editors = []types.ID{"u2"}
		assert.False(t, a.Equal(b))
		assert.False(t, a.IsEmpty())
		assert.True(t, types.IntentSummary{Anchor: "q1"}.IsEmpty())
	})
}
