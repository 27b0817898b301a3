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

package annotation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/server/backend/annotation"
)

var t0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

type directory map[types.ID]types.Role

func (d directory) Get(id types.ID) (types.Participant, bool) {
	role, ok := d[id]
	if !ok {
		return types.Participant{}, false
	}
	return types.Participant{ID: id, Role: role}, true
}

func newStore(t *testing.T) *annotation.Store {
	store, err := annotation.New(directory{
		"owner":  types.RoleOwner,
		"editor": types.RoleEditor,
		"viewer": types.RoleViewer,
	})
	require.NoError(t, err)
	return store
}

func ids(comments []types.Comment) []types.ID {
	var result []types.ID
	for _, c := range comments {
		result = append(result, c.ID)
	}
	return result
}

func TestStore(t *testing.T) {
	t.Run("resolve is terminal test", func(t *testing.T) {
		store := newStore(t)

		c1, err := store.AddComment("editor", "fix this", "q1", "", t0)
		assert.NoError(t, err)
		assert.True(t, c1.IsRoot())
		assert.False(t, c1.Resolved)
		assert.Equal(t, 1, store.UnresolvedCount())

		resolved, err := store.Resolve(c1.ID)
		assert.NoError(t, err)
		assert.True(t, resolved.Resolved)
		assert.Equal(t, 0, store.UnresolvedCount())

		again, err := store.Resolve(c1.ID)
		assert.ErrorIs(t, err, annotation.ErrAlreadyResolved)
		assert.True(t, again.Resolved)
		unresolved, err := store.Unresolved()
		assert.NoError(t, err)
		assert.Empty(t, unresolved)
	})

	t.Run("reply cannot be resolved test", func(t *testing.T) {
		store := newStore(t)
		c1, err := store.AddComment("editor", "fix this", "q1", "", t0)
		require.NoError(t, err)

		reply, err := store.AddComment("owner", "reply", "", c1.ID, t0.Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, c1.ID, reply.ParentID)
		assert.Equal(t, types.Anchor("q1"), reply.Anchor)

		_, err = store.Resolve(reply.ID)
		assert.ErrorIs(t, err, annotation.ErrNotRoot)

		stored, ok := store.Get(reply.ID)
		assert.True(t, ok)
		assert.False(t, stored.Resolved)

		_, err = store.Resolve(c1.ID)
		assert.NoError(t, err)
		stored, _ = store.Get(reply.ID)
		assert.False(t, stored.Resolved)
	})

	t.Run("invalid author and role test", func(t *testing.T) {
		store := newStore(t)

		_, err := store.AddComment("stranger", "hi", "q1", "", t0)
		assert.ErrorIs(t, err, annotation.ErrInvalidAuthor)

		_, err = store.AddComment("viewer", "hi", "q1", "", t0)
		assert.ErrorIs(t, err, annotation.ErrCommentForbidden)

		_, err = store.AddComment("editor", "   ", "q1", "", t0)
		assert.ErrorIs(t, err, annotation.ErrEmptyText)

		all, err := store.All()
		assert.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("invalid parent test", func(t *testing.T) {
		store := newStore(t)

		_, err := store.AddComment("editor", "reply", "", "missing", t0)
		assert.ErrorIs(t, err, annotation.ErrInvalidParent)

		root, err := store.AddComment("editor", "root", "q1", "", t0)
		require.NoError(t, err)
		reply, err := store.AddComment("editor", "reply", "", root.ID, t0)
		require.NoError(t, err)

		_, err = store.AddComment("editor", "nested", "", reply.ID, t0)
		assert.ErrorIs(t, err, annotation.ErrInvalidParent)

		_, err = store.AddComment("editor", "elsewhere", "q2", root.ID, t0)
		assert.ErrorIs(t, err, annotation.ErrInvalidParent)

		_, err = store.Resolve("missing")
		assert.ErrorIs(t, err, annotation.ErrInvalidComment)
	})

	t.Run("queries ordering test", func(t *testing.T) {
		store := newStore(t)

		a, _ := store.AddComment("editor", "a", "q1", "", t0)
		b, _ := store.AddComment("owner", "b", "q10", "", t0.Add(time.Second))
		c, _ := store.AddComment("editor", "c", "", "", t0.Add(2*time.Second))
		d, _ := store.AddComment("owner", "d", "", a.ID, t0.Add(3*time.Second))
		e, _ := store.AddComment("editor", "e", "q1", "", t0.Add(4*time.Second))

		byAnchor, err := store.ByAnchor("q1")
		assert.NoError(t, err)
		assert.Equal(t, []types.ID{a.ID, d.ID, e.ID}, ids(byAnchor))

		unresolved, err := store.Unresolved()
		assert.NoError(t, err)
		assert.Equal(t, []types.ID{e.ID, c.ID, b.ID, a.ID}, ids(unresolved))

		thread, err := store.Thread(a.ID)
		assert.NoError(t, err)
		assert.Equal(t, []types.ID{a.ID, d.ID}, ids(thread))

		all, err := store.All()
		assert.NoError(t, err)
		assert.Equal(t, []types.ID{a.ID, b.ID, c.ID, d.ID, e.ID}, ids(all))

		_, err = store.Resolve(b.ID)
		assert.NoError(t, err)
		unresolved, _ = store.Unresolved()
		assert.Equal(t, []types.ID{e.ID, c.ID, a.ID}, ids(unresolved))

		none, err := store.ByAnchor("")
		assert.NoError(t, err)
		assert.Empty(t, none)
	})
}
