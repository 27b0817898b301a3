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

// Package annotation stores the comment threads of a session in an
// in-memory database.
package annotation

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
)

var (
	// ErrInvalidAuthor is returned when the author is not a participant.
	ErrInvalidAuthor = errors.InvalidArgument("author is not a participant").WithCode("ErrInvalidAuthor")

	// ErrCommentForbidden is returned when the author's role may not comment.
	ErrCommentForbidden = errors.PermissionDenied("role is not allowed to comment").WithCode("ErrCommentForbidden")

	// ErrEmptyText is returned when the comment has no text.
	ErrEmptyText = errors.InvalidArgument("comment text is empty").WithCode("ErrEmptyText")

	// ErrInvalidParent is returned when the parent is not an existing root
	// comment, or the reply is anchored elsewhere than its thread.
	ErrInvalidParent = errors.InvalidArgument("parent is not a root comment").WithCode("ErrInvalidParent")

	// ErrInvalidComment is returned when the comment does not exist.
	ErrInvalidComment = errors.NotFound("comment not found").WithCode("ErrInvalidComment")

	// ErrNotRoot is returned when resolving a reply.
	ErrNotRoot = errors.FailedPrecond("only root comments can be resolved").WithCode("ErrNotRoot")

	// ErrAlreadyResolved is returned when resolving a resolved comment. The
	// comment is left untouched.
	ErrAlreadyResolved = errors.AlreadyExists("comment already resolved").WithCode("ErrAlreadyResolved")
)

// Directory looks up the participants of the session.
type Directory interface {
	Get(id types.ID) (types.Participant, bool)
}

// Store holds the comments of a session. Comments are immutable except for
// the one way transition of a root from open to resolved.
type Store struct {
	db        *memdb.MemDB
	directory Directory
	seq       int64
}

// New creates a new Store.
func New(directory Directory) (*Store, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &Store{
		db:        db,
		directory: directory,
	}, nil
}

// AddComment creates a root comment, or a reply when parentID is given. A
// reply without an anchor inherits the anchor of its root.
func (s *Store) AddComment(
	authorID types.ID,
	text string,
	anchor types.Anchor,
	parentID types.ID,
	now time.Time,
) (types.Comment, error) {
	author, ok := s.directory.Get(authorID)
	if !ok {
		return types.Comment{}, ErrInvalidAuthor
	}
	if !author.Role.CanAnnotate() {
		return types.Comment{}, ErrCommentForbidden
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Comment{}, ErrEmptyText
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	info := &commentInfo{
		ID:        types.NewID().String(),
		AuthorID:  authorID.String(),
		Text:      text,
		Anchor:    string(anchor),
		Status:    statusOpen,
		CreatedAt: now,
	}
	info.RootID = info.ID

	if parentID != "" {
		raw, err := txn.First(tblComments, "id", parentID.String())
		if err != nil {
			return types.Comment{}, fmt.Errorf("find parent %s: %w", parentID, err)
		}
		if raw == nil {
			return types.Comment{}, fmt.Errorf("find parent %s: %w", parentID, ErrInvalidParent)
		}
		parent := raw.(*commentInfo)
		if parent.Status == statusReply {
			return types.Comment{}, fmt.Errorf("parent %s is a reply: %w", parentID, ErrInvalidParent)
		}
		if info.Anchor == "" {
			info.Anchor = parent.Anchor
		} else if info.Anchor != parent.Anchor {
			return types.Comment{}, fmt.Errorf("reply anchored on %s: %w", info.Anchor, ErrInvalidParent)
		}
		info.ParentID = parent.ID
		info.RootID = parent.ID
		info.Status = statusReply
	}

	s.seq++
	info.Order = orderKey(s.seq)
	if err := txn.Insert(tblComments, info); err != nil {
		return types.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	txn.Commit()

	return info.ToComment(), nil
}

// Resolve marks the root comment as resolved.
func (s *Store) Resolve(id types.ID) (types.Comment, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblComments, "id", id.String())
	if err != nil {
		return types.Comment{}, fmt.Errorf("find comment %s: %w", id, err)
	}
	if raw == nil {
		return types.Comment{}, fmt.Errorf("resolve %s: %w", id, ErrInvalidComment)
	}

	info := raw.(*commentInfo).DeepCopy()
	switch info.Status {
	case statusReply:
		return types.Comment{}, fmt.Errorf("resolve %s: %w", id, ErrNotRoot)
	case statusResolved:
		return info.ToComment(), fmt.Errorf("resolve %s: %w", id, ErrAlreadyResolved)
	}

	info.Status = statusResolved
	if err := txn.Insert(tblComments, info); err != nil {
		return types.Comment{}, fmt.Errorf("update comment %s: %w", id, err)
	}
	txn.Commit()

	return info.ToComment(), nil
}

// Get returns the comment of the given ID.
func (s *Store) Get(id types.ID) (types.Comment, bool) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblComments, "id", id.String())
	if err != nil || raw == nil {
		return types.Comment{}, false
	}
	return raw.(*commentInfo).ToComment(), true
}

// ByAnchor returns the comments anchored on the given anchor, oldest first.
func (s *Store) ByAnchor(anchor types.Anchor) ([]types.Comment, error) {
	if anchor == "" {
		return nil, nil
	}
	return s.list(false, "anchor_order_prefix", string(anchor), "")
}

// Unresolved returns the open root comments, newest first.
func (s *Store) Unresolved() ([]types.Comment, error) {
	return s.list(true, "status_order_prefix", statusOpen, "")
}

// Thread returns the root comment followed by its replies, oldest first.
func (s *Store) Thread(rootID types.ID) ([]types.Comment, error) {
	return s.list(false, "root_order_prefix", rootID.String(), "")
}

// All returns every comment in creation order.
func (s *Store) All() ([]types.Comment, error) {
	return s.list(false, "order")
}

// UnresolvedCount returns the number of open root comments.
func (s *Store) UnresolvedCount() int {
	comments, err := s.Unresolved()
	if err != nil {
		return 0
	}
	return len(comments)
}

func (s *Store) list(reverse bool, index string, args ...interface{}) ([]types.Comment, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	var iter memdb.ResultIterator
	var err error
	if reverse {
		iter, err = txn.GetReverse(tblComments, index, args...)
	} else {
		iter, err = txn.Get(tblComments, index, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list comments by %s: %w", index, err)
	}

	comments := []types.Comment{}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		comments = append(comments, raw.(*commentInfo).ToComment())
	}
	return comments, nil
}
