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

// Package intent derives who is editing or viewing which part of a quiz from
// the activity signals sent by clients.
package intent

import (
	"sort"
	"time"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/pkg/errors"
	"github.com/edu-tutor/coedit/pkg/heap"
)

var (
	// ErrStale is returned when a signal comes from a participant that is
	// not online.
	ErrStale = errors.FailedPrecond("activity signal from offline participant").WithCode("ErrStale")

	// ErrInvalidSignal is returned for an unknown signal kind.
	ErrInvalidSignal = errors.InvalidArgument("unknown activity signal").WithCode("ErrInvalidSignal")
)

// Roster tells whether a participant is online.
type Roster interface {
	IsOnline(id types.ID) bool
}

// Config is the configuration of an Aggregator.
type Config struct {
	// IntentTTL is how long an intent lives after the last signal.
	IntentTTL time.Duration

	// EditingWindow is how long a keystroke keeps the participant editing.
	EditingWindow time.Duration

	// MaxEditors caps IntentSummary.Editors.
	MaxEditors int
}

type key struct {
	participant types.ID
	anchor      types.Anchor
}

type entry struct {
	lastSignal    time.Time
	lastKeystroke time.Time
}

// Aggregator keeps the last signals per participant and anchor. It is not
// safe for concurrent use.
type Aggregator struct {
	conf    Config
	roster  Roster
	entries map[key]*entry
}

// New creates a new Aggregator.
func New(roster Roster, conf Config) *Aggregator {
	return &Aggregator{
		conf:    conf,
		roster:  roster,
		entries: make(map[key]*entry),
	}
}

// RecordActivity records a signal of the participant on the anchor. The
// returned flag is true if a keystroke moved the participant into editing,
// which is when an edit activity is worth recording.
func (a *Aggregator) RecordActivity(
	id types.ID,
	anchor types.Anchor,
	kind types.SignalKind,
	now time.Time,
) (bool, error) {
	if !a.roster.IsOnline(id) {
		return false, ErrStale
	}

	k := key{participant: id, anchor: anchor}
	e, ok := a.entries[k]
	if !ok {
		e = &entry{}
	}
	wasEditing := a.stateOf(e, now) == types.IntentEditing

	switch kind {
	case types.SignalKeystroke:
		e.lastKeystroke = now
	case types.SignalFocus:
	case types.SignalIdle:
		e.lastKeystroke = time.Time{}
	default:
		return false, ErrInvalidSignal
	}
	e.lastSignal = now
	a.entries[k] = e

	return kind == types.SignalKeystroke && !wasEditing, nil
}

// stateOf returns the intent state of the entry, or "" if it expired.
func (a *Aggregator) stateOf(e *entry, now time.Time) types.IntentState {
	if e.lastSignal.IsZero() || now.Sub(e.lastSignal) > a.conf.IntentTTL {
		return ""
	}
	if !e.lastKeystroke.IsZero() && now.Sub(e.lastKeystroke) <= a.conf.EditingWindow {
		return types.IntentEditing
	}
	return types.IntentViewing
}

// ComputeIntents drops expired entries and returns the live intents ordered
// by anchor, then participant.
func (a *Aggregator) ComputeIntents(now time.Time) []types.EditIntent {
	var intents []types.EditIntent
	for k, e := range a.entries {
		state := a.stateOf(e, now)
		if state == "" {
			delete(a.entries, k)
			continue
		}
		intents = append(intents, types.EditIntent{
			ParticipantID: k.participant,
			Anchor:        k.anchor,
			State:         state,
			ObservedAt:    e.lastSignal,
		})
	}

	sort.Slice(intents, func(i, j int) bool {
		if intents[i].Anchor != intents[j].Anchor {
			return intents[i].Anchor < intents[j].Anchor
		}
		return intents[i].ParticipantID < intents[j].ParticipantID
	})
	return intents
}

type editor struct {
	id types.ID
	at time.Time
}

// Summarize counts the editors and viewers of the anchor. Editors holds the
// most recent editors first, capped by MaxEditors.
func (a *Aggregator) Summarize(anchor types.Anchor, now time.Time) types.IntentSummary {
	summary := types.IntentSummary{Anchor: anchor, Editors: []types.ID{}}
	recent := heap.NewTopK(a.conf.MaxEditors, func(x, y editor) bool {
		if !x.at.Equal(y.at) {
			return x.at.Before(y.at)
		}
		return x.id > y.id
	})

	for k, e := range a.entries {
		if k.anchor != anchor {
			continue
		}
		switch a.stateOf(e, now) {
		case types.IntentEditing:
			summary.EditingCount++
			recent.Offer(editor{id: k.participant, at: e.lastKeystroke})
		case types.IntentViewing:
			summary.ViewingCount++
		}
	}

	for _, e := range recent.Sorted() {
		summary.Editors = append(summary.Editors, e.id)
	}
	return summary
}

// Purge drops every entry of the participant and returns the anchors it had
// entries on, ordered.
func (a *Aggregator) Purge(id types.ID) []types.Anchor {
	var anchors []types.Anchor
	for k := range a.entries {
		if k.participant == id {
			delete(a.entries, k)
			anchors = append(anchors, k.anchor)
		}
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i] < anchors[j] })
	return anchors
}

// Anchors returns the anchors that have at least one entry, ordered.
func (a *Aggregator) Anchors() []types.Anchor {
	seen := make(map[types.Anchor]struct{})
	var anchors []types.Anchor
	for k := range a.entries {
		if _, ok := seen[k.anchor]; ok {
			continue
		}
		seen[k.anchor] = struct{}{}
		anchors = append(anchors, k.anchor)
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i] < anchors[j] })
	return anchors
}
