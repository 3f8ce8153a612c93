// Golang port of Overleaf
// Copyright (C) 2021-2023 Jakob Ackermann <das7pad@outlook.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package sharedTypes

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Origin string

const (
	Edit Origin = "edit"
	Undo Origin = "undo"
	Redo Origin = "redo"
)

// HistoryEntry is an applied Op plus the version it produced.
// The Op is never changed after the commit, only the revert markers are
// filled in later.
type HistoryEntry struct {
	Op
	Version    Version             `json:"version"`
	Timestamp  time.Time           `json:"timestamp"`
	UserId     primitive.ObjectID  `json:"user"`
	RevertedBy *primitive.ObjectID `json:"revertedBy,omitempty"`

	Origin     Origin  `json:"origin,omitempty"`
	Reverts    Version `json:"reverts,omitempty"`
	RevertedIn Version `json:"-"`
	RedoneIn   Version `json:"-"`
}

func (e *HistoryEntry) IsReverted() bool {
	return e.RevertedBy != nil
}

type History []HistoryEntry

// Since returns the entries the holder of version v has not seen yet, in
// commit order.
func (h History) Since(v Version) History {
	if v < 0 {
		v = 0
	}
	for i, e := range h {
		if e.Version > v {
			return h[i:]
		}
	}
	return nil
}

// Ops strips the metadata.
func (h History) Ops() []Op {
	ops := make([]Op, len(h))
	for i, e := range h {
		ops[i] = e.Op
	}
	return ops
}

// At returns the entry that produced version v.
func (h History) At(v Version) *HistoryEntry {
	if v <= 0 || int(v) > len(h) || h[v-1].Version != v {
		for i := range h {
			if h[i].Version == v {
				return &h[i]
			}
		}
		return nil
	}
	return &h[v-1]
}

type Doc struct {
	Id            primitive.ObjectID   `json:"id"`
	Snapshot      Snapshot             `json:"content"`
	Version       Version              `json:"version"`
	History       History              `json:"history"`
	CreatedBy     primitive.ObjectID   `json:"createdBy"`
	Collaborators []primitive.ObjectID `json:"collaborators"`
}

func (d *Doc) IsMember(userId primitive.ObjectID) bool {
	if d.CreatedBy == userId {
		return true
	}
	for _, id := range d.Collaborators {
		if id == userId {
			return true
		}
	}
	return false
}
