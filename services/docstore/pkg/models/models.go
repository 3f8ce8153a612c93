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

package models

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

type DocIdField struct {
	Id primitive.ObjectID `bson:"_id"`
}

type DocContentField struct {
	Content string `bson:"content"`
}

type DocVersionField struct {
	Version sharedTypes.Version `bson:"version"`
}

type DocMembersField struct {
	CreatedBy     primitive.ObjectID   `bson:"createdBy"`
	Collaborators []primitive.ObjectID `bson:"collaborators"`
}

type DocHistoryField struct {
	History []HistoryEntry `bson:"history"`
}

type DocMarkersField struct {
	Markers map[string]Marker `bson:"markers,omitempty"`
}

type DocMembers struct {
	DocIdField      `bson:"inline"`
	DocMembersField `bson:"inline"`
}

type Doc struct {
	DocIdField      `bson:"inline"`
	DocContentField `bson:"inline"`
	DocVersionField `bson:"inline"`
	DocMembersField `bson:"inline"`
	DocHistoryField `bson:"inline"`
	DocMarkersField `bson:"inline"`
}

type HistoryEntry struct {
	Type      sharedTypes.OpKind  `bson:"type"`
	Position  int                 `bson:"position"`
	Text      string              `bson:"text,omitempty"`
	Length    int                 `bson:"length,omitempty"`
	Version   sharedTypes.Version `bson:"version"`
	Timestamp time.Time           `bson:"timestamp"`
	User      primitive.ObjectID  `bson:"user"`
	Origin    sharedTypes.Origin  `bson:"origin,omitempty"`
	Reverts   sharedTypes.Version `bson:"reverts,omitempty"`
}

// Marker holds the annotations of a history entry. They live next to the
// history array, so that an entry can be annotated in the same update that
// pushes a new entry.
type Marker struct {
	RevertedBy *primitive.ObjectID `bson:"revertedBy,omitempty"`
	RevertedIn sharedTypes.Version `bson:"revertedIn,omitempty"`
	RedoneIn   sharedTypes.Version `bson:"redoneIn,omitempty"`
}

func MarkerKey(v sharedTypes.Version) string {
	return strconv.FormatInt(int64(v), 10)
}

func NewHistoryEntry(e sharedTypes.HistoryEntry) HistoryEntry {
	return HistoryEntry{
		Type:      e.Kind,
		Position:  e.Position,
		Text:      string(e.Text),
		Length:    e.Length,
		Version:   e.Version,
		Timestamp: e.Timestamp,
		User:      e.UserId,
		Origin:    e.Origin,
		Reverts:   e.Reverts,
	}
}

func (d *Doc) ToDoc() *sharedTypes.Doc {
	h := make(sharedTypes.History, len(d.History))
	for i, e := range d.History {
		h[i] = sharedTypes.HistoryEntry{
			Op: sharedTypes.Op{
				Kind:     e.Type,
				Position: e.Position,
				Length:   e.Length,
			},
			Version:   e.Version,
			Timestamp: e.Timestamp,
			UserId:    e.User,
			Origin:    e.Origin,
			Reverts:   e.Reverts,
		}
		if e.Text != "" {
			h[i].Text = sharedTypes.Snippet(e.Text)
		}
		if m, ok := d.Markers[MarkerKey(e.Version)]; ok {
			h[i].RevertedBy = m.RevertedBy
			h[i].RevertedIn = m.RevertedIn
			h[i].RedoneIn = m.RedoneIn
		}
	}
	collaborators := d.Collaborators
	if collaborators == nil {
		collaborators = make([]primitive.ObjectID, 0)
	}
	return &sharedTypes.Doc{
		Id:            d.Id,
		Snapshot:      sharedTypes.Snapshot(d.Content),
		Version:       d.Version,
		History:       h,
		CreatedBy:     d.CreatedBy,
		Collaborators: collaborators,
	}
}
