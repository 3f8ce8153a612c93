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

package types

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

// Marker updates the revert markers of an existing history entry.
// Zero values leave the stored marker untouched.
type Marker struct {
	Version    sharedTypes.Version
	RevertedBy *primitive.ObjectID
	RevertedIn sharedTypes.Version
	RedoneIn   sharedTypes.Version
}

type CommitRequest struct {
	Snapshot sharedTypes.Snapshot
	Entry    sharedTypes.HistoryEntry
	Marker   *Marker
}

// ExpectedVersion is the version the document must be at for the commit
// to go through.
func (c *CommitRequest) ExpectedVersion() sharedTypes.Version {
	return c.Entry.Version - 1
}

func (c *CommitRequest) Validate() error {
	if c.Entry.Version < 1 {
		return &errors.ValidationError{Msg: "entry version must be positive"}
	}
	if err := c.Entry.Op.Validate(); err != nil {
		return errors.Tag(err, "entry")
	}
	if err := c.Snapshot.Validate(); err != nil {
		return err
	}
	if m := c.Marker; m != nil {
		if m.Version < 1 || m.Version >= c.Entry.Version {
			return &errors.ValidationError{
				Msg: "marker must target an existing entry",
			}
		}
	}
	return nil
}

func (m *Marker) ApplyTo(e *sharedTypes.HistoryEntry) {
	if m.RevertedBy != nil {
		id := *m.RevertedBy
		e.RevertedBy = &id
	}
	if m.RevertedIn != 0 {
		e.RevertedIn = m.RevertedIn
	}
	if m.RedoneIn != 0 {
		e.RedoneIn = m.RedoneIn
	}
}
