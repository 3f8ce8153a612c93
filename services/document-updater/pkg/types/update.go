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

type DocumentUpdateMeta struct {
	Source sharedTypes.PublicId `json:"source,omitempty"`
	UserId primitive.ObjectID   `json:"user_id"`
}

func (m *DocumentUpdateMeta) Validate() error {
	if m.UserId.IsZero() {
		return &errors.ValidationError{Msg: "missing user_id"}
	}
	return nil
}

// DocumentUpdate is an edit that was created on top of Version.
type DocumentUpdate struct {
	Op      sharedTypes.Op      `json:"op"`
	Version sharedTypes.Version `json:"v"`
	Meta    DocumentUpdateMeta  `json:"meta"`
}

func (d *DocumentUpdate) Validate() error {
	if err := d.Meta.Validate(); err != nil {
		return err
	}
	if d.Version < 0 {
		return &errors.ValidationError{Msg: "version must not be negative"}
	}
	return d.Op.Validate()
}

type CommitResult struct {
	Entry sharedTypes.HistoryEntry
	// Noop is set for updates that did not change the content, e.g. a
	// delete whose range was removed concurrently. Nothing was committed.
	Noop bool
}
