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

package historyManager

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/document-updater/pkg/text"
)

// Plan describes the entry that an undo or redo appends.
type Plan struct {
	// Op applies to the latest snapshot.
	Op     sharedTypes.Op
	Origin sharedTypes.Origin
	// Target is the entry that gets marked as reverted or redone.
	Target sharedTypes.Version
}

// FindUndoable returns the entries of the user that have not been
// reverted yet, most recent first.
func FindUndoable(h sharedTypes.History, userId primitive.ObjectID) []*sharedTypes.HistoryEntry {
	var out []*sharedTypes.HistoryEntry
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].UserId == userId && !h[i].IsReverted() {
			out = append(out, &h[i])
		}
	}
	return out
}

// FindRedoable returns the entries that the user reverted and that have
// not been redone yet, most recent first. An own edit after the undo
// discards it.
func FindRedoable(h sharedTypes.History, userId primitive.ObjectID) []*sharedTypes.HistoryEntry {
	var lastEdit sharedTypes.Version
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].UserId == userId && h[i].Origin == sharedTypes.Edit {
			lastEdit = h[i].Version
			break
		}
	}
	var out []*sharedTypes.HistoryEntry
	for i := len(h) - 1; i >= 0; i-- {
		e := &h[i]
		if !e.IsReverted() || *e.RevertedBy != userId || e.RedoneIn != 0 {
			continue
		}
		if e.RevertedIn < lastEdit {
			continue
		}
		out = append(out, e)
	}
	return out
}

// isVoid reports whether op has nothing left to do on a snapshot of
// length n, e.g. the inverse of an insert that others deleted already.
func isVoid(op sharedTypes.Op, n int) bool {
	op = text.Clamp(op, n)
	return op.IsDeletion() && op.Length == 0
}

// Rebase moves op past all the entries that were committed after v.
func Rebase(h sharedTypes.History, op sharedTypes.Op, v sharedTypes.Version) sharedTypes.Op {
	later := h.Since(v)
	if len(later) == 0 {
		return op
	}
	op = text.Transform(op, later.Ops())
	if op.IsDeletion() {
		// The range may cover other text now, Apply fills it in again.
		op.Text = nil
	}
	return op
}

// PlanUndo reverts the most recent own entry that still has an effect on
// a snapshot of length n. Entries that others undid entirely are passed
// over.
func PlanUndo(h sharedTypes.History, userId primitive.ObjectID, n int) (*Plan, error) {
	for _, target := range FindUndoable(h, userId) {
		inverse, err := text.Invert(target.Op)
		if err != nil {
			return nil, err
		}
		op := Rebase(h, inverse, target.Version)
		if isVoid(op, n) {
			continue
		}
		return &Plan{
			Op:     op,
			Origin: sharedTypes.Undo,
			Target: target.Version,
		}, nil
	}
	return nil, &errors.NoOperationToUndoError{}
}

func PlanRedo(h sharedTypes.History, userId primitive.ObjectID, n int) (*Plan, error) {
	for _, target := range FindRedoable(h, userId) {
		// Redo reverts the undo entry.
		undo := h.At(target.RevertedIn)
		if undo == nil {
			return nil, &errors.CannotUndoError{
				Msg: "undo of v" + target.Version.String() + " is missing",
			}
		}
		inverse, err := text.Invert(undo.Op)
		if err != nil {
			return nil, err
		}
		op := Rebase(h, inverse, undo.Version)
		if isVoid(op, n) {
			continue
		}
		return &Plan{
			Op:     op,
			Origin: sharedTypes.Redo,
			Target: target.Version,
		}, nil
	}
	return nil, &errors.NoOperationToRedoError{}
}
