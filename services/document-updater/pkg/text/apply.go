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

package text

import (
	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

// Apply returns the new content and the applied op. The applied op of a
// Delete retains the removed text. The given snapshot is not modified.
func Apply(snapshot sharedTypes.Snapshot, op sharedTypes.Op) (sharedTypes.Snapshot, sharedTypes.Op, error) {
	n := len(snapshot)
	if op.Position < 0 || op.Position > n {
		return nil, op, &errors.InvalidPositionError{
			Position: op.Position,
			Length:   n,
		}
	}
	switch op.Kind {
	case sharedTypes.Insert:
		return Inject(snapshot, op.Position, op.Text), op, nil
	case sharedTypes.Delete:
		if op.Length < 0 || op.End() > n {
			return nil, op, &errors.InvalidLengthError{
				Position: op.Position,
				Length:   op.Length,
				Content:  n,
			}
		}
		removed := snapshot.Slice(op.Position, op.End())
		if len(op.Text) != 0 && string(op.Text) != string(removed) {
			return nil, op, &errors.ValidationError{
				Msg: "delete '" + string(op.Text) +
					"' does not match deleted text '" + string(removed) + "'",
			}
		}
		op.Text = make(sharedTypes.Snippet, len(removed))
		copy(op.Text, removed)
		return Cut(snapshot, op.Position, op.End()), op, nil
	default:
		return nil, op, &errors.ValidationError{
			Msg: "unknown op type: " + string(op.Kind),
		}
	}
}

// Clamp shortens a Delete that reaches past the end of the content.
func Clamp(op sharedTypes.Op, n int) sharedTypes.Op {
	if !op.IsDeletion() || op.Position > n || op.End() <= n {
		return op
	}
	op.Length = n - op.Position
	op.Text = nil
	return op
}
