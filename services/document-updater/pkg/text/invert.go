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

var errNoRetainedText = &errors.CannotUndoError{
	Msg: "delete does not retain the removed text",
}

// Invert returns the op that reverts the applied op.
func Invert(op sharedTypes.Op) (sharedTypes.Op, error) {
	switch op.Kind {
	case sharedTypes.Insert:
		return sharedTypes.Op{
			Kind:     sharedTypes.Delete,
			Position: op.Position,
			Length:   len(op.Text),
		}, nil
	case sharedTypes.Delete:
		if !op.HasRetainedText() {
			return sharedTypes.Op{}, errNoRetainedText
		}
		s := make(sharedTypes.Snippet, len(op.Text))
		copy(s, op.Text)
		return sharedTypes.Op{
			Kind:     sharedTypes.Insert,
			Position: op.Position,
			Text:     s,
		}, nil
	default:
		return sharedTypes.Op{}, &errors.CannotUndoError{
			Msg: "unknown op type: " + string(op.Kind),
		}
	}
}
