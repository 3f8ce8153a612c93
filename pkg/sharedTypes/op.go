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
	"github.com/das7pad/collab-text/pkg/errors"
)

type OpKind string

const (
	Insert OpKind = "insert"
	Delete OpKind = "delete"
)

// Op is a single edit on the linear code point sequence of a document.
// Text holds the inserted text, or the removed text once a Delete has been
// applied.
type Op struct {
	Kind     OpKind  `json:"type"`
	Position int     `json:"position"`
	Text     Snippet `json:"text,omitempty"`
	Length   int     `json:"length,omitempty"`
}

func NewInsert(position int, s string) Op {
	return Op{Kind: Insert, Position: position, Text: Snippet(s)}
}

func NewDelete(position, length int) Op {
	return Op{Kind: Delete, Position: position, Length: length}
}

func (o Op) IsInsertion() bool {
	return o.Kind == Insert
}

func (o Op) IsDeletion() bool {
	return o.Kind == Delete
}

// End returns the offset just past the range that the op covers in the
// content it applies to.
func (o Op) End() int {
	if o.IsDeletion() {
		return o.Position + o.Length
	}
	return o.Position
}

// HasRetainedText reports whether a Delete still knows what it removed.
func (o Op) HasRetainedText() bool {
	return o.IsDeletion() && len(o.Text) == o.Length
}

func (o Op) Validate() error {
	if o.Position < 0 {
		return &errors.ValidationError{Msg: "position must not be negative"}
	}
	switch o.Kind {
	case Insert:
		if len(o.Text) == 0 {
			return &errors.ValidationError{Msg: "insert without text"}
		}
		if o.Length != 0 {
			return &errors.ValidationError{Msg: "insert with length"}
		}
		if len(o.Text) > maxDocLength {
			return ErrDocIsTooLarge
		}
	case Delete:
		if o.Length <= 0 {
			return &errors.ValidationError{Msg: "delete length must be positive"}
		}
		if len(o.Text) != 0 && len(o.Text) != o.Length {
			return &errors.ValidationError{
				Msg: "delete text does not match length",
			}
		}
	default:
		return &errors.ValidationError{Msg: "unknown op type: " + string(o.Kind)}
	}
	return nil
}
