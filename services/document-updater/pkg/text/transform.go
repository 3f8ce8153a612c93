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
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

// Transform adjusts op for the given operations, which have been committed
// concurrently and are ordered by their resulting version.
func Transform(op sharedTypes.Op, concurrent []sharedTypes.Op) sharedTypes.Op {
	for _, other := range concurrent {
		op = TransformPair(op, other)
	}
	return op
}

// TransformPair adjusts op for the already applied other op.
// Inserts at the same position keep their place, the op that has been
// applied first ends up on the right.
func TransformPair(op, other sharedTypes.Op) sharedTypes.Op {
	if op.IsInsertion() {
		if op.Position <= other.Position {
			return op
		}
		if other.IsInsertion() {
			op.Position += len(other.Text)
			return op
		}
		op.Position -= other.Length
		if op.Position < other.Position {
			op.Position = other.Position
		}
		return op
	}

	if other.IsInsertion() {
		if op.End() <= other.Position {
			return op
		}
		op.Position += len(other.Text)
		return op
	}

	if op.Position >= other.End() {
		op.Position -= other.Length
		return op
	}
	if op.End() <= other.Position {
		return op
	}
	// Overlapping deletes collapse into a single delete over their union.
	start := min(op.Position, other.Position)
	end := max(op.End(), other.End())
	op.Position = start
	op.Length = end - start
	op.Text = nil
	return op
}
