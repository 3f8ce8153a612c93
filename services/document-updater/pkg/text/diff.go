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
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

var dmp = diffmatchpatch.New()

func init() {
	dmp.DiffTimeout = 100 * time.Millisecond
}

// Diff returns the ops that turn before into after when applied in order.
func Diff(before, after sharedTypes.Snapshot) []sharedTypes.Op {
	diffs := dmp.DiffMainRunes(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	ops := make([]sharedTypes.Op, 0, len(diffs))
	pos := 0
	for _, diff := range diffs {
		s := sharedTypes.Snippet(diff.Text)
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			ops = append(ops, sharedTypes.Op{
				Kind:     sharedTypes.Insert,
				Position: pos,
				Text:     s,
			})
			pos += len(s)
		case diffmatchpatch.DiffDelete:
			ops = append(ops, sharedTypes.Op{
				Kind:     sharedTypes.Delete,
				Position: pos,
				Length:   len(s),
				Text:     s,
			})
		case diffmatchpatch.DiffEqual:
			pos += len(s)
		}
	}
	return ops
}
