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

func Inject(s1 sharedTypes.Snapshot, position int, s2 sharedTypes.Snippet) sharedTypes.Snapshot {
	s := make(sharedTypes.Snapshot, len(s1)+len(s2))
	copy(s, s1[:position])
	copy(s[position:], s2)
	copy(s[position+len(s2):], s1[position:])
	return s
}

func Cut(s1 sharedTypes.Snapshot, start, end int) sharedTypes.Snapshot {
	s := make(sharedTypes.Snapshot, len(s1)-(end-start))
	copy(s, s1[:start])
	copy(s[start:], s1[end:])
	return s
}
