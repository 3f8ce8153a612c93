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
	"strconv"

	"github.com/das7pad/collab-text/pkg/errors"
)

// Version counts the entries committed to a document.
type Version int64

func (v Version) String() string {
	return strconv.FormatInt(int64(v), 10)
}

func (v Version) CheckNotAhead(current Version) error {
	if v < 0 {
		return &errors.ValidationError{Msg: "version must not be negative"}
	}
	if v > current {
		return &errors.ValidationError{
			Msg: "version " + v.String() + " is ahead of " + current.String(),
		}
	}
	return nil
}
