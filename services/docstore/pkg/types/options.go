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
	"github.com/das7pad/collab-text/pkg/errors"
)

type Backend string

const (
	Mongo    Backend = "mongo"
	Postgres Backend = "postgres"
	Memory   Backend = "memory"
)

type Options struct {
	Backend Backend `json:"backend"`
}

func (o Options) Validate() error {
	switch o.Backend {
	case Mongo, Postgres, Memory:
		return nil
	default:
		return &errors.ValidationError{
			Msg: "backend must be one of mongo, postgres or memory",
		}
	}
}
