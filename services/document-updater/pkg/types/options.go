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
	"os"
	"time"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/options/env"
)

type Options struct {
	// CommitAttempts bounds the re-reads after losing a version race.
	CommitAttempts int `json:"commit_attempts"`

	Store struct {
		Timeout    time.Duration `json:"timeout"`
		MaxRetries uint64        `json:"max_retries"`
	} `json:"store"`
}

func (o *Options) FillFromEnv() {
	o.CommitAttempts = 5
	o.Store.Timeout = 5 * time.Second
	o.Store.MaxRetries = 3
	if os.Getenv("DOCUMENT_UPDATER_OPTIONS") != "" {
		env.MustParseJSON(o, "DOCUMENT_UPDATER_OPTIONS")
	}
}

func (o *Options) Validate() error {
	if o.CommitAttempts <= 0 {
		return &errors.ValidationError{
			Msg: "commit_attempts must be greater than 0",
		}
	}
	if o.Store.Timeout <= 0 {
		return &errors.ValidationError{
			Msg: "store.timeout must be greater than 0",
		}
	}
	return nil
}
