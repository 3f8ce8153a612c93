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

package documentUpdater

import (
	"context"

	"github.com/cenkalti/backoff"

	"github.com/das7pad/collab-text/pkg/errors"
)

func isPermanent(err error) bool {
	if errors.IsUserFacingError(err) || errors.IsCommitConflictError(err) {
		return true
	}
	return err == context.Canceled
}

// once runs fn with the per-attempt timeout.
func (m *manager) once(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, done := context.WithTimeout(ctx, m.o.Store.Timeout)
	defer done()
	return fn(ctx)
}

// retry runs fn until it succeeds, fails permanently or runs out of
// attempts. Only idempotent calls may go through here.
func (m *manager) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(), m.o.Store.MaxRetries,
		),
		ctx,
	)
	return backoff.Retry(func() error {
		err := m.once(ctx, fn)
		if err != nil && isPermanent(errors.GetCause(err)) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
