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

package presence

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
)

// Store keeps the last heartbeat per user and doc.
type Store interface {
	Upsert(ctx context.Context, docId, userId primitive.ObjectID, t time.Time, ttl time.Duration) error
	RangeByTime(ctx context.Context, docId primitive.ObjectID, min time.Time) ([]primitive.ObjectID, error)
	Remove(ctx context.Context, docId, userId primitive.ObjectID) error
}

type Tracker interface {
	Heartbeat(ctx context.Context, docId, userId primitive.ObjectID) error

	// ActiveUsers returns the users with a heartbeat within the ttl.
	ActiveUsers(ctx context.Context, docId primitive.ObjectID) ([]primitive.ObjectID, error)

	RemoveUser(ctx context.Context, docId, userId primitive.ObjectID) error
}

func New(s Store, ttl time.Duration) Tracker {
	return &tracker{s: s, ttl: ttl, now: time.Now}
}

type tracker struct {
	s   Store
	ttl time.Duration
	now func() time.Time
}

func (t *tracker) Heartbeat(ctx context.Context, docId, userId primitive.ObjectID) error {
	if err := t.s.Upsert(ctx, docId, userId, t.now(), t.ttl); err != nil {
		return errors.Tag(err, "upsert presence")
	}
	return nil
}

func (t *tracker) ActiveUsers(ctx context.Context, docId primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids, err := t.s.RangeByTime(ctx, docId, t.now().Add(-t.ttl))
	if err != nil {
		return nil, errors.Tag(err, "get active users")
	}
	return ids, nil
}

func (t *tracker) RemoveUser(ctx context.Context, docId, userId primitive.ObjectID) error {
	if err := t.s.Remove(ctx, docId, userId); err != nil {
		return errors.Tag(err, "remove presence")
	}
	return nil
}
