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

package redisLocker

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
)

// NewLocal returns a Locker for single process deployments.
func NewLocal() Locker {
	return &localLocker{
		locks: make(map[primitive.ObjectID]*localLock),
	}
}

type localLock struct {
	c       chan struct{}
	waiters int
}

type localLocker struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*localLock
}

func (l *localLocker) acquire(docId primitive.ObjectID) *localLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[docId]
	if !ok {
		lock = &localLock{c: make(chan struct{}, 1)}
		l.locks[docId] = lock
	}
	lock.waiters++
	return lock
}

func (l *localLocker) release(docId primitive.ObjectID, lock *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.waiters--
	if lock.waiters == 0 {
		delete(l.locks, docId)
	}
}

func (l *localLocker) RunWithLock(ctx context.Context, docId primitive.ObjectID, runner Runner) error {
	lock := l.acquire(docId)
	defer l.release(docId, lock)

	waitCtx, done := context.WithTimeout(ctx, MaxLockWaitTime)
	defer done()
	select {
	case lock.c <- struct{}{}:
	case <-waitCtx.Done():
		return errors.Tag(waitCtx.Err(), "wait for lock")
	}
	defer func() { <-lock.c }()

	workCtx, workDone := context.WithTimeout(ctx, LockTTL)
	defer workDone()
	return runner(workCtx)
}
