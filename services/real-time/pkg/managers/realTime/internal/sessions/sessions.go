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

package sessions

import (
	"context"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/pendingOperation"
	"github.com/das7pad/collab-text/services/real-time/pkg/types"
)

// Subscriber manages the interest of this process in commits of a doc.
type Subscriber interface {
	Subscribe(ctx context.Context, docId primitive.ObjectID) error
	Unsubscribe(ctx context.Context, docId primitive.ObjectID) error
}

type Registry interface {
	// Join adds the client to the session of its doc. The first client of
	// a session subscribes to the commits of the doc.
	Join(ctx context.Context, client *types.Client) error

	// Leave removes the client. The last client of a session unsubscribes.
	Leave(client *types.Client) error

	Clients(docId primitive.ObjectID) types.Clients
	All() types.Clients
	CountSessions() int
}

func New(ctx context.Context, s Subscriber) Registry {
	r := &registry{
		s:        s,
		queue:    make(chan action),
		sessions: make(map[primitive.ObjectID]*session),
	}
	go r.processQueue(ctx)
	return r
}

type registry struct {
	s Subscriber

	queue    chan action
	mu       sync.RWMutex
	sessions map[primitive.ObjectID]*session
}

type session struct {
	clients atomic.Pointer[types.Clients]

	pendingSubscribe   pendingOperation.WithCancel
	pendingUnsubscribe pendingOperation.WithCancel
}

var noClients = make(types.Clients, 0)

func newSession() *session {
	s := &session{}
	s.clients.Store(&noClients)
	return s
}

func (s *session) Clients() types.Clients {
	return *s.clients.Load()
}

func (s *session) isEmpty() bool {
	return len(s.Clients()) == 0
}

func (s *session) add(client *types.Client) {
	clients := s.Clients()
	if clients.Index(client) != -1 {
		return
	}
	n := len(clients)
	f := make(types.Clients, n+1)
	copy(f, clients)
	f[n] = client
	s.clients.Store(&f)
}

func (s *session) remove(client *types.Client) {
	clients := s.Clients()
	idx := clients.Index(client)
	if idx == -1 {
		return
	}
	n := len(clients)
	if n == 1 {
		s.clients.Store(&noClients)
		return
	}
	f := make(types.Clients, n-1)
	copy(f, clients[:idx])
	copy(f[idx:], clients[idx+1:])
	s.clients.Store(&f)
}

type operation int

const (
	cleanup operation = iota
	join
	leave
)

type onDone chan pendingOperation.PendingOperation

type action struct {
	operation operation
	id        primitive.ObjectID
	ctx       context.Context
	client    *types.Client
	onDone    onDone
}

func (r *registry) processQueue(ctx context.Context) {
	done := ctx.Done()
	for {
		select {
		case <-done:
			return
		case a := <-r.queue:
			switch a.operation {
			case cleanup:
				r.cleanup(a.id)
			case join:
				a.onDone <- r.join(a)
			case leave:
				a.onDone <- r.leave(a)
			}
		}
	}
}

func (r *registry) cleanup(id primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[id]
	if !exists || !s.isEmpty() {
		return
	}
	if s.pendingSubscribe != nil && s.pendingSubscribe.IsPending() {
		return
	}
	delete(r.sessions, id)
}

func (r *registry) join(a action) pendingOperation.PendingOperation {
	// Only the queue goroutine writes, reading without lock is fine.
	s, exists := r.sessions[a.id]
	if !exists {
		s = newSession()
		r.mu.Lock()
		r.sessions[a.id] = s
		r.mu.Unlock()
	}

	wasEmpty := s.isEmpty()
	s.add(a.client)

	lastSubscribeFailed := s.pendingSubscribe != nil &&
		s.pendingSubscribe.Failed()
	if wasEmpty || lastSubscribeFailed {
		unsubscribe := s.pendingUnsubscribe
		s.pendingSubscribe = pendingOperation.TrackOperationWithCancel(
			a.ctx,
			func(ctx context.Context) error {
				if unsubscribe != nil && unsubscribe.IsPending() {
					unsubscribe.Cancel()
					_ = unsubscribe.Wait(ctx)
				}
				return r.s.Subscribe(ctx, a.id)
			},
		)
	}
	return s.pendingSubscribe
}

func (r *registry) leave(a action) pendingOperation.PendingOperation {
	s, exists := r.sessions[a.id]
	if !exists {
		return nil
	}
	s.remove(a.client)
	if !s.isEmpty() {
		return nil
	}

	subscribe := s.pendingSubscribe
	s.pendingUnsubscribe = pendingOperation.TrackOperationWithCancel(
		a.ctx,
		func(ctx context.Context) error {
			if subscribe != nil && subscribe.IsPending() {
				subscribe.Cancel()
				_ = subscribe.Wait(ctx)
			}
			err := r.s.Unsubscribe(ctx, a.id)
			go r.queueCleanup(a.id)
			return err
		},
	)
	return s.pendingUnsubscribe
}

func (r *registry) queueCleanup(id primitive.ObjectID) {
	r.queue <- action{operation: cleanup, id: id}
}

func (r *registry) Join(ctx context.Context, client *types.Client) error {
	return r.doJoinLeave(ctx, client, join)
}

func (r *registry) Leave(client *types.Client) error {
	return r.doJoinLeave(context.Background(), client, leave)
}

func (r *registry) doJoinLeave(ctx context.Context, client *types.Client, target operation) error {
	done := make(onDone)
	defer close(done)
	r.queue <- action{
		operation: target,
		id:        client.DocId,
		ctx:       ctx,
		client:    client,
		onDone:    done,
	}
	select {
	case <-ctx.Done():
		<-done
		return ctx.Err()
	case pending := <-done:
		if pending == nil {
			return nil
		}
		return pending.Wait(ctx)
	}
}

func (r *registry) Clients(id primitive.ObjectID) types.Clients {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, exists := r.sessions[id]
	if !exists {
		return noClients
	}
	return s.Clients()
}

func (r *registry) All() types.Clients {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make(types.Clients, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s.Clients()...)
	}
	return all
}

func (r *registry) CountSessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
