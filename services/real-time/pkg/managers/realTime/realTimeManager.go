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

package realTime

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/appliedOps"
	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/jwt/userIdJWT"
	"github.com/das7pad/collab-text/pkg/pendingOperation"
	"github.com/das7pad/collab-text/services/document-updater/pkg/managers/documentUpdater"
	documentUpdaterTypes "github.com/das7pad/collab-text/services/document-updater/pkg/types"
	"github.com/das7pad/collab-text/services/real-time/pkg/events"
	"github.com/das7pad/collab-text/services/real-time/pkg/managers/realTime/internal/presence"
	"github.com/das7pad/collab-text/services/real-time/pkg/managers/realTime/internal/sessions"
	"github.com/das7pad/collab-text/services/real-time/pkg/types"
)

type Manager interface {
	InitiateGracefulShutdown()
	TriggerGracefulReconnect()
	IsShuttingDown() bool

	// Connect authenticates the user, syncs the doc and joins its session.
	// On failure the write queue is closed after queueing the rejection.
	Connect(ctx context.Context, token string, docId primitive.ObjectID, writeQueue chan<- types.WriteQueueEntry) (*types.Client, error)

	// HandleMessage processes one inbound message. It returns false when
	// the connection should be closed.
	HandleMessage(client *types.Client, blob []byte) bool

	Disconnect(client *types.Client)
}

// New wires the manager. Presence is kept in redis, or in memory when no
// redis client is given.
func New(ctx context.Context, options *types.Options, dum documentUpdater.Manager, bus appliedOps.Bus, rClient redis.UniversalClient, v userIdJWT.Verifier) (Manager, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	var ps presence.Store
	if rClient != nil {
		ps = presence.NewRedisStore(rClient)
	} else {
		ps = presence.NewMemoryStore()
	}
	m := &manager{
		dum:        dum,
		verifier:   v,
		presence:   presence.New(ps, options.Presence.TTL),
		sessions:   sessions.New(ctx, bus),
		tokenCache: expirable.NewLRU[string, primitive.ObjectID](options.AuthCache.Size, nil, options.AuthCache.TTL),
		heartbeats: make(map[*types.Client]pendingOperation.WithCancel),

		commitTimeout:           options.CommitTimeout,
		heartbeatInterval:       options.Presence.HeartbeatInterval,
		gracefulShutdownDelay:   options.GracefulShutdown.Delay,
		gracefulShutdownTimeout: options.GracefulShutdown.Timeout,
	}
	if err := bus.Listen(ctx, m.handleCommit); err != nil {
		return nil, errors.Tag(err, "listen for commits")
	}
	return m, nil
}

type manager struct {
	shuttingDown atomic.Bool

	dum        documentUpdater.Manager
	verifier   userIdJWT.Verifier
	presence   presence.Tracker
	sessions   sessions.Registry
	tokenCache *expirable.LRU[string, primitive.ObjectID]

	heartbeatsMu sync.Mutex
	heartbeats   map[*types.Client]pendingOperation.WithCancel

	commitTimeout           time.Duration
	heartbeatInterval       time.Duration
	gracefulShutdownDelay   time.Duration
	gracefulShutdownTimeout time.Duration
}

func (m *manager) IsShuttingDown() bool {
	return m.shuttingDown.Load()
}

func (m *manager) InitiateGracefulShutdown() {
	// Start returning 503s on /status
	m.shuttingDown.Store(true)

	// Wait for the LB to pick up the 503 and stop sending new traffic to us.
	time.Sleep(m.gracefulShutdownDelay)
}

func (m *manager) TriggerGracefulReconnect() {
	for _, client := range m.sessions.All() {
		client.EnsureQueueMessage(events.ServerShutdown)
	}
	deadLine := time.Now().Add(m.gracefulShutdownTimeout)
	for m.sessions.CountSessions() > 0 && time.Now().Before(deadLine) {
		time.Sleep(100 * time.Millisecond)
	}
}

func (m *manager) verify(ctx context.Context, token string) (primitive.ObjectID, error) {
	if userId, ok := m.tokenCache.Get(token); ok {
		return userId, nil
	}
	userId, err := m.verifier.Verify(ctx, token)
	if err != nil {
		return primitive.NilObjectID, err
	}
	m.tokenCache.Add(token, userId)
	return userId, nil
}

func (m *manager) Connect(ctx context.Context, token string, docId primitive.ObjectID, writeQueue chan<- types.WriteQueueEntry) (*types.Client, error) {
	client, err := types.NewClient(primitive.NilObjectID, docId, writeQueue)
	if err != nil {
		writeQueue <- events.ConnectionRejectedRetry
		close(writeQueue)
		return nil, err
	}
	if err = m.connect(ctx, client, token); err != nil {
		client.EnsureQueueMessage(events.ConnectionRejected(err))
		client.CloseWriteQueue()
		return nil, err
	}
	return client, nil
}

func (m *manager) connect(ctx context.Context, client *types.Client, token string) error {
	userId, err := m.verify(ctx, token)
	if err != nil {
		return err
	}
	client.UserId = userId
	if err = m.dum.Authorize(ctx, client.DocId, userId); err != nil {
		return err
	}

	client.QueueMessage(&types.ConnectedMessage{
		Type:   types.Connected,
		DocId:  client.DocId,
		UserId: client.UserId,
	})

	client.StartSync()
	if err = m.sessions.Join(ctx, client); err != nil {
		m.leave(client)
		return errors.Tag(err, "join session")
	}
	if err = m.sync(ctx, client); err != nil {
		m.leave(client)
		return err
	}

	m.startHeartbeat(client)
	m.broadcastPresence(client, types.Online)
	activeConnections.Inc()
	return nil
}

func (m *manager) sync(ctx context.Context, client *types.Client) error {
	doc, err := m.dum.GetDoc(ctx, client.DocId)
	if err != nil {
		return err
	}
	entry, err := types.PrepareMessage(&types.DocumentSyncMessage{
		Type:    types.DocumentSync,
		Content: doc.Snapshot,
		Version: doc.Version,
		History: doc.History,
	})
	if err != nil {
		return err
	}
	if !client.FinishSync(doc.Version, entry) {
		return &errors.InvalidStateError{Msg: "client went away"}
	}
	return nil
}

func (m *manager) startHeartbeat(client *types.Client) {
	hb := pendingOperation.TrackOperationWithCancel(
		context.Background(),
		func(ctx context.Context) error {
			t := time.NewTicker(m.heartbeatInterval)
			defer t.Stop()
			for {
				m.refreshPresence(ctx, client)
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
				}
			}
		},
	)
	m.heartbeatsMu.Lock()
	m.heartbeats[client] = hb
	m.heartbeatsMu.Unlock()
}

func (m *manager) stopHeartbeat(client *types.Client) {
	m.heartbeatsMu.Lock()
	hb, ok := m.heartbeats[client]
	delete(m.heartbeats, client)
	m.heartbeatsMu.Unlock()
	if ok {
		hb.Cancel()
		<-hb.Done()
	}
}

func (m *manager) refreshPresence(ctx context.Context, client *types.Client) {
	ctx, done := context.WithTimeout(ctx, 5*time.Second)
	defer done()
	err := m.presence.Heartbeat(ctx, client.DocId, client.UserId)
	if err == nil {
		var ids []primitive.ObjectID
		if ids, err = m.presence.ActiveUsers(ctx, client.DocId); err == nil {
			client.QueueMessage(&types.PresenceDataMessage{
				Type:          types.PresenceData,
				Collaborators: ids,
			})
			return
		}
	}
	if ctx.Err() == context.Canceled {
		return
	}
	log.Printf(
		"user=%s doc=%s action=presence err=%s",
		client.UserId.Hex(), client.DocId.Hex(), err.Error(),
	)
}

func (m *manager) broadcastPresence(client *types.Client, status types.PresenceStatus) {
	msg := types.NewPresenceUpdateMessage(client.UserId, status, time.Now())
	entry, err := types.PrepareMessage(msg)
	if err != nil {
		return
	}
	for _, other := range m.sessions.Clients(client.DocId) {
		if other == client {
			continue
		}
		other.EnsureQueueMessage(entry)
	}
}

func (m *manager) HandleMessage(client *types.Client, blob []byte) bool {
	r, err := types.ParseRequest(blob)
	if err == nil {
		err = m.handleRequest(client, r)
	}
	if err == nil {
		return true
	}

	action := "parse"
	if r != nil {
		action = string(r.RequestType())
	}
	log.Printf(
		"user=%s doc=%s action=%s err=%s",
		client.UserId.Hex(), client.DocId.Hex(), action, err.Error(),
	)
	if errors.IsNotFoundError(err) {
		client.EnsureQueueMessage(events.ConnectionRejectedDocNotFound)
		return false
	}
	return client.EnsureQueueMessage(
		events.ErrorMessage(events.ErrorCodeFor(err)),
	)
}

func (m *manager) handleRequest(client *types.Client, r types.Request) error {
	// Commits outlive the connection.
	ctx, done := context.WithTimeout(context.Background(), m.commitTimeout)
	defer done()

	meta := documentUpdaterTypes.DocumentUpdateMeta{
		Source: client.PublicId,
		UserId: client.UserId,
	}
	var res *documentUpdaterTypes.CommitResult
	var err error
	switch req := r.(type) {
	case *types.EditRequest:
		res, err = m.dum.ApplyUpdate(
			ctx, client.DocId, documentUpdaterTypes.DocumentUpdate{
				Op:      req.Op,
				Version: req.BaseVersion,
				Meta:    meta,
			},
		)
	case *types.UndoRequest:
		res, err = m.dum.Undo(ctx, client.DocId, meta)
	case *types.RedoRequest:
		res, err = m.dum.Redo(ctx, client.DocId, meta)
	default:
		return &errors.ValidationError{Msg: "unexpected request"}
	}
	if err != nil {
		return err
	}
	if res.Noop {
		// Nothing was published, ack directly.
		client.QueueMessage(&types.AckMessage{
			Type:    types.Ack,
			Version: res.Entry.Version,
		})
	}
	return nil
}

// handleCommit fans out a commit to the session of the doc. Commits of a
// doc arrive in commit order.
func (m *manager) handleCommit(c *appliedOps.Commit) {
	clients := m.sessions.Clients(c.DocId)
	if len(clients) == 0 {
		return
	}
	var textOp types.WriteQueueEntry
	for _, client := range clients {
		if client.PublicId == c.Source {
			op := c.Entry.Op
			client.QueueOp(c.Entry.Version, types.MustPrepareMessage(
				&types.AckMessage{
					Type:      types.Ack,
					Version:   c.Entry.Version,
					Operation: &op,
				},
			))
			continue
		}
		if textOp.Msg == nil {
			textOp = types.MustPrepareMessage(
				types.NewTextOperationMessage(&c.Entry),
			)
		}
		client.QueueOp(c.Entry.Version, textOp)
	}
}

func (m *manager) leave(client *types.Client) {
	if err := m.sessions.Leave(client); err != nil {
		log.Printf(
			"user=%s doc=%s action=leave err=%s",
			client.UserId.Hex(), client.DocId.Hex(), err.Error(),
		)
	}
}

func (m *manager) Disconnect(client *types.Client) {
	activeConnections.Dec()
	m.stopHeartbeat(client)
	m.leave(client)

	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := m.presence.RemoveUser(ctx, client.DocId, client.UserId); err != nil {
		log.Printf(
			"user=%s doc=%s action=remove-presence err=%s",
			client.UserId.Hex(), client.DocId.Hex(), err.Error(),
		)
	}
	m.broadcastPresence(client, types.Offline)
	client.CloseWriteQueue()
}
