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

package appliedOps

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/pubSub/channel"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

// Commit is a history entry that has been persisted for DocId.
type Commit struct {
	DocId primitive.ObjectID `json:"docId"`
	// Source is the connection that sent the op, if any.
	Source sharedTypes.PublicId     `json:"source,omitempty"`
	Entry  sharedTypes.HistoryEntry `json:"entry"`
}

func (c *Commit) ChannelId() primitive.ObjectID {
	return c.DocId
}

type Handler func(c *Commit)

type Publisher interface {
	Publish(ctx context.Context, c *Commit) error
}

type Bus interface {
	Publisher
	Subscribe(ctx context.Context, docId primitive.ObjectID) error
	Unsubscribe(ctx context.Context, docId primitive.ObjectID) error
	// Listen registers the handler for commits of subscribed documents.
	// Commits of one document are passed to the handler in publish order.
	Listen(ctx context.Context, h Handler) error
	Close()
}

// NewLocal returns a Bus that hands commits to the handler synchronously.
func NewLocal() Bus {
	return &localBus{}
}

type localBus struct {
	mu sync.RWMutex
	h  Handler
}

func (b *localBus) Publish(_ context.Context, c *Commit) error {
	b.mu.RLock()
	h := b.h
	b.mu.RUnlock()
	if h != nil {
		h(c)
	}
	return nil
}

func (b *localBus) Subscribe(context.Context, primitive.ObjectID) error {
	return nil
}

func (b *localBus) Unsubscribe(context.Context, primitive.ObjectID) error {
	return nil
}

func (b *localBus) Listen(_ context.Context, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.h = h
	return nil
}

func (b *localBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.h = nil
}

// NewRedis returns a Bus that relays commits between processes.
func NewRedis(client redis.UniversalClient) Bus {
	return &redisBus{c: channel.New(client, "applied-ops")}
}

type redisBus struct {
	c channel.Manager
}

func (b *redisBus) Publish(ctx context.Context, c *Commit) error {
	if err := b.c.Publish(ctx, c); err != nil {
		return errors.Tag(err, "publish commit")
	}
	return nil
}

func (b *redisBus) Subscribe(ctx context.Context, docId primitive.ObjectID) error {
	return b.c.Subscribe(ctx, docId)
}

func (b *redisBus) Unsubscribe(ctx context.Context, docId primitive.ObjectID) error {
	return b.c.Unsubscribe(ctx, docId)
}

func (b *redisBus) Listen(ctx context.Context, h Handler) error {
	c, err := b.c.Listen(ctx)
	if err != nil {
		return err
	}
	go func() {
		for msg := range c {
			if msg.Action != channel.IncomingMessage {
				continue
			}
			var commit Commit
			if err2 := json.Unmarshal([]byte(msg.Msg), &commit); err2 != nil {
				log.Printf(
					"doc=%s action=decode-commit err=%s",
					msg.Channel.Hex(), err2.Error(),
				)
				continue
			}
			h(&commit)
		}
	}()
	return nil
}

func (b *redisBus) Close() {
	b.c.Close()
}
