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
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

type Clients []*Client

func (c Clients) Index(other *Client) int {
	for i, client := range c {
		if client == other {
			return i
		}
	}
	return -1
}

func NewClient(userId, docId primitive.ObjectID, writeQueue chan<- WriteQueueEntry) (*Client, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Tag(err, "generate public id")
	}
	return &Client{
		PublicId:   sharedTypes.PublicId(id.String()),
		UserId:     userId,
		DocId:      docId,
		writeQueue: writeQueue,
	}, nil
}

type Client struct {
	PublicId sharedTypes.PublicId
	UserId   primitive.ObjectID
	DocId    primitive.ObjectID

	mu         sync.Mutex
	closed     bool
	syncing    bool
	deferred   []deferredMessage
	writeQueue chan<- WriteQueueEntry
}

type deferredMessage struct {
	version sharedTypes.Version
	entry   WriteQueueEntry
}

func (c *Client) String() string {
	return string(c.PublicId)
}

// EnsureQueueMessage queues the message or closes the write queue when the
// client cannot keep up.
func (c *Client) EnsureQueueMessage(entry WriteQueueEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queueLocked(entry)
}

func (c *Client) queueLocked(entry WriteQueueEntry) bool {
	if c.closed {
		return false
	}
	select {
	case c.writeQueue <- entry:
		return true
	default:
		c.closeLocked()
		return false
	}
}

func (c *Client) QueueMessage(msg Message) bool {
	entry, err := PrepareMessage(msg)
	if err != nil {
		return false
	}
	return c.EnsureQueueMessage(entry)
}

// StartSync holds back ops until FinishSync delivers the snapshot.
func (c *Client) StartSync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncing = true
}

// QueueOp queues a message for the entry that produced version v.
func (c *Client) QueueOp(v sharedTypes.Version, entry WriteQueueEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.syncing {
		c.deferred = append(c.deferred, deferredMessage{
			version: v,
			entry:   entry,
		})
		return true
	}
	return c.queueLocked(entry)
}

// FinishSync queues the snapshot at version v followed by the held back
// ops that are not part of it yet.
func (c *Client) FinishSync(v sharedTypes.Version, snapshot WriteQueueEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	deferred := c.deferred
	c.syncing = false
	c.deferred = nil
	if !c.queueLocked(snapshot) {
		return false
	}
	for _, d := range deferred {
		if d.version <= v {
			continue
		}
		if !c.queueLocked(d.entry) {
			return false
		}
	}
	return true
}

// CloseWriteQueue signals the write loop to finish after flushing any
// queued messages.
func (c *Client) CloseWriteQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.writeQueue)
	}
}
