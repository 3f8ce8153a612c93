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
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/real-time/pkg/types"
)

// Response is a single message from the server. Decode fills one of the
// message structs from package types.
type Response struct {
	Type types.MessageType
	Blob []byte
}

func (r Response) Decode(dst types.Message) error {
	return json.Unmarshal(r.Blob, dst)
}

type Client struct {
	conn     *websocket.Conn
	mu       sync.Mutex
	listener []listener
}

type listener struct {
	t  types.MessageType
	fn func(response Response)
}

var closeMessage *websocket.PreparedMessage

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.WritePreparedMessage(closeMessage)
		_ = c.conn.Close()
		c.conn = nil
	}
}

type ConnectFn = func(ctx context.Context, network, addr string) (net.Conn, error)

// DialUnix connects to a server that listens on a unix socket.
func DialUnix(path string) ConnectFn {
	addr := &net.UnixAddr{Net: "unix", Name: path}
	return func(_ context.Context, _, _ string) (net.Conn, error) {
		return net.DialUnix("unix", nil, addr)
	}
}

// Connect opens the session and reads until the document arrives.
// Listeners see the messages that precede it. A rejected connection
// yields a *websocket.CloseError.
func (c *Client) Connect(ctx context.Context, u, token string, docId primitive.ObjectID, dial ConnectFn) (*types.DocumentSyncMessage, error) {
	q := url.Values{}
	q.Set("token", token)
	q.Set("docId", docId.Hex())
	d := websocket.Dialer{NetDialContext: dial}
	conn, _, err := d.DialContext(ctx, u+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Tag(err, "dial")
	}
	c.conn = conn

	if deadline, ok := ctx.Deadline(); ok {
		if err = c.conn.SetReadDeadline(deadline); err != nil {
			c.Close()
			return nil, errors.Tag(err, "set deadline")
		}
	}
	for {
		res, err2 := c.ReadOnce()
		if err2 != nil {
			c.Close()
			return nil, err2
		}
		if res.Type != types.DocumentSync {
			continue
		}
		m := &types.DocumentSyncMessage{}
		if err = res.Decode(m); err != nil {
			c.Close()
			return nil, errors.Tag(err, "decode document-sync")
		}
		return m, nil
	}
}

func (c *Client) On(t types.MessageType, fn func(response Response)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = append(c.listener, listener{t: t, fn: fn})
}

func (c *Client) Send(r types.Request) error {
	blob, err := types.EncodeRequest(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("closed")
	}
	return c.conn.WriteMessage(websocket.TextMessage, blob)
}

func (c *Client) Edit(op sharedTypes.Op, v sharedTypes.Version) error {
	return c.Send(&types.EditRequest{Op: op, BaseVersion: v})
}

func (c *Client) Undo() error {
	return c.Send(&types.UndoRequest{})
}

func (c *Client) Redo() error {
	return c.Send(&types.RedoRequest{})
}

// ReadOnce reads the next message and passes it to the matching listeners.
func (c *Client) ReadOnce() (Response, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return Response{}, errors.New("closed")
	}
	_, blob, err := conn.ReadMessage()
	if err != nil {
		return Response{}, err
	}
	var head struct {
		Type types.MessageType `json:"type"`
	}
	if err = json.Unmarshal(blob, &head); err != nil {
		return Response{}, fmt.Errorf("unexpected message: %q: %w", blob, err)
	}
	res := Response{Type: head.Type, Blob: blob}

	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()
	for _, li := range l {
		if li.t == res.Type {
			li.fn(res)
		}
	}
	return res, nil
}

// ReadUntil reads until a message of the given type arrives.
func (c *Client) ReadUntil(t types.MessageType) (Response, error) {
	for {
		res, err := c.ReadOnce()
		if err != nil || res.Type == t {
			return res, err
		}
	}
}

func init() {
	data := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	var err error
	closeMessage, err = websocket.NewPreparedMessage(
		websocket.CloseMessage, data,
	)
	if err != nil {
		panic(err)
	}
}
