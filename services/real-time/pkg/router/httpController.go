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

package router

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/real-time/pkg/events"
	"github.com/das7pad/collab-text/services/real-time/pkg/managers/realTime"
	"github.com/das7pad/collab-text/services/real-time/pkg/types"
)

type Options struct {
	WriteQueueDepth int
	MaxMessageSize  int64
}

func Add(r *mux.Router, rtm realTime.Manager, o Options) {
	h := httpController{
		rtm: rtm,
		o:   o,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
	r.HandleFunc("/api/notes", h.ws).Methods(http.MethodGet)
}

type httpController struct {
	rtm      realTime.Manager
	o        Options
	upgrader websocket.Upgrader
}

const (
	// two skipped heartbeats plus latency
	idleTime   = 2*15*time.Second + 10*time.Second
	writeWait  = 30 * time.Second
	handshake  = 10 * time.Second
	pingPeriod = 15 * time.Second
)

func (h *httpController) ws(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// A 4xx has been sent already.
		return
	}
	conn.SetReadLimit(h.o.MaxMessageSize)

	writeQueue := make(chan types.WriteQueueEntry, h.o.WriteQueueDepth)
	go h.writeLoop(conn, writeQueue)

	if h.rtm.IsShuttingDown() {
		writeQueue <- events.ConnectionRejectedRetry
		close(writeQueue)
		return
	}

	q := r.URL.Query()
	token := q.Get("token")
	docId, err := sharedTypes.ParseId(q.Get("docId"))
	if token == "" || err != nil {
		writeQueue <- events.ConnectionRejectedInvalidParameters
		close(writeQueue)
		return
	}

	ctx, done := context.WithTimeout(context.Background(), handshake)
	c, err := h.rtm.Connect(ctx, token, docId, writeQueue)
	done()
	if err != nil {
		log.Printf("doc=%s action=connect err=%s", docId.Hex(), err.Error())
		return
	}
	go h.readLoop(conn, c)
}

func (h *httpController) writeLoop(conn *websocket.Conn, writeQueue <-chan types.WriteQueueEntry) {
	defer func() {
		_ = conn.Close()
		for range writeQueue {
			// Flush the queue.
			// Eventually the disconnect will close the channel.
		}
	}()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ping.C:
			err := conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(writeWait),
			)
			if err != nil {
				return
			}
		case entry, ok := <-writeQueue:
			if !ok {
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second),
				)
				return
			}
			if entry.IsClose() {
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(
						entry.CloseCode, entry.CloseReason,
					),
					time.Now().Add(writeWait),
				)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WritePreparedMessage(entry.Msg); err != nil {
				return
			}
		}
	}
}

func (h *httpController) readLoop(conn *websocket.Conn, c *types.Client) {
	defer h.rtm.Disconnect(c)
	extendDeadline := func(string) error {
		return conn.SetReadDeadline(time.Now().Add(idleTime))
	}
	if extendDeadline("") != nil {
		_ = conn.Close()
		return
	}
	conn.SetPongHandler(extendDeadline)
	for ok := true; ok; {
		_, blob, err := conn.ReadMessage()
		if err != nil {
			if !shouldTriggerDisconnect(err) {
				log.Printf(
					"user=%s doc=%s action=read err=%s",
					c.UserId.Hex(), c.DocId.Hex(), err.Error(),
				)
			}
			_ = conn.Close()
			return
		}
		if extendDeadline("") != nil {
			_ = conn.Close()
			return
		}
		ok = h.rtm.HandleMessage(c, blob)
	}
}

func shouldTriggerDisconnect(err error) bool {
	if _, ok := err.(*websocket.CloseError); ok {
		return true
	}
	if e, ok := err.(net.Error); ok && e.Timeout() {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}
