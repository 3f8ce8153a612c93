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
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/appliedOps"
	"github.com/das7pad/collab-text/pkg/httpUtils"
	"github.com/das7pad/collab-text/pkg/jwt/userIdJWT"
	"github.com/das7pad/collab-text/pkg/options/jwtOptions"
	"github.com/das7pad/collab-text/pkg/redisLocker"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/docstore/pkg/managers/docstore"
	docstoreTypes "github.com/das7pad/collab-text/services/docstore/pkg/types"
	"github.com/das7pad/collab-text/services/document-updater/pkg/managers/documentUpdater"
	documentUpdaterTypes "github.com/das7pad/collab-text/services/document-updater/pkg/types"
	realTimeClient "github.com/das7pad/collab-text/services/real-time/pkg/client/realTime"
	"github.com/das7pad/collab-text/services/real-time/pkg/managers/realTime"
	"github.com/das7pad/collab-text/services/real-time/pkg/types"
)

var (
	alice = primitive.ObjectID{1}
	bob   = primitive.ObjectID{2}
)

type testServer struct {
	t      *testing.T
	url    string
	docId  primitive.ObjectID
	tokens map[primitive.ObjectID]string
}

func setup(t *testing.T) *testServer {
	t.Helper()
	ctx, done := context.WithCancel(context.Background())
	t.Cleanup(done)

	o := &types.Options{
		WriteQueueDepth: 100,
		MaxMessageSize:  1024,
		FanOut:          types.FanOutLocal,
		CommitTimeout:   10 * time.Second,
	}
	o.GracefulShutdown.Timeout = time.Second
	o.Presence.TTL = 2 * time.Hour
	o.Presence.HeartbeatInterval = time.Hour
	o.AuthCache.Size = 10
	o.AuthCache.TTL = time.Minute
	o.APIs.Docstore.Options = &docstoreTypes.Options{
		Backend: docstoreTypes.Memory,
	}
	o.APIs.DocumentUpdater.Options = &documentUpdaterTypes.Options{
		CommitAttempts: 3,
	}
	o.APIs.DocumentUpdater.Options.Store.Timeout = time.Second

	bus := appliedOps.NewLocal()
	dum, err := documentUpdater.New(
		o.APIs.DocumentUpdater.Options,
		docstore.NewMemory(), redisLocker.NewLocal(), bus,
	)
	if err != nil {
		t.Fatalf("new document updater: %s", err)
	}
	docId, err := dum.CreateDoc(
		ctx, alice, []primitive.ObjectID{bob}, sharedTypes.Snapshot("hello"),
	)
	if err != nil {
		t.Fatalf("create doc: %s", err)
	}
	h := userIdJWT.New(jwtOptions.JWTOptions{
		Algorithm: "HS256",
		Key:       []byte("secret"),
		ExpiresIn: time.Hour,
	})
	tokens := make(map[primitive.ObjectID]string)
	for _, id := range []primitive.ObjectID{alice, bob} {
		if tokens[id], err = userIdJWT.Issue(h, id, ""); err != nil {
			t.Fatalf("issue token: %s", err)
		}
	}
	rtm, err := realTime.New(ctx, o, dum, bus, nil, userIdJWT.NewVerifier(h))
	if err != nil {
		t.Fatalf("new real-time: %s", err)
	}

	r := httpUtils.NewRouter(&httpUtils.RouterOptions{})
	Add(r, rtm, Options{
		WriteQueueDepth: o.WriteQueueDepth,
		MaxMessageSize:  o.MaxMessageSize,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{
		t:      t,
		url:    "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notes",
		docId:  docId,
		tokens: tokens,
	}
}

func (s *testServer) dial(token, docId string) *websocket.Conn {
	s.t.Helper()
	q := url.Values{}
	q.Set("token", token)
	q.Set("docId", docId)
	conn, _, err := websocket.DefaultDialer.Dial(s.url+"?"+q.Encode(), nil)
	if err != nil {
		s.t.Fatalf("dial: %s", err)
	}
	s.t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestRejectsInvalidParameters(t *testing.T) {
	s := setup(t)
	tests := []struct {
		name   string
		token  string
		docId  string
		reason string
	}{
		{"missing token", "", s.docId.Hex(), "Invalid parameters"},
		{"bad doc id", s.tokens[alice], "not-an-id", "Invalid parameters"},
		{"bad token", "garbage", s.docId.Hex(), "Unauthorized"},
		{"unknown doc", s.tokens[alice], primitive.NewObjectID().Hex(), "Document not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := s.dial(tt.token, tt.docId)
			_, _, err := conn.ReadMessage()
			e, ok := err.(*websocket.CloseError)
			if !ok {
				t.Fatalf("ReadMessage() error = %v, want close", err)
			}
			if e.Code != websocket.ClosePolicyViolation || e.Text != tt.reason {
				t.Errorf("closed with %d %q, want 1008 %q", e.Code, e.Text, tt.reason)
			}
		})
	}
}

func (s *testServer) connect(userId primitive.ObjectID) (*realTimeClient.Client, *types.DocumentSyncMessage) {
	s.t.Helper()
	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	c := &realTimeClient.Client{}
	m, err := c.Connect(ctx, s.url, s.tokens[userId], s.docId, nil)
	if err != nil {
		s.t.Fatalf("connect: %s", err)
	}
	s.t.Cleanup(c.Close)
	return c, m
}

func TestEdit(t *testing.T) {
	s := setup(t)
	a, m := s.connect(alice)
	if string(m.Content) != "hello" || m.Version != 0 {
		t.Errorf("document-sync = %+v", m)
	}
	b, _ := s.connect(bob)

	if err := a.Edit(sharedTypes.NewInsert(5, " world"), 0); err != nil {
		t.Fatalf("edit: %s", err)
	}
	res, err := a.ReadUntil(types.Ack)
	if err != nil {
		t.Fatalf("read ack: %s", err)
	}
	ack := &types.AckMessage{}
	if err = res.Decode(ack); err != nil || ack.Version != 1 {
		t.Errorf("ack = %+v, %v", ack, err)
	}

	res, err = b.ReadUntil(types.TextOperation)
	if err != nil {
		t.Fatalf("read text-operation: %s", err)
	}
	op := &types.TextOperationMessage{}
	if err = res.Decode(op); err != nil {
		t.Fatalf("decode: %s", err)
	}
	if op.OpType != sharedTypes.Insert || string(op.Text) != " world" ||
		op.Version != 1 || op.UserId != alice {
		t.Errorf("text-operation = %+v", op)
	}

	if err = b.Undo(); err != nil {
		t.Fatalf("undo: %s", err)
	}
	res, err = b.ReadUntil(types.Error)
	if err != nil {
		t.Fatalf("read error: %s", err)
	}
	e := &types.ErrorMessage{}
	if err = res.Decode(e); err != nil || e.Message != types.NoOperationToUndo {
		t.Errorf("error = %+v, %v", e, err)
	}

	_, m = s.connect(bob)
	if string(m.Content) != "hello world" || m.Version != 1 {
		t.Errorf("document-sync = %+v", m)
	}
}
