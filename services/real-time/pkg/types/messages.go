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
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

type MessageType string

const (
	Connected      MessageType = "connected"
	DocumentSync   MessageType = "document-sync"
	TextOperation  MessageType = "text-operation"
	Ack            MessageType = "ack"
	PresenceData   MessageType = "presence-data"
	PresenceUpdate MessageType = "presence-update"
	Error          MessageType = "error"
)

type Message interface {
	MessageType() MessageType
}

type ConnectedMessage struct {
	Type   MessageType        `json:"type"`
	DocId  primitive.ObjectID `json:"docId"`
	UserId primitive.ObjectID `json:"userId"`
}

func (m *ConnectedMessage) MessageType() MessageType {
	return Connected
}

type DocumentSyncMessage struct {
	Type    MessageType          `json:"type"`
	Content sharedTypes.Snapshot `json:"content"`
	Version sharedTypes.Version  `json:"version"`
	History sharedTypes.History  `json:"history"`
}

func (m *DocumentSyncMessage) MessageType() MessageType {
	return DocumentSync
}

type TextOperationMessage struct {
	Type     MessageType         `json:"type"`
	OpType   sharedTypes.OpKind  `json:"opType"`
	Position int                 `json:"position"`
	Text     sharedTypes.Snippet `json:"text,omitempty"`
	Length   int                 `json:"length,omitempty"`
	Version  sharedTypes.Version `json:"version"`
	UserId   primitive.ObjectID  `json:"userId"`
}

func (m *TextOperationMessage) MessageType() MessageType {
	return TextOperation
}

func NewTextOperationMessage(e *sharedTypes.HistoryEntry) *TextOperationMessage {
	m := &TextOperationMessage{
		Type:     TextOperation,
		OpType:   e.Kind,
		Position: e.Position,
		Version:  e.Version,
		UserId:   e.UserId,
	}
	if e.IsInsertion() {
		m.Text = e.Text
	} else {
		m.Length = e.Length
	}
	return m
}

type AckMessage struct {
	Type      MessageType         `json:"type"`
	Version   sharedTypes.Version `json:"version"`
	Operation *sharedTypes.Op     `json:"operation,omitempty"`
}

func (m *AckMessage) MessageType() MessageType {
	return Ack
}

type PresenceDataMessage struct {
	Type          MessageType          `json:"type"`
	Collaborators []primitive.ObjectID `json:"collaborators"`
}

func (m *PresenceDataMessage) MessageType() MessageType {
	return PresenceData
}

type PresenceStatus string

const (
	Online  PresenceStatus = "online"
	Offline PresenceStatus = "offline"
)

type PresenceUpdateMessage struct {
	Type     MessageType        `json:"type"`
	UserId   primitive.ObjectID `json:"userId"`
	Status   PresenceStatus     `json:"status"`
	LastSeen int64              `json:"lastSeen"`
}

func (m *PresenceUpdateMessage) MessageType() MessageType {
	return PresenceUpdate
}

func NewPresenceUpdateMessage(userId primitive.ObjectID, status PresenceStatus, t time.Time) *PresenceUpdateMessage {
	return &PresenceUpdateMessage{
		Type:     PresenceUpdate,
		UserId:   userId,
		Status:   status,
		LastSeen: t.UnixMilli(),
	}
}

type ErrorCode string

const (
	InvalidOperationFormat ErrorCode = "INVALID_OPERATION_FORMAT"
	OperationFailed        ErrorCode = "OPERATION_FAILED"
	NoOperationToUndo      ErrorCode = "NO_OPERATION_TO_UNDO"
	NoOperationToRedo      ErrorCode = "NO_OPERATION_TO_REDO"
	CannotUndo             ErrorCode = "CANNOT_UNDO"
	UndoFailed             ErrorCode = "UNDO_FAILED"
)

type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message ErrorCode   `json:"message"`
}

func (m *ErrorMessage) MessageType() MessageType {
	return Error
}

// WriteQueueEntry is either a prepared data frame or a close frame.
type WriteQueueEntry struct {
	Msg  *websocket.PreparedMessage
	Blob []byte

	CloseCode   int
	CloseReason string
}

func (e WriteQueueEntry) IsClose() bool {
	return e.CloseCode != 0
}

func PrepareMessage(msg Message) (WriteQueueEntry, error) {
	blob, err := json.Marshal(msg)
	if err != nil {
		return WriteQueueEntry{}, errors.Tag(
			err, "serialize "+string(msg.MessageType()),
		)
	}
	pm, err := websocket.NewPreparedMessage(websocket.TextMessage, blob)
	if err != nil {
		return WriteQueueEntry{}, errors.Tag(err, "prepare message")
	}
	return WriteQueueEntry{Msg: pm, Blob: blob}, nil
}

func MustPrepareMessage(msg Message) WriteQueueEntry {
	entry, err := PrepareMessage(msg)
	if err != nil {
		panic(err)
	}
	return entry
}
