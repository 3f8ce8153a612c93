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

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

type RequestType string

const (
	InsertRequestType RequestType = "insert"
	DeleteRequestType RequestType = "delete"
	UndoRequestType   RequestType = "undo-request"
	RedoRequestType   RequestType = "redo-request"
)

// Request is one of EditRequest, UndoRequest or RedoRequest.
type Request interface {
	RequestType() RequestType
}

type EditRequest struct {
	Op          sharedTypes.Op
	BaseVersion sharedTypes.Version
}

func (r *EditRequest) RequestType() RequestType {
	return RequestType(r.Op.Kind)
}

type UndoRequest struct{}

func (r *UndoRequest) RequestType() RequestType {
	return UndoRequestType
}

type RedoRequest struct{}

func (r *RedoRequest) RequestType() RequestType {
	return RedoRequestType
}

type rawRequest struct {
	Type     RequestType          `json:"type"`
	Position *int                 `json:"position,omitempty"`
	Text     *string              `json:"text,omitempty"`
	Length   *int                 `json:"length,omitempty"`
	Version  *sharedTypes.Version `json:"version,omitempty"`
}

func ParseRequest(blob []byte) (Request, error) {
	var raw rawRequest
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, &errors.ValidationError{Msg: "bad request: " + err.Error()}
	}
	switch raw.Type {
	case UndoRequestType:
		return &UndoRequest{}, nil
	case RedoRequestType:
		return &RedoRequest{}, nil
	case InsertRequestType, DeleteRequestType:
	default:
		return nil, &errors.ValidationError{
			Msg: "unknown request type: " + string(raw.Type),
		}
	}

	if raw.Position == nil {
		return nil, &errors.ValidationError{Msg: "missing position"}
	}
	if raw.Version == nil {
		return nil, &errors.ValidationError{Msg: "missing version"}
	}
	if *raw.Version < 0 {
		return nil, &errors.ValidationError{
			Msg: "version must not be negative",
		}
	}

	var op sharedTypes.Op
	if raw.Type == InsertRequestType {
		if raw.Text == nil {
			return nil, &errors.ValidationError{Msg: "missing text"}
		}
		op = sharedTypes.NewInsert(*raw.Position, *raw.Text)
	} else {
		if raw.Length == nil {
			return nil, &errors.ValidationError{Msg: "missing length"}
		}
		op = sharedTypes.NewDelete(*raw.Position, *raw.Length)
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return &EditRequest{Op: op, BaseVersion: *raw.Version}, nil
}

// EncodeRequest produces the wire format that ParseRequest accepts.
func EncodeRequest(r Request) ([]byte, error) {
	raw := rawRequest{Type: r.RequestType()}
	if e, ok := r.(*EditRequest); ok {
		p, v := e.Op.Position, e.BaseVersion
		raw.Position = &p
		raw.Version = &v
		if e.Op.IsInsertion() {
			s := string(e.Op.Text)
			raw.Text = &s
		} else {
			l := e.Op.Length
			raw.Length = &l
		}
	}
	return json.Marshal(raw)
}
