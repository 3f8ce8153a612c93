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

package docstore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/docstore/pkg/types"
)

// NewMemory returns a process local store. Nothing survives a restart.
func NewMemory() Manager {
	return &memoryManager{
		docs: make(map[primitive.ObjectID]*sharedTypes.Doc),
	}
}

type memoryManager struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]*sharedTypes.Doc
}

func cloneDoc(d *sharedTypes.Doc) *sharedTypes.Doc {
	c := *d
	c.Snapshot = d.Snapshot.Clone()
	c.Collaborators = append(
		make([]primitive.ObjectID, 0, len(d.Collaborators)),
		d.Collaborators...,
	)
	c.History = make(sharedTypes.History, len(d.History))
	for i, e := range d.History {
		c.History[i] = cloneEntry(e)
	}
	return &c
}

func cloneEntry(e sharedTypes.HistoryEntry) sharedTypes.HistoryEntry {
	if e.RevertedBy != nil {
		id := *e.RevertedBy
		e.RevertedBy = &id
	}
	if e.Text != nil {
		e.Text = append(make(sharedTypes.Snippet, 0, len(e.Text)), e.Text...)
	}
	return e
}

func (m *memoryManager) CreateDoc(_ context.Context, ownerId primitive.ObjectID, collaborators []primitive.ObjectID, content sharedTypes.Snapshot) (primitive.ObjectID, error) {
	if err := content.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	d := &sharedTypes.Doc{
		Id:            primitive.NewObjectID(),
		Snapshot:      content,
		History:       make(sharedTypes.History, 0),
		CreatedBy:     ownerId,
		Collaborators: collaborators,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.Id] = cloneDoc(d)
	return d.Id, nil
}

func (m *memoryManager) AddCollaborator(_ context.Context, docId, userId primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[docId]
	if !ok {
		return &errors.NotFoundError{}
	}
	if !d.IsMember(userId) {
		d.Collaborators = append(d.Collaborators, userId)
	}
	return nil
}

func (m *memoryManager) Authorize(_ context.Context, docId, userId primitive.ObjectID) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[docId]
	if !ok {
		return &errors.NotFoundError{}
	}
	if !d.IsMember(userId) {
		return &errors.NotAuthorizedError{}
	}
	return nil
}

func (m *memoryManager) GetDoc(_ context.Context, docId primitive.ObjectID) (*sharedTypes.Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[docId]
	if !ok {
		return nil, &errors.NotFoundError{}
	}
	return cloneDoc(d), nil
}

func (m *memoryManager) Commit(_ context.Context, docId primitive.ObjectID, r *types.CommitRequest) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[docId]
	if !ok {
		return &errors.NotFoundError{}
	}
	if d.Version != r.ExpectedVersion() {
		return &errors.CommitConflictError{Expected: int64(r.ExpectedVersion())}
	}
	if r.Marker != nil {
		e := d.History.At(r.Marker.Version)
		if e == nil {
			return &errors.ValidationError{Msg: "marker target not found"}
		}
		r.Marker.ApplyTo(e)
	}
	d.Snapshot = r.Snapshot.Clone()
	d.Version = r.Entry.Version
	d.History = append(d.History, cloneEntry(r.Entry))
	return nil
}
