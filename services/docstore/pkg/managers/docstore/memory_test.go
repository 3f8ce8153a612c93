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
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/docstore/pkg/types"
)

func commitInsert(t *testing.T, m Manager, docId, userId primitive.ObjectID, v sharedTypes.Version, s sharedTypes.Snapshot, op sharedTypes.Op) {
	t.Helper()
	err := m.Commit(context.Background(), docId, &types.CommitRequest{
		Snapshot: s,
		Entry: sharedTypes.HistoryEntry{
			Op:        op,
			Version:   v,
			Timestamp: time.Now(),
			UserId:    userId,
			Origin:    sharedTypes.Edit,
		},
	})
	if err != nil {
		t.Fatalf("commit v=%d: %s", v, err)
	}
}

func TestMemoryAuthorize(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	owner := primitive.NewObjectID()
	collaborator := primitive.NewObjectID()
	other := primitive.NewObjectID()
	docId, err := m.CreateDoc(ctx, owner, nil, sharedTypes.Snapshot("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if err = m.AddCollaborator(ctx, docId, collaborator); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		docId  primitive.ObjectID
		userId primitive.ObjectID
		check  func(err error) bool
	}{
		{
			name:   "owner",
			docId:  docId,
			userId: owner,
			check:  func(err error) bool { return err == nil },
		},
		{
			name:   "collaborator",
			docId:  docId,
			userId: collaborator,
			check:  func(err error) bool { return err == nil },
		},
		{
			name:   "other",
			docId:  docId,
			userId: other,
			check:  errors.IsNotAuthorizedError,
		},
		{
			name:   "missing doc",
			docId:  primitive.NewObjectID(),
			userId: owner,
			check:  errors.IsNotFoundError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Authorize(ctx, tt.docId, tt.userId); !tt.check(err) {
				t.Errorf("Authorize() unexpected error = %v", err)
			}
		})
	}
}

func TestMemoryCommit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	owner := primitive.NewObjectID()
	docId, err := m.CreateDoc(ctx, owner, nil, sharedTypes.Snapshot("hello"))
	if err != nil {
		t.Fatal(err)
	}

	commitInsert(t, m, docId, owner, 1,
		sharedTypes.Snapshot("hello world"),
		sharedTypes.NewInsert(5, " world"),
	)

	t.Run("conflict", func(t *testing.T) {
		err := m.Commit(ctx, docId, &types.CommitRequest{
			Snapshot: sharedTypes.Snapshot("hello!"),
			Entry: sharedTypes.HistoryEntry{
				Op:      sharedTypes.NewInsert(5, "!"),
				Version: 1,
				UserId:  owner,
			},
		})
		if !errors.IsCommitConflictError(err) {
			t.Fatalf("Commit() error = %v, want conflict", err)
		}
	})

	t.Run("marker", func(t *testing.T) {
		err := m.Commit(ctx, docId, &types.CommitRequest{
			Snapshot: sharedTypes.Snapshot("hello"),
			Entry: sharedTypes.HistoryEntry{
				Op: sharedTypes.Op{
					Kind:     sharedTypes.Delete,
					Position: 5,
					Length:   6,
					Text:     sharedTypes.Snippet(" world"),
				},
				Version: 2,
				UserId:  owner,
				Origin:  sharedTypes.Undo,
				Reverts: 1,
			},
			Marker: &types.Marker{
				Version:    1,
				RevertedBy: &owner,
				RevertedIn: 2,
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		d, err := m.GetDoc(ctx, docId)
		if err != nil {
			t.Fatal(err)
		}
		if got := string(d.Snapshot); got != "hello" {
			t.Errorf("GetDoc() content = %q, want %q", got, "hello")
		}
		if d.Version != 2 || len(d.History) != 2 {
			t.Fatalf("GetDoc() version = %d, entries = %d", d.Version, len(d.History))
		}
		e := d.History[0]
		if !e.IsReverted() || *e.RevertedBy != owner || e.RevertedIn != 2 {
			t.Errorf("GetDoc() marker not applied: %+v", e)
		}
	})

	t.Run("returns copies", func(t *testing.T) {
		d, err := m.GetDoc(ctx, docId)
		if err != nil {
			t.Fatal(err)
		}
		d.Snapshot[0] = 'j'
		d.History[0].Version = 42
		d2, err := m.GetDoc(ctx, docId)
		if err != nil {
			t.Fatal(err)
		}
		if string(d2.Snapshot) != "hello" {
			t.Errorf("GetDoc() content = %q, want %q", string(d2.Snapshot), "hello")
		}
		if !reflect.DeepEqual(d2.History.At(1).Op, sharedTypes.NewInsert(5, " world")) {
			t.Errorf("GetDoc() history mutated: %+v", d2.History)
		}
	})
}

func TestMemoryCommitValidation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	owner := primitive.NewObjectID()
	docId, err := m.CreateDoc(ctx, owner, nil, sharedTypes.Snapshot(""))
	if err != nil {
		t.Fatal(err)
	}
	err = m.Commit(ctx, docId, &types.CommitRequest{
		Entry: sharedTypes.HistoryEntry{
			Op:      sharedTypes.NewDelete(0, 0),
			Version: 1,
		},
	})
	if !errors.IsValidationError(err) {
		t.Errorf("Commit() error = %v, want validation error", err)
	}
	err = m.Commit(ctx, primitive.NewObjectID(), &types.CommitRequest{
		Entry: sharedTypes.HistoryEntry{
			Op:      sharedTypes.NewInsert(0, "x"),
			Version: 1,
		},
	})
	if !errors.IsNotFoundError(err) {
		t.Errorf("Commit() error = %v, want not found", err)
	}
}
