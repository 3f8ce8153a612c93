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

package historyManager

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/document-updater/pkg/text"
)

var (
	alice = primitive.ObjectID{1}
	bob   = primitive.ObjectID{2}
	carol = primitive.ObjectID{3}
)

type fakeDoc struct {
	t       *testing.T
	content sharedTypes.Snapshot
	history sharedTypes.History
}

func (d *fakeDoc) commit(userId primitive.ObjectID, op sharedTypes.Op, origin sharedTypes.Origin, target sharedTypes.Version) {
	d.t.Helper()
	s, applied, err := text.Apply(d.content, op)
	if err != nil {
		d.t.Fatalf("apply %+v: %s", op, err)
	}
	v := sharedTypes.Version(len(d.history) + 1)
	switch origin {
	case sharedTypes.Undo:
		e := d.history.At(target)
		id := userId
		e.RevertedBy = &id
		e.RevertedIn = v
	case sharedTypes.Redo:
		d.history.At(target).RedoneIn = v
	}
	d.content = s
	d.history = append(d.history, sharedTypes.HistoryEntry{
		Op:      applied,
		Version: v,
		UserId:  userId,
		Origin:  origin,
		Reverts: target,
	})
}

func (d *fakeDoc) run(userId primitive.ObjectID, p *Plan) {
	d.t.Helper()
	d.commit(userId, p.Op, p.Origin, p.Target)
}

func newFakeDoc(t *testing.T) *fakeDoc {
	d := &fakeDoc{t: t}
	d.commit(alice, sharedTypes.NewInsert(0, "hello"), sharedTypes.Edit, 0)
	d.commit(bob, sharedTypes.NewInsert(5, " world"), sharedTypes.Edit, 0)
	d.commit(alice, sharedTypes.NewInsert(0, ">> "), sharedTypes.Edit, 0)
	if got := string(d.content); got != ">> hello world" {
		t.Fatalf("setup content = %q", got)
	}
	return d
}

func TestPlanUndo(t *testing.T) {
	d := newFakeDoc(t)
	tests := []struct {
		name    string
		userId  primitive.ObjectID
		want    *Plan
		wantErr func(err error) bool
	}{
		{
			name:   "latest own entry",
			userId: alice,
			want: &Plan{
				Op:     sharedTypes.NewDelete(0, 3),
				Origin: sharedTypes.Undo,
				Target: 3,
			},
		},
		{
			name:   "shifted by later entries",
			userId: bob,
			want: &Plan{
				Op:     sharedTypes.NewDelete(8, 6),
				Origin: sharedTypes.Undo,
				Target: 2,
			},
		},
		{
			name:    "no own entries",
			userId:  carol,
			wantErr: errors.IsNoOperationToUndoError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanUndo(d.history, tt.userId, len(d.content))
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("PlanUndo() error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PlanUndo() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlanUndo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUndoRedo(t *testing.T) {
	d := newFakeDoc(t)

	p, err := PlanUndo(d.history, bob, len(d.content))
	if err != nil {
		t.Fatal(err)
	}
	d.run(bob, p)
	if got := string(d.content); got != ">> hello" {
		t.Fatalf("after undo content = %q", got)
	}
	if e := d.history.At(2); !e.IsReverted() || *e.RevertedBy != bob {
		t.Fatalf("after undo marker = %+v", e)
	}

	// Someone else edits in front of the reverted range.
	d.commit(alice, sharedTypes.NewInsert(0, "# "), sharedTypes.Edit, 0)

	p, err = PlanRedo(d.history, bob, len(d.content))
	if err != nil {
		t.Fatal(err)
	}
	want := &Plan{
		Op:     sharedTypes.NewInsert(10, " world"),
		Origin: sharedTypes.Redo,
		Target: 2,
	}
	if !reflect.DeepEqual(p, want) {
		t.Fatalf("PlanRedo() = %+v, want %+v", p, want)
	}
	d.run(bob, p)
	if got := string(d.content); got != "# >> hello world" {
		t.Errorf("after redo content = %q", got)
	}

	if _, err = PlanRedo(d.history, bob, len(d.content)); !errors.IsNoOperationToRedoError(err) {
		t.Errorf("PlanRedo() again error = %v", err)
	}
}

func TestFindUndoableSkipsReverted(t *testing.T) {
	d := newFakeDoc(t)
	p, err := PlanUndo(d.history, alice, len(d.content))
	if err != nil {
		t.Fatal(err)
	}
	d.run(alice, p)

	got := FindUndoable(d.history, alice)
	if len(got) != 2 || got[0].Version != 4 || got[0].Origin != sharedTypes.Undo {
		t.Fatalf("FindUndoable() = %+v, want the undo entry first", got)
	}
	if got[1].Version != 1 {
		t.Errorf("FindUndoable()[1] = v%d, want v1", got[1].Version)
	}

	got = FindUndoable(d.history[:3], alice)
	if len(got) != 1 || got[0].Version != 1 {
		t.Errorf("FindUndoable() = %+v, want v1", got)
	}
}

func TestPlanUndoLegacyDelete(t *testing.T) {
	h := sharedTypes.History{
		{
			Op:      sharedTypes.NewDelete(0, 2),
			Version: 1,
			UserId:  alice,
		},
	}
	if _, err := PlanUndo(h, alice, 2); !errors.IsCannotUndoError(err) {
		t.Errorf("PlanUndo() error = %v, want cannot undo", err)
	}
}

func TestPlanRedoNothingReverted(t *testing.T) {
	d := newFakeDoc(t)
	if _, err := PlanRedo(d.history, alice, len(d.content)); !errors.IsNoOperationToRedoError(err) {
		t.Errorf("PlanRedo() error = %v", err)
	}
}

func TestPlanUndoSkipsEntriesDeletedByOthers(t *testing.T) {
	d := &fakeDoc{t: t}
	d.commit(alice, sharedTypes.NewInsert(0, "x"), sharedTypes.Edit, 0)
	d.commit(alice, sharedTypes.NewInsert(1, "abc"), sharedTypes.Edit, 0)
	d.commit(bob, sharedTypes.NewDelete(1, 3), sharedTypes.Edit, 0)

	p, err := PlanUndo(d.history, alice, len(d.content))
	if err != nil {
		t.Fatal(err)
	}
	if p.Target != 1 {
		t.Fatalf("PlanUndo() target = v%d, want v1", p.Target)
	}
	d.run(alice, p)
	if got := string(d.content); got != "" {
		t.Errorf("after undo content = %q", got)
	}

	h := sharedTypes.History{
		{Op: sharedTypes.NewInsert(1, "abc"), Version: 1, UserId: alice},
		{Op: sharedTypes.NewDelete(1, 3), Version: 2, UserId: bob},
	}
	if _, err = PlanUndo(h, alice, 1); !errors.IsNoOperationToUndoError(err) {
		t.Errorf("PlanUndo() error = %v, want no operation to undo", err)
	}
}

func TestPlanRedoAfterOwnEdit(t *testing.T) {
	d := newFakeDoc(t)
	p, err := PlanUndo(d.history, alice, len(d.content))
	if err != nil {
		t.Fatal(err)
	}
	d.run(alice, p)

	if got := FindRedoable(d.history, alice); len(got) != 1 || got[0].Version != 3 {
		t.Fatalf("FindRedoable() = %+v, want v3", got)
	}
	// Edits of others keep the redo available.
	d.commit(bob, sharedTypes.NewInsert(0, "!"), sharedTypes.Edit, 0)
	if got := FindRedoable(d.history, alice); len(got) != 1 {
		t.Fatalf("FindRedoable() after foreign edit = %+v", got)
	}

	d.commit(alice, sharedTypes.NewInsert(0, "?"), sharedTypes.Edit, 0)
	if _, err = PlanRedo(d.history, alice, len(d.content)); !errors.IsNoOperationToRedoError(err) {
		t.Errorf("PlanRedo() after own edit error = %v", err)
	}
}
