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

package text

import (
	"reflect"
	"testing"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

func TestApply(t *testing.T) {
	type args struct {
		snapshot sharedTypes.Snapshot
		op       sharedTypes.Op
	}
	tests := []struct {
		name    string
		args    args
		want    sharedTypes.Snapshot
		wantOp  sharedTypes.Op
		wantErr func(err error) bool
	}{
		{
			name: "new",
			args: args{
				snapshot: sharedTypes.Snapshot(""),
				op:       sharedTypes.NewInsert(0, "foo"),
			},
			want:   sharedTypes.Snapshot("foo"),
			wantOp: sharedTypes.NewInsert(0, "foo"),
		},
		{
			name: "append",
			args: args{
				snapshot: sharedTypes.Snapshot("hello"),
				op:       sharedTypes.NewInsert(5, " world"),
			},
			want:   sharedTypes.Snapshot("hello world"),
			wantOp: sharedTypes.NewInsert(5, " world"),
		},
		{
			name: "insert",
			args: args{
				snapshot: sharedTypes.Snapshot("fooBaz"),
				op:       sharedTypes.NewInsert(3, "Bar"),
			},
			want:   sharedTypes.Snapshot("fooBarBaz"),
			wantOp: sharedTypes.NewInsert(3, "Bar"),
		},
		{
			name: "delete",
			args: args{
				snapshot: sharedTypes.Snapshot("hello world"),
				op:       sharedTypes.NewDelete(0, 6),
			},
			want: sharedTypes.Snapshot("world"),
			wantOp: sharedTypes.Op{
				Kind:     sharedTypes.Delete,
				Position: 0,
				Length:   6,
				Text:     sharedTypes.Snippet("hello "),
			},
		},
		{
			name: "deleteUTF-8",
			args: args{
				snapshot: sharedTypes.Snapshot("hällö wörld"),
				op:       sharedTypes.NewDelete(1, 4),
			},
			want: sharedTypes.Snapshot("h wörld"),
			wantOp: sharedTypes.Op{
				Kind:     sharedTypes.Delete,
				Position: 1,
				Length:   4,
				Text:     sharedTypes.Snippet("ällö"),
			},
		},
		{
			name: "deleteWithMatchingText",
			args: args{
				snapshot: sharedTypes.Snapshot("fooBar"),
				op: sharedTypes.Op{
					Kind:     sharedTypes.Delete,
					Position: 3,
					Length:   3,
					Text:     sharedTypes.Snippet("Bar"),
				},
			},
			want: sharedTypes.Snapshot("foo"),
			wantOp: sharedTypes.Op{
				Kind:     sharedTypes.Delete,
				Position: 3,
				Length:   3,
				Text:     sharedTypes.Snippet("Bar"),
			},
		},
		{
			name: "deleteMismatch",
			args: args{
				snapshot: sharedTypes.Snapshot("fooBar"),
				op: sharedTypes.Op{
					Kind:     sharedTypes.Delete,
					Position: 3,
					Length:   3,
					Text:     sharedTypes.Snippet("bar"),
				},
			},
			wantErr: errors.IsValidationError,
		},
		{
			name: "insertOOB",
			args: args{
				snapshot: sharedTypes.Snapshot("foo"),
				op:       sharedTypes.NewInsert(4, "bar"),
			},
			wantErr: func(err error) bool {
				_, ok := err.(*errors.InvalidPositionError)
				return ok
			},
		},
		{
			name: "deleteOOB",
			args: args{
				snapshot: sharedTypes.Snapshot("fooBar"),
				op:       sharedTypes.NewDelete(3, 4),
			},
			wantErr: func(err error) bool {
				_, ok := err.(*errors.InvalidLengthError)
				return ok
			},
		},
		{
			name: "deleteOOBStart",
			args: args{
				snapshot: sharedTypes.Snapshot("fooBar"),
				op:       sharedTypes.NewDelete(42, 1),
			},
			wantErr: func(err error) bool {
				_, ok := err.(*errors.InvalidPositionError)
				return ok
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := string(tt.args.snapshot)
			got, gotOp, err := Apply(tt.args.snapshot, tt.args.op)
			if tt.wantErr != nil {
				if err == nil || !tt.wantErr(err) {
					t.Fatalf("Apply() error = %v, want matching error", err)
				}
				if !errors.IsValidationError(err) {
					t.Errorf("Apply() error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if string(got) != string(tt.want) {
				t.Errorf("Apply() got = %q, want %q", string(got), string(tt.want))
			}
			if !reflect.DeepEqual(gotOp, tt.wantOp) {
				t.Errorf("Apply() gotOp = %v, want %v", gotOp, tt.wantOp)
			}
			if string(tt.args.snapshot) != before {
				t.Errorf("Apply() changed input to %q", string(tt.args.snapshot))
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		op   sharedTypes.Op
		n    int
		want sharedTypes.Op
	}{
		{
			name: "insert",
			op:   sharedTypes.NewInsert(4, "a"),
			n:    2,
			want: sharedTypes.NewInsert(4, "a"),
		},
		{
			name: "fits",
			op:   sharedTypes.NewDelete(1, 2),
			n:    3,
			want: sharedTypes.NewDelete(1, 2),
		},
		{
			name: "tooLong",
			op:   sharedTypes.NewDelete(2, 7),
			n:    4,
			want: sharedTypes.NewDelete(2, 2),
		},
		{
			name: "outOfBounds",
			op:   sharedTypes.NewDelete(5, 1),
			n:    4,
			want: sharedTypes.NewDelete(5, 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.op, tt.n); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Clamp() = %v, want %v", got, tt.want)
			}
		})
	}
}
