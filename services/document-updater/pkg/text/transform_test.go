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

	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

func TestTransformPair(t *testing.T) {
	type args struct {
		op    sharedTypes.Op
		other sharedTypes.Op
	}
	tests := []struct {
		name string
		args args
		want sharedTypes.Op
	}{
		{
			name: "insertBeforeInsert",
			args: args{
				op:    sharedTypes.NewInsert(2, "a"),
				other: sharedTypes.NewInsert(5, "xyz"),
			},
			want: sharedTypes.NewInsert(2, "a"),
		},
		{
			name: "insertAtSamePositionKeepsPlace",
			args: args{
				op:    sharedTypes.NewInsert(5, "a"),
				other: sharedTypes.NewInsert(5, "xyz"),
			},
			want: sharedTypes.NewInsert(5, "a"),
		},
		{
			name: "insertAfterInsert",
			args: args{
				op:    sharedTypes.NewInsert(5, "a"),
				other: sharedTypes.NewInsert(3, "xyz"),
			},
			want: sharedTypes.NewInsert(8, "a"),
		},
		{
			name: "insertAfterInsertUTF-8",
			args: args{
				op:    sharedTypes.NewInsert(5, "a"),
				other: sharedTypes.NewInsert(3, "äöü"),
			},
			want: sharedTypes.NewInsert(8, "a"),
		},
		{
			name: "insertBeforeDelete",
			args: args{
				op:    sharedTypes.NewInsert(2, "a"),
				other: sharedTypes.NewDelete(2, 3),
			},
			want: sharedTypes.NewInsert(2, "a"),
		},
		{
			name: "insertAfterDelete",
			args: args{
				op:    sharedTypes.NewInsert(10, "a"),
				other: sharedTypes.NewDelete(2, 3),
			},
			want: sharedTypes.NewInsert(7, "a"),
		},
		{
			name: "insertInsideDelete",
			args: args{
				op:    sharedTypes.NewInsert(5, "a"),
				other: sharedTypes.NewDelete(2, 3),
			},
			want: sharedTypes.NewInsert(2, "a"),
		},
		{
			name: "insertInsideBigDeleteIsFloored",
			args: args{
				op:    sharedTypes.NewInsert(4, "a"),
				other: sharedTypes.NewDelete(2, 10),
			},
			want: sharedTypes.NewInsert(2, "a"),
		},
		{
			name: "deleteBeforeInsert",
			args: args{
				op:    sharedTypes.NewDelete(0, 3),
				other: sharedTypes.NewInsert(3, "xyz"),
			},
			want: sharedTypes.NewDelete(0, 3),
		},
		{
			name: "deleteAfterInsert",
			args: args{
				op:    sharedTypes.NewDelete(5, 3),
				other: sharedTypes.NewInsert(3, "xyz"),
			},
			want: sharedTypes.NewDelete(8, 3),
		},
		{
			name: "deleteSpanningInsert",
			args: args{
				op:    sharedTypes.NewDelete(2, 3),
				other: sharedTypes.NewInsert(3, "xyz"),
			},
			want: sharedTypes.NewDelete(5, 3),
		},
		{
			name: "deleteBeforeDelete",
			args: args{
				op:    sharedTypes.NewDelete(0, 2),
				other: sharedTypes.NewDelete(2, 3),
			},
			want: sharedTypes.NewDelete(0, 2),
		},
		{
			name: "deleteAfterDelete",
			args: args{
				op:    sharedTypes.NewDelete(5, 2),
				other: sharedTypes.NewDelete(2, 3),
			},
			want: sharedTypes.NewDelete(2, 2),
		},
		{
			name: "deleteOverlappingDelete",
			args: args{
				op:    sharedTypes.NewDelete(2, 5),
				other: sharedTypes.NewDelete(4, 5),
			},
			want: sharedTypes.NewDelete(2, 7),
		},
		{
			name: "deleteInsideDelete",
			args: args{
				op:    sharedTypes.NewDelete(3, 1),
				other: sharedTypes.NewDelete(2, 5),
			},
			want: sharedTypes.NewDelete(2, 5),
		},
		{
			name: "deleteDropsRetainedTextOnMerge",
			args: args{
				op: sharedTypes.Op{
					Kind:     sharedTypes.Delete,
					Position: 2,
					Length:   2,
					Text:     sharedTypes.Snippet("ab"),
				},
				other: sharedTypes.NewDelete(3, 2),
			},
			want: sharedTypes.NewDelete(2, 3),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TransformPair(tt.args.op, tt.args.other)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TransformPair() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransform(t *testing.T) {
	type args struct {
		op         sharedTypes.Op
		concurrent []sharedTypes.Op
	}
	tests := []struct {
		name string
		args args
		want sharedTypes.Op
	}{
		{
			name: "noConcurrent",
			args: args{
				op: sharedTypes.NewInsert(5, "a"),
			},
			want: sharedTypes.NewInsert(5, "a"),
		},
		{
			name: "afterInsert",
			args: args{
				op: sharedTypes.NewInsert(5, "a"),
				concurrent: []sharedTypes.Op{
					sharedTypes.NewInsert(3, "xyz"),
				},
			},
			want: sharedTypes.NewInsert(8, "a"),
		},
		{
			name: "afterDelete",
			args: args{
				op: sharedTypes.NewInsert(5, "a"),
				concurrent: []sharedTypes.Op{
					sharedTypes.NewDelete(2, 3),
				},
			},
			want: sharedTypes.NewInsert(2, "a"),
		},
		{
			name: "sequence",
			args: args{
				op: sharedTypes.NewDelete(10, 2),
				concurrent: []sharedTypes.Op{
					sharedTypes.NewInsert(0, "ab"),
					sharedTypes.NewDelete(0, 4),
					sharedTypes.NewInsert(20, "ignored"),
				},
			},
			want: sharedTypes.NewDelete(8, 2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform(tt.args.op, tt.args.concurrent)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Transform() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransformConverges(t *testing.T) {
	base := sharedTypes.Snapshot("hello world")
	tests := []struct {
		name string
		a    sharedTypes.Op
		b    sharedTypes.Op
		want string
	}{
		{
			name: "insertAndDelete",
			a:    sharedTypes.NewInsert(0, "X"),
			b:    sharedTypes.NewDelete(6, 5),
			want: "Xhello ",
		},
		{
			name: "twoInserts",
			a:    sharedTypes.NewInsert(5, ","),
			b:    sharedTypes.NewInsert(11, "!"),
			want: "hello, world!",
		},
		{
			name: "twoDeletes",
			a:    sharedTypes.NewDelete(0, 1),
			b:    sharedTypes.NewDelete(10, 1),
			want: "ello worl",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s1, _, err := Apply(base, tt.a)
			if err != nil {
				t.Fatal(err)
			}
			s1, _, err = Apply(s1, Transform(tt.b, []sharedTypes.Op{tt.a}))
			if err != nil {
				t.Fatal(err)
			}

			s2, _, err := Apply(base, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			s2, _, err = Apply(s2, Transform(tt.a, []sharedTypes.Op{tt.b}))
			if err != nil {
				t.Fatal(err)
			}

			if string(s1) != tt.want || string(s2) != tt.want {
				t.Errorf("a,b = %q; b,a = %q; want %q", s1, s2, tt.want)
			}
		})
	}
}
