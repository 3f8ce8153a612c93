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
	"testing"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

func TestInvert(t *testing.T) {
	tests := []struct {
		name    string
		content string
		op      sharedTypes.Op
	}{
		{
			name:    "insert",
			content: "hello",
			op:      sharedTypes.NewInsert(5, " world"),
		},
		{
			name:    "insertUTF-8",
			content: "hällö",
			op:      sharedTypes.NewInsert(1, "äöü"),
		},
		{
			name:    "delete",
			content: "hello world",
			op:      sharedTypes.NewDelete(0, 6),
		},
		{
			name:    "deleteAll",
			content: "wörld",
			op:      sharedTypes.NewDelete(0, 5),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sharedTypes.Snapshot(tt.content)
			after, applied, err := Apply(c, tt.op)
			if err != nil {
				t.Fatal(err)
			}
			inverse, err := Invert(applied)
			if err != nil {
				t.Fatalf("Invert() error = %v", err)
			}
			got, _, err := Apply(after, inverse)
			if err != nil {
				t.Fatalf("Apply(inverse) error = %v", err)
			}
			if string(got) != tt.content {
				t.Errorf("round trip = %q, want %q", string(got), tt.content)
			}
		})
	}
}

func TestInvertWithoutRetainedText(t *testing.T) {
	_, err := Invert(sharedTypes.NewDelete(0, 3))
	if !errors.IsCannotUndoError(err) {
		t.Errorf("Invert() error = %v, want CannotUndoError", err)
	}
}
