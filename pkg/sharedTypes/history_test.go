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

package sharedTypes

import (
	"reflect"
	"testing"
)

func history(n int) History {
	h := make(History, n)
	for i := range h {
		h[i] = HistoryEntry{
			Op:      NewInsert(i, "x"),
			Version: Version(i + 1),
		}
	}
	return h
}

func TestHistory_Since(t *testing.T) {
	h := history(4)
	tests := []struct {
		name string
		v    Version
		want History
	}{
		{name: "fromStart", v: 0, want: h},
		{name: "middle", v: 2, want: h[2:]},
		{name: "upToDate", v: 4, want: nil},
		{name: "negative", v: -1, want: h},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Since(tt.v); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Since() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHistory_At(t *testing.T) {
	h := history(3)
	if got := h.At(2); got == nil || got.Version != 2 {
		t.Errorf("At(2) = %v", got)
	}
	if got := h.At(0); got != nil {
		t.Errorf("At(0) = %v, want nil", got)
	}
	if got := h.At(4); got != nil {
		t.Errorf("At(4) = %v, want nil", got)
	}
	// Entries that do not start at version 1.
	if got := h[1:].At(3); got == nil || got.Version != 3 {
		t.Errorf("At(3) on offset history = %v", got)
	}
}
