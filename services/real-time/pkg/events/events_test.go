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

package events

import (
	"context"
	"testing"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/services/real-time/pkg/types"
)

func TestErrorCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.ErrorCode
	}{
		{"validation", &errors.ValidationError{Msg: "x"}, types.InvalidOperationFormat},
		{"position", &errors.InvalidPositionError{}, types.InvalidOperationFormat},
		{"tagged length", errors.Tag(&errors.InvalidLengthError{}, "apply"), types.InvalidOperationFormat},
		{"nothing to undo", &errors.NoOperationToUndoError{}, types.NoOperationToUndo},
		{"nothing to redo", &errors.NoOperationToRedoError{}, types.NoOperationToRedo},
		{"cannot undo", &errors.CannotUndoError{Msg: "x"}, types.CannotUndo},
		{"undo failed", errors.NewUndoFailedError(&errors.InvalidLengthError{}), types.UndoFailed},
		{"timeout", context.DeadlineExceeded, types.OperationFailed},
		{"conflict", &errors.CommitConflictError{}, types.OperationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCodeFor(tt.err); got != tt.want {
				t.Errorf("ErrorCodeFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConnectionRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing doc", errors.Tag(&errors.NotFoundError{}, "get doc"), "Document not found"},
		{"bad token", &errors.UnauthorizedError{Reason: "x"}, "Unauthorized"},
		{"not a member", &errors.NotAuthorizedError{}, "Unauthorized"},
		{"bad id", &errors.ValidationError{Msg: "invalid id"}, "Invalid parameters"},
		{"store down", errors.New("connection refused"), "Authentication failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConnectionRejected(tt.err)
			if got.CloseCode != 1008 || got.CloseReason != tt.want {
				t.Errorf("ConnectionRejected() = %d %q, want 1008 %q", got.CloseCode, got.CloseReason, tt.want)
			}
		})
	}
}
