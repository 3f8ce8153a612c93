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
	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/services/real-time/pkg/types"
)

func prepareError(code types.ErrorCode) types.WriteQueueEntry {
	return types.MustPrepareMessage(&types.ErrorMessage{
		Type:    types.Error,
		Message: code,
	})
}

var errorMessages = map[types.ErrorCode]types.WriteQueueEntry{}

func init() {
	for _, code := range []types.ErrorCode{
		types.InvalidOperationFormat,
		types.OperationFailed,
		types.NoOperationToUndo,
		types.NoOperationToRedo,
		types.CannotUndo,
		types.UndoFailed,
	} {
		errorMessages[code] = prepareError(code)
	}
}

// ErrorCodeFor maps a failed request to the code reported to the client.
func ErrorCodeFor(err error) types.ErrorCode {
	switch {
	case errors.IsNoOperationToUndoError(err):
		return types.NoOperationToUndo
	case errors.IsNoOperationToRedoError(err):
		return types.NoOperationToRedo
	case errors.IsCannotUndoError(err):
		return types.CannotUndo
	case errors.IsUndoFailedError(err):
		return types.UndoFailed
	case errors.IsValidationError(err):
		return types.InvalidOperationFormat
	default:
		return types.OperationFailed
	}
}

func ErrorMessage(code types.ErrorCode) types.WriteQueueEntry {
	return errorMessages[code]
}
