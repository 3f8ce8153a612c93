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

package errors

import (
	"strconv"
)

type InvalidPositionError struct {
	Position int
	Length   int
}

func (e *InvalidPositionError) Error() string {
	return "invalid position: " + strconv.Itoa(e.Position) +
		" is outside of [0, " + strconv.Itoa(e.Length) + "]"
}

func (e *InvalidPositionError) IsUserFacing() {}

type InvalidLengthError struct {
	Position int
	Length   int
	Content  int
}

func (e *InvalidLengthError) Error() string {
	return "invalid length: " + strconv.Itoa(e.Length) +
		" at " + strconv.Itoa(e.Position) +
		" exceeds content length " + strconv.Itoa(e.Content)
}

func (e *InvalidLengthError) IsUserFacing() {}

// CommitConflictError signals that the stored version moved on between
// reading the document and committing to it.
type CommitConflictError struct {
	Expected int64
}

func (e *CommitConflictError) Error() string {
	return "commit conflict: version is no longer " +
		strconv.FormatInt(e.Expected, 10)
}

func IsCommitConflictError(err error) bool {
	_, ok := GetCause(err).(*CommitConflictError)
	return ok
}

type NoOperationToUndoError struct{}

func (e *NoOperationToUndoError) Error() string {
	return "no operation to undo"
}

func (e *NoOperationToUndoError) IsUserFacing() {}

func IsNoOperationToUndoError(err error) bool {
	_, ok := GetCause(err).(*NoOperationToUndoError)
	return ok
}

type NoOperationToRedoError struct{}

func (e *NoOperationToRedoError) Error() string {
	return "no operation to redo"
}

func (e *NoOperationToRedoError) IsUserFacing() {}

func IsNoOperationToRedoError(err error) bool {
	_, ok := GetCause(err).(*NoOperationToRedoError)
	return ok
}

type CannotUndoError struct {
	Msg string
}

func (e *CannotUndoError) Error() string {
	return "cannot undo: " + e.Msg
}

func (e *CannotUndoError) IsUserFacing() {}

func IsCannotUndoError(err error) bool {
	_, ok := GetCause(err).(*CannotUndoError)
	return ok
}

// UndoFailedError wraps a failure to apply an otherwise valid inverse.
type UndoFailedError struct {
	cause error
}

func (e *UndoFailedError) Error() string {
	return "undo failed: " + e.cause.Error()
}

func (e *UndoFailedError) Unwrap() error {
	return e.cause
}

func NewUndoFailedError(cause error) *UndoFailedError {
	return &UndoFailedError{cause: cause}
}

func IsUndoFailedError(err error) bool {
	_, ok := GetCause(err).(*UndoFailedError)
	return ok
}
