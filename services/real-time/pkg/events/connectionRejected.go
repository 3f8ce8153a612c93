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
	"github.com/gorilla/websocket"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/services/real-time/pkg/types"
)

func closeWith(reason string) types.WriteQueueEntry {
	return types.WriteQueueEntry{
		CloseCode:   websocket.ClosePolicyViolation,
		CloseReason: reason,
	}
}

var (
	ConnectionRejectedInvalidParameters = closeWith("Invalid parameters")
	ConnectionRejectedUnauthorized      = closeWith("Unauthorized")
	ConnectionRejectedDocNotFound       = closeWith("Document not found")
	ConnectionRejectedAuthFailed        = closeWith("Authentication failed")
	ConnectionRejectedRetry             = types.WriteQueueEntry{
		CloseCode:   websocket.CloseTryAgainLater,
		CloseReason: "retry",
	}
	ServerShutdown = types.WriteQueueEntry{
		CloseCode:   websocket.CloseGoingAway,
		CloseReason: "server shutdown",
	}
)

// ConnectionRejected maps a failed handshake to the close frame for the
// client.
func ConnectionRejected(err error) types.WriteQueueEntry {
	switch {
	case errors.IsNotFoundError(err):
		return ConnectionRejectedDocNotFound
	case errors.IsUnauthorizedError(err), errors.IsNotAuthorizedError(err):
		return ConnectionRejectedUnauthorized
	case errors.IsValidationError(err):
		return ConnectionRejectedInvalidParameters
	default:
		return ConnectionRejectedAuthFailed
	}
}
