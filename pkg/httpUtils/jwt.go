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

package httpUtils

import (
	"net/http"
	"strings"

	"github.com/das7pad/collab-text/pkg/errors"
)

var ErrMissingJWT = &errors.UnauthorizedError{Reason: "missing jwt"}

// GetBearerToken extracts the token from the Authorization header.
func GetBearerToken(r *http.Request) (string, error) {
	v := r.Header.Get("Authorization")
	if !strings.HasPrefix(v, "Bearer ") {
		return "", ErrMissingJWT
	}
	blob := strings.TrimSpace(v[len("Bearer "):])
	if blob == "" {
		return "", ErrMissingJWT
	}
	return blob, nil
}
