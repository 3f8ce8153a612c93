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
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/das7pad/collab-text/pkg/errors"
)

func RespondPlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.FormatInt(int64(len(body)), 10))
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func RespondErr(w http.ResponseWriter, r *http.Request, err error) {
	Respond(w, r, 0, nil, err)
}

func Respond(w http.ResponseWriter, r *http.Request, code int, body interface{}, err error) {
	if err != nil {
		var errMessage string
		code, errMessage = GetAndLogErrResponseDetails(r, err)
		body = map[string]string{"message": errMessage}
	}
	if body == nil {
		if code != http.StatusNoContent {
			w.Header().Set("Content-Length", "0")
		}
		w.WriteHeader(code)
		return
	}
	blob, err := json.Marshal(body)
	if err != nil {
		GetAndLogErrResponseDetails(r, errors.Tag(err, "serialize body"))
		code = http.StatusInternalServerError
		blob = fatalSerializeError
	}
	w.Header().Set("Content-Length", strconv.FormatInt(int64(len(blob)), 10))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(blob)
}

var fatalSerializeError = []byte(`{"message":"internal server error"}`)

func GetAndLogErrResponseDetails(r *http.Request, err error) (int, string) {
	code := http.StatusInternalServerError
	errMessage := err.Error()
	switch {
	case errors.IsValidationError(err):
		code = http.StatusBadRequest
	case errors.IsUnauthorizedError(err):
		code = http.StatusUnauthorized
	case errors.IsNotAuthorizedError(err):
		code = http.StatusForbidden
	case errors.IsNotFoundError(err):
		code = http.StatusNotFound
	case errors.IsCommitConflictError(err), errors.IsInvalidStateError(err):
		code = http.StatusConflict
	case errors.IsBodyTooLargeError(err):
		code = http.StatusRequestEntityTooLarge
	default:
		log.Printf("%s %s: %s", r.Method, r.URL.Path, errMessage)
		errMessage = "internal server error"
	}
	return code, errMessage
}
