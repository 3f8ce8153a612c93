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
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

// GetId parses the named path parameter.
func GetId(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := sharedTypes.ParseId(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, &errors.ValidationError{
			Msg: "invalid " + name,
		}
	}
	return id, nil
}

// ReadBody reads at most limit bytes of the request body.
func ReadBody(r *http.Request, limit int64) ([]byte, error) {
	if r.ContentLength > limit {
		return nil, &errors.BodyTooLargeError{}
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, errors.Tag(err, "read body")
	}
	if int64(len(blob)) > limit {
		return nil, &errors.BodyTooLargeError{}
	}
	return blob, nil
}
