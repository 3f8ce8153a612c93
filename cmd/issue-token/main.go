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

package main

import (
	"flag"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/jwt/userIdJWT"
	"github.com/das7pad/collab-text/pkg/options/env"
	"github.com/das7pad/collab-text/pkg/options/jwtOptions"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
)

func issue(userIdRaw, email string) (primitive.ObjectID, string, error) {
	userId := primitive.NewObjectID()
	if userIdRaw != "" {
		var err error
		if userId, err = sharedTypes.ParseId(userIdRaw); err != nil {
			return userId, "", errors.Tag(err, "invalid user-id")
		}
	}
	h := userIdJWT.New(jwtOptions.Parse("JWT_SECRET"))
	token, err := userIdJWT.Issue(h, userId, email)
	if err != nil {
		return userId, "", errors.Tag(err, "sign token")
	}
	return userId, token, nil
}

func main() {
	if err := env.Load(); err != nil {
		panic(err)
	}
	var userIdRaw, email string
	flag.StringVar(&userIdRaw, "user-id", "", "optional user-id, a new one is generated when empty")
	flag.StringVar(&email, "email", "", "optional email to embed")
	var quiet bool
	flag.BoolVar(&quiet, "quiet", false, "just print the token on success")
	flag.Parse()

	userId, token, err := issue(userIdRaw, email)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERR: %s\n", err.Error())
		flag.Usage()
		os.Exit(1)
	}
	if quiet {
		fmt.Println(token)
		return
	}
	fmt.Printf(`
-------------------------------------------------------------------------------

    Pass the token as bearer token to the HTTP API or as token query
     parameter when opening the websocket.

    User:  %s
    Token: %s

-------------------------------------------------------------------------------
`, userId.Hex(), token)
}
