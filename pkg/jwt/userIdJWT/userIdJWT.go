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

package userIdJWT

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/jwt/jwtHandler"
	"github.com/das7pad/collab-text/pkg/options/jwtOptions"
)

type Claims struct {
	jwt.RegisteredClaims
	UserId primitive.ObjectID `json:"id"`
	Email  string             `json:"email,omitempty"`
}

var ErrMissingUserId = &errors.UnauthorizedError{Reason: "missing user id"}

func (c *Claims) Valid() error {
	if err := c.RegisteredClaims.Valid(); err != nil {
		return err
	}
	if c.UserId.IsZero() {
		return ErrMissingUserId
	}
	return nil
}

type JWTHandler = jwtHandler.JWTHandler[*Claims]

func New(options jwtOptions.JWTOptions) *JWTHandler {
	return jwtHandler.New[*Claims](options, func() *Claims {
		return &Claims{}
	})
}

// Verifier resolves a bearer token to the id of the user it was issued for.
type Verifier interface {
	Verify(ctx context.Context, token string) (primitive.ObjectID, error)
}

func NewVerifier(h *JWTHandler) Verifier {
	return &verifier{h: h}
}

type verifier struct {
	h *JWTHandler
}

func (v *verifier) Verify(_ context.Context, token string) (primitive.ObjectID, error) {
	if token == "" {
		return primitive.NilObjectID, &errors.UnauthorizedError{
			Reason: "missing token",
		}
	}
	c, err := v.h.Parse(token)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return c.UserId, nil
}

// Issue signs a token for the given user, expiring after the configured
// duration.
func Issue(h *JWTHandler, userId primitive.ObjectID, email string) (string, error) {
	c := h.New()
	c.UserId = userId
	c.Email = email
	now := time.Now()
	c.IssuedAt = jwt.NewNumericDate(now)
	if h.ExpiresIn() > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(h.ExpiresIn()))
	}
	return h.Sign(c)
}
