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

package jwtHandler

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/options/jwtOptions"
)

type JWTHandler[T jwt.Claims] struct {
	expiresIn time.Duration
	key       interface{}
	keyFn     jwt.Keyfunc
	method    jwt.SigningMethod
	newClaims func() T
	p         *jwt.Parser
}

func New[T jwt.Claims](options jwtOptions.JWTOptions, newClaims func() T) *JWTHandler[T] {
	method := jwt.GetSigningMethod(options.Algorithm)
	if method == nil {
		panic(errors.New("unknown jwt algorithm: " + options.Algorithm))
	}
	key := options.Key
	return &JWTHandler[T]{
		expiresIn: options.ExpiresIn,
		key:       key,
		keyFn: func(_ *jwt.Token) (interface{}, error) {
			return key, nil
		},
		method:    method,
		newClaims: newClaims,
		p:         jwt.NewParser(jwt.WithValidMethods([]string{method.Alg()})),
	}
}

func (h *JWTHandler[T]) ExpiresIn() time.Duration {
	return h.expiresIn
}

func (h *JWTHandler[T]) New() T {
	return h.newClaims()
}

func (h *JWTHandler[T]) Parse(blob string) (T, error) {
	c := h.newClaims()
	if _, err := h.p.ParseWithClaims(blob, c, h.keyFn); err != nil {
		var zero T
		return zero, &errors.UnauthorizedError{Reason: err.Error()}
	}
	return c, nil
}

func (h *JWTHandler[T]) Sign(claims T) (string, error) {
	return jwt.NewWithClaims(h.method, claims).SignedString(h.key)
}
