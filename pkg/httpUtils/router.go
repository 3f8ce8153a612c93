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
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	StatusMessage string
	// Ready reports false while the process is shutting down.
	Ready func() bool
}

func NewRouter(options *RouterOptions) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoverPanic)

	status := func(w http.ResponseWriter, _ *http.Request) {
		if options.Ready != nil && !options.Ready() {
			RespondPlain(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		RespondPlain(w, http.StatusOK, options.StatusMessage)
	}
	router.HandleFunc("/status", status).Methods(http.MethodGet, http.MethodHead)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return router
}

func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Printf("%s %s: panic: %v", r.Method, r.URL.Path, err)
				RespondPlain(w, http.StatusInternalServerError, "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
