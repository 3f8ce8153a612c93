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
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRouter(t *testing.T) {
	ready := true
	r := NewRouter(&RouterOptions{
		StatusMessage: "collab-text is alive",
		Ready:         func() bool { return ready },
	})

	get := func(path string) (int, string) {
		t.Helper()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		body, err := io.ReadAll(w.Result().Body)
		if err != nil {
			t.Fatalf("read body: %s", err)
		}
		return w.Code, string(body)
	}

	if code, body := get("/status"); code != http.StatusOK || !strings.Contains(body, "alive") {
		t.Errorf("GET /status = %d %q", code, body)
	}
	if code, body := get("/metrics"); code != http.StatusOK || !strings.Contains(body, "go_goroutines") {
		t.Errorf("GET /metrics = %d, missing go_goroutines", code)
	}

	ready = false
	if code, _ := get("/status"); code != http.StatusServiceUnavailable {
		t.Errorf("GET /status while shutting down = %d, want 503", code)
	}
}
