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

package pendingOperation

import (
	"context"
	"testing"
	"time"

	"github.com/das7pad/collab-text/pkg/errors"
)

func TestTrackOperation(t *testing.T) {
	errFoo := errors.New("foo")
	release := make(chan struct{})
	p := TrackOperation(func() error {
		<-release
		return errFoo
	})
	if !p.IsPending() {
		t.Fatal("IsPending() = false before completion")
	}
	close(release)
	if err := p.Wait(context.Background()); err != errFoo {
		t.Errorf("Wait() = %v, want %v", err, errFoo)
	}
	if p.IsPending() || !p.Failed() {
		t.Errorf("IsPending() = %v, Failed() = %v", p.IsPending(), p.Failed())
	}
}

func TestTrackOperationWithCancel(t *testing.T) {
	p := TrackOperationWithCancel(
		context.Background(),
		func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		},
	)
	ctx, done := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer done()
	if err := p.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Wait() = %v, want deadline exceeded", err)
	}
	p.Cancel()
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("Wait() after Cancel() = %v", err)
	}
	if p.Failed() {
		t.Error("Failed() = true after clean exit")
	}
}
