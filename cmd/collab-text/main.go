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
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/das7pad/collab-text/cmd/pkg/utils"
	"github.com/das7pad/collab-text/pkg/appliedOps"
	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/httpUtils"
	"github.com/das7pad/collab-text/pkg/jwt/userIdJWT"
	"github.com/das7pad/collab-text/pkg/options/env"
	"github.com/das7pad/collab-text/pkg/options/jwtOptions"
	"github.com/das7pad/collab-text/pkg/options/listenAddress"
	"github.com/das7pad/collab-text/pkg/pendingOperation"
	"github.com/das7pad/collab-text/pkg/redisLocker"
	"github.com/das7pad/collab-text/services/docstore/pkg/managers/docstore"
	docstoreTypes "github.com/das7pad/collab-text/services/docstore/pkg/types"
	"github.com/das7pad/collab-text/services/document-updater/pkg/managers/documentUpdater"
	documentUpdaterRouter "github.com/das7pad/collab-text/services/document-updater/pkg/router"
	"github.com/das7pad/collab-text/services/real-time/pkg/managers/realTime"
	realTimeRouter "github.com/das7pad/collab-text/services/real-time/pkg/router"
	realTimeTypes "github.com/das7pad/collab-text/services/real-time/pkg/types"
)

func main() {
	if err := env.Load(); err != nil {
		panic(err)
	}
	triggerExitCtx, triggerExit := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer triggerExit()

	o := realTimeTypes.Options{}
	o.FillFromEnv()
	if err := o.Validate(); err != nil {
		panic(errors.Tag(err, "options"))
	}

	var rClient redis.UniversalClient
	locker := redisLocker.NewLocal()
	bus := appliedOps.NewLocal()
	if o.FanOut == realTimeTypes.FanOutRedis {
		rClient = utils.MustConnectRedis(triggerExitCtx)
		var err error
		if locker, err = redisLocker.New(rClient, "docLock"); err != nil {
			panic(errors.Tag(err, "locker setup"))
		}
		bus = appliedOps.NewRedis(rClient)
	}

	var mDB *mongo.Database
	var pgDB *pgxpool.Pool
	switch o.APIs.Docstore.Options.Backend {
	case docstoreTypes.Mongo:
		mDB = utils.MustConnectMongo(triggerExitCtx)
	case docstoreTypes.Postgres:
		pgDB = utils.MustConnectPostgres(triggerExitCtx)
		if err := docstore.EnsureSchema(triggerExitCtx, pgDB); err != nil {
			panic(errors.Tag(err, "ensure schema"))
		}
	}
	dm, err := docstore.New(*o.APIs.Docstore.Options, mDB, pgDB)
	if err != nil {
		panic(errors.Tag(err, "docstore setup"))
	}

	dum, err := documentUpdater.New(
		o.APIs.DocumentUpdater.Options, dm, locker, bus,
	)
	if err != nil {
		panic(errors.Tag(err, "document-updater setup"))
	}

	jwtHandler := userIdJWT.New(jwtOptions.Parse("JWT_SECRET"))
	v := userIdJWT.NewVerifier(jwtHandler)

	// Sessions and presence outlive the signal until all clients left.
	sessionsCtx, stopSessions := context.WithCancel(context.Background())
	defer stopSessions()
	rtm, err := realTime.New(sessionsCtx, &o, dum, bus, rClient, v)
	if err != nil {
		panic(errors.Tag(err, "realTime setup"))
	}

	r := httpUtils.NewRouter(&httpUtils.RouterOptions{
		StatusMessage: "collab-text is alive\n",
		Ready: func() bool {
			return !rtm.IsShuttingDown()
		},
	})
	realTimeRouter.Add(r, rtm, realTimeRouter.Options{
		WriteQueueDepth: o.WriteQueueDepth,
		MaxMessageSize:  o.MaxMessageSize,
	})
	documentUpdaterRouter.Add(r, dum, v)

	server := http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	eg, ctx := errgroup.WithContext(triggerExitCtx)
	httpUtils.ListenAndServeEach(eg.Go, &server, listenAddress.Parse(3026))
	eg.Go(func() error {
		<-ctx.Done()
		// Shutdown sequence:
		// - Stop accepting new websocket connections
		rtm.InitiateGracefulShutdown()
		// - Stop accepting new HTTP requests
		ctx2, done := context.WithTimeout(
			context.Background(), o.GracefulShutdown.Timeout,
		)
		defer done()
		pendingShutdown := pendingOperation.TrackOperation(func() error {
			return server.Shutdown(ctx2)
		})
		// - Ask clients to reconnect elsewhere
		rtm.TriggerGracefulReconnect()
		// - Wait for existing HTTP requests to finish processing
		err2 := pendingShutdown.Wait(ctx2)
		stopSessions()
		return err2
	})
	if err = eg.Wait(); err != nil && err != http.ErrServerClosed {
		log.Printf("shutdown: %s", err.Error())
	}
}
