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

package mongoOptions

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/options/env"
)

func Parse() (*options.ClientOptions, string) {
	uri := env.GetString(
		"MONGO_URI",
		fmt.Sprintf(
			"mongodb://%s/collab-text",
			env.GetString("MONGO_HOST", "localhost:27017"),
		),
	)
	o := options.Client()
	o.ApplyURI(uri)
	o.SetAppName(env.GetString("SERVICE_NAME", "collab-text"))
	o.SetMaxPoolSize(uint64(env.GetInt("MONGO_POOL_SIZE", 10)))
	o.SetSocketTimeout(
		env.GetDuration("MONGO_SOCKET_TIMEOUT_S", 30*time.Second),
	)
	o.SetServerSelectionTimeout(env.GetDuration(
		"MONGO_SERVER_SELECTION_TIMEOUT_S",
		60*time.Second,
	))

	cs, err := connstring.Parse(uri)
	if err != nil {
		panic(errors.Tag(err, "parse connection string"))
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = "collab-text"
	}
	return o, dbName
}
