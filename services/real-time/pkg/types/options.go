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

package types

import (
	"os"
	"time"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/options/env"
	docstoreTypes "github.com/das7pad/collab-text/services/docstore/pkg/types"
	documentUpdaterTypes "github.com/das7pad/collab-text/services/document-updater/pkg/types"
)

type FanOut string

const (
	FanOutLocal FanOut = "local"
	FanOutRedis FanOut = "redis"
)

type Options struct {
	WriteQueueDepth int    `json:"write_queue_depth"`
	MaxMessageSize  int64  `json:"max_message_size"`
	FanOut          FanOut `json:"fan_out"`

	// CommitTimeout bounds a commit. It runs detached from the connection.
	CommitTimeout time.Duration `json:"commit_timeout"`

	GracefulShutdown struct {
		Delay   time.Duration `json:"delay"`
		Timeout time.Duration `json:"timeout"`
	} `json:"graceful_shutdown"`

	Presence struct {
		TTL               time.Duration `json:"ttl"`
		HeartbeatInterval time.Duration `json:"heartbeat_interval"`
	} `json:"presence"`

	AuthCache struct {
		Size int           `json:"size"`
		TTL  time.Duration `json:"ttl"`
	} `json:"auth_cache"`

	APIs struct {
		Docstore struct {
			Options *docstoreTypes.Options `json:"options"`
		} `json:"docstore"`
		DocumentUpdater struct {
			Options *documentUpdaterTypes.Options `json:"options"`
		} `json:"document_updater"`
	} `json:"apis"`
}

func (o *Options) FillFromEnv() {
	o.WriteQueueDepth = 50
	o.MaxMessageSize = 1024 * 1024
	o.FanOut = FanOutLocal
	o.CommitTimeout = 30 * time.Second
	o.GracefulShutdown.Delay = 3 * time.Second
	o.GracefulShutdown.Timeout = 30 * time.Second
	o.Presence.TTL = 300 * time.Second
	o.Presence.HeartbeatInterval = 15 * time.Second
	o.AuthCache.Size = 1000
	o.AuthCache.TTL = time.Minute
	o.APIs.Docstore.Options = &docstoreTypes.Options{
		Backend: docstoreTypes.Backend(
			env.GetString("DOCSTORE_BACKEND", string(docstoreTypes.Mongo)),
		),
	}
	o.APIs.DocumentUpdater.Options = &documentUpdaterTypes.Options{}
	o.APIs.DocumentUpdater.Options.FillFromEnv()

	if os.Getenv("REAL_TIME_OPTIONS") != "" {
		env.MustParseJSON(o, "REAL_TIME_OPTIONS")
	}
}

func (o *Options) Validate() error {
	if o.WriteQueueDepth <= 0 {
		return &errors.ValidationError{
			Msg: "write_queue_depth must be greater than 0",
		}
	}
	if o.MaxMessageSize <= 0 {
		return &errors.ValidationError{
			Msg: "max_message_size must be greater than 0",
		}
	}
	switch o.FanOut {
	case FanOutLocal, FanOutRedis:
	default:
		return &errors.ValidationError{
			Msg: "fan_out must be one of local or redis",
		}
	}
	if o.CommitTimeout <= 0 {
		return &errors.ValidationError{
			Msg: "commit_timeout must be greater than 0",
		}
	}
	if o.GracefulShutdown.Timeout <= 0 {
		return &errors.ValidationError{
			Msg: "graceful_shutdown.timeout must be greater than 0",
		}
	}
	if o.Presence.TTL <= 0 {
		return &errors.ValidationError{
			Msg: "presence.ttl must be greater than 0",
		}
	}
	if o.Presence.HeartbeatInterval <= 0 ||
		o.Presence.HeartbeatInterval >= o.Presence.TTL {
		return &errors.ValidationError{
			Msg: "presence.heartbeat_interval must be in (0, ttl)",
		}
	}
	if o.AuthCache.Size <= 0 {
		return &errors.ValidationError{
			Msg: "auth_cache.size must be greater than 0",
		}
	}
	if o.APIs.Docstore.Options == nil {
		return &errors.ValidationError{
			Msg: "missing apis.docstore.options",
		}
	}
	if err := o.APIs.Docstore.Options.Validate(); err != nil {
		return errors.Tag(err, "apis.docstore.options is invalid")
	}
	if o.APIs.DocumentUpdater.Options == nil {
		return &errors.ValidationError{
			Msg: "missing apis.document_updater.options",
		}
	}
	if err := o.APIs.DocumentUpdater.Options.Validate(); err != nil {
		return errors.Tag(err, "apis.document_updater.options is invalid")
	}
	return nil
}
