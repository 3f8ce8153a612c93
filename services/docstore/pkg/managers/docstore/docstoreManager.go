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

package docstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/docstore/pkg/types"
)

type Manager interface {
	CreateDoc(ctx context.Context, ownerId primitive.ObjectID, collaborators []primitive.ObjectID, content sharedTypes.Snapshot) (primitive.ObjectID, error)
	AddCollaborator(ctx context.Context, docId, userId primitive.ObjectID) error

	// Authorize fails with errors.NotFoundError for missing documents and
	// errors.NotAuthorizedError for users that are neither owner nor
	// collaborator.
	Authorize(ctx context.Context, docId, userId primitive.ObjectID) error

	GetDoc(ctx context.Context, docId primitive.ObjectID) (*sharedTypes.Doc, error)

	// Commit persists the new content, the new entry and its version in
	// one step. It fails with errors.CommitConflictError when the stored
	// version is not request.ExpectedVersion().
	Commit(ctx context.Context, docId primitive.ObjectID, request *types.CommitRequest) error
}

func New(options types.Options, mDB *mongo.Database, pgDB *pgxpool.Pool) (Manager, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	switch options.Backend {
	case types.Mongo:
		return NewMongo(mDB), nil
	case types.Postgres:
		return NewPostgres(pgDB), nil
	default:
		return NewMemory(), nil
	}
}
