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

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/docstore/pkg/models"
	"github.com/das7pad/collab-text/services/docstore/pkg/types"
)

func NewMongo(db *mongo.Database) Manager {
	return &mongoManager{
		cDocs: db.Collection("documents"),
	}
}

type mongoManager struct {
	cDocs *mongo.Collection
}

var docMembersProjection = bson.M{
	"_id":           true,
	"createdBy":     true,
	"collaborators": true,
}

func rewriteMongoError(err error) error {
	if err == mongo.ErrNoDocuments {
		return &errors.NotFoundError{}
	}
	return err
}

func docFilter(docId primitive.ObjectID) bson.M {
	return bson.M{"_id": docId}
}

func (m *mongoManager) CreateDoc(ctx context.Context, ownerId primitive.ObjectID, collaborators []primitive.ObjectID, content sharedTypes.Snapshot) (primitive.ObjectID, error) {
	if err := content.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	if collaborators == nil {
		collaborators = make([]primitive.ObjectID, 0)
	}
	doc := models.Doc{}
	doc.Id = primitive.NewObjectID()
	doc.Content = string(content)
	doc.CreatedBy = ownerId
	doc.Collaborators = collaborators
	doc.History = make([]models.HistoryEntry, 0)
	if _, err := m.cDocs.InsertOne(ctx, doc); err != nil {
		return primitive.NilObjectID, errors.Tag(err, "insert doc")
	}
	return doc.Id, nil
}

func (m *mongoManager) AddCollaborator(ctx context.Context, docId, userId primitive.ObjectID) error {
	r, err := m.cDocs.UpdateOne(
		ctx,
		docFilter(docId),
		bson.M{"$addToSet": bson.M{"collaborators": userId}},
	)
	if err != nil {
		return errors.Tag(err, "add collaborator")
	}
	if r.MatchedCount == 0 {
		return &errors.NotFoundError{}
	}
	return nil
}

func (m *mongoManager) Authorize(ctx context.Context, docId, userId primitive.ObjectID) error {
	var d models.DocMembers
	err := m.cDocs.FindOne(
		ctx,
		docFilter(docId),
		options.FindOne().SetProjection(docMembersProjection),
	).Decode(&d)
	if err != nil {
		return rewriteMongoError(err)
	}
	if d.CreatedBy == userId {
		return nil
	}
	for _, id := range d.Collaborators {
		if id == userId {
			return nil
		}
	}
	return &errors.NotAuthorizedError{}
}

func (m *mongoManager) GetDoc(ctx context.Context, docId primitive.ObjectID) (*sharedTypes.Doc, error) {
	var d models.Doc
	err := m.cDocs.FindOne(ctx, docFilter(docId)).Decode(&d)
	if err != nil {
		return nil, rewriteMongoError(err)
	}
	return d.ToDoc(), nil
}

func (m *mongoManager) Commit(ctx context.Context, docId primitive.ObjectID, r *types.CommitRequest) error {
	if err := r.Validate(); err != nil {
		return err
	}
	set := bson.M{
		"content": string(r.Snapshot),
		"version": r.Entry.Version,
	}
	if mk := r.Marker; mk != nil {
		prefix := "markers." + models.MarkerKey(mk.Version) + "."
		if mk.RevertedBy != nil {
			set[prefix+"revertedBy"] = *mk.RevertedBy
		}
		if mk.RevertedIn != 0 {
			set[prefix+"revertedIn"] = mk.RevertedIn
		}
		if mk.RedoneIn != 0 {
			set[prefix+"redoneIn"] = mk.RedoneIn
		}
	}
	res, err := m.cDocs.UpdateOne(
		ctx,
		bson.M{
			"_id":     docId,
			"version": r.ExpectedVersion(),
		},
		bson.M{
			"$set":  set,
			"$push": bson.M{"history": models.NewHistoryEntry(r.Entry)},
		},
	)
	if err != nil {
		return errors.Tag(err, "commit")
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := m.cDocs.CountDocuments(
		ctx, docFilter(docId), options.Count().SetLimit(1),
	)
	if err != nil {
		return errors.Tag(err, "check doc exists")
	}
	if n == 0 {
		return &errors.NotFoundError{}
	}
	return &errors.CommitConflictError{Expected: int64(r.ExpectedVersion())}
}
