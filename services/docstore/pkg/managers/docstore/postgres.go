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
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/docstore/pkg/types"
)

const Schema = `
CREATE TABLE IF NOT EXISTS documents
(
    id            TEXT PRIMARY KEY,
    content       TEXT   NOT NULL,
    version       BIGINT NOT NULL DEFAULT 0,
    created_by    TEXT   NOT NULL,
    collaborators TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS document_history
(
    doc_id      TEXT        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
    version     BIGINT      NOT NULL,
    kind        TEXT        NOT NULL,
    position    INT         NOT NULL,
    text        TEXT        NOT NULL DEFAULT '',
    length      INT         NOT NULL DEFAULT 0,
    user_id     TEXT        NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    origin      TEXT        NOT NULL DEFAULT '',
    reverts     BIGINT      NOT NULL DEFAULT 0,
    reverted_by TEXT        NULL,
    reverted_in BIGINT      NOT NULL DEFAULT 0,
    redone_in   BIGINT      NOT NULL DEFAULT 0,
    PRIMARY KEY (doc_id, version)
);
`

func NewPostgres(db *pgxpool.Pool) Manager {
	return &postgresManager{db: db}
}

// EnsureSchema creates the tables of the postgres backend.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return errors.Tag(err, "create schema")
	}
	return nil
}

type postgresManager struct {
	db *pgxpool.Pool
}

func (m *postgresManager) CreateDoc(ctx context.Context, ownerId primitive.ObjectID, collaborators []primitive.ObjectID, content sharedTypes.Snapshot) (primitive.ObjectID, error) {
	if err := content.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	id := primitive.NewObjectID()
	c := make([]string, len(collaborators))
	for i, userId := range collaborators {
		c[i] = userId.Hex()
	}
	_, err := m.db.Exec(ctx, `
INSERT INTO documents (id, content, version, created_by, collaborators)
VALUES ($1, $2, 0, $3, $4)
`, id.Hex(), string(content), ownerId.Hex(), c)
	if err != nil {
		return primitive.NilObjectID, errors.Tag(err, "insert doc")
	}
	return id, nil
}

func (m *postgresManager) AddCollaborator(ctx context.Context, docId, userId primitive.ObjectID) error {
	r, err := m.db.Exec(ctx, `
UPDATE documents
SET collaborators = array_append(collaborators, $2)
WHERE id = $1
  AND created_by != $2
  AND NOT $2 = ANY (collaborators)
`, docId.Hex(), userId.Hex())
	if err != nil {
		return errors.Tag(err, "add collaborator")
	}
	if r.RowsAffected() == 1 {
		return nil
	}
	return m.checkExists(ctx, m.db, docId)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (m *postgresManager) checkExists(ctx context.Context, q rowQuerier, docId primitive.ObjectID) error {
	exists := false
	err := q.QueryRow(ctx, `
SELECT TRUE
FROM documents
WHERE id = $1
`, docId.Hex()).Scan(&exists)
	if err == pgx.ErrNoRows {
		return &errors.NotFoundError{}
	}
	if err != nil {
		return errors.Tag(err, "check doc exists")
	}
	return nil
}

func (m *postgresManager) Authorize(ctx context.Context, docId, userId primitive.ObjectID) error {
	isMember := false
	err := m.db.QueryRow(ctx, `
SELECT created_by = $2 OR $2 = ANY (collaborators)
FROM documents
WHERE id = $1
`, docId.Hex(), userId.Hex()).Scan(&isMember)
	if err == pgx.ErrNoRows {
		return &errors.NotFoundError{}
	}
	if err != nil {
		return errors.Tag(err, "check membership")
	}
	if !isMember {
		return &errors.NotAuthorizedError{}
	}
	return nil
}

func parseIds(raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, len(raw))
	for i, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (m *postgresManager) GetDoc(ctx context.Context, docId primitive.ObjectID) (*sharedTypes.Doc, error) {
	d := sharedTypes.Doc{Id: docId}
	var content, createdBy string
	var collaborators []string
	err := m.db.QueryRow(ctx, `
SELECT content, version, created_by, collaborators
FROM documents
WHERE id = $1
`, docId.Hex()).Scan(&content, &d.Version, &createdBy, &collaborators)
	if err == pgx.ErrNoRows {
		return nil, &errors.NotFoundError{}
	}
	if err != nil {
		return nil, errors.Tag(err, "get doc")
	}
	d.Snapshot = sharedTypes.Snapshot(content)
	if d.CreatedBy, err = primitive.ObjectIDFromHex(createdBy); err != nil {
		return nil, errors.Tag(err, "parse created_by")
	}
	if d.Collaborators, err = parseIds(collaborators); err != nil {
		return nil, errors.Tag(err, "parse collaborators")
	}

	rows, err := m.db.Query(ctx, `
SELECT version,
       kind,
       position,
       text,
       length,
       user_id,
       created_at,
       origin,
       reverts,
       reverted_by,
       reverted_in,
       redone_in
FROM document_history
WHERE doc_id = $1
  AND version <= $2
ORDER BY version
`, docId.Hex(), d.Version)
	if err != nil {
		return nil, errors.Tag(err, "get history")
	}
	defer rows.Close()
	d.History = make(sharedTypes.History, 0, d.Version)
	for rows.Next() {
		var e sharedTypes.HistoryEntry
		var text, userId string
		var revertedBy *string
		var createdAt time.Time
		err = rows.Scan(
			&e.Version,
			&e.Kind,
			&e.Position,
			&text,
			&e.Length,
			&userId,
			&createdAt,
			&e.Origin,
			&e.Reverts,
			&revertedBy,
			&e.RevertedIn,
			&e.RedoneIn,
		)
		if err != nil {
			return nil, errors.Tag(err, "scan history")
		}
		if text != "" {
			e.Text = sharedTypes.Snippet(text)
		}
		e.Timestamp = createdAt
		if e.UserId, err = primitive.ObjectIDFromHex(userId); err != nil {
			return nil, errors.Tag(err, "parse user_id")
		}
		if revertedBy != nil {
			id, err2 := primitive.ObjectIDFromHex(*revertedBy)
			if err2 != nil {
				return nil, errors.Tag(err2, "parse reverted_by")
			}
			e.RevertedBy = &id
		}
		d.History = append(d.History, e)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Tag(err, "iterate history")
	}
	return &d, nil
}

func (m *postgresManager) Commit(ctx context.Context, docId primitive.ObjectID, r *types.CommitRequest) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
UPDATE documents
SET content = $3,
    version = $4
WHERE id = $1
  AND version = $2
`, docId.Hex(), r.ExpectedVersion(), string(r.Snapshot), r.Entry.Version)
		if err != nil {
			return errors.Tag(err, "update doc")
		}
		if res.RowsAffected() != 1 {
			if err = m.checkExists(ctx, tx, docId); err != nil {
				return err
			}
			return &errors.CommitConflictError{
				Expected: int64(r.ExpectedVersion()),
			}
		}

		e := r.Entry
		_, err = tx.Exec(ctx, `
INSERT INTO document_history
(doc_id, version, kind, position, text, length, user_id, created_at, origin,
 reverts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`,
			docId.Hex(), e.Version, string(e.Kind), e.Position,
			string(e.Text), e.Length, e.UserId.Hex(), e.Timestamp,
			string(e.Origin), e.Reverts,
		)
		if err != nil {
			return errors.Tag(err, "insert history entry")
		}

		if mk := r.Marker; mk != nil {
			var revertedBy *string
			if mk.RevertedBy != nil {
				s := mk.RevertedBy.Hex()
				revertedBy = &s
			}
			_, err = tx.Exec(ctx, `
UPDATE document_history
SET reverted_by = coalesce($3, reverted_by),
    reverted_in = CASE WHEN $4 = 0 THEN reverted_in ELSE $4 END,
    redone_in   = CASE WHEN $5 = 0 THEN redone_in ELSE $5 END
WHERE doc_id = $1
  AND version = $2
`, docId.Hex(), mk.Version, revertedBy, mk.RevertedIn, mk.RedoneIn)
			if err != nil {
				return errors.Tag(err, "update marker")
			}
		}
		return nil
	})
}
