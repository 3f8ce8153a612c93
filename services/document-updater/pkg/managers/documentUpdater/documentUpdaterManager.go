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

package documentUpdater

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/appliedOps"
	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/redisLocker"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/docstore/pkg/managers/docstore"
	docstoreTypes "github.com/das7pad/collab-text/services/docstore/pkg/types"
	"github.com/das7pad/collab-text/services/document-updater/pkg/managers/documentUpdater/internal/historyManager"
	"github.com/das7pad/collab-text/services/document-updater/pkg/text"
	"github.com/das7pad/collab-text/services/document-updater/pkg/types"
)

type Manager interface {
	CreateDoc(ctx context.Context, ownerId primitive.ObjectID, collaborators []primitive.ObjectID, content sharedTypes.Snapshot) (primitive.ObjectID, error)
	Authorize(ctx context.Context, docId, userId primitive.ObjectID) error

	// AddCollaborator grants userId access. Only the owner may do so.
	AddCollaborator(ctx context.Context, docId, ownerId, userId primitive.ObjectID) error
	GetDoc(ctx context.Context, docId primitive.ObjectID) (*sharedTypes.Doc, error)

	// ApplyUpdate commits an edit of a client, rebased onto the latest
	// version. Commits of one document are serialized and published in
	// commit order.
	ApplyUpdate(ctx context.Context, docId primitive.ObjectID, update types.DocumentUpdate) (*types.CommitResult, error)
	Undo(ctx context.Context, docId primitive.ObjectID, meta types.DocumentUpdateMeta) (*types.CommitResult, error)
	Redo(ctx context.Context, docId primitive.ObjectID, meta types.DocumentUpdateMeta) (*types.CommitResult, error)

	// SetContent replaces the content with one entry per differing chunk.
	SetContent(ctx context.Context, docId primitive.ObjectID, meta types.DocumentUpdateMeta, content sharedTypes.Snapshot) ([]types.CommitResult, error)
}

func New(options *types.Options, dm docstore.Manager, locker redisLocker.Locker, publisher appliedOps.Publisher) (Manager, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &manager{
		dm:        dm,
		locker:    locker,
		publisher: publisher,
		o:         *options,
		now:       time.Now,
	}, nil
}

type manager struct {
	dm        docstore.Manager
	locker    redisLocker.Locker
	publisher appliedOps.Publisher
	o         types.Options
	now       func() time.Time
}

type planner func(doc *sharedTypes.Doc) (*historyManager.Plan, error)

func (m *manager) CreateDoc(ctx context.Context, ownerId primitive.ObjectID, collaborators []primitive.ObjectID, content sharedTypes.Snapshot) (primitive.ObjectID, error) {
	var docId primitive.ObjectID
	err := m.once(ctx, func(ctx context.Context) error {
		var err error
		docId, err = m.dm.CreateDoc(ctx, ownerId, collaborators, content)
		return err
	})
	return docId, err
}

func (m *manager) Authorize(ctx context.Context, docId, userId primitive.ObjectID) error {
	return m.retry(ctx, func(ctx context.Context) error {
		return m.dm.Authorize(ctx, docId, userId)
	})
}

func (m *manager) AddCollaborator(ctx context.Context, docId, ownerId, userId primitive.ObjectID) error {
	if userId.IsZero() {
		return &errors.ValidationError{Msg: "missing user id"}
	}
	doc, err := m.GetDoc(ctx, docId)
	if err != nil {
		return err
	}
	if doc.CreatedBy != ownerId {
		return &errors.NotAuthorizedError{}
	}
	if doc.IsMember(userId) {
		return nil
	}
	return m.retry(ctx, func(ctx context.Context) error {
		return m.dm.AddCollaborator(ctx, docId, userId)
	})
}

func (m *manager) GetDoc(ctx context.Context, docId primitive.ObjectID) (*sharedTypes.Doc, error) {
	var d *sharedTypes.Doc
	err := m.retry(ctx, func(ctx context.Context) error {
		var err error
		d, err = m.dm.GetDoc(ctx, docId)
		return err
	})
	if err != nil {
		return nil, errors.Tag(err, "get doc")
	}
	return d, nil
}

func (m *manager) ApplyUpdate(ctx context.Context, docId primitive.ObjectID, update types.DocumentUpdate) (*types.CommitResult, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	var r *types.CommitResult
	err := m.locker.RunWithLock(ctx, docId, func(ctx context.Context) error {
		var err error
		r, err = m.commit(ctx, docId, update.Meta, func(doc *sharedTypes.Doc) (*historyManager.Plan, error) {
			if err := update.Version.CheckNotAhead(doc.Version); err != nil {
				return nil, err
			}
			return &historyManager.Plan{
				Op: historyManager.Rebase(
					doc.History, update.Op, update.Version,
				),
				Origin: sharedTypes.Edit,
			}, nil
		})
		return err
	})
	return r, err
}

func (m *manager) Undo(ctx context.Context, docId primitive.ObjectID, meta types.DocumentUpdateMeta) (*types.CommitResult, error) {
	return m.revert(ctx, docId, meta, historyManager.PlanUndo)
}

func (m *manager) Redo(ctx context.Context, docId primitive.ObjectID, meta types.DocumentUpdateMeta) (*types.CommitResult, error) {
	return m.revert(ctx, docId, meta, historyManager.PlanRedo)
}

func (m *manager) revert(ctx context.Context, docId primitive.ObjectID, meta types.DocumentUpdateMeta, fn func(h sharedTypes.History, userId primitive.ObjectID, n int) (*historyManager.Plan, error)) (*types.CommitResult, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	var r *types.CommitResult
	err := m.locker.RunWithLock(ctx, docId, func(ctx context.Context) error {
		var err error
		r, err = m.commit(ctx, docId, meta, func(doc *sharedTypes.Doc) (*historyManager.Plan, error) {
			return fn(doc.History, meta.UserId, len(doc.Snapshot))
		})
		return err
	})
	return r, err
}

func (m *manager) SetContent(ctx context.Context, docId primitive.ObjectID, meta types.DocumentUpdateMeta, content sharedTypes.Snapshot) ([]types.CommitResult, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}
	var results []types.CommitResult
	err := m.locker.RunWithLock(ctx, docId, func(ctx context.Context) error {
		doc, err := m.GetDoc(ctx, docId)
		if err != nil {
			return err
		}
		ops := text.Diff(doc.Snapshot, content)
		results = make([]types.CommitResult, 0, len(ops))
		for i, op := range ops {
			expected := doc.Version + sharedTypes.Version(i)
			r, err2 := m.commit(ctx, docId, meta, func(d *sharedTypes.Doc) (*historyManager.Plan, error) {
				if d.Version != expected {
					return nil, &errors.InvalidStateError{
						Msg: "doc changed while replacing content",
					}
				}
				return &historyManager.Plan{
					Op:     op,
					Origin: sharedTypes.Edit,
				}, nil
			})
			if err2 != nil {
				return err2
			}
			results = append(results, *r)
		}
		return nil
	})
	return results, err
}

// commit runs the read-plan-apply-persist-publish cycle. The caller holds
// the lock of the document.
func (m *manager) commit(ctx context.Context, docId primitive.ObjectID, meta types.DocumentUpdateMeta, fn planner) (*types.CommitResult, error) {
	for attempt := 1; ; attempt++ {
		doc, err := m.GetDoc(ctx, docId)
		if err != nil {
			return nil, err
		}
		p, err := fn(doc)
		if err != nil {
			return nil, err
		}

		op := text.Clamp(p.Op, len(doc.Snapshot))
		if op.IsDeletion() && op.Length == 0 {
			return &types.CommitResult{
				Entry: sharedTypes.HistoryEntry{Op: op, Version: doc.Version},
				Noop:  true,
			}, nil
		}
		s, applied, err := text.Apply(doc.Snapshot, op)
		if err != nil {
			if p.Origin != sharedTypes.Edit {
				return nil, errors.NewUndoFailedError(err)
			}
			return nil, err
		}

		entry := sharedTypes.HistoryEntry{
			Op:        applied,
			Version:   doc.Version + 1,
			Timestamp: m.now().UTC(),
			UserId:    meta.UserId,
			Origin:    p.Origin,
			Reverts:   p.Target,
		}
		r := &docstoreTypes.CommitRequest{
			Snapshot: s,
			Entry:    entry,
			Marker:   newMarker(p, meta.UserId, entry.Version),
		}
		err = m.once(ctx, func(ctx context.Context) error {
			return m.dm.Commit(ctx, docId, r)
		})
		if errors.IsCommitConflictError(err) && attempt < m.o.CommitAttempts {
			continue
		}
		if err != nil {
			return nil, errors.Tag(err, "commit")
		}

		c := appliedOps.Commit{
			DocId:  docId,
			Source: meta.Source,
			Entry:  entry,
		}
		if err = m.publisher.Publish(ctx, &c); err != nil {
			log.Printf(
				"doc=%s version=%d action=publish err=%s",
				docId.Hex(), entry.Version, err.Error(),
			)
		}
		return &types.CommitResult{Entry: entry}, nil
	}
}

func newMarker(p *historyManager.Plan, userId primitive.ObjectID, v sharedTypes.Version) *docstoreTypes.Marker {
	switch p.Origin {
	case sharedTypes.Undo:
		id := userId
		return &docstoreTypes.Marker{
			Version:    p.Target,
			RevertedBy: &id,
			RevertedIn: v,
		}
	case sharedTypes.Redo:
		return &docstoreTypes.Marker{
			Version:  p.Target,
			RedoneIn: v,
		}
	default:
		return nil
	}
}
