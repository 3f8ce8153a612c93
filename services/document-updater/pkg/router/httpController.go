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

package router

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
	"github.com/das7pad/collab-text/pkg/httpUtils"
	"github.com/das7pad/collab-text/pkg/jwt/userIdJWT"
	"github.com/das7pad/collab-text/pkg/sharedTypes"
	"github.com/das7pad/collab-text/services/document-updater/pkg/managers/documentUpdater"
	"github.com/das7pad/collab-text/services/document-updater/pkg/types"
)

const (
	maxSetContentRequestSize = 8 * 1024 * 1024
)

func Add(r *mux.Router, dum documentUpdater.Manager, v userIdJWT.Verifier) {
	h := httpController{dum: dum, v: v}
	r.HandleFunc("/api/notes", h.createDoc).Methods(http.MethodPost)
	r.HandleFunc("/api/notes/{docId}", h.getDoc).Methods(http.MethodGet)
	r.HandleFunc("/api/notes/{docId}/content", h.setContent).
		Methods(http.MethodPut)
	r.HandleFunc("/api/notes/{docId}/collaborators", h.addCollaborator).
		Methods(http.MethodPost)
}

type httpController struct {
	dum documentUpdater.Manager
	v   userIdJWT.Verifier
}

func (h *httpController) getUserId(r *http.Request) (primitive.ObjectID, error) {
	token, err := httpUtils.GetBearerToken(r)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return h.v.Verify(r.Context(), token)
}

func (h *httpController) authorize(r *http.Request) (primitive.ObjectID, primitive.ObjectID, error) {
	userId, err := h.getUserId(r)
	if err != nil {
		return userId, primitive.NilObjectID, err
	}
	docId, err := httpUtils.GetId(r, "docId")
	if err != nil {
		return userId, docId, err
	}
	if err = h.dum.Authorize(r.Context(), docId, userId); err != nil {
		return userId, docId, err
	}
	return userId, docId, nil
}

func parseJSON(r *http.Request, dst interface{}) error {
	blob, err := httpUtils.ReadBody(r, maxSetContentRequestSize)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(blob, dst); err != nil {
		return &errors.ValidationError{Msg: "invalid json: " + err.Error()}
	}
	return nil
}

type createDocRequest struct {
	Content       sharedTypes.Snapshot `json:"content"`
	Collaborators []primitive.ObjectID `json:"collaborators"`
}

type createDocResponse struct {
	Id primitive.ObjectID `json:"id"`
}

func (h *httpController) createDoc(w http.ResponseWriter, r *http.Request) {
	userId, err := h.getUserId(r)
	if err != nil {
		httpUtils.RespondErr(w, r, err)
		return
	}
	request := &createDocRequest{}
	if err = parseJSON(r, request); err != nil {
		httpUtils.RespondErr(w, r, err)
		return
	}
	if err = request.Content.Validate(); err != nil {
		httpUtils.RespondErr(w, r, err)
		return
	}
	docId, err := h.dum.CreateDoc(
		r.Context(), userId, request.Collaborators, request.Content,
	)
	httpUtils.Respond(
		w, r, http.StatusCreated, &createDocResponse{Id: docId}, err,
	)
}

func (h *httpController) getDoc(w http.ResponseWriter, r *http.Request) {
	_, docId, err := h.authorize(r)
	if err != nil {
		httpUtils.RespondErr(w, r, err)
		return
	}
	doc, err := h.dum.GetDoc(r.Context(), docId)
	httpUtils.Respond(w, r, http.StatusOK, doc, err)
}

type setContentRequest struct {
	Content sharedTypes.Snapshot `json:"content"`
}

type setContentResponse struct {
	Version sharedTypes.Version `json:"version"`
	Commits int                 `json:"commits"`
}

func (h *httpController) setContent(w http.ResponseWriter, r *http.Request) {
	userId, docId, err := h.authorize(r)
	if err != nil {
		httpUtils.RespondErr(w, r, err)
		return
	}
	request := &setContentRequest{}
	if err = parseJSON(r, request); err != nil {
		httpUtils.RespondErr(w, r, err)
		return
	}
	results, err := h.dum.SetContent(
		r.Context(), docId, types.DocumentUpdateMeta{UserId: userId},
		request.Content,
	)
	if err != nil {
		httpUtils.RespondErr(w, r, err)
		return
	}
	res := &setContentResponse{Commits: len(results)}
	if len(results) > 0 {
		res.Version = results[len(results)-1].Entry.Version
	} else {
		doc, err2 := h.dum.GetDoc(r.Context(), docId)
		if err2 != nil {
			httpUtils.RespondErr(w, r, err2)
			return
		}
		res.Version = doc.Version
	}
	httpUtils.Respond(w, r, http.StatusOK, res, nil)
}

type addCollaboratorRequest struct {
	UserId primitive.ObjectID `json:"userId"`
}

func (h *httpController) addCollaborator(w http.ResponseWriter, r *http.Request) {
	userId, docId, err := h.authorize(r)
	if err != nil {
		httpUtils.RespondErr(w, r, err)
		return
	}
	request := &addCollaboratorRequest{}
	if err = parseJSON(r, request); err != nil {
		httpUtils.RespondErr(w, r, err)
		return
	}
	err = h.dum.AddCollaborator(r.Context(), docId, userId, request.UserId)
	httpUtils.Respond(w, r, http.StatusNoContent, nil, err)
}
