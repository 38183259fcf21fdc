package routes

import (
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	log "groupifyserver/cloudlog"
	"groupifyserver/collections"
	"groupifyserver/groupauth"
	"groupifyserver/storage"
	"groupifyserver/webcodes"
)

const (
	accessCodeLength          = 6
	maxCodeGenerationAttempts = 10
)

var errAccessCodeExhausted = errors.New("exhausted access code generation attempts")

func (api *API) registerGroups(r *mux.Router) {
	r.HandleFunc("/create", api.guard.Handle(api.createGroup)).Methods(http.MethodPost)
	r.HandleFunc("/my-groups", api.guard.Handle(api.myGroups)).Methods(http.MethodGet)
	r.HandleFunc("/join", api.guard.Handle(api.joinGroup)).Methods(http.MethodPost)
	r.HandleFunc("/{groupId}", api.guard.Handle(api.getGroup)).Methods(http.MethodGet)
	r.HandleFunc("/{groupId}", api.guard.Handle(api.updateGroup)).Methods(http.MethodPut)
	r.HandleFunc("/{groupId}", api.guard.Handle(api.deleteGroup)).Methods(http.MethodDelete)
}

// generateAccessCode draws a random value and keeps 6 upper-cased base-36
// characters, the human-shareable join code.
func generateAccessCode() string {
	s := ""
	for len(s) < accessCodeLength {
		s += strconv.FormatUint(rand.Uint64(), 36)
	}
	return strings.ToUpper(s[:accessCodeLength])
}

// freshAccessCode retries generation until no Active group holds the
// candidate code. Duplicate codes against inactive groups are fine: join only
// matches active ones.
func (api *API) freshAccessCode(r *http.Request) (string, error) {
	var lastErr error
	for i := 0; i < maxCodeGenerationAttempts; i++ {
		code := generateAccessCode()
		docs, err := api.db.Query(r.Context(), collections.Groups, []storage.Filter{
			{Path: collections.AccessCodeField, Op: "==", Value: code},
			{Path: collections.IsActiveField, Op: "==", Value: true},
		}, nil, 1)
		if err != nil {
			lastErr = err
			continue
		}
		if len(docs) == 0 {
			return code, nil
		}
		log.Printf("Access code collision on %s, retrying", code)
	}
	if lastErr == nil {
		lastErr = errAccessCodeExhausted
	}
	return "", lastErr
}

func (api *API) createGroup(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Subject     string `json:"subject"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Subject == "" {
		fail(w, http.StatusBadRequest, "Group name and subject are required")
		return
	}

	code, err := api.freshAccessCode(r)
	if err != nil {
		internalError(w, "Create group error", err)
		return
	}

	ctx := r.Context()
	group := collections.Group{
		Name:        req.Name,
		Description: req.Description,
		Subject:     req.Subject,
		CreatedBy:   caller.UID,
		Members:     []string{caller.UID}, // creator is automatically a member
		AccessCode:  code,
		IsActive:    true,
		CreatedAt:   api.now(),
	}
	id, err := api.db.Add(ctx, collections.Groups, group)
	if err != nil {
		internalError(w, "Create group error", err)
		return
	}
	group.ID = id

	if err := api.db.Update(ctx, collections.Users, caller.UID, []storage.Update{
		{Path: collections.GroupIDsField, Value: storage.ArrayUnion(id)},
	}); err != nil {
		internalError(w, "Create group error", err)
		return
	}

	respond(w, http.StatusCreated, envelope{
		"success": true,
		"message": "Group created successfully",
		"group":   group,
	})
}

func (api *API) myGroups(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	docs, err := api.db.Query(r.Context(), collections.Groups, []storage.Filter{
		{Path: collections.MembersField, Op: "array-contains", Value: caller.UID},
		{Path: collections.IsActiveField, Op: "==", Value: true},
	}, nil, 0)
	if err != nil {
		internalError(w, "Get groups error", err)
		return
	}
	groups := []collections.Group{}
	for _, doc := range docs {
		var g collections.Group
		if err := doc.DataTo(&g); err != nil {
			log.Printf("Error decoding group %s: %v", doc.ID, err)
			continue
		}
		g.ID = doc.ID
		groups = append(groups, g)
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"count":   len(groups),
		"groups":  groups,
	})
}

// fetchGroup resolves the group or writes the NotFound/Internal response itself.
func (api *API) fetchGroup(w http.ResponseWriter, r *http.Request, groupID string) (*collections.Group, bool) {
	var group collections.Group
	err := api.db.Get(r.Context(), collections.Groups, groupID, &group)
	if err == storage.ErrNotFound {
		fail(w, http.StatusNotFound, webcodes.MsgGroupNotFound)
		return nil, false
	}
	if err != nil {
		internalError(w, "Get group error", err)
		return nil, false
	}
	group.ID = groupID
	return &group, true
}

func (api *API) getGroup(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	group, ok := api.fetchGroup(w, r, mux.Vars(r)["groupId"])
	if !ok {
		return
	}
	if !groupauth.CanAccessGroup(caller, group) {
		fail(w, http.StatusForbidden, webcodes.MsgNotMember)
		return
	}
	respond(w, http.StatusOK, envelope{"success": true, "group": group})
}

func (api *API) joinGroup(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	var req struct {
		AccessCode string `json:"accessCode"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AccessCode == "" {
		fail(w, http.StatusBadRequest, "Access code is required")
		return
	}

	ctx := r.Context()
	docs, err := api.db.Query(ctx, collections.Groups, []storage.Filter{
		{Path: collections.AccessCodeField, Op: "==", Value: strings.ToUpper(req.AccessCode)},
		{Path: collections.IsActiveField, Op: "==", Value: true},
	}, nil, 1)
	if err != nil {
		internalError(w, "Join group error", err)
		return
	}
	if len(docs) == 0 {
		fail(w, http.StatusNotFound, webcodes.MsgInvalidCode)
		return
	}

	var group collections.Group
	if err := docs[0].DataTo(&group); err != nil {
		internalError(w, "Join group error", err)
		return
	}
	group.ID = docs[0].ID

	if group.HasMember(caller.UID) {
		fail(w, http.StatusConflict, webcodes.MsgAlreadyMember)
		return
	}

	if err := api.db.Update(ctx, collections.Groups, group.ID, []storage.Update{
		{Path: collections.MembersField, Value: storage.ArrayUnion(caller.UID)},
	}); err != nil {
		internalError(w, "Join group error", err)
		return
	}

	// The member append above and the groupIds write below are a paired,
	// non-atomic sequence.
	// TODO: on failure here, remove the member entry appended above instead of
	// leaving the pair inconsistent.
	var user collections.User
	err = api.db.Get(ctx, collections.Users, caller.UID, &user)
	switch {
	case err == storage.ErrNotFound:
		// Signup creates the user doc, but accounts provisioned directly in
		// the identity provider won't have one yet.
		err = api.db.Set(ctx, collections.Users, caller.UID, collections.User{
			UID:       caller.UID,
			Email:     caller.Email,
			GroupIDs:  []string{group.ID},
			CreatedAt: api.now(),
		})
	case err == nil:
		err = api.db.Update(ctx, collections.Users, caller.UID, []storage.Update{
			{Path: collections.GroupIDsField, Value: storage.ArrayUnion(group.ID)},
		})
	}
	if err != nil {
		internalError(w, "Join group error", err)
		return
	}

	group.Members = append(group.Members, caller.UID)
	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Successfully joined group",
		"group":   group,
	})
}

func (api *API) updateGroup(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	groupID := mux.Vars(r)["groupId"]
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Subject     string  `json:"subject"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	group, ok := api.fetchGroup(w, r, groupID)
	if !ok {
		return
	}
	if !groupauth.CanManageGroup(caller, group) {
		fail(w, http.StatusForbidden, "Only group creator can update group details")
		return
	}

	updates := []storage.Update{}
	if req.Name != "" {
		updates = append(updates, storage.Update{Path: "name", Value: req.Name})
	}
	if req.Description != nil {
		updates = append(updates, storage.Update{Path: "description", Value: *req.Description})
	}
	if req.Subject != "" {
		updates = append(updates, storage.Update{Path: "subject", Value: req.Subject})
	}
	if len(updates) == 0 {
		fail(w, http.StatusBadRequest, webcodes.MsgNoFields)
		return
	}

	if err := api.db.Update(r.Context(), collections.Groups, groupID, updates); err != nil {
		internalError(w, "Update group error", err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Group updated successfully",
	})
}

func (api *API) deleteGroup(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	groupID := mux.Vars(r)["groupId"]
	group, ok := api.fetchGroup(w, r, groupID)
	if !ok {
		return
	}
	if !groupauth.CanManageGroup(caller, group) {
		fail(w, http.StatusForbidden, "Only group creator can delete group")
		return
	}

	ctx := r.Context()
	// Soft delete: the document stays, only the flag flips. There is no
	// reactivation path.
	if err := api.db.Update(ctx, collections.Groups, groupID, []storage.Update{
		{Path: collections.IsActiveField, Value: false},
	}); err != nil {
		internalError(w, "Delete group error", err)
		return
	}

	writes := make([]storage.BatchWrite, 0, len(group.Members))
	for _, memberID := range group.Members {
		writes = append(writes, storage.BatchWrite{
			Kind:       storage.BatchUpdate,
			Collection: collections.Users,
			ID:         memberID,
			Updates: []storage.Update{
				{Path: collections.GroupIDsField, Value: storage.ArrayRemove(groupID)},
			},
		})
	}
	if err := api.db.Batch(ctx, writes); err != nil {
		internalError(w, "Delete group error", err)
		return
	}

	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Group deleted successfully",
	})
}
