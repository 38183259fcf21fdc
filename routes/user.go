package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	log "groupifyserver/cloudlog"
	"groupifyserver/collections"
	"groupifyserver/groupauth"
	"groupifyserver/storage"
	"groupifyserver/webcodes"
)

func (api *API) registerUser(r *mux.Router) {
	r.HandleFunc("/profile", api.guard.Handle(api.getProfile)).Methods(http.MethodGet)
	r.HandleFunc("/profile", api.guard.Handle(api.updateProfile)).Methods(http.MethodPut)
	r.HandleFunc("/all", api.guard.Handle(api.listUsers)).Methods(http.MethodGet)
}

func (api *API) getProfile(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	var user collections.User
	err := api.db.Get(r.Context(), collections.Users, caller.UID, &user)
	if err == storage.ErrNotFound {
		fail(w, http.StatusNotFound, webcodes.MsgUserNotFound)
		return
	}
	if err != nil {
		internalError(w, "Profile error", err)
		return
	}
	respond(w, http.StatusOK, envelope{"success": true, "user": user})
}

func (api *API) updateProfile(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	var req struct {
		FullName  string `json:"fullName"`
		School    string `json:"school"`
		Course    string `json:"course"`
		YearLevel string `json:"yearLevel"`
		Section   string `json:"section"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	updates := []storage.Update{}
	for _, field := range []struct {
		path, value string
	}{
		{"fullName", req.FullName},
		{"school", req.School},
		{"course", req.Course},
		{"yearLevel", req.YearLevel},
		{"section", req.Section},
	} {
		if field.value != "" {
			updates = append(updates, storage.Update{Path: field.path, Value: field.value})
		}
	}
	if len(updates) == 0 {
		fail(w, http.StatusBadRequest, webcodes.MsgNoFields)
		return
	}

	ctx := r.Context()
	err := api.db.Update(ctx, collections.Users, caller.UID, updates)
	if err == storage.ErrNotFound {
		fail(w, http.StatusNotFound, webcodes.MsgUserNotFound)
		return
	}
	if err != nil {
		internalError(w, "Update profile error", err)
		return
	}

	var user collections.User
	if err := api.db.Get(ctx, collections.Users, caller.UID, &user); err != nil {
		internalError(w, "Update profile error", err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// listUsers returns every user document. Kept for admin/debug parity with the
// mobile client's directory screen.
func (api *API) listUsers(w http.ResponseWriter, r *http.Request, _ groupauth.Caller) {
	docs, err := api.db.Query(r.Context(), collections.Users, nil, nil, 0)
	if err != nil {
		internalError(w, "Get all users error", err)
		return
	}
	users := []collections.User{}
	for _, doc := range docs {
		var user collections.User
		if err := doc.DataTo(&user); err != nil {
			log.Printf("Error decoding user %s: %v", doc.ID, err)
			continue
		}
		users = append(users, user)
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}
