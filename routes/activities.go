package routes

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	log "groupifyserver/cloudlog"
	"groupifyserver/collections"
	"groupifyserver/groupauth"
	"groupifyserver/storage"
	"groupifyserver/webcodes"
)

const defaultActivityPageSize = 20

func (api *API) registerActivities(r *mux.Router) {
	r.HandleFunc("/log", api.guard.Handle(api.logActivity)).Methods(http.MethodPost)
	r.HandleFunc("/group/{groupId}", api.guard.Handle(api.groupActivities)).Methods(http.MethodGet)
}

func (api *API) logActivity(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	var req struct {
		GroupID  string                 `json:"groupId"`
		Action   string                 `json:"action"`
		Details  string                 `json:"details"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.GroupID == "" || req.Action == "" {
		fail(w, http.StatusBadRequest, "groupId and action are required")
		return
	}

	group, ok := api.fetchGroup(w, r, req.GroupID)
	if !ok {
		return
	}
	if !groupauth.CanAccessGroup(caller, group) {
		fail(w, http.StatusForbidden, webcodes.MsgAccessDenied)
		return
	}

	if req.Metadata == nil {
		req.Metadata = map[string]interface{}{}
	}
	entry := collections.ActivityLog{
		GroupID:   req.GroupID,
		UserID:    caller.UID,
		Action:    req.Action,
		Details:   req.Details,
		Metadata:  req.Metadata,
		Timestamp: api.now(),
	}
	id, err := api.db.Add(r.Context(), collections.ActivityLogs, entry)
	if err != nil {
		internalError(w, "Log activity error", err)
		return
	}
	entry.ID = id

	respond(w, http.StatusCreated, envelope{
		"success":  true,
		"message":  "Activity logged",
		"activity": entry,
	})
}

func decodeActivities(docs []storage.Doc) []collections.ActivityLog {
	activities := []collections.ActivityLog{}
	for _, doc := range docs {
		var a collections.ActivityLog
		if err := doc.DataTo(&a); err != nil {
			log.Printf("Error decoding activity %s: %v", doc.ID, err)
			continue
		}
		a.ID = doc.ID
		activities = append(activities, a)
	}
	return activities
}

func (api *API) groupActivities(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	groupID := mux.Vars(r)["groupId"]
	group, ok := api.fetchGroup(w, r, groupID)
	if !ok {
		return
	}
	if !groupauth.CanAccessGroup(caller, group) {
		fail(w, http.StatusForbidden, webcodes.MsgAccessDenied)
		return
	}

	limit := defaultActivityPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	docs, err := api.db.Query(r.Context(), collections.ActivityLogs, []storage.Filter{
		{Path: collections.GroupIDField, Op: "==", Value: groupID},
	}, &storage.Order{Path: collections.TimestampField, Desc: true}, limit)
	if err != nil {
		internalError(w, "Get activities error", err)
		return
	}

	activities := decodeActivities(docs)
	respond(w, http.StatusOK, envelope{
		"success":    true,
		"count":      len(activities),
		"activities": activities,
	})
}
