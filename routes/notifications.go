package routes

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	log "groupifyserver/cloudlog"
	"groupifyserver/collections"
	"groupifyserver/events"
	"groupifyserver/groupauth"
	"groupifyserver/storage"
	"groupifyserver/webcodes"
)

const notificationPageSize = 50

func (api *API) registerNotifications(r *mux.Router) {
	r.HandleFunc("/create", api.guard.Handle(api.createNotification)).Methods(http.MethodPost)
	r.HandleFunc("/my-notifications", api.guard.Handle(api.myNotifications)).Methods(http.MethodGet)
	r.HandleFunc("/mark-all-read", api.guard.Handle(api.markAllRead)).Methods(http.MethodPut)
	r.HandleFunc("/{notificationId}/read", api.guard.Handle(api.markRead)).Methods(http.MethodPut)
	r.HandleFunc("/{notificationId}", api.guard.Handle(api.deleteNotification)).Methods(http.MethodDelete)
}

// createNotification deliberately has no ownership check: any authenticated
// caller may notify any user (e.g. "you were assigned a task").
func (api *API) createNotification(w http.ResponseWriter, r *http.Request, _ groupauth.Caller) {
	var req struct {
		UserID  string `json:"userId"`
		Type    string `json:"type"`
		Title   string `json:"title"`
		Message string `json:"message"`
		GroupID string `json:"groupId"`
		TaskID  string `json:"taskId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Type == "" || req.Title == "" || req.Message == "" {
		fail(w, http.StatusBadRequest, "userId, type, title, and message are required")
		return
	}

	ctx := r.Context()
	notif := collections.Notification{
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		GroupID:   req.GroupID,
		TaskID:    req.TaskID,
		IsRead:    false,
		CreatedAt: api.now(),
	}
	id, err := api.db.Add(ctx, collections.Notifications, notif)
	if err != nil {
		internalError(w, "Create notification error", err)
		return
	}
	notif.ID = id

	api.events.NotificationCreated(ctx, events.NotificationEvent{
		NotificationID: id,
		UserID:         notif.UserID,
		Type:           notif.Type,
		Title:          notif.Title,
	})

	respond(w, http.StatusCreated, envelope{
		"success":      true,
		"message":      "Notification created",
		"notification": notif,
	})
}

func (api *API) myNotifications(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	filters := []storage.Filter{
		{Path: collections.UserIDField, Op: "==", Value: caller.UID},
	}
	if r.URL.Query().Get("unreadOnly") == "true" {
		filters = append(filters, storage.Filter{Path: collections.IsReadField, Op: "==", Value: false})
	}
	docs, err := api.db.Query(r.Context(), collections.Notifications, filters,
		&storage.Order{Path: collections.CreatedAtField, Desc: true}, notificationPageSize)
	if err != nil {
		internalError(w, "Get notifications error", err)
		return
	}

	notifications := []collections.Notification{}
	for _, doc := range docs {
		var n collections.Notification
		if err := doc.DataTo(&n); err != nil {
			log.Printf("Error decoding notification %s: %v", doc.ID, err)
			continue
		}
		n.ID = doc.ID
		notifications = append(notifications, n)
	}
	respond(w, http.StatusOK, envelope{
		"success":       true,
		"count":         len(notifications),
		"notifications": notifications,
	})
}

// fetchNotification resolves the notification or writes the response itself.
func (api *API) fetchNotification(w http.ResponseWriter, r *http.Request, id string) (*collections.Notification, bool) {
	var notif collections.Notification
	err := api.db.Get(r.Context(), collections.Notifications, id, &notif)
	if err == storage.ErrNotFound {
		fail(w, http.StatusNotFound, webcodes.MsgNotificationNotFound)
		return nil, false
	}
	if err != nil {
		internalError(w, "Get notification error", err)
		return nil, false
	}
	notif.ID = id
	return &notif, true
}

func (api *API) markRead(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	notif, ok := api.fetchNotification(w, r, mux.Vars(r)["notificationId"])
	if !ok {
		return
	}
	if !groupauth.CanTouchNotification(caller, notif) {
		fail(w, http.StatusForbidden, webcodes.MsgAccessDenied)
		return
	}
	if err := api.db.Update(r.Context(), collections.Notifications, notif.ID, []storage.Update{
		{Path: collections.IsReadField, Value: true},
	}); err != nil {
		internalError(w, "Mark notification read error", err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Notification marked as read",
	})
}

func (api *API) markAllRead(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	ctx := r.Context()
	docs, err := api.db.Query(ctx, collections.Notifications, []storage.Filter{
		{Path: collections.UserIDField, Op: "==", Value: caller.UID},
		{Path: collections.IsReadField, Op: "==", Value: false},
	}, nil, 0)
	if err != nil {
		internalError(w, "Mark all read error", err)
		return
	}

	writes := make([]storage.BatchWrite, 0, len(docs))
	for _, doc := range docs {
		writes = append(writes, storage.BatchWrite{
			Kind:       storage.BatchUpdate,
			Collection: collections.Notifications,
			ID:         doc.ID,
			Updates: []storage.Update{
				{Path: collections.IsReadField, Value: true},
			},
		})
	}
	if err := api.db.Batch(ctx, writes); err != nil {
		internalError(w, "Mark all read error", err)
		return
	}

	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": fmt.Sprintf("%d notifications marked as read", len(writes)),
	})
}

func (api *API) deleteNotification(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	notif, ok := api.fetchNotification(w, r, mux.Vars(r)["notificationId"])
	if !ok {
		return
	}
	if !groupauth.CanTouchNotification(caller, notif) {
		fail(w, http.StatusForbidden, webcodes.MsgAccessDenied)
		return
	}
	if err := api.db.Delete(r.Context(), collections.Notifications, notif.ID); err != nil {
		internalError(w, "Delete notification error", err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Notification deleted",
	})
}
