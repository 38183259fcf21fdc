package routes

import (
	"net/http"
	"testing"

	"groupifyserver/collections"
	"groupifyserver/webcodes"
)

func createNotificationFor(t *testing.T, env *testEnv, token, userID, title string) collections.Notification {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/notifications/create", token, map[string]string{
		"userId":  userID,
		"type":    "task_assigned",
		"title":   title,
		"message": "A task was assigned to you",
	})
	wantStatus(t, w, http.StatusCreated)
	var body struct {
		Notification collections.Notification `json:"notification"`
	}
	decodeBody(t, w, &body)
	return body.Notification
}

func TestCreateNotification(t *testing.T) {
	env := newTestEnv(t)
	sender := env.addCaller("u1", "u1@example.com")
	env.addCaller("u2", "u2@example.com")

	// Any authenticated caller may notify any user.
	notif := createNotificationFor(t, env, sender, "u2", "New task")
	if notif.UserID != "u2" || notif.Type != "task_assigned" || notif.IsRead {
		t.Errorf("notification = %+v", notif)
	}
	if notif.ID == "" {
		t.Error("notification has no id")
	}

	w := env.do(t, http.MethodPost, "/api/notifications/create", sender, map[string]string{
		"userId": "u2",
		"type":   "task_assigned",
	})
	wantError(t, w, http.StatusBadRequest, "userId, type, title, and message are required")
}

func TestMyNotifications(t *testing.T) {
	env := newTestEnv(t)
	sender := env.addCaller("u1", "u1@example.com")
	recipient := env.addCaller("u2", "u2@example.com")

	first := createNotificationFor(t, env, sender, "u2", "first")
	createNotificationFor(t, env, sender, "u2", "second")
	createNotificationFor(t, env, sender, "u1", "someone else's")

	w := env.do(t, http.MethodGet, "/api/notifications/my-notifications", recipient, nil)
	wantStatus(t, w, http.StatusOK)
	if got := bodyMap(t, w)["count"]; got != float64(2) {
		t.Errorf("count = %v, want 2", got)
	}

	w = env.do(t, http.MethodPut, "/api/notifications/"+first.ID+"/read", recipient, nil)
	wantStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/notifications/my-notifications?unreadOnly=true", recipient, nil)
	wantStatus(t, w, http.StatusOK)
	var body struct {
		Notifications []collections.Notification `json:"notifications"`
	}
	decodeBody(t, w, &body)
	if len(body.Notifications) != 1 || body.Notifications[0].Title != "second" {
		t.Errorf("unread notifications = %+v", body.Notifications)
	}
}

func TestMarkReadRecipientOnly(t *testing.T) {
	env := newTestEnv(t)
	sender := env.addCaller("u1", "u1@example.com")
	recipient := env.addCaller("u2", "u2@example.com")

	notif := createNotificationFor(t, env, sender, "u2", "read me")

	// The sender is not the recipient, so it cannot touch the notification.
	w := env.do(t, http.MethodPut, "/api/notifications/"+notif.ID+"/read", sender, nil)
	wantError(t, w, http.StatusForbidden, webcodes.MsgAccessDenied)

	w = env.do(t, http.MethodPut, "/api/notifications/"+notif.ID+"/read", recipient, nil)
	wantStatus(t, w, http.StatusOK)

	var stored collections.Notification
	if err := env.store.Get(nil, collections.Notifications, notif.ID, &stored); err != nil {
		t.Fatal(err)
	}
	if !stored.IsRead {
		t.Error("notification not marked read")
	}

	w = env.do(t, http.MethodPut, "/api/notifications/missing/read", recipient, nil)
	wantError(t, w, http.StatusNotFound, webcodes.MsgNotificationNotFound)
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	sender := env.addCaller("u1", "u1@example.com")
	recipient := env.addCaller("u2", "u2@example.com")

	createNotificationFor(t, env, sender, "u2", "a")
	createNotificationFor(t, env, sender, "u2", "b")
	createNotificationFor(t, env, sender, "u2", "c")
	createNotificationFor(t, env, sender, "u1", "not yours")

	w := env.do(t, http.MethodPut, "/api/notifications/mark-all-read", recipient, nil)
	wantStatus(t, w, http.StatusOK)
	if got := bodyMap(t, w)["message"]; got != "3 notifications marked as read" {
		t.Errorf("message = %v", got)
	}

	w = env.do(t, http.MethodGet, "/api/notifications/my-notifications?unreadOnly=true", recipient, nil)
	wantStatus(t, w, http.StatusOK)
	if got := bodyMap(t, w)["count"]; got != float64(0) {
		t.Errorf("unread count after mark-all-read = %v, want 0", got)
	}
}

func TestMarkAllReadNothingUnread(t *testing.T) {
	env := newTestEnv(t)
	recipient := env.addCaller("u2", "u2@example.com")

	// No notifications at all still succeeds without touching the store.
	w := env.do(t, http.MethodPut, "/api/notifications/mark-all-read", recipient, nil)
	wantStatus(t, w, http.StatusOK)
	if got := bodyMap(t, w)["message"]; got != "0 notifications marked as read" {
		t.Errorf("message = %v", got)
	}
}

func TestDeleteNotificationRecipientOnly(t *testing.T) {
	env := newTestEnv(t)
	sender := env.addCaller("u1", "u1@example.com")
	recipient := env.addCaller("u2", "u2@example.com")

	notif := createNotificationFor(t, env, sender, "u2", "delete me")

	w := env.do(t, http.MethodDelete, "/api/notifications/"+notif.ID, sender, nil)
	wantError(t, w, http.StatusForbidden, webcodes.MsgAccessDenied)

	w = env.do(t, http.MethodDelete, "/api/notifications/"+notif.ID, recipient, nil)
	wantStatus(t, w, http.StatusOK)

	var gone collections.Notification
	if err := env.store.Get(nil, collections.Notifications, notif.ID, &gone); err == nil {
		t.Error("notification survived deletion")
	}
}
