// Package routes wires the HTTP surface: one file per resource prefix, all of
// them thin compositions of the auth guard, an access policy and store calls.
package routes

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"groupifyserver/events"
	"groupifyserver/groupauth"
	"groupifyserver/storage"
)

// API holds the injected collaborators every handler uses.
type API struct {
	db       storage.Store
	accounts storage.Accounts
	blobs    storage.BlobStore
	guard    *groupauth.Guard
	events   *events.Publisher
	validate *validator.Validate

	// now is swapped out in tests.
	now func() time.Time
}

// New builds the API around its external collaborators. pub may be nil.
func New(db storage.Store, accounts storage.Accounts, blobs storage.BlobStore, verifier groupauth.Verifier, pub *events.Publisher) *API {
	return &API{
		db:       db,
		accounts: accounts,
		blobs:    blobs,
		guard:    groupauth.NewGuard(verifier),
		events:   pub,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Router builds the full route table.
func (api *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", api.health).Methods(http.MethodGet)

	api.registerAuth(r.PathPrefix("/api/auth").Subrouter())
	api.registerUser(r.PathPrefix("/api/user").Subrouter())
	api.registerGroups(r.PathPrefix("/api/groups").Subrouter())
	api.registerTasks(r.PathPrefix("/api/tasks").Subrouter())
	api.registerFiles(r.PathPrefix("/api/files").Subrouter())
	api.registerNotifications(r.PathPrefix("/api/notifications").Subrouter())
	api.registerActivities(r.PathPrefix("/api/activities").Subrouter())
	api.registerDashboard(r.PathPrefix("/api/dashboard").Subrouter())

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusNotFound, "Route not found")
	})
	return r
}

func (api *API) health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, envelope{
		"success":   true,
		"message":   "Groupify API is running",
		"timestamp": api.now().Format(time.RFC3339),
		"endpoints": map[string]string{
			"auth":          "/api/auth",
			"user":          "/api/user",
			"groups":        "/api/groups",
			"tasks":         "/api/tasks",
			"files":         "/api/files",
			"notifications": "/api/notifications",
			"activities":    "/api/activities",
			"dashboard":     "/api/dashboard",
		},
	})
}
