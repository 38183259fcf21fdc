package routes

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"groupifyserver/collections"
	"groupifyserver/groupauth"
	"groupifyserver/storage"
)

const (
	defaultRecentActivities = 10
	defaultDeadlineDays     = 7
	// Firestore caps "in" filters at 10 values.
	maxInFilterValues = 10
)

func (api *API) registerDashboard(r *mux.Router) {
	r.HandleFunc("/stats", api.guard.Handle(api.dashboardStats)).Methods(http.MethodGet)
	r.HandleFunc("/recent-activities", api.guard.Handle(api.recentActivities)).Methods(http.MethodGet)
	r.HandleFunc("/upcoming-deadlines", api.guard.Handle(api.upcomingDeadlines)).Methods(http.MethodGet)
}

// activeGroupIDs resolves the caller's Active group ids, the starting point of
// every dashboard fan-out.
func (api *API) activeGroupIDs(r *http.Request, caller groupauth.Caller) ([]string, error) {
	docs, err := api.db.Query(r.Context(), collections.Groups, []storage.Filter{
		{Path: collections.MembersField, Op: "array-contains", Value: caller.UID},
		{Path: collections.IsActiveField, Op: "==", Value: true},
	}, nil, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func (api *API) dashboardStats(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	groupIDs, err := api.activeGroupIDs(r, caller)
	if err != nil {
		internalError(w, "Get dashboard stats error", err)
		return
	}

	var total, pending, inProgress, completed, mine int
	for _, groupID := range groupIDs {
		docs, err := api.db.Query(r.Context(), collections.Tasks, []storage.Filter{
			{Path: collections.GroupIDField, Op: "==", Value: groupID},
		}, nil, 0)
		if err != nil {
			internalError(w, "Get dashboard stats error", err)
			return
		}
		for _, task := range decodeTasks(docs) {
			total++
			switch task.Status {
			case collections.StatusToDo:
				pending++
			case collections.StatusInProgress:
				inProgress++
			case collections.StatusDone:
				completed++
			}
			if task.AssignedTo == caller.UID {
				mine++
			}
		}
	}

	completionRate := 0
	if total > 0 {
		completionRate = int(math.Round(float64(completed) / float64(total) * 100))
	}

	respond(w, http.StatusOK, envelope{
		"success": true,
		"stats": envelope{
			"totalGroups":     len(groupIDs),
			"totalTasks":      total,
			"pendingTasks":    pending,
			"inProgressTasks": inProgress,
			"completedTasks":  completed,
			"myTasks":         mine,
			"completionRate":  completionRate,
		},
	})
}

func (api *API) recentActivities(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	limit := defaultRecentActivities
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	groupIDs, err := api.activeGroupIDs(r, caller)
	if err != nil {
		internalError(w, "Get recent activities error", err)
		return
	}
	if len(groupIDs) == 0 {
		respond(w, http.StatusOK, envelope{
			"success":    true,
			"count":      0,
			"activities": []collections.ActivityLog{},
		})
		return
	}
	if len(groupIDs) > maxInFilterValues {
		groupIDs = groupIDs[:maxInFilterValues]
	}

	docs, err := api.db.Query(r.Context(), collections.ActivityLogs, []storage.Filter{
		{Path: collections.GroupIDField, Op: "in", Value: groupIDs},
	}, &storage.Order{Path: collections.TimestampField, Desc: true}, limit)
	if err != nil {
		internalError(w, "Get recent activities error", err)
		return
	}

	activities := decodeActivities(docs)
	respond(w, http.StatusOK, envelope{
		"success":    true,
		"count":      len(activities),
		"activities": activities,
	})
}

func (api *API) upcomingDeadlines(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	days := defaultDeadlineDays
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	now := api.now()
	future := now.AddDate(0, 0, days)

	docs, err := api.db.Query(r.Context(), collections.Tasks, []storage.Filter{
		{Path: collections.AssignedToField, Op: "==", Value: caller.UID},
		{Path: collections.StatusField, Op: "in", Value: []string{collections.StatusToDo, collections.StatusInProgress}},
	}, &storage.Order{Path: collections.DueDateField}, 0)
	if err != nil {
		internalError(w, "Get upcoming deadlines error", err)
		return
	}

	// The day window is computed against wall-clock now; the store only
	// pre-filters by assignee and status.
	upcoming := []collections.Task{}
	for _, task := range decodeTasks(docs) {
		if task.DueDate == nil {
			continue
		}
		due := *task.DueDate
		if due.Before(now) || due.After(future) {
			continue
		}
		upcoming = append(upcoming, task)
	}

	respond(w, http.StatusOK, envelope{
		"success": true,
		"count":   len(upcoming),
		"tasks":   upcoming,
	})
}
