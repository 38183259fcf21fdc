package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	log "groupifyserver/cloudlog"
	"groupifyserver/collections"
	"groupifyserver/groupauth"
	"groupifyserver/storage"
	"groupifyserver/webcodes"
)

func (api *API) registerTasks(r *mux.Router) {
	r.HandleFunc("/create", api.guard.Handle(api.createTask)).Methods(http.MethodPost)
	r.HandleFunc("/my-tasks", api.guard.Handle(api.myTasks)).Methods(http.MethodGet)
	r.HandleFunc("/group/{groupId}", api.guard.Handle(api.groupTasks)).Methods(http.MethodGet)
	r.HandleFunc("/{taskId}", api.guard.Handle(api.getTask)).Methods(http.MethodGet)
	r.HandleFunc("/{taskId}", api.guard.Handle(api.updateTask)).Methods(http.MethodPut)
	r.HandleFunc("/{taskId}", api.guard.Handle(api.deleteTask)).Methods(http.MethodDelete)
}

func (api *API) createTask(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		GroupID     string     `json:"groupId"`
		AssignedTo  string     `json:"assignedTo"`
		DueDate     *time.Time `json:"dueDate"`
		Priority    string     `json:"priority"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" || req.GroupID == "" {
		fail(w, http.StatusBadRequest, "Title and group ID are required")
		return
	}

	group, ok := api.fetchGroup(w, r, req.GroupID)
	if !ok {
		return
	}
	if !groupauth.CanAccessGroup(caller, group) {
		fail(w, http.StatusForbidden, webcodes.MsgNotMember)
		return
	}

	if req.Priority == "" {
		req.Priority = "medium"
	}
	now := api.now()
	task := collections.Task{
		Title:       req.Title,
		Description: req.Description,
		GroupID:     req.GroupID,
		AssignedTo:  req.AssignedTo,
		AssignedBy:  caller.UID,
		Status:      collections.StatusToDo,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := api.db.Add(r.Context(), collections.Tasks, task)
	if err != nil {
		internalError(w, "Create task error", err)
		return
	}
	task.ID = id

	respond(w, http.StatusCreated, envelope{
		"success": true,
		"message": "Task created successfully",
		"task":    task,
	})
}

func decodeTasks(docs []storage.Doc) []collections.Task {
	tasks := []collections.Task{}
	for _, doc := range docs {
		var t collections.Task
		if err := doc.DataTo(&t); err != nil {
			log.Printf("Error decoding task %s: %v", doc.ID, err)
			continue
		}
		t.ID = doc.ID
		tasks = append(tasks, t)
	}
	return tasks
}

func (api *API) groupTasks(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	groupID := mux.Vars(r)["groupId"]
	group, ok := api.fetchGroup(w, r, groupID)
	if !ok {
		return
	}
	if !groupauth.CanAccessGroup(caller, group) {
		fail(w, http.StatusForbidden, webcodes.MsgAccessDenied)
		return
	}

	filters := []storage.Filter{
		{Path: collections.GroupIDField, Op: "==", Value: groupID},
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filters = append(filters, storage.Filter{Path: collections.StatusField, Op: "==", Value: status})
	}
	docs, err := api.db.Query(r.Context(), collections.Tasks, filters,
		&storage.Order{Path: collections.CreatedAtField, Desc: true}, 0)
	if err != nil {
		internalError(w, "Get tasks error", err)
		return
	}

	tasks := decodeTasks(docs)
	respond(w, http.StatusOK, envelope{
		"success": true,
		"count":   len(tasks),
		"tasks":   tasks,
	})
}

func (api *API) myTasks(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	filters := []storage.Filter{
		{Path: collections.AssignedToField, Op: "==", Value: caller.UID},
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filters = append(filters, storage.Filter{Path: collections.StatusField, Op: "==", Value: status})
	}
	docs, err := api.db.Query(r.Context(), collections.Tasks, filters,
		&storage.Order{Path: collections.DueDateField}, 0)
	if err != nil {
		internalError(w, "Get my tasks error", err)
		return
	}

	tasks := decodeTasks(docs)
	respond(w, http.StatusOK, envelope{
		"success": true,
		"count":   len(tasks),
		"tasks":   tasks,
	})
}

// fetchTask resolves the task or writes the NotFound/Internal response itself.
func (api *API) fetchTask(w http.ResponseWriter, r *http.Request, taskID string) (*collections.Task, bool) {
	var task collections.Task
	err := api.db.Get(r.Context(), collections.Tasks, taskID, &task)
	if err == storage.ErrNotFound {
		fail(w, http.StatusNotFound, webcodes.MsgTaskNotFound)
		return nil, false
	}
	if err != nil {
		internalError(w, "Get task error", err)
		return nil, false
	}
	task.ID = taskID
	return &task, true
}

func (api *API) getTask(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	task, ok := api.fetchTask(w, r, mux.Vars(r)["taskId"])
	if !ok {
		return
	}
	group, ok := api.fetchGroup(w, r, task.GroupID)
	if !ok {
		return
	}
	if !groupauth.CanAccessGroup(caller, group) {
		fail(w, http.StatusForbidden, webcodes.MsgAccessDenied)
		return
	}
	respond(w, http.StatusOK, envelope{"success": true, "task": task})
}

func (api *API) updateTask(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	taskID := mux.Vars(r)["taskId"]
	var req struct {
		Title       string     `json:"title"`
		Description *string    `json:"description"`
		AssignedTo  *string    `json:"assignedTo"`
		Status      string     `json:"status"`
		DueDate     *time.Time `json:"dueDate"`
		Priority    string     `json:"priority"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status != "" && !collections.ValidStatus(req.Status) {
		fail(w, http.StatusBadRequest, webcodes.MsgInvalidStatus)
		return
	}

	task, ok := api.fetchTask(w, r, taskID)
	if !ok {
		return
	}
	group, ok := api.fetchGroup(w, r, task.GroupID)
	if !ok {
		return
	}
	if !groupauth.CanAccessGroup(caller, group) {
		fail(w, http.StatusForbidden, webcodes.MsgAccessDenied)
		return
	}

	updates := []storage.Update{
		{Path: collections.UpdatedAtField, Value: api.now()},
	}
	if req.Title != "" {
		updates = append(updates, storage.Update{Path: "title", Value: req.Title})
	}
	if req.Description != nil {
		updates = append(updates, storage.Update{Path: "description", Value: *req.Description})
	}
	if req.AssignedTo != nil {
		// An explicit empty string unassigns the task.
		updates = append(updates, storage.Update{Path: collections.AssignedToField, Value: *req.AssignedTo})
	}
	if req.Status != "" {
		updates = append(updates, storage.Update{Path: collections.StatusField, Value: req.Status})
	}
	if req.DueDate != nil {
		updates = append(updates, storage.Update{Path: collections.DueDateField, Value: *req.DueDate})
	}
	if req.Priority != "" {
		updates = append(updates, storage.Update{Path: "priority", Value: req.Priority})
	}

	if err := api.db.Update(r.Context(), collections.Tasks, taskID, updates); err != nil {
		internalError(w, "Update task error", err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Task updated successfully",
	})
}

func (api *API) deleteTask(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	task, ok := api.fetchTask(w, r, mux.Vars(r)["taskId"])
	if !ok {
		return
	}
	if !groupauth.CanDeleteTask(caller, task) {
		fail(w, http.StatusForbidden, "Only task creator can delete task")
		return
	}
	if err := api.db.Delete(r.Context(), collections.Tasks, task.ID); err != nil {
		internalError(w, "Delete task error", err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Task deleted successfully",
	})
}
