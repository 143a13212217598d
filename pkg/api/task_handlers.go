package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskhive/pkg/httputil"
	"github.com/platinummonkey/taskhive/pkg/tags"
	"github.com/platinummonkey/taskhive/pkg/tasks"
)

// TaskHandlers handles task HTTP requests
type TaskHandlers struct {
	tasks *tasks.Service
	tags  *tags.Service
}

// NewTaskHandlers creates a new TaskHandlers
func NewTaskHandlers(taskService *tasks.Service, tagService *tags.Service) *TaskHandlers {
	return &TaskHandlers{tasks: taskService, tags: tagService}
}

// RegisterRoutes registers task routes. Mutations are nested under the
// owning list so the server can verify the task actually belongs to the
// list named in the URL.
func (h *TaskHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tasks", h.List).Methods("GET")
	router.HandleFunc("/tasks/{id}", h.Get).Methods("GET")

	router.HandleFunc("/lists/{id}/tasks", h.Create).Methods("POST")
	router.HandleFunc("/lists/{id}/tasks/{task_id}", h.Update).Methods("PUT")
	router.HandleFunc("/lists/{id}/tasks/{task_id}", h.Delete).Methods("DELETE")
	router.HandleFunc("/lists/{id}/tasks/{task_id}/completion", h.SetCompletion).Methods("PATCH")
	router.HandleFunc("/lists/{id}/tasks/{task_id}/assignee", h.Reassign).Methods("PATCH")
	router.HandleFunc("/lists/{id}/tasks/{task_id}/priority", h.ChangePriority).Methods("PATCH")
	router.HandleFunc("/lists/{id}/tasks/{task_id}/tags", h.SetTags).Methods("PUT")
}

type taskRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	AssignedUserID string     `json:"assigned_user_id"`
	Priority       *int       `json:"priority"`
	Deadline       *time.Time `json:"deadline"`
}

// List handles GET /tasks
func (h *TaskHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.tasks.List(r.Context(), userID, filter)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func parseTaskFilter(r *http.Request) (tasks.Filter, error) {
	var filter tasks.Filter
	var err error

	if filter.ListID, err = httputil.ParseQueryInt64(r, "list_id", 0); err != nil {
		return filter, err
	}
	if filter.OnlyAssigned, err = httputil.ParseQueryBool(r, "only_assigned", false); err != nil {
		return filter, err
	}
	if filter.ShowComplete, err = httputil.ParseQueryBool(r, "show_complete", false); err != nil {
		return filter, err
	}
	if filter.ShowOverdue, err = httputil.ParseQueryBool(r, "show_overdue", false); err != nil {
		return filter, err
	}
	if filter.ShowPending, err = httputil.ParseQueryBool(r, "show_pending", false); err != nil {
		return filter, err
	}
	if filter.Limit, err = httputil.ParseQueryInt(r, "limit", 0); err != nil {
		return filter, err
	}
	if filter.Offset, err = httputil.ParseQueryInt(r, "offset", 0); err != nil {
		return filter, err
	}

	filter.Tag = httputil.ParseQueryString(r, "tag", "")
	filter.TitleSearch = httputil.ParseQueryString(r, "search", "")
	filter.SortBy = tasks.SortOption(httputil.ParseQueryString(r, "sort", ""))

	if raw := r.URL.Query().Get("priority"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			p, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return filter, err
			}
			filter.Priorities = append(filter.Priorities, tasks.Priority(p))
		}
	}

	for key, dest := range map[string]**time.Time{
		"deadline_before": &filter.DeadlineBefore,
		"deadline_after":  &filter.DeadlineAfter,
	} {
		if raw := r.URL.Query().Get(key); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return filter, err
			}
			*dest = &ts
		}
	}

	return filter, nil
}

// Get handles GET /tasks/{id}
func (h *TaskHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, task)
}

// Create handles POST /lists/{id}/tasks
func (h *TaskHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req taskRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	task := tasks.Task{
		ListID:         listID,
		Title:          req.Title,
		Description:    req.Description,
		AssignedUserID: req.AssignedUserID,
		Priority:       tasks.PriorityStandard,
		Deadline:       req.Deadline,
	}
	if req.Priority != nil {
		task.Priority = tasks.Priority(*req.Priority)
	}

	created, err := h.tasks.Create(r.Context(), userID, task)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, created)
}

// Update handles PUT /lists/{id}/tasks/{task_id}
func (h *TaskHandlers) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "task_id")
	if !ok {
		return
	}

	var req taskRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, listID, tasks.Task{
		ID:          taskID,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, task)
}

// SetCompletion handles PATCH /lists/{id}/tasks/{task_id}/completion
func (h *TaskHandlers) SetCompletion(w http.ResponseWriter, r *http.Request) {
	userID, listID, taskID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	task, err := h.tasks.SetCompletion(r.Context(), userID, taskID, listID, req.Completed)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, task)
}

// Reassign handles PATCH /lists/{id}/tasks/{task_id}/assignee
func (h *TaskHandlers) Reassign(w http.ResponseWriter, r *http.Request) {
	userID, listID, taskID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.UserID, "user_id") {
		return
	}

	task, err := h.tasks.Reassign(r.Context(), userID, taskID, listID, req.UserID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, task)
}

// ChangePriority handles PATCH /lists/{id}/tasks/{task_id}/priority
func (h *TaskHandlers) ChangePriority(w http.ResponseWriter, r *http.Request) {
	userID, listID, taskID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req struct {
		Priority int `json:"priority"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	task, err := h.tasks.ChangePriority(r.Context(), userID, taskID, listID, tasks.Priority(req.Priority))
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, task)
}

// SetTags handles PUT /lists/{id}/tasks/{task_id}/tags
func (h *TaskHandlers) SetTags(w http.ResponseWriter, r *http.Request) {
	userID, listID, taskID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req struct {
		Tags []string `json:"tags"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	applied, err := h.tags.SetTaskTags(r.Context(), userID, taskID, listID, req.Tags)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string][]string{"tags": applied})
}

// Delete handles DELETE /lists/{id}/tasks/{task_id}
func (h *TaskHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, listID, taskID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID, listID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *TaskHandlers) pathIDs(w http.ResponseWriter, r *http.Request) (userID string, listID, taskID int64, ok bool) {
	userID, ok = requireUser(w, r)
	if !ok {
		return
	}
	listID, ok = httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	taskID, ok = httputil.ParsePathInt64OrError(w, r, "task_id")
	return
}
