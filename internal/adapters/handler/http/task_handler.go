package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskboard/api/internal/core/domain"
	"github.com/taskboard/api/internal/core/ports"
)

type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token is required")
		return
	}

	var req createTaskRequest
	// an absent body is treated as an empty object, not a decode error
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.service.Create(r.Context(), user.ID, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		h.writeTaskError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"task": task})
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token is required")
		return
	}

	tasks, pagination, err := h.service.List(r.Context(), user.ID, parseTaskFilter(r))
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"tasks":      tasks,
		"pagination": pagination,
	})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token is required")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	task, err := h.service.Get(r.Context(), user.ID, taskID)
	if err != nil {
		h.writeTaskError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"task": task})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token is required")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	var input ports.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.service.Update(r.Context(), user.ID, taskID, input)
	if err != nil {
		h.writeTaskError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"task": task})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token is required")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, taskID); err != nil {
		h.writeTaskError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Task deleted successfully")
}

func (h *TaskHandler) writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, domain.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "Title is required")
	case errors.Is(err, domain.ErrTitleEmpty):
		writeError(w, http.StatusBadRequest, "Title cannot be empty")
	case errors.Is(err, domain.ErrTitleTooLong):
		writeError(w, http.StatusBadRequest, "Title must be at most 255 characters")
	case errors.Is(err, domain.ErrInvalidPriority):
		writeError(w, http.StatusBadRequest, "Invalid priority")
	default:
		writeInternalError(w, err)
	}
}

// parseTaskFilter reads the list query parameters. Unrecognized or malformed
// values are ignored; the service fills in defaults.
func parseTaskFilter(r *http.Request) ports.TaskFilter {
	q := r.URL.Query()
	filter := ports.TaskFilter{
		Search: q.Get("search"),
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
	}

	if v, err := strconv.ParseBool(q.Get("completed")); err == nil {
		filter.Completed = &v
	}
	if v := q.Get("priority"); v != "" {
		p := domain.Priority(v)
		filter.Priority = &p
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}

	return filter
}
