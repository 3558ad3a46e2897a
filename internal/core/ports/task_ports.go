package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard/api/internal/core/domain"
)

type TaskFilter struct {
	Completed *bool
	Priority  *domain.Priority
	Search    string
	SortBy    string
	Order     string
	Page      int
	Limit     int
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	// GetByID looks a task up by id and owner in a single predicate, so a
	// task belonging to another user is indistinguishable from a missing one.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, int64, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type CreateTaskInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    string
}

type UpdateTaskInput struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	Completed   Optional[bool]      `json:"completed"`
	DueDate     Optional[time.Time] `json:"dueDate"`
	Priority    Optional[string]    `json:"priority"`
}

type TaskService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error)
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, Pagination, error)
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}
