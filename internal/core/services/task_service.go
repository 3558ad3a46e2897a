package services

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/taskboard/api/internal/core/domain"
	"github.com/taskboard/api/internal/core/ports"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	maxTitleLen  = 255
)

type taskService struct {
	repo ports.TaskRepository
}

func NewTaskService(repo ports.TaskRepository) ports.TaskService {
	return &taskService{repo: repo}
}

func (s *taskService) Create(ctx context.Context, userID uuid.UUID, input ports.CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.ErrTitleRequired
	}
	// character count, not bytes: the column holds 255 characters
	if utf8.RuneCountInString(input.Title) > maxTitleLen {
		return nil, domain.ErrTitleTooLong
	}

	priority := domain.PriorityMedium
	if input.Priority != "" {
		priority = domain.Priority(input.Priority)
		if !priority.Valid() {
			return nil, domain.ErrInvalidPriority
		}
	}

	now := time.Now()
	task := &domain.Task{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		Completed:   false,
		DueDate:     input.DueDate,
		Priority:    priority,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) List(ctx context.Context, userID uuid.UUID, filter ports.TaskFilter) ([]*domain.Task, ports.Pagination, error) {
	filter = normalizeFilter(filter)

	tasks, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, ports.Pagination{}, err
	}

	return tasks, ports.Pagination{
		Total:      total,
		Page:       filter.Page,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *taskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.repo.GetByID(ctx, taskID, userID)
}

func (s *taskService) Update(ctx context.Context, userID, taskID uuid.UUID, input ports.UpdateTaskInput) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	if input.Title.Set {
		// title is NOT NULL, so an explicit null counts as emptying it
		if !input.Title.Valid || input.Title.Value == "" {
			return nil, domain.ErrTitleEmpty
		}
		if utf8.RuneCountInString(input.Title.Value) > maxTitleLen {
			return nil, domain.ErrTitleTooLong
		}
		task.Title = input.Title.Value
	}
	if input.Description.Set {
		if input.Description.Valid {
			v := input.Description.Value
			task.Description = &v
		} else {
			task.Description = nil
		}
	}
	if input.Completed.Set && input.Completed.Valid {
		task.Completed = input.Completed.Value
	}
	if input.DueDate.Set {
		if input.DueDate.Valid {
			v := input.DueDate.Value
			task.DueDate = &v
		} else {
			task.DueDate = nil
		}
	}
	if input.Priority.Set {
		priority := domain.Priority(input.Priority.Value)
		if !input.Priority.Valid || !priority.Valid() {
			return nil, domain.ErrInvalidPriority
		}
		task.Priority = priority
	}

	task.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	return s.repo.Delete(ctx, taskID, userID)
}

// normalizeFilter applies defaults; out-of-range or unrecognized values are
// no-ops rather than errors.
func normalizeFilter(f ports.TaskFilter) ports.TaskFilter {
	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.Limit < 1 || f.Limit > maxLimit {
		f.Limit = defaultLimit
	}
	if f.SortBy == "" {
		f.SortBy = "createdAt"
	}
	switch strings.ToLower(f.Order) {
	case "asc":
		f.Order = "ASC"
	default:
		f.Order = "DESC"
	}
	if f.Priority != nil && !f.Priority.Valid() {
		f.Priority = nil
	}
	return f
}
