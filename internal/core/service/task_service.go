package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdash/task-dashboard-api/internal/core/domain"
	"github.com/taskdash/task-dashboard-api/internal/core/ports"
)

const dueDateLayout = "2006-01-02"

// Placed after any real due date so undated tasks sort last.
const noDueDateSentinel = "9999-12-31"

// TaskService implements task CRUD behind the ownership guard: every
// operation filters by the caller's identity id, so a task belonging to
// someone else is indistinguishable from a missing one.
type TaskService struct {
	repo ports.TaskRepository
	log  zerolog.Logger
}

func NewTaskService(repo ports.TaskRepository, log zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, log: log}
}

// Create stores a new task stamped with the caller's identity. Status always
// starts at "todo"; the client cannot choose the owner or the initial status.
func (s *TaskService) Create(ctx context.Context, ownerID int64, in ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}

	priority := domain.TaskPriority(in.Priority)
	if in.Priority == "" {
		priority = domain.PriorityMedium
	} else if !priority.Valid() {
		return nil, domain.NewValidationError("priority must be one of: low, medium, high")
	}

	if err := validateDueDate(in.DueDate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      domain.StatusTodo,
		Priority:    priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to create task")
		return nil, err
	}

	s.log.Info().Int64("task_id", created.ID).Int64("owner_id", ownerID).Msg("task created")
	return created, nil
}

// Get returns a single task owned by the caller.
func (s *TaskService) Get(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	return s.repo.FindByID(ctx, ownerID, id)
}

// Update applies a partial update to a task owned by the caller. Nil fields
// are left untouched.
func (s *TaskService) Update(ctx context.Context, ownerID, id int64, in ports.UpdateTaskInput) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, domain.NewValidationError("title must not be empty")
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		status := domain.TaskStatus(*in.Status)
		if !status.Valid() {
			return nil, domain.NewValidationError("status must be one of: todo, in_progress, done")
		}
		task.Status = status
	}
	if in.Priority != nil {
		priority := domain.TaskPriority(*in.Priority)
		if !priority.Valid() {
			return nil, domain.NewValidationError("priority must be one of: low, medium, high")
		}
		task.Priority = priority
	}
	if in.DueDate != nil {
		if err := validateDueDate(*in.DueDate); err != nil {
			return nil, err
		}
		task.DueDate = *in.DueDate
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateStatus changes only the status of a task owned by the caller.
func (s *TaskService) UpdateStatus(ctx context.Context, ownerID, id int64, status string) (*domain.Task, error) {
	newStatus := domain.TaskStatus(status)
	if !newStatus.Valid() {
		return nil, domain.NewValidationError("status must be one of: todo, in_progress, done")
	}

	task, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	task.Status = newStatus
	task.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}

	s.log.Info().Int64("task_id", id).Str("status", status).Msg("task status updated")
	return task, nil
}

// Delete removes a task owned by the caller.
func (s *TaskService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Info().Int64("task_id", id).Int64("owner_id", ownerID).Msg("task deleted")
	return nil
}

// List returns the caller's tasks, optionally filtered by status, priority,
// and a substring search, then sorted.
func (s *TaskService) List(ctx context.Context, ownerID int64, in ports.ListTasksInput) ([]domain.Task, error) {
	if in.Status != "" && !domain.TaskStatus(in.Status).Valid() {
		return nil, domain.NewValidationError("status must be one of: todo, in_progress, done")
	}
	if in.Priority != "" && !domain.TaskPriority(in.Priority).Valid() {
		return nil, domain.NewValidationError("priority must be one of: low, medium, high")
	}

	tasks, err := s.repo.List(ctx, ports.TaskFilter{
		OwnerID:  ownerID,
		Status:   in.Status,
		Priority: in.Priority,
		Search:   in.Search,
	})
	if err != nil {
		return nil, err
	}

	sortTasks(tasks, in.SortBy, in.SortOrder)
	return tasks, nil
}

// Stats summarises the caller's tasks by status and priority.
func (s *TaskService) Stats(ctx context.Context, ownerID int64) (*ports.TaskStats, error) {
	tasks, err := s.repo.List(ctx, ports.TaskFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	stats := &ports.TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case domain.StatusTodo:
			stats.Todo++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusDone:
			stats.Done++
		}
		switch t.Priority {
		case domain.PriorityHigh:
			stats.HighPriority++
		case domain.PriorityMedium:
			stats.MediumPriority++
		case domain.PriorityLow:
			stats.LowPriority++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = stats.Done * 100 / stats.Total
	}
	return stats, nil
}

func validateDueDate(due string) error {
	if due == "" {
		return nil
	}
	if _, err := time.Parse(dueDateLayout, due); err != nil {
		return domain.NewValidationError("due_date must be in YYYY-MM-DD format")
	}
	return nil
}

// sortTasks orders tasks in place. Unknown sortBy values fall back to
// created_at; any order other than "desc" means ascending.
func sortTasks(tasks []domain.Task, sortBy, order string) {
	less := func(a, b domain.Task) bool {
		switch sortBy {
		case "priority":
			return a.Priority.Weight() < b.Priority.Weight()
		case "due_date":
			return dueOrSentinel(a) < dueOrSentinel(b)
		case "title":
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	desc := order == "desc"
	sort.SliceStable(tasks, func(i, j int) bool {
		if desc {
			return less(tasks[j], tasks[i])
		}
		return less(tasks[i], tasks[j])
	})
}

func dueOrSentinel(t domain.Task) string {
	if t.DueDate == "" {
		return noDueDateSentinel
	}
	return t.DueDate
}
