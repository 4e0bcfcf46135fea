package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/authz"
	"gigmarket/internal/models"
	"gigmarket/internal/repositories"
)

// TaskDetails is the single-task view: the task, its bids and flags
// computed relative to the requesting caller.
type TaskDetails struct {
	Task         models.Task          `json:"task"`
	Applications []models.Application `json:"applications"`
	Meta         TaskDetailsMeta      `json:"meta"`
}

type TaskDetailsMeta struct {
	HasApplied       bool `json:"hasApplied"`
	IsAssignedToUser bool `json:"isAssignedToUser"`
}

// TaskService owns the task lifecycle: every status change goes through
// its guard checks and the transition table, and every read view gets
// the derived status and application counts from the ledger.
type TaskService interface {
	Create(ctx context.Context, caller authz.Caller, task *models.Task) (*models.Task, error)
	ListAll(ctx context.Context) ([]models.Task, error)
	ListByCreator(ctx context.Context, creatorID string) ([]models.Task, error)
	Details(ctx context.Context, caller authz.Caller, taskID string) (*TaskDetails, error)

	Assign(ctx context.Context, caller authz.Caller, taskID, workerID string) error
	Complete(ctx context.Context, caller authz.Caller, taskID string) error
	Approve(ctx context.Context, caller authz.Caller, taskID string) error
	Cancel(ctx context.Context, caller authz.Caller, taskID string) error
	Reopen(ctx context.Context, caller authz.Caller, taskID string) error
	Unassign(ctx context.Context, caller authz.Caller, taskID string) error
	Delete(ctx context.Context, caller authz.Caller, taskID string) error
}

type taskService struct {
	repo  repositories.TaskRepository
	apps  repositories.ApplicationRepository
	users repositories.UserRepository
}

func NewTaskService(repo repositories.TaskRepository, apps repositories.ApplicationRepository, users repositories.UserRepository) TaskService {
	return &taskService{repo: repo, apps: apps, users: users}
}

func (s *taskService) Create(ctx context.Context, caller authz.Caller, task *models.Task) (*models.Task, error) {
	if task.Price <= 0 {
		return nil, fmt.Errorf("price must be positive: %w", apperrors.ErrValidation)
	}
	if task.Place == "" || task.Day == "" || task.Time == "" || task.Type == "" {
		return nil, fmt.Errorf("missing required fields: %w", apperrors.ErrValidation)
	}

	creator, err := s.users.FindByUID(ctx, caller.UID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task.ID = uuid.NewString()
	task.CreatorID = caller.UID
	task.CreatorUsername = creator.Username
	task.AssigneeID = nil
	task.Status = models.StatusOpen
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) ListAll(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.FindAll(ctx, models.TaskFilter{})
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, tasks)
}

func (s *taskService) ListByCreator(ctx context.Context, creatorID string) ([]models.Task, error) {
	tasks, err := s.repo.FindAll(ctx, models.TaskFilter{CreatorID: &creatorID})
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, tasks)
}

// annotate fills application counts and the derived status on a task list.
func (s *taskService) annotate(ctx context.Context, tasks []models.Task) ([]models.Task, error) {
	if len(tasks) == 0 {
		return []models.Task{}, nil
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	counts, err := s.apps.CountsByTasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].ApplicationsCount = counts[tasks[i].ID]
		tasks[i].Status = models.EffectiveStatus(tasks[i].Status, tasks[i].ApplicationsCount)
	}
	return tasks, nil
}

func (s *taskService) Details(ctx context.Context, caller authz.Caller, taskID string) (*TaskDetails, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	apps, err := s.apps.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	task.ApplicationsCount = len(apps)
	task.Status = models.EffectiveStatus(task.Status, task.ApplicationsCount)

	meta := TaskDetailsMeta{}
	for _, a := range apps {
		if a.UserID == caller.UID {
			meta.HasApplied = true
			break
		}
	}
	if task.AssigneeID != nil && *task.AssigneeID == caller.UID {
		meta.IsAssignedToUser = true
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return &TaskDetails{Task: *task, Applications: apps, Meta: meta}, nil
}

func (s *taskService) Assign(ctx context.Context, caller authz.Caller, taskID, workerID string) error {
	if workerID == "" {
		return fmt.Errorf("user_id is required: %w", apperrors.ErrValidation)
	}
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := (authz.Guard{Relationship: authz.RelationCreator}).Check(caller, task); err != nil {
		return err
	}

	// Only a worker that actually bid can be assigned.
	applied, err := s.apps.ExistsByTaskAndUser(ctx, taskID, workerID)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("worker has no application for this task: %w", apperrors.ErrValidation)
	}

	ok, err := s.repo.Assign(ctx, taskID, transitionSources(models.StatusAssigned), workerID)
	if err != nil {
		return err
	}
	if !ok {
		return s.invalidTransition(ctx, taskID, "assign")
	}
	return nil
}

func (s *taskService) Complete(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(ctx, caller, taskID, authz.Guard{Relationship: authz.RelationAssignee}, models.StatusDone, "complete")
}

func (s *taskService) Approve(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(ctx, caller, taskID, authz.Guard{Relationship: authz.RelationCreator}, models.StatusCompleted, "approve")
}

func (s *taskService) Cancel(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(ctx, caller, taskID, authz.Guard{Relationship: authz.RelationCreator}, models.StatusCanceled, "cancel")
}

func (s *taskService) Reopen(ctx context.Context, caller authz.Caller, taskID string) error {
	return s.transition(ctx, caller, taskID, authz.Guard{Relationship: authz.RelationAssignee}, models.StatusOpen, "reopen")
}

func (s *taskService) Unassign(ctx context.Context, caller authz.Caller, taskID string) error {
	guard := authz.Guard{Role: authz.RoleCustomer, Relationship: authz.RelationCreator}
	return s.transition(ctx, caller, taskID, guard, models.StatusOpen, "unassign")
}

// transition runs the shared guard-then-conditional-write sequence. The
// write is keyed on the statuses the table allows as sources for `to`,
// so a stale read can never produce a forbidden transition.
func (s *taskService) transition(ctx context.Context, caller authz.Caller, taskID string, guard authz.Guard, to models.TaskStatus, action string) error {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := guard.Check(caller, task); err != nil {
		return err
	}
	if !canTransition(task.Status, to) {
		return fmt.Errorf("cannot %s a task with status '%s': %w", action, task.Status, apperrors.ErrInvalidState)
	}
	ok, err := s.repo.UpdateStatus(ctx, taskID, transitionSources(to), to)
	if err != nil {
		return err
	}
	if !ok {
		return s.invalidTransition(ctx, taskID, action)
	}
	return nil
}

// invalidTransition re-reads after a conditional write matched no row,
// to report the status that actually won the race (or NotFound).
func (s *taskService) invalidTransition(ctx context.Context, taskID, action string) error {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	return fmt.Errorf("cannot %s a task with status '%s': %w", action, task.Status, apperrors.ErrInvalidState)
}

func (s *taskService) Delete(ctx context.Context, caller authz.Caller, taskID string) error {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := (authz.Guard{Relationship: authz.RelationCreator}).Check(caller, task); err != nil {
		return err
	}
	return s.repo.Delete(ctx, taskID)
}
