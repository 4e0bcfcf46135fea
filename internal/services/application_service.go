package services

import (
	"context"
	"fmt"
	"time"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/authz"
	"gigmarket/internal/models"
	"gigmarket/internal/repositories"
)

// ApplicationService is the bid ledger: it enforces the one-application-
// per-worker-per-task rule and serves the aggregation counts every read
// path uses for the derived "Applied" status.
type ApplicationService interface {
	Submit(ctx context.Context, caller authz.Caller, taskID string, bidPrice float64) error
	CountsByTasks(ctx context.Context, taskIDs []string) (map[string]int, error)
	ListByTask(ctx context.Context, taskID string) ([]models.Application, error)
	ListByWorker(ctx context.Context, userID string) ([]models.Bid, error)
}

type applicationService struct {
	apps  repositories.ApplicationRepository
	tasks repositories.TaskRepository
}

func NewApplicationService(apps repositories.ApplicationRepository, tasks repositories.TaskRepository) ApplicationService {
	return &applicationService{apps: apps, tasks: tasks}
}

func (s *applicationService) Submit(ctx context.Context, caller authz.Caller, taskID string, bidPrice float64) error {
	if err := (authz.Guard{Role: authz.RoleWorker}).Check(caller, nil); err != nil {
		return err
	}
	if bidPrice <= 0 {
		return fmt.Errorf("bid_price must be positive: %w", apperrors.ErrValidation)
	}

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status.ClosedToBidding() {
		return fmt.Errorf("cannot bid on a task with status '%s': %w", task.Status, apperrors.ErrInvalidState)
	}

	// Fast path only; the unique index catches the race.
	exists, err := s.apps.ExistsByTaskAndUser(ctx, taskID, caller.UID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("already applied for this task: %w", apperrors.ErrConflict)
	}

	return s.apps.Store(ctx, &models.Application{
		TaskID:    taskID,
		UserID:    caller.UID,
		BidPrice:  bidPrice,
		CreatedAt: time.Now(),
	})
}

func (s *applicationService) CountsByTasks(ctx context.Context, taskIDs []string) (map[string]int, error) {
	return s.apps.CountsByTasks(ctx, taskIDs)
}

func (s *applicationService) ListByTask(ctx context.Context, taskID string) ([]models.Application, error) {
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.apps.ListByTask(ctx, taskID)
}

func (s *applicationService) ListByWorker(ctx context.Context, userID string) ([]models.Bid, error) {
	bids, err := s.apps.ListByWorker(ctx, userID)
	if err != nil {
		return nil, err
	}

	taskIDs := make([]string, 0, len(bids))
	for _, b := range bids {
		taskIDs = append(taskIDs, b.Task.ID)
	}
	counts, err := s.apps.CountsByTasks(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	for i := range bids {
		bids[i].Task.ApplicationsCount = counts[bids[i].Task.ID]
		bids[i].Task.Status = models.EffectiveStatus(bids[i].Task.Status, bids[i].Task.ApplicationsCount)
	}
	return bids, nil
}
