package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/models"
	"gigmarket/internal/repositories"
)

// In-memory store backing the fake repositories. It mirrors the storage
// semantics the services rely on: conditional status writes, the unique
// (task_id, user_id) constraint and cascading task deletes.
type fakeState struct {
	mu    sync.Mutex
	tasks map[string]models.Task
	apps  []models.Application
	users map[string]models.User
}

func newFakeState() *fakeState {
	return &fakeState{
		tasks: make(map[string]models.Task),
		users: make(map[string]models.User),
	}
}

type fakeTaskRepo struct{ s *fakeState }

func (r *fakeTaskRepo) Store(ctx context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id string) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, apperrors.ErrNotFound)
	}
	copied := t
	return &copied, nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Task
	for _, t := range r.s.tasks {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTaskRepo) UpdateStatus(ctx context.Context, id string, from []models.TaskStatus, to models.TaskStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || !containsStatus(from, t.Status) {
		return false, nil
	}
	t.Status = to
	if !to.HasAssignee() {
		t.AssigneeID = nil
	}
	t.UpdatedAt = time.Now()
	r.s.tasks[id] = t
	return true, nil
}

func (r *fakeTaskRepo) Assign(ctx context.Context, id string, from []models.TaskStatus, assigneeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || !containsStatus(from, t.Status) {
		return false, nil
	}
	t.Status = models.StatusAssigned
	t.AssigneeID = &assigneeID
	t.UpdatedAt = time.Now()
	r.s.tasks[id] = t
	return true, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, apperrors.ErrNotFound)
	}
	delete(r.s.tasks, id)
	kept := r.s.apps[:0]
	for _, a := range r.s.apps {
		if a.TaskID != id {
			kept = append(kept, a)
		}
	}
	r.s.apps = kept
	return nil
}

func containsStatus(set []models.TaskStatus, s models.TaskStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type fakeAppRepo struct{ s *fakeState }

func (r *fakeAppRepo) Store(ctx context.Context, app *models.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[app.TaskID]; !ok {
		return fmt.Errorf("task %s: %w", app.TaskID, apperrors.ErrNotFound)
	}
	for _, a := range r.s.apps {
		if a.TaskID == app.TaskID && a.UserID == app.UserID {
			return fmt.Errorf("already applied for task %s: %w", app.TaskID, apperrors.ErrConflict)
		}
	}
	r.s.apps = append(r.s.apps, *app)
	return nil
}

func (r *fakeAppRepo) ExistsByTaskAndUser(ctx context.Context, taskID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.apps {
		if a.TaskID == taskID && a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppRepo) CountByTask(ctx context.Context, taskID string) (int, error) {
	counts, err := r.CountsByTasks(ctx, []string{taskID})
	if err != nil {
		return 0, err
	}
	return counts[taskID], nil
}

func (r *fakeAppRepo) CountsByTasks(ctx context.Context, taskIDs []string) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[string]int, len(taskIDs))
	for _, id := range taskIDs {
		for _, a := range r.s.apps {
			if a.TaskID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (r *fakeAppRepo) ListByTask(ctx context.Context, taskID string) ([]models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Application
	for _, a := range r.s.apps {
		if a.TaskID == taskID {
			a.Username = r.s.users[a.UserID].Username
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAppRepo) ListByWorker(ctx context.Context, userID string) ([]models.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Bid
	for _, a := range r.s.apps {
		if a.UserID == userID {
			out = append(out, models.Bid{BidPrice: a.BidPrice, Task: r.s.tasks[a.TaskID]})
		}
	}
	return out, nil
}

type fakeUserRepo struct{ s *fakeState }

func (r *fakeUserRepo) Store(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return fmt.Errorf("email already registered: %w", apperrors.ErrConflict)
		}
	}
	r.s.users[user.UID] = *user
	return nil
}

func (r *fakeUserRepo) FindByUID(ctx context.Context, uid string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[uid]
	if !ok {
		return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
	}
	copied := u
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, uid, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[uid]
	if !ok {
		return fmt.Errorf("user %s: %w", uid, apperrors.ErrNotFound)
	}
	u.Role = role
	r.s.users[uid] = u
	return nil
}

func (r *fakeUserRepo) UsernameByEmail(ctx context.Context, email string) (string, error) {
	u, err := r.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

var (
	_ repositories.TaskRepository        = (*fakeTaskRepo)(nil)
	_ repositories.ApplicationRepository = (*fakeAppRepo)(nil)
	_ repositories.UserRepository        = (*fakeUserRepo)(nil)
)
