package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)

	// UpdateStatus is a conditional single-row write: the status changes
	// only if the current status is one of from. When the target status
	// carries no assignee the assignee column is cleared in the same
	// statement. Returns false if no row matched (missing task or a
	// concurrent transition).
	UpdateStatus(ctx context.Context, id string, from []models.TaskStatus, to models.TaskStatus) (bool, error)

	// Assign sets status=Assigned and the assignee in one conditional
	// write keyed on the expected prior statuses.
	Assign(ctx context.Context, id string, from []models.TaskStatus, assigneeID string) (bool, error)

	// Delete removes the task and its applications in one transaction so
	// reads never observe orphaned applications.
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, creator_id, creator_username, assignee_id, title, description, price, place, day, time_of_day, job_type, status, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }, t *models.Task) error {
	var description sql.NullString
	err := row.Scan(
		&t.ID, &t.CreatorID, &t.CreatorUsername, &t.AssigneeID, &t.Title, &description,
		&t.Price, &t.Place, &t.Day, &t.Time, &t.Type, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	t.Description = description.String
	return err
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			id, creator_id, creator_username, assignee_id, title, description, price,
			place, day, time_of_day, job_type, status, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		task.ID, task.CreatorID, task.CreatorUsername, task.AssigneeID, task.Title,
		nullIfEmpty(task.Description), task.Price, task.Place, task.Day, task.Time,
		task.Type, task.Status, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task := &models.Task{}
	if err := scanTask(r.db.QueryRowContext(ctx, query, id), task); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.CreatorID != nil {
		conditions = append(conditions, fmt.Sprintf("creator_id = $%d", argID))
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.AssigneeID != nil {
		conditions = append(conditions, fmt.Sprintf("assignee_id = $%d", argID))
		args = append(args, *filter.AssigneeID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id string, from []models.TaskStatus, to models.TaskStatus) (bool, error) {
	query := `UPDATE tasks SET status=$1, updated_at=NOW() WHERE id=$2 AND status = ANY($3)`
	if !to.HasAssignee() {
		query = `UPDATE tasks SET status=$1, assignee_id=NULL, updated_at=NOW() WHERE id=$2 AND status = ANY($3)`
	}
	res, err := r.db.ExecContext(ctx, query, to, id, pq.Array(statusStrings(from)))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *taskRepository) Assign(ctx context.Context, id string, from []models.TaskStatus, assigneeID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status=$1, assignee_id=$2, updated_at=NOW() WHERE id=$3 AND status = ANY($4)`,
		models.StatusAssigned, assigneeID, id, pq.Array(statusStrings(from)))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_applications WHERE task_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, apperrors.ErrNotFound)
	}
	return tx.Commit()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func statusStrings(statuses []models.TaskStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
