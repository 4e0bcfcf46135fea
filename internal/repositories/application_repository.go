package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/models"
)

type ApplicationRepository interface {
	// Store inserts a bid. The UNIQUE (task_id, user_id) index is the
	// authoritative duplicate check: a unique violation surfaces as
	// Conflict regardless of any earlier existence read.
	Store(ctx context.Context, app *models.Application) error
	ExistsByTaskAndUser(ctx context.Context, taskID, userID string) (bool, error)
	CountByTask(ctx context.Context, taskID string) (int, error)
	CountsByTasks(ctx context.Context, taskIDs []string) (map[string]int, error)
	ListByTask(ctx context.Context, taskID string) ([]models.Application, error)
	ListByWorker(ctx context.Context, userID string) ([]models.Bid, error)
}

type applicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Store(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO task_applications (task_id, user_id, bid_price, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		app.TaskID, app.UserID, app.BidPrice, app.CreatedAt,
	).Scan(&app.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return fmt.Errorf("already applied for task %s: %w", app.TaskID, apperrors.ErrConflict)
			case "23503": // foreign_key_violation
				return fmt.Errorf("task %s: %w", app.TaskID, apperrors.ErrNotFound)
			}
		}
		return err
	}
	return nil
}

func (r *applicationRepository) ExistsByTaskAndUser(ctx context.Context, taskID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM task_applications WHERE task_id = $1 AND user_id = $2)`,
		taskID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *applicationRepository) CountByTask(ctx context.Context, taskID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_applications WHERE task_id = $1`, taskID,
	).Scan(&count)
	return count, err
}

func (r *applicationRepository) CountsByTasks(ctx context.Context, taskIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(taskIDs))
	if len(taskIDs) == 0 {
		return counts, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT task_id, COUNT(*) FROM task_applications WHERE task_id = ANY($1) GROUP BY task_id`,
		pq.Array(taskIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID string
		var count int
		if err := rows.Scan(&taskID, &count); err != nil {
			return nil, err
		}
		counts[taskID] = count
	}
	return counts, rows.Err()
}

func (r *applicationRepository) ListByTask(ctx context.Context, taskID string) ([]models.Application, error) {
	query := `
		SELECT a.user_id, a.bid_price, COALESCE(u.username, ''), a.created_at
		FROM task_applications a
		LEFT JOIN users u ON u.uid = a.user_id
		WHERE a.task_id = $1
		ORDER BY a.created_at`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		a := models.Application{TaskID: taskID}
		if err := rows.Scan(&a.UserID, &a.BidPrice, &a.Username, &a.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (r *applicationRepository) ListByWorker(ctx context.Context, userID string) ([]models.Bid, error) {
	query := `
		SELECT a.bid_price, ` + prefixedTaskColumns("t") + `
		FROM task_applications a
		JOIN tasks t ON t.id = a.task_id
		WHERE a.user_id = $1
		ORDER BY a.created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var b models.Bid
		var description sql.NullString
		if err := rows.Scan(
			&b.BidPrice,
			&b.Task.ID, &b.Task.CreatorID, &b.Task.CreatorUsername, &b.Task.AssigneeID,
			&b.Task.Title, &description, &b.Task.Price, &b.Task.Place, &b.Task.Day,
			&b.Task.Time, &b.Task.Type, &b.Task.Status, &b.Task.CreatedAt, &b.Task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		b.Task.Description = description.String
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func prefixedTaskColumns(alias string) string {
	return alias + ".id, " + alias + ".creator_id, " + alias + ".creator_username, " +
		alias + ".assignee_id, " + alias + ".title, " + alias + ".description, " +
		alias + ".price, " + alias + ".place, " + alias + ".day, " + alias + ".time_of_day, " +
		alias + ".job_type, " + alias + ".status, " + alias + ".created_at, " + alias + ".updated_at"
}
