package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/halcyard/windrose/internal/task"
)

// SaveTask upserts a task. The full task document lands in a jsonb column
// so the result survives restarts without a wide schema.
func (s *Store) SaveTask(ctx context.Context, t *task.Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", t.ID, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO plan_tasks (id, destination, engine, status, progress, error, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			error = EXCLUDED.error,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		t.ID, t.Request.Destination, string(t.Engine), string(t.Status),
		t.Progress, t.Error, payload, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

// GetTask retrieves one task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*task.Task, error) {
	var payload []byte
	err := s.db.QueryRow(ctx,
		`SELECT payload FROM plan_tasks WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	var t task.Task
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	return &t, nil
}

// ListTasks returns up to limit tasks, newest first.
func (s *Store) ListTasks(ctx context.Context, limit int) ([]*task.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT payload FROM plan_tasks
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		var t task.Task
		if err := json.Unmarshal(payload, &t); err != nil {
			continue
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// PurgeTasks deletes terminal tasks older than the cutoff.
func (s *Store) PurgeTasks(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM plan_tasks
		WHERE status IN ('done', 'failed') AND updated_at < $1`,
		time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("purge tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}
