package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskhive/internal/models"
	"taskhive/internal/workflow"
)

const taskColumns = `id, project_id, room_id, title, description, due_date, priority, status, assigned_to, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.RoomID, &t.Title, &t.Description, &t.DueDate,
		&t.Priority, &t.Status, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateTask inserts a new task. The status is normalized so new rows never
// carry the legacy Done alias, and unknown priorities fall back to the
// default.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty")
	}
	if _, ok := models.ValidPriorities[t.Priority]; !ok {
		t.Priority = models.DefaultPriority
	}
	t.Status = workflow.Normalize(t.Status)

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks(id, project_id, room_id, title, description, due_date, priority, status, assigned_to)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.ProjectID, t.RoomID, strings.TrimSpace(t.Title), strings.TrimSpace(t.Description),
		t.DueDate, t.Priority, t.Status, t.AssignedTo)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, t.ProjectID, id)
}

// GetTask retrieves a task scoped to its project, with its embedded comments.
func (s *Store) GetTask(ctx context.Context, projectID, taskID string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND project_id = ?`, taskID, projectID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task: %w", ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	t.Comments, err = s.ListComments(ctx, t.ID)
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// ListTasks returns the tasks of a project ordered by creation date, each
// with its embedded comments.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at ASC, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		tasks[i].Comments, err = s.ListComments(ctx, tasks[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// ListTasksByAssignee is the cross-room query: every task assigned to the
// identity, regardless of which room or project it lives in.
func (s *Store) ListTasksByAssignee(ctx context.Context, identity string) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE assigned_to = ? ORDER BY created_at ASC, id`, identity)
}

// ListAllTasks returns every task across all rooms, for calendar-style
// surfaces.
func (s *Store) ListAllTasks(ctx context.Context) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at ASC, id`)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask applies field changes to a task. Status is deliberately not
// handled here; it moves through SetTaskStatus so the workflow gate cannot
// be bypassed.
func (s *Store) UpdateTask(ctx context.Context, projectID, taskID string, changes map[string]any) (models.Task, error) {
	current, err := s.GetTask(ctx, projectID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	title := current.Title
	description := current.Description
	dueDate := current.DueDate
	priority := current.Priority
	assignedTo := current.AssignedTo

	if v, ok := changes["title"].(string); ok && strings.TrimSpace(v) != "" {
		title = strings.TrimSpace(v)
	}
	if v, ok := changes["description"].(string); ok {
		description = strings.TrimSpace(v)
	}
	if v, ok := changes["due_date"].(string); ok {
		dueDate = v
	}
	if v, ok := changes["priority"].(string); ok {
		if _, valid := models.ValidPriorities[v]; valid {
			priority = v
		}
	}
	if v, ok := changes["assigned_to"].(string); ok {
		assignedTo = v
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?, assigned_to = ? WHERE id = ?`,
		title, description, dueDate, priority, assignedTo, taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, projectID, taskID)
}

// SetTaskStatus writes a new status. The value is normalized so the legacy
// Done alias is never produced by this path.
func (s *Store) SetTaskStatus(ctx context.Context, projectID, taskID, status string) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ? AND project_id = ?`,
		workflow.Normalize(status), taskID, projectID)
	if err != nil {
		return models.Task{}, fmt.Errorf("set task status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("task: %w", ErrNotFound)
	}
	return s.GetTask(ctx, projectID, taskID)
}

// DeleteTask removes a task and its comments.
func (s *Store) DeleteTask(ctx context.Context, projectID, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND project_id = ?`, taskID, projectID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task: %w", ErrNotFound)
	}
	return nil
}

// AddComment appends one comment to a task's embedded discussion. Comments
// are never edited or deleted individually.
func (s *Store) AddComment(ctx context.Context, taskID, text, author string) (models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, fmt.Errorf("comment text must not be empty")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO task_comments(task_id, text, author) VALUES(?, ?, ?)`,
		taskID, strings.TrimSpace(text), author)
	if err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Comment{}, fmt.Errorf("comment id: %w", err)
	}

	var c models.Comment
	err = s.db.QueryRowContext(ctx, `SELECT id, task_id, text, author, created_at FROM task_comments WHERE id = ?`, id).
		Scan(&c.ID, &c.TaskID, &c.Text, &c.Author, &c.CreatedAt)
	if err != nil {
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// ListComments returns a task's comments in append order.
func (s *Store) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, text, author, created_at FROM task_comments WHERE task_id = ? ORDER BY id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Text, &c.Author, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
