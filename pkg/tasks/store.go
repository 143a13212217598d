package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/taskhive/pkg/errs"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store persists tasks.
type Store struct {
	db querier
}

// NewStore creates a store over the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a store bound to the given transaction.
func (s *Store) WithTx(tx *sql.Tx) *Store {
	return &Store{db: tx}
}

const taskColumns = `t.id, t.list_id, t.title, t.description, t.assigned_user_id,
	t.priority, t.completed, t.deadline, t.created_at, t.updated_at`

// Insert adds a task and returns it with the generated id.
func (s *Store) Insert(ctx context.Context, task Task) (*Task, error) {
	query := `
		INSERT INTO tasks (list_id, title, description, assigned_user_id, priority, completed, deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		task.ListID, task.Title, task.Description, task.AssignedUserID,
		task.Priority, task.Completed, task.Deadline, task.CreatedAt).Scan(&task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return &task, nil
}

// Get returns the task, or ErrNotFound.
func (s *Store) Get(ctx context.Context, taskID int64) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`
	row := s.db.QueryRowContext(ctx, query, taskID)
	task, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %d: %w", taskID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// List returns the tasks visible to userID, narrowed by the filter. All
// filtering, sorting and pagination happens in SQL. The join against
// list_access limits results to lists the user holds a record on.
func (s *Store) List(ctx context.Context, userID string, filter Filter) ([]Task, error) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT ` + taskColumns + `
		FROM tasks t
		JOIN list_access a ON a.list_id = t.list_id AND a.user_id = ` + arg(userID))

	var conds []string
	if filter.ListID != 0 {
		conds = append(conds, "t.list_id = "+arg(filter.ListID))
	}
	if filter.OnlyAssigned {
		conds = append(conds, "t.assigned_user_id = "+arg(userID))
	}

	if filter.ShowComplete || filter.ShowOverdue || filter.ShowPending {
		now := arg(time.Now().UTC())
		var status []string
		if filter.ShowComplete {
			status = append(status, "t.completed")
		}
		if filter.ShowOverdue {
			status = append(status, "(NOT t.completed AND t.deadline IS NOT NULL AND t.deadline < "+now+")")
		}
		if filter.ShowPending {
			status = append(status, "(NOT t.completed AND (t.deadline IS NULL OR t.deadline >= "+now+"))")
		}
		conds = append(conds, "("+strings.Join(status, " OR ")+")")
	}

	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, p := range filter.Priorities {
			placeholders[i] = arg(int(p))
		}
		conds = append(conds, "t.priority IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.DeadlineBefore != nil {
		conds = append(conds, "t.deadline <= "+arg(*filter.DeadlineBefore))
	}
	if filter.DeadlineAfter != nil {
		conds = append(conds, "t.deadline >= "+arg(*filter.DeadlineAfter))
	}
	if filter.Tag != "" {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM task_tags tt
			JOIN tags g ON g.id = tt.tag_id
			WHERE tt.task_id = t.id AND g.tag = `+arg(filter.Tag)+`)`)
	}
	if filter.TitleSearch != "" {
		conds = append(conds, "LOWER(t.title) LIKE "+arg("%"+strings.ToLower(filter.TitleSearch)+"%"))
	}

	for _, c := range conds {
		sb.WriteString("\n\t\tAND ")
		sb.WriteString(c)
	}

	switch filter.SortBy {
	case SortTitleAsc:
		sb.WriteString("\n\t\tORDER BY t.title, t.id")
	case SortTitleDesc:
		sb.WriteString("\n\t\tORDER BY t.title DESC, t.id")
	case SortDeadlineAsc:
		sb.WriteString("\n\t\tORDER BY t.deadline, t.id")
	case SortDeadlineDesc:
		sb.WriteString("\n\t\tORDER BY t.deadline DESC, t.id")
	default:
		sb.WriteString("\n\t\tORDER BY t.id")
	}

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
		if filter.Offset > 0 {
			sb.WriteString(" OFFSET " + arg(filter.Offset))
		}
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

// Update changes title, description, deadline and priority.
func (s *Store) Update(ctx context.Context, task Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, deadline = $3, priority = $4, updated_at = $5
		WHERE id = $6
	`
	return s.exec(ctx, "task", task.ID, query,
		task.Title, task.Description, task.Deadline, task.Priority, time.Now().UTC(), task.ID)
}

// UpdateCompletion flips the completion state.
func (s *Store) UpdateCompletion(ctx context.Context, taskID int64, completed bool) error {
	query := `UPDATE tasks SET completed = $1, updated_at = $2 WHERE id = $3`
	return s.exec(ctx, "task", taskID, query, completed, time.Now().UTC(), taskID)
}

// UpdateAssignedUser reassigns the task.
func (s *Store) UpdateAssignedUser(ctx context.Context, taskID int64, userID string) error {
	query := `UPDATE tasks SET assigned_user_id = $1, updated_at = $2 WHERE id = $3`
	return s.exec(ctx, "task", taskID, query, userID, time.Now().UTC(), taskID)
}

// UpdatePriority changes the priority.
func (s *Store) UpdatePriority(ctx context.Context, taskID int64, priority Priority) error {
	query := `UPDATE tasks SET priority = $1, updated_at = $2 WHERE id = $3`
	return s.exec(ctx, "task", taskID, query, priority, time.Now().UTC(), taskID)
}

// Delete removes the task; comments and tag associations cascade.
func (s *Store) Delete(ctx context.Context, taskID int64) error {
	return s.exec(ctx, "task", taskID, `DELETE FROM tasks WHERE id = $1`, taskID)
}

// TagNames returns the tag names attached to the task, sorted.
func (s *Store) TagNames(ctx context.Context, taskID int64) ([]string, error) {
	query := `
		SELECT g.tag
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.task_id = $1
		ORDER BY g.tag
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) exec(ctx context.Context, what string, id int64, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, errs.ErrNotFound)
	}
	return nil
}

func scanTask(scan func(dest ...interface{}) error) (*Task, error) {
	var (
		t        Task
		deadline sql.NullTime
		updated  sql.NullTime
	)
	err := scan(&t.ID, &t.ListID, &t.Title, &t.Description, &t.AssignedUserID,
		&t.Priority, &t.Completed, &deadline, &t.CreatedAt, &updated)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		t.Deadline = &deadline.Time
	}
	if updated.Valid {
		t.UpdatedAt = &updated.Time
	}
	return &t, nil
}
