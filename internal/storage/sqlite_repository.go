package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/sandeepkv93/daytrack/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

// database/sql driver names: cgo mattn/go-sqlite3 and pure-Go modernc.org/sqlite.
const (
	DriverSQLite3 = "sqlite3"
	DriverModernc = "sqlite"
)

const (
	taskColumns       = `id, user_id, title, category, completed, date, order_index, created_at, updated_at`
	recurringColumns  = `id, user_id, title, frequency, days_of_week, order_index, created_at, updated_at`
	completionColumns = `id, user_id, task_id, recurring_task_id, date, created_at`
)

type SQLiteRepository struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository wraps an open, migrated database. The pool is pinned to a
// single connection because foreign_keys is a per-connection pragma.
func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now, newID: uuid.NewString}, nil
}

// OpenSQLite opens path with the given driver, creates the parent directory
// and applies the embedded migrations.
func OpenSQLite(driver, path string) (*SQLiteRepository, error) {
	switch driver {
	case "":
		driver = DriverSQLite3
	case DriverSQLite3, DriverModernc:
	default:
		return nil, fmt.Errorf("storage: unsupported sqlite driver %q", driver)
	}
	if err := ensureDirForSQLite(path); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, userID string, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if !filter.Date.IsZero() {
		query += ` AND date = ?`
		args = append(args, filter.Date.String())
	}
	query += ` ORDER BY order_index ASC, created_at ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	if in.ID == "" {
		in.ID = r.newID()
	}
	now := r.now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.Title, string(in.Category), boolInt(in.Completed), nullDate(in.Date),
		in.OrderIndex, mustTime(in.CreatedAt), mustTime(in.UpdatedAt),
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return getTask(ctx, r.db, in.UserID, in.ID)
}

// UpdateTask rewrites the task row. A completed task with a date keeps its
// ledger row on that date, so a date change moves the row in the same
// transaction.
func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	var task model.Task
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		now := r.now().UTC()
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET title = ?, category = ?, completed = ?, date = ?, order_index = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`,
			in.Title, string(in.Category), boolInt(in.Completed), nullDate(in.Date), in.OrderIndex,
			mustTime(now), in.ID, in.UserID,
		)
		if err != nil {
			return err
		}
		if err := checkRowsAffected(res); err != nil {
			return err
		}
		if in.Completed && !in.Date.IsZero() {
			if _, err := r.alignTaskCompletion(ctx, tx, in.UserID, in.ID, in.Date, "", now); err != nil {
				return err
			}
		}
		task, err = getTask(ctx, tx, in.UserID, in.ID)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// DeleteTask removes the task together with its ledger rows.
func (r *SQLiteRepository) DeleteTask(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_completions WHERE user_id = ? AND task_id = ?`, userID, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

// ReorderTasks applies every change or none of them.
func (r *SQLiteRepository) ReorderTasks(ctx context.Context, userID string, changes []OrderChange) ([]model.Task, error) {
	out := make([]model.Task, 0, len(changes))
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		updated := mustTime(r.now())
		for _, c := range changes {
			res, err := tx.ExecContext(ctx, `UPDATE tasks SET order_index = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
				c.OrderIndex, updated, c.ID, userID)
			if err != nil {
				return err
			}
			if err := checkRowsAffected(res); err != nil {
				return err
			}
		}
		for _, c := range changes {
			task, err := getTask(ctx, tx, userID, c.ID)
			if err != nil {
				return err
			}
			out = append(out, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepository) ListRecurringTasks(ctx context.Context, userID string) ([]model.RecurringTask, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recurringColumns+` FROM recurring_tasks
		WHERE user_id = ?
		ORDER BY order_index ASC, created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.RecurringTask, 0)
	for rows.Next() {
		item, scanErr := scanRecurring(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateRecurringTask(ctx context.Context, in model.RecurringTask) (model.RecurringTask, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.RecurringTask{}, err
	}
	if in.ID == "" {
		in.ID = r.newID()
	}
	now := r.now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	days, err := daysValue(in)
	if err != nil {
		return model.RecurringTask{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recurring_tasks (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.Title, string(in.Frequency), days, in.OrderIndex,
		mustTime(in.CreatedAt), mustTime(in.UpdatedAt),
	)
	if err != nil {
		return model.RecurringTask{}, fmt.Errorf("create recurring task: %w", err)
	}
	return getRecurring(ctx, r.db, in.UserID, in.ID)
}

func (r *SQLiteRepository) UpdateRecurringTask(ctx context.Context, in model.RecurringTask) (model.RecurringTask, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.RecurringTask{}, err
	}
	days, err := daysValue(in)
	if err != nil {
		return model.RecurringTask{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_tasks
		SET title = ?, frequency = ?, days_of_week = ?, order_index = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		in.Title, string(in.Frequency), days, in.OrderIndex, mustTime(r.now()), in.ID, in.UserID,
	)
	if err != nil {
		return model.RecurringTask{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return model.RecurringTask{}, err
	}
	return getRecurring(ctx, r.db, in.UserID, in.ID)
}

// DeleteRecurringTask removes the template and every completion recorded for it.
func (r *SQLiteRepository) DeleteRecurringTask(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_completions WHERE user_id = ? AND recurring_task_id = ?`, userID, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM recurring_tasks WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

func (r *SQLiteRepository) ReorderRecurringTasks(ctx context.Context, userID string, changes []OrderChange) ([]model.RecurringTask, error) {
	out := make([]model.RecurringTask, 0, len(changes))
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		updated := mustTime(r.now())
		for _, c := range changes {
			res, err := tx.ExecContext(ctx, `UPDATE recurring_tasks SET order_index = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
				c.OrderIndex, updated, c.ID, userID)
			if err != nil {
				return err
			}
			if err := checkRowsAffected(res); err != nil {
				return err
			}
		}
		for _, c := range changes {
			item, err := getRecurring(ctx, tx, userID, c.ID)
			if err != nil {
				return err
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepository) ListCompletions(ctx context.Context, userID string, filter CompletionListFilter) ([]model.TaskCompletion, error) {
	query := `SELECT ` + completionColumns + ` FROM task_completions`
	clauses := []string{"user_id = ?"}
	args := []any{userID}
	if filter.TaskID != "" {
		clauses = append(clauses, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.RecurringTaskID != "" {
		clauses = append(clauses, "recurring_task_id = ?")
		args = append(args, filter.RecurringTaskID)
	}
	if !filter.Date.IsZero() {
		clauses = append(clauses, "date = ?")
		args = append(args, filter.Date.String())
	}
	query += " WHERE " + strings.Join(clauses, " AND ")
	query += ` ORDER BY date DESC, created_at ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TaskCompletion, 0)
	for rows.Next() {
		item, scanErr := scanCompletion(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// CreateCompletion records one (ref, date) entry. The referenced row must
// belong to the same user.
func (r *SQLiteRepository) CreateCompletion(ctx context.Context, in model.TaskCompletion) (model.TaskCompletion, error) {
	if err := in.Validate(); err != nil {
		return model.TaskCompletion{}, err
	}
	if in.ID == "" {
		in.ID = r.newID()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now().UTC()
	}
	var out model.TaskCompletion
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := refExists(ctx, tx, in.UserID, in.Ref()); err != nil {
			return err
		}
		if _, found, err := findCompletion(ctx, tx, in.UserID, in.Ref(), in.Date); err != nil {
			return err
		} else if found {
			return fmt.Errorf("%w: %s on %s", ErrDuplicateCompletion, in.Ref(), in.Date)
		}
		if err := insertCompletion(ctx, tx, in); err != nil {
			return err
		}
		var err error
		out, err = getCompletion(ctx, tx, in.UserID, in.ID)
		return err
	})
	if err != nil {
		return model.TaskCompletion{}, err
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteCompletion(ctx context.Context, userID string, ref model.Ref, date model.Date) (bool, error) {
	if err := ref.Validate(); err != nil {
		return false, err
	}
	column, id := refColumn(ref)
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_completions WHERE user_id = ? AND `+column+` = ? AND date = ?`,
		userID, id, date.String())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *SQLiteRepository) SetTaskCompletion(ctx context.Context, in TaskCompletionChange) (model.Task, model.TaskCompletion, error) {
	if in.Completed && in.Date.IsZero() {
		return model.Task{}, model.TaskCompletion{}, fmt.Errorf("%w: completion date is required", model.ErrInvalidTask)
	}
	ref := model.TaskRef(in.TaskID)
	if err := ref.Validate(); err != nil {
		return model.Task{}, model.TaskCompletion{}, err
	}
	var (
		task  model.Task
		entry model.TaskCompletion
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		now := r.now().UTC()
		res, err := tx.ExecContext(ctx, `UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			boolInt(in.Completed), mustTime(now), in.TaskID, in.UserID)
		if err != nil {
			return err
		}
		if err := checkRowsAffected(res); err != nil {
			return err
		}
		if in.Completed {
			entry, err = r.alignTaskCompletion(ctx, tx, in.UserID, in.TaskID, in.Date, in.CompletionID, now)
		} else {
			_, err = tx.ExecContext(ctx, `DELETE FROM task_completions WHERE user_id = ? AND task_id = ?`, in.UserID, in.TaskID)
		}
		if err != nil {
			return err
		}
		task, err = getTask(ctx, tx, in.UserID, in.TaskID)
		return err
	})
	if err != nil {
		return model.Task{}, model.TaskCompletion{}, err
	}
	return task, entry, nil
}

// alignTaskCompletion leaves exactly one ledger row for the task, dated date.
// A row already on date wins, then the newest row is moved, and only then is
// a fresh row inserted.
func (r *SQLiteRepository) alignTaskCompletion(ctx context.Context, tx *sql.Tx, userID, taskID string, date model.Date, newID string, now time.Time) (model.TaskCompletion, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+completionColumns+` FROM task_completions
		WHERE user_id = ? AND task_id = ? ORDER BY date DESC, created_at ASC, id ASC`, userID, taskID)
	if err != nil {
		return model.TaskCompletion{}, err
	}
	var existing []model.TaskCompletion
	for rows.Next() {
		item, scanErr := scanCompletion(rows)
		if scanErr != nil {
			rows.Close()
			return model.TaskCompletion{}, scanErr
		}
		existing = append(existing, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.TaskCompletion{}, err
	}

	keep := keptCompletion(existing, date)
	for i, c := range existing {
		if i == keep {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_completions WHERE id = ?`, c.ID); err != nil {
			return model.TaskCompletion{}, err
		}
	}
	if keep < 0 {
		entry := model.TaskCompletion{ID: newID, UserID: userID, TaskID: taskID, Date: date, CreatedAt: now}
		if entry.ID == "" {
			entry.ID = r.newID()
		}
		if err := insertCompletion(ctx, tx, entry); err != nil {
			return model.TaskCompletion{}, err
		}
		return getCompletion(ctx, tx, userID, entry.ID)
	}
	kept := existing[keep]
	if kept.Date != date {
		if _, err := tx.ExecContext(ctx, `UPDATE task_completions SET date = ? WHERE id = ?`, date.String(), kept.ID); err != nil {
			return model.TaskCompletion{}, err
		}
	}
	return getCompletion(ctx, tx, userID, kept.ID)
}

// keptCompletion picks the row that survives alignment: the one on date, else
// the first. -1 means there is nothing to keep.
func keptCompletion(existing []model.TaskCompletion, date model.Date) int {
	for i, c := range existing {
		if c.Date == date {
			return i
		}
	}
	if len(existing) > 0 {
		return 0
	}
	return -1
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTask(ctx context.Context, q querier, userID, id string) (model.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func getRecurring(ctx context.Context, q querier, userID, id string) (model.RecurringTask, error) {
	row := q.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_tasks WHERE id = ? AND user_id = ?`, id, userID)
	item, err := scanRecurring(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RecurringTask{}, ErrNotFound
		}
		return model.RecurringTask{}, err
	}
	return item, nil
}

func getCompletion(ctx context.Context, q querier, userID, id string) (model.TaskCompletion, error) {
	row := q.QueryRowContext(ctx, `SELECT `+completionColumns+` FROM task_completions WHERE id = ? AND user_id = ?`, id, userID)
	item, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TaskCompletion{}, ErrNotFound
		}
		return model.TaskCompletion{}, err
	}
	return item, nil
}

func findCompletion(ctx context.Context, q querier, userID string, ref model.Ref, date model.Date) (model.TaskCompletion, bool, error) {
	column, id := refColumn(ref)
	row := q.QueryRowContext(ctx, `SELECT `+completionColumns+` FROM task_completions WHERE user_id = ? AND `+column+` = ? AND date = ?`,
		userID, id, date.String())
	item, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TaskCompletion{}, false, nil
		}
		return model.TaskCompletion{}, false, err
	}
	return item, true, nil
}

func refExists(ctx context.Context, q querier, userID string, ref model.Ref) error {
	table, id := "tasks", ref.TaskID
	if ref.IsRecurring() {
		table, id = "recurring_tasks", ref.RecurringTaskID
	}
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func insertCompletion(ctx context.Context, q querier, in model.TaskCompletion) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO task_completions (`+completionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, nullString(in.TaskID), nullString(in.RecurringTaskID), in.Date.String(), mustTime(in.CreatedAt),
	)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateCompletion, err)
	}
	return err
}

func refColumn(ref model.Ref) (string, string) {
	if ref.IsRecurring() {
		return "recurring_task_id", ref.RecurringTaskID
	}
	return "task_id", ref.TaskID
}

func daysValue(in model.RecurringTask) (any, error) {
	if in.Frequency == model.FrequencyDaily {
		return nil, nil
	}
	return in.DaysOfWeek.Value()
}

// Both drivers report constraint failures with the sqlite error text.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func ensureDirForSQLite(path string) error {
	if path == "" || strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(path, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullDate(d model.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var category string
	var completed int
	var created, updated string
	if err := s.Scan(&out.ID, &out.UserID, &out.Title, &category, &completed, &out.Date, &out.OrderIndex, &created, &updated); err != nil {
		return model.Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Task{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return model.Task{}, err
	}
	out.Category = model.Category(category)
	out.Completed = completed == 1
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func scanRecurring(s scanner) (model.RecurringTask, error) {
	var out model.RecurringTask
	var frequency string
	var created, updated string
	if err := s.Scan(&out.ID, &out.UserID, &out.Title, &frequency, &out.DaysOfWeek, &out.OrderIndex, &created, &updated); err != nil {
		return model.RecurringTask{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.RecurringTask{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return model.RecurringTask{}, err
	}
	out.Frequency = model.Frequency(frequency)
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func scanCompletion(s scanner) (model.TaskCompletion, error) {
	var out model.TaskCompletion
	var taskID, recurringID sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.UserID, &taskID, &recurringID, &out.Date, &created); err != nil {
		return model.TaskCompletion{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.TaskCompletion{}, err
	}
	out.TaskID = taskID.String
	out.RecurringTaskID = recurringID.String
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
