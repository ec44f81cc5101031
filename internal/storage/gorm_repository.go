package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/daytrack/internal/model"
)

type gormTask struct {
	ID         string  `gorm:"primaryKey"`
	UserID     string  `gorm:"index:idx_gorm_tasks_scope,priority:1;not null"`
	Title      string  `gorm:"not null"`
	Category   string  `gorm:"index:idx_gorm_tasks_scope,priority:2;not null"`
	Completed  bool    `gorm:"not null;default:false"`
	Date       *string `gorm:"index:idx_gorm_tasks_scope,priority:3"`
	OrderIndex int     `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (gormTask) TableName() string { return "tasks" }

type gormRecurringTask struct {
	ID         string  `gorm:"primaryKey"`
	UserID     string  `gorm:"index;not null"`
	Title      string  `gorm:"not null"`
	Frequency  string  `gorm:"not null"`
	DaysOfWeek *string `gorm:"column:days_of_week"`
	OrderIndex int     `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (gormRecurringTask) TableName() string { return "recurring_tasks" }

// NULL reference ids never collide in a sqlite unique index, so one composite
// index per reference column enforces (ref, date) uniqueness.
type gormCompletion struct {
	ID              string  `gorm:"primaryKey"`
	UserID          string  `gorm:"index;not null"`
	TaskID          *string `gorm:"uniqueIndex:idx_gorm_completion_task_date,priority:1"`
	RecurringTaskID *string `gorm:"uniqueIndex:idx_gorm_completion_recurring_date,priority:1"`
	Date            string  `gorm:"not null;uniqueIndex:idx_gorm_completion_task_date,priority:2;uniqueIndex:idx_gorm_completion_recurring_date,priority:2"`
	CreatedAt       time.Time
}

func (gormCompletion) TableName() string { return "task_completions" }

type GormRepository struct {
	db    *gorm.DB
	newID func() string
}

var _ Repository = (*GormRepository)(nil)

// OpenGorm opens a sqlite database through gorm and auto-migrates the schema.
func OpenGorm(dsn string, logOut *log.Logger) (*GormRepository, error) {
	if dsn == "" {
		dsn = "daytrack.db"
	}
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}
	if logOut == nil {
		logOut = log.New(os.Stderr, "", log.LstdFlags)
	}
	dbLogger := logger.New(
		logOut,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         dbLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return NewGormRepository(db)
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil gorm db")
	}
	if err := db.AutoMigrate(&gormTask{}, &gormRecurringTask{}, &gormCompletion{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return &GormRepository{db: db, newID: uuid.NewString}, nil
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *GormRepository) ListTasks(ctx context.Context, userID string, filter TaskListFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Category != "" {
		q = q.Where("category = ?", string(filter.Category))
	}
	if !filter.Date.IsZero() {
		q = q.Where("date = ?", filter.Date.String())
	}
	q = q.Order("order_index ASC, created_at ASC, id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	var rows []gormTask
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *GormRepository) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	if in.ID == "" {
		in.ID = r.newID()
	}
	row := taskRow(in)
	row.UpdatedAt = time.Time{}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return r.getTask(ctx, r.db, in.UserID, in.ID)
}

func (r *GormRepository) UpdateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	var task model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&gormTask{}).
			Where("id = ? AND user_id = ?", in.ID, in.UserID).
			Updates(map[string]any{
				"title":       in.Title,
				"category":    string(in.Category),
				"completed":   in.Completed,
				"date":        datePtr(in.Date),
				"order_index": in.OrderIndex,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if in.Completed && !in.Date.IsZero() {
			if _, err := r.alignTaskCompletion(tx, in.UserID, in.ID, in.Date, ""); err != nil {
				return err
			}
		}
		var err error
		task, err = r.getTask(ctx, tx, in.UserID, in.ID)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (r *GormRepository) DeleteTask(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND task_id = ?", userID, id).Delete(&gormCompletion{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&gormTask{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepository) ReorderTasks(ctx context.Context, userID string, changes []OrderChange) ([]model.Task, error) {
	out := make([]model.Task, 0, len(changes))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range changes {
			res := tx.Model(&gormTask{}).Where("id = ? AND user_id = ?", c.ID, userID).Update("order_index", c.OrderIndex)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		for _, c := range changes {
			task, err := r.getTask(ctx, tx, userID, c.ID)
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

func (r *GormRepository) ListRecurringTasks(ctx context.Context, userID string) ([]model.RecurringTask, error) {
	var rows []gormRecurringTask
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("order_index ASC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.RecurringTask, 0, len(rows))
	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *GormRepository) CreateRecurringTask(ctx context.Context, in model.RecurringTask) (model.RecurringTask, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.RecurringTask{}, err
	}
	if in.ID == "" {
		in.ID = r.newID()
	}
	row, err := recurringRow(in)
	if err != nil {
		return model.RecurringTask{}, err
	}
	row.UpdatedAt = time.Time{}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.RecurringTask{}, fmt.Errorf("create recurring task: %w", err)
	}
	return r.getRecurring(ctx, r.db, in.UserID, in.ID)
}

func (r *GormRepository) UpdateRecurringTask(ctx context.Context, in model.RecurringTask) (model.RecurringTask, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.RecurringTask{}, err
	}
	row, err := recurringRow(in)
	if err != nil {
		return model.RecurringTask{}, err
	}
	res := r.db.WithContext(ctx).Model(&gormRecurringTask{}).
		Where("id = ? AND user_id = ?", in.ID, in.UserID).
		Updates(map[string]any{
			"title":        row.Title,
			"frequency":    row.Frequency,
			"days_of_week": row.DaysOfWeek,
			"order_index":  row.OrderIndex,
		})
	if res.Error != nil {
		return model.RecurringTask{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.RecurringTask{}, ErrNotFound
	}
	return r.getRecurring(ctx, r.db, in.UserID, in.ID)
}

func (r *GormRepository) DeleteRecurringTask(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND recurring_task_id = ?", userID, id).Delete(&gormCompletion{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&gormRecurringTask{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepository) ReorderRecurringTasks(ctx context.Context, userID string, changes []OrderChange) ([]model.RecurringTask, error) {
	out := make([]model.RecurringTask, 0, len(changes))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range changes {
			res := tx.Model(&gormRecurringTask{}).Where("id = ? AND user_id = ?", c.ID, userID).Update("order_index", c.OrderIndex)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		for _, c := range changes {
			item, err := r.getRecurring(ctx, tx, userID, c.ID)
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

func (r *GormRepository) ListCompletions(ctx context.Context, userID string, filter CompletionListFilter) ([]model.TaskCompletion, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.TaskID != "" {
		q = q.Where("task_id = ?", filter.TaskID)
	}
	if filter.RecurringTaskID != "" {
		q = q.Where("recurring_task_id = ?", filter.RecurringTaskID)
	}
	if !filter.Date.IsZero() {
		q = q.Where("date = ?", filter.Date.String())
	}
	q = q.Order("date DESC, created_at ASC, id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	var rows []gormCompletion
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.TaskCompletion, 0, len(rows))
	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *GormRepository) CreateCompletion(ctx context.Context, in model.TaskCompletion) (model.TaskCompletion, error) {
	if err := in.Validate(); err != nil {
		return model.TaskCompletion{}, err
	}
	if in.ID == "" {
		in.ID = r.newID()
	}
	var out model.TaskCompletion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.refExists(tx, in.UserID, in.Ref()); err != nil {
			return err
		}
		if _, found, err := r.findCompletion(tx, in.UserID, in.Ref(), in.Date); err != nil {
			return err
		} else if found {
			return fmt.Errorf("%w: %s on %s", ErrDuplicateCompletion, in.Ref(), in.Date)
		}
		row := completionRow(in)
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %v", ErrDuplicateCompletion, err)
			}
			return err
		}
		var err error
		out, err = row.toModel()
		return err
	})
	if err != nil {
		return model.TaskCompletion{}, err
	}
	return out, nil
}

func (r *GormRepository) DeleteCompletion(ctx context.Context, userID string, ref model.Ref, date model.Date) (bool, error) {
	if err := ref.Validate(); err != nil {
		return false, err
	}
	column, id := refColumn(ref)
	res := r.db.WithContext(ctx).Where("user_id = ? AND "+column+" = ? AND date = ?", userID, id, date.String()).
		Delete(&gormCompletion{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepository) SetTaskCompletion(ctx context.Context, in TaskCompletionChange) (model.Task, model.TaskCompletion, error) {
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
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&gormTask{}).Where("id = ? AND user_id = ?", in.TaskID, in.UserID).Update("completed", in.Completed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		var err error
		if in.Completed {
			entry, err = r.alignTaskCompletion(tx, in.UserID, in.TaskID, in.Date, in.CompletionID)
		} else {
			err = tx.Where("user_id = ? AND task_id = ?", in.UserID, in.TaskID).Delete(&gormCompletion{}).Error
		}
		if err != nil {
			return err
		}
		task, err = r.getTask(ctx, tx, in.UserID, in.TaskID)
		return err
	})
	if err != nil {
		return model.Task{}, model.TaskCompletion{}, err
	}
	return task, entry, nil
}

// alignTaskCompletion mirrors the sqlite backend: one ledger row per task,
// preferring the row already on date over moving the newest one.
func (r *GormRepository) alignTaskCompletion(tx *gorm.DB, userID, taskID string, date model.Date, newID string) (model.TaskCompletion, error) {
	var rows []gormCompletion
	if err := tx.Where("user_id = ? AND task_id = ?", userID, taskID).
		Order("date DESC, created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return model.TaskCompletion{}, err
	}
	existing := make([]model.TaskCompletion, 0, len(rows))
	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return model.TaskCompletion{}, err
		}
		existing = append(existing, item)
	}

	keep := keptCompletion(existing, date)
	for i, c := range existing {
		if i == keep {
			continue
		}
		if err := tx.Where("id = ?", c.ID).Delete(&gormCompletion{}).Error; err != nil {
			return model.TaskCompletion{}, err
		}
	}
	if keep < 0 {
		if newID == "" {
			newID = r.newID()
		}
		row := completionRow(model.TaskCompletion{ID: newID, UserID: userID, TaskID: taskID, Date: date})
		if err := tx.Create(&row).Error; err != nil {
			return model.TaskCompletion{}, err
		}
		return row.toModel()
	}
	kept := existing[keep]
	if kept.Date != date {
		if err := tx.Model(&gormCompletion{}).Where("id = ?", kept.ID).Update("date", date.String()).Error; err != nil {
			return model.TaskCompletion{}, err
		}
		kept.Date = date
	}
	return kept, nil
}

func (r *GormRepository) getTask(ctx context.Context, db *gorm.DB, userID, id string) (model.Task, error) {
	var row gormTask
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return row.toModel()
}

func (r *GormRepository) getRecurring(ctx context.Context, db *gorm.DB, userID, id string) (model.RecurringTask, error) {
	var row gormRecurringTask
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.RecurringTask{}, ErrNotFound
		}
		return model.RecurringTask{}, err
	}
	return row.toModel()
}

func (r *GormRepository) findCompletion(tx *gorm.DB, userID string, ref model.Ref, date model.Date) (model.TaskCompletion, bool, error) {
	column, id := refColumn(ref)
	var rows []gormCompletion
	if err := tx.Where("user_id = ? AND "+column+" = ? AND date = ?", userID, id, date.String()).
		Limit(1).Find(&rows).Error; err != nil {
		return model.TaskCompletion{}, false, err
	}
	if len(rows) == 0 {
		return model.TaskCompletion{}, false, nil
	}
	item, err := rows[0].toModel()
	return item, err == nil, err
}

func (r *GormRepository) refExists(tx *gorm.DB, userID string, ref model.Ref) error {
	var count int64
	var err error
	if ref.IsRecurring() {
		err = tx.Model(&gormRecurringTask{}).Where("id = ? AND user_id = ?", ref.RecurringTaskID, userID).Count(&count).Error
	} else {
		err = tx.Model(&gormTask{}).Where("id = ? AND user_id = ?", ref.TaskID, userID).Count(&count).Error
	}
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func taskRow(in model.Task) gormTask {
	return gormTask{
		ID:         in.ID,
		UserID:     in.UserID,
		Title:      in.Title,
		Category:   string(in.Category),
		Completed:  in.Completed,
		Date:       datePtr(in.Date),
		OrderIndex: in.OrderIndex,
		CreatedAt:  in.CreatedAt,
		UpdatedAt:  in.UpdatedAt,
	}
}

func (row gormTask) toModel() (model.Task, error) {
	out := model.Task{
		ID:         row.ID,
		UserID:     row.UserID,
		Title:      row.Title,
		Category:   model.Category(row.Category),
		Completed:  row.Completed,
		OrderIndex: row.OrderIndex,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
	if row.Date != nil {
		d, err := model.ParseDate(*row.Date)
		if err != nil {
			return model.Task{}, err
		}
		out.Date = d
	}
	return out, nil
}

func recurringRow(in model.RecurringTask) (gormRecurringTask, error) {
	row := gormRecurringTask{
		ID:         in.ID,
		UserID:     in.UserID,
		Title:      in.Title,
		Frequency:  string(in.Frequency),
		OrderIndex: in.OrderIndex,
		CreatedAt:  in.CreatedAt,
		UpdatedAt:  in.UpdatedAt,
	}
	if in.Frequency == model.FrequencyWeekly {
		v, err := in.DaysOfWeek.Value()
		if err != nil {
			return gormRecurringTask{}, err
		}
		s := v.(string)
		row.DaysOfWeek = &s
	}
	return row, nil
}

func (row gormRecurringTask) toModel() (model.RecurringTask, error) {
	out := model.RecurringTask{
		ID:         row.ID,
		UserID:     row.UserID,
		Title:      row.Title,
		Frequency:  model.Frequency(row.Frequency),
		OrderIndex: row.OrderIndex,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
	if row.DaysOfWeek != nil {
		if err := out.DaysOfWeek.Scan(*row.DaysOfWeek); err != nil {
			return model.RecurringTask{}, err
		}
	}
	return out, nil
}

func completionRow(in model.TaskCompletion) gormCompletion {
	row := gormCompletion{
		ID:        in.ID,
		UserID:    in.UserID,
		Date:      in.Date.String(),
		CreatedAt: in.CreatedAt,
	}
	if in.TaskID != "" {
		id := in.TaskID
		row.TaskID = &id
	}
	if in.RecurringTaskID != "" {
		id := in.RecurringTaskID
		row.RecurringTaskID = &id
	}
	return row
}

func (row gormCompletion) toModel() (model.TaskCompletion, error) {
	d, err := model.ParseDate(row.Date)
	if err != nil {
		return model.TaskCompletion{}, err
	}
	out := model.TaskCompletion{
		ID:        row.ID,
		UserID:    row.UserID,
		Date:      d,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.TaskID != nil {
		out.TaskID = *row.TaskID
	}
	if row.RecurringTaskID != nil {
		out.RecurringTaskID = *row.RecurringTaskID
	}
	return out, nil
}

func datePtr(d model.Date) *string {
	if d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}
