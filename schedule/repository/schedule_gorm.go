package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type scheduledItemModel struct {
	ID             string     `gorm:"primaryKey;column:id" db:"id"`
	BlogPostID     *string    `gorm:"column:blog_post_id;index" db:"blog_post_id"`
	SocialPostID   *string    `gorm:"column:social_post_id;index" db:"social_post_id"`
	ScheduledTime  time.Time  `gorm:"column:scheduled_time;not null" db:"scheduled_time"`
	Frequency      string     `gorm:"column:frequency;not null;default:'once'" db:"frequency"`
	Status         string     `gorm:"column:status;index;not null;default:'pending'" db:"status"`
	NextExecution  *time.Time `gorm:"column:next_execution;index" db:"next_execution"`
	LastExecutedAt *time.Time `gorm:"column:last_executed_at" db:"last_executed_at"`
	ExecutionCount int        `gorm:"column:execution_count;default:0" db:"execution_count"`
	MaxExecutions  *int       `gorm:"column:max_executions" db:"max_executions"`
	RetryCount     int        `gorm:"column:retry_count;default:0" db:"retry_count"`
	MaxRetries     int        `gorm:"column:max_retries;default:3" db:"max_retries"`
	LastError      *string    `gorm:"column:last_error;type:text" db:"last_error"`
	ErrorLog       string     `gorm:"column:error_log;type:text;default:'[]'" db:"error_log"`
	LockedBy       *string    `gorm:"column:locked_by" db:"locked_by"`
	LockedUntil    *time.Time `gorm:"column:locked_until" db:"locked_until"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null" db:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;not null" db:"updated_at"`
}

func (scheduledItemModel) TableName() string {
	return "scheduled_items"
}

func toModel(item *scheduleDomain.Item) (scheduledItemModel, error) {
	errorLog := "[]"
	if len(item.ErrorLog) > 0 {
		data, err := json.Marshal(item.ErrorLog)
		if err != nil {
			return scheduledItemModel{}, fmt.Errorf("marshal error log: %w", err)
		}
		errorLog = string(data)
	}

	m := scheduledItemModel{
		ID:             item.ID,
		ScheduledTime:  item.ScheduledTime,
		Frequency:      string(item.Frequency),
		Status:         string(item.Status),
		NextExecution:  item.NextExecution,
		LastExecutedAt: item.LastExecutedAt,
		ExecutionCount: item.ExecutionCount,
		MaxExecutions:  item.MaxExecutions,
		RetryCount:     item.RetryCount,
		MaxRetries:     item.MaxRetries,
		LastError:      item.LastError,
		ErrorLog:       errorLog,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}

	// The tagged union flattens to two mutually exclusive columns.
	ref := item.Target.RefID
	switch item.Target.Kind {
	case scheduleDomain.TargetBlog:
		m.BlogPostID = &ref
	case scheduleDomain.TargetSocial:
		m.SocialPostID = &ref
	default:
		return scheduledItemModel{}, fmt.Errorf("unknown target kind: %s", item.Target.Kind)
	}

	return m, nil
}

func fromModel(m scheduledItemModel) (*scheduleDomain.Item, error) {
	var blogID, socialID string
	if m.BlogPostID != nil {
		blogID = *m.BlogPostID
	}
	if m.SocialPostID != nil {
		socialID = *m.SocialPostID
	}
	target, err := scheduleDomain.NewTarget(blogID, socialID)
	if err != nil {
		return nil, fmt.Errorf("scheduled item %s: %w", m.ID, err)
	}

	frequency, err := scheduleDomain.ParseFrequency(m.Frequency)
	if err != nil {
		return nil, fmt.Errorf("scheduled item %s: %w", m.ID, err)
	}
	status, err := scheduleDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, fmt.Errorf("scheduled item %s: %w", m.ID, err)
	}

	var errorLog []scheduleDomain.ErrorEntry
	if m.ErrorLog != "" && m.ErrorLog != "[]" {
		if err := json.Unmarshal([]byte(m.ErrorLog), &errorLog); err != nil {
			return nil, fmt.Errorf("scheduled item %s: unmarshal error log: %w", m.ID, err)
		}
	}

	return &scheduleDomain.Item{
		ID:             m.ID,
		Target:         target,
		ScheduledTime:  m.ScheduledTime,
		Frequency:      frequency,
		Status:         status,
		NextExecution:  m.NextExecution,
		LastExecutedAt: m.LastExecutedAt,
		ExecutionCount: m.ExecutionCount,
		MaxExecutions:  m.MaxExecutions,
		RetryCount:     m.RetryCount,
		MaxRetries:     m.MaxRetries,
		LastError:      m.LastError,
		ErrorLog:       errorLog,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}

// --- Repository Implementation ---

// ScheduleGormRepository stores items through gorm for the CRUD surface
// and drops to sqlx over the same connection pool for the runner's hot
// path (due scan, claim, persist), where the conditional UPDATEs need to
// be explicit SQL.
type ScheduleGormRepository struct {
	db   *gorm.DB
	sqlx *sqlx.DB
}

func NewScheduleGormRepository(db *gorm.DB, sqlDB *sql.DB, driver string) *ScheduleGormRepository {
	driverName := "sqlite3"
	if driver == "postgres" {
		driverName = "postgres"
	}
	return &ScheduleGormRepository{
		db:   db,
		sqlx: sqlx.NewDb(sqlDB, driverName),
	}
}

func (r *ScheduleGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&scheduledItemModel{})
}

func (r *ScheduleGormRepository) Create(ctx context.Context, item *scheduleDomain.Item) error {
	m, err := toModel(item)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *ScheduleGormRepository) GetByID(ctx context.Context, id string) (*scheduleDomain.Item, error) {
	var m scheduledItemModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError(fmt.Sprintf("scheduled item %s not found", id))
		}
		return nil, err
	}
	return fromModel(m)
}

func (r *ScheduleGormRepository) List(ctx context.Context, filter ListFilter) ([]scheduleDomain.Item, error) {
	query := r.db.WithContext(ctx).Model(&scheduledItemModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Kind != nil {
		switch *filter.Kind {
		case scheduleDomain.TargetBlog:
			query = query.Where("blog_post_id IS NOT NULL")
		case scheduleDomain.TargetSocial:
			query = query.Where("social_post_id IS NOT NULL")
		}
	}

	var models []scheduledItemModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return fromModels(models)
}

func (r *ScheduleGormRepository) ByBlogPost(ctx context.Context, blogPostID string) ([]scheduleDomain.Item, error) {
	var models []scheduledItemModel
	if err := r.db.WithContext(ctx).Find(&models, "blog_post_id = ?", blogPostID).Error; err != nil {
		return nil, err
	}
	return fromModels(models)
}

func (r *ScheduleGormRepository) BySocialPost(ctx context.Context, socialPostID string) ([]scheduleDomain.Item, error) {
	var models []scheduledItemModel
	if err := r.db.WithContext(ctx).Find(&models, "social_post_id = ?", socialPostID).Error; err != nil {
		return nil, err
	}
	return fromModels(models)
}

func (r *ScheduleGormRepository) Update(ctx context.Context, item *scheduleDomain.Item) error {
	item.UpdatedAt = time.Now().UTC()
	m, err := toModel(item)
	if err != nil {
		return err
	}
	// Save with all fields so cleared pointers (next_execution after a
	// terminal transition) actually write NULL.
	result := r.db.WithContext(ctx).Model(&scheduledItemModel{}).
		Where("id = ?", m.ID).
		Select("*").Omit("id", "created_at").
		Updates(&m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError(fmt.Sprintf("scheduled item %s not found", item.ID))
	}
	return nil
}

func (r *ScheduleGormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&scheduledItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError(fmt.Sprintf("scheduled item %s not found", id))
	}
	return nil
}

func (r *ScheduleGormRepository) DeleteByTarget(ctx context.Context, target scheduleDomain.Target) error {
	column := "blog_post_id"
	if target.Kind == scheduleDomain.TargetSocial {
		column = "social_post_id"
	}
	return r.db.WithContext(ctx).Delete(&scheduledItemModel{}, column+" = ?", target.RefID).Error
}

const dueItemsQuery = `
SELECT id, blog_post_id, social_post_id, scheduled_time, frequency, status,
       next_execution, last_executed_at, execution_count, max_executions,
       retry_count, max_retries, last_error, error_log, locked_by,
       locked_until, created_at, updated_at
FROM scheduled_items
WHERE status = ?
  AND (next_execution <= ? OR (next_execution IS NULL AND scheduled_time <= ?))`

func (r *ScheduleGormRepository) DueItems(ctx context.Context, now time.Time) ([]scheduleDomain.Item, error) {
	var models []scheduledItemModel
	query := r.sqlx.Rebind(dueItemsQuery)
	if err := r.sqlx.SelectContext(ctx, &models, query, string(scheduleDomain.StatusPending), now, now); err != nil {
		return nil, err
	}
	return fromModels(models)
}

const claimQuery = `
UPDATE scheduled_items
SET locked_by = ?, locked_until = ?
WHERE id = ?
  AND status = ?
  AND (locked_by IS NULL OR locked_until < ? OR locked_by = ?)`

func (r *ScheduleGormRepository) Claim(ctx context.Context, id, runnerID string, ttl time.Duration, now time.Time) (bool, error) {
	query := r.sqlx.Rebind(claimQuery)
	result, err := r.sqlx.ExecContext(ctx, query,
		runnerID, now.Add(ttl), id, string(scheduleDomain.StatusPending), now, runnerID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

const releaseClaimQuery = `
UPDATE scheduled_items
SET locked_by = NULL, locked_until = NULL
WHERE id = ? AND locked_by = ?`

func (r *ScheduleGormRepository) ReleaseClaim(ctx context.Context, id, runnerID string) error {
	query := r.sqlx.Rebind(releaseClaimQuery)
	_, err := r.sqlx.ExecContext(ctx, query, id, runnerID)
	return err
}

const persistExecutionQuery = `
UPDATE scheduled_items
SET status = ?, next_execution = ?, last_executed_at = ?, execution_count = ?,
    retry_count = ?, last_error = ?, error_log = ?, updated_at = ?,
    locked_by = NULL, locked_until = NULL
WHERE id = ? AND locked_by = ?`

func (r *ScheduleGormRepository) PersistExecution(ctx context.Context, item *scheduleDomain.Item, runnerID string) error {
	item.UpdatedAt = time.Now().UTC()
	m, err := toModel(item)
	if err != nil {
		return err
	}

	query := r.sqlx.Rebind(persistExecutionQuery)
	result, err := r.sqlx.ExecContext(ctx, query,
		m.Status, m.NextExecution, m.LastExecutedAt, m.ExecutionCount,
		m.RetryCount, m.LastError, m.ErrorLog, m.UpdatedAt,
		m.ID, runnerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrClaimLost
	}
	return nil
}

func (r *ScheduleGormRepository) NotifyChanged(ctx context.Context) error {
	if r.sqlx.DriverName() != "postgres" {
		return nil
	}
	_, err := r.sqlx.ExecContext(ctx, `SELECT pg_notify('schedule_changes', '')`)
	return err
}

func fromModels(models []scheduledItemModel) ([]scheduleDomain.Item, error) {
	items := make([]scheduleDomain.Item, 0, len(models))
	for _, m := range models {
		item, err := fromModel(m)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}
