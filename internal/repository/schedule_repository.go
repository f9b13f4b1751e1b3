package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shuankun/shuankun-api/internal/models"
)

// ScheduleRepository provides persistence for base timetables.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// GetDefault returns the user's default schedule without details.
func (r *ScheduleRepository) GetDefault(ctx context.Context, userID string) (*models.Schedule, error) {
	const query = `SELECT id, user_id, name, is_default, daily_periods, created_at, updated_at
FROM schedules WHERE user_id = $1 AND is_default = TRUE ORDER BY updated_at DESC LIMIT 1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, userID); err != nil {
		return nil, fmt.Errorf("get default schedule: %w", err)
	}
	return &schedule, nil
}

// ListDetails returns the occupied slots of a schedule in grid order.
func (r *ScheduleRepository) ListDetails(ctx context.Context, scheduleID string) ([]models.ScheduleDetail, error) {
	const query = `
SELECT sd.id, sd.schedule_id, sd.day_of_week, sd.period, sd.subject_id, COALESCE(s.name, '') AS subject_name, sd.grade, sd.class_number
FROM schedule_details sd
LEFT JOIN subjects s ON s.id = sd.subject_id
WHERE sd.schedule_id = $1
ORDER BY sd.day_of_week ASC, sd.period ASC`
	var details []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &details, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule details: %w", err)
	}
	return details, nil
}

// Create inserts a schedule header.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, user_id, name, is_default, daily_periods, created_at, updated_at)
VALUES (:id, :user_id, :name, :is_default, :daily_periods, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule header.
func (r *ScheduleRepository) Update(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET name = :name, is_default = :is_default, daily_periods = :daily_periods, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// ReplaceDetails swaps the slots of a schedule.
func (r *ScheduleRepository) ReplaceDetails(ctx context.Context, exec sqlx.ExtContext, scheduleID string, details []models.ScheduleDetail) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM schedule_details WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("clear schedule details: %w", err)
	}

	const query = `INSERT INTO schedule_details (id, schedule_id, day_of_week, period, subject_id, grade, class_number)
VALUES (:id, :schedule_id, :day_of_week, :period, :subject_id, :grade, :class_number)`
	for i := range details {
		detail := &details[i]
		if detail.ID == "" {
			detail.ID = uuid.NewString()
		}
		detail.ScheduleID = scheduleID
		if _, err := sqlx.NamedExecContext(ctx, target, query, detail); err != nil {
			return fmt.Errorf("insert schedule detail: %w", err)
		}
	}
	return nil
}
