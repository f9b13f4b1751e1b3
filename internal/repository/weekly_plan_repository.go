package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shuankun/shuankun-api/internal/models"
)

const weeklyPlanColumns = `id, user_id, academic_year, week_start_date, week_end_date, status, created_at, updated_at`

// WeeklyPlanRepository persists weekly plans and their cells.
type WeeklyPlanRepository struct {
	db *sqlx.DB
}

// NewWeeklyPlanRepository constructs the repository.
func NewWeeklyPlanRepository(db *sqlx.DB) *WeeklyPlanRepository {
	return &WeeklyPlanRepository{db: db}
}

func (r *WeeklyPlanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert stores the plan header keyed by user and week start. The stored ID is
// written back to plan.
func (r *WeeklyPlanRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, plan *models.WeeklyPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.Status == "" {
		plan.Status = models.PlanStatusDraft
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	const query = `
INSERT INTO weekly_plans (id, user_id, academic_year, week_start_date, week_end_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, week_start_date) DO UPDATE
SET academic_year = EXCLUDED.academic_year,
    week_end_date = EXCLUDED.week_end_date,
    status = EXCLUDED.status,
    updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	var stored struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := sqlx.GetContext(ctx, r.exec(exec), &stored, query,
		plan.ID, plan.UserID, plan.AcademicYear, plan.WeekStartDate, plan.WeekEndDate, plan.Status, plan.CreatedAt, plan.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert weekly plan: %w", err)
	}
	plan.ID = stored.ID
	plan.CreatedAt = stored.CreatedAt
	return nil
}

// ReplaceDetails swaps every stored cell of a plan for details.
func (r *WeeklyPlanRepository) ReplaceDetails(ctx context.Context, exec sqlx.ExtContext, planID string, details []models.WeeklyPlanDetail) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM weekly_plan_details WHERE weekly_plan_id = $1`, planID); err != nil {
		return fmt.Errorf("clear weekly plan details: %w", err)
	}

	const query = `INSERT INTO weekly_plan_details (id, weekly_plan_id, day_of_week, period, subject_id, unit_id, grade, class_number, hours, memo)
VALUES (:id, :weekly_plan_id, :day_of_week, :period, :subject_id, :unit_id, :grade, :class_number, :hours, :memo)`
	for i := range details {
		detail := &details[i]
		if detail.ID == "" {
			detail.ID = uuid.NewString()
		}
		detail.WeeklyPlanID = planID
		if _, err := sqlx.NamedExecContext(ctx, target, query, detail); err != nil {
			return fmt.Errorf("insert weekly plan detail: %w", err)
		}
	}
	return nil
}

// GetByWeek returns the plan a user saved for the week starting at weekStart.
func (r *WeeklyPlanRepository) GetByWeek(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyPlan, error) {
	query := `SELECT ` + weeklyPlanColumns + ` FROM weekly_plans WHERE user_id = $1 AND week_start_date = $2`
	var plan models.WeeklyPlan
	if err := r.db.GetContext(ctx, &plan, query, userID, weekStart); err != nil {
		return nil, fmt.Errorf("get weekly plan by week: %w", err)
	}
	return &plan, nil
}

// GetByID returns a plan by identifier.
func (r *WeeklyPlanRepository) GetByID(ctx context.Context, id string) (*models.WeeklyPlan, error) {
	query := `SELECT ` + weeklyPlanColumns + ` FROM weekly_plans WHERE id = $1`
	var plan models.WeeklyPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, fmt.Errorf("get weekly plan: %w", err)
	}
	return &plan, nil
}

type weeklyPlanDetailRow struct {
	ID           string          `db:"id"`
	WeeklyPlanID string          `db:"weekly_plan_id"`
	DayOfWeek    int             `db:"day_of_week"`
	Period       int             `db:"period"`
	SubjectID    string          `db:"subject_id"`
	UnitID       *string         `db:"unit_id"`
	Grade        *int            `db:"grade"`
	ClassNumber  *int            `db:"class_number"`
	Hours        sql.NullFloat64 `db:"hours"`
	Memo         sql.NullString  `db:"memo"`
}

// ListDetails returns the stored cells of a plan in grid order. NULL hours
// read back as 0 and NULL memos as empty.
func (r *WeeklyPlanRepository) ListDetails(ctx context.Context, planID string) ([]models.WeeklyPlanDetail, error) {
	const query = `SELECT id, weekly_plan_id, day_of_week, period, subject_id, unit_id, grade, class_number, hours, memo
FROM weekly_plan_details WHERE weekly_plan_id = $1 ORDER BY day_of_week ASC, period ASC`
	var rows []weeklyPlanDetailRow
	if err := r.db.SelectContext(ctx, &rows, query, planID); err != nil {
		return nil, fmt.Errorf("list weekly plan details: %w", err)
	}
	details := make([]models.WeeklyPlanDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, models.WeeklyPlanDetail{
			ID:           row.ID,
			WeeklyPlanID: row.WeeklyPlanID,
			DayOfWeek:    row.DayOfWeek,
			Period:       row.Period,
			SubjectID:    row.SubjectID,
			UnitID:       row.UnitID,
			Grade:        row.Grade,
			ClassNumber:  row.ClassNumber,
			Hours:        row.Hours.Float64,
			Memo:         row.Memo.String,
		})
	}
	return details, nil
}

// ListByUser returns a user's plans, newest week first. academicYear 0 lists all years.
func (r *WeeklyPlanRepository) ListByUser(ctx context.Context, userID string, academicYear int) ([]models.WeeklyPlan, error) {
	query := `SELECT ` + weeklyPlanColumns + ` FROM weekly_plans WHERE user_id = $1`
	args := []interface{}{userID}
	if academicYear > 0 {
		query += ` AND academic_year = $2`
		args = append(args, academicYear)
	}
	query += ` ORDER BY week_start_date DESC`

	var plans []models.WeeklyPlan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, fmt.Errorf("list weekly plans: %w", err)
	}
	return plans, nil
}

// Delete removes a plan owned by userID together with its cells.
// sql.ErrNoRows is returned when nothing matched.
func (r *WeeklyPlanRepository) Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM weekly_plan_details WHERE weekly_plan_id IN (SELECT id FROM weekly_plans WHERE id = $1 AND user_id = $2)`, id, userID); err != nil {
		return fmt.Errorf("delete weekly plan details: %w", err)
	}
	res, err := target.ExecContext(ctx, `DELETE FROM weekly_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete weekly plan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete weekly plan rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListActualHours returns the saved cells of one subject and grade across the
// user's plans whose week starts inside the academic year.
func (r *WeeklyPlanRepository) ListActualHours(ctx context.Context, userID, subjectID string, grade, academicYear int) ([]models.ActualHourRecord, error) {
	from := time.Date(academicYear, time.April, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(academicYear+1, time.March, 31, 0, 0, 0, 0, time.UTC)

	const query = `
SELECT d.hours, p.week_start_date, d.subject_id, d.grade
FROM weekly_plan_details d
JOIN weekly_plans p ON p.id = d.weekly_plan_id
WHERE p.user_id = $1 AND d.subject_id = $2 AND d.grade = $3
  AND p.week_start_date BETWEEN $4 AND $5
ORDER BY p.week_start_date ASC`
	var records []models.ActualHourRecord
	if err := r.db.SelectContext(ctx, &records, query, userID, subjectID, grade, from, to); err != nil {
		return nil, fmt.Errorf("list actual hours: %w", err)
	}
	return records, nil
}
