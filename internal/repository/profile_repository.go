package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shuankun/shuankun-api/internal/models"
)

// ProfileRepository persists teacher profiles and their subject selections.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Get returns the profile of a user.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	const query = `SELECT user_id, email, role, grade, class_number, created_at, updated_at FROM teacher_profiles WHERE user_id = $1`
	var profile models.TeacherProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, fmt.Errorf("get teacher profile: %w", err)
	}
	return &profile, nil
}

// Upsert creates or updates a user's profile.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.TeacherProfile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO teacher_profiles (user_id, email, role, grade, class_number, created_at, updated_at)
		VALUES (:user_id, :email, :role, :grade, :class_number, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    role = EXCLUDED.role,
		    grade = EXCLUDED.grade,
		    class_number = EXCLUDED.class_number,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert teacher profile: %w", err)
	}
	return nil
}

// ListSubjects returns the subjects a user teaches joined with subject and
// publisher names. grade 0 lists every grade.
func (r *ProfileRepository) ListSubjects(ctx context.Context, userID string, grade int) ([]models.UserSubject, error) {
	query := `
SELECT us.id, us.user_id, us.subject_id, s.name AS subject_name, s.category, us.grade, us.class_number, us.publisher_id, p.name AS publisher_name
FROM user_subjects us
JOIN subjects s ON s.id = us.subject_id
LEFT JOIN publishers p ON p.id = us.publisher_id
WHERE us.user_id = $1`
	args := []interface{}{userID}
	if grade > 0 {
		query += ` AND us.grade = $2`
		args = append(args, grade)
	}
	query += ` ORDER BY us.grade ASC, s.name ASC`

	var subjects []models.UserSubject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list user subjects: %w", err)
	}
	return subjects, nil
}

// ReplaceSubjects swaps the user's subject selections.
func (r *ProfileRepository) ReplaceSubjects(ctx context.Context, exec sqlx.ExtContext, userID string, subjects []models.UserSubject) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM user_subjects WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear user subjects: %w", err)
	}

	const query = `INSERT INTO user_subjects (id, user_id, subject_id, grade, class_number, publisher_id)
VALUES (:id, :user_id, :subject_id, :grade, :class_number, :publisher_id)`
	for i := range subjects {
		subject := &subjects[i]
		if subject.ID == "" {
			subject.ID = uuid.NewString()
		}
		subject.UserID = userID
		if _, err := sqlx.NamedExecContext(ctx, target, query, subject); err != nil {
			return fmt.Errorf("insert user subject: %w", err)
		}
	}
	return nil
}
