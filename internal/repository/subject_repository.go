package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shuankun/shuankun-api/internal/models"
)

// SubjectRepository reads the subject catalogue.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects in category display order, then by name.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, category, created_at FROM subjects
ORDER BY CASE category WHEN $1 THEN 1 WHEN $2 THEN 2 WHEN $3 THEN 3 WHEN $4 THEN 4 ELSE 5 END, name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query,
		models.SubjectCategoryCore, models.SubjectCategorySpecialist, models.SubjectCategoryOther, models.SubjectCategoryActivities,
	); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT id, name, category, created_at FROM subjects WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &subject, nil
}
