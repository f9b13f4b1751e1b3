package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shuankun/shuankun-api/internal/models"
)

// TextbookUnitRepository persists publisher textbook units.
type TextbookUnitRepository struct {
	db *sqlx.DB
}

// NewTextbookUnitRepository constructs the repository.
func NewTextbookUnitRepository(db *sqlx.DB) *TextbookUnitRepository {
	return &TextbookUnitRepository{db: db}
}

// List returns units matching filter ordered by grade and unit order.
func (r *TextbookUnitRepository) List(ctx context.Context, filter models.TextbookUnitFilter) ([]models.TextbookUnit, error) {
	query := `SELECT id, publisher_id, subject_id, grade, unit_order, unit_name, category, suggested_hours, suggested_period FROM textbook_units`
	var conditions []string
	var args []interface{}

	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.PublisherID != "" {
		conditions = append(conditions, fmt.Sprintf("publisher_id = $%d", len(args)+1))
		args = append(args, filter.PublisherID)
	}
	if filter.Grade > 0 {
		conditions = append(conditions, fmt.Sprintf("grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY grade ASC, unit_order ASC"

	var units []models.TextbookUnit
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		return nil, fmt.Errorf("list textbook units: %w", err)
	}
	return units, nil
}

// Create inserts a unit.
func (r *TextbookUnitRepository) Create(ctx context.Context, unit *models.TextbookUnit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	const query = `INSERT INTO textbook_units (id, publisher_id, subject_id, grade, unit_order, unit_name, category, suggested_hours, suggested_period)
VALUES (:id, :publisher_id, :subject_id, :grade, :unit_order, :unit_name, :category, :suggested_hours, :suggested_period)`
	if _, err := r.db.NamedExecContext(ctx, query, unit); err != nil {
		return fmt.Errorf("create textbook unit: %w", err)
	}
	return nil
}
