package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shuankun/shuankun-api/internal/models"
)

// PublisherRepository persists textbook publishers.
type PublisherRepository struct {
	db *sqlx.DB
}

// NewPublisherRepository constructs the repository.
func NewPublisherRepository(db *sqlx.DB) *PublisherRepository {
	return &PublisherRepository{db: db}
}

// List returns publishers ordered by name.
func (r *PublisherRepository) List(ctx context.Context) ([]models.Publisher, error) {
	var publishers []models.Publisher
	if err := r.db.SelectContext(ctx, &publishers, `SELECT id, name, code, created_at FROM publishers ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list publishers: %w", err)
	}
	return publishers, nil
}

// ExistsByCode checks whether a publisher code is taken.
func (r *PublisherRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM publishers WHERE LOWER(code) = LOWER($1))`, code); err != nil {
		return false, fmt.Errorf("check publisher code: %w", err)
	}
	return exists, nil
}

// Create inserts a publisher.
func (r *PublisherRepository) Create(ctx context.Context, publisher *models.Publisher) error {
	if publisher.ID == "" {
		publisher.ID = uuid.NewString()
	}
	if publisher.CreatedAt.IsZero() {
		publisher.CreatedAt = time.Now().UTC()
	}
	publisher.Code = strings.TrimSpace(publisher.Code)

	const query = `INSERT INTO publishers (id, name, code, created_at) VALUES (:id, :name, :code, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, publisher); err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	return nil
}
