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

// EventRepository persists school events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListByRange returns a user's events dated within [from, to], inclusive.
func (r *EventRepository) ListByRange(ctx context.Context, userID string, from, to time.Time) ([]models.SchoolEvent, error) {
	const query = `SELECT id, user_id, name, event_date, event_type, hours_fraction, memo, created_at
FROM school_events WHERE user_id = $1 AND event_date BETWEEN $2 AND $3 ORDER BY event_date ASC, name ASC`
	var events []models.SchoolEvent
	if err := r.db.SelectContext(ctx, &events, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("list school events: %w", err)
	}
	return events, nil
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, event *models.SchoolEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO school_events (id, user_id, name, event_date, event_type, hours_fraction, memo, created_at)
VALUES (:id, :user_id, :name, :event_date, :event_type, :hours_fraction, :memo, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create school event: %w", err)
	}
	return nil
}

// Delete removes an event owned by userID. sql.ErrNoRows is returned when nothing matched.
func (r *EventRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM school_events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete school event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete school event rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
