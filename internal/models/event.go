package models

import "time"

// SchoolEvent is a dated school event. Its name is copied into the memo of
// that day's cells when a plan is initialised.
type SchoolEvent struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	EventDate     time.Time `db:"event_date" json:"event_date"`
	EventType     string    `db:"event_type" json:"event_type"`
	HoursFraction float64   `db:"hours_fraction" json:"hours_fraction"`
	Memo          string    `db:"memo" json:"memo"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
