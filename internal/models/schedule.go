package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Default timetable dimensions.
const (
	DefaultSchoolDays       = 5
	DefaultPeriodsPerDay    = 6
	MaxPeriodsPerDay        = 8
	defaultDailyPeriodsJSON = `{}`
)

// DailyPeriods maps day of week (1-6) to the number of periods that day.
// Stored as JSONB with string keys.
type DailyPeriods map[int]int

// For returns the period count of day, falling back to def when unset.
func (d DailyPeriods) For(day, def int) int {
	if n, ok := d[day]; ok && n > 0 {
		return n
	}
	return def
}

// Value marshals the mapping to JSON for persistence.
func (d DailyPeriods) Value() (driver.Value, error) {
	if len(d) == 0 {
		return []byte(defaultDailyPeriodsJSON), nil
	}
	raw := make(map[string]int, len(d))
	for day, n := range d {
		raw[strconv.Itoa(day)] = n
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal daily periods: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the mapping.
func (d *DailyPeriods) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*d = DailyPeriods{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for DailyPeriods", value)
	}
	raw := map[string]int{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("unmarshal daily periods: %w", err)
		}
	}
	out := make(DailyPeriods, len(raw))
	for key, n := range raw {
		day, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("daily periods key %q: %w", key, err)
		}
		out[day] = n
	}
	*d = out
	return nil
}

// Schedule is a user's base weekly timetable.
type Schedule struct {
	ID           string           `db:"id" json:"id"`
	UserID       string           `db:"user_id" json:"user_id"`
	Name         string           `db:"name" json:"name"`
	IsDefault    bool             `db:"is_default" json:"is_default"`
	DailyPeriods DailyPeriods     `db:"daily_periods" json:"daily_periods"`
	Details      []ScheduleDetail `db:"-" json:"details"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// ScheduleDetail is one occupied slot of the base timetable.
type ScheduleDetail struct {
	ID          string `db:"id" json:"id"`
	ScheduleID  string `db:"schedule_id" json:"schedule_id"`
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week"`
	Period      int    `db:"period" json:"period"`
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name,omitempty"`
	Grade       *int   `db:"grade" json:"grade,omitempty"`
	ClassNumber *int   `db:"class_number" json:"class_number,omitempty"`
}
