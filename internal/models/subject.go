package models

import "time"

// Subject categories, in display order.
const (
	SubjectCategoryCore       = "主要教科"
	SubjectCategorySpecialist = "専科教科"
	SubjectCategoryOther      = "その他"
	SubjectCategoryActivities = "特別活動"
)

// Subject is a curriculum subject. Name must match the standard hours table keys.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Publisher is a textbook publisher.
type Publisher struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TextbookUnit is one unit of a publisher's textbook for a subject and grade.
type TextbookUnit struct {
	ID              string  `db:"id" json:"id"`
	PublisherID     string  `db:"publisher_id" json:"publisher_id"`
	SubjectID       string  `db:"subject_id" json:"subject_id"`
	Grade           int     `db:"grade" json:"grade"`
	UnitOrder       int     `db:"unit_order" json:"unit_order"`
	UnitName        string  `db:"unit_name" json:"unit_name"`
	Category        string  `db:"category" json:"category"`
	SuggestedHours  float64 `db:"suggested_hours" json:"suggested_hours"`
	SuggestedPeriod string  `db:"suggested_period" json:"suggested_period"`
}

// TextbookUnitFilter narrows unit listing.
type TextbookUnitFilter struct {
	SubjectID   string
	PublisherID string
	Grade       int
}
