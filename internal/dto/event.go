package dto

// CreateEventRequest captures POST /events.
type CreateEventRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`
	EventDate     string  `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventType     string  `json:"event_type" validate:"max=50"`
	HoursFraction float64 `json:"hours_fraction" validate:"min=0,max=1"`
	Memo          string  `json:"memo" validate:"max=500"`
}

// EventRangeQuery filters GET /events.
type EventRangeQuery struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" validate:"required,datetime=2006-01-02"`
}
