package dto

// CreatePublisherRequest captures POST /publishers.
type CreatePublisherRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,max=20"`
}

// CreateTextbookUnitRequest captures POST /textbook-units.
type CreateTextbookUnitRequest struct {
	PublisherID     string  `json:"publisher_id" validate:"required"`
	SubjectID       string  `json:"subject_id" validate:"required"`
	Grade           int     `json:"grade" validate:"required,min=1,max=6"`
	UnitOrder       int     `json:"unit_order" validate:"required,min=1"`
	UnitName        string  `json:"unit_name" validate:"required,max=200"`
	Category        string  `json:"category" validate:"max=50"`
	SuggestedHours  float64 `json:"suggested_hours" validate:"min=0"`
	SuggestedPeriod string  `json:"suggested_period" validate:"max=50"`
}
