package models

import "time"

// TeacherRole distinguishes homeroom (担任) from specialist (専科) teachers.
type TeacherRole string

const (
	TeacherRoleHomeroom   TeacherRole = "homeroom"
	TeacherRoleSpecialist TeacherRole = "specialist"
)

// TeacherProfile is the setup state of one user.
type TeacherProfile struct {
	UserID      string      `db:"user_id" json:"user_id"`
	Email       string      `db:"email" json:"email"`
	Role        TeacherRole `db:"role" json:"role"`
	Grade       *int        `db:"grade" json:"grade,omitempty"`
	ClassNumber *int        `db:"class_number" json:"class_number,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// IsHomeroom reports whether the profile teaches one fixed class.
func (p *TeacherProfile) IsHomeroom() bool {
	return p != nil && p.Role == TeacherRoleHomeroom
}

// UserSubject is a subject the user teaches with the chosen textbook publisher.
type UserSubject struct {
	ID            string  `db:"id" json:"id"`
	UserID        string  `db:"user_id" json:"user_id"`
	SubjectID     string  `db:"subject_id" json:"subject_id"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	Category      string  `db:"category" json:"category"`
	Grade         int     `db:"grade" json:"grade"`
	ClassNumber   *int    `db:"class_number" json:"class_number,omitempty"`
	PublisherID   string  `db:"publisher_id" json:"publisher_id"`
	PublisherName *string `db:"publisher_name" json:"publisher_name,omitempty"`
}
