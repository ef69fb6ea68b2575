package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending    EnrollmentStatus = "PENDING"
	EnrollmentStatusRegistered EnrollmentStatus = "REGISTERED"
	EnrollmentStatusInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentStatusCompleted  EnrollmentStatus = "COMPLETED"
	EnrollmentStatusDropped    EnrollmentStatus = "DROPPED"
	EnrollmentStatusFailed     EnrollmentStatus = "FAILED"
)

// NonTerminalEnrollmentStatuses lists statuses that still accept transitions.
var NonTerminalEnrollmentStatuses = []EnrollmentStatus{
	EnrollmentStatusPending,
	EnrollmentStatusRegistered,
	EnrollmentStatusInProgress,
}

// IsTerminal reports whether no further transition is accepted.
func (s EnrollmentStatus) IsTerminal() bool {
	switch s {
	case EnrollmentStatusCompleted, EnrollmentStatusDropped, EnrollmentStatusFailed:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusPending, EnrollmentStatusRegistered, EnrollmentStatusInProgress,
		EnrollmentStatusCompleted, EnrollmentStatusDropped, EnrollmentStatusFailed:
		return true
	}
	return false
}

// Enrollment captures a student's registration in a course for one academic year and semester.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	CourseID     string           `db:"course_id" json:"course_id"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	Semester     int              `db:"semester" json:"semester"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	MidtermGrade *float64         `db:"midterm_grade" json:"midterm_grade,omitempty"`
	FinalGrade   *float64         `db:"final_grade" json:"final_grade,omitempty"`
	TotalGrade   *float64         `db:"total_grade" json:"total_grade"`
	LetterGrade  *string          `db:"letter_grade" json:"letter_grade"`
	Attendance   int              `db:"attendance" json:"attendance"`
	IsPaid       bool             `db:"is_paid" json:"is_paid"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID    string
	CourseID     string
	AcademicYear string
	Semester     int
	Status       EnrollmentStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
