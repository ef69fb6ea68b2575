package models

import "time"

// AcademicYear models one academic year of the university calendar.
type AcademicYear struct {
	ID                    string    `db:"id" json:"id"`
	YearCode              string    `db:"year_code" json:"year_code"`
	Semester              int       `db:"semester" json:"semester"`
	StartDate             time.Time `db:"start_date" json:"start_date"`
	EndDate               time.Time `db:"end_date" json:"end_date"`
	RegistrationStartDate time.Time `db:"registration_start_date" json:"registration_start_date"`
	RegistrationEndDate   time.Time `db:"registration_end_date" json:"registration_end_date"`
	ExamStartDate         time.Time `db:"exam_start_date" json:"exam_start_date"`
	ExamEndDate           time.Time `db:"exam_end_date" json:"exam_end_date"`
	IsActive              bool      `db:"is_active" json:"is_active"`
	IsCurrent             bool      `db:"is_current" json:"is_current"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// Periods returns the date ranges of the year.
func (y AcademicYear) Periods() AcademicYearPeriods {
	return AcademicYearPeriods{
		StartDate:             y.StartDate,
		EndDate:               y.EndDate,
		RegistrationStartDate: y.RegistrationStartDate,
		RegistrationEndDate:   y.RegistrationEndDate,
		ExamStartDate:         y.ExamStartDate,
		ExamEndDate:           y.ExamEndDate,
	}
}

// AcademicYearPeriods groups the instruction, registration and examination ranges.
type AcademicYearPeriods struct {
	StartDate             time.Time
	EndDate               time.Time
	RegistrationStartDate time.Time
	RegistrationEndDate   time.Time
	ExamStartDate         time.Time
	ExamEndDate           time.Time
}

// Complete reports whether every date has been supplied.
func (p AcademicYearPeriods) Complete() bool {
	for _, d := range []time.Time{p.StartDate, p.EndDate, p.RegistrationStartDate, p.RegistrationEndDate, p.ExamStartDate, p.ExamEndDate} {
		if d.IsZero() {
			return false
		}
	}
	return true
}

// AcademicYearFilter defines filters supported by list endpoints.
type AcademicYearFilter struct {
	IsActive  *bool
	IsCurrent *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
