package service

import (
	"regexp"
	"strconv"
	"time"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

var yearCodePattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// IsValidYearCode reports whether code has the form YYYY-YYYY with consecutive years.
func IsValidYearCode(code string) bool {
	m := yearCodePattern.FindStringSubmatch(code)
	if m == nil {
		return false
	}
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	return second == first+1
}

// ValidateAcademicYear checks the date ranges of a year against each other.
// Ordering and containment violations block; an exam period opening before
// registration closes is only a warning. Dates compare at day granularity.
func ValidateAcademicYear(p models.AcademicYearPeriods) []models.ValidationIssue {
	start, end := dateOnly(p.StartDate), dateOnly(p.EndDate)
	regStart, regEnd := dateOnly(p.RegistrationStartDate), dateOnly(p.RegistrationEndDate)
	examStart, examEnd := dateOnly(p.ExamStartDate), dateOnly(p.ExamEndDate)

	var issues []models.ValidationIssue
	block := func(field, rule, msg string) {
		issues = append(issues, models.ValidationIssue{Field: field, Rule: rule, Severity: models.SeverityBlocking, Message: msg})
	}

	if !end.After(start) {
		block("end_date", models.RuleDateOrder, "end_date must be after start_date")
	}

	if !regEnd.After(regStart) {
		block("registration_end_date", models.RuleRegistrationOrder, "registration_end_date must be after registration_start_date")
	}
	if !within(regStart, start, end) {
		block("registration_start_date", models.RuleRegistrationInYear, "registration_start_date must fall within the academic year")
	}
	if !within(regEnd, start, end) {
		block("registration_end_date", models.RuleRegistrationInYear, "registration_end_date must fall within the academic year")
	}

	if !examEnd.After(examStart) {
		block("exam_end_date", models.RuleExamOrder, "exam_end_date must be after exam_start_date")
	}
	if !within(examStart, start, end) {
		block("exam_start_date", models.RuleExamInYear, "exam_start_date must fall within the academic year")
	}
	if !within(examEnd, start, end) {
		block("exam_end_date", models.RuleExamInYear, "exam_end_date must fall within the academic year")
	}

	if examStart.Before(regEnd) {
		issues = append(issues, models.ValidationIssue{
			Field:    "exam_start_date",
			Rule:     models.RuleExamAfterRegistration,
			Severity: models.SeverityWarning,
			Message:  "exam period starts before registration closes",
		})
	}

	return issues
}

func within(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
