package service

import (
	"fmt"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

var enrollmentTransitions = map[models.EnrollmentStatus][]models.EnrollmentStatus{
	models.EnrollmentStatusPending:    {models.EnrollmentStatusRegistered},
	models.EnrollmentStatusRegistered: {models.EnrollmentStatusInProgress, models.EnrollmentStatusDropped},
	models.EnrollmentStatusInProgress: {models.EnrollmentStatusCompleted, models.EnrollmentStatusFailed, models.EnrollmentStatusDropped},
}

// CanTransition reports whether an enrollment may move from one status to another.
func CanTransition(from, to models.EnrollmentStatus) bool {
	for _, next := range enrollmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to models.EnrollmentStatus) error {
	if !to.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", to))
	}
	if !CanTransition(from, to) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move enrollment from %s to %s", from, to))
	}
	return nil
}

// checkPaymentGate guards PENDING -> REGISTERED. Unpaid enrollments pass only with an
// explicit override, which is reported back as a warning.
func checkPaymentGate(to models.EnrollmentStatus, isPaid, override bool) ([]models.ValidationIssue, error) {
	if to != models.EnrollmentStatusRegistered || isPaid {
		return nil, nil
	}
	if !override {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "payment required before registration; set override_payment to register anyway")
	}
	return []models.ValidationIssue{{
		Field:    "is_paid",
		Rule:     models.RulePaymentOverride,
		Severity: models.SeverityWarning,
		Message:  "registered without payment",
	}}, nil
}
