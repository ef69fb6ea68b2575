package models

// IssueSeverity distinguishes rejecting issues from advisory ones.
type IssueSeverity string

const (
	SeverityBlocking IssueSeverity = "BLOCKING"
	SeverityWarning  IssueSeverity = "WARNING"
)

// Rule identifiers reported in validation issues.
const (
	RuleRequired              = "required"
	RuleFormat                = "format"
	RuleUnique                = "unique"
	RuleDateOrder             = "date_order"
	RuleRegistrationOrder     = "registration_order"
	RuleRegistrationInYear    = "registration_within_year"
	RuleExamOrder             = "exam_order"
	RuleExamInYear            = "exam_within_year"
	RuleExamAfterRegistration = "exam_after_registration"
	RulePaymentOverride       = "payment_override"
)

// ValidationIssue describes one violated rule.
type ValidationIssue struct {
	Field    string        `json:"field"`
	Rule     string        `json:"rule"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// HasBlocking reports whether any issue rejects the operation.
func HasBlocking(issues []ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityBlocking {
			return true
		}
	}
	return false
}

// Warnings returns the advisory subset of issues.
func Warnings(issues []ValidationIssue) []ValidationIssue {
	var warnings []ValidationIssue
	for _, issue := range issues {
		if issue.Severity == SeverityWarning {
			warnings = append(warnings, issue)
		}
	}
	return warnings
}
