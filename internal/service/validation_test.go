package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

func TestValidatorReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Struct(AcademicYearRequest{YearCode: "2024-2026", Semester: 3})
	require.Error(t, err)

	issues := issuesFromValidator(err)
	byField := map[string]models.ValidationIssue{}
	for _, issue := range issues {
		byField[issue.Field] = issue
		assert.Equal(t, models.SeverityBlocking, issue.Severity)
	}

	assert.Equal(t, models.RuleFormat, byField["year_code"].Rule)
	assert.Equal(t, "oneof", byField["semester"].Rule)
	assert.Equal(t, "semester must be one of 1 2", byField["semester"].Message)
	assert.Equal(t, models.RuleRequired, byField["start_date"].Rule)
	assert.Equal(t, models.RuleRequired, byField["exam_end_date"].Rule)
}

func TestValidatorRangeMessages(t *testing.T) {
	v := NewValidator()
	over := 120.0

	err := v.Struct(RecordGradesRequest{FinalGrade: &over})
	require.Error(t, err)

	issues := issuesFromValidator(err)
	require.Len(t, issues, 1)
	assert.Equal(t, "final_grade", issues[0].Field)
	assert.Equal(t, "final_grade must be at most 100", issues[0].Message)
}
