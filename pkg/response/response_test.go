package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

func TestErrorCarriesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	issues := []models.ValidationIssue{{Field: "end_date", Rule: models.RuleDateOrder, Severity: models.SeverityBlocking}}
	Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid academic year").WithDetails(issues))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error struct {
			Code    string                   `json:"code"`
			Details []models.ValidationIssue `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "end_date", body.Error.Details[0].Field)
}

func TestErrorRecordsInternalFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, c.Errors, 1)
}

func TestWarningsMeta(t *testing.T) {
	assert.Nil(t, WarningsMeta(nil))

	meta := WarningsMeta([]models.ValidationIssue{{Rule: models.RuleExamAfterRegistration, Severity: models.SeverityWarning}})
	assert.Contains(t, meta, "warnings")
}
