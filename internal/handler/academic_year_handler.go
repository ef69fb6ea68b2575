package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/service"
	"github.com/noah-isme/univ-portal-api/pkg/response"
)

type academicYearService interface {
	Validate(req service.AcademicYearRequest) []models.ValidationIssue
	List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.AcademicYear, error)
	Create(ctx context.Context, req service.AcademicYearRequest) (*models.AcademicYear, []models.ValidationIssue, error)
	Update(ctx context.Context, id string, req service.UpdateAcademicYearRequest) (*models.AcademicYear, []models.ValidationIssue, error)
	SetCurrent(ctx context.Context, id string) (*models.AcademicYear, error)
	SetActive(ctx context.Context, id string, active bool) (*models.AcademicYear, error)
	CurrentOrDefault(ctx context.Context) (*models.AcademicYear, error)
	Delete(ctx context.Context, id string) error
}

// SetActiveRequest toggles whether a year accepts enrollment work.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ValidationResult is returned by the dry-run validation endpoint.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Issues []models.ValidationIssue `json:"issues"`
}

// AcademicYearHandler exposes academic calendar endpoints.
type AcademicYearHandler struct {
	years academicYearService
}

// NewAcademicYearHandler constructs AcademicYearHandler.
func NewAcademicYearHandler(years academicYearService) *AcademicYearHandler {
	return &AcademicYearHandler{years: years}
}

// List godoc
// @Summary List academic years
// @Tags AcademicYears
// @Produce json
// @Param is_active query bool false "Filter by active flag"
// @Param is_current query bool false "Filter by current flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /academic-years [get]
func (h *AcademicYearHandler) List(c *gin.Context) {
	filter := models.AcademicYearFilter{
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "limit", 20),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if v, err := strconv.ParseBool(c.Query("is_active")); err == nil {
		filter.IsActive = &v
	}
	if v, err := strconv.ParseBool(c.Query("is_current")); err == nil {
		filter.IsCurrent = &v
	}

	years, pagination, err := h.years.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, pagination)
}

// Current godoc
// @Summary Current academic year
// @Description Returns the year flagged current, or a synthesized calendar-year default when none is set.
// @Tags AcademicYears
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic-years/current [get]
func (h *AcademicYearHandler) Current(c *gin.Context) {
	year, err := h.years.CurrentOrDefault(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Get godoc
// @Summary Get academic year
// @Tags AcademicYears
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academic-years/{id} [get]
func (h *AcademicYearHandler) Get(c *gin.Context) {
	year, err := h.years.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Validate godoc
// @Summary Validate an academic year candidate
// @Tags AcademicYears
// @Accept json
// @Produce json
// @Param payload body service.AcademicYearRequest true "Candidate year"
// @Success 200 {object} response.Envelope
// @Router /academic-years/validate [post]
func (h *AcademicYearHandler) Validate(c *gin.Context) {
	var req service.AcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	issues := h.years.Validate(req)
	if issues == nil {
		issues = []models.ValidationIssue{}
	}
	response.JSON(c, http.StatusOK, ValidationResult{Valid: !models.HasBlocking(issues), Issues: issues}, nil)
}

// Create godoc
// @Summary Create academic year
// @Tags AcademicYears
// @Accept json
// @Produce json
// @Param payload body service.AcademicYearRequest true "Academic year payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /academic-years [post]
func (h *AcademicYearHandler) Create(c *gin.Context) {
	var req service.AcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	year, warnings, err := h.years.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year, response.WarningsMeta(warnings))
}

// Update godoc
// @Summary Update academic year
// @Description The year code is immutable; a supplied year_code is ignored.
// @Tags AcademicYears
// @Accept json
// @Produce json
// @Param id path string true "Academic year ID"
// @Param payload body service.UpdateAcademicYearRequest true "Academic year payload"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id} [put]
func (h *AcademicYearHandler) Update(c *gin.Context) {
	var req service.UpdateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	year, warnings, err := h.years.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil, response.WarningsMeta(warnings))
}

// SetCurrent godoc
// @Summary Mark academic year as current
// @Tags AcademicYears
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id}/set-current [post]
func (h *AcademicYearHandler) SetCurrent(c *gin.Context) {
	year, err := h.years.SetCurrent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// SetActive godoc
// @Summary Activate or deactivate academic year
// @Tags AcademicYears
// @Accept json
// @Produce json
// @Param id path string true "Academic year ID"
// @Param payload body SetActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id}/active [post]
func (h *AcademicYearHandler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	year, err := h.years.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Delete godoc
// @Summary Delete academic year
// @Tags AcademicYears
// @Param id path string true "Academic year ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /academic-years/{id} [delete]
func (h *AcademicYearHandler) Delete(c *gin.Context) {
	if err := h.years.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
