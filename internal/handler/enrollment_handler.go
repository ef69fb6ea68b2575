package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/service"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
	"github.com/noah-isme/univ-portal-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListByYear(ctx context.Context, yearCode string, semester int) ([]models.Enrollment, error)
	Get(ctx context.Context, id string) (*models.Enrollment, error)
	Create(ctx context.Context, req service.CreateEnrollmentRequest) (*models.Enrollment, []models.ValidationIssue, error)
	Update(ctx context.Context, id string, req service.UpdateEnrollmentRequest) (*models.Enrollment, []models.ValidationIssue, error)
	Transition(ctx context.Context, id string, req service.TransitionEnrollmentRequest) (*models.Enrollment, []models.ValidationIssue, error)
	RecordGrades(ctx context.Context, id string, req service.RecordGradesRequest) (*models.Enrollment, error)
	Delete(ctx context.Context, id string) error
}

type gradeNotifier interface {
	NotifyGradeReleased(ctx context.Context, enrollment *models.Enrollment) error
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
	notifier    gradeNotifier
	logger      *zap.Logger
}

// NewEnrollmentHandler constructs EnrollmentHandler. A nil notifier disables grade notices.
func NewEnrollmentHandler(enrollments enrollmentService, notifier gradeNotifier, logger *zap.Logger) *EnrollmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentHandler{enrollments: enrollments, notifier: notifier, logger: logger}
}

// List godoc
// @Summary List enrollments
// @Description Students only see their own enrollments.
// @Tags Enrollments
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param course_id query string false "Filter by course"
// @Param academic_year query string false "Filter by academic year code"
// @Param semester query int false "Filter by semester"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		StudentID:    c.Query("student_id"),
		CourseID:     c.Query("course_id"),
		AcademicYear: c.Query("academic_year"),
		Semester:     queryInt(c, "semester", 0),
		Status:       models.EnrollmentStatus(strings.ToUpper(c.Query("status"))),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "limit", 20),
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}
	if isStudent(c) {
		filter.StudentID = claimsFromContext(c).UserID
	}

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// ListByStudent godoc
// @Summary List a student's enrollments
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	enrollments, err := h.enrollments.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// ListByYear godoc
// @Summary List enrollments of an academic year semester
// @Tags Enrollments
// @Produce json
// @Param code path string true "Academic year code"
// @Param semester path int true "Semester"
// @Success 200 {object} response.Envelope
// @Router /enrollments/years/{code}/semesters/{semester} [get]
func (h *EnrollmentHandler) ListByYear(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2"))
		return
	}
	enrollments, err := h.enrollments.ListByYear(c.Request.Context(), c.Param("code"), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Get godoc
// @Summary Get enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if isStudent(c) && enrollment.StudentID != claimsFromContext(c).UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found"))
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Create godoc
// @Summary Enroll student in course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.CreateEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	enrollment, warnings, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment, response.WarningsMeta(warnings))
}

// Update godoc
// @Summary Update enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	var req service.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	enrollment, warnings, err := h.enrollments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil, response.WarningsMeta(warnings))
}

// Transition godoc
// @Summary Change enrollment status
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.TransitionEnrollmentRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/{id}/transition [post]
func (h *EnrollmentHandler) Transition(c *gin.Context) {
	var req service.TransitionEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	enrollment, warnings, err := h.enrollments.Transition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil, response.WarningsMeta(warnings))
}

// RecordGrades godoc
// @Summary Record grade components
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.RecordGradesRequest true "Grades"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/grades [put]
func (h *EnrollmentHandler) RecordGrades(c *gin.Context) {
	var req service.RecordGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	enrollment, err := h.enrollments.RecordGrades(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.notifier != nil {
		if err := h.notifier.NotifyGradeReleased(c.Request.Context(), enrollment); err != nil {
			h.logger.Warn("grade notification not queued", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
		}
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Delete godoc
// @Summary Delete enrollment
// @Tags Enrollments
// @Param id path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
