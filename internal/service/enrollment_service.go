package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListByYear(ctx context.Context, yearCode string, semester int) ([]models.Enrollment, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment, expected models.EnrollmentStatus) error
	Delete(ctx context.Context, id string) error
}

type directory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type enrollmentCalendar interface {
	IsEnrollable(ctx context.Context, yearCode string, semester int) error
}

type enrollmentMetrics interface {
	ObserveEnrollmentTransition(from, to models.EnrollmentStatus)
	ObserveGradeRecorded()
}

// CreateEnrollmentRequest describes enrollment creation request.
type CreateEnrollmentRequest struct {
	StudentID       string                  `json:"student_id" validate:"required"`
	CourseID        string                  `json:"course_id" validate:"required"`
	AcademicYear    string                  `json:"academic_year" validate:"required"`
	Semester        int                     `json:"semester" validate:"required,oneof=1 2"`
	Status          models.EnrollmentStatus `json:"status" validate:"omitempty,oneof=PENDING REGISTERED IN_PROGRESS COMPLETED DROPPED FAILED"`
	MidtermGrade    *float64                `json:"midterm_grade" validate:"omitempty,min=0,max=100"`
	FinalGrade      *float64                `json:"final_grade" validate:"omitempty,min=0,max=100"`
	Attendance      int                     `json:"attendance" validate:"min=0,max=100"`
	IsPaid          bool                    `json:"is_paid"`
	OverridePayment bool                    `json:"override_payment"`
}

// UpdateEnrollmentRequest replaces the caller-owned fields of an open enrollment.
type UpdateEnrollmentRequest struct {
	StudentID       string                  `json:"student_id" validate:"required"`
	CourseID        string                  `json:"course_id" validate:"required"`
	AcademicYear    string                  `json:"academic_year" validate:"required"`
	Semester        int                     `json:"semester" validate:"required,oneof=1 2"`
	Status          models.EnrollmentStatus `json:"status" validate:"omitempty,oneof=PENDING REGISTERED IN_PROGRESS COMPLETED DROPPED FAILED"`
	MidtermGrade    *float64                `json:"midterm_grade" validate:"omitempty,min=0,max=100"`
	FinalGrade      *float64                `json:"final_grade" validate:"omitempty,min=0,max=100"`
	Attendance      int                     `json:"attendance" validate:"min=0,max=100"`
	IsPaid          bool                    `json:"is_paid"`
	OverridePayment bool                    `json:"override_payment"`
}

// TransitionEnrollmentRequest moves an enrollment to another status.
type TransitionEnrollmentRequest struct {
	Status          models.EnrollmentStatus `json:"status" validate:"required,oneof=PENDING REGISTERED IN_PROGRESS COMPLETED DROPPED FAILED"`
	OverridePayment bool                    `json:"override_payment"`
}

// RecordGradesRequest sets one or both grade components. A nil component is left unchanged.
type RecordGradesRequest struct {
	MidtermGrade *float64 `json:"midterm_grade" validate:"omitempty,min=0,max=100"`
	FinalGrade   *float64 `json:"final_grade" validate:"omitempty,min=0,max=100"`
}

// EnrollmentServiceOption configures the service.
type EnrollmentServiceOption func(*EnrollmentService)

// WithEnrollmentMetrics records transitions and grade entries.
func WithEnrollmentMetrics(metrics enrollmentMetrics) EnrollmentServiceOption {
	return func(s *EnrollmentService) {
		s.metrics = metrics
	}
}

// EnrollmentService enforces the enrollment lifecycle and derives grades.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  directory
	courses   directory
	calendar  enrollmentCalendar
	metrics   enrollmentMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students, courses directory, calendar enrollmentCalendar, validate *validator.Validate, logger *zap.Logger, opts ...EnrollmentServiceOption) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	registerValidators(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EnrollmentService{repo: repo, students: students, courses: courses, calendar: calendar, validator: validate, logger: logger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *EnrollmentService) validate(req interface{}) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid enrollment payload").WithDetails(issuesFromValidator(err))
	}
	return nil
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListByStudent returns every enrollment held by a student.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	if err := s.ensureExists(ctx, s.students, studentID, "student"); err != nil {
		return nil, err
	}
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student enrollments")
	}
	return enrollments, nil
}

// ListByYear returns the enrollments of one academic year and semester.
func (s *EnrollmentService) ListByYear(ctx context.Context, yearCode string, semester int) ([]models.Enrollment, error) {
	if semester != 1 && semester != 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2")
	}
	enrollments, err := s.repo.ListByYear(ctx, yearCode, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list year enrollments")
	}
	return enrollments, nil
}

// Get returns an enrollment by ID.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Create registers a student in a course. The initial status defaults to PENDING.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.Enrollment, []models.ValidationIssue, error) {
	if err := s.validate(req); err != nil {
		return nil, nil, err
	}

	status := req.Status
	if status == "" {
		status = models.EnrollmentStatusPending
	}
	if status.IsTerminal() {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "enrollment cannot start in status "+string(status))
	}

	if err := s.checkReferences(ctx, req.StudentID, req.CourseID, req.AcademicYear, req.Semester); err != nil {
		return nil, nil, err
	}

	var warnings []models.ValidationIssue
	if status != models.EnrollmentStatusPending {
		gateWarnings, err := checkPaymentGate(models.EnrollmentStatusRegistered, req.IsPaid, req.OverridePayment)
		if err != nil {
			return nil, nil, err
		}
		warnings = gateWarnings
	}

	enrollment := &models.Enrollment{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		Status:       status,
		MidtermGrade: req.MidtermGrade,
		FinalGrade:   req.FinalGrade,
		Attendance:   req.Attendance,
		IsPaid:       req.IsPaid,
	}
	applyGrades(enrollment)

	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, nil, s.storageError(err, "failed to create enrollment")
	}
	return enrollment, warnings, nil
}

// Update replaces the caller-owned fields of an open enrollment.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.Enrollment, []models.ValidationIssue, error) {
	if err := s.validate(req); err != nil {
		return nil, nil, err
	}

	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if enrollment.Status.IsTerminal() {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is closed")
	}

	if err := s.checkReferences(ctx, req.StudentID, req.CourseID, req.AcademicYear, req.Semester); err != nil {
		return nil, nil, err
	}

	var warnings []models.ValidationIssue
	from := enrollment.Status
	if req.Status != "" && req.Status != from {
		if err := checkTransition(from, req.Status); err != nil {
			return nil, nil, err
		}
		if warnings, err = checkPaymentGate(req.Status, req.IsPaid, req.OverridePayment); err != nil {
			return nil, nil, err
		}
		enrollment.Status = req.Status
	}

	gradesChanged := !sameGrade(enrollment.MidtermGrade, req.MidtermGrade) || !sameGrade(enrollment.FinalGrade, req.FinalGrade)

	enrollment.StudentID = req.StudentID
	enrollment.CourseID = req.CourseID
	enrollment.AcademicYear = req.AcademicYear
	enrollment.Semester = req.Semester
	enrollment.MidtermGrade = req.MidtermGrade
	enrollment.FinalGrade = req.FinalGrade
	enrollment.Attendance = req.Attendance
	enrollment.IsPaid = req.IsPaid
	applyGrades(enrollment)

	if err := s.repo.Update(ctx, enrollment, from); err != nil {
		return nil, nil, s.storageError(err, "failed to update enrollment")
	}

	if enrollment.Status != from {
		s.observeTransition(enrollment, from)
	}
	if gradesChanged && s.metrics != nil {
		s.metrics.ObserveGradeRecorded()
	}
	return enrollment, warnings, nil
}

// Transition moves an enrollment along the status machine.
func (s *EnrollmentService) Transition(ctx context.Context, id string, req TransitionEnrollmentRequest) (*models.Enrollment, []models.ValidationIssue, error) {
	if err := s.validate(req); err != nil {
		return nil, nil, err
	}

	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	from := enrollment.Status
	if err := checkTransition(from, req.Status); err != nil {
		return nil, nil, err
	}
	warnings, err := checkPaymentGate(req.Status, enrollment.IsPaid, req.OverridePayment)
	if err != nil {
		return nil, nil, err
	}

	enrollment.Status = req.Status
	if err := s.repo.Update(ctx, enrollment, from); err != nil {
		return nil, nil, s.storageError(err, "failed to update enrollment status")
	}

	s.observeTransition(enrollment, from)
	return enrollment, warnings, nil
}

// RecordGrades stores grade components and recomputes the total and letter grade.
func (s *EnrollmentService) RecordGrades(ctx context.Context, id string, req RecordGradesRequest) (*models.Enrollment, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.MidtermGrade == nil && req.FinalGrade == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "midterm_grade or final_grade is required")
	}

	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status.IsTerminal() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "grades of a closed enrollment cannot be changed")
	}
	if err := s.calendar.IsEnrollable(ctx, enrollment.AcademicYear, enrollment.Semester); err != nil {
		return nil, err
	}

	from := enrollment.Status
	if req.MidtermGrade != nil {
		enrollment.MidtermGrade = req.MidtermGrade
	}
	if req.FinalGrade != nil {
		enrollment.FinalGrade = req.FinalGrade
	}
	applyGrades(enrollment)

	if err := s.repo.Update(ctx, enrollment, from); err != nil {
		return nil, s.storageError(err, "failed to record grades")
	}
	if s.metrics != nil {
		s.metrics.ObserveGradeRecorded()
	}
	return enrollment, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}

func (s *EnrollmentService) checkReferences(ctx context.Context, studentID, courseID, yearCode string, semester int) error {
	if err := s.ensureExists(ctx, s.students, studentID, "student"); err != nil {
		return err
	}
	if err := s.ensureExists(ctx, s.courses, courseID, "course"); err != nil {
		return err
	}
	return s.calendar.IsEnrollable(ctx, yearCode, semester)
}

func (s *EnrollmentService) ensureExists(ctx context.Context, dir directory, id, kind string) error {
	ok, err := dir.Exists(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+kind)
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, kind+" not found")
	}
	return nil
}

func (s *EnrollmentService) storageError(err error, message string) error {
	if errors.Is(err, appErrors.ErrDuplicateEnrollment) {
		return appErrors.Clone(appErrors.ErrDuplicateEnrollment, "student already holds an open enrollment for this course, year and semester")
	}
	if errors.Is(err, appErrors.ErrConflict) {
		return err
	}
	if err == sql.ErrNoRows {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *EnrollmentService) observeTransition(e *models.Enrollment, from models.EnrollmentStatus) {
	if s.metrics != nil {
		s.metrics.ObserveEnrollmentTransition(from, e.Status)
	}
	s.logger.Info("enrollment status changed",
		zap.String("id", e.ID),
		zap.String("from", string(from)),
		zap.String("to", string(e.Status)),
	)
}

func sameGrade(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
