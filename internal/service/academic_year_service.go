package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

const (
	cacheKeyCurrentYear  = "academic_year:current"
	cacheKeyYearByCode   = "academic_year:code:"
	cachePatternCalendar = "academic_year:*"
)

type academicYearRepository interface {
	List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicYear, error)
	FindByCode(ctx context.Context, code string) (*models.AcademicYear, error)
	FindCurrent(ctx context.Context) (*models.AcademicYear, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, year *models.AcademicYear) error
	Update(ctx context.Context, year *models.AcademicYear) error
	SetCurrent(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	CountEnrollments(ctx context.Context, yearCode string) (int, error)
}

type calendarCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// AcademicYearRequest is the payload for creating or validating an academic year.
type AcademicYearRequest struct {
	YearCode              string    `json:"year_code" validate:"required,year_code"`
	Semester              int       `json:"semester" validate:"required,oneof=1 2"`
	StartDate             time.Time `json:"start_date" validate:"required"`
	EndDate               time.Time `json:"end_date" validate:"required"`
	RegistrationStartDate time.Time `json:"registration_start_date" validate:"required"`
	RegistrationEndDate   time.Time `json:"registration_end_date" validate:"required"`
	ExamStartDate         time.Time `json:"exam_start_date" validate:"required"`
	ExamEndDate           time.Time `json:"exam_end_date" validate:"required"`
}

func (r AcademicYearRequest) periods() models.AcademicYearPeriods {
	return models.AcademicYearPeriods{
		StartDate:             r.StartDate,
		EndDate:               r.EndDate,
		RegistrationStartDate: r.RegistrationStartDate,
		RegistrationEndDate:   r.RegistrationEndDate,
		ExamStartDate:         r.ExamStartDate,
		ExamEndDate:           r.ExamEndDate,
	}
}

// UpdateAcademicYearRequest edits an academic year. YearCode is accepted but never applied.
type UpdateAcademicYearRequest struct {
	YearCode              string    `json:"year_code"`
	Semester              int       `json:"semester" validate:"required,oneof=1 2"`
	StartDate             time.Time `json:"start_date" validate:"required"`
	EndDate               time.Time `json:"end_date" validate:"required"`
	RegistrationStartDate time.Time `json:"registration_start_date" validate:"required"`
	RegistrationEndDate   time.Time `json:"registration_end_date" validate:"required"`
	ExamStartDate         time.Time `json:"exam_start_date" validate:"required"`
	ExamEndDate           time.Time `json:"exam_end_date" validate:"required"`
}

func (r UpdateAcademicYearRequest) periods() models.AcademicYearPeriods {
	return models.AcademicYearPeriods{
		StartDate:             r.StartDate,
		EndDate:               r.EndDate,
		RegistrationStartDate: r.RegistrationStartDate,
		RegistrationEndDate:   r.RegistrationEndDate,
		ExamStartDate:         r.ExamStartDate,
		ExamEndDate:           r.ExamEndDate,
	}
}

// AcademicYearServiceOption configures the service.
type AcademicYearServiceOption func(*AcademicYearService)

// WithCalendarCache caches current-year and code lookups for ttl.
func WithCalendarCache(cache calendarCache, ttl time.Duration) AcademicYearServiceOption {
	return func(s *AcademicYearService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithClock overrides the clock used for the fallback year.
func WithClock(clock Clock) AcademicYearServiceOption {
	return func(s *AcademicYearService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// AcademicYearService manages the academic calendar and the current-year pointer.
type AcademicYearService struct {
	repo      academicYearRepository
	cache     calendarCache
	cacheTTL  time.Duration
	// cacheGen counts invalidations so a read that raced a mutation does not stay cached.
	cacheGen  atomic.Uint64
	clock     Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicYearService creates a new academic year service instance.
func NewAcademicYearService(repo academicYearRepository, validate *validator.Validate, logger *zap.Logger, opts ...AcademicYearServiceOption) *AcademicYearService {
	if validate == nil {
		validate = validator.New()
	}
	registerValidators(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AcademicYearService{repo: repo, clock: SystemClock, validator: validate, logger: logger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Validate reports every issue with the candidate without touching storage.
func (s *AcademicYearService) Validate(req AcademicYearRequest) []models.ValidationIssue {
	return s.check(req, req.periods())
}

func (s *AcademicYearService) check(req interface{}, periods models.AcademicYearPeriods) []models.ValidationIssue {
	var issues []models.ValidationIssue
	if err := s.validator.Struct(req); err != nil {
		issues = append(issues, issuesFromValidator(err)...)
	}
	if periods.Complete() {
		issues = append(issues, ValidateAcademicYear(periods)...)
	}
	return issues
}

func academicYearInvalid(issues []models.ValidationIssue) error {
	return appErrors.Clone(appErrors.ErrValidation, "invalid academic year").WithDetails(issues)
}

// List returns paginated academic years.
func (s *AcademicYearService) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, *models.Pagination, error) {
	years, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return years, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an academic year by ID.
func (s *AcademicYearService) Get(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return year, nil
}

// Create stores a new, active, non-current academic year. Advisory issues are returned with the record.
func (s *AcademicYearService) Create(ctx context.Context, req AcademicYearRequest) (*models.AcademicYear, []models.ValidationIssue, error) {
	issues := s.Validate(req)
	if models.HasBlocking(issues) {
		return nil, nil, academicYearInvalid(issues)
	}

	exists, err := s.repo.ExistsByCode(ctx, req.YearCode, "")
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check academic year uniqueness")
	}
	if exists {
		return nil, nil, academicYearInvalid(append(issues, yearCodeTaken(req.YearCode)))
	}

	year := &models.AcademicYear{
		YearCode:              req.YearCode,
		Semester:              req.Semester,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		RegistrationStartDate: req.RegistrationStartDate,
		RegistrationEndDate:   req.RegistrationEndDate,
		ExamStartDate:         req.ExamStartDate,
		ExamEndDate:           req.ExamEndDate,
		IsActive:              true,
		IsCurrent:             false,
	}
	if err := s.repo.Create(ctx, year); err != nil {
		if errors.Is(err, appErrors.ErrDuplicateYearCode) {
			return nil, nil, academicYearInvalid(append(issues, yearCodeTaken(req.YearCode)))
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}
	s.invalidate(ctx)

	return year, models.Warnings(issues), nil
}

func yearCodeTaken(code string) models.ValidationIssue {
	return models.ValidationIssue{
		Field:    "year_code",
		Rule:     models.RuleUnique,
		Severity: models.SeverityBlocking,
		Message:  "year_code " + code + " already exists",
	}
}

// Update edits the dates and semester of a year. The year code is immutable.
func (s *AcademicYearService) Update(ctx context.Context, id string, req UpdateAcademicYearRequest) (*models.AcademicYear, []models.ValidationIssue, error) {
	issues := s.check(req, req.periods())
	if models.HasBlocking(issues) {
		return nil, nil, academicYearInvalid(issues)
	}

	year, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if req.YearCode != "" && req.YearCode != year.YearCode {
		s.logger.Debug("ignoring year code change", zap.String("id", id), zap.String("requested", req.YearCode))
	}

	year.Semester = req.Semester
	year.StartDate = req.StartDate
	year.EndDate = req.EndDate
	year.RegistrationStartDate = req.RegistrationStartDate
	year.RegistrationEndDate = req.RegistrationEndDate
	year.ExamStartDate = req.ExamStartDate
	year.ExamEndDate = req.ExamEndDate

	if err := s.repo.Update(ctx, year); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic year")
	}
	s.invalidate(ctx)

	return year, models.Warnings(issues), nil
}

// SetCurrent makes id the only current year. Repeating the call is harmless.
func (s *AcademicYearService) SetCurrent(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if year.IsCurrent {
		return year, nil
	}

	if err := s.repo.SetCurrent(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set current academic year")
	}
	s.invalidate(ctx)

	year.IsCurrent = true
	s.logger.Info("current academic year changed", zap.String("id", year.ID), zap.String("year_code", year.YearCode))
	return year, nil
}

// SetActive opens or closes a year for enrollment and grading. The current
// pointer is left untouched even when the current year is deactivated.
func (s *AcademicYearService) SetActive(ctx context.Context, id string, active bool) (*models.AcademicYear, error) {
	year, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if year.IsActive == active {
		return year, nil
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic year status")
	}
	s.invalidate(ctx)

	year.IsActive = active
	if !active && year.IsCurrent {
		s.logger.Warn("current academic year deactivated", zap.String("id", year.ID), zap.String("year_code", year.YearCode))
	}
	return year, nil
}

// CurrentOrDefault returns the current year, or a transient calendar-year record when none is set.
func (s *AcademicYearService) CurrentOrDefault(ctx context.Context) (*models.AcademicYear, error) {
	var cached models.AcademicYear
	if s.cacheGet(ctx, cacheKeyCurrentYear, &cached) {
		return &cached, nil
	}
	gen := s.cacheGen.Load()

	year, err := s.repo.FindCurrent(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.fallbackYear(), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current academic year")
	}

	s.cacheSet(ctx, cacheKeyCurrentYear, year, gen)
	return year, nil
}

func (s *AcademicYearService) fallbackYear() *models.AcademicYear {
	today := s.clock.Today()
	start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	return &models.AcademicYear{
		YearCode:              strconv.Itoa(today.Year()),
		Semester:              1,
		StartDate:             start,
		EndDate:               end,
		RegistrationStartDate: start,
		RegistrationEndDate:   end,
		ExamStartDate:         start,
		ExamEndDate:           end,
		IsActive:              true,
		IsCurrent:             true,
	}
}

// IsEnrollable reports whether enrollments may reference the given year and semester.
func (s *AcademicYearService) IsEnrollable(ctx context.Context, yearCode string, semester int) error {
	if semester != 1 && semester != 2 {
		return academicYearInvalid([]models.ValidationIssue{{
			Field:    "semester",
			Rule:     "oneof",
			Severity: models.SeverityBlocking,
			Message:  "semester must be one of 1 2",
		}})
	}

	year, err := s.findByCode(ctx, yearCode)
	if err != nil {
		return err
	}
	if !year.IsActive {
		return appErrors.Clone(appErrors.ErrInactiveYear, "academic year "+yearCode+" is not active")
	}
	return nil
}

func (s *AcademicYearService) findByCode(ctx context.Context, code string) (*models.AcademicYear, error) {
	key := cacheKeyYearByCode + code
	var cached models.AcademicYear
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}
	gen := s.cacheGen.Load()

	year, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year "+code+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	s.cacheSet(ctx, key, year, gen)
	return year, nil
}

// Delete removes a year that is neither current nor referenced by enrollments.
func (s *AcademicYearService) Delete(ctx context.Context, id string) error {
	year, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if year.IsCurrent {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete the current academic year")
	}

	count, err := s.repo.CountEnrollments(ctx, year.YearCode)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check academic year dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "academic year has enrollments associated")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete academic year")
	}
	s.invalidate(ctx)
	return nil
}

func (s *AcademicYearService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("calendar cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

// cacheSet stores a value loaded while the generation was gen. If an invalidation ran since, the
// entry is dropped again: either this check sees the bump or the invalidation runs after the write.
func (s *AcademicYearService) cacheSet(ctx context.Context, key string, value interface{}, gen uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("calendar cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if s.cacheGen.Load() != gen {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.logger.Warn("stale calendar cache entry not dropped", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *AcademicYearService) invalidate(ctx context.Context) {
	s.cacheGen.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cachePatternCalendar); err != nil {
		s.logger.Warn("calendar cache invalidation failed", zap.Error(err))
	}
}
