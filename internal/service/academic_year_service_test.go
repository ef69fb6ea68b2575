package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

type mockAcademicYearRepo struct {
	years       map[string]models.AcademicYear
	enrollments map[string]int
	seq         int
	setCurrent  int
	createErr   error

	// afterFindCurrent runs once after FindCurrent has read its result.
	afterFindCurrent func()
}

func newMockAcademicYearRepo(years ...models.AcademicYear) *mockAcademicYearRepo {
	repo := &mockAcademicYearRepo{years: map[string]models.AcademicYear{}, enrollments: map[string]int{}}
	for _, y := range years {
		repo.years[y.ID] = y
	}
	return repo
}

func (m *mockAcademicYearRepo) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error) {
	var out []models.AcademicYear
	for _, y := range m.years {
		out = append(out, y)
	}
	return out, len(out), nil
}

func (m *mockAcademicYearRepo) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	if y, ok := m.years[id]; ok {
		return &y, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAcademicYearRepo) FindByCode(ctx context.Context, code string) (*models.AcademicYear, error) {
	for _, y := range m.years {
		if y.YearCode == code {
			return &y, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAcademicYearRepo) FindCurrent(ctx context.Context) (*models.AcademicYear, error) {
	var found *models.AcademicYear
	for _, y := range m.years {
		if y.IsCurrent {
			y := y
			found = &y
			break
		}
	}
	if hook := m.afterFindCurrent; hook != nil {
		m.afterFindCurrent = nil
		hook()
	}
	if found == nil {
		return nil, sql.ErrNoRows
	}
	return found, nil
}

func (m *mockAcademicYearRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	for id, y := range m.years {
		if y.YearCode == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAcademicYearRepo) Create(ctx context.Context, year *models.AcademicYear) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	year.ID = fmt.Sprintf("year-%d", m.seq)
	m.years[year.ID] = *year
	return nil
}

func (m *mockAcademicYearRepo) Update(ctx context.Context, year *models.AcademicYear) error {
	m.years[year.ID] = *year
	return nil
}

func (m *mockAcademicYearRepo) SetCurrent(ctx context.Context, id string) error {
	if _, ok := m.years[id]; !ok {
		return sql.ErrNoRows
	}
	m.setCurrent++
	for key, y := range m.years {
		y.IsCurrent = key == id
		m.years[key] = y
	}
	return nil
}

func (m *mockAcademicYearRepo) SetActive(ctx context.Context, id string, active bool) error {
	y, ok := m.years[id]
	if !ok {
		return sql.ErrNoRows
	}
	y.IsActive = active
	m.years[id] = y
	return nil
}

func (m *mockAcademicYearRepo) Delete(ctx context.Context, id string) error {
	delete(m.years, id)
	return nil
}

func (m *mockAcademicYearRepo) CountEnrollments(ctx context.Context, yearCode string) (int, error) {
	return m.enrollments[yearCode], nil
}

func (m *mockAcademicYearRepo) currentCount() int {
	count := 0
	for _, y := range m.years {
		if y.IsCurrent {
			count++
		}
	}
	return count
}

type mockCalendarCache struct {
	entries     map[string]models.AcademicYear
	invalidated int
}

func (m *mockCalendarCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	y, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	*(dest.(*models.AcademicYear)) = y
	return true, nil
}

func (m *mockCalendarCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.entries[key] = *(value.(*models.AcademicYear))
	return nil
}

func (m *mockCalendarCache) Invalidate(ctx context.Context, pattern string) error {
	m.invalidated++
	m.entries = map[string]models.AcademicYear{}
	return nil
}

func yearRequest(code string) AcademicYearRequest {
	p := validPeriods()
	return AcademicYearRequest{
		YearCode:              code,
		Semester:              1,
		StartDate:             p.StartDate,
		EndDate:               p.EndDate,
		RegistrationStartDate: p.RegistrationStartDate,
		RegistrationEndDate:   p.RegistrationEndDate,
		ExamStartDate:         p.ExamStartDate,
		ExamEndDate:           p.ExamEndDate,
	}
}

func storedYear(id, code string, current, active bool) models.AcademicYear {
	p := validPeriods()
	return models.AcademicYear{
		ID: id, YearCode: code, Semester: 1,
		StartDate: p.StartDate, EndDate: p.EndDate,
		RegistrationStartDate: p.RegistrationStartDate, RegistrationEndDate: p.RegistrationEndDate,
		ExamStartDate: p.ExamStartDate, ExamEndDate: p.ExamEndDate,
		IsCurrent: current, IsActive: active,
	}
}

func detailsOf(t *testing.T, err error) []models.ValidationIssue {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	issues, ok := appErr.Details.([]models.ValidationIssue)
	require.True(t, ok)
	return issues
}

func TestAcademicYearServiceCreate(t *testing.T) {
	repo := newMockAcademicYearRepo()
	svc := NewAcademicYearService(repo, nil, zap.NewNop())

	year, warnings, err := svc.Create(context.Background(), yearRequest("2024-2025"))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, year.IsActive)
	assert.False(t, year.IsCurrent)
	assert.Len(t, repo.years, 1)
}

func TestAcademicYearServiceCreateReturnsEveryIssue(t *testing.T) {
	repo := newMockAcademicYearRepo()
	svc := NewAcademicYearService(repo, nil, zap.NewNop())

	req := yearRequest("2024-2026")
	req.EndDate = req.StartDate

	_, _, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	got := rules(detailsOf(t, err))
	assert.Contains(t, got, models.RuleFormat)
	assert.Contains(t, got, models.RuleDateOrder)
	assert.Empty(t, repo.years)
}

func TestAcademicYearServiceCreateDuplicateCode(t *testing.T) {
	repo := newMockAcademicYearRepo(storedYear("y1", "2024-2025", false, true))
	svc := NewAcademicYearService(repo, nil, zap.NewNop())

	_, _, err := svc.Create(context.Background(), yearRequest("2024-2025"))
	require.Error(t, err)
	assert.Equal(t, []string{models.RuleUnique}, rules(detailsOf(t, err)))
}

func TestAcademicYearServiceCreateLosingRaceOnCode(t *testing.T) {
	repo := newMockAcademicYearRepo()
	repo.createErr = appErrors.ErrDuplicateYearCode
	svc := NewAcademicYearService(repo, nil, zap.NewNop())

	_, _, err := svc.Create(context.Background(), yearRequest("2024-2025"))
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, []string{models.RuleUnique}, rules(detailsOf(t, err)))
}

func TestAcademicYearServiceCreateKeepsWarnings(t *testing.T) {
	svc := NewAcademicYearService(newMockAcademicYearRepo(), nil, zap.NewNop())

	req := yearRequest("2024-2025")
	req.ExamStartDate = day("2024-09-10")

	year, warnings, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, year)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.RuleExamAfterRegistration, warnings[0].Rule)
}

func TestAcademicYearServiceValidateMissingFields(t *testing.T) {
	svc := NewAcademicYearService(newMockAcademicYearRepo(), nil, zap.NewNop())

	issues := svc.Validate(AcademicYearRequest{YearCode: "2024-2025", Semester: 3})

	assert.True(t, models.HasBlocking(issues))
	fields := map[string]bool{}
	for _, issue := range issues {
		fields[issue.Field] = true
	}
	assert.True(t, fields["semester"])
	assert.True(t, fields["start_date"])
	assert.NotContains(t, rules(issues), models.RuleDateOrder)
}

func TestAcademicYearServiceUpdateKeepsCode(t *testing.T) {
	repo := newMockAcademicYearRepo(storedYear("y1", "2024-2025", false, true))
	svc := NewAcademicYearService(repo, nil, zap.NewNop())

	req := UpdateAcademicYearRequest(yearRequest("2030-2031"))
	req.Semester = 2

	year, _, err := svc.Update(context.Background(), "y1", req)
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", year.YearCode)
	assert.Equal(t, 2, repo.years["y1"].Semester)
}

func TestAcademicYearServiceUpdateNotFound(t *testing.T) {
	svc := NewAcademicYearService(newMockAcademicYearRepo(), nil, zap.NewNop())

	_, _, err := svc.Update(context.Background(), "missing", UpdateAcademicYearRequest(yearRequest("2024-2025")))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAcademicYearServiceSetCurrentIsExclusiveAndIdempotent(t *testing.T) {
	repo := newMockAcademicYearRepo(
		storedYear("y1", "2023-2024", true, true),
		storedYear("y2", "2024-2025", false, true),
	)
	svc := NewAcademicYearService(repo, nil, zap.NewNop())

	for i := 0; i < 2; i++ {
		year, err := svc.SetCurrent(context.Background(), "y2")
		require.NoError(t, err)
		assert.True(t, year.IsCurrent)
		assert.Equal(t, 1, repo.currentCount())
		assert.True(t, repo.years["y2"].IsCurrent)
	}
	assert.Equal(t, 1, repo.setCurrent)
}

func TestAcademicYearServiceSetCurrentNotFound(t *testing.T) {
	svc := NewAcademicYearService(newMockAcademicYearRepo(), nil, zap.NewNop())

	_, err := svc.SetCurrent(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAcademicYearServiceDeactivateCurrentKeepsPointer(t *testing.T) {
	repo := newMockAcademicYearRepo(storedYear("y1", "2024-2025", true, true))
	svc := NewAcademicYearService(repo, nil, zap.NewNop())

	year, err := svc.SetActive(context.Background(), "y1", false)
	require.NoError(t, err)
	assert.False(t, year.IsActive)
	assert.True(t, repo.years["y1"].IsCurrent)

	_, err = svc.SetActive(context.Background(), "missing", true)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAcademicYearServiceCurrentOrDefaultFallback(t *testing.T) {
	repo := newMockAcademicYearRepo()
	clock := ClockFunc(func() time.Time { return day("2026-03-14") })
	svc := NewAcademicYearService(repo, nil, zap.NewNop(), WithClock(clock))

	year, err := svc.CurrentOrDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026", year.YearCode)
	assert.Equal(t, 1, year.Semester)
	assert.True(t, year.IsActive)
	assert.True(t, year.IsCurrent)
	assert.Empty(t, year.ID)
	assert.Empty(t, repo.years)
}

func TestAcademicYearServiceCurrentOrDefaultUsesCache(t *testing.T) {
	repo := newMockAcademicYearRepo(storedYear("y1", "2024-2025", true, true))
	cache := &mockCalendarCache{entries: map[string]models.AcademicYear{}}
	svc := NewAcademicYearService(repo, nil, zap.NewNop(), WithCalendarCache(cache, time.Minute))

	year, err := svc.CurrentOrDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "y1", year.ID)
	assert.Contains(t, cache.entries, cacheKeyCurrentYear)

	delete(repo.years, "y1")
	year, err = svc.CurrentOrDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "y1", year.ID)
}

func TestAcademicYearServiceCurrentOrDefaultDoesNotCacheRacedRead(t *testing.T) {
	repo := newMockAcademicYearRepo(
		storedYear("y1", "2023-2024", true, true),
		storedYear("y2", "2024-2025", false, true),
	)
	cache := &mockCalendarCache{entries: map[string]models.AcademicYear{}}
	svc := NewAcademicYearService(repo, nil, zap.NewNop(), WithCalendarCache(cache, time.Minute))
	ctx := context.Background()

	repo.afterFindCurrent = func() {
		_, err := svc.SetCurrent(ctx, "y2")
		require.NoError(t, err)
	}
	year, err := svc.CurrentOrDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "y1", year.ID)
	assert.NotContains(t, cache.entries, cacheKeyCurrentYear)

	year, err = svc.CurrentOrDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "y2", year.ID)
}

func TestAcademicYearServiceMutationsInvalidateCache(t *testing.T) {
	repo := newMockAcademicYearRepo(
		storedYear("y1", "2023-2024", true, true),
		storedYear("y2", "2024-2025", false, true),
	)
	cache := &mockCalendarCache{entries: map[string]models.AcademicYear{}}
	svc := NewAcademicYearService(repo, nil, zap.NewNop(), WithCalendarCache(cache, time.Minute))

	_, err := svc.CurrentOrDefault(context.Background())
	require.NoError(t, err)

	_, err = svc.SetCurrent(context.Background(), "y2")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	year, err := svc.CurrentOrDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "y2", year.ID)
}

func TestAcademicYearServiceIsEnrollable(t *testing.T) {
	repo := newMockAcademicYearRepo(
		storedYear("y1", "2023-2024", false, false),
		storedYear("y2", "2024-2025", true, true),
	)
	svc := NewAcademicYearService(repo, nil, zap.NewNop())
	ctx := context.Background()

	assert.NoError(t, svc.IsEnrollable(ctx, "2024-2025", 2))
	assert.True(t, errors.Is(svc.IsEnrollable(ctx, "2023-2024", 1), appErrors.ErrInactiveYear))
	assert.True(t, errors.Is(svc.IsEnrollable(ctx, "2099-2100", 1), appErrors.ErrNotFound))
	assert.True(t, errors.Is(svc.IsEnrollable(ctx, "2024-2025", 3), appErrors.ErrValidation))
}

func TestAcademicYearServiceDelete(t *testing.T) {
	repo := newMockAcademicYearRepo(
		storedYear("y1", "2023-2024", true, true),
		storedYear("y2", "2024-2025", false, true),
		storedYear("y3", "2025-2026", false, true),
	)
	repo.enrollments["2024-2025"] = 3
	svc := NewAcademicYearService(repo, nil, zap.NewNop())
	ctx := context.Background()

	assert.True(t, errors.Is(svc.Delete(ctx, "y1"), appErrors.ErrPreconditionFailed))
	assert.True(t, errors.Is(svc.Delete(ctx, "y2"), appErrors.ErrPreconditionFailed))
	require.NoError(t, svc.Delete(ctx, "y3"))
	assert.NotContains(t, repo.years, "y3")
}
