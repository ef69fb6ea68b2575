package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/service"
	"github.com/noah-isme/univ-portal-api/pkg/config"
)

const testSecret = "handler-secret"

type fakeYearService struct {
	years       []models.AcademicYear
	issues      []models.ValidationIssue
	warnings    []models.ValidationIssue
	err         error
	activeCalls []bool
	deleted     string
}

func (f *fakeYearService) Validate(req service.AcademicYearRequest) []models.ValidationIssue {
	return f.issues
}

func (f *fakeYearService) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, *models.Pagination, error) {
	return f.years, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(f.years)}, f.err
}

func (f *fakeYearService) Get(ctx context.Context, id string) (*models.AcademicYear, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.AcademicYear{ID: id, YearCode: "2024-2025"}, nil
}

func (f *fakeYearService) Create(ctx context.Context, req service.AcademicYearRequest) (*models.AcademicYear, []models.ValidationIssue, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &models.AcademicYear{ID: "ay-new", YearCode: req.YearCode, IsActive: true}, f.warnings, nil
}

func (f *fakeYearService) Update(ctx context.Context, id string, req service.UpdateAcademicYearRequest) (*models.AcademicYear, []models.ValidationIssue, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &models.AcademicYear{ID: id, YearCode: "2024-2025", Semester: req.Semester}, f.warnings, nil
}

func (f *fakeYearService) SetCurrent(ctx context.Context, id string) (*models.AcademicYear, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.AcademicYear{ID: id, IsCurrent: true}, nil
}

func (f *fakeYearService) SetActive(ctx context.Context, id string, active bool) (*models.AcademicYear, error) {
	f.activeCalls = append(f.activeCalls, active)
	return &models.AcademicYear{ID: id, IsActive: active}, f.err
}

func (f *fakeYearService) CurrentOrDefault(ctx context.Context) (*models.AcademicYear, error) {
	return &models.AcademicYear{YearCode: "2026", IsCurrent: true}, f.err
}

func (f *fakeYearService) Delete(ctx context.Context, id string) error {
	f.deleted = id
	return f.err
}

type fakeEnrollmentService struct {
	enrollment   *models.Enrollment
	warnings     []models.ValidationIssue
	err          error
	lastFilter   models.EnrollmentFilter
	lastStudent  string
	lastSemester int
}

func (f *fakeEnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.Enrollment{}, &models.Pagination{Page: 1, PageSize: 20}, f.err
}

func (f *fakeEnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	f.lastStudent = studentID
	return []models.Enrollment{}, f.err
}

func (f *fakeEnrollmentService) ListByYear(ctx context.Context, yearCode string, semester int) ([]models.Enrollment, error) {
	f.lastSemester = semester
	return []models.Enrollment{}, f.err
}

func (f *fakeEnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	return f.enrollment, f.err
}

func (f *fakeEnrollmentService) Create(ctx context.Context, req service.CreateEnrollmentRequest) (*models.Enrollment, []models.ValidationIssue, error) {
	return f.enrollment, f.warnings, f.err
}

func (f *fakeEnrollmentService) Update(ctx context.Context, id string, req service.UpdateEnrollmentRequest) (*models.Enrollment, []models.ValidationIssue, error) {
	return f.enrollment, f.warnings, f.err
}

func (f *fakeEnrollmentService) Transition(ctx context.Context, id string, req service.TransitionEnrollmentRequest) (*models.Enrollment, []models.ValidationIssue, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.enrollment, f.warnings, nil
}

func (f *fakeEnrollmentService) RecordGrades(ctx context.Context, id string, req service.RecordGradesRequest) (*models.Enrollment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.enrollment, nil
}

func (f *fakeEnrollmentService) Delete(ctx context.Context, id string) error {
	return f.err
}

type fakeNotifier struct {
	notified []string
	err      error
}

func (f *fakeNotifier) NotifyGradeReleased(ctx context.Context, e *models.Enrollment) error {
	f.notified = append(f.notified, e.ID)
	return f.err
}

type testServer struct {
	router      *gin.Engine
	years       *fakeYearService
	enrollments *fakeEnrollmentService
	notifier    *fakeNotifier
}

func newTestServer(t *testing.T, deps map[string]Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		years:       &fakeYearService{},
		enrollments: &fakeEnrollmentService{},
		notifier:    &fakeNotifier{},
	}
	metrics := service.NewMetricsService()
	ts.router = NewRouter(RouterDeps{
		Config:        &config.Config{Env: "test", APIPrefix: "/api/v1"},
		Tokens:        service.NewTokenService(testSecret),
		Metrics:       metrics,
		AcademicYears: NewAcademicYearHandler(ts.years),
		Enrollments:   NewEnrollmentHandler(ts.enrollments, ts.notifier, nil),
		System:        NewMetricsHandler(metrics, deps, nil),
	})
	return ts
}

func bearer(t *testing.T, userID string, role models.UserRole) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func (ts *testServer) do(method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string                   `json:"code"`
		Details []models.ValidationIssue `json:"details"`
	} `json:"error"`
	Meta map[string]json.RawMessage `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type failingPinger struct{}

func (failingPinger) PingContext(ctx context.Context) error {
	return errors.New("connection refused")
}
