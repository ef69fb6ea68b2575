package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

const (
	enrollmentColumns = `id, student_id, course_id, academic_year, semester, status, midterm_grade, final_grade,
        total_grade, letter_grade, attendance, is_paid, created_at, updated_at`

	activeIdentityConstraint = "uq_enrollments_active_identity"
	uniqueViolation          = "23505"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester != 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	base := "FROM enrollments"
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"created_at":  true,
		"updated_at":  true,
		"total_grade": true,
		"attendance":  true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", enrollmentColumns, base, sortBy, order, size, offset)

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// ListByStudent returns every enrollment of a student, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE student_id = $1 ORDER BY academic_year DESC, semester DESC, created_at DESC"
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByYear returns the enrollments of one academic year and semester.
func (r *EnrollmentRepository) ListByYear(ctx context.Context, yearCode string, semester int) ([]models.Enrollment, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE academic_year = $1 AND semester = $2 ORDER BY course_id, student_id"
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, yearCode, semester); err != nil {
		return nil, fmt.Errorf("list year enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, "SELECT "+enrollmentColumns+" FROM enrollments WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create inserts an enrollment after checking, under an identity lock, that no
// other open enrollment holds the same student, course, year and semester.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) (err error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create enrollment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.guardIdentity(ctx, tx, enrollment); err != nil {
		return err
	}

	const query = `INSERT INTO enrollments (id, student_id, course_id, academic_year, semester, status, midterm_grade, final_grade,
        total_grade, letter_grade, attendance, is_paid, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :academic_year, :semester, :status, :midterm_grade, :final_grade,
        :total_grade, :letter_grade, :attendance, :is_paid, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, enrollment); err != nil {
		err = mapEnrollmentWriteError("create enrollment", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create enrollment tx: %w", err)
	}
	return nil
}

type guardedEnrollment struct {
	models.Enrollment
	ExpectedStatus models.EnrollmentStatus `db:"expected_status"`
}

// Update writes every mutable column of an enrollment, re-checking identity uniqueness while it stays open.
// The write only lands while the stored status still equals expected; otherwise it returns ErrConflict,
// or sql.ErrNoRows when the row is gone.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment, expected models.EnrollmentStatus) (err error) {
	enrollment.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update enrollment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if !enrollment.Status.IsTerminal() {
		if err = r.guardIdentity(ctx, tx, enrollment); err != nil {
			return err
		}
	}

	const query = `UPDATE enrollments SET student_id = :student_id, course_id = :course_id, academic_year = :academic_year,
        semester = :semester, status = :status, midterm_grade = :midterm_grade, final_grade = :final_grade,
        total_grade = :total_grade, letter_grade = :letter_grade, attendance = :attendance, is_paid = :is_paid,
        updated_at = :updated_at WHERE id = :id AND status = :expected_status`
	var res sql.Result
	if res, err = tx.NamedExecContext(ctx, query, guardedEnrollment{Enrollment: *enrollment, ExpectedStatus: expected}); err != nil {
		err = mapEnrollmentWriteError("update enrollment", err)
		return err
	}
	if err = expectAffected(res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = r.staleOrMissing(ctx, tx, enrollment.ID)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update enrollment tx: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) staleOrMissing(ctx context.Context, tx *sqlx.Tx, id string) error {
	var status models.EnrollmentStatus
	err := tx.GetContext(ctx, &status, `SELECT status FROM enrollments WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("reload enrollment status: %w", err)
	}
	return appErrors.Clone(appErrors.ErrConflict, "enrollment status changed to "+string(status))
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) guardIdentity(ctx context.Context, tx *sqlx.Tx, e *models.Enrollment) error {
	key := fmt.Sprintf("%s|%s|%s|%d", e.StudentID, e.CourseID, e.AcademicYear, e.Semester)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock enrollment identity: %w", err)
	}

	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND academic_year = $3 AND semester = $4
        AND status IN ($5, $6, $7) AND id <> $8 LIMIT 1`
	var exists int
	err := tx.GetContext(ctx, &exists, query,
		e.StudentID, e.CourseID, e.AcademicYear, e.Semester,
		models.EnrollmentStatusPending, models.EnrollmentStatusRegistered, models.EnrollmentStatusInProgress,
		e.ID,
	)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check open enrollment: %w", err)
	}
	return appErrors.ErrDuplicateEnrollment
}

func mapEnrollmentWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == activeIdentityConstraint {
		return appErrors.ErrDuplicateEnrollment
	}
	return fmt.Errorf("%s: %w", op, err)
}
