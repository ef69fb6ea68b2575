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

const yearCodeConstraint = "academic_years_year_code_key"

const academicYearColumns = `id, year_code, semester, start_date, end_date, registration_start_date, registration_end_date,
        exam_start_date, exam_end_date, is_active, is_current, created_at, updated_at`

// AcademicYearRepository handles persistence for academic years.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository instantiates an academic year repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

// List returns academic years matching provided filters.
func (r *AcademicYearRepository) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error) {
	base := "FROM academic_years WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.IsCurrent != nil {
		conditions = append(conditions, fmt.Sprintf("is_current = $%d", len(args)+1))
		args = append(args, *filter.IsCurrent)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"year_code":  true,
		"start_date": true,
		"end_date":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", academicYearColumns, base, sortBy, order, size, offset)

	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list academic years: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count academic years: %w", err)
	}

	return years, total, nil
}

// FindByID loads an academic year by identifier.
func (r *AcademicYearRepository) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, "SELECT "+academicYearColumns+" FROM academic_years WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindByCode loads an academic year by its code.
func (r *AcademicYearRepository) FindByCode(ctx context.Context, code string) (*models.AcademicYear, error) {
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, "SELECT "+academicYearColumns+" FROM academic_years WHERE year_code = $1", code); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindCurrent returns the year flagged current.
func (r *AcademicYearRepository) FindCurrent(ctx context.Context) (*models.AcademicYear, error) {
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, "SELECT "+academicYearColumns+" FROM academic_years WHERE is_current = TRUE LIMIT 1"); err != nil {
		return nil, err
	}
	return &year, nil
}

// ExistsByCode checks whether another year already uses code.
func (r *AcademicYearRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM academic_years WHERE year_code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check academic year uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new academic year record.
func (r *AcademicYearRepository) Create(ctx context.Context, year *models.AcademicYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if year.CreatedAt.IsZero() {
		year.CreatedAt = now
	}
	year.UpdatedAt = now

	const query = `INSERT INTO academic_years (id, year_code, semester, start_date, end_date, registration_start_date, registration_end_date,
        exam_start_date, exam_end_date, is_active, is_current, created_at, updated_at)
        VALUES (:id, :year_code, :semester, :start_date, :end_date, :registration_start_date, :registration_end_date,
        :exam_start_date, :exam_end_date, :is_active, :is_current, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == yearCodeConstraint {
			return appErrors.ErrDuplicateYearCode
		}
		return fmt.Errorf("create academic year: %w", err)
	}
	return nil
}

// Update modifies the dates and semester of an academic year. The code and flags are not written.
func (r *AcademicYearRepository) Update(ctx context.Context, year *models.AcademicYear) error {
	year.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_years SET semester = :semester, start_date = :start_date, end_date = :end_date,
        registration_start_date = :registration_start_date, registration_end_date = :registration_end_date,
        exam_start_date = :exam_start_date, exam_end_date = :exam_end_date, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, year)
	if err != nil {
		return fmt.Errorf("update academic year: %w", err)
	}
	return expectAffected(res)
}

// SetCurrent flags id as current and clears the flag everywhere else in one transaction.
// The table lock serialises concurrent callers.
func (r *AcademicYearRepository) SetCurrent(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set current tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `LOCK TABLE academic_years IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock academic years: %w", err)
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE academic_years SET is_current = FALSE, updated_at = $1 WHERE is_current = TRUE AND id <> $2`, now, id); err != nil {
		return fmt.Errorf("clear current academic year: %w", err)
	}

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `UPDATE academic_years SET is_current = TRUE, updated_at = $1 WHERE id = $2`, now, id); err != nil {
		return fmt.Errorf("set current academic year: %w", err)
	}
	if err = expectAffected(res); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit set current tx: %w", err)
	}
	return nil
}

// SetActive toggles whether the year accepts enrollment and grading.
func (r *AcademicYearRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE academic_years SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set academic year active: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an academic year permanently.
func (r *AcademicYearRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM academic_years WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete academic year: %w", err)
	}
	return nil
}

// CountEnrollments returns the number of enrollments referencing the year code.
func (r *AcademicYearRepository) CountEnrollments(ctx context.Context, yearCode string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollments WHERE academic_year = $1`, yearCode); err != nil {
		return 0, fmt.Errorf("count academic year enrollments: %w", err)
	}
	return count, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
