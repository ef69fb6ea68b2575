package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CourseRepository reads the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Exists reports whether a course with id is on record.
func (r *CourseRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check course: %w", err)
	}
	return exists, nil
}
