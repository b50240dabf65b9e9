package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitutor/scheduling-api/internal/models"
)

// CourseRepository provides persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns all courses ordered by name.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, name, year, major_id FROM courses ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID loads a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, year, major_id FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// UpsertByName resolves a course by name, creating it when absent. The unique
// constraint on name makes concurrent upserts converge on one row; the xmax
// check distinguishes an insert from a no-op update on the existing row.
func (r *CourseRepository) UpsertByName(ctx context.Context, name string) (*models.Course, models.ResolveOutcome, error) {
	const query = `INSERT INTO courses (id, name, year)
		VALUES ($1, $2, 1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, year, major_id, (xmax = 0) AS inserted`
	var row struct {
		models.Course
		Inserted bool `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, query, uuid.NewString(), name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ResolveInvalid, err
		}
		return nil, models.ResolveInvalid, fmt.Errorf("upsert course by name: %w", err)
	}
	outcome := models.ResolveFound
	if row.Inserted {
		outcome = models.ResolveCreated
	}
	return &row.Course, outcome, nil
}
