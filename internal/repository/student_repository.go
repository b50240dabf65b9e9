package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitutor/scheduling-api/internal/models"
)

const studentColumns = "id, user_id, name, email, dob, student_id, major_id, year, can_advance, created_at, updated_at"

// StudentRepository provides persistence for student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByUserID loads the student profile owned by a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM student_profiles WHERE user_id = $1", studentColumns)
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListByMajorYear returns student profiles matching a course's major and year.
func (r *StudentRepository) ListByMajorYear(ctx context.Context, majorID string, year int) ([]models.StudentProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM student_profiles WHERE major_id = $1 AND year = $2 ORDER BY name ASC", studentColumns)
	var profiles []models.StudentProfile
	if err := r.db.SelectContext(ctx, &profiles, query, majorID, year); err != nil {
		return nil, fmt.Errorf("list students by major/year: %w", err)
	}
	return profiles, nil
}

// Create stores a profile and its user account in one transaction so a
// half-provisioned student never exists.
func (r *StudentRepository) Create(ctx context.Context, profile *models.StudentProfile, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err = tx.NamedExecContext(ctx, `INSERT INTO users (id, email, password_hash, full_name, role, profile, active, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :full_name, :role, :profile, :active, :created_at, :updated_at)`, user); err != nil {
		return fmt.Errorf("create student user: %w", err)
	}

	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.UserID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if _, err = tx.NamedExecContext(ctx, `INSERT INTO student_profiles (id, user_id, name, email, dob, student_id, major_id, year, can_advance, created_at, updated_at)
		VALUES (:id, :user_id, :name, :email, :dob, :student_id, :major_id, :year, :can_advance, :created_at, :updated_at)`, profile); err != nil {
		return fmt.Errorf("create student profile: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	return nil
}

// PromoteYear advances every eligible student below the final year as a
// single set-based update and reports how many rows moved.
func (r *StudentRepository) PromoteYear(ctx context.Context, majorID string) (int64, error) {
	query := `UPDATE student_profiles SET year = year + 1, updated_at = $1 WHERE can_advance AND year < 4`
	args := []interface{}{time.Now().UTC()}
	if majorID != "" {
		query += " AND major_id = $2"
		args = append(args, majorID)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("promote students: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("promote students rows affected: %w", err)
	}
	return affected, nil
}
