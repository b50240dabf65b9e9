package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/unitutor/scheduling-api/internal/models"
	appErrors "github.com/unitutor/scheduling-api/pkg/errors"
)

type rosterStudentRepository interface {
	Create(ctx context.Context, profile *models.StudentProfile, user *models.User) error
	PromoteYear(ctx context.Context, majorID string) (int64, error)
}

type rosterUserRepository interface {
	Create(ctx context.Context, user *models.User) error
}

// CreateStudentRequest describes payload for registering a student.
type CreateStudentRequest struct {
	Name      string  `json:"name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	DOB       string  `json:"dob" validate:"required"`
	StudentID string  `json:"student_id" validate:"required"`
	MajorID   *string `json:"major_id"`
	Year      int     `json:"year" validate:"required,min=1,max=4"`
}

// CreateStaffRequest describes payload for registering a staff member.
type CreateStaffRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

// PromoteResult reports the outcome of a year promotion run.
type PromoteResult struct {
	Promoted int64 `json:"promoted"`
}

// RosterService manages student and staff registration and the yearly
// promotion run. Spreadsheet import parsing happens upstream; this service
// receives already-structured rows.
type RosterService struct {
	students  rosterStudentRepository
	users     rosterUserRepository
	sink      transitionSink
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService instantiates RosterService.
func NewRosterService(students rosterStudentRepository, users rosterUserRepository, sink transitionSink, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{students: students, users: users, sink: sink, validator: validate, logger: logger}
}

// CreateStudent registers a student profile and provisions its user account.
// The initial password is the date of birth in ddmmyy form followed by the
// student id, matching what the registry office hands out on paper.
func (s *RosterService) CreateStudent(ctx context.Context, actorID string, req CreateStudentRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	dob, err := time.Parse("2006-01-02", req.DOB)
	if err != nil {
		return nil, appErrors.Field("dob", "Invalid date format, expected YYYY-MM-DD.")
	}

	password := dob.Format("020106") + req.StudentID
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.Name,
		Role:         models.RoleStudent,
		Profile:      models.ProfileNone,
		Active:       true,
	}
	profile := &models.StudentProfile{
		Name:       req.Name,
		Email:      req.Email,
		DOB:        dob,
		StudentID:  req.StudentID,
		MajorID:    req.MajorID,
		Year:       req.Year,
		CanAdvance: true,
	}
	if err := s.students.Create(ctx, profile, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.recordRoster(ctx, Transition{
		ActorID:   actorID,
		Action:    models.AuditActionCreateStudent,
		StudentID: &profile.ID,
	})
	return profile, nil
}

// BulkCreateStudents registers a batch of already-parsed student rows.
// Rows fail individually; the response reports both sides.
func (s *RosterService) BulkCreateStudents(ctx context.Context, actorID string, rows []CreateStudentRequest) ([]models.StudentProfile, []error) {
	var created []models.StudentProfile
	var failures []error
	for _, row := range rows {
		profile, err := s.CreateStudent(ctx, actorID, row)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		created = append(created, *profile)
	}
	return created, failures
}

// PromoteStudents advances every eligible student one year as a single
// set-based update, optionally scoped to one major.
func (s *RosterService) PromoteStudents(ctx context.Context, actorID, majorID string) (*PromoteResult, error) {
	affected, err := s.students.PromoteYear(ctx, majorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote students")
	}

	notes := fmt.Sprintf("promoted %d students", affected)
	s.recordRoster(ctx, Transition{
		ActorID: actorID,
		Action:  models.AuditActionPromoteStudent,
		Notes:   &notes,
	})
	s.logger.Info("student promotion run complete", zap.Int64("promoted", affected), zap.String("major_id", majorID))
	return &PromoteResult{Promoted: affected}, nil
}

// CreateStaff registers a staff user with its display profile resolved once,
// up front.
func (s *RosterService) CreateStaff(ctx context.Context, actorID string, req CreateStaffRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}
	role := models.UserRole(req.Role)
	if !role.Valid() || role == models.RoleStudent {
		return nil, appErrors.Field("role", "Invalid staff role.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         role,
		Profile:      models.ProfileForRole(role),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff user")
	}

	s.recordRoster(ctx, Transition{
		ActorID: actorID,
		Action:  models.AuditActionCreateStaff,
	})
	return user, nil
}

func (s *RosterService) recordRoster(ctx context.Context, t Transition) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(ctx, t); err != nil {
		s.logger.Warn("roster audit sink failed", zap.String("action", t.Action), zap.Error(err))
	}
}
