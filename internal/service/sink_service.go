package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unitutor/scheduling-api/internal/models"
	"github.com/unitutor/scheduling-api/pkg/jobs"
)

type auditRepository interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	ListByRoles(ctx context.Context, roles ...models.UserRole) ([]models.User, error)
}

type notificationRepository interface {
	BulkCreate(ctx context.Context, notifications []models.Notification) error
}

type sinkStudentRepository interface {
	ListByMajorYear(ctx context.Context, majorID string, year int) ([]models.StudentProfile, error)
}

type sinkCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// Transition describes a committed lifecycle change handed to the sink.
type Transition struct {
	ActorID   string
	Action    string
	Event     *models.Event
	StudentID *string
	Notes     *string
	Message   string
}

// SinkConfig tunes the fan-out worker pool.
type SinkConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// SinkService records audit entries and fans notifications out to event
// stakeholders. Recording happens after the primary transition committed; a
// sink failure is returned for logging but must never be treated as a
// transition failure by callers.
type SinkService struct {
	audits        auditRepository
	notifications notificationRepository
	students      sinkStudentRepository
	courses       sinkCourseRepository
	queue         *jobs.Queue
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewSinkService constructs the audit/notification sink. metrics may be nil.
func NewSinkService(audits auditRepository, notifications notificationRepository, students sinkStudentRepository, courses sinkCourseRepository, cfg SinkConfig, metrics *MetricsService, logger *zap.Logger) *SinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SinkService{
		audits:        audits,
		notifications: notifications,
		students:      students,
		courses:       courses,
		metrics:       metrics,
		logger:        logger,
	}
	s.queue = jobs.NewQueue("notification-fanout", s.handleFanOut, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the fan-out workers.
func (s *SinkService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the fan-out workers.
func (s *SinkService) Stop() {
	s.queue.Stop()
}

// Record writes one audit entry and enqueues the notification fan-out. The
// audit write is synchronous so the trail orders with the transition; the
// fan-out is fire-and-forget.
func (s *SinkService) Record(ctx context.Context, t Transition) error {
	entry := &models.AuditLogEntry{
		ActorID:   t.ActorID,
		Action:    t.Action,
		StudentID: t.StudentID,
		Notes:     t.Notes,
	}
	if t.Event != nil {
		entry.EventID = &t.Event.ID
	}
	start := time.Now()
	err := s.audits.CreateAuditLog(ctx, entry)
	s.metrics.ObserveDBQuery("audit_insert", time.Since(start))
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	if t.Event == nil || t.Message == "" {
		return nil
	}
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: t.Action, Payload: t}); err != nil {
		return fmt.Errorf("enqueue notification fan-out: %w", err)
	}
	return nil
}

func (s *SinkService) handleFanOut(ctx context.Context, job jobs.Job) error {
	t, ok := job.Payload.(Transition)
	if !ok {
		s.logger.Warn("fan-out job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.FanOut(ctx, t)
}

// FanOut creates one notification per stakeholder of the transition's event:
// students whose major and year match the event's course, the assigned tutor,
// and all staff users. Each recipient is notified at most once.
func (s *SinkService) FanOut(ctx context.Context, t Transition) error {
	event := t.Event
	if event == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var recipients []string
	add := func(userID string) {
		if userID == "" {
			return
		}
		if _, dup := seen[userID]; dup {
			return
		}
		seen[userID] = struct{}{}
		recipients = append(recipients, userID)
	}

	course, err := s.courses.FindByID(ctx, event.CourseID)
	if err != nil {
		s.logger.Warn("fan-out could not load course", zap.String("course_id", event.CourseID), zap.Error(err))
	} else if course.MajorID != nil {
		profiles, err := s.students.ListByMajorYear(ctx, *course.MajorID, course.Year)
		if err != nil {
			return fmt.Errorf("fan-out list students: %w", err)
		}
		for _, p := range profiles {
			add(p.UserID)
		}
	}

	if event.TutorID != nil {
		add(*event.TutorID)
	}

	staff, err := s.audits.ListByRoles(ctx, models.RoleAdministrator, models.RoleDepartmentAssistant, models.RoleAcademicAssistant)
	if err != nil {
		return fmt.Errorf("fan-out list staff: %w", err)
	}
	for _, u := range staff {
		add(u.ID)
	}

	if len(recipients) == 0 {
		return nil
	}

	batch := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		eventID := event.ID
		batch = append(batch, models.Notification{
			UserID:  userID,
			Message: t.Message,
			EventID: &eventID,
		})
	}
	if err := s.notifications.BulkCreate(ctx, batch); err != nil {
		return fmt.Errorf("fan-out insert notifications: %w", err)
	}

	s.metrics.ObserveFanOut(len(recipients))
	s.logger.Info("notification fan-out complete",
		zap.String("event_id", event.ID),
		zap.String("action", t.Action),
		zap.Int("recipients", len(recipients)),
	)
	return nil
}
