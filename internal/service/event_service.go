package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unitutor/scheduling-api/internal/models"
	appErrors "github.com/unitutor/scheduling-api/pkg/errors"
)

// Conflict detail messages kept verbatim from the legacy workflow; clients
// match on them.
const (
	msgTutorConflict = "Tutor has a conflicting schedule."
	msgRoomConflict  = "Room is already booked for that timeframe."
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	ListForMajorYear(ctx context.Context, majorID string, year int) ([]models.Event, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	CreateChecked(ctx context.Context, event *models.Event, guard func(existing []models.Event) error) error
	UpdateChecked(ctx context.Context, event *models.Event, guard func(existing []models.Event) error) error
	Update(ctx context.Context, event *models.Event) error
	MergeChangeRequest(ctx context.Context, parent *models.Event, childID string) error
	Delete(ctx context.Context, id string) error
}

type courseResolver interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	UpsertByName(ctx context.Context, name string) (*models.Course, models.ResolveOutcome, error)
}

type roomResolver interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
	UpsertByName(ctx context.Context, name string) (*models.Room, models.ResolveOutcome, error)
}

type eventUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type eventStudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

type transitionSink interface {
	Record(ctx context.Context, t Transition) error
}

// CreateEventRequest describes the payload for scheduling an event. Course
// and room accept an id or a bare name; unknown names are created.
type CreateEventRequest struct {
	Title     string  `json:"title"`
	Course    string  `json:"course"`
	Tutor     string  `json:"tutor"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	EventType string  `json:"event_type"`
	Room      string  `json:"room"`
	Notes     *string `json:"notes"`
}

// EditEventRequest carries a partial update, or a cancel action.
type EditEventRequest struct {
	Action    string  `json:"action,omitempty"`
	Title     *string `json:"title"`
	Course    *string `json:"course"`
	Tutor     *string `json:"tutor"`
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	EventType *string `json:"event_type"`
	Room      *string `json:"room"`
	Notes     *string `json:"notes"`
}

// EditOutcome reports which edit path was taken.
type EditOutcome struct {
	Event *models.Event `json:"event"`
	// ChangeRequest is true when the edit produced a request_change clone
	// instead of touching the original.
	ChangeRequest bool `json:"change_request"`
	Cancelled     bool `json:"cancelled"`
}

// EventService owns the event lifecycle: creation, approval, rejection,
// cancellation and the change-request branch. No other component writes an
// event's status.
type EventService struct {
	repo     eventRepository
	courses  courseResolver
	rooms    roomResolver
	users    eventUserRepository
	students eventStudentRepository
	sink     transitionSink
	logger   *zap.Logger
}

// NewEventService instantiates EventService.
func NewEventService(repo eventRepository, courses courseResolver, rooms roomResolver, users eventUserRepository, students eventStudentRepository, sink transitionSink, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:     repo,
		courses:  courses,
		rooms:    rooms,
		users:    users,
		students: students,
		sink:     sink,
		logger:   logger,
	}
}

// Create validates and schedules a new pending event. Unauthorized roles get
// a generic not-found so the endpoint is not discoverable.
func (s *EventService) Create(ctx context.Context, actorID string, role models.UserRole, req CreateEventRequest) (*models.Event, error) {
	if !Authorize(role, ActionCreate, nil, actorID) {
		s.logger.Warn("unauthorized event creation attempt", zap.String("actor_id", actorID), zap.String("role", string(role)))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Not found.")
	}

	draft, err := s.validateAndResolve(ctx, req)
	if err != nil {
		return nil, err
	}
	draft.Status = models.StatusPending
	draft.CreatedBy = actorID

	if err := s.repo.CreateChecked(ctx, draft, s.conflictGuard(draft, "")); err != nil {
		return nil, s.mapWriteError(err)
	}

	s.record(ctx, Transition{
		ActorID: actorID,
		Action:  models.AuditActionCreateEvent,
		Event:   draft,
		Message: fmt.Sprintf("New event %q on %s is pending approval", draft.Title, draft.Date.Format("2006-01-02")),
	})
	return draft, nil
}

// Approve moves a pending event to approved, or merges a change request back
// into its parent.
func (s *EventService) Approve(ctx context.Context, actorID string, role models.UserRole, eventID string) (*models.Event, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !Authorize(role, ActionApprove, event, actorID) {
		s.logger.Warn("unauthorized approve attempt", zap.String("actor_id", actorID), zap.String("role", string(role)))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Not found.")
	}

	if event.Status == models.StatusRequestChange {
		return s.approveChangeRequest(ctx, actorID, event)
	}

	event.Status = models.StatusApproved
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve event")
	}
	s.record(ctx, Transition{
		ActorID: actorID,
		Action:  models.AuditActionApproveEvent,
		Event:   event,
		Message: fmt.Sprintf("Event %q on %s was approved", event.Title, event.Date.Format("2006-01-02")),
	})
	return event, nil
}

// Reject marks an event rejected. A rejected change request is retained for
// the audit trail; its parent stays untouched.
func (s *EventService) Reject(ctx context.Context, actorID string, role models.UserRole, eventID string) (*models.Event, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !Authorize(role, ActionReject, event, actorID) {
		s.logger.Warn("unauthorized reject attempt", zap.String("actor_id", actorID), zap.String("role", string(role)))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Not found.")
	}

	event.Status = models.StatusRejected
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject event")
	}

	t := Transition{
		ActorID: actorID,
		Action:  models.AuditActionRejectEvent,
		Event:   event,
	}
	// Change-request rejections are internal to the review flow; only the
	// rejection of a live event notifies stakeholders.
	if event.RelatedEventID == nil {
		t.Message = fmt.Sprintf("Event %q on %s was rejected", event.Title, event.Date.Format("2006-01-02"))
	}
	s.record(ctx, t)
	return event, nil
}

// Edit applies a partial update, a cancellation, or spawns a change request,
// depending on the event's status and the actor's role. Unlike the other
// gated paths, a failed permission check here is an explicit forbidden.
func (s *EventService) Edit(ctx context.Context, actorID string, role models.UserRole, eventID string, req EditEventRequest) (*EditOutcome, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if req.Action == "cancel" {
		return s.cancel(ctx, actorID, role, event)
	}

	if !Authorize(role, ActionEdit, event, actorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You do not have permission to edit this event")
	}
	// An owning tutor may rework a pending or approved event but cannot
	// resurrect a rejected or cancelled one.
	if role == models.RoleTutor && event.Status != models.StatusPending && event.Status != models.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only pending or approved events can be edited")
	}

	merged := s.mergeRequest(event, req)
	draft, err := s.validateAndResolve(ctx, merged)
	if err != nil {
		return nil, err
	}
	draft.Notes = coalesce(req.Notes, event.Notes)

	if event.Status == models.StatusApproved && !role.IsAuthority() {
		return s.spawnChangeRequest(ctx, actorID, event, draft)
	}

	originalStatus := event.Status
	event.Title = draft.Title
	event.Date = draft.Date
	event.StartTime = draft.StartTime
	event.EndTime = draft.EndTime
	event.CourseID = draft.CourseID
	event.TutorID = draft.TutorID
	event.RoomID = draft.RoomID
	event.EventType = draft.EventType
	event.Notes = draft.Notes
	if !role.IsAuthority() {
		// Tutor-owner and academic assistant edits re-enter review.
		event.Status = models.StatusPending
	}

	if err := s.repo.UpdateChecked(ctx, event, s.conflictGuard(event, event.ID)); err != nil {
		event.Status = originalStatus
		return nil, s.mapWriteError(err)
	}

	s.record(ctx, Transition{
		ActorID: actorID,
		Action:  models.AuditActionEditEvent,
		Event:   event,
		Message: fmt.Sprintf("Event %q on %s was updated", event.Title, event.Date.Format("2006-01-02")),
	})
	return &EditOutcome{Event: event}, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, eventID string) (*models.Event, error) {
	return s.load(ctx, eventID)
}

// List returns events visible to the actor. Students only see approved
// events for courses matching their own major and year; every other role
// sees the full calendar.
func (s *EventService) List(ctx context.Context, actorID string, role models.UserRole, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	if role == models.RoleStudent {
		profile, err := s.students.FindByUserID(ctx, actorID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		if profile.MajorID == nil {
			return nil, nil, nil
		}
		events, err := s.repo.ListForMajorYear(ctx, *profile.MajorID, profile.Year)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
		}
		visible := events[:0]
		for _, ev := range events {
			if ev.Status == models.StatusApproved {
				visible = append(visible, ev)
			}
		}
		return visible, nil, nil
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	var pagination *models.Pagination
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		pagination = &models.Pagination{Page: page, PageSize: filter.PageSize, TotalCount: total}
	}
	return events, pagination, nil
}

func (s *EventService) cancel(ctx context.Context, actorID string, role models.UserRole, event *models.Event) (*EditOutcome, error) {
	if !Authorize(role, ActionCancel, event, actorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You do not have permission to cancel this event")
	}
	if event.Status != models.StatusPending && event.Status != models.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Only pending or approved events can be cancelled")
	}

	event.Status = models.StatusCancelled
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel event")
	}
	s.record(ctx, Transition{
		ActorID: actorID,
		Action:  models.AuditActionCancelEvent,
		Event:   event,
		Message: fmt.Sprintf("Event %q on %s was cancelled", event.Title, event.Date.Format("2006-01-02")),
	})
	return &EditOutcome{Event: event, Cancelled: true}, nil
}

func (s *EventService) spawnChangeRequest(ctx context.Context, actorID string, parent *models.Event, draft *models.Event) (*EditOutcome, error) {
	parentID := parent.ID
	draft.Status = models.StatusRequestChange
	draft.RelatedEventID = &parentID
	draft.CreatedBy = actorID

	// The parent will be replaced if the request is approved, so it does not
	// count against its own proposed slot.
	if err := s.repo.CreateChecked(ctx, draft, s.conflictGuard(draft, parentID)); err != nil {
		return nil, s.mapWriteError(err)
	}

	s.record(ctx, Transition{
		ActorID: actorID,
		Action:  models.AuditActionCreateEvent,
		Event:   draft,
		Message: fmt.Sprintf("A change was proposed for event %q on %s", parent.Title, parent.Date.Format("2006-01-02")),
	})
	return &EditOutcome{Event: draft, ChangeRequest: true}, nil
}

func (s *EventService) approveChangeRequest(ctx context.Context, actorID string, child *models.Event) (*models.Event, error) {
	if child.RelatedEventID == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "change request has no related event")
	}
	parent, err := s.load(ctx, *child.RelatedEventID)
	if err != nil {
		return nil, err
	}

	// The parent keeps its identity; only field values move over.
	parent.Title = child.Title
	parent.Date = child.Date
	parent.StartTime = child.StartTime
	parent.EndTime = child.EndTime
	parent.CourseID = child.CourseID
	parent.TutorID = child.TutorID
	parent.RoomID = child.RoomID
	parent.EventType = child.EventType
	parent.Notes = child.Notes
	parent.Status = models.StatusApproved

	if err := s.repo.MergeChangeRequest(ctx, parent, child.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to merge change request")
	}

	s.record(ctx, Transition{
		ActorID: actorID,
		Action:  models.AuditActionApproveEvent,
		Event:   parent,
		Message: fmt.Sprintf("Event %q on %s was updated and approved", parent.Title, parent.Date.Format("2006-01-02")),
	})
	return parent, nil
}

// validateAndResolve runs the ordered validation pipeline. The first failing
// check wins; errors are scoped to the offending field where one exists.
func (s *EventService) validateAndResolve(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	title := req.Title
	if title == "" {
		title = "New Event"
	}

	if req.Course == "" {
		return nil, appErrors.Field("course", "This field is required.")
	}
	course, err := s.resolveCourse(ctx, req.Course)
	if err != nil {
		return nil, err
	}

	if req.Tutor == "" {
		return nil, appErrors.Field("tutor", "This field is required.")
	}
	tutor, err := s.users.FindByID(ctx, req.Tutor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Field("tutor", "Tutor not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve tutor")
	}
	if tutor.Role != models.RoleTutor {
		return nil, appErrors.Field("tutor", fmt.Sprintf("User has role %q, expected tutor.", tutor.Role))
	}

	if req.Date == "" {
		return nil, appErrors.Field("date", "This field is required.")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Field("date", "Invalid date format, expected YYYY-MM-DD.")
	}

	start, okStart := ParseClock(req.StartTime)
	end, okEnd := ParseClock(req.EndTime)
	if !okStart || !okEnd {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time and end_time are required in HH:MM format.")
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time.")
	}

	if req.EventType == "" {
		return nil, appErrors.Field("event_type", "This field is required.")
	}
	eventType := models.EventType(req.EventType)
	if !eventType.Valid() {
		return nil, appErrors.Field("event_type", "Invalid event_type.")
	}

	var roomID *string
	if req.Room != "" {
		room, err := s.resolveRoom(ctx, req.Room)
		if err != nil {
			return nil, err
		}
		roomID = &room.ID
	}

	tutorID := tutor.ID
	return &models.Event{
		Title:     title,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		CourseID:  course.ID,
		TutorID:   &tutorID,
		RoomID:    roomID,
		EventType: eventType,
		Notes:     req.Notes,
	}, nil
}

func (s *EventService) resolveCourse(ctx context.Context, value string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, value)
	if err == nil {
		return course, nil
	}
	course, outcome, err := s.courses.UpsertByName(ctx, value)
	if err != nil || outcome == models.ResolveInvalid {
		return nil, appErrors.Field("course", "Invalid course value.")
	}
	if outcome == models.ResolveCreated {
		s.logger.Info("created course from provided value", zap.String("name", value), zap.String("course_id", course.ID))
	}
	return course, nil
}

func (s *EventService) resolveRoom(ctx context.Context, value string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, value)
	if err == nil {
		return room, nil
	}
	room, outcome, err := s.rooms.UpsertByName(ctx, value)
	if err != nil || outcome == models.ResolveInvalid {
		return nil, appErrors.Field("room", "Invalid room value.")
	}
	if outcome == models.ResolveCreated {
		s.logger.Info("created room from provided value", zap.String("name", value), zap.String("room_id", room.ID))
	}
	return room, nil
}

// conflictGuard re-runs both overlap checks against the locked same-day rows
// inside the repository transaction. Tutor is checked before room so the
// first reported conflict is stable.
func (s *EventService) conflictGuard(event *models.Event, excludeID string) func(existing []models.Event) error {
	cand := Candidate{
		Date:      event.Date,
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
		TutorID:   event.TutorID,
		RoomID:    event.RoomID,
		ExcludeID: excludeID,
	}
	return func(existing []models.Event) error {
		if hit := FindConflict(cand, existing, models.ConflictTutor); hit != nil {
			return s.conflictError(models.ConflictTutor, msgTutorConflict, hit)
		}
		if hit := FindConflict(cand, existing, models.ConflictRoom); hit != nil {
			return s.conflictError(models.ConflictRoom, msgRoomConflict, hit)
		}
		return nil
	}
}

func (s *EventService) conflictError(dim models.ConflictDimension, message string, hit *models.Event) error {
	domainErr := &models.ConflictError{Dimension: dim, Message: message, EventID: hit.ID}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
}

func (s *EventService) load(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// record hands the committed transition to the sink. Sink failures are
// logged and swallowed; the transition already committed.
func (s *EventService) record(ctx context.Context, t Transition) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(ctx, t); err != nil {
		s.logger.Warn("audit/notification sink failed",
			zap.String("action", t.Action),
			zap.Error(err),
		)
	}
}

func (s *EventService) mapWriteError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist event")
}

func (s *EventService) mergeRequest(event *models.Event, req EditEventRequest) CreateEventRequest {
	merged := CreateEventRequest{
		Title:     event.Title,
		Course:    event.CourseID,
		Date:      event.Date.Format("2006-01-02"),
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
		EventType: string(event.EventType),
	}
	if event.TutorID != nil {
		merged.Tutor = *event.TutorID
	}
	if event.RoomID != nil {
		merged.Room = *event.RoomID
	}
	if req.Title != nil {
		merged.Title = *req.Title
	}
	if req.Course != nil {
		merged.Course = *req.Course
	}
	if req.Tutor != nil {
		merged.Tutor = *req.Tutor
	}
	if req.Date != nil {
		merged.Date = *req.Date
	}
	if req.StartTime != nil {
		merged.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		merged.EndTime = *req.EndTime
	}
	if req.EventType != nil {
		merged.EventType = *req.EventType
	}
	return merged
}

func coalesce(override, current *string) *string {
	if override != nil {
		return override
	}
	return current
}
