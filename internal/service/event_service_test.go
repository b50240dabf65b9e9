package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitutor/scheduling-api/internal/models"
	appErrors "github.com/unitutor/scheduling-api/pkg/errors"
)

type mockEventRepo struct {
	events map[string]*models.Event
	// existing rows handed to conflict guards, as the locked same-day set.
	existing []models.Event

	created      []*models.Event
	updated      []*models.Event
	mergedParent *models.Event
	mergedChild  string
	createErr    error
	updateErr    error
	nextID       int
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*models.Event)}
}

func (m *mockEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var out []models.Event
	for _, ev := range m.events {
		out = append(out, *ev)
	}
	return out, len(out), nil
}

func (m *mockEventRepo) ListForMajorYear(ctx context.Context, majorID string, year int) ([]models.Event, error) {
	var out []models.Event
	for _, ev := range m.events {
		out = append(out, *ev)
	}
	return out, nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *ev
	return &clone, nil
}

func (m *mockEventRepo) CreateChecked(ctx context.Context, event *models.Event, guard func(existing []models.Event) error) error {
	if m.createErr != nil {
		return m.createErr
	}
	if err := guard(m.existing); err != nil {
		return err
	}
	if event.ID == "" {
		m.nextID++
		event.ID = fmt.Sprintf("ev-%d", m.nextID)
	}
	clone := *event
	m.events[event.ID] = &clone
	m.created = append(m.created, event)
	return nil
}

func (m *mockEventRepo) UpdateChecked(ctx context.Context, event *models.Event, guard func(existing []models.Event) error) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if err := guard(m.existing); err != nil {
		return err
	}
	clone := *event
	m.events[event.ID] = &clone
	m.updated = append(m.updated, event)
	return nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *models.Event) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	clone := *event
	m.events[event.ID] = &clone
	m.updated = append(m.updated, event)
	return nil
}

func (m *mockEventRepo) MergeChangeRequest(ctx context.Context, parent *models.Event, childID string) error {
	m.mergedParent = parent
	m.mergedChild = childID
	clone := *parent
	m.events[parent.ID] = &clone
	delete(m.events, childID)
	return nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	delete(m.events, id)
	return nil
}

type mockCourseResolver struct {
	byID     map[string]*models.Course
	upserted *models.Course
	outcome  models.ResolveOutcome
}

func (m *mockCourseResolver) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseResolver) UpsertByName(ctx context.Context, name string) (*models.Course, models.ResolveOutcome, error) {
	if m.upserted == nil {
		return nil, models.ResolveInvalid, nil
	}
	return m.upserted, m.outcome, nil
}

type mockRoomResolver struct {
	byID     map[string]*models.Room
	upserted *models.Room
	outcome  models.ResolveOutcome
}

func (m *mockRoomResolver) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoomResolver) UpsertByName(ctx context.Context, name string) (*models.Room, models.ResolveOutcome, error) {
	if m.upserted == nil {
		return nil, models.ResolveInvalid, nil
	}
	return m.upserted, m.outcome, nil
}

type mockUserFinder struct {
	users map[string]*models.User
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentFinder struct {
	profiles map[string]*models.StudentProfile
}

func (m *mockStudentFinder) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type mockSink struct {
	transitions []Transition
	err         error
}

func (m *mockSink) Record(ctx context.Context, t Transition) error {
	m.transitions = append(m.transitions, t)
	return m.err
}

type eventFixture struct {
	repo     *mockEventRepo
	courses  *mockCourseResolver
	rooms    *mockRoomResolver
	users    *mockUserFinder
	students *mockStudentFinder
	sink     *mockSink
	svc      *EventService
}

func newEventFixture() *eventFixture {
	f := &eventFixture{
		repo: newMockEventRepo(),
		courses: &mockCourseResolver{byID: map[string]*models.Course{
			"course-1": {ID: "course-1", Name: "Algorithms", Year: 2},
		}},
		rooms: &mockRoomResolver{byID: map[string]*models.Room{
			"room-1": {ID: "room-1", Name: "B201"},
		}},
		users: &mockUserFinder{users: map[string]*models.User{
			"tutor-1": {ID: "tutor-1", Role: models.RoleTutor},
			"tutor-2": {ID: "tutor-2", Role: models.RoleTutor},
			"aa-1":    {ID: "aa-1", Role: models.RoleAcademicAssistant},
		}},
		students: &mockStudentFinder{profiles: map[string]*models.StudentProfile{}},
		sink:     &mockSink{},
	}
	f.svc = NewEventService(f.repo, f.courses, f.rooms, f.users, f.students, f.sink, nil)
	return f
}

func validCreateRequest() CreateEventRequest {
	return CreateEventRequest{
		Title:     "Graph algorithms",
		Course:    "course-1",
		Tutor:     "tutor-1",
		Date:      "2026-03-02",
		StartTime: "09:00",
		EndTime:   "10:00",
		EventType: "lecture",
		Room:      "room-1",
	}
}

func asAppError(t *testing.T, err error) *appErrors.Error {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected app error, got %v", err)
	return appErr
}

func TestEventCreatePending(t *testing.T) {
	f := newEventFixture()

	event, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, event.Status)
	assert.Equal(t, "aa-1", event.CreatedBy)
	assert.Equal(t, "course-1", event.CourseID)
	require.NotNil(t, event.TutorID)
	assert.Equal(t, "tutor-1", *event.TutorID)
	require.Len(t, f.repo.created, 1)

	require.Len(t, f.sink.transitions, 1)
	assert.Equal(t, models.AuditActionCreateEvent, f.sink.transitions[0].Action)
	assert.Contains(t, f.sink.transitions[0].Message, "pending approval")
}

func TestEventCreateDisguisedNotFound(t *testing.T) {
	f := newEventFixture()

	for _, role := range []models.UserRole{models.RoleStudent, models.RoleTutor, models.RoleDepartmentAssistant} {
		_, err := f.svc.Create(context.Background(), "someone", role, validCreateRequest())
		appErr := asAppError(t, err)
		assert.Equal(t, http.StatusNotFound, appErr.Status, "role %s", role)
		assert.Equal(t, "Not found.", appErr.Message, "role %s", role)
	}
	assert.Empty(t, f.repo.created)
	assert.Empty(t, f.sink.transitions)
}

func TestEventCreateTutorConflictWinsOverRoom(t *testing.T) {
	f := newEventFixture()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	// One existing event blocks both the tutor and the room for the slot.
	f.repo.existing = []models.Event{{
		ID: "busy", Date: day, StartTime: "09:30", EndTime: "10:30",
		TutorID: strPtr("tutor-1"), RoomID: strPtr("room-1"), Status: models.StatusApproved,
	}}

	_, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	appErr := asAppError(t, err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Tutor has a conflicting schedule.", appErr.Message)

	var conflict *models.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictTutor, conflict.Dimension)
	assert.Equal(t, "busy", conflict.EventID)
}

func TestEventCreateRoomConflict(t *testing.T) {
	f := newEventFixture()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	f.repo.existing = []models.Event{{
		ID: "busy", Date: day, StartTime: "09:30", EndTime: "10:30",
		TutorID: strPtr("tutor-2"), RoomID: strPtr("room-1"), Status: models.StatusPending,
	}}

	_, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	appErr := asAppError(t, err)
	assert.Equal(t, "Room is already booked for that timeframe.", appErr.Message)
}

func TestEventCreateTouchingSlotsAllowed(t *testing.T) {
	f := newEventFixture()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	f.repo.existing = []models.Event{{
		ID: "before", Date: day, StartTime: "08:00", EndTime: "09:00",
		TutorID: strPtr("tutor-1"), RoomID: strPtr("room-1"), Status: models.StatusApproved,
	}}

	_, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	assert.NoError(t, err)
}

func TestEventCreateValidationOrder(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	req := validCreateRequest()
	req.Course = ""
	_, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, req)
	appErr := asAppError(t, err)
	assert.Equal(t, "course", appErr.Field)
	assert.Equal(t, "This field is required.", appErr.Message)

	req = validCreateRequest()
	req.Tutor = "aa-1"
	_, err = f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, req)
	appErr = asAppError(t, err)
	assert.Equal(t, "tutor", appErr.Field)

	req = validCreateRequest()
	req.Date = "02-03-2026"
	_, err = f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, req)
	appErr = asAppError(t, err)
	assert.Equal(t, "Invalid date format, expected YYYY-MM-DD.", appErr.Message)

	req = validCreateRequest()
	req.StartTime = "10:00"
	req.EndTime = "09:00"
	_, err = f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, req)
	appErr = asAppError(t, err)
	assert.Equal(t, "start_time must be before end_time.", appErr.Message)

	req = validCreateRequest()
	req.EventType = "seminar"
	_, err = f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, req)
	appErr = asAppError(t, err)
	assert.Equal(t, "event_type", appErr.Field)
}

func TestEventCreateDefaultsTitleAndUpsertsCourse(t *testing.T) {
	f := newEventFixture()
	f.courses.upserted = &models.Course{ID: "course-new", Name: "Databases"}
	f.courses.outcome = models.ResolveCreated

	req := validCreateRequest()
	req.Title = ""
	req.Course = "Databases"
	event, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, req)
	require.NoError(t, err)
	assert.Equal(t, "New Event", event.Title)
	assert.Equal(t, "course-new", event.CourseID)
}

func TestEventCreateSinkFailureDoesNotBlock(t *testing.T) {
	f := newEventFixture()
	f.sink.err = errors.New("notification store down")

	event, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, event.Status)
}

func TestEventApprove(t *testing.T) {
	f := newEventFixture()
	event, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	approved, err := f.svc.Approve(context.Background(), "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	require.Len(t, f.sink.transitions, 2)
	assert.Equal(t, models.AuditActionApproveEvent, f.sink.transitions[1].Action)
	assert.Contains(t, f.sink.transitions[1].Message, "was approved")
}

func TestEventApproveRepeatedCallAuditsEachTime(t *testing.T) {
	f := newEventFixture()
	event, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	first, err := f.svc.Approve(context.Background(), "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)
	second, err := f.svc.Approve(context.Background(), "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, first.Status)
	assert.Equal(t, models.StatusApproved, second.Status)
	stored, err := f.repo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)

	// One audit record per call, nothing beyond that accumulates.
	require.Len(t, f.sink.transitions, 3)
	assert.Equal(t, models.AuditActionApproveEvent, f.sink.transitions[1].Action)
	assert.Equal(t, models.AuditActionApproveEvent, f.sink.transitions[2].Action)
}

func TestEventRejectRepeatedCallAuditsEachTime(t *testing.T) {
	f := newEventFixture()
	event, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)
	again, err := f.svc.Reject(context.Background(), "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, again.Status)
	require.Len(t, f.sink.transitions, 3)
	assert.Equal(t, models.AuditActionRejectEvent, f.sink.transitions[1].Action)
	assert.Equal(t, models.AuditActionRejectEvent, f.sink.transitions[2].Action)
}

func TestEventApproveDisguisedForNonAuthority(t *testing.T) {
	f := newEventFixture()
	event, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), "aa-1", models.RoleAcademicAssistant, event.ID)
	appErr := asAppError(t, err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Not found.", appErr.Message)
}

func TestEventRejectLiveEventNotifies(t *testing.T) {
	f := newEventFixture()
	event, err := f.svc.Create(context.Background(), "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	rejected, err := f.svc.Reject(context.Background(), "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	require.Len(t, f.sink.transitions, 2)
	assert.Contains(t, f.sink.transitions[1].Message, "was rejected")
}

func TestEventChangeRequestRoundTrip(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	event, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)

	// The owning tutor reworks the approved event: the edit must spawn a
	// change request, not touch the original.
	outcome, err := f.svc.Edit(ctx, "tutor-1", models.RoleTutor, event.ID, EditEventRequest{
		StartTime: strPtr("11:00"),
		EndTime:   strPtr("12:00"),
	})
	require.NoError(t, err)
	assert.True(t, outcome.ChangeRequest)
	assert.Equal(t, models.StatusRequestChange, outcome.Event.Status)
	require.NotNil(t, outcome.Event.RelatedEventID)
	assert.Equal(t, event.ID, *outcome.Event.RelatedEventID)

	original, err := f.svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, original.Status)
	assert.Equal(t, "09:00", original.StartTime)

	// Approving the request merges the proposal back under the parent's id.
	merged, err := f.svc.Approve(ctx, "da-1", models.RoleDepartmentAssistant, outcome.Event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, merged.ID)
	assert.Equal(t, models.StatusApproved, merged.Status)
	assert.Equal(t, "11:00", merged.StartTime)
	assert.Equal(t, "12:00", merged.EndTime)
	assert.Equal(t, outcome.Event.ID, f.repo.mergedChild)

	_, err = f.svc.Get(ctx, outcome.Event.ID)
	appErr := asAppError(t, err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestEventChangeRequestIgnoresParentSlot(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	event, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)

	// The locked same-day set includes the parent itself; a proposal keeping
	// the same slot must not collide with the event it replaces.
	stored, err := f.svc.Get(ctx, event.ID)
	require.NoError(t, err)
	f.repo.existing = []models.Event{*stored}

	outcome, err := f.svc.Edit(ctx, "tutor-1", models.RoleTutor, event.ID, EditEventRequest{
		Title: strPtr("Graph algorithms II"),
	})
	require.NoError(t, err)
	assert.True(t, outcome.ChangeRequest)
}

func TestEventRejectChangeRequestRetainsChild(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	event, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)

	outcome, err := f.svc.Edit(ctx, "tutor-1", models.RoleTutor, event.ID, EditEventRequest{
		StartTime: strPtr("11:00"),
		EndTime:   strPtr("12:00"),
	})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, "da-1", models.RoleDepartmentAssistant, outcome.Event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	// The parent survives untouched and the child is kept for the audit trail.
	parent, err := f.svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, parent.Status)
	child, err := f.svc.Get(ctx, outcome.Event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, child.Status)

	// No stakeholder notification for an internal review decision.
	last := f.sink.transitions[len(f.sink.transitions)-1]
	assert.Equal(t, models.AuditActionRejectEvent, last.Action)
	assert.Empty(t, last.Message)
}

func TestEventEditForbidden(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	event, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.Edit(ctx, "tutor-2", models.RoleTutor, event.ID, EditEventRequest{Title: strPtr("Hijack")})
	appErr := asAppError(t, err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)

	_, err = f.svc.Edit(ctx, "student-1", models.RoleStudent, event.ID, EditEventRequest{Title: strPtr("Hijack")})
	appErr = asAppError(t, err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestEventEditRejectedEventForbidden(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	event, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)

	_, err = f.svc.Edit(ctx, "tutor-1", models.RoleTutor, event.ID, EditEventRequest{Title: strPtr("Retry")})
	appErr := asAppError(t, err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "Only pending or approved events can be edited", appErr.Message)
}

func TestEventEditPendingReentersReview(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	event, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	outcome, err := f.svc.Edit(ctx, "tutor-1", models.RoleTutor, event.ID, EditEventRequest{
		StartTime: strPtr("14:00"),
		EndTime:   strPtr("15:00"),
	})
	require.NoError(t, err)
	assert.False(t, outcome.ChangeRequest)
	assert.Equal(t, models.StatusPending, outcome.Event.Status)
	assert.Equal(t, "14:00", outcome.Event.StartTime)
}

func TestEventEditByAuthorityKeepsStatus(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	event, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, "da-1", models.RoleDepartmentAssistant, event.ID)
	require.NoError(t, err)

	outcome, err := f.svc.Edit(ctx, "admin-1", models.RoleAdministrator, event.ID, EditEventRequest{
		Title: strPtr("Midterm review"),
	})
	require.NoError(t, err)
	assert.False(t, outcome.ChangeRequest)
	assert.Equal(t, models.StatusApproved, outcome.Event.Status)
	assert.Equal(t, "Midterm review", outcome.Event.Title)
}

func TestEventCancelByOwnerTutor(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	event, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	outcome, err := f.svc.Edit(ctx, "tutor-1", models.RoleTutor, event.ID, EditEventRequest{Action: "cancel"})
	require.NoError(t, err)
	assert.True(t, outcome.Cancelled)
	assert.Equal(t, models.StatusCancelled, outcome.Event.Status)

	// A cancelled event cannot be cancelled again.
	_, err = f.svc.Edit(ctx, "tutor-1", models.RoleTutor, event.ID, EditEventRequest{Action: "cancel"})
	appErr := asAppError(t, err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestEventCancelForbiddenForNonOwner(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	event, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.Edit(ctx, "tutor-2", models.RoleTutor, event.ID, EditEventRequest{Action: "cancel"})
	appErr := asAppError(t, err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestEventListStudentSeesOnlyApproved(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	major := "major-1"
	f.students.profiles["student-1"] = &models.StudentProfile{UserID: "student-1", MajorID: &major, Year: 2}

	first, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, "da-1", models.RoleDepartmentAssistant, first.ID)
	require.NoError(t, err)

	second := validCreateRequest()
	second.StartTime = "11:00"
	second.EndTime = "12:00"
	_, err = f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, second)
	require.NoError(t, err)

	events, pagination, err := f.svc.List(ctx, "student-1", models.RoleStudent, models.EventFilter{})
	require.NoError(t, err)
	assert.Nil(t, pagination)
	require.Len(t, events, 1)
	assert.Equal(t, first.ID, events[0].ID)
}

func TestEventListStudentWithoutMajor(t *testing.T) {
	f := newEventFixture()
	f.students.profiles["student-1"] = &models.StudentProfile{UserID: "student-1", Year: 1}

	events, _, err := f.svc.List(context.Background(), "student-1", models.RoleStudent, models.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventListStaffPagination(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "aa-1", models.RoleAcademicAssistant, validCreateRequest())
	require.NoError(t, err)

	_, pagination, err := f.svc.List(ctx, "aa-1", models.RoleAcademicAssistant, models.EventFilter{PageSize: 20})
	require.NoError(t, err)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 1, pagination.TotalCount)
}
