package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/unitutor/scheduling-api/internal/models"
	"github.com/unitutor/scheduling-api/internal/repository"
	appErrors "github.com/unitutor/scheduling-api/pkg/errors"
)

type catalogCourseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
}

type catalogRoomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
}

type catalogUserRepository interface {
	ListTutorsByCourse(ctx context.Context, courseID string) ([]models.User, error)
}

type catalogEventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ScheduleSlot is a busy window in a tutor's day.
type ScheduleSlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// TutorSummary is the public shape of a tutor in catalog responses.
type TutorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CatalogService serves the read side: course and room catalogs, tutor
// availability and room availability. Catalog lists are cached; availability
// is always computed fresh against current events.
type CatalogService struct {
	courses  catalogCourseRepository
	rooms    catalogRoomRepository
	users    catalogUserRepository
	events   catalogEventRepository
	cache    catalogCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewCatalogService instantiates CatalogService. metrics may be nil.
func NewCatalogService(courses catalogCourseRepository, rooms catalogRoomRepository, users catalogUserRepository, events catalogEventRepository, cache catalogCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CatalogService{
		courses:  courses,
		rooms:    rooms,
		users:    users,
		events:   events,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger,
	}
}

// Courses returns all courses ordered by name.
func (s *CatalogService) Courses(ctx context.Context) ([]models.Course, error) {
	var cached []models.Course
	if s.cacheGet(ctx, repository.CacheKeyCourses, &cached) {
		return cached, nil
	}
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	s.cacheSet(ctx, repository.CacheKeyCourses, courses)
	return courses, nil
}

// Rooms returns all rooms ordered by name.
func (s *CatalogService) Rooms(ctx context.Context) ([]models.Room, error) {
	var cached []models.Room
	if s.cacheGet(ctx, repository.CacheKeyRooms, &cached) {
		return cached, nil
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	s.cacheSet(ctx, repository.CacheKeyRooms, rooms)
	return rooms, nil
}

// CourseTutors returns the tutors assigned to teach a course.
func (s *CatalogService) CourseTutors(ctx context.Context, courseID string) ([]TutorSummary, error) {
	key := repository.CacheKeyTutorPrefix + courseID
	var cached []TutorSummary
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}
	tutors, err := s.users.ListTutorsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course tutors")
	}
	summaries := make([]TutorSummary, 0, len(tutors))
	for _, t := range tutors {
		summaries = append(summaries, TutorSummary{ID: t.ID, Name: t.FullName})
	}
	s.cacheSet(ctx, key, summaries)
	return summaries, nil
}

// TutorSchedule returns the busy windows of a tutor on a given day.
func (s *CatalogService) TutorSchedule(ctx context.Context, tutorID string, date time.Time) ([]ScheduleSlot, error) {
	events, _, err := s.events.List(ctx, models.EventFilter{
		Date:        &date,
		TutorID:     tutorID,
		StatusNotIn: []models.EventStatus{models.StatusRejected, models.StatusCancelled},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutor schedule")
	}
	slots := make([]ScheduleSlot, 0, len(events))
	for _, ev := range events {
		slots = append(slots, ScheduleSlot{StartTime: ev.StartTime, EndTime: ev.EndTime})
	}
	return slots, nil
}

// RoomsAvailable returns rooms free for the whole [start,end) window on a
// date. excludeID ignores the event currently being edited.
func (s *CatalogService) RoomsAvailable(ctx context.Context, date time.Time, start, end, excludeID string) ([]models.Room, error) {
	startClock, okStart := ParseClock(start)
	endClock, okEnd := ParseClock(end)
	if !okStart || !okEnd {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid time format, expected HH:MM")
	}

	rooms, err := s.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	events, _, err := s.events.List(ctx, models.EventFilter{
		Date:        &date,
		ExcludeID:   excludeID,
		StatusNotIn: []models.EventStatus{models.StatusRejected, models.StatusCancelled},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day events")
	}

	busy := make(map[string]struct{})
	for _, ev := range events {
		if ev.RoomID == nil {
			continue
		}
		if Overlaps(startClock, endClock, ev.StartTime, ev.EndTime) {
			busy[*ev.RoomID] = struct{}{}
		}
	}

	available := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if _, taken := busy[room.ID]; !taken {
			available = append(available, room)
		}
	}
	return available, nil
}

// Invalidate drops the cached catalogs after a write touched them.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		s.metrics.RecordCacheOperation(true)
		return true
	}
	s.metrics.RecordCacheOperation(false)
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
