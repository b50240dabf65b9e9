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
	"github.com/unitutor/scheduling-api/pkg/export"
)

// calendarCSVHeaders is the import format expected by common calendar tools.
var calendarCSVHeaders = []string{
	"Subject", "Start Date", "Start Time", "End Date", "End Time",
	"All Day Event", "Description", "Location",
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ExportService renders schedules for download: a calendar CSV of approved
// events and a per-tutor day sheet PDF.
type ExportService struct {
	events  catalogEventRepository
	courses catalogCourseRepository
	rooms   catalogRoomRepository
	users   exportUserRepository
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(events catalogEventRepository, courses catalogCourseRepository, rooms catalogRoomRepository, users exportUserRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{events: events, courses: courses, rooms: rooms, users: users, csv: csv, pdf: pdf, logger: logger}
}

// EventsCSV renders the approved events in [from,to] as calendar CSV.
// Dates are DD/MM/YYYY and times HH:MM per the import format.
func (s *ExportService) EventsCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	events, _, err := s.events.List(ctx, models.EventFilter{
		From:     &from,
		To:       &to,
		StatusIn: []models.EventStatus{models.StatusApproved},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events for export")
	}

	courseNames, roomNames, err := s.nameIndexes(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(events))
	for _, ev := range events {
		day := ev.Date.Format("02/01/2006")
		location := ""
		if ev.RoomID != nil {
			location = roomNames[*ev.RoomID]
		}
		rows = append(rows, map[string]string{
			"Subject":       ev.Title,
			"Start Date":    day,
			"Start Time":    ev.StartTime,
			"End Date":      day,
			"End Time":      ev.EndTime,
			"All Day Event": "False",
			"Description":   fmt.Sprintf("%s (%s)", courseNames[ev.CourseID], ev.EventType),
			"Location":      location,
		})
	}

	data, err := s.csv.Render(export.Dataset{Headers: calendarCSVHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// TutorSchedulePDF renders a tutor's active events on a date as a day sheet.
func (s *ExportService) TutorSchedulePDF(ctx context.Context, tutorID string, date time.Time) ([]byte, error) {
	tutor, err := s.users.FindByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	events, _, err := s.events.List(ctx, models.EventFilter{
		Date:        &date,
		TutorID:     tutorID,
		StatusNotIn: []models.EventStatus{models.StatusRejected, models.StatusCancelled},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutor events")
	}

	courseNames, roomNames, err := s.nameIndexes(ctx)
	if err != nil {
		return nil, err
	}

	headers := []string{"Start", "End", "Title", "Course", "Type", "Room", "Status"}
	rows := make([]map[string]string, 0, len(events))
	for _, ev := range events {
		room := ""
		if ev.RoomID != nil {
			room = roomNames[*ev.RoomID]
		}
		rows = append(rows, map[string]string{
			"Start":  ev.StartTime,
			"End":    ev.EndTime,
			"Title":  ev.Title,
			"Course": courseNames[ev.CourseID],
			"Type":   string(ev.EventType),
			"Room":   room,
			"Status": string(ev.Status),
		})
	}

	title := fmt.Sprintf("%s - %s", tutor.FullName, date.Format("02/01/2006"))
	data, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}

func (s *ExportService) nameIndexes(ctx context.Context) (map[string]string, map[string]string, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	courseNames := make(map[string]string, len(courses))
	for _, c := range courses {
		courseNames[c.ID] = c.Name
	}
	roomNames := make(map[string]string, len(rooms))
	for _, r := range rooms {
		roomNames[r.ID] = r.Name
	}
	return courseNames, roomNames, nil
}
