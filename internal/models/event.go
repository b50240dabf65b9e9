package models

import "time"

// EventType enumerates the kinds of scheduled tutoring sessions.
type EventType string

const (
	EventLecture EventType = "lecture"
	EventLabwork EventType = "labwork"
	EventExam    EventType = "exam"
)

// Valid reports whether the event type is a declared choice.
func (t EventType) Valid() bool {
	switch t {
	case EventLecture, EventLabwork, EventExam:
		return true
	}
	return false
}

// EventStatus enumerates lifecycle states of a scheduled event.
type EventStatus string

const (
	StatusPending       EventStatus = "pending"
	StatusApproved      EventStatus = "approved"
	StatusRejected      EventStatus = "rejected"
	StatusCancelled     EventStatus = "cancelled"
	StatusRequestChange EventStatus = "request_change"
)

// Inactive reports whether the status excludes the event from conflict checks.
func (s EventStatus) Inactive() bool {
	return s == StatusRejected || s == StatusCancelled
}

// Event represents a scheduled tutoring session occupying a date and time range.
// StartTime and EndTime are zero-padded HH:MM strings; the interval is
// half-open, so events that merely touch do not overlap.
type Event struct {
	ID             string      `db:"id" json:"id"`
	Title          string      `db:"title" json:"title"`
	Date           time.Time   `db:"date" json:"date"`
	StartTime      string      `db:"start_time" json:"start_time"`
	EndTime        string      `db:"end_time" json:"end_time"`
	CourseID       string      `db:"course_id" json:"course_id"`
	TutorID        *string     `db:"tutor_id" json:"tutor_id,omitempty"`
	RoomID         *string     `db:"room_id" json:"room_id,omitempty"`
	EventType      EventType   `db:"event_type" json:"event_type"`
	Status         EventStatus `db:"status" json:"status"`
	Notes          *string     `db:"notes" json:"notes,omitempty"`
	RelatedEventID *string     `db:"related_event_id" json:"related_event_id,omitempty"`
	CreatedBy      string      `db:"created_by" json:"created_by"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// EventFilter describes query params for listing events.
type EventFilter struct {
	Date        *time.Time
	TutorID     string
	RoomID      string
	CourseID    string
	ExcludeID   string
	StatusNotIn []EventStatus
	StatusIn    []EventStatus
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

// ConflictDimension names the shared resource that caused an overlap.
type ConflictDimension string

const (
	ConflictTutor ConflictDimension = "tutor"
	ConflictRoom  ConflictDimension = "room"
)

// ConflictError is returned when a candidate event collides with an existing one.
type ConflictError struct {
	Dimension ConflictDimension `json:"dimension"`
	Message   string            `json:"message"`
	EventID   string            `json:"event_id"`
}

// Error implements the error interface for conflict errors.
func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
