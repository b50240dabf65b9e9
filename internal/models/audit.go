package models

import "time"

// AuditAction constants represent actions recorded in the audit trail.
const (
	AuditActionCreateEvent    = "createEvent"
	AuditActionApproveEvent   = "approveEvent"
	AuditActionRejectEvent    = "rejectEvent"
	AuditActionCancelEvent    = "cancelEvent"
	AuditActionEditEvent      = "editEvent"
	AuditActionCreateStudent  = "createStudent"
	AuditActionPromoteStudent = "promoteStudent"
	AuditActionCreateStaff    = "createStaff"
)

// AuditLogEntry represents an append-only audit trail record.
type AuditLogEntry struct {
	ID        string    `db:"id" json:"id"`
	ActorID   string    `db:"actor_id" json:"actor_id"`
	Action    string    `db:"action" json:"action"`
	EventID   *string   `db:"event_id" json:"event_id,omitempty"`
	StudentID *string   `db:"student_id" json:"student_id,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Notification is an append-only per-recipient message about an event.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Message   string    `db:"message" json:"message"`
	EventID   *string   `db:"event_id" json:"event_id,omitempty"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
