package service

import (
	"github.com/unitutor/scheduling-api/internal/models"
)

// EventAction names a gated operation on scheduled events.
type EventAction string

const (
	ActionCreate  EventAction = "create"
	ActionApprove EventAction = "approve"
	ActionReject  EventAction = "reject"
	ActionCancel  EventAction = "cancel"
	ActionEdit    EventAction = "edit"
)

// Authorize decides whether a role may perform an action, optionally against
// a concrete event (needed for the owner-tutor rules). Callers on the
// create/approve/reject paths surface a failure as a generic not-found so the
// existence of the action is not leaked; the edit path keeps an explicit
// forbidden. That asymmetry is deliberate and preserved from the original
// workflow.
func Authorize(role models.UserRole, action EventAction, event *models.Event, actorID string) bool {
	switch action {
	case ActionCreate:
		return role == models.RoleAcademicAssistant || role == models.RoleAdministrator
	case ActionApprove, ActionReject:
		return role.IsAuthority()
	case ActionCancel:
		if role == models.RoleAcademicAssistant || role == models.RoleAdministrator {
			return true
		}
		return role == models.RoleTutor && ownsEvent(event, actorID)
	case ActionEdit:
		if role == models.RoleAcademicAssistant || role.IsAuthority() {
			return true
		}
		return role == models.RoleTutor && ownsEvent(event, actorID)
	}
	return false
}

func ownsEvent(event *models.Event, actorID string) bool {
	return event != nil && event.TutorID != nil && *event.TutorID == actorID
}
