package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitutor/scheduling-api/internal/models"
)

func TestAuthorizeCreate(t *testing.T) {
	assert.True(t, Authorize(models.RoleAcademicAssistant, ActionCreate, nil, "u1"))
	assert.True(t, Authorize(models.RoleAdministrator, ActionCreate, nil, "u1"))
	assert.False(t, Authorize(models.RoleDepartmentAssistant, ActionCreate, nil, "u1"))
	assert.False(t, Authorize(models.RoleTutor, ActionCreate, nil, "u1"))
	assert.False(t, Authorize(models.RoleStudent, ActionCreate, nil, "u1"))
}

func TestAuthorizeApproveReject(t *testing.T) {
	for _, action := range []EventAction{ActionApprove, ActionReject} {
		assert.True(t, Authorize(models.RoleDepartmentAssistant, action, nil, "u1"))
		assert.True(t, Authorize(models.RoleAdministrator, action, nil, "u1"))
		assert.False(t, Authorize(models.RoleAcademicAssistant, action, nil, "u1"))
		assert.False(t, Authorize(models.RoleTutor, action, nil, "u1"))
		assert.False(t, Authorize(models.RoleStudent, action, nil, "u1"))
	}
}

func TestAuthorizeCancelOwnership(t *testing.T) {
	owner := "tutor-1"
	event := &models.Event{TutorID: &owner}

	assert.True(t, Authorize(models.RoleTutor, ActionCancel, event, "tutor-1"))
	assert.False(t, Authorize(models.RoleTutor, ActionCancel, event, "tutor-2"))
	assert.True(t, Authorize(models.RoleAcademicAssistant, ActionCancel, event, "u1"))
	assert.True(t, Authorize(models.RoleAdministrator, ActionCancel, event, "u1"))
	assert.False(t, Authorize(models.RoleStudent, ActionCancel, event, "tutor-1"))

	// Event without an assigned tutor has no owner.
	assert.False(t, Authorize(models.RoleTutor, ActionCancel, &models.Event{}, "tutor-1"))
}

func TestAuthorizeEdit(t *testing.T) {
	owner := "tutor-1"
	event := &models.Event{TutorID: &owner}

	assert.True(t, Authorize(models.RoleAcademicAssistant, ActionEdit, event, "u1"))
	assert.True(t, Authorize(models.RoleDepartmentAssistant, ActionEdit, event, "u1"))
	assert.True(t, Authorize(models.RoleAdministrator, ActionEdit, event, "u1"))
	assert.True(t, Authorize(models.RoleTutor, ActionEdit, event, "tutor-1"))
	assert.False(t, Authorize(models.RoleTutor, ActionEdit, event, "tutor-2"))
	assert.False(t, Authorize(models.RoleStudent, ActionEdit, event, "u1"))
}
