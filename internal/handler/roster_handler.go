package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitutor/scheduling-api/internal/service"
	appErrors "github.com/unitutor/scheduling-api/pkg/errors"
	"github.com/unitutor/scheduling-api/pkg/response"
)

// RosterHandler manages student and staff registration endpoints.
type RosterHandler struct {
	service *service.RosterService
}

// NewRosterHandler constructs handler.
func NewRosterHandler(svc *service.RosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

// CreateStudent godoc
// @Summary Register student
// @Description Create a student account; initial password is derived from date of birth and student number
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /students [post]
func (h *RosterHandler) CreateStudent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	profile, err := h.service.CreateStudent(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, profile)
}

// ImportStudents godoc
// @Summary Bulk register students
// @Description Register multiple students in one call; rows are processed independently
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body []service.CreateStudentRequest true "Student rows"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /students/import [post]
func (h *RosterHandler) ImportStudents(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var rows []service.CreateStudentRequest
	if err := c.ShouldBindJSON(&rows); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	if len(rows) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "import payload is empty"))
		return
	}

	created, failures := h.service.BulkCreateStudents(c.Request.Context(), claims.UserID, rows)
	errorMessages := make([]string, 0, len(failures))
	for _, failure := range failures {
		errorMessages = append(errorMessages, failure.Error())
	}

	response.JSON(c, http.StatusCreated, gin.H{
		"created": created,
		"errors":  errorMessages,
	}, nil)
}

// Promote godoc
// @Summary Promote students to the next year
// @Description Advance eligible students one academic year, optionally scoped to a major
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body object false "Optional major filter"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/promote [post]
func (h *RosterHandler) Promote(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		MajorID string `json:"major_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid promote payload"))
			return
		}
	}

	result, err := h.service.PromoteStudents(c.Request.Context(), claims.UserID, payload.MajorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// CreateStaff godoc
// @Summary Register staff member
// @Description Create a tutor, assistant or administrator account
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.CreateStaffRequest true "Staff payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /staff [post]
func (h *RosterHandler) CreateStaff(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid staff payload"))
		return
	}

	user, err := h.service.CreateStaff(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}
