package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unitutor/scheduling-api/internal/service"
	appErrors "github.com/unitutor/scheduling-api/pkg/errors"
	"github.com/unitutor/scheduling-api/pkg/response"
)

// CatalogHandler serves course, tutor and room lookups.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Courses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [get]
func (h *CatalogHandler) Courses(c *gin.Context) {
	courses, err := h.service.Courses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Rooms godoc
// @Summary List rooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rooms [get]
func (h *CatalogHandler) Rooms(c *gin.Context) {
	rooms, err := h.service.Rooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// CourseTutors godoc
// @Summary List tutors assigned to a course
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/tutors [get]
func (h *CatalogHandler) CourseTutors(c *gin.Context) {
	tutors, err := h.service.CourseTutors(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tutors, nil)
}

// TutorSchedule godoc
// @Summary Tutor busy slots for a day
// @Tags Catalog
// @Produce json
// @Param id path string true "Tutor ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /tutors/{id}/schedule [get]
func (h *CatalogHandler) TutorSchedule(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Field("date", "Invalid date format, expected YYYY-MM-DD."))
		return
	}

	slots, err := h.service.TutorSchedule(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// RoomsAvailable godoc
// @Summary Rooms free for a timeframe
// @Tags Catalog
// @Produce json
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param start query string true "Start time (HH:MM)"
// @Param end query string true "End time (HH:MM)"
// @Param exclude query string false "Event ID to ignore when computing occupancy"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /rooms/available [get]
func (h *CatalogHandler) RoomsAvailable(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Field("date", "Invalid date format, expected YYYY-MM-DD."))
		return
	}
	start, ok := service.ParseClock(c.Query("start"))
	if !ok {
		response.Error(c, appErrors.Field("start", "Invalid time format, expected HH:MM."))
		return
	}
	end, ok := service.ParseClock(c.Query("end"))
	if !ok {
		response.Error(c, appErrors.Field("end", "Invalid time format, expected HH:MM."))
		return
	}
	if end <= start {
		response.Error(c, appErrors.Field("end", "End time must be after start time."))
		return
	}

	rooms, err := h.service.RoomsAvailable(c.Request.Context(), date, start, end, c.Query("exclude"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}
