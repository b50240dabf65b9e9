package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unitutor/scheduling-api/internal/service"
	appErrors "github.com/unitutor/scheduling-api/pkg/errors"
	"github.com/unitutor/scheduling-api/pkg/response"
)

// ExportHandler serves calendar and schedule downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// EventsCSV godoc
// @Summary Export approved events as calendar CSV
// @Tags Export
// @Produce text/csv
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /export/events.csv [get]
func (h *ExportHandler) EventsCSV(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Field("from", "Invalid date format, expected YYYY-MM-DD."))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Field("to", "Invalid date format, expected YYYY-MM-DD."))
		return
	}
	if to.Before(from) {
		response.Error(c, appErrors.Field("to", "End date must not be before start date."))
		return
	}

	data, err := h.service.EventsCSV(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("events_%s_%s.csv", from.Format("2006-01-02"), to.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// TutorSchedulePDF godoc
// @Summary Export a tutor's day schedule as PDF
// @Tags Export
// @Produce application/pdf
// @Param id path string true "Tutor ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /tutors/{id}/schedule.pdf [get]
func (h *ExportHandler) TutorSchedulePDF(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Field("date", "Invalid date format, expected YYYY-MM-DD."))
		return
	}

	data, err := h.service.TutorSchedulePDF(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("schedule_%s.pdf", date.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
