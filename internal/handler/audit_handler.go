package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unitutor/scheduling-api/internal/repository"
	appErrors "github.com/unitutor/scheduling-api/pkg/errors"
	"github.com/unitutor/scheduling-api/pkg/response"
)

// AuditHandler exposes the read side of the audit trail.
type AuditHandler struct {
	repo *repository.UserRepository
}

// NewAuditHandler constructs handler.
func NewAuditHandler(repo *repository.UserRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List godoc
// @Summary List recent audit trail entries
// @Tags Audit
// @Produce json
// @Param limit query int false "Maximum entries (default 100, cap 500)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.repo.ListAuditLog(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, nil)
}
