package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/mantodeus/mantodeus-manager/internal/audit/domain"
	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startAt, err := parseOptionalTime(c.Query("start_at"), false)
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_time", "invalid time"))
		return
	}
	endAt, err := parseOptionalTime(c.Query("end_at"), true)
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_time", "invalid time"))
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Pagination: page,
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		TargetID:   strings.TrimSpace(c.Query("target_id")),
		ActorType:  strings.TrimSpace(c.Query("actor_type")),
		StartAt:    startAt,
		EndAt:      endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
