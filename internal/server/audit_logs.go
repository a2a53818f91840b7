package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	"github.com/smallbiznis/kiosk/internal/auditcontext"
	"github.com/smallbiznis/kiosk/pkg/db/pagination"
)

type auditLogQuery struct {
	PageToken  string `form:"page_token"`
	PageSize   int    `form:"page_size"`
	Action     string `form:"action"`
	TargetType string `form:"target_type"`
	TargetID   string `form:"target_id"`
	ActorType  string `form:"actor_type"`
}

// ListAuditLogs pages through the admin trail, newest entry first.
func (s *Server) ListAuditLogs(c *gin.Context) {
	var query auditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actorType := strings.ToLower(strings.TrimSpace(query.ActorType))
	if actorType != "" && !knownActorType(actorType) {
		AbortWithError(c, newValidationError("actor_type", "invalid_actor_type", "unknown actor type"))
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Action:     strings.TrimSpace(query.Action),
		TargetType: strings.TrimSpace(query.TargetType),
		TargetID:   strings.TrimSpace(query.TargetID),
		ActorType:  actorType,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.AuditLogs, "page_info": resp.PageInfo})
}

func knownActorType(actorType string) bool {
	switch actorType {
	case auditcontext.ActorTypeAdmin,
		auditcontext.ActorTypeKiosk,
		auditcontext.ActorTypeScheduler,
		auditcontext.ActorTypeSystem:
		return true
	}
	return false
}
