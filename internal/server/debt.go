package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	debtdomain "github.com/smallbiznis/kiosk/internal/debt/domain"
	"github.com/smallbiznis/kiosk/internal/providers/pdf"
	"go.uber.org/zap"
)

func (s *Server) ListDebts(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
		UserID string `form:"user_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := parseOptionalSnowflakeID(query.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user_id"))
		return
	}

	req := debtdomain.ListRequest{UserID: userID}
	if status := strings.TrimSpace(query.Status); status != "" {
		parsed, err := debtdomain.ParseStatus(status)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.Status = &parsed
	}

	resp, err := s.debtSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SummaryByUser(c *gin.Context) {
	status := strings.TrimSpace(c.DefaultQuery("status", string(debtdomain.DebtStatusInvoiced)))
	parsed, err := debtdomain.ParseStatus(status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.debtSvc.SummaryByUser(c.Request.Context(), parsed)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CurrentSummary(c *gin.Context) {
	resp, err := s.debtSvc.CurrentSummary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkDebtPaid(c *gin.Context) {
	s.transitionDebt(c, s.debtSvc.MarkPaid)
}

func (s *Server) MarkDebtUnpaid(c *gin.Context) {
	s.transitionDebt(c, s.debtSvc.MarkUnpaid)
}

func (s *Server) transitionDebt(c *gin.Context, fn func(ctx context.Context, periodID, userID snowflake.ID) (debtdomain.PeriodDebt, error)) {
	periodID, err := parseIDParam(c, "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	userID, err := parseIDParam(c, "user_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := fn(c.Request.Context(), periodID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RenderStatement streams the open and unpaid debt of one user as a PDF.
func (s *Server) RenderStatement(c *gin.Context) {
	if s.pdfProvider == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	summary, err := s.debtSvc.UserDebtSummary(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoiced := debtdomain.DebtStatusInvoiced
	debts, err := s.debtSvc.List(ctx, debtdomain.ListRequest{Status: &invoiced, UserID: id})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := pdf.NewStatementData(summary, debts, s.cfg.Location(), s.clock.Now())
	reader, err := s.pdfProvider.GenerateStatement(ctx, data)
	if err != nil {
		s.log.Error("failed to render statement", zap.String("user_id", id.String()), zap.Error(err))
		AbortWithError(c, err)
		return
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("statement-%s-%s.pdf", id.String(), s.clock.Now().In(s.cfg.Location()).Format(dateOnlyLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}
