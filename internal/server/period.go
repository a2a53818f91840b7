package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingperioddomain "github.com/smallbiznis/kiosk/internal/billingperiod/domain"
)

type closePeriodRequest struct {
	Comment *string `json:"comment"`
}

func (s *Server) ClosePeriod(c *gin.Context) {
	var req closePeriodRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.periodSvc.ClosePeriod(c.Request.Context(), billingperioddomain.ClosePeriodRequest{
		Comment: optionalTrimmed(req.Comment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPeriods(c *gin.Context) {
	resp, err := s.periodSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPeriodByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.periodSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
