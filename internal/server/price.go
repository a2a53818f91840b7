package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	pricedomain "github.com/smallbiznis/kiosk/internal/price/domain"
)

type setPriceRequest struct {
	PriceCents *int64     `json:"price_cents"`
	StartsAt   *time.Time `json:"starts_at"`
}

func (s *Server) SetPrice(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.PriceCents == nil {
		AbortWithError(c, newValidationError("price_cents", "invalid_price", "price_cents is required"))
		return
	}

	resp, err := s.priceSvc.SetPrice(c.Request.Context(), pricedomain.SetPriceRequest{
		ProductID:  productID,
		PriceCents: *req.PriceCents,
		StartsAt:   req.StartsAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPriceHistory(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.priceSvc.History(c.Request.Context(), productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
