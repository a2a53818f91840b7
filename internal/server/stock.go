package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	stockdomain "github.com/smallbiznis/kiosk/internal/stock/domain"
)

type restockRequest struct {
	Items []struct {
		ProductID snowflake.ID `json:"product_id"`
		Qty       int64        `json:"qty"`
	} `json:"items"`
	Comment *string `json:"comment"`
}

func (s *Server) Restock(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items := make([]stockdomain.RestockItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, stockdomain.RestockItem{
			ProductID: item.ProductID,
			Qty:       item.Qty,
		})
	}

	resp, err := s.stockSvc.Restock(c.Request.Context(), stockdomain.RestockRequest{
		Items:   items,
		Comment: optionalTrimmed(req.Comment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListStockLevels(c *gin.Context) {
	resp, err := s.stockSvc.Levels(c.Request.Context(), nil)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListStockMoves(c *gin.Context) {
	var query struct {
		ProductID string `form:"product_id"`
		Reason    string `form:"reason"`
		RefID     string `form:"ref_id"`
		Limit     string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	productID, err := parseOptionalSnowflakeID(query.ProductID)
	if err != nil {
		AbortWithError(c, newValidationError("product_id", "invalid_product_id", "invalid product_id"))
		return
	}
	refID, err := parseOptionalSnowflakeID(query.RefID)
	if err != nil {
		AbortWithError(c, newValidationError("ref_id", "invalid_ref_id", "invalid ref_id"))
		return
	}
	limit, err := parseOptionalInt(query.Limit, 0)
	if err != nil || limit < 0 {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	reason := stockdomain.MoveReason(strings.TrimSpace(query.Reason))
	switch reason {
	case "", stockdomain.ReasonRestock, stockdomain.ReasonSale:
	default:
		AbortWithError(c, stockdomain.ErrInvalidReason)
		return
	}

	resp, err := s.stockSvc.ListMoves(c.Request.Context(), stockdomain.MoveFilter{
		ProductID: productID,
		Reason:    reason,
		RefID:     refID,
		Limit:     limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReconcileStock(c *gin.Context) {
	drifts, err := s.stockSvc.Reconcile(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": drifts, "consistent": len(drifts) == 0})
}
