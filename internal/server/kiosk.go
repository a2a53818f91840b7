package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/kiosk/internal/order/domain"
	userdomain "github.com/smallbiznis/kiosk/internal/user/domain"
)

type identifyRequest struct {
	BadgeUID string `json:"badge_uid"`
}

type identifyResponse struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
}

type commitOrderRequest struct {
	UserID snowflake.ID `json:"user_id"`
	Items  []struct {
		ProductID snowflake.ID `json:"product_id"`
		Qty       int64        `json:"qty"`
	} `json:"items"`
}

func (s *Server) ListCatalog(c *gin.Context) {
	resp, err := s.productSvc.ListOrderable(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Identify(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.userSvc.IdentifyByBadge(c.Request.Context(), req.BadgeUID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": identifyResponse{ID: user.ID, Name: user.Name}})
}

func (s *Server) GetUserDebt(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !user.Active {
		AbortWithError(c, userdomain.ErrDisabled)
		return
	}

	resp, err := s.debtSvc.UserDebtSummary(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CommitOrder(c *gin.Context) {
	var req commitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items := make([]orderdomain.CommitItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, orderdomain.CommitItem{
			ProductID: item.ProductID,
			Qty:       item.Qty,
		})
	}

	resp, err := s.orderSvc.CommitOrder(c.Request.Context(), orderdomain.CommitRequest{
		UserID: req.UserID,
		Items:  items,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
