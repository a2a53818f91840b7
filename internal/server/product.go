package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
)

type createProductRequest struct {
	Name       string `json:"name"`
	Active     *bool  `json:"active"`
	PriceCents *int64 `json:"price_cents"`
	InitialQty int64  `json:"initial_qty"`
}

type updateProductRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.Create(c.Request.Context(), productdomain.CreateProductRequest{
		Name:       req.Name,
		Active:     req.Active,
		PriceCents: req.PriceCents,
		InitialQty: req.InitialQty,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListProducts(c *gin.Context) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.productSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if active != nil {
		filtered := make([]productdomain.CatalogItem, 0, len(resp))
		for _, item := range resp {
			if item.Active == *active {
				filtered = append(filtered, item)
			}
		}
		resp = filtered
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProductByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.productSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.Update(c.Request.Context(), productdomain.UpdateProductRequest{
		ID:     id,
		Name:   req.Name,
		Active: req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
