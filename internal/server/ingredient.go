package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ingredientdomain "github.com/smallbiznis/mealplan/internal/ingredient/domain"
)

type calculateNutritionRequest struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
}

func (s *Server) ListIngredients(c *gin.Context) {
	var query struct {
		Q string `form:"q"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items, err := s.ingredientSvc.Search(c.Request.Context(), strings.TrimSpace(query.Q))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetIngredient(c *gin.Context) {
	item, err := s.ingredientSvc.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CalculateNutrition(c *gin.Context) {
	var req calculateNutritionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		AbortWithError(c, newValidationError("name", "required", "name is required"))
		return
	}
	if req.Quantity == nil {
		AbortWithError(c, newValidationError("quantity", "required", "quantity is required"))
		return
	}

	resp, err := s.ingredientSvc.Calculate(c.Request.Context(), ingredientdomain.CalculateRequest{
		Name:     strings.TrimSpace(req.Name),
		Quantity: *req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
