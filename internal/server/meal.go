package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
	"github.com/smallbiznis/mealplan/internal/nutrition"
)

type createMealRequest struct {
	Name        string              `json:"meal_name"`
	Servings    *int                `json:"servings"`
	Ingredients []nutrition.Portion `json:"ingredients"`
}

func (s *Server) ListMeals(c *gin.Context) {
	items, err := s.mealSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) CreateMeal(c *gin.Context) {
	var req createMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	servings := 1
	if req.Servings != nil {
		servings = *req.Servings
	}

	resp, err := s.mealSvc.Create(c.Request.Context(), mealdomain.CreateRequest{
		Name:        strings.TrimSpace(req.Name),
		Servings:    servings,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("meal_id", strconv.FormatInt(resp.ID, 10))
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMeal(c *gin.Context) {
	id, ok := parsePathID(c.Param("id"))
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	resp, err := s.mealSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
