package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	meallogdomain "github.com/smallbiznis/mealplan/internal/meallog/domain"
)

type logMealRequest struct {
	MealID   int64  `json:"meal_id"`
	MealTime string `json:"meal_time"`
	Date     string `json:"date"`
	Notes    string `json:"notes"`
}

func (s *Server) LogMeal(c *gin.Context) {
	var req logMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.MealID == 0 {
		AbortWithError(c, newValidationError("meal_id", "required", "meal_id is required"))
		return
	}

	resp, err := s.mealLogSvc.Append(c.Request.Context(), meallogdomain.AppendRequest{
		MealID:   req.MealID,
		MealTime: strings.TrimSpace(req.MealTime),
		Date:     strings.TrimSpace(req.Date),
		Notes:    req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMealLog(c *gin.Context) {
	var query struct {
		Date string `form:"date"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items, err := s.mealLogSvc.List(c.Request.Context(), query.Date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
