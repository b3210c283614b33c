package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	consumptiondomain "github.com/smallbiznis/mealplan/internal/consumption/domain"
)

type addConsumptionRequest struct {
	MealID   int64    `json:"meal_id"`
	Servings *float64 `json:"servings"`
}

func (s *Server) ListConsumption(c *gin.Context) {
	items, err := s.consumptionSvc.ListForDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) AddConsumption(c *gin.Context) {
	var req addConsumptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.MealID == 0 {
		AbortWithError(c, newValidationError("meal_id", "required", "meal_id is required"))
		return
	}

	servings := 1.0
	if req.Servings != nil {
		servings = *req.Servings
	}

	c.Set("meal_id", strconv.FormatInt(req.MealID, 10))
	resp, err := s.consumptionSvc.AddEntry(c.Request.Context(), consumptiondomain.AddRequest{
		Date:     c.Param("date"),
		MealID:   req.MealID,
		Servings: servings,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ClearConsumption(c *gin.Context) {
	date := c.Param("date")
	removed, err := s.consumptionSvc.ClearDate(c.Request.Context(), date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"message": fmt.Sprintf("Daily nutrition cleared for %s", date),
		"removed": removed,
	}})
}

func (s *Server) RemoveConsumption(c *gin.Context) {
	id, ok := parsePathID(c.Param("entry_id"))
	if !ok {
		AbortWithError(c, newValidationError("entry_id", "invalid_entry_id", "invalid entry id"))
		return
	}

	if err := s.consumptionSvc.RemoveEntry(c.Request.Context(), c.Param("date"), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Entry removed successfully"}})
}

func (s *Server) ConsumptionSummary(c *gin.Context) {
	resp, err := s.consumptionSvc.Summary(c.Request.Context(), c.Param("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
