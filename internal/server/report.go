package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) ConsumptionReport(c *gin.Context) {
	summary, err := s.consumptionSvc.Summary(c.Request.Context(), c.Param("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.reports.DailyReport(c.Request.Context(), summary)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if doc == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	body, err := io.ReadAll(doc)
	if err != nil {
		s.log.Error("read report", zap.Error(err))
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="nutrition-%s.pdf"`, summary.Date))
	c.Data(http.StatusOK, "application/pdf", body)
}
