package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/services"
)

type InsightsHandler struct {
	insights *services.ScoreInsights
	logger   *logrus.Logger
}

func NewInsightsHandler(insights *services.ScoreInsights, logger *logrus.Logger) *InsightsHandler {
	return &InsightsHandler{
		insights: insights,
		logger:   logger,
	}
}

// Scores returns the recent score distribution per strategy.
func (h *InsightsHandler) Scores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"strategies":   h.insights.Summaries(),
		"generated_at": time.Now(),
	})
}
