package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/services"
)

type AnalyticsHandler struct {
	log              *logger.Logger
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(log *logger.Logger, asvc services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:              log.With("handler", "AnalyticsHandler"),
		analyticsService: asvc,
	}
}

// GET /api/analytics/dashboard
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.analyticsService.Dashboard(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, dashboard)
}
