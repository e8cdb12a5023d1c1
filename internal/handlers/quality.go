package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/services"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

type QualityHandler struct {
	log            *logger.Logger
	qualityService services.QualityService
}

func NewQualityHandler(log *logger.Logger, qsvc services.QualityService) *QualityHandler {
	return &QualityHandler{
		log:            log.With("handler", "QualityHandler"),
		qualityService: qsvc,
	}
}

// POST /api/quality
func (h *QualityHandler) Record(c *gin.Context) {
	var test types.QualityTest
	if err := c.ShouldBindJSON(&test); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.qualityService.Record(c.Request.Context(), &test)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"quality_test": created})
}
