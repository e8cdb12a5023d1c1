package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/services"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

type ProcessingHandler struct {
	log               *logger.Logger
	processingService services.ProcessingService
}

func NewProcessingHandler(log *logger.Logger, psvc services.ProcessingService) *ProcessingHandler {
	return &ProcessingHandler{
		log:               log.With("handler", "ProcessingHandler"),
		processingService: psvc,
	}
}

// POST /api/processing
func (h *ProcessingHandler) Record(c *gin.Context) {
	var step types.ProcessingStep
	if err := c.ShouldBindJSON(&step); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.processingService.Record(c.Request.Context(), &step)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"processing_step": created})
}
