package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/services"
)

type TraceHandler struct {
	log          *logger.Logger
	traceService services.TraceService
}

func NewTraceHandler(log *logger.Logger, tsvc services.TraceService) *TraceHandler {
	return &TraceHandler{
		log:          log.With("handler", "TraceHandler"),
		traceService: tsvc,
	}
}

// GET /api/trace/:id
// The identifier may be a product id or a batch code.
func (h *TraceHandler) GetTrace(c *gin.Context) {
	identifier := c.Param("id")
	if identifier == "" {
		RespondError(c, http.StatusBadRequest, "missing_identifier", errors.New("identifier is required"))
		return
	}
	trace, err := h.traceService.Trace(c.Request.Context(), identifier)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, trace)
}
