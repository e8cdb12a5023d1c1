package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/herbtrace/herbtrace-backend/internal/gateway"
	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/services"
)

type LedgerHandler struct {
	log          *logger.Logger
	traceService services.TraceService
	mirror       gateway.Ledger
}

func NewLedgerHandler(log *logger.Logger, tsvc services.TraceService, mirror gateway.Ledger) *LedgerHandler {
	return &LedgerHandler{
		log:          log.With("handler", "LedgerHandler"),
		traceService: tsvc,
		mirror:       mirror,
	}
}

// GET /api/ledger/status
// Reports the mirror network's reachability. The local chain is always up
// when this process answers, so only the mirror is interesting here.
func (h *LedgerHandler) GetStatus(c *gin.Context) {
	status := h.mirror.Status(c.Request.Context())
	RespondOK(c, gin.H{"network": status})
}

// GET /api/ledger/verify/:batch
// Recomputes every link hash in the batch's chain and reports the first
// break, if any.
func (h *LedgerHandler) VerifyChain(c *gin.Context) {
	batch := c.Param("batch")
	if batch == "" {
		RespondError(c, http.StatusBadRequest, "missing_batch", errors.New("batch code is required"))
		return
	}
	result, err := h.traceService.VerifyChain(c.Request.Context(), batch)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}
