package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/services"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

type CollectionHandler struct {
	log               *logger.Logger
	collectionService services.CollectionService
}

func NewCollectionHandler(log *logger.Logger, csvc services.CollectionService) *CollectionHandler {
	return &CollectionHandler{
		log:               log.With("handler", "CollectionHandler"),
		collectionService: csvc,
	}
}

// POST /api/collection
// Record a wild-collection event, geofence-checked, anchored on the batch chain.
func (h *CollectionHandler) Record(c *gin.Context) {
	var event types.CollectionEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.collectionService.Record(c.Request.Context(), &event)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"collection_event": created})
}
