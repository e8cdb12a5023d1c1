package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/services"
	"github.com/herbtrace/herbtrace-backend/internal/types"
)

type ProductHandler struct {
	log            *logger.Logger
	productService services.ProductService
}

func NewProductHandler(log *logger.Logger, psvc services.ProductService) *ProductHandler {
	return &ProductHandler{
		log:            log.With("handler", "ProductHandler"),
		productService: psvc,
	}
}

// POST /api/product
// Formulate a finished product. The response carries the trace URL and the
// rendered QR card so label printing needs no second round trip.
func (h *ProductHandler) Record(c *gin.Context) {
	var product types.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.productService.Record(c.Request.Context(), &product)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"product": created})
}
