package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/herbtrace/herbtrace-backend/internal/canonical"
	"github.com/herbtrace/herbtrace-backend/internal/geofence"
	"github.com/herbtrace/herbtrace-backend/internal/ledger"
	"github.com/herbtrace/herbtrace-backend/internal/repos"
	"github.com/herbtrace/herbtrace-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps service errors onto HTTP statuses. Anything
// unrecognized is an internal error.
func RespondDomainError(c *gin.Context, err error) {
	var rejection *geofence.RejectionError
	switch {
	case errors.As(err, &rejection):
		RespondError(c, http.StatusBadRequest, "geofence_rejected", err)
	case errors.Is(err, services.ErrProductNotFound):
		RespondError(c, http.StatusNotFound, "product_not_found", err)
	case errors.Is(err, canonical.ErrEncoding):
		RespondError(c, http.StatusUnprocessableEntity, "unencodable_record", err)
	case errors.Is(err, ledger.ErrAppendConflict):
		RespondError(c, http.StatusConflict, "append_conflict", err)
	case errors.Is(err, repos.ErrStorageUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "storage_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
