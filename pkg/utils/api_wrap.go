package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// HandleServiceError maps service-layer sentinel errors onto HTTP codes.
// Anything unrecognized is treated as an internal error.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrCategoryNotFound):
		RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmailAlreadyExists),
		errors.Is(err, ErrUsageRecordExists):
		RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidResetToken):
		RespondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrFeatureUnavailable):
		RespondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidPage), errors.Is(err, ErrInvalidPageSize):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUsageRecordNotFound):
		// provisioning bug upstream, not a client problem
		log.Printf("usage record missing: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	case errors.Is(err, ErrDatabaseError):
		log.Printf("Database error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("Unknown error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
