package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/services"
	"github.com/jakechorley/timegrid/pkg/db"
)

// Error is a failure returned by a handler, rendered with its HTTP status
type Error struct {
	Code    int
	Message string
}

// HandlerFunc handles a request and returns the payload for the success envelope
type HandlerFunc func(ctx *gin.Context) (any, *Error)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// resolve adapts a HandlerFunc to gin, wrapping its result in the response envelope
func resolve(status int, h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, envelope{Success: false, Error: apiErr.Message})
			return
		}
		ctx.JSON(status, envelope{Success: true, Data: result})
	}
}

// fromError maps service errors onto HTTP statuses.
// Unexpected errors are logged and hidden from the caller.
func fromError(logger *zap.Logger, ctx *gin.Context, err error) *Error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return &Error{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, services.ErrInvalidInput):
		return &Error{Code: http.StatusBadRequest, Message: err.Error()}
	default:
		logger.Error("Request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Error(err))
		return &Error{Code: http.StatusInternalServerError, Message: "internal error"}
	}
}

func badRequest(err error) *Error {
	return &Error{Code: http.StatusBadRequest, Message: err.Error()}
}
