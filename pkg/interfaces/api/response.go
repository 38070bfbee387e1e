package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/newwavedigital/ERP-sub000/pkg/application/services/orchestration"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/remediation"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/rpc"
)

// Response is the envelope for every JSON response
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created writes a 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

// Error writes an error response. code is the HTTP status times 100 plus a detail.
func Error(c *gin.Context, code int, message string, data interface{}) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = http.StatusInternalServerError
	}
	c.JSON(statusCode, Response{Code: code, Message: message, Data: data})
}

// BadRequest writes a 400 response
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message, nil)
}

// NotFound writes a 404 response
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message, nil)
}

// InternalError writes a 500 response
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message, nil)
}

// Fail maps a service error onto a response. data is attached when present,
// so partial results such as trigger outcomes still reach the caller.
func Fail(c *gin.Context, err error, data interface{}) {
	var rpcErr *rpc.Error
	switch {
	case errors.Is(err, orchestration.ErrNoAllocationGateway):
		Error(c, 50300, err.Error(), data)
	case errors.Is(err, repositories.ErrNotFound):
		Error(c, 40400, err.Error(), data)
	case errors.Is(err, remediation.ErrLineOutOfRange):
		Error(c, 40001, err.Error(), data)
	case errors.Is(err, remediation.ErrIncompleteSession):
		Error(c, 42200, err.Error(), data)
	case errors.Is(err, remediation.ErrAlreadySubmitted):
		Error(c, 40901, err.Error(), data)
	case errors.Is(err, remediation.ErrSessionClosed):
		Error(c, 40902, err.Error(), data)
	case errors.Is(err, remediation.ErrSessionBusy):
		Error(c, 40903, err.Error(), data)
	case errors.Is(err, repositories.ErrVersionConflict):
		Error(c, 40904, err.Error(), data)
	case errors.Is(err, remediation.ErrNoGateway):
		Error(c, 50301, err.Error(), data)
	case errors.Is(err, remediation.ErrTriggerFailed):
		Error(c, 50201, err.Error(), data)
	case errors.As(err, &rpcErr):
		Error(c, 50200, err.Error(), data)
	default:
		Error(c, 50000, err.Error(), data)
	}
}
