package apierrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cartz/cartz-backend/internal/logger"
)

// Error is an application error carrying the HTTP status it should be
// reported with.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

// InsufficientStock reports a stock shortfall for a named product.
func InsufficientStock(productName string) *Error {
	return New(http.StatusBadRequest, fmt.Sprintf("insufficient stock for product: %s", productName), nil)
}

// InvalidTransition reports a disallowed order status change.
func InvalidTransition(from, to string) *Error {
	return New(http.StatusConflict, fmt.Sprintf("cannot change order status from %s to %s", from, to), nil)
}

// OutOfStock reports a failed availability pre-flight check.
func OutOfStock(message string) *Error {
	return New(http.StatusConflict, message, nil)
}

func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// production controls whether internal error details are surfaced to
// clients. Set once at startup.
var production bool

func SetProduction(p bool) {
	production = p
}

// Respond writes err to the client using the standard
// {success, message} envelope. Taxonomy errors keep their status and
// message; anything else becomes a generic 500 with the underlying
// cause logged (and surfaced only outside production).
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		body := gin.H{"success": false, "message": appErr.Message}
		if appErr.Code >= http.StatusInternalServerError {
			logger.Log.Error("request failed", zap.Error(appErr))
			if !production && appErr.Err != nil {
				body["message"] = appErr.Error()
			}
		}
		c.JSON(appErr.Code, body)
		return
	}

	logger.Log.Error("unexpected error", zap.Error(err))
	message := "Internal server error"
	if !production {
		message = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": message})
}
