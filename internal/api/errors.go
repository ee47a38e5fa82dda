// internal/api/errors.go
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"nutripal/internal/accounts"
	"nutripal/internal/app"
	"nutripal/internal/coach"
	"nutripal/internal/models"
)

// AppError is an error with the HTTP status and the message shown to the
// client.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func BadRequestError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

func UnauthorizedError(message string, err error) *AppError {
	return NewAppError(http.StatusUnauthorized, message, err)
}

func ForbiddenError(message string, err error) *AppError {
	return NewAppError(http.StatusForbidden, message, err)
}

func NotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

func InternalServerError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

var errorCodes = []struct {
	err  error
	code int
}{
	{accounts.ErrInvalidCredentials, http.StatusUnauthorized},
	{accounts.ErrInvalidAdmin, http.StatusUnauthorized},
	{accounts.ErrAdminAsUser, http.StatusUnauthorized},
	{app.ErrNotLoggedIn, http.StatusUnauthorized},
	{app.ErrForbidden, http.StatusForbidden},
	{accounts.ErrNotFound, http.StatusNotFound},
	{accounts.ErrEmailTaken, http.StatusConflict},
	{app.ErrRequestInFlight, http.StatusConflict},
	{accounts.ErrMissingFields, http.StatusBadRequest},
	{accounts.ErrPasswordMismatch, http.StatusBadRequest},
	{accounts.ErrPasswordTooShort, http.StatusBadRequest},
	{accounts.ErrPasswordNoUppercase, http.StatusBadRequest},
	{accounts.ErrPasswordNoDigit, http.StatusBadRequest},
	{accounts.ErrPasswordNoSymbol, http.StatusBadRequest},
	{accounts.ErrUnknownRole, http.StatusBadRequest},
	{accounts.ErrCannotDeleteSelf, http.StatusBadRequest},
	{accounts.ErrCannotDeleteAdmin, http.StatusBadRequest},
	{app.ErrEmptyMessage, http.StatusBadRequest},
	{app.ErrUnknownView, http.StatusBadRequest},
	{coach.ErrInvalidImage, http.StatusBadRequest},
}

// toAppError maps domain errors to their status. The sentinel's own text is
// the client message; anything unknown becomes a 500.
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return NewAppError(e.code, e.err.Error(), err)
		}
	}
	if errors.Is(err, models.ErrInvalidSettings) {
		return BadRequestError(err.Error(), err)
	}
	return InternalServerError("Something went wrong. Please try again.", err)
}

// abort records err for errorHandler and stops the chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(toAppError(err))
	c.Abort()
}

// errorHandler renders the last recorded error as {"success": false, "error": msg}.
func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := toAppError(c.Errors.Last().Err)
		if appErr.Code >= http.StatusInternalServerError {
			log.Error("request failed", "path", c.FullPath(), "error", appErr)
		} else {
			log.Debug("request rejected", "path", c.FullPath(), "status", appErr.Code, "error", appErr.Message)
		}
		c.JSON(appErr.Code, gin.H{"success": false, "error": appErr.Message})
	}
}
