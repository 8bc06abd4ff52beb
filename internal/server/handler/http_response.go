package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/rupeeflow/bbps-backend/internal/domain/transaction"
	"github.com/rupeeflow/bbps-backend/internal/domain/user"
	"github.com/rupeeflow/bbps-backend/internal/domain/wallet"
	"github.com/rupeeflow/bbps-backend/internal/server/middleware"
)

// Response is the standard API envelope.
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Message       string      `json:"message,omitempty"`
	Duplicate     bool        `json:"duplicate,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo carries the stable error code and a caller-facing message.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, &Response{
		Data:          data,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondBadRequest sends a 400 with a VALIDATION_ERROR code
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, &Response{
		Error:         &ErrorInfo{Code: string(shared.CodeValidation), Message: message},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondError maps a core error onto the HTTP status dictated by its
// taxonomy code. Internal failures never leak their message to callers.
func RespondError(c *gin.Context, err error) {
	code := classify(err)

	message := err.Error()
	var typed *shared.Error
	if errors.As(err, &typed) {
		message = typed.Message
	}
	if code == shared.CodeInternal {
		message = "An internal server error occurred"
	}

	c.JSON(statusFor(code), &Response{
		Error:         &ErrorInfo{Code: string(code), Message: message},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// classify folds the domain sentinels into the shared taxonomy so
// repository errors surface with a meaningful status.
func classify(err error) shared.ErrorCode {
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound{}),
		errors.Is(err, transaction.ErrTransactionNotFound{}),
		errors.Is(err, user.ErrUserNotFound{}):
		return shared.CodeNotFound
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return shared.CodeInsufficientFunds
	case errors.Is(err, wallet.ErrInvalidAmount):
		return shared.CodeValidation
	}
	return shared.CodeOf(err)
}

func statusFor(code shared.ErrorCode) int {
	switch code {
	case shared.CodeValidation:
		return http.StatusBadRequest
	case shared.CodeNotFound:
		return http.StatusNotFound
	case shared.CodeConflict, shared.CodeDuplicateRequest:
		return http.StatusConflict
	case shared.CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case shared.CodeRateLimited:
		return http.StatusTooManyRequests
	case shared.CodeProviderDeclined:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
