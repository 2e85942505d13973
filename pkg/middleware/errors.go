// Package middleware holds the echo middleware shared by every route.
package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "ComplaintDesk/internal/pkg/errors"
	"ComplaintDesk/internal/pkg/logger"
)

type errorBody struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	FieldErrors []apperrors.FieldError `json:"field_errors,omitempty"`
}

// HTTPErrorHandler renders every error returned by a handler as JSON.
// AppErrors keep their code and status, echo errors keep their status, and
// anything else becomes a generic 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := http.StatusInternalServerError, errorBody{
		Code:    apperrors.CodeInternal,
		Message: "internal server error",
	}

	var appErr *apperrors.AppError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status()
		body = errorBody{Code: appErr.Code, Message: appErr.Message, FieldErrors: appErr.Fields}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("code", appErr.Code),
				zap.String("path", c.Path()),
				zap.Error(appErr.Err),
			)
		} else {
			logger.Debug("request rejected",
				zap.String("code", appErr.Code),
				zap.Int("status", status),
			)
		}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body = errorBody{Code: codeForStatus(status), Message: http.StatusText(status)}
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			body.Message = msg
		}
	default:
		logger.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		logger.Warn("error response not written", zap.Error(werr))
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusUnauthorized:
		return apperrors.CodeTokenInvalid
	case http.StatusForbidden:
		return apperrors.CodeAccessDenied
	case http.StatusBadRequest:
		return apperrors.CodeValidationFailed
	}
	if status >= http.StatusInternalServerError {
		return apperrors.CodeInternal
	}
	return "HTTP_ERROR"
}
