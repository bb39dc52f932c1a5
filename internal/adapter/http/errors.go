package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/neomorfeo/rentiq/internal/domain"
	"github.com/neomorfeo/rentiq/internal/logging"
)

// APIError is the body of every error response.
type APIError struct {
	Status  int    `json:"status" doc:"HTTP status code"`
	Code    string `json:"code" doc:"Stable error code"`
	Message string `json:"message" doc:"Human readable explanation"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.Status }

func init() {
	// Errors raised by huma itself (bad input, unauthenticated) share the
	// body of domain errors.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		details := make([]string, 0, len(errs))
		for _, err := range errs {
			if err != nil {
				details = append(details, err.Error())
			}
		}
		if len(details) > 0 {
			msg += ": " + strings.Join(details, "; ")
		}
		return &APIError{Status: status, Code: codeForStatus(status), Message: msg}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "NOT_AUTHORIZED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "INVALID_REQUEST"
	}
	if status >= http.StatusInternalServerError {
		return "UNCATEGORIZED_EXCEPTION"
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

var kindStatus = map[domain.Kind]int{
	domain.KindNotFound:         http.StatusNotFound,
	domain.KindConflict:         http.StatusConflict,
	domain.KindForbidden:        http.StatusForbidden,
	domain.KindValidationFailed: http.StatusUnprocessableEntity,
	domain.KindUnauthenticated:  http.StatusUnauthorized,
	domain.KindIOFailure:        http.StatusInternalServerError,
	domain.KindInternal:         http.StatusInternalServerError,
}

// toAPIError translates domain errors to API errors. The full error chain
// is only logged; clients get the code and a fixed message.
func toAPIError(ctx context.Context, err error) error {
	kind := domain.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	log := logging.FromContext(ctx, zap.L())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("kind", string(kind)), zap.Error(err))
	} else {
		log.Info("request rejected", zap.String("kind", string(kind)), zap.Error(err))
	}

	return &APIError{Status: status, Code: domain.Code(err), Message: domain.Message(err)}
}
