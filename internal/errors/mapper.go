// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Map converts repo/infra errors into domain errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case KindOf(err) != 0:
		return err

	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(KindNotFound, "record not found", err)

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(KindConflict, "record already exists", err)

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return err

	default:
		return err
	}
}

// HTTPStatus translates an error into the status code the transport
// layer should respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindState:
		return http.StatusConflict
	case KindPrecondition:
		return http.StatusUnprocessableEntity
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}
