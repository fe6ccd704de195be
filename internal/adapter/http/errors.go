package http

import (
	"errors"
	"net/http"

	mw "lending-marketplace/internal/adapter/middleware"
	"lending-marketplace/internal/domain/apperr"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrConflictState):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":       c.Path(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).WithError(err).Error("unhandled error")
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

// bindAndValidate decodes the body into req and runs the validator. When
// ok is false the response has been written and err is the write result.
func bindAndValidate(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// checkActor refuses a body actor that differs from the token's user.
// Without auth middleware every actor is accepted.
func checkActor(c echo.Context, actorID uint64) (ok bool, err error) {
	if id, auth := mw.AuthUserID(c); auth && id != actorID {
		return false, c.JSON(http.StatusForbidden, ErrorResponse{Error: "actor does not match the authenticated user"})
	}
	return true, nil
}
