package http

import (
	"net/http"

	scoreuc "lending-marketplace/internal/usecase/score"

	"github.com/labstack/echo/v4"
)

type ScoreHandler struct{ svc *scoreuc.Service }

func NewScoreHandler(svc *scoreuc.Service) *ScoreHandler { return &ScoreHandler{svc: svc} }

func (h *ScoreHandler) Calculate(c echo.Context) error {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return badID(c, "user_id")
	}
	cs, err := h.svc.Calculate(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *ScoreHandler) RecalculateAll(c echo.Context) error {
	out, err := h.svc.RecalculateAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"updated": len(out),
		"scores":  out,
	})
}

func (h *ScoreHandler) Get(c echo.Context) error {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return badID(c, "user_id")
	}
	cs, err := h.svc.Get(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cs)
}
