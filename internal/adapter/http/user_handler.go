package http

import (
	"net/http"

	useruc "lending-marketplace/internal/usecase/user"

	"github.com/labstack/echo/v4"
)

type UserHandler struct{ svc *useruc.Service }

func NewUserHandler(svc *useruc.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) List(c echo.Context) error {
	out, err := h.svc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) InvestorMetrics(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	m, err := h.svc.InvestorMetrics(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
