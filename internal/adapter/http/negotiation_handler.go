package http

import (
	"encoding/json"
	"net/http"

	mw "lending-marketplace/internal/adapter/middleware"
	"lending-marketplace/internal/domain/negotiation"
	negotiationuc "lending-marketplace/internal/usecase/negotiation"

	"github.com/labstack/echo/v4"
)

type NegotiationHandler struct{ sm *negotiationuc.StateMachine }

func NewNegotiationHandler(sm *negotiationuc.StateMachine) *NegotiationHandler {
	return &NegotiationHandler{sm: sm}
}

// Update applies a partial change. The body is decoded as a plain object
// so that unknown keys can be refused and null can mean "absent". With
// auth on, only a recorded party may update.
func (h *NegotiationHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	var fields map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	p, err := negotiation.ParsePatch(fields)
	if err != nil {
		return writeError(c, err)
	}
	var n *negotiation.Negotiation
	if actorID, ok := mw.AuthUserID(c); ok {
		n, err = h.sm.UpdateAs(c.Request().Context(), id, actorID, p)
	} else {
		n, err = h.sm.Update(c.Request().Context(), id, p)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *NegotiationHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	n, err := h.sm.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *NegotiationHandler) List(c echo.Context) error {
	status := negotiation.Status(c.QueryParam("status"))
	out, err := h.sm.List(c.Request().Context(), status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NegotiationHandler) ListByBorrower(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	status := negotiation.Status(c.QueryParam("status"))
	out, err := h.sm.ListByBorrower(c.Request().Context(), id, status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NegotiationHandler) ListByLender(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	status := negotiation.Status(c.QueryParam("status"))
	out, err := h.sm.ListByLender(c.Request().Context(), id, status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
