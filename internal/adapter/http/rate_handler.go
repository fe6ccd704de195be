package http

import (
	"net/http"

	"lending-marketplace/internal/domain/proposal"
	"lending-marketplace/internal/usecase/rate"

	"github.com/labstack/echo/v4"
)

type RateHandler struct{ rec *rate.Recommender }

func NewRateHandler(rec *rate.Recommender) *RateHandler { return &RateHandler{rec: rec} }

// Recommend reads its input from the query string:
// user_id, principal, term_months, credit_score and role.
func (h *RateHandler) Recommend(c echo.Context) error {
	var (
		in   rate.Input
		role string
	)
	err := echo.QueryParamsBinder(c).
		MustUint64("user_id", &in.UserID).
		MustFloat64("principal", &in.Principal).
		Int("term_months", &in.TermMonths).
		MustInt("credit_score", &in.CreditScore).
		String("role", &role).
		BindError()
	if err != nil {
		return badQuery(c, err)
	}
	in.Role = proposal.Role(role)
	if in.Role == "" {
		in.Role = proposal.RoleBorrower
	}

	out, err := h.rec.Recommend(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
