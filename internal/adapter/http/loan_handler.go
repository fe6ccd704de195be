package http

import (
	"net/http"

	"lending-marketplace/internal/domain/loan"
	loanuc "lending-marketplace/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loanuc.Usecase }

func NewLoanHandler(uc *loanuc.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, ok := pathID(c, "loan_id")
	if !ok {
		return badID(c, "loan_id")
	}
	l, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) GetByNegotiation(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	l, err := h.uc.GetByNegotiation(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	var f loan.Filter
	err := echo.QueryParamsBinder(c).
		Uint64("borrower_id", &f.BorrowerID).
		Uint64("lender_id", &f.LenderID).
		BindError()
	if err != nil {
		return badQuery(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
