package http

import (
	"context"
	"net/http"
	"strconv"

	"lending-marketplace/internal/domain/negotiation"
	"lending-marketplace/internal/domain/proposal"
	proposaluc "lending-marketplace/internal/usecase/proposal"

	"github.com/labstack/echo/v4"
)

type ProposalHandler struct{ lc *proposaluc.Lifecycle }

func NewProposalHandler(lc *proposaluc.Lifecycle) *ProposalHandler {
	return &ProposalHandler{lc: lc}
}

type submitProposalReq struct {
	NegotiationID      *uint64  `json:"negotiation_id" validate:"omitempty,gt=0"`
	CounterpartID      *uint64  `json:"counterpart_id" validate:"omitempty,gt=0"`
	AuthorID           uint64   `json:"author_id" validate:"required,gt=0"`
	AuthorRole         string   `json:"author_role" validate:"role"`
	AnalyzedRateRange  string   `json:"analyzed_rate_range" validate:"omitempty,raterange"`
	SuggestedRateRange string   `json:"suggested_rate_range" validate:"required,raterange"`
	TermMonths         int      `json:"term_months" validate:"gt=0"`
	Kind               string   `json:"kind" validate:"omitempty,max=50"`
	Principal          *float64 `json:"principal" validate:"omitempty,gt=0,dec2"`
	Installment        *float64 `json:"installment" validate:"omitempty,gt=0,dec2"`
	Justification      *string  `json:"justification" validate:"omitempty,max=255"`
}

type actorReq struct {
	UserID uint64 `json:"user_id" validate:"required,gt=0"`
	Role   string `json:"role" validate:"role"`
}

type startNegotiationReq struct {
	BorrowerID uint64 `json:"borrower_id" validate:"required,gt=0"`
}

func (h *ProposalHandler) Submit(c echo.Context) error {
	var req submitProposalReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if ok, err := checkActor(c, req.AuthorID); !ok {
		return err
	}
	p, err := h.lc.Submit(c.Request().Context(), proposaluc.SubmitInput{
		NegotiationID:      req.NegotiationID,
		CounterpartID:      req.CounterpartID,
		AuthorID:           req.AuthorID,
		AuthorRole:         proposal.Role(req.AuthorRole),
		AnalyzedRateRange:  req.AnalyzedRateRange,
		SuggestedRateRange: req.SuggestedRateRange,
		TermMonths:         req.TermMonths,
		Kind:               req.Kind,
		Principal:          req.Principal,
		Installment:        req.Installment,
		Justification:      req.Justification,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProposalHandler) StartNegotiation(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	var req startNegotiationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if ok, err := checkActor(c, req.BorrowerID); !ok {
		return err
	}
	n, err := h.lc.StartNegotiation(c.Request().Context(), id, req.BorrowerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *ProposalHandler) Accept(c echo.Context) error {
	return h.decide(c, h.lc.Accept)
}

func (h *ProposalHandler) Reject(c echo.Context) error {
	return h.decide(c, h.lc.Reject)
}

type decision func(ctx context.Context, proposalID, actorID uint64, role proposal.Role) (*negotiation.Negotiation, error)

func (h *ProposalHandler) decide(c echo.Context, fn decision) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	var req actorReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if ok, err := checkActor(c, req.UserID); !ok {
		return err
	}
	n, err := fn(c.Request().Context(), id, req.UserID, proposal.Role(req.Role))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *ProposalHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "id")
	}
	p, err := h.lc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProposalHandler) List(c echo.Context) error {
	var negotiationID *uint64
	if s := c.QueryParam("negotiation_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation failed",
				Details: []FieldError{{Field: "negotiation_id", Message: "must be a positive integer"}},
			})
		}
		negotiationID = &id
	}
	out, err := h.lc.List(c.Request().Context(), negotiationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProposalHandler) Recommended(c echo.Context) error {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return badID(c, "user_id")
	}
	role := proposal.Role(c.QueryParam("role"))
	if role == "" {
		role = proposal.RoleLender
	}
	out, err := h.lc.Recommended(c.Request().Context(), userID, role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
