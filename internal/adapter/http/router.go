package http

import "github.com/labstack/echo/v4"

type Handlers struct {
	Health       *Handler
	Negotiations *NegotiationHandler
	Proposals    *ProposalHandler
	Scores       *ScoreHandler
	Rates        *RateHandler
	Users        *UserHandler
	Loans        *LoanHandler
}

// RegisterRoutes mounts every endpoint on e. The write middlewares wrap
// the mutating routes only.
func RegisterRoutes(e *echo.Echo, h Handlers, write ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	e.GET("/negotiations", h.Negotiations.List)
	e.GET("/negotiations/:id", h.Negotiations.Get)
	e.GET("/negotiations/:id/loan", h.Loans.GetByNegotiation)
	e.GET("/negotiations/borrower/:id", h.Negotiations.ListByBorrower)
	e.GET("/negotiations/lender/:id", h.Negotiations.ListByLender)
	e.PUT("/negotiations/:id", h.Negotiations.Update, write...)

	e.GET("/proposals", h.Proposals.List)
	e.GET("/proposals/:id", h.Proposals.Get)
	e.GET("/proposals/recommended/:user_id", h.Proposals.Recommended)
	e.POST("/proposals", h.Proposals.Submit, write...)
	e.POST("/proposals/:id/start-negotiation", h.Proposals.StartNegotiation, write...)
	e.POST("/proposals/:id/accept", h.Proposals.Accept, write...)
	e.POST("/proposals/:id/reject", h.Proposals.Reject, write...)

	e.GET("/scores/:user_id", h.Scores.Get)
	e.POST("/scores/recalculate", h.Scores.RecalculateAll, write...)
	e.POST("/scores/:user_id", h.Scores.Calculate, write...)

	e.GET("/rates/recommendation", h.Rates.Recommend)

	e.GET("/users", h.Users.List)
	e.GET("/users/:id", h.Users.Get)
	e.GET("/users/:id/investor-metrics", h.Users.InvestorMetrics)

	e.GET("/loans", h.Loans.ListLoans)
	e.GET("/loans/:loan_id", h.Loans.GetLoan)
}
