// Package user exposes marketplace participants with personal data masked.
package user

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode"

	"lending-marketplace/internal/domain/account"
	"lending-marketplace/internal/domain/loan"
)

type UserDTO struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Balance        float64   `json:"balance"`
	MaskedDocument *string   `json:"masked_document"`
	MaskedPhone    *string   `json:"masked_phone"`
	Initials       string    `json:"initials"`
	CreatedAt      time.Time `json:"created_at"`
}

type InvestorMetrics struct {
	UserID        uint64  `json:"user_id"`
	TotalInvested float64 `json:"total_invested"`
	ActiveLoans   int     `json:"active_loans"`
	SettledLoans  int     `json:"settled_loans"`
	DefaultLoans  int     `json:"default_loans"`
	AverageRate   float64 `json:"average_rate"`
}

type Service struct {
	users account.Repository
	loans loan.Repository
}

func NewService(users account.Repository, loans loan.Repository) *Service {
	return &Service{users: users, loans: loans}
}

func (s *Service) List(ctx context.Context) ([]UserDTO, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, toDTO(&users[i]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID uint64) (*UserDTO, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(u)
	return &dto, nil
}

// InvestorMetrics aggregates the loans where userID is the lender.
func (s *Service) InvestorMetrics(ctx context.Context, userID uint64) (*InvestorMetrics, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	loans, err := s.loans.List(ctx, loan.Filter{LenderID: userID})
	if err != nil {
		return nil, err
	}
	m := &InvestorMetrics{UserID: userID}
	var rateSum float64
	for _, l := range loans {
		m.TotalInvested += l.Principal
		rateSum += l.Rate
		switch l.Status {
		case loan.StatusActive:
			m.ActiveLoans++
		case loan.StatusSettled:
			m.SettledLoans++
		case loan.StatusDefault:
			m.DefaultLoans++
		}
	}
	if len(loans) > 0 {
		m.AverageRate = round2(rateSum / float64(len(loans)))
	}
	m.TotalInvested = round2(m.TotalInvested)
	return m, nil
}

func toDTO(u *account.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Balance:        u.Balance,
		MaskedDocument: MaskDocument(u.Document),
		MaskedPhone:    MaskPhone(u.Phone),
		Initials:       Initials(u.Name),
		CreatedAt:      u.CreatedAt,
	}
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskDocument keeps digits 4-6 and the check digits of an 11-digit CPF.
func MaskDocument(doc string) *string {
	if doc == "" {
		return nil
	}
	d := digits(doc)
	out := "***.***.***-**"
	if len(d) == 11 {
		out = "***." + d[3:6] + ".***-" + d[9:]
	}
	return &out
}

// MaskPhone keeps the last four digits.
func MaskPhone(phone string) *string {
	if phone == "" {
		return nil
	}
	d := digits(phone)
	out := "***"
	if len(d) >= 4 {
		out = "(**) *****-" + d[len(d)-4:]
	}
	return &out
}

// Initials is first and last initial, upper-cased; "?" for a blank name.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "?"
	case 1:
		return strings.ToUpper(firstRune(parts[0]))
	}
	return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[len(parts)-1]))
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
