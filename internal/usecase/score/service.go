package score

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"lending-marketplace/internal/domain/account"
	"lending-marketplace/internal/domain/apperr"
	"lending-marketplace/internal/domain/loan"
	"lending-marketplace/internal/domain/score"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Bureau is the external credit bureau.
type Bureau interface {
	ExternalScore(ctx context.Context, document string) (int, error)
}

// Model is the statistical default-probability model.
type Model interface {
	PredictDefaultProbability(ctx context.Context, features map[string]float64) (float64, error)
}

// secondsPerMonth is 30.4375 days.
const secondsPerMonth = 2629800

type Service struct {
	users  account.Repository
	loans  loan.Repository
	scores score.Repository
	bureau Bureau
	model  Model
	now    func() time.Time
}

func NewService(users account.Repository, loans loan.Repository, scores score.Repository, bureau Bureau, model Model) *Service {
	return &Service{
		users:  users,
		loans:  loans,
		scores: scores,
		bureau: bureau,
		model:  model,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock; for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TenureMonths is the time since createdAt in 30.4375-day months.
func TenureMonths(createdAt, now time.Time) float64 {
	secs := now.Sub(createdAt).Seconds()
	if secs < 0 {
		return 0
	}
	return secs / secondsPerMonth
}

// BureauWeight decays the bureau's share with tenure, floored at 0.1.
func BureauWeight(tenureMonths float64) float64 {
	return math.Max(0.1, 0.4*math.Pow(0.95, tenureMonths))
}

// Blend combines model and bureau scores, truncating toward zero.
func Blend(modelScore, bureauScore int, tenureMonths float64) int {
	w := BureauWeight(tenureMonths)
	return int(float64(modelScore)*(1-w) + float64(bureauScore)*w)
}

// ScoreFromProbability maps a default probability to 0..1000.
func ScoreFromProbability(p float64) int {
	return int(math.Round(1000 * (1 - p)))
}

// Calculate recomputes and stores the blended score of userID.
func (s *Service) Calculate(ctx context.Context, userID uint64) (*score.CreditScore, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	tenure := TenureMonths(u.CreatedAt, now)

	features, err := s.features(ctx, u, tenure)
	if err != nil {
		return nil, err
	}
	p, err := s.model.PredictDefaultProbability(ctx, features)
	if err != nil {
		return nil, apperr.Upstream("credit model", err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, apperr.Upstream("credit model", fmt.Errorf("probability %v out of range", p))
	}
	modelScore := ScoreFromProbability(p)

	bureauScore, err := s.bureau.ExternalScore(ctx, u.Document)
	if err != nil {
		return nil, apperr.Upstream("credit bureau", err)
	}

	w := BureauWeight(tenure)
	analysis, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	cs := &score.CreditScore{
		UserID:             u.ID,
		Score:              Blend(modelScore, bureauScore, tenure),
		ModelScore:         modelScore,
		BureauScore:        bureauScore,
		DefaultProbability: p,
		BureauWeight:       w,
		Analysis:           datatypes.JSON(analysis),
		UpdatedAt:          now,
	}
	if err := s.scores.Upsert(ctx, cs); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":      u.ID,
		"score":        cs.Score,
		"model_score":  modelScore,
		"bureau_score": bureauScore,
		"weight":       w,
	}).Info("credit score calculated")
	return cs, nil
}

// RecalculateAll scores every user, stopping at the first failure.
func (s *Service) RecalculateAll(ctx context.Context) ([]score.CreditScore, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]score.CreditScore, 0, len(users))
	for _, u := range users {
		cs, err := s.Calculate(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *cs)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID uint64) (*score.CreditScore, error) {
	return s.scores.GetByUserID(ctx, userID)
}

func (s *Service) features(ctx context.Context, u *account.User, tenure float64) (map[string]float64, error) {
	loans, err := s.loans.List(ctx, loan.Filter{BorrowerID: u.ID})
	if err != nil {
		return nil, err
	}
	var settled, defaulted int
	var rateSum, termSum float64
	for _, l := range loans {
		switch l.Status {
		case loan.StatusSettled:
			settled++
		case loan.StatusDefault:
			defaulted++
		}
		rateSum += l.Rate
		termSum += float64(l.TermMonths)
	}
	f := map[string]float64{
		"tenure_months":     tenure,
		"loans_contracted":  float64(len(loans)),
		"loans_settled":     float64(settled),
		"loans_defaulted":   float64(defaulted),
		"default_rate":      0,
		"avg_rate_paid":     0,
		"avg_term_months":   0,
		"monthly_income":    u.MonthlyIncome,
		"facial_score":      u.FacialScore,
		"available_balance": u.Balance,
	}
	if n := float64(len(loans)); n > 0 {
		f["default_rate"] = float64(defaulted) / n
		f["avg_rate_paid"] = rateSum / n
		f["avg_term_months"] = termSum / n
	}
	return f, nil
}
