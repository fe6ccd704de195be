package rate

import (
	"context"
	"fmt"

	"lending-marketplace/internal/domain/apperr"
	"lending-marketplace/internal/domain/proposal"
	"lending-marketplace/internal/domain/score"

	"github.com/sirupsen/logrus"
)

// DefaultMarket is used when a cohort has no accepted history.
var DefaultMarket = proposal.RateRange{Min: 10, Max: 30}

// BandCache memoizes market bands per cohort.
type BandCache interface {
	GetBand(ctx context.Context, key string) (proposal.RateRange, bool, error)
	SetBand(ctx context.Context, key string, band proposal.RateRange) error
}

type Input struct {
	UserID      uint64        `json:"user_id"`
	Principal   float64       `json:"principal"`
	TermMonths  int           `json:"term_months"`
	CreditScore int           `json:"credit_score"`
	Role        proposal.Role `json:"role"`
}

type Recommendation struct {
	SuggestedRange   string     `json:"suggested_range"`
	MarketRange      [2]float64 `json:"market_range"`
	Message          string     `json:"message"`
	UserHistoryRange *string    `json:"user_history_range"`
}

type Recommender struct {
	store proposal.HistoryStore
	cache BandCache
}

// NewRecommender accepts a nil cache.
func NewRecommender(store proposal.HistoryStore, cache BandCache) *Recommender {
	return &Recommender{store: store, cache: cache}
}

// Cohort buckets a credit score; the first matching band wins.
func Cohort(creditScore int) (lo, hi int) {
	switch {
	case creditScore >= 800:
		return 800, 1000
	case creditScore >= 500:
		return 500, 799
	default:
		return 0, 499
	}
}

func (r *Recommender) Recommend(ctx context.Context, in Input) (*Recommendation, error) {
	if in.Principal <= 0 {
		return nil, apperr.Validation("principal must be positive")
	}
	if in.TermMonths < 0 {
		return nil, apperr.Validation("term_months must be non-negative")
	}
	if in.CreditScore < score.Min || in.CreditScore > score.Max {
		return nil, apperr.Validation("credit_score must be within %d..%d", score.Min, score.Max)
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("role must be borrower or lender")
	}

	market, err := r.marketBand(ctx, in.CreditScore)
	if err != nil {
		return nil, err
	}
	samples, err := r.store.UserSamples(ctx, in.UserID, in.Role)
	if err != nil {
		return nil, err
	}
	personal, ok := PersonalBand(samples, in.Principal, in.TermMonths)

	out := &Recommendation{
		MarketRange: [2]float64{market.Min, market.Max},
	}
	if !ok {
		out.SuggestedRange = market.String()
		out.Message = "Suggested band reflects the market for your score cohort."
		return out, nil
	}
	h := personal.String()
	out.UserHistoryRange = &h
	out.SuggestedRange = Blend(personal, market).String()
	out.Message = "Suggested band blends your history with the market."
	return out, nil
}

func (r *Recommender) marketBand(ctx context.Context, creditScore int) (proposal.RateRange, error) {
	lo, hi := Cohort(creditScore)
	key := fmt.Sprintf("rate:band:%d-%d", lo, hi)
	if r.cache != nil {
		band, hit, err := r.cache.GetBand(ctx, key)
		if err != nil {
			logrus.WithError(err).WithField("key", key).Warn("band cache read failed")
		} else if hit {
			return band, nil
		}
	}

	ranges, err := r.store.CohortRanges(ctx, lo, hi)
	if err != nil {
		return proposal.RateRange{}, err
	}
	band := MarketBand(ranges)

	if r.cache != nil {
		if err := r.cache.SetBand(ctx, key, band); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("band cache write failed")
		}
	}
	return band, nil
}

// MarketBand is [min of lower bounds, max of upper bounds]; unparseable
// ranges are skipped and an empty history yields DefaultMarket.
func MarketBand(ranges []string) proposal.RateRange {
	var band proposal.RateRange
	seen := false
	for _, s := range ranges {
		r, err := proposal.ParseRateRange(s)
		if err != nil {
			continue
		}
		if !seen {
			band, seen = r, true
			continue
		}
		band.Min = min(band.Min, r.Min)
		band.Max = max(band.Max, r.Max)
	}
	if !seen {
		return DefaultMarket
	}
	return band
}

// PersonalBand is the distance-weighted mean of the user's past ranges,
// weight 1/(1 + |Δprincipal|/principal + |Δterm|/term). ok is false when
// there is no usable sample.
func PersonalBand(samples []proposal.RateSample, principal float64, term int) (band proposal.RateRange, ok bool) {
	termDen := float64(term)
	if term == 0 {
		termDen = 1
	}

	var minSum, maxSum, weightSum, plainMin, plainMax float64
	n := 0
	for _, s := range samples {
		r, err := proposal.ParseRateRange(s.RateRange)
		if err != nil {
			continue
		}
		d := abs(s.Principal-principal)/principal + abs(float64(s.TermMonths-term))/termDen
		w := 1 / (1 + d)
		minSum += r.Min * w
		maxSum += r.Max * w
		weightSum += w
		plainMin += r.Min
		plainMax += r.Max
		n++
	}
	switch {
	case weightSum > 0:
		return proposal.RateRange{
			Min: proposal.Round2(minSum / weightSum),
			Max: proposal.Round2(maxSum / weightSum),
		}, true
	case n > 0:
		return proposal.RateRange{
			Min: proposal.Round2(plainMin / float64(n)),
			Max: proposal.Round2(plainMax / float64(n)),
		}, true
	}
	return proposal.RateRange{}, false
}

// Blend averages personal and market bounds element-wise.
func Blend(personal, market proposal.RateRange) proposal.RateRange {
	return proposal.RateRange{
		Min: proposal.Round2(0.5*personal.Min + 0.5*market.Min),
		Max: proposal.Round2(0.5*personal.Max + 0.5*market.Max),
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
