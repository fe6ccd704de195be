// Package creditmodel predicts the probability of default from the
// borrower features built by the score service.
package creditmodel

import (
	"context"
	"fmt"
	"math"

	"lending-marketplace/internal/infrastructure/upstream"
)

type Client struct{ up *upstream.Client }

func NewClient(cfg upstream.Config) *Client {
	return &Client{up: upstream.New("credit-model", cfg)}
}

type predictResponse struct {
	DefaultProbability *float64 `json:"default_probability"`
}

func (c *Client) PredictDefaultProbability(ctx context.Context, features map[string]float64) (float64, error) {
	var out predictResponse
	if err := c.up.PostJSON(ctx, "/predict", map[string]any{"features": features}, &out); err != nil {
		return 0, err
	}
	if out.DefaultProbability == nil {
		return 0, fmt.Errorf("model reply has no default_probability")
	}
	return *out.DefaultProbability, nil
}

// Logistic is an offline logistic regression over standardized features.
// Missing features count as their mean.
type Logistic struct {
	Intercept float64
	Weights   map[string]Coef
}

type Coef struct {
	Mean, Std, Weight float64
}

// DefaultLogistic is calibrated so a clean history scores well above a
// history with defaults.
var DefaultLogistic = Logistic{
	Intercept: -0.4,
	Weights: map[string]Coef{
		"tenure_months":    {Mean: 18, Std: 12, Weight: -0.6},
		"loans_contracted": {Mean: 6, Std: 5, Weight: -0.2},
		"loans_settled":    {Mean: 5, Std: 5, Weight: -0.7},
		"loans_defaulted":  {Mean: 0.5, Std: 1, Weight: 1.1},
		"default_rate":     {Mean: 0.1, Std: 0.2, Weight: 1.4},
		"avg_rate_paid":    {Mean: 15, Std: 4, Weight: 0.8},
		"avg_term_months":  {Mean: 12, Std: 6, Weight: 0.1},
		"monthly_income":   {Mean: 5000, Std: 3000, Weight: -0.5},
		"facial_score":     {Mean: 0.8, Std: 0.2, Weight: -0.2},
	},
}

func (m Logistic) PredictDefaultProbability(_ context.Context, features map[string]float64) (float64, error) {
	z := m.Intercept
	for name, c := range m.Weights {
		v, ok := features[name]
		if !ok || math.IsNaN(v) || c.Std == 0 {
			continue
		}
		z += c.Weight * (v - c.Mean) / c.Std
	}
	return 1 / (1 + math.Exp(-z)), nil
}
