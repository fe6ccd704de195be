package creditmodel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lending-marketplace/internal/infrastructure/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogistic_OrdersRisk(t *testing.T) {
	ctx := context.Background()
	clean := map[string]float64{
		"tenure_months": 36, "loans_contracted": 10, "loans_settled": 10,
		"loans_defaulted": 0, "default_rate": 0, "avg_rate_paid": 11, "monthly_income": 9000,
	}
	risky := map[string]float64{
		"tenure_months": 3, "loans_contracted": 6, "loans_settled": 2,
		"loans_defaulted": 4, "default_rate": 0.66, "avg_rate_paid": 22, "monthly_income": 2000,
	}
	pc, err := DefaultLogistic.PredictDefaultProbability(ctx, clean)
	require.NoError(t, err)
	pr, err := DefaultLogistic.PredictDefaultProbability(ctx, risky)
	require.NoError(t, err)

	assert.Less(t, pc, 0.2)
	assert.Greater(t, pr, 0.8)

	empty, err := DefaultLogistic.PredictDefaultProbability(ctx, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.401, empty, 0.001)
}

func TestClient_PredictDefaultProbability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		_, _ = w.Write([]byte(`{"default_probability": 0.125}`))
	}))
	defer srv.Close()

	p, err := NewClient(upstream.Config{BaseURL: srv.URL}).PredictDefaultProbability(context.Background(), map[string]float64{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, 0.125, p)
}
