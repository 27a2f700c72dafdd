package integration

import (
	"context"

	"github.com/julianstephens/drivewise/internal/cache"
	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
)

// GetFinancialAdvice returns savings, investment and insurance guidance for
// the given monthly figures.
func (l *Layer) GetFinancialAdvice(ctx context.Context, income, expenses float64, riskTolerance string) (models.FinancialAdvice, error) {
	req := models.AdviceRequest{Income: income, Expenses: expenses, RiskTolerance: riskTolerance}
	return cachedAdvice(ctx, l, "get financial advice", cache.SlotFinancial, req,
		l.backend.FinancialTips,
		func(s *State, v models.FinancialAdvice) { s.FinancialAdvice = &v })
}

// GetWellnessRecommendations returns wellness guidance for a self-assessment.
func (l *Layer) GetWellnessRecommendations(ctx context.Context, req models.WellnessRequest) (models.WellnessAdvice, error) {
	return cachedAdvice(ctx, l, "get wellness recommendations", cache.SlotWellness, req,
		l.backend.WellnessAdvice,
		func(s *State, v models.WellnessAdvice) { s.WellnessAdvice = &v })
}

// GetInvestmentAdvice returns instrument recommendations for the given figures.
func (l *Layer) GetInvestmentAdvice(ctx context.Context, income, expenses float64, riskTolerance string) (models.InvestmentAdvice, error) {
	req := models.AdviceRequest{Income: income, Expenses: expenses, RiskTolerance: riskTolerance}
	return cachedAdvice(ctx, l, "get investment advice", cache.SlotInvestment, req,
		l.backend.InvestmentAdvice,
		func(s *State, v models.InvestmentAdvice) { s.InvestmentAdvice = v })
}

// cachedAdvice serves slot from cache when it is fresh and was fetched for
// the same request, otherwise calls fetch and replaces the slot.
func cachedAdvice[Req, T any](
	ctx context.Context,
	l *Layer,
	op string,
	slot cache.Slot,
	req Req,
	fetch func(context.Context, Req) (T, error),
	publish func(*State, T),
) (T, error) {
	var zero T
	g := l.guard(nil)
	if err := l.requireAuth(op); err != nil {
		return zero, err
	}

	key, err := cache.Key(req)
	if err != nil {
		logger.Warn("Caching disabled for request", "op", op, "error", err)
	}
	if err == nil && l.cache.IsValidKeyed(slot, key, l.ttl) {
		if cached, ok := cache.Lookup[T](l.cache, slot); ok {
			logger.Debug("Serving advice from cache", "op", op)
			l.commit(g, func(s *State) { publish(s, cached) })
			return cached, nil
		}
	}

	done := l.begin()
	defer done()

	advice, err := fetch(ctx, req)
	if err != nil {
		return zero, l.failIn(g, op, err)
	}
	if !l.commit(g, func(s *State) {
		if key != "" {
			l.cache.SetKeyed(slot, key, advice)
		}
		publish(s, advice)
	}) {
		logger.Debug("Dropping advice of ended session", "op", op)
		return zero, apperrors.ErrDiscarded
	}
	return advice, nil
}
