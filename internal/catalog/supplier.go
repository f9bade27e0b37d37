package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/shopspring/decimal"
)

// Volatility bounds and the thresholds that turn it into a form trend.
const (
	minVolatility  = 0.8
	volatilitySpan = 0.4
	trendUpAbove   = 1.05
	trendDownBelow = 0.95
)

// Supplier feeds catalog players to the auction engine, priced with a random
// form swing around their market value.
type Supplier struct {
	cat   *Catalog
	float func() float64
}

func NewSupplier(cat *Catalog) *Supplier {
	return &Supplier{cat: cat, float: rand.Float64}
}

func (s *Supplier) Next(ctx context.Context, f engine.Filter, exclude []string) (engine.Offer, error) {
	p, remaining, err := s.cat.Random(ctx, Query{
		Era:      f.Era,
		League:   f.League,
		Position: f.Position,
		Tier:     f.Tier,
		Clubs:    f.Clubs,
		Exclude:  exclude,
	})
	if errors.Is(err, ErrNoMatch) {
		return engine.Offer{}, fmt.Errorf("%w: %v", engine.ErrSupplyExhausted, err)
	}
	if err != nil {
		return engine.Offer{}, err
	}

	volatility := minVolatility + s.float()*volatilitySpan
	value, trend := Price(p.MarketValue, volatility)

	pos, ok := engine.ParsePosition(p.Position)
	if !ok {
		pos = engine.Position(p.Position)
	}
	return engine.Offer{
		Name:         p.Name,
		Position:     pos,
		Tier:         p.Tier,
		Club:         p.Club,
		League:       p.League,
		Era:          p.Era,
		MarketValue:  p.MarketValue,
		DynamicValue: value,
		Trend:        trend,
		Remaining:    remaining,
	}, nil
}

// Price applies a volatility factor to a market value, rounding to a whole
// number.
func Price(market decimal.Decimal, volatility float64) (decimal.Decimal, engine.Trend) {
	value := market.Mul(decimal.NewFromFloat(volatility)).Round(0)
	switch {
	case volatility > trendUpAbove:
		return value, engine.TrendUp
	case volatility < trendDownBelow:
		return value, engine.TrendDown
	default:
		return value, engine.TrendStable
	}
}
