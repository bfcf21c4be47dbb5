package app

import (
	"fmt"
	"math"
	"time"

	"stock-analyser/config"
	models "stock-analyser/database/models_pkg"
)

// PriceSeries provides closing prices near a date. ok is false when no price
// falls within the tolerance window, which is a normal outcome (evaluation
// date still in the future, or a gap in the data), not a failure.
type PriceSeries interface {
	ClosePriceNear(ticker string, target time.Time, toleranceDays int) (price float64, ok bool, err error)
}

// ReturnCalculator computes the forward return of a rating over the fixed
// evaluation horizon.
type ReturnCalculator struct {
	prices             PriceSeries
	horizonDays        int
	priceToleranceDays int
}

// NewReturnCalculator creates a calculator over the given price series
func NewReturnCalculator(prices PriceSeries, cfg config.RankingConfig) *ReturnCalculator {
	return &ReturnCalculator{
		prices:             prices,
		horizonDays:        cfg.HorizonDays,
		priceToleranceDays: cfg.PriceToleranceDays,
	}
}

// ForwardReturn returns the percentage price change from the rating date to
// the evaluation horizon, or nil while either price is unavailable (the
// rating stays pending). Deterministic for a given price history. A
// non-finite price or return is an invalid record and reported as an error;
// the batch pass skips the record and notes it in the job details.
func (rc *ReturnCalculator) ForwardReturn(rating *models.AnalystRating) (*float64, error) {
	evalDate := rating.RatingDate.AddDate(0, 0, rc.horizonDays)

	entry, ok, err := rc.prices.ClosePriceNear(rating.Ticker, rating.RatingDate, rc.priceToleranceDays)
	if err != nil {
		return nil, fmt.Errorf("entry price for %s: %w", rating.Ticker, err)
	}
	if !ok || entry == 0 {
		return nil, nil
	}

	exit, ok, err := rc.prices.ClosePriceNear(rating.Ticker, evalDate, rc.priceToleranceDays)
	if err != nil {
		return nil, fmt.Errorf("exit price for %s: %w", rating.Ticker, err)
	}
	if !ok {
		return nil, nil
	}

	ret := (exit - entry) / entry
	if math.IsNaN(ret) || math.IsInf(ret, 0) {
		return nil, fmt.Errorf("non-finite return for %s rating %d (entry=%v exit=%v)",
			rating.Ticker, rating.ID, entry, exit)
	}
	return &ret, nil
}
