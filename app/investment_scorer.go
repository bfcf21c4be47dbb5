package app

import (
	"time"

	"stock-analyser/config"
	models "stock-analyser/database/models_pkg"
)

// Signed signal value per rating category, used in the weighted average.
var ratingSignals = map[string]float64{
	models.RatingStrongSell: -2,
	models.RatingSell:       -1,
	models.RatingHold:       0,
	models.RatingBuy:        1,
	models.RatingStrongBuy:  2,
}

// Investment score scale: a neutral weighted signal maps to the midpoint,
// fully bearish (-2) to 0 and fully bullish (+2) to 100.
const (
	scoreMidpoint = 50.0
	scoreSlope    = 12.5
)

// CompanyScore is the derived result for one company. Both fields are nil
// when no eligible ratings exist.
type CompanyScore struct {
	InvestmentScore *float64
	TargetPrice     *float64
}

// InvestmentScorer folds a company's current ratings, weighted by the
// issuing analysts' confidence, into an investment score and a target price
// estimate.
type InvestmentScorer struct {
	recencyWindowDays int
}

// NewInvestmentScorer creates a scorer with the configured recency window
func NewInvestmentScorer(cfg config.RankingConfig) *InvestmentScorer {
	return &InvestmentScorer{recencyWindowDays: cfg.RecencyWindowDays}
}

// SelectCurrent picks the current ratings from a company's rating set: the
// most recent rating per distinct analyst, restricted to ratings issued
// within the recency window before asOf. Stale ratings are excluded.
func (s *InvestmentScorer) SelectCurrent(ratings []models.AnalystRating, asOf time.Time) []models.AnalystRating {
	cutoff := asOf.AddDate(0, 0, -s.recencyWindowDays)

	latest := make(map[string]models.AnalystRating)
	for _, r := range ratings {
		if r.RatingDate.Before(cutoff) {
			continue
		}
		if cur, ok := latest[r.AnalystID]; !ok || r.RatingDate.After(cur.RatingDate) {
			latest[r.AnalystID] = r
		}
	}

	current := make([]models.AnalystRating, 0, len(latest))
	for _, r := range latest {
		current = append(current, r)
	}
	return current
}

// Score folds the current ratings into a company score. confidence maps
// analyst id to confidence score; ratings whose analyst has a nil confidence
// (insufficient history) are excluded from the fold entirely, which is
// observably different from carrying them at weight zero. Pure and
// order-independent.
func (s *InvestmentScorer) Score(current []models.AnalystRating, confidence map[string]*float64) CompanyScore {
	var (
		weightSum       float64
		signalSum       float64
		targetSum       float64
		targetWeightSum float64
	)

	for _, r := range current {
		conf, known := confidence[r.AnalystID]
		if !known || conf == nil {
			continue
		}
		signal, ok := ratingSignals[r.Rating]
		if !ok {
			continue
		}

		w := *conf
		weightSum += w
		signalSum += w * signal

		if r.PriceTarget != nil {
			targetSum += w * *r.PriceTarget
			targetWeightSum += w
		}
	}

	var score CompanyScore
	if weightSum > 0 {
		avg := signalSum / weightSum // range -2..+2
		v := scoreMidpoint + scoreSlope*avg
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		score.InvestmentScore = &v
	}
	if targetWeightSum > 0 {
		t := targetSum / targetWeightSum
		score.TargetPrice = &t
	}
	return score
}
