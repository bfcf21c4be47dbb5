package app

import (
	"stock-analyser/config"
	models "stock-analyser/database/models_pkg"
)

// Verdict is the settled judgement of one rating, or pending while the
// evaluation horizon has not elapsed or price data is missing.
type Verdict string

// Verdicts
const (
	VerdictAccurate   Verdict = "accurate"
	VerdictInaccurate Verdict = "inaccurate"
	VerdictPending    Verdict = "pending"
)

// AccuracyClassifier judges whether a rating's direction matched the actual
// forward return. It is a pure function of its two inputs: classifying the
// same (category, return) twice always yields the same verdict, which is
// what makes the evaluation pass safe to re-run.
type AccuracyClassifier struct {
	bullishThreshold float64
	bearishThreshold float64
	holdTolerance    float64
}

// NewAccuracyClassifier creates a classifier with the configured thresholds
func NewAccuracyClassifier(cfg config.RankingConfig) *AccuracyClassifier {
	return &AccuracyClassifier{
		bullishThreshold: cfg.BullishThreshold,
		bearishThreshold: cfg.BearishThreshold,
		holdTolerance:    cfg.HoldTolerance,
	}
}

// Classify returns the verdict for a rating category and forward return.
//
// Thresholds (defaults in parentheses):
//   - buy / strong_buy:  accurate iff return strictly above +5%
//   - sell / strong_sell: accurate iff return strictly below -5%
//   - hold: accurate iff return within ±10%, inclusive
//
// A nil forward return means the rating is still pending, as does an unknown
// category; the caller validates categories before persisting a verdict.
func (c *AccuracyClassifier) Classify(category string, forwardReturn *float64) Verdict {
	if forwardReturn == nil {
		return VerdictPending
	}
	r := *forwardReturn

	switch category {
	case models.RatingBuy, models.RatingStrongBuy:
		if r > c.bullishThreshold {
			return VerdictAccurate
		}
		return VerdictInaccurate
	case models.RatingSell, models.RatingStrongSell:
		if r < -c.bearishThreshold {
			return VerdictAccurate
		}
		return VerdictInaccurate
	case models.RatingHold:
		if r >= -c.holdTolerance && r <= c.holdTolerance {
			return VerdictAccurate
		}
		return VerdictInaccurate
	}
	return VerdictPending
}
