package app

import (
	"stock-analyser/config"
	models "stock-analyser/database/models_pkg"
)

// ConfidenceStats is the aggregate of one analyst's rating history.
type ConfidenceStats struct {
	TotalRatings     int      // all ratings, pending included
	EvaluatedRatings int      // ratings with a settled verdict
	AccurateRatings  int      // evaluated ratings judged accurate
	ConfidenceScore  *float64 // 0-100, nil while history is insufficient
}

// ConfidenceAggregator folds an analyst's classified ratings into a
// confidence score. The score divides by evaluated ratings, not total:
// dividing by total would systematically depress analysts with many recent,
// still-pending calls.
type ConfidenceAggregator struct {
	minEvaluated int
}

// NewConfidenceAggregator creates an aggregator with the configured floor
func NewConfidenceAggregator(cfg config.RankingConfig) *ConfidenceAggregator {
	minEvaluated := cfg.MinEvaluated
	if minEvaluated < 1 {
		minEvaluated = 1
	}
	return &ConfidenceAggregator{minEvaluated: minEvaluated}
}

// Aggregate folds all ratings of one analyst. Pure and order-independent:
// re-running over the same rating set always yields the same stats. The
// score is nil while the analyst has fewer evaluated ratings than the
// configured minimum, otherwise 100 * accurate / evaluated.
func (a *ConfidenceAggregator) Aggregate(ratings []models.AnalystRating) ConfidenceStats {
	stats := ConfidenceStats{TotalRatings: len(ratings)}

	for i := range ratings {
		r := &ratings[i]
		if !r.Evaluated() {
			continue
		}
		stats.EvaluatedRatings++
		if *r.WasAccurate {
			stats.AccurateRatings++
		}
	}

	if stats.EvaluatedRatings >= a.minEvaluated {
		score := 100 * float64(stats.AccurateRatings) / float64(stats.EvaluatedRatings)
		stats.ConfidenceScore = &score
	}
	return stats
}
