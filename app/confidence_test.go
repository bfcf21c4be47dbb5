package app

import (
	"math/rand"
	"testing"

	models "stock-analyser/database/models_pkg"
)

func b(v bool) *bool { return &v }

func ratingWithVerdict(accurate *bool) models.AnalystRating {
	return models.AnalystRating{AnalystID: "a1", Ticker: "AAPL", Rating: "buy", WasAccurate: accurate}
}

func TestAggregateWorkedExample(t *testing.T) {
	// 10 ratings: 7 accurate, 1 inaccurate, 2 pending -> 100*7/8 = 87.5
	var ratings []models.AnalystRating
	for i := 0; i < 7; i++ {
		ratings = append(ratings, ratingWithVerdict(b(true)))
	}
	ratings = append(ratings, ratingWithVerdict(b(false)))
	ratings = append(ratings, ratingWithVerdict(nil), ratingWithVerdict(nil))

	agg := NewConfidenceAggregator(testRankingConfig())
	stats := agg.Aggregate(ratings)

	if stats.TotalRatings != 10 {
		t.Errorf("TotalRatings = %d, want 10", stats.TotalRatings)
	}
	if stats.EvaluatedRatings != 8 {
		t.Errorf("EvaluatedRatings = %d, want 8", stats.EvaluatedRatings)
	}
	if stats.AccurateRatings != 7 {
		t.Errorf("AccurateRatings = %d, want 7", stats.AccurateRatings)
	}
	if stats.ConfidenceScore == nil {
		t.Fatal("ConfidenceScore is nil, want 87.5")
	}
	if *stats.ConfidenceScore != 87.5 {
		t.Errorf("ConfidenceScore = %v, want 87.5", *stats.ConfidenceScore)
	}
}

func TestAggregateNilWhileNothingEvaluated(t *testing.T) {
	agg := NewConfidenceAggregator(testRankingConfig())

	stats := agg.Aggregate([]models.AnalystRating{ratingWithVerdict(nil), ratingWithVerdict(nil)})
	if stats.ConfidenceScore != nil {
		t.Errorf("ConfidenceScore = %v, want nil with zero evaluated ratings", *stats.ConfidenceScore)
	}
	if stats.TotalRatings != 2 {
		t.Errorf("TotalRatings = %d, want 2", stats.TotalRatings)
	}

	stats = agg.Aggregate(nil)
	if stats.ConfidenceScore != nil {
		t.Error("ConfidenceScore should be nil for an empty rating set")
	}
}

func TestAggregateRespectsMinEvaluated(t *testing.T) {
	cfg := testRankingConfig()
	cfg.MinEvaluated = 3
	agg := NewConfidenceAggregator(cfg)

	two := []models.AnalystRating{ratingWithVerdict(b(true)), ratingWithVerdict(b(true))}
	if stats := agg.Aggregate(two); stats.ConfidenceScore != nil {
		t.Errorf("ConfidenceScore = %v, want nil below the evaluated floor", *stats.ConfidenceScore)
	}

	three := append(two, ratingWithVerdict(b(false)))
	stats := agg.Aggregate(three)
	if stats.ConfidenceScore == nil {
		t.Fatal("ConfidenceScore is nil at the evaluated floor, want a value")
	}
	want := 100 * 2.0 / 3.0
	if diff := *stats.ConfidenceScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("ConfidenceScore = %v, want %v", *stats.ConfidenceScore, want)
	}
}

func TestAggregateBounds(t *testing.T) {
	agg := NewConfidenceAggregator(testRankingConfig())

	allAccurate := []models.AnalystRating{ratingWithVerdict(b(true)), ratingWithVerdict(b(true))}
	if stats := agg.Aggregate(allAccurate); *stats.ConfidenceScore != 100 {
		t.Errorf("all-accurate score = %v, want 100", *stats.ConfidenceScore)
	}

	allWrong := []models.AnalystRating{ratingWithVerdict(b(false)), ratingWithVerdict(b(false))}
	if stats := agg.Aggregate(allWrong); *stats.ConfidenceScore != 0 {
		t.Errorf("all-wrong score = %v, want 0", *stats.ConfidenceScore)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	var ratings []models.AnalystRating
	for i := 0; i < 20; i++ {
		switch i % 3 {
		case 0:
			ratings = append(ratings, ratingWithVerdict(b(true)))
		case 1:
			ratings = append(ratings, ratingWithVerdict(b(false)))
		default:
			ratings = append(ratings, ratingWithVerdict(nil))
		}
	}

	agg := NewConfidenceAggregator(testRankingConfig())
	want := agg.Aggregate(ratings)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]models.AnalystRating, len(ratings))
		copy(shuffled, ratings)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := agg.Aggregate(shuffled)
		if got.TotalRatings != want.TotalRatings ||
			got.EvaluatedRatings != want.EvaluatedRatings ||
			got.AccurateRatings != want.AccurateRatings ||
			*got.ConfidenceScore != *want.ConfidenceScore {
			t.Fatalf("trial %d: aggregate differs after shuffle: got %+v want %+v", trial, got, want)
		}
	}
}
