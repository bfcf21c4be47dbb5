package app

import (
	"testing"
	"time"

	models "stock-analyser/database/models_pkg"
)

func TestScoreWorkedExample(t *testing.T) {
	// buy from confidence 80 with target 120, hold from confidence 40 with
	// target 100 -> target (80*120+40*100)/120 ≈ 113.33, score ≈ 58.33.
	current := []models.AnalystRating{
		{AnalystID: "a1", Rating: "buy", PriceTarget: f(120)},
		{AnalystID: "a2", Rating: "hold", PriceTarget: f(100)},
	}
	confidence := map[string]*float64{"a1": f(80), "a2": f(40)}

	scorer := NewInvestmentScorer(testRankingConfig())
	score := scorer.Score(current, confidence)

	if score.InvestmentScore == nil || score.TargetPrice == nil {
		t.Fatalf("Score returned nil fields: %+v", score)
	}

	wantScore := 50 + 12.5*(80.0/120.0)
	if diff := *score.InvestmentScore - wantScore; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("InvestmentScore = %v, want %v", *score.InvestmentScore, wantScore)
	}

	wantTarget := (80.0*120 + 40.0*100) / 120.0
	if diff := *score.TargetPrice - wantTarget; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("TargetPrice = %v, want %v", *score.TargetPrice, wantTarget)
	}
}

func TestScoreExcludesNullConfidence(t *testing.T) {
	scorer := NewInvestmentScorer(testRankingConfig())
	confidence := map[string]*float64{"ranked": f(80), "unranked": nil}

	base := []models.AnalystRating{
		{AnalystID: "ranked", Rating: "buy", PriceTarget: f(120)},
	}
	withUnranked := append([]models.AnalystRating{
		{AnalystID: "unranked", Rating: "strong_sell", PriceTarget: f(10)},
	}, base...)

	got := scorer.Score(withUnranked, confidence)
	want := scorer.Score(base, confidence)

	if *got.InvestmentScore != *want.InvestmentScore {
		t.Errorf("null-confidence rating moved the score: %v vs %v", *got.InvestmentScore, *want.InvestmentScore)
	}
	if *got.TargetPrice != *want.TargetPrice {
		t.Errorf("null-confidence rating moved the target: %v vs %v", *got.TargetPrice, *want.TargetPrice)
	}
}

func TestScoreEmptyWhenNoEligibleRatings(t *testing.T) {
	scorer := NewInvestmentScorer(testRankingConfig())

	score := scorer.Score(nil, nil)
	if score.InvestmentScore != nil || score.TargetPrice != nil {
		t.Errorf("Score(nil) = %+v, want both fields nil", score)
	}

	// All issuers unranked.
	current := []models.AnalystRating{{AnalystID: "x", Rating: "buy", PriceTarget: f(50)}}
	score = scorer.Score(current, map[string]*float64{"x": nil})
	if score.InvestmentScore != nil || score.TargetPrice != nil {
		t.Errorf("Score with only unranked issuers = %+v, want both fields nil", score)
	}
}

func TestScoreMonotonicUnderBullishSignal(t *testing.T) {
	scorer := NewInvestmentScorer(testRankingConfig())
	confidence := map[string]*float64{"a1": f(60), "a2": f(90)}

	base := []models.AnalystRating{{AnalystID: "a1", Rating: "hold"}}
	withBull := append([]models.AnalystRating{{AnalystID: "a2", Rating: "strong_buy"}}, base...)

	before := scorer.Score(base, confidence)
	after := scorer.Score(withBull, confidence)

	if *after.InvestmentScore < *before.InvestmentScore {
		t.Errorf("adding a high-confidence strong_buy lowered the score: %v -> %v",
			*before.InvestmentScore, *after.InvestmentScore)
	}
}

func TestScoreClamped(t *testing.T) {
	scorer := NewInvestmentScorer(testRankingConfig())
	confidence := map[string]*float64{"a1": f(100)}

	bull := scorer.Score([]models.AnalystRating{{AnalystID: "a1", Rating: "strong_buy"}}, confidence)
	if *bull.InvestmentScore < 0 || *bull.InvestmentScore > 100 {
		t.Errorf("score out of range: %v", *bull.InvestmentScore)
	}
	if *bull.InvestmentScore != 75 {
		t.Errorf("lone strong_buy score = %v, want 75", *bull.InvestmentScore)
	}

	bear := scorer.Score([]models.AnalystRating{{AnalystID: "a1", Rating: "strong_sell"}}, confidence)
	if *bear.InvestmentScore != 25 {
		t.Errorf("lone strong_sell score = %v, want 25", *bear.InvestmentScore)
	}
}

func TestSelectCurrentLatestPerAnalystWithinWindow(t *testing.T) {
	scorer := NewInvestmentScorer(testRankingConfig())
	asOf := day("2024-06-30")

	ratings := []models.AnalystRating{
		{ID: 1, AnalystID: "a1", Rating: "hold", RatingDate: day("2024-03-01")},
		{ID: 2, AnalystID: "a1", Rating: "buy", RatingDate: day("2024-05-01")}, // newer, wins
		{ID: 3, AnalystID: "a2", Rating: "sell", RatingDate: day("2023-09-01")}, // beyond 180d, dropped
		{ID: 4, AnalystID: "a3", Rating: "strong_buy", RatingDate: day("2024-06-01")},
	}

	current := scorer.SelectCurrent(ratings, asOf)
	if len(current) != 2 {
		t.Fatalf("SelectCurrent returned %d ratings, want 2", len(current))
	}

	byAnalyst := make(map[string]models.AnalystRating)
	for _, r := range current {
		byAnalyst[r.AnalystID] = r
	}
	if got := byAnalyst["a1"]; got.ID != 2 {
		t.Errorf("a1 current rating id = %d, want 2 (latest)", got.ID)
	}
	if _, ok := byAnalyst["a2"]; ok {
		t.Error("a2's stale rating should be excluded by the recency window")
	}
	if got := byAnalyst["a3"]; got.ID != 4 {
		t.Errorf("a3 current rating id = %d, want 4", got.ID)
	}
}

func TestSelectCurrentWindowBoundary(t *testing.T) {
	scorer := NewInvestmentScorer(testRankingConfig())
	asOf := day("2024-06-30")
	cutoff := asOf.AddDate(0, 0, -180)

	ratings := []models.AnalystRating{
		{ID: 1, AnalystID: "edge", Rating: "buy", RatingDate: cutoff},
		{ID: 2, AnalystID: "past", Rating: "buy", RatingDate: cutoff.Add(-24 * time.Hour)},
	}

	current := scorer.SelectCurrent(ratings, asOf)
	if len(current) != 1 || current[0].ID != 1 {
		t.Errorf("SelectCurrent at the window edge = %+v, want only the rating dated exactly at cutoff", current)
	}
}
