package app

import (
	"testing"
	"time"

	models "stock-analyser/database/models_pkg"
)

// fakePriceSeries serves closes from an in-memory map keyed by date,
// honoring the same nearest-within-tolerance contract as the repository.
type fakePriceSeries struct {
	closes map[string]map[string]float64 // ticker -> "2006-01-02" -> close
}

func (s *fakePriceSeries) ClosePriceNear(ticker string, target time.Time, toleranceDays int) (float64, bool, error) {
	series, ok := s.closes[ticker]
	if !ok {
		return 0, false, nil
	}

	bestDiff := toleranceDays + 1
	var best float64
	found := false
	for offset := 0; offset <= toleranceDays; offset++ {
		for _, d := range []time.Time{target.AddDate(0, 0, -offset), target.AddDate(0, 0, offset)} {
			if price, ok := series[d.Format("2006-01-02")]; ok && offset < bestDiff {
				best = price
				bestDiff = offset
				found = true
			}
		}
	}
	return best, found, nil
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestForwardReturn(t *testing.T) {
	series := &fakePriceSeries{closes: map[string]map[string]float64{
		"AAPL": {
			"2024-01-02": 100,
			"2024-04-01": 110, // 90 days after 2024-01-02
		},
	}}
	rc := NewReturnCalculator(series, testRankingConfig())

	rating := &models.AnalystRating{Ticker: "AAPL", RatingDate: day("2024-01-02"), Rating: "buy"}
	got, err := rc.ForwardReturn(rating)
	if err != nil {
		t.Fatalf("ForwardReturn: %v", err)
	}
	if got == nil {
		t.Fatal("ForwardReturn returned pending, want 0.10")
	}
	if diff := *got - 0.10; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("ForwardReturn = %v, want 0.10", *got)
	}
}

func TestForwardReturnUsesNearestWithinTolerance(t *testing.T) {
	// Exit date 2024-04-01 has no bar; the nearest is 3 days later, inside
	// the 5-day tolerance.
	series := &fakePriceSeries{closes: map[string]map[string]float64{
		"MSFT": {
			"2024-01-02": 200,
			"2024-04-04": 180,
		},
	}}
	rc := NewReturnCalculator(series, testRankingConfig())

	rating := &models.AnalystRating{Ticker: "MSFT", RatingDate: day("2024-01-02"), Rating: "sell"}
	got, err := rc.ForwardReturn(rating)
	if err != nil {
		t.Fatalf("ForwardReturn: %v", err)
	}
	if got == nil {
		t.Fatal("ForwardReturn returned pending, want -0.10")
	}
	if diff := *got + 0.10; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("ForwardReturn = %v, want -0.10", *got)
	}
}

func TestForwardReturnPendingWhenPricesMissing(t *testing.T) {
	rc := NewReturnCalculator(&fakePriceSeries{closes: map[string]map[string]float64{}}, testRankingConfig())

	rating := &models.AnalystRating{Ticker: "NVDA", RatingDate: day("2024-01-02"), Rating: "buy"}
	got, err := rc.ForwardReturn(rating)
	if err != nil {
		t.Fatalf("ForwardReturn: %v", err)
	}
	if got != nil {
		t.Errorf("ForwardReturn = %v, want pending (nil)", *got)
	}
}

func TestForwardReturnPendingWhenExitOutsideTolerance(t *testing.T) {
	// Entry exists but the exit window is empty: 2024-04-01 ± 5 days has
	// no bar, so the rating stays pending.
	series := &fakePriceSeries{closes: map[string]map[string]float64{
		"XOM": {
			"2024-01-02": 100,
			"2024-03-01": 105,
		},
	}}
	rc := NewReturnCalculator(series, testRankingConfig())

	rating := &models.AnalystRating{Ticker: "XOM", RatingDate: day("2024-01-02"), Rating: "hold"}
	got, err := rc.ForwardReturn(rating)
	if err != nil {
		t.Fatalf("ForwardReturn: %v", err)
	}
	if got != nil {
		t.Errorf("ForwardReturn = %v, want pending (nil)", *got)
	}
}

func TestForwardReturnZeroEntryIsPending(t *testing.T) {
	series := &fakePriceSeries{closes: map[string]map[string]float64{
		"BAD": {
			"2024-01-02": 0,
			"2024-04-01": 50,
		},
	}}
	rc := NewReturnCalculator(series, testRankingConfig())

	rating := &models.AnalystRating{Ticker: "BAD", RatingDate: day("2024-01-02"), Rating: "buy"}
	got, err := rc.ForwardReturn(rating)
	if err != nil {
		t.Fatalf("ForwardReturn: %v", err)
	}
	if got != nil {
		t.Errorf("ForwardReturn = %v, want pending (nil) for zero entry price", *got)
	}
}
