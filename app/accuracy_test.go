package app

import (
	"testing"

	"stock-analyser/config"
)

func testRankingConfig() config.RankingConfig {
	return config.RankingConfig{
		HorizonDays:        90,
		PriceToleranceDays: 5,
		BullishThreshold:   0.05,
		BearishThreshold:   0.05,
		HoldTolerance:      0.10,
		MinEvaluated:       1,
		RecencyWindowDays:  180,
		Workers:            4,
	}
}

func f(v float64) *float64 { return &v }

func TestClassifyBoundaries(t *testing.T) {
	c := NewAccuracyClassifier(testRankingConfig())

	tests := []struct {
		name     string
		category string
		ret      *float64
		want     Verdict
	}{
		{"buy at threshold is not enough", "buy", f(0.05), VerdictInaccurate},
		{"buy just above threshold", "buy", f(0.0500001), VerdictAccurate},
		{"strong_buy big gain", "strong_buy", f(0.30), VerdictAccurate},
		{"strong_buy flat", "strong_buy", f(0.0), VerdictInaccurate},
		{"sell at negative threshold is not enough", "sell", f(-0.05), VerdictInaccurate},
		{"sell just below threshold", "sell", f(-0.0500001), VerdictAccurate},
		{"strong_sell crash", "strong_sell", f(-0.40), VerdictAccurate},
		{"hold lower bound inclusive", "hold", f(-0.10), VerdictAccurate},
		{"hold upper bound inclusive", "hold", f(0.10), VerdictAccurate},
		{"hold just outside band", "hold", f(0.1000001), VerdictInaccurate},
		{"hold just outside band below", "hold", f(-0.1000001), VerdictInaccurate},
		{"hold dead center", "hold", f(0.0), VerdictAccurate},
		{"pending propagates for buy", "buy", nil, VerdictPending},
		{"pending propagates for hold", "hold", nil, VerdictPending},
		{"unknown category stays pending", "outperform", f(0.2), VerdictPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.category, tt.ret)
			if got != tt.want {
				t.Errorf("Classify(%s, %v) = %s, want %s", tt.category, tt.ret, got, tt.want)
			}
		})
	}
}

func TestClassifyTotality(t *testing.T) {
	c := NewAccuracyClassifier(testRankingConfig())

	categories := []string{"strong_buy", "buy", "hold", "sell", "strong_sell"}
	returns := []*float64{nil, f(-1), f(-0.1), f(-0.05), f(0), f(0.05), f(0.1), f(1)}

	for _, cat := range categories {
		for _, ret := range returns {
			got := c.Classify(cat, ret)
			if got != VerdictAccurate && got != VerdictInaccurate && got != VerdictPending {
				t.Fatalf("Classify(%s, %v) returned unexpected verdict %q", cat, ret, got)
			}
			if (ret == nil) != (got == VerdictPending) {
				t.Errorf("Classify(%s, %v) = %s; pending must hold iff return is nil", cat, ret, got)
			}
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewAccuracyClassifier(testRankingConfig())
	for i := 0; i < 10; i++ {
		if got := c.Classify("buy", f(0.07)); got != VerdictAccurate {
			t.Fatalf("run %d: Classify changed verdict to %s", i, got)
		}
	}
}
