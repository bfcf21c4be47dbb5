package providers

import (
	"testing"
	"time"

	models "stock-analyser/database/models_pkg"
)

func fp(v float64) *float64 { return &v }
func ip(v int64) *int64     { return &v }

func TestBarsFromChartRaggedPayload(t *testing.T) {
	// Three timestamps, but the open/volume series come back shorter than
	// close. The extra timestamps must be dropped, not dereferenced.
	var result chartResult
	result.Timestamp = []int64{1719792000, 1719878400, 1719964800}
	result.Indicators.Quote = []chartQuote{{
		Open:   []*float64{fp(100)},
		High:   []*float64{fp(102), fp(103), fp(104)},
		Low:    []*float64{fp(99), fp(100), fp(101)},
		Close:  []*float64{fp(101), fp(102), fp(103)},
		Volume: []*int64{ip(1_000_000), ip(1_100_000)},
	}}

	bars := barsFromChart("AAPL", result)
	if len(bars) != 1 {
		t.Fatalf("ragged payload produced %d bars, want 1", len(bars))
	}
	if bars[0].Open != 100 || bars[0].Close != 101 {
		t.Fatalf("wrong bar survived: %+v", bars[0])
	}
}

func TestBarsFromChartSkipsNilHoles(t *testing.T) {
	var result chartResult
	result.Timestamp = []int64{1719792000, 1719878400}
	result.Indicators.Quote = []chartQuote{{
		Open:   []*float64{fp(100), nil},
		High:   []*float64{fp(102), fp(103)},
		Low:    []*float64{fp(99), fp(100)},
		Close:  []*float64{fp(101), fp(102)},
		Volume: []*int64{ip(1_000_000), ip(1_100_000)},
	}}
	result.Indicators.AdjClose = []struct {
		AdjClose []*float64 `json:"adjclose"`
	}{{AdjClose: []*float64{fp(95.5), fp(96.5)}}}

	bars := barsFromChart("MSFT", result)
	if len(bars) != 1 {
		t.Fatalf("nil hole produced %d bars, want 1", len(bars))
	}
	if bars[0].AdjClose != 95.5 {
		t.Fatalf("adjusted close not preferred: %v", bars[0].AdjClose)
	}
	want := time.Unix(1719792000, 0).UTC().Truncate(24 * time.Hour)
	if !bars[0].Date.Equal(want) {
		t.Fatalf("bar date %s, want %s", bars[0].Date, want)
	}
}

func TestBarsFromChartEmptyQuote(t *testing.T) {
	var result chartResult
	result.Timestamp = []int64{1719792000}
	if bars := barsFromChart("XOM", result); bars != nil {
		t.Fatalf("expected no bars without a quote block, got %d", len(bars))
	}
}

func TestMapGrade(t *testing.T) {
	cases := []struct {
		grade string
		want  string
	}{
		{"Strong Buy", models.RatingStrongBuy},
		{"Buy", models.RatingBuy},
		{"Outperform", models.RatingBuy},
		{"Overweight", models.RatingBuy},
		{"Hold", models.RatingHold},
		{"Neutral", models.RatingHold},
		{"Equal-Weight", models.RatingHold},
		{"Market Perform", models.RatingHold},
		{"Underperform", models.RatingSell},
		{"Sell", models.RatingSell},
		{"Strong Sell", models.RatingStrongSell},
		{"Gibberish", models.RatingHold},
	}
	for _, c := range cases {
		if got := mapGrade(c.grade); got != c.want {
			t.Errorf("mapGrade(%q) = %q, want %q", c.grade, got, c.want)
		}
	}
}
