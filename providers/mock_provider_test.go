package providers

import (
	"sync"
	"testing"
	"time"

	models "stock-analyser/database/models_pkg"
)

// sameRating compares by value; PriceTarget is a pointer and must be
// compared through the dereference.
func sameRating(a, b RatingData) bool {
	if a.AnalystID != b.AnalystID || a.Ticker != b.Ticker ||
		a.Rating != b.Rating || !a.Date.Equal(b.Date) {
		return false
	}
	if (a.PriceTarget == nil) != (b.PriceTarget == nil) {
		return false
	}
	if a.PriceTarget != nil && *a.PriceTarget != *b.PriceTarget {
		return false
	}
	return true
}

func TestMockProviderDeterministic(t *testing.T) {
	clock := func() time.Time {
		return time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	}
	a := NewMockProvider(10, 8, 42)
	b := NewMockProvider(10, 8, 42)
	a.now = clock
	b.now = clock

	ratingsA, err := a.RatingsForCompany("AAPL", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("RatingsForCompany: %v", err)
	}
	ratingsB, _ := b.RatingsForCompany("AAPL", time.Time{}, time.Time{})

	if len(ratingsA) == 0 {
		t.Fatal("seed produced no AAPL ratings")
	}
	if len(ratingsA) != len(ratingsB) {
		t.Fatalf("same seed produced different rating counts: %d vs %d", len(ratingsA), len(ratingsB))
	}
	for i := range ratingsA {
		if !sameRating(ratingsA[i], ratingsB[i]) {
			t.Fatalf("same seed diverged at rating %d: %+v vs %+v", i, ratingsA[i], ratingsB[i])
		}
	}

	// Dates are truncated to midnight UTC so the wall-clock time of day
	// never leaks into the data set.
	for _, r := range ratingsA {
		if !r.Date.Equal(r.Date.Truncate(24 * time.Hour)) {
			t.Errorf("rating date carries time of day: %s", r.Date)
		}
	}
}

func TestMockProviderConcurrentFirstUse(t *testing.T) {
	p := NewMockProvider(10, 8, 42)
	q := NewMockProvider(10, 8, 42)

	// Hit the lazily generated data set from many goroutines at once, the
	// way ratings ingestion fans out over tickers.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		entry := mockTickers[i%len(mockTickers)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.RatingsForCompany(entry.ticker, time.Time{}, time.Time{}); err != nil {
				t.Errorf("RatingsForCompany(%s): %v", entry.ticker, err)
			}
			if _, err := p.Analysts(); err != nil {
				t.Errorf("Analysts: %v", err)
			}
		}()
	}
	wg.Wait()

	analysts, err := p.Analysts()
	if err != nil {
		t.Fatalf("Analysts: %v", err)
	}
	if len(analysts) != 10 {
		t.Fatalf("concurrent first use corrupted the roster: %d analysts, want 10", len(analysts))
	}

	// The data set must match a provider that was only ever used serially.
	serial, _ := q.Analysts()
	concurrent, _ := p.Analysts()
	if len(serial) != len(concurrent) {
		t.Fatalf("concurrent generation diverged: %d vs %d analysts", len(concurrent), len(serial))
	}
}

func TestMockProviderPriceHistory(t *testing.T) {
	p := NewMockProvider(5, 4, 7)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	bars, err := p.PriceHistory("AAPL", start, end)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(bars) == 0 {
		t.Fatal("PriceHistory returned no bars")
	}

	for _, bar := range bars {
		wd := bar.Date.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			t.Errorf("bar on weekend: %s", bar.Date.Format("2006-01-02"))
		}
		if bar.Close <= 0 || bar.Open <= 0 {
			t.Errorf("non-positive price on %s: open=%v close=%v", bar.Date.Format("2006-01-02"), bar.Open, bar.Close)
		}
		if bar.High < bar.Low {
			t.Errorf("high < low on %s: high=%v low=%v", bar.Date.Format("2006-01-02"), bar.High, bar.Low)
		}
		if bar.AdjClose != bar.Close {
			t.Errorf("mock bars are unadjusted, adj_close should equal close: %v vs %v", bar.AdjClose, bar.Close)
		}
	}

	// Same ticker and seed again: identical walk regardless of prior calls.
	again, _ := p.PriceHistory("AAPL", start, end)
	if len(again) != len(bars) || again[0].Close != bars[0].Close {
		t.Error("price walk changed between calls for the same ticker")
	}

	if _, err := p.PriceHistory("AAPL", end, start); err == nil {
		t.Error("expected error for inverted date range")
	}
}

func TestMockProviderRatingsValid(t *testing.T) {
	p := NewMockProvider(20, 10, 99)

	analysts, err := p.Analysts()
	if err != nil {
		t.Fatalf("Analysts: %v", err)
	}
	if len(analysts) != 20 {
		t.Fatalf("Analysts returned %d, want 20", len(analysts))
	}

	known := make(map[string]bool, len(analysts))
	for _, a := range analysts {
		if a.AnalystID == "" || a.Firm == "" {
			t.Errorf("analyst with empty fields: %+v", a)
		}
		known[a.AnalystID] = true
	}

	for _, entry := range mockTickers {
		ratings, err := p.RatingsForCompany(entry.ticker, time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("RatingsForCompany(%s): %v", entry.ticker, err)
		}
		for _, r := range ratings {
			if !models.ValidRating(r.Rating) {
				t.Errorf("invalid rating category %q on %s", r.Rating, entry.ticker)
			}
			if !known[r.AnalystID] {
				t.Errorf("rating from unknown analyst %s", r.AnalystID)
			}
			if r.PriceTarget != nil && *r.PriceTarget <= 0 {
				t.Errorf("non-positive price target %v", *r.PriceTarget)
			}
		}
	}
}

func TestMockProviderDateFilter(t *testing.T) {
	p := NewMockProvider(10, 10, 3)

	all, _ := p.RatingsForCompany("MSFT", time.Time{}, time.Time{})
	if len(all) == 0 {
		t.Skip("seed produced no MSFT ratings")
	}

	mid := all[len(all)/2].Date
	recent, _ := p.RatingsForCompany("MSFT", mid, time.Time{})
	for _, r := range recent {
		if r.Date.Before(mid) {
			t.Errorf("rating dated %s before requested start %s", r.Date.Format("2006-01-02"), mid.Format("2006-01-02"))
		}
	}
	if len(recent) >= len(all) {
		t.Errorf("start filter did not narrow results: %d -> %d", len(all), len(recent))
	}
}
