package providers

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type stubStockProvider struct {
	companies []CompanyData
	prices    []PriceData
	current   float64
	hasPrice  bool
	err       error
	calls     int
}

func (s *stubStockProvider) Companies() ([]CompanyData, error) {
	s.calls++
	return s.companies, s.err
}

func (s *stubStockProvider) PriceHistory(ticker string, start, end time.Time) ([]PriceData, error) {
	s.calls++
	return s.prices, s.err
}

func (s *stubStockProvider) CurrentPrice(ticker string) (float64, bool, error) {
	s.calls++
	return s.current, s.hasPrice, s.err
}

type stubRatingsProvider struct {
	analysts []AnalystData
	ratings  []RatingData
	err      error
}

func (s *stubRatingsProvider) Analysts() ([]AnalystData, error) {
	return s.analysts, s.err
}

func (s *stubRatingsProvider) RatingsForCompany(ticker string, start, end time.Time) ([]RatingData, error) {
	return s.ratings, s.err
}

func TestCompositeFallsBackOnError(t *testing.T) {
	primary := &stubStockProvider{err: errors.New("upstream down")}
	secondary := &stubStockProvider{companies: []CompanyData{{Ticker: "AAPL", Name: "Apple Inc."}}}
	c := NewCompositeProvider([]StockProvider{primary, secondary}, nil, false)

	companies, err := c.Companies()
	if err != nil {
		t.Fatalf("Companies: %v", err)
	}
	if len(companies) != 1 || companies[0].Ticker != "AAPL" {
		t.Fatalf("expected secondary provider's company list, got %+v", companies)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("expected both providers tried once, got %d and %d", primary.calls, secondary.calls)
	}
}

func TestCompositeFallsBackOnEmpty(t *testing.T) {
	empty := &stubStockProvider{}
	full := &stubStockProvider{prices: []PriceData{{Ticker: "MSFT", Close: 400}}}
	c := NewCompositeProvider([]StockProvider{empty, full}, nil, false)

	bars, err := c.PriceHistory("MSFT", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected fallback bars, got %d", len(bars))
	}
}

func TestCompositeAllProvidersFail(t *testing.T) {
	a := &stubStockProvider{err: errors.New("first down")}
	b := &stubStockProvider{err: errors.New("second down")}
	c := NewCompositeProvider([]StockProvider{a, b}, nil, false)

	_, _, err := c.CurrentPrice("AAPL")
	if err == nil {
		t.Fatal("expected error when every provider fails")
	}
	if !strings.Contains(err.Error(), "second down") {
		t.Fatalf("expected last provider error to be wrapped, got %v", err)
	}
}

func TestCompositeAnalystsDedup(t *testing.T) {
	first := &stubRatingsProvider{analysts: []AnalystData{
		{AnalystID: "a1", Name: "Analyst at Goldman Sachs", Firm: "Goldman Sachs"},
		{AnalystID: "a2", Name: "Analyst at Citi", Firm: "Citi"},
	}}
	second := &stubRatingsProvider{analysts: []AnalystData{
		{AnalystID: "a2", Name: "Duplicate", Firm: "Other"},
		{AnalystID: "a3", Name: "Analyst at Barclays", Firm: "Barclays"},
	}}
	c := NewCompositeProvider(nil, []RatingsProvider{first, second}, false)

	analysts, err := c.Analysts()
	if err != nil {
		t.Fatalf("Analysts: %v", err)
	}
	if len(analysts) != 3 {
		t.Fatalf("expected 3 deduped analysts, got %d", len(analysts))
	}
	for _, a := range analysts {
		if a.AnalystID == "a2" && a.Firm != "Citi" {
			t.Fatalf("first provider should win id collisions, got firm %q", a.Firm)
		}
	}
}

func TestCompositeRatingsAggregation(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	first := &stubRatingsProvider{ratings: []RatingData{{AnalystID: "a1", Ticker: "AAPL", Date: day, Rating: "buy"}}}
	second := &stubRatingsProvider{ratings: []RatingData{{AnalystID: "a2", Ticker: "AAPL", Date: day, Rating: "hold"}}}

	firstWins := NewCompositeProvider(nil, []RatingsProvider{first, second}, false)
	ratings, err := firstWins.RatingsForCompany("AAPL", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("RatingsForCompany: %v", err)
	}
	if len(ratings) != 1 || ratings[0].AnalystID != "a1" {
		t.Fatalf("expected first provider's ratings only, got %+v", ratings)
	}

	aggregated := NewCompositeProvider(nil, []RatingsProvider{first, second}, true)
	ratings, err = aggregated.RatingsForCompany("AAPL", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("RatingsForCompany aggregated: %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("expected ratings from both providers, got %d", len(ratings))
	}
}
