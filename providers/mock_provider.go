package providers

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	models "stock-analyser/database/models_pkg"
)

// Sample analyst firms for mock data
var mockFirms = []string{
	"Goldman Sachs", "Morgan Stanley", "JP Morgan", "Bank of America",
	"Citigroup", "Wells Fargo", "Barclays", "Deutsche Bank", "UBS",
	"Jefferies", "Raymond James", "Piper Sandler", "Stifel", "Cowen",
}

// Small fixed universe for demos and tests.
var mockTickers = []struct {
	ticker, name, sector, industry string
}{
	{"AAPL", "Apple Inc.", "Technology", "Consumer Electronics"},
	{"MSFT", "Microsoft Corporation", "Technology", "Software"},
	{"GOOGL", "Alphabet Inc.", "Communication Services", "Internet Content"},
	{"AMZN", "Amazon.com Inc.", "Consumer Cyclical", "Internet Retail"},
	{"NVDA", "NVIDIA Corporation", "Technology", "Semiconductors"},
	{"JPM", "JPMorgan Chase & Co.", "Financial Services", "Banks"},
	{"JNJ", "Johnson & Johnson", "Healthcare", "Drug Manufacturers"},
	{"XOM", "Exxon Mobil Corporation", "Energy", "Oil & Gas Integrated"},
	{"PG", "Procter & Gamble Co.", "Consumer Defensive", "Household Products"},
	{"KO", "The Coca-Cola Company", "Consumer Defensive", "Beverages"},
}

// MockProvider generates deterministic synthetic companies, price history,
// analysts and ratings. A given seed always produces the same data set,
// which is what makes it usable for demos and for exercising the ranking
// pipeline in tests. Rating dates are anchored to the current day truncated
// to midnight UTC, so two providers built with the same seed on the same day
// agree on every value.
type MockProvider struct {
	numAnalysts       int
	ratingsPerAnalyst int
	seed              int64
	now               func() time.Time

	genOnce  sync.Once
	analysts []AnalystData
	ratings  []RatingData
}

// NewMockProvider creates a mock provider. Generation is lazy and happens on
// the first data request; ingestion fans requests out across goroutines, so
// the first call may come from any of them.
func NewMockProvider(numAnalysts, ratingsPerAnalyst int, seed int64) *MockProvider {
	if numAnalysts <= 0 {
		numAnalysts = 50
	}
	if ratingsPerAnalyst <= 0 {
		ratingsPerAnalyst = 40
	}
	return &MockProvider{
		numAnalysts:       numAnalysts,
		ratingsPerAnalyst: ratingsPerAnalyst,
		seed:              seed,
		now:               time.Now,
	}
}

// Companies returns the fixed demo universe
func (m *MockProvider) Companies() ([]CompanyData, error) {
	rng := rand.New(rand.NewSource(m.seed))
	out := make([]CompanyData, 0, len(mockTickers))
	for _, t := range mockTickers {
		sector := t.sector
		industry := t.industry
		cap := 1e10 + rng.Float64()*2e12
		out = append(out, CompanyData{
			Ticker:    t.ticker,
			Name:      t.name,
			Sector:    &sector,
			Industry:  &industry,
			MarketCap: &cap,
		})
	}
	return out, nil
}

// PriceHistory generates a random walk of daily bars, weekdays only.
// The walk is re-seeded per ticker so it does not depend on request order.
func (m *MockProvider) PriceHistory(ticker string, start, end time.Time) ([]PriceData, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("PriceHistory: end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	rng := rand.New(rand.NewSource(m.seed + int64(hashTicker(ticker))))
	price := 20 + rng.Float64()*480

	var out []PriceData
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		drift := (rng.Float64() - 0.49) * 0.02 // slight upward bias
		open := price
		price = price * (1 + drift)
		high := open
		if price > high {
			high = price
		}
		high *= 1 + rng.Float64()*0.01
		low := open
		if price < low {
			low = price
		}
		low *= 1 - rng.Float64()*0.01

		out = append(out, PriceData{
			Ticker:   ticker,
			Date:     d,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    price,
			AdjClose: price,
			Volume:   int64(1_000_000 + rng.Intn(50_000_000)),
		})
	}
	return out, nil
}

// CurrentPrice returns the last close of a short recent walk
func (m *MockProvider) CurrentPrice(ticker string) (float64, bool, error) {
	end := time.Now().UTC()
	history, err := m.PriceHistory(ticker, end.AddDate(0, 0, -7), end)
	if err != nil || len(history) == 0 {
		return 0, false, err
	}
	return history[len(history)-1].Close, true, nil
}

// Analysts returns the synthetic analyst roster
func (m *MockProvider) Analysts() ([]AnalystData, error) {
	m.generate()
	return m.analysts, nil
}

// RatingsForCompany returns the synthetic ratings for one ticker
func (m *MockProvider) RatingsForCompany(ticker string, start, end time.Time) ([]RatingData, error) {
	m.generate()
	var out []RatingData
	for _, r := range m.ratings {
		if r.Ticker != ticker {
			continue
		}
		if !start.IsZero() && r.Date.Before(start) {
			continue
		}
		if !end.IsZero() && r.Date.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// generate builds the full synthetic data set exactly once, no matter how
// many goroutines race on the first data request.
func (m *MockProvider) generate() {
	m.genOnce.Do(m.build)
}

func (m *MockProvider) build() {
	rng := rand.New(rand.NewSource(m.seed))

	for i := 0; i < m.numAnalysts; i++ {
		m.analysts = append(m.analysts, AnalystData{
			AnalystID: fmt.Sprintf("mock_%04d", i),
			Name:      fmt.Sprintf("Analyst %d", i+1),
			Firm:      mockFirms[rng.Intn(len(mockFirms))],
		})
	}

	// Ratings over the last three years, weighted toward hold/buy the way
	// real coverage distributions are. Anchoring on the truncated day keeps
	// same-seed providers in exact agreement.
	end := m.now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-3, 0, 0)
	rangeDays := int(end.Sub(start).Hours() / 24)

	categories := []string{
		models.RatingStrongBuy, models.RatingBuy, models.RatingHold,
		models.RatingSell, models.RatingStrongSell,
	}
	weights := []int{5, 30, 40, 20, 5}

	for _, analyst := range m.analysts {
		n := m.ratingsPerAnalyst/2 + rng.Intn(m.ratingsPerAnalyst+1)
		for j := 0; j < n; j++ {
			entry := mockTickers[rng.Intn(len(mockTickers))]
			date := start.AddDate(0, 0, rng.Intn(rangeDays))
			category := weightedPick(rng, categories, weights)

			var target *float64
			if rng.Float64() < 0.8 {
				base := 20 + rng.Float64()*480
				t := base * targetMultiplier(rng, category)
				target = &t
			}

			m.ratings = append(m.ratings, RatingData{
				AnalystID:   analyst.AnalystID,
				Ticker:      entry.ticker,
				Date:        date,
				Rating:      category,
				PriceTarget: target,
			})
		}
	}

	sort.Slice(m.ratings, func(i, j int) bool {
		return m.ratings[i].Date.Before(m.ratings[j].Date)
	})
}

func weightedPick(rng *rand.Rand, values []string, weights []int) string {
	total := 0
	for _, w := range weights {
		total += w
	}
	pick := rng.Intn(total)
	for i, w := range weights {
		if pick < w {
			return values[i]
		}
		pick -= w
	}
	return values[len(values)-1]
}

func targetMultiplier(rng *rand.Rand, category string) float64 {
	span := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	switch category {
	case models.RatingStrongBuy:
		return span(1.15, 1.40)
	case models.RatingBuy:
		return span(1.05, 1.20)
	case models.RatingHold:
		return span(0.95, 1.05)
	case models.RatingSell:
		return span(0.80, 0.95)
	default: // strong_sell
		return span(0.60, 0.85)
	}
}

func hashTicker(ticker string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(ticker); i++ {
		h ^= uint32(ticker[i])
		h *= 16777619
	}
	return h
}
