package providers

import (
	"fmt"
	"log"
	"time"
)

// CompositeProvider layers multiple providers with priority ordering. Stock
// data comes from the first provider that succeeds. Ratings are either
// aggregated across all providers or taken from the first one with data.
type CompositeProvider struct {
	stockProviders   []StockProvider
	ratingsProviders []RatingsProvider
	aggregateRatings bool
}

func NewCompositeProvider(stock []StockProvider, ratings []RatingsProvider, aggregateRatings bool) *CompositeProvider {
	return &CompositeProvider{
		stockProviders:   stock,
		ratingsProviders: ratings,
		aggregateRatings: aggregateRatings,
	}
}

// Companies returns the company list from the first stock provider that succeeds
func (c *CompositeProvider) Companies() ([]CompanyData, error) {
	var lastErr error
	for _, p := range c.stockProviders {
		companies, err := p.Companies()
		if err != nil {
			log.Printf("⚠️  Company list provider failed, trying next: %v", err)
			lastErr = err
			continue
		}
		if len(companies) > 0 {
			return companies, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("Companies: all providers failed: %w", lastErr)
	}
	return nil, nil
}

// PriceHistory tries each stock provider in order
func (c *CompositeProvider) PriceHistory(ticker string, start, end time.Time) ([]PriceData, error) {
	var lastErr error
	for _, p := range c.stockProviders {
		prices, err := p.PriceHistory(ticker, start, end)
		if err != nil {
			lastErr = err
			continue
		}
		if len(prices) > 0 {
			return prices, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("PriceHistory %s: all providers failed: %w", ticker, lastErr)
	}
	return nil, nil
}

// CurrentPrice tries each stock provider in order
func (c *CompositeProvider) CurrentPrice(ticker string) (float64, bool, error) {
	var lastErr error
	for _, p := range c.stockProviders {
		price, ok, err := p.CurrentPrice(ticker)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return price, true, nil
		}
	}
	if lastErr != nil {
		return 0, false, fmt.Errorf("CurrentPrice %s: all providers failed: %w", ticker, lastErr)
	}
	return 0, false, nil
}

// Analysts merges analysts from all ratings providers, first provider wins
// on id collisions.
func (c *CompositeProvider) Analysts() ([]AnalystData, error) {
	seen := make(map[string]bool)
	var out []AnalystData
	for _, p := range c.ratingsProviders {
		analysts, err := p.Analysts()
		if err != nil {
			log.Printf("⚠️  Analyst roster provider failed: %v", err)
			continue
		}
		for _, a := range analysts {
			if seen[a.AnalystID] {
				continue
			}
			seen[a.AnalystID] = true
			out = append(out, a)
		}
	}
	return out, nil
}

// RatingsForCompany collects ratings across providers. With aggregation off
// the first provider returning data wins.
func (c *CompositeProvider) RatingsForCompany(ticker string, start, end time.Time) ([]RatingData, error) {
	var out []RatingData
	var lastErr error
	for _, p := range c.ratingsProviders {
		ratings, err := p.RatingsForCompany(ticker, start, end)
		if err != nil {
			lastErr = err
			continue
		}
		if len(ratings) == 0 {
			continue
		}
		if !c.aggregateRatings {
			return ratings, nil
		}
		out = append(out, ratings...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("RatingsForCompany %s: all providers failed: %w", ticker, lastErr)
	}
	return out, nil
}
