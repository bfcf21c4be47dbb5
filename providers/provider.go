// Package providers defines the pluggable data source capability feeding the
// ingestion service. The scoring core never depends on which provider
// supplied the data, only on the record shapes defined here.
package providers

import "time"

// CompanyData is standardized company information from any provider.
type CompanyData struct {
	Ticker    string
	Name      string
	Sector    *string
	Industry  *string
	MarketCap *float64
}

// PriceData is one standardized daily bar from any provider.
type PriceData struct {
	Ticker   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// AnalystData is standardized analyst identity information.
type AnalystData struct {
	AnalystID string
	Name      string
	Firm      string
}

// RatingData is one standardized analyst rating from any provider.
type RatingData struct {
	AnalystID   string
	Ticker      string
	Date        time.Time
	Rating      string
	PriceTarget *float64
}

// StockProvider supplies company and price data.
type StockProvider interface {
	// Companies fetches the covered universe (S&P 500 constituents).
	Companies() ([]CompanyData, error)

	// PriceHistory fetches daily bars for a ticker over a date range.
	PriceHistory(ticker string, start, end time.Time) ([]PriceData, error)

	// CurrentPrice fetches the latest price for a ticker. ok is false when
	// the provider has no quote for it.
	CurrentPrice(ticker string) (price float64, ok bool, err error)
}

// RatingsProvider supplies analyst identities and ratings.
type RatingsProvider interface {
	// Analysts fetches all analysts the provider knows about.
	Analysts() ([]AnalystData, error)

	// RatingsForCompany fetches ratings on one ticker. Zero start/end leave
	// that bound open.
	RatingsForCompany(ticker string, start, end time.Time) ([]RatingData, error)
}
